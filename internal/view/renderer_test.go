package view

import (
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/chat-demo/web"
)

var testPages = map[PageID]Descriptor{
	PageHome:      {File: "index.html", Static: true},
	PageFunnyList: {File: "lister.html"},
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func serve(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", handler)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestLoadEmbeddedTemplates(t *testing.T) {
	if _, err := Load(web.Templates(), quietLogger()); err != nil {
		t.Fatalf("embedded templates must load: %v", err)
	}
}

func TestLoadFailsOnMissingStaticPage(t *testing.T) {
	fsys := fstest.MapFS{
		"lister.html": {Data: []byte("{{ range .Items }}{{ . }}{{ end }}")},
	}
	if _, err := LoadPages(fsys, testPages, quietLogger()); err == nil {
		t.Fatal("expected error for missing static page")
	}
}

func TestLoadFailsOnBrokenTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":  {Data: []byte("home")},
		"lister.html": {Data: []byte("{{ range .Items }")},
	}
	if _, err := LoadPages(fsys, testPages, quietLogger()); err == nil {
		t.Fatal("expected error for broken template")
	}
}

func TestRenderStaticAndTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":  {Data: []byte("<h1>home</h1>")},
		"lister.html": {Data: []byte("{{ range .Items }}<li>{{ . }}</li>{{ end }}")},
	}
	r, err := LoadPages(fsys, testPages, quietLogger())
	if err != nil {
		t.Fatalf("LoadPages returned error: %v", err)
	}

	rec := serve(t, func(c *gin.Context) { r.Render(c, http.StatusOK, PageHome, nil) })
	if rec.Code != http.StatusOK || rec.Body.String() != "<h1>home</h1>" {
		t.Fatalf("unexpected static response: %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type: %s", ct)
	}

	rec = serve(t, func(c *gin.Context) {
		r.Render(c, http.StatusOK, PageFunnyList, map[string]any{"Items": []string{"a", "<b>"}})
	})
	if body := rec.Body.String(); body != "<li>a</li><li>&lt;b&gt;</li>" {
		t.Fatalf("unexpected template response: %q", body)
	}
}

func TestRenderFailureReturnsErrorPage(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":  {Data: []byte("home")},
		"lister.html": {Data: []byte("{{ .Items.Missing }}")},
	}
	r, err := LoadPages(fsys, testPages, quietLogger())
	if err != nil {
		t.Fatalf("LoadPages returned error: %v", err)
	}

	rec := serve(t, func(c *gin.Context) {
		r.Render(c, http.StatusOK, PageFunnyList, map[string]any{"Items": 42})
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	want := "error has occurred with status code 500 and message Internal server error\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := LoadPages(fstest.MapFS{}, map[PageID]Descriptor{}, quietLogger())
	if err != nil {
		t.Fatalf("LoadPages returned error: %v", err)
	}

	_, _, err = r.Bytes(PageChat, nil)
	var renderErr *RenderError
	if !errors.As(err, &renderErr) || renderErr.Page != PageChat {
		t.Fatalf("expected RenderError for %s, got %v", PageChat, err)
	}
}

func TestStaticPageRemovedAfterLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":  {Data: []byte("home")},
		"lister.html": {Data: []byte("list")},
	}
	r, err := LoadPages(fsys, testPages, quietLogger())
	if err != nil {
		t.Fatalf("LoadPages returned error: %v", err)
	}
	delete(fsys, "index.html")

	rec := serve(t, func(c *gin.Context) { r.Render(c, http.StatusOK, PageHome, nil) })
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
