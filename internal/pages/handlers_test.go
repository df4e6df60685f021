package pages

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/chat-demo/internal/auth"
	"github.com/yourusername/chat-demo/internal/view"
	"github.com/yourusername/chat-demo/web"
)

func newTestRouter(t *testing.T, manifestPath string, user string) (*gin.Engine, *FunnyList) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := log.New(io.Discard, "", 0)

	renderer, err := view.Load(web.Templates(), logger)
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}
	list := NewFunnyList()
	h := NewHandlers(renderer, list, manifestPath, logger)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if user != "" {
			c.Set(auth.ContextUserKey, user)
		}
		c.Next()
	})
	router.GET("/", h.Static(view.PageHome))
	router.GET("/about", h.Static(view.PageAbout))
	router.GET("/funny_list", h.FunnyList)
	router.POST("/add", h.Add)
	router.GET("/chat/:room", h.Chat)
	router.GET("/cargo", h.Manifest)
	return router, list
}

func do(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestStaticPages(t *testing.T) {
	router, _ := newTestRouter(t, "go.mod", "")

	for _, path := range []string{"/", "/about"} {
		rec := do(router, http.MethodGet, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "<html") {
			t.Fatalf("%s: expected html page, got %q", path, rec.Body.String())
		}
	}
}

func TestAddAppendsToFunnyList(t *testing.T) {
	router, list := newTestRouter(t, "go.mod", "")

	rec := do(router, http.MethodPost, "/add")
	if rec.Code != http.StatusOK || rec.Body.String() != "Click Me!" {
		t.Fatalf("unexpected add response: %d %q", rec.Code, rec.Body.String())
	}

	items, number := list.Snapshot()
	if number != 70 {
		t.Fatalf("counter = %d, want 70", number)
	}
	if items[len(items)-1] != "woow" {
		t.Fatalf("unexpected last item: %q", items[len(items)-1])
	}

	rec = do(router, http.MethodGet, "/funny_list")
	body := rec.Body.String()
	for _, want := range []string{"hahaah", "lustig", "woow", "(70)"} {
		if !strings.Contains(body, want) {
			t.Fatalf("funny list missing %q: %s", want, body)
		}
	}
}

func TestConcurrentAdd(t *testing.T) {
	list := NewFunnyList()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list.Add("woow")
		}()
	}
	wg.Wait()

	items, number := list.Snapshot()
	if number != 69+50 || len(items) != 5+50 {
		t.Fatalf("lost updates: number=%d items=%d", number, len(items))
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	list := NewFunnyList()
	items, _ := list.Snapshot()
	items[0] = "changed"
	if again, _ := list.Snapshot(); again[0] != "hahaah" {
		t.Fatal("snapshot must not alias internal state")
	}
}

func TestChatAnonymous(t *testing.T) {
	router, _ := newTestRouter(t, "go.mod", "")

	rec := do(router, http.MethodGet, "/chat/ana")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `data-logged-in="false"`) || !strings.Contains(body, "You are not logged in") {
		t.Fatalf("expected anonymous chat page: %s", body)
	}
}

func TestChatLoggedIn(t *testing.T) {
	router, _ := newTestRouter(t, "go.mod", "alice")

	for _, room := range []string{"ana", "la", "eaz"} {
		rec := do(router, http.MethodGet, "/chat/"+room)
		body := rec.Body.String()
		if !strings.Contains(body, `data-logged-in="true"`) || !strings.Contains(body, "Logged in as alice") {
			t.Fatalf("%s: expected logged-in chat page: %s", room, body)
		}
		if !strings.Contains(body, "#"+room) {
			t.Fatalf("%s: expected room title: %s", room, body)
		}
	}
}

func TestChatUnknownRoom(t *testing.T) {
	router, _ := newTestRouter(t, "go.mod", "")

	rec := do(router, http.MethodGet, "/chat/lobby")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.mod")
	content := "module example.com/demo\n\ngo 1.24.0\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	router, _ := newTestRouter(t, path, "")

	rec := do(router, http.MethodGet, "/cargo")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec.Body.String() != content {
		t.Fatalf("manifest must be served verbatim, got %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type: %s", ct)
	}
}

func TestManifestMissing(t *testing.T) {
	router, _ := newTestRouter(t, filepath.Join(t.TempDir(), "missing.toml"), "")

	if rec := do(router, http.MethodGet, "/cargo"); rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
