package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/chat-demo/internal/storage"
)

const htmlContentType = "text/html; charset=utf-8"

// RenderError はページの描画に失敗したことを表します。
type RenderError struct {
	Page PageID
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("could not render %s: %v", e.Page, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Renderer は Pages に登録されたページを描画します。
type Renderer struct {
	pages     map[PageID]Descriptor
	files     *storage.Local
	templates map[PageID]*template.Template
	logger    *log.Logger
}

// Load は fsys から全ページを読み込みます。
// テンプレートの解析失敗や静的ページの欠落はここでエラーになり、起動を中断させる想定です。
func Load(fsys fs.FS, logger *log.Logger) (*Renderer, error) {
	return LoadPages(fsys, Pages, logger)
}

// LoadPages は任意の対応表で Renderer を作成します。
func LoadPages(fsys fs.FS, pages map[PageID]Descriptor, logger *log.Logger) (*Renderer, error) {
	if logger == nil {
		logger = log.Default()
	}
	r := &Renderer{
		pages:     pages,
		files:     storage.NewLocal(fsys),
		templates: make(map[PageID]*template.Template),
		logger:    logger,
	}

	ids := make([]string, 0, len(pages))
	for id := range pages {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	for _, raw := range ids {
		id := PageID(raw)
		desc := pages[id]
		if desc.Static {
			if err := r.files.Exists(desc.File); err != nil {
				return nil, fmt.Errorf("static page %s: %w", id, err)
			}
			continue
		}
		tmpl, err := template.ParseFS(fsys, desc.File)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", id, err)
		}
		r.templates[id] = tmpl
	}
	return r, nil
}

// Render はページを status で返します。描画に失敗した場合は 500 のエラーページを返します。
func (r *Renderer) Render(c *gin.Context, status int, id PageID, data any) {
	body, contentType, err := r.Bytes(id, data)
	if err != nil {
		r.Fail(c, err)
		return
	}
	c.Data(status, contentType, body)
}

// Bytes はページを描画した結果と Content-Type を返します。
func (r *Renderer) Bytes(id PageID, data any) ([]byte, string, error) {
	desc, ok := r.pages[id]
	if !ok {
		return nil, "", &RenderError{Page: id, Err: fmt.Errorf("page not registered")}
	}

	if desc.Static {
		f, err := r.files.Read(desc.File)
		if err != nil {
			return nil, "", &RenderError{Page: id, Err: err}
		}
		return f.Data, f.ContentType, nil
	}

	tmpl, ok := r.templates[id]
	if !ok {
		return nil, "", &RenderError{Page: id, Err: fmt.Errorf("template not loaded")}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, "", &RenderError{Page: id, Err: err}
	}
	return buf.Bytes(), htmlContentType, nil
}

// Fail はエラーをログに残し、500 のエラーページを返します。
func (r *Renderer) Fail(c *gin.Context, err error) {
	r.logger.Printf("request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	WriteError(c, http.StatusInternalServerError, "Internal server error")
}
