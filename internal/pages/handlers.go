// Package pages は静的ページ、リスト、チャットルームのハンドラーを提供します。
package pages

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/chat-demo/internal/auth"
	"github.com/yourusername/chat-demo/internal/storage"
	"github.com/yourusername/chat-demo/internal/view"
)

const addedItem = "woow"

// Room はチャットルームの表示情報です。
type Room struct {
	Title string
}

// Rooms は公開しているチャットルームです。
var Rooms = map[string]Room{
	"ana": {Title: "#ana"},
	"la":  {Title: "#la"},
	"eaz": {Title: "#eaz"},
}

// Handlers はページ系のハンドラーをまとめた構造体です。
type Handlers struct {
	renderer     *view.Renderer
	list         *FunnyList
	manifest     *storage.Local
	manifestName string
	logger       *log.Logger
}

// NewHandlers は Handlers を作成します。manifestPath は /cargo で返すファイルです。
func NewHandlers(renderer *view.Renderer, list *FunnyList, manifestPath string, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	manifest, name := storage.NewLocalFile(manifestPath)
	return &Handlers{
		renderer:     renderer,
		list:         list,
		manifest:     manifest,
		manifestName: name,
		logger:       logger,
	}
}

// Static は登録済みの静的ページを返すハンドラーを返します。
func (h *Handlers) Static(id view.PageID) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.renderer.Render(c, http.StatusOK, id, nil)
	}
}

// FunnyList は GET /funny_list のハンドラーです。
func (h *Handlers) FunnyList(c *gin.Context) {
	items, number := h.list.Snapshot()
	h.renderer.Render(c, http.StatusOK, view.PageFunnyList, gin.H{
		"Items":  items,
		"Number": number,
	})
}

// Add は POST /add のハンドラーです。
func (h *Handlers) Add(c *gin.Context) {
	h.logger.Printf("button pressed")
	h.list.Add(addedItem)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("Click Me!"))
}

type chatPage struct {
	Room       string
	Title      string
	IsLoggedIn bool
	Username   string
}

// Chat は GET /chat/:room のハンドラーです。表示内容はログイン状態で変わります。
func (h *Handlers) Chat(c *gin.Context) {
	name := c.Param("room")
	room, ok := Rooms[name]
	if !ok {
		view.WriteError(c, http.StatusNotFound, "Not found")
		return
	}

	username, loggedIn := auth.CurrentUser(c)
	h.renderer.Render(c, http.StatusOK, view.PageChat, chatPage{
		Room:       name,
		Title:      room.Title,
		IsLoggedIn: loggedIn,
		Username:   username,
	})
}

// Manifest は GET /cargo のハンドラーです。ビルドマニフェストをそのまま返します。
func (h *Handlers) Manifest(c *gin.Context) {
	f, err := h.manifest.Read(h.manifestName)
	if err != nil {
		if storage.IsNotExist(err) {
			view.WriteError(c, http.StatusNotFound, "Not found")
			return
		}
		h.renderer.Fail(c, err)
		return
	}
	c.Data(http.StatusOK, f.ContentType, f.Data)
}
