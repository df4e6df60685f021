// Package app は設定から各コンポーネントを組み立て、ルーティングを行います。
package app

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/chat-demo/internal/auth"
	"github.com/yourusername/chat-demo/internal/config"
	"github.com/yourusername/chat-demo/internal/pages"
	"github.com/yourusername/chat-demo/internal/session"
	"github.com/yourusername/chat-demo/internal/users"
	"github.com/yourusername/chat-demo/internal/view"
	"github.com/yourusername/chat-demo/web"
)

// App はプロセス全体で共有する状態です。各ハンドラーには必要な部分だけを渡します。
type App struct {
	cfg    *config.Config
	logger *log.Logger

	Users    *users.Store
	Codec    *session.Codec
	Table    *session.Table // SESSION_MODE=table の場合のみ
	List     *pages.FunnyList
	Renderer *view.Renderer

	auth    *auth.Manager
	pages   *pages.Handlers
	closers []func() error
}

// New は設定からアプリケーションを組み立てます。
// ユーザーファイルやテンプレートが欠けている場合はエラーを返し、起動は中断されます。
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	a := &App{cfg: cfg, logger: logger, List: pages.NewFunnyList()}

	store, err := users.Load(cfg.UsersFile)
	if err != nil {
		return nil, err
	}
	a.Users = store

	renderer, err := view.Load(templatesFS(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	a.Renderer = renderer

	keys, err := session.NewKeyring()
	if err != nil {
		return nil, err
	}
	mode, err := session.ParseMode(cfg.SessionCookieMode)
	if err != nil {
		return nil, err
	}
	codec, err := session.NewCodec(auth.SessionCookieName, keys, mode)
	if err != nil {
		return nil, err
	}
	a.Codec = codec

	if cfg.SessionMode == config.SessionModeTable {
		a.Table = session.NewTable()
	}

	limiter, err := a.newLimiter(ctx)
	if err != nil {
		return nil, err
	}

	manager, err := auth.NewManager(auth.Options{
		Users:        store,
		Codec:        codec,
		Table:        a.Table,
		Limiter:      limiter,
		Renderer:     renderer,
		Logger:       logger,
		CSRF:         cfg.LoginCSRF,
		FormKeys:     keys,
		SecureCookie: cfg.GinMode == gin.ReleaseMode,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.auth = manager
	a.pages = pages.NewHandlers(renderer, a.List, cfg.ManifestPath, logger)

	logger.Printf("loaded %d users, session mode=%s cookie mode=%s", store.Len(), cfg.SessionMode, mode)
	return a, nil
}

func templatesFS(cfg *config.Config) fs.FS {
	if cfg.TemplatesDir == "" {
		return web.Templates()
	}
	return os.DirFS(cfg.TemplatesDir)
}

func (a *App) newLimiter(ctx context.Context) (auth.Limiter, error) {
	policy := auth.LimitPolicy{
		MaxAttempts:  a.cfg.MaxLoginAttempts,
		Window:       time.Duration(a.cfg.LoginWindowMinutes) * time.Minute,
		LockDuration: time.Duration(a.cfg.LoginLockMinutes) * time.Minute,
	}
	if a.cfg.LimiterRedisURL == "" {
		return auth.NewMemoryLimiter(policy), nil
	}
	limiter, err := auth.NewRedisLimiterFromURL(ctx, a.cfg.LimiterRedisURL, policy)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, limiter.Close)
	return limiter, nil
}

// ReloadUsers はユーザーファイルを読み直します。失敗時は以前の内容が残ります。
func (a *App) ReloadUsers() error {
	if err := a.Users.Reload(); err != nil {
		return err
	}
	a.logger.Printf("reloaded %d users from %s", a.Users.Len(), a.cfg.UsersFile)
	return nil
}

// Close は外部接続を閉じます。
func (a *App) Close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.logger.Printf("close failed: %v", err)
		}
	}
	a.closers = nil
}

// Router はルーティングを設定した gin.Engine を返します。
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// 許可オリジンが空のまま cors.New を呼ぶと panic するため、その場合は登録しない
	if origins := a.cfg.AllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		router.Use(cors.New(corsConfig))
	}

	router.Use(a.auth.Identify())
	a.setupRoutes(router)
	return router
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "chat-demo",
	})
}

func (a *App) setupRoutes(router *gin.Engine) {
	router.GET("/health", handleHealth)

	// 静的ページ
	router.GET("/", a.pages.Static(view.PageHome))
	router.GET("/about", a.pages.Static(view.PageAbout))
	router.GET("/search", a.pages.Static(view.PageSearch))
	router.GET("/chat_test", a.pages.Static(view.PageChatTest))
	router.GET("/cargo", a.pages.Manifest)

	// 共有リスト
	router.GET("/funny_list", a.pages.FunnyList)
	router.POST("/add", a.pages.Add)

	// ログイン
	login := router.Group("/login", a.auth.FormSessions())
	{
		login.GET("", a.auth.LoginPage)
		login.POST("", a.auth.Login)
	}

	router.GET("/chat/:room", a.pages.Chat)
}
