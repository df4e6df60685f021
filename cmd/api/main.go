// Package main はチャットデモサーバーのエントリーポイントです。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/chat-demo/internal/app"
	"github.com/yourusername/chat-demo/internal/config"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// ユーザーファイルやテンプレートが読めない場合はここで終了する
	a, err := app.New(context.Background(), cfg, log.Default())
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer a.Close()

	// SIGHUP でユーザーファイルを読み直す
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := a.ReloadUsers(); err != nil {
				log.Printf("Failed to reload users: %v", err)
			}
		}
	}()

	router := a.Router()

	// サーバーの起動
	log.Printf("Starting chat server on %s (mode: %s)", cfg.ListenAddr, cfg.GinMode)
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
