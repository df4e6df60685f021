// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// セッションの保持方式
const (
	SessionModeCookie = "cookie" // ユーザー名をクッキーのペイロードに直接持つ
	SessionModeTable  = "table"  // クッキーにはセッションIDのみを持ち、サーバー側のテーブルで解決する
)

// クッキーの保護方式
const (
	CookieModePrivate = "private" // 署名 + 暗号化
	CookieModeSigned  = "signed"  // 署名のみ
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	ListenAddr string // 待ち受けアドレス（ループバック固定が既定）
	GinMode    string // Ginの実行モード (debug, release, test)

	// ファイル
	UsersFile    string // ユーザー認証情報のTOMLファイル
	TemplatesDir string // テンプレートディレクトリ（空の場合は埋め込みテンプレートを使用）
	ManifestPath string // /cargo で返すビルドマニフェスト

	// セッション設定
	SessionMode       string // cookie または table
	SessionCookieMode string // private または signed
	LoginCSRF         bool   // ログインフォームのCSRF検証を有効にするか

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// ログイン試行制限
	LimiterRedisURL    string // 空の場合はメモリ上で管理
	MaxLoginAttempts   int
	LoginWindowMinutes int
	LoginLockMinutes   int
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// サーバー設定
		ListenAddr: getEnv("LISTEN_ADDR", "127.0.0.1:3000"),
		GinMode:    getEnv("GIN_MODE", "debug"),

		// ファイル
		UsersFile:    getEnv("USERS_FILE", "users.toml"),
		TemplatesDir: getEnv("TEMPLATES_DIR", ""),
		ManifestPath: getEnv("MANIFEST_PATH", "go.mod"),

		// セッション設定
		SessionMode:       strings.ToLower(getEnv("SESSION_MODE", SessionModeCookie)),
		SessionCookieMode: strings.ToLower(getEnv("SESSION_COOKIE_MODE", CookieModePrivate)),
		LoginCSRF:         getEnvAsBool("LOGIN_CSRF", false),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://127.0.0.1:3000"),

		// ログイン試行制限
		LimiterRedisURL:    getEnv("LIMITER_REDIS_URL", ""),
		MaxLoginAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindowMinutes: getEnvAsInt("LOGIN_WINDOW_MINUTES", 15),
		LoginLockMinutes:   getEnvAsInt("LOGIN_LOCK_MINUTES", 10),
	}

	// 設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}
	if c.UsersFile == "" {
		return fmt.Errorf("USERS_FILE is required")
	}

	switch c.SessionMode {
	case SessionModeCookie, SessionModeTable:
	default:
		return fmt.Errorf("SESSION_MODE must be %q or %q, got %q", SessionModeCookie, SessionModeTable, c.SessionMode)
	}

	switch c.SessionCookieMode {
	case CookieModePrivate, CookieModeSigned:
	default:
		return fmt.Errorf("SESSION_COOKIE_MODE must be %q or %q, got %q", CookieModePrivate, CookieModeSigned, c.SessionCookieMode)
	}

	if c.MaxLoginAttempts <= 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive")
	}
	if c.LoginWindowMinutes <= 0 || c.LoginLockMinutes <= 0 {
		return fmt.Errorf("LOGIN_WINDOW_MINUTES and LOGIN_LOCK_MINUTES must be positive")
	}

	return nil
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
