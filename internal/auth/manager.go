// Package auth はログイン処理とセッションクッキーによる利用者の識別を提供します。
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/chat-demo/internal/session"
	"github.com/yourusername/chat-demo/internal/users"
	"github.com/yourusername/chat-demo/internal/view"
)

const (
	SessionCookieName = "chat_session"
	formSessionName   = "chat_form"
	sessionKeyCSRF    = "csrf_token"

	failureMessage     = "Invalid username or password."
	lockedMessage      = "Too many failed attempts. Please try again later."
	formExpiredMessage = "The login form has expired. Please reload the page."
)

// ContextUserKey は、ハンドラー間でログイン済みユーザー名を共有するためのキーです。
const ContextUserKey = "auth.user"

// CredentialStore はユーザー名からレコードを引けるストアです。
type CredentialStore interface {
	Lookup(username string) (users.Record, bool)
}

// Options は Manager の依存関係です。
type Options struct {
	Users    CredentialStore
	Codec    *session.Codec
	Table    *session.Table // nil の場合はクッキーにユーザー名を直接持たせる
	Verifier Verifier       // nil の場合は bcrypt
	Limiter  Limiter        // nil の場合は DefaultLimitPolicy のメモリ実装
	Renderer *view.Renderer
	Logger   *log.Logger

	// ログインフォームの CSRF 検証。FormKeys が必要です。
	CSRF     bool
	FormKeys *session.Keyring

	SecureCookie bool
}

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	users    CredentialStore
	codec    *session.Codec
	table    *session.Table
	verifier Verifier
	limiter  Limiter
	renderer *view.Renderer
	logger   *log.Logger

	csrf      bool
	formStore cookie.Store
	secure    bool
}

// NewManager は認証マネージャーを作成します。
func NewManager(opts Options) (*Manager, error) {
	if opts.Users == nil {
		return nil, errors.New("credential store is nil")
	}
	if opts.Codec == nil {
		return nil, errors.New("session codec is nil")
	}
	if opts.Renderer == nil {
		return nil, errors.New("renderer is nil")
	}

	m := &Manager{
		users:    opts.Users,
		codec:    opts.Codec,
		table:    opts.Table,
		verifier: opts.Verifier,
		limiter:  opts.Limiter,
		renderer: opts.Renderer,
		logger:   opts.Logger,
		csrf:     opts.CSRF,
		secure:   opts.SecureCookie,
	}
	if m.verifier == nil {
		m.verifier = BcryptVerifier{}
	}
	if m.limiter == nil {
		m.limiter = NewMemoryLimiter(DefaultLimitPolicy)
	}
	if m.logger == nil {
		m.logger = log.Default()
	}

	if opts.CSRF {
		if opts.FormKeys == nil {
			return nil, errors.New("form keys are required when CSRF is enabled")
		}
		store := cookie.NewStore(opts.FormKeys.FormHashKey, opts.FormKeys.FormBlockKey)
		store.Options(sessions.Options{
			Path:     "/login",
			HttpOnly: true,
			Secure:   opts.SecureCookie,
			SameSite: http.SameSiteStrictMode,
		})
		m.formStore = store
	}
	return m, nil
}

// FormSessions はログインフォーム用のセッションミドルウェアを返します。CSRF 無効時は何もしません。
func (m *Manager) FormSessions() gin.HandlerFunc {
	if !m.csrf {
		return func(c *gin.Context) { c.Next() }
	}
	return sessions.Sessions(formSessionName, m.formStore)
}

type loginPageData struct {
	CSRFToken string
	LoggedIn  bool
	Username  string
}

type loginForm struct {
	Username  string `form:"username"`
	Password  string `form:"password"`
	CSRFToken string `form:"csrf_token"`
}

// LoginPage は GET /login のハンドラーです。
func (m *Manager) LoginPage(c *gin.Context) {
	data := loginPageData{}
	data.Username, data.LoggedIn = CurrentUser(c)

	if m.csrf {
		token, err := generateToken()
		if err != nil {
			m.renderer.Fail(c, err)
			return
		}
		s := sessions.Default(c)
		s.Set(sessionKeyCSRF, token)
		if err := s.Save(); err != nil {
			m.renderer.Fail(c, err)
			return
		}
		data.CSRFToken = token
	}

	m.renderer.Render(c, http.StatusOK, view.PageLogin, data)
}

// Login は POST /login のハンドラーです。
// 成功・失敗とも 200 でフラグメントを返します。存在しないユーザーとパスワード違いは区別しません。
func (m *Manager) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		m.renderFailure(c, http.StatusOK, failureMessage)
		return
	}

	if m.csrf && !m.checkCSRF(c, form.CSRFToken) {
		m.renderFailure(c, http.StatusForbidden, formExpiredMessage)
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()
	retryAfter, err := m.limiter.Check(ctx, ip)
	if err != nil {
		m.logger.Printf("login limiter check failed client=%s: %v", ip, err)
	}
	if retryAfter > 0 {
		// Retry-After は秒数で返す
		c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
		m.renderFailure(c, http.StatusTooManyRequests, lockedMessage)
		return
	}

	if !m.authenticate(form.Username, form.Password) {
		remaining, err := m.limiter.RecordFailure(ctx, ip)
		if err != nil {
			m.logger.Printf("login limiter record failed client=%s: %v", ip, err)
		}
		m.logger.Printf("login failed client=%s remaining=%d", ip, remaining)
		m.renderFailure(c, http.StatusOK, failureMessage)
		return
	}

	if err := m.limiter.Reset(ctx, ip); err != nil {
		m.logger.Printf("login limiter reset failed client=%s: %v", ip, err)
	}

	token, err := m.issue(form.Username)
	if err != nil {
		m.renderer.Fail(c, err)
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     m.codec.Name(),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	m.logger.Printf("login succeeded user=%s client=%s", form.Username, ip)
	m.renderer.Render(c, http.StatusOK, view.FragmentLoginSuccess, gin.H{"Username": form.Username})
}

// Identify はクッキーを検証し、ログイン済みならユーザー名をコンテキストに設定するミドルウェアです。
// 未ログインでも処理は継続します。
func (m *Manager) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := m.resolve(c); ok {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser は Identify が設定したユーザー名を返します。
func CurrentUser(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return "", false
	}
	user, ok := v.(string)
	return user, ok && user != ""
}

func (m *Manager) authenticate(username, password string) bool {
	record, found := m.users.Lookup(username)
	hash := record.PasswordHash
	if !found {
		hash = decoyHash()
	}
	matched := m.verifier.Verify(password, hash)
	return found && matched && username != ""
}

// issue はクッキーに入れるトークンを発行します。
func (m *Manager) issue(username string) (string, error) {
	if m.table == nil {
		return m.codec.Issue(username)
	}
	id, err := m.table.Put(username)
	if err != nil {
		return "", err
	}
	return m.codec.Issue(id)
}

func (m *Manager) resolve(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(m.codec.Name())
	if err != nil {
		return "", false
	}
	subject, ok := m.codec.Validate(raw)
	if !ok {
		return "", false
	}
	if m.table == nil {
		return subject, true
	}
	return m.table.Get(subject)
}

func (m *Manager) checkCSRF(c *gin.Context, received string) bool {
	s := sessions.Default(c)
	expected, ok := s.Get(sessionKeyCSRF).(string)
	if !ok || expected == "" || received == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}

func (m *Manager) renderFailure(c *gin.Context, status int, message string) {
	m.renderer.Render(c, status, view.FragmentLoginFailure, gin.H{"Message": message})
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
