package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/securecookie"
)

// Mode はトークンの保護方式です。
type Mode int

const (
	// ModePrivate はペイロードを署名した上で暗号化します。クッキーの持ち主にも中身は見えません。
	ModePrivate Mode = iota
	// ModeSigned は署名のみを行います。改ざんは検出できますが、中身は読めます。
	ModeSigned
)

// String はモード名を返します。
func (m Mode) String() string {
	switch m {
	case ModePrivate:
		return "private"
	case ModeSigned:
		return "signed"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode は設定値からモードを得ます。
func ParseMode(s string) (Mode, error) {
	switch s {
	case "private":
		return ModePrivate, nil
	case "signed":
		return ModeSigned, nil
	default:
		return 0, fmt.Errorf("unknown cookie mode %q", s)
	}
}

// ErrEmptySubject は空の主体でトークンを発行しようとした場合のエラーです。
var ErrEmptySubject = errors.New("session subject is empty")

type payload struct {
	Subject  string `json:"sub"`
	IssuedAt int64  `json:"iat"`
}

// Codec はユーザー名（またはセッションID）をクッキー値に変換し、検証します。
// 有効期限は設けていないため、トークンは鍵が変わる（プロセスが再起動する）まで有効です。
type Codec struct {
	name string
	mode Mode
	sc   *securecookie.SecureCookie
	now  func() time.Time
}

// NewCodec は cookieName に束縛された Codec を作成します。
// cookieName は MAC の対象に含まれるため、別名のクッキーへ値を移しても検証に失敗します。
func NewCodec(cookieName string, keys *Keyring, mode Mode) (*Codec, error) {
	if cookieName == "" {
		return nil, errors.New("cookie name is required")
	}
	if keys == nil {
		return nil, errors.New("keyring is nil")
	}

	var blockKey []byte
	switch mode {
	case ModePrivate:
		blockKey = keys.BlockKey
	case ModeSigned:
	default:
		return nil, fmt.Errorf("unsupported cookie mode: %s", mode)
	}

	sc := securecookie.New(keys.HashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(0)

	return &Codec{
		name: cookieName,
		mode: mode,
		sc:   sc,
		now:  time.Now,
	}, nil
}

// Name はクッキー名を返します。
func (c *Codec) Name() string {
	return c.name
}

// Mode は保護方式を返します。
func (c *Codec) Mode() Mode {
	return c.mode
}

// Issue は subject を認証（private モードでは暗号化も）したトークンを返します。
func (c *Codec) Issue(subject string) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	token, err := c.sc.Encode(c.name, payload{
		Subject:  subject,
		IssuedAt: c.now().Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("encode session token: %w", err)
	}
	return token, nil
}

// Validate はトークンを検証し、埋め込まれた subject を返します。
// MAC 不一致、形式不正、鍵の違い、空の subject のいずれでも ok=false になります。
func (c *Codec) Validate(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	var p payload
	if err := c.sc.Decode(c.name, token, &p); err != nil {
		return "", false
	}
	if p.Subject == "" {
		return "", false
	}
	return p.Subject, true
}
