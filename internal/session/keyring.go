// Package session はセッションクッキーの発行・検証と、サーバー側セッションテーブルを提供します。
package session

import (
	"errors"

	"github.com/gorilla/securecookie"
)

const (
	hashKeyLength  = 64
	blockKeyLength = 32
)

var errKeyGeneration = errors.New("failed to generate random key")

// Keyring はプロセス起動ごとに生成される鍵の集合です。永続化はしないため、
// 再起動すると以前に発行したクッキーはすべて検証に失敗します。
type Keyring struct {
	HashKey  []byte // HMAC-SHA256 用
	BlockKey []byte // AES-256 用

	// ログインフォームの CSRF セッション用の鍵ペア
	FormHashKey  []byte
	FormBlockKey []byte
}

// NewKeyring は新しい鍵を生成します。
func NewKeyring() (*Keyring, error) {
	k := &Keyring{
		HashKey:      securecookie.GenerateRandomKey(hashKeyLength),
		BlockKey:     securecookie.GenerateRandomKey(blockKeyLength),
		FormHashKey:  securecookie.GenerateRandomKey(hashKeyLength),
		FormBlockKey: securecookie.GenerateRandomKey(blockKeyLength),
	}
	if k.HashKey == nil || k.BlockKey == nil || k.FormHashKey == nil || k.FormBlockKey == nil {
		return nil, errKeyGeneration
	}
	return k, nil
}
