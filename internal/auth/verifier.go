package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost は bcrypt のコスト係数です。
const PasswordCost = bcrypt.DefaultCost

// Verifier は平文パスワードと保存済みハッシュを照合します。
type Verifier interface {
	Verify(plaintext, hash string) bool
}

// BcryptVerifier は bcrypt による Verifier です。
type BcryptVerifier struct{}

// Verify は一致すれば true を返します。ハッシュの形式が不正な場合も false です。
func (BcryptVerifier) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashPassword は users.toml に書くためのハッシュを生成します。
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// decoyHash は存在しないユーザーの照合に使うハッシュです。
// 照合時間でユーザーの有無が分からないよう、実在ユーザーと同じコストで生成します。
func decoyHash() string {
	dummyHashOnce.Do(func() {
		buf := make([]byte, 16)
		_, _ = rand.Read(buf)
		hash, err := HashPassword(hex.EncodeToString(buf))
		if err != nil {
			return
		}
		dummyHash = hash
	})
	return dummyHash
}
