// Package users はTOMLファイルから読み込むユーザー認証情報のストアを提供します。
package users

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// ErrNoUsersFile はユーザーファイルが存在しない場合のエラーです。
var ErrNoUsersFile = errors.New("users file not found")

// Record はユーザー1件分の認証情報です。
type Record struct {
	Username     string
	PasswordHash string
}

type fileRecord struct {
	PasswordHash string `toml:"password_hash"`
}

type usersFile struct {
	Users map[string]fileRecord `toml:"users"`
}

// Store はユーザー名からレコードを引くための読み取り専用ストアです。
// 内容は起動時に読み込まれ、Reload でのみ差し替えられます。
type Store struct {
	path string

	mu      sync.RWMutex
	records map[string]Record
}

// Load は path のTOMLファイルを読み込んで Store を作成します。
func Load(path string) (*Store, error) {
	records, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, records: records}, nil
}

// NewStore はメモリ上のレコードから Store を作成します（テストや埋め込み用途）。
func NewStore(records ...Record) *Store {
	m := make(map[string]Record, len(records))
	for _, r := range records {
		m[r.Username] = r
	}
	return &Store{records: m}
}

// Lookup はユーザー名に完全一致（大文字小文字を区別）するレコードを返します。
// 存在しない場合はエラーではなく ok=false を返します。
func (s *Store) Lookup(username string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[username]
	return r, ok
}

// Len は登録ユーザー数を返します。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Reload はファイルを読み直して内容を差し替えます。
// 読み込みに失敗した場合は既存の内容を維持したままエラーを返します。
func (s *Store) Reload() error {
	if s.path == "" {
		return fmt.Errorf("store was not loaded from a file")
	}
	records, err := readFile(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

func readFile(path string) (map[string]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoUsersFile, path)
		}
		return nil, fmt.Errorf("read users file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (map[string]Record, error) {
	var doc usersFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}

	records := make(map[string]Record, len(doc.Users))
	for name, fr := range doc.Users {
		records[name] = Record{
			Username:     name,
			PasswordHash: fr.PasswordHash,
		}
	}
	return records, nil
}
