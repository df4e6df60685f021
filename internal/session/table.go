package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Table はセッションIDからユーザー名を引くメモリ上のテーブルです。
// TODO: エントリの期限切れ削除と上限がないため、ログインのたびに増え続ける。期限の値が決まったら prune を追加する。
type Table struct {
	mu       sync.Mutex
	sessions map[string]string
	newID    func() (string, error)
}

// NewTable は空のテーブルを作成します。
func NewTable() *Table {
	return &Table{
		sessions: make(map[string]string),
		newID:    randomID,
	}
}

// Put は username に新しいセッションIDを割り当てて返します。
func (t *Table) Put(username string) (string, error) {
	if username == "" {
		return "", ErrEmptySubject
	}
	id, err := t.newID()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.sessions[id]; exists {
		return "", errors.New("session id collision")
	}
	t.sessions[id] = username
	return id, nil
}

// Get はセッションIDに対応するユーザー名を返します。
func (t *Table) Get(id string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	username, ok := t.sessions[id]
	return username, ok
}

// Len は保持しているセッション数を返します。
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func randomID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
