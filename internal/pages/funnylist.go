package pages

import "sync"

// FunnyList はリストとカウンターを保持する共有状態です。
type FunnyList struct {
	mu     sync.Mutex
	items  []string
	number uint32
}

// NewFunnyList は初期状態のリストを作成します。
func NewFunnyList() *FunnyList {
	return &FunnyList{
		items:  []string{"hahaah", "das", "ist", "so", "lustig"},
		number: 69,
	}
}

// Add はカウンターを増やし、項目を1件追加します。
func (l *FunnyList) Add(item string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.number++
	l.items = append(l.items, item)
}

// Snapshot は現在の項目のコピーとカウンターを返します。
func (l *FunnyList) Snapshot() ([]string, uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]string, len(l.items))
	copy(items, l.items)
	return items, l.number
}
