// Package favorites 維護使用者收藏的食譜
package favorites

import (
	"sync"

	"recipe-box/internal/core/recipe"
	"recipe-box/internal/pkg/common"

	"go.uber.org/zap"
)

// Listener 收藏變更後以最新快照呼叫。
// 監聽器可讀取 Store，但不可在回呼中修改它。
type Listener func(items []recipe.Recipe)

// Store 以識別碼為鍵、依加入順序排列的收藏清單
//
// 狀態只存在記憶體中，程序重啟後清空。
type Store struct {
	mu sync.RWMutex
	// notifyMu 在釋放 mu 前取得，通知順序與變更順序一致
	notifyMu  sync.Mutex
	order     []string
	records   map[string]recipe.Recipe
	listeners map[int]Listener
	nextID    int
}

// NewStore 創建收藏清單
func NewStore() *Store {
	return &Store{
		records:   make(map[string]recipe.Recipe),
		listeners: make(map[int]Listener),
	}
}

// Toggle 已收藏則移除，否則加入末端，回傳操作後是否為收藏
func (s *Store) Toggle(r recipe.Recipe) bool {
	s.mu.Lock()
	_, exists := s.records[r.ID]
	if exists {
		delete(s.records, r.ID)
		s.order = removeID(s.order, r.ID)
	} else {
		s.records[r.ID] = cloneRecipe(r)
		s.order = append(s.order, r.ID)
	}
	items, listeners := s.snapshotLocked(), s.listenersLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()

	common.LogDebug("收藏已切換",
		zap.String("id", r.ID),
		zap.Bool("favorite", !exists),
		zap.Int("total", len(items)),
	)
	notify(listeners, items)
	s.notifyMu.Unlock()
	return !exists
}

// Clear 清空收藏
func (s *Store) Clear() {
	s.mu.Lock()
	removed := len(s.order)
	s.order = nil
	s.records = make(map[string]recipe.Recipe)
	listeners := s.listenersLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()

	common.LogInfo("收藏已清空", zap.Int("removed", removed))
	notify(listeners, []recipe.Recipe{})
	s.notifyMu.Unlock()
}

// IsFavorite 查詢識別碼是否已收藏
func (s *Store) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok
}

// List 依加入順序回傳收藏快照
func (s *Store) List() []recipe.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len 收藏數量
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Subscribe 註冊變更監聽器，回傳取消函數
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) snapshotLocked() []recipe.Recipe {
	items := make([]recipe.Recipe, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, cloneRecipe(s.records[id]))
	}
	return items
}

// listenersLocked 依註冊順序取出監聽器
func (s *Store) listenersLocked() []Listener {
	if len(s.listeners) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func notify(listeners []Listener, items []recipe.Recipe) {
	for _, l := range listeners {
		l(items)
	}
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i:i], order[i+1:]...)
		}
	}
	return order
}

// cloneRecipe 複製食材切片，避免呼叫端透過快照修改內部狀態
func cloneRecipe(r recipe.Recipe) recipe.Recipe {
	if r.Ingredients != nil {
		r.Ingredients = append([]recipe.Ingredient(nil), r.Ingredients...)
	}
	return r
}
