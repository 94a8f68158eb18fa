package memory

import (
	"fmt"
	"sync"
	"time"

	"infra-assistant-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// HistoryRepository keeps the last few messages of each active session so the
// responder does not re-query the store on every turn. Entries expire after
// an hour of inactivity.
type HistoryRepository struct {
	cache  *cache.Cache
	window int
	mu     sync.Mutex
}

func NewHistoryRepository(window int) *HistoryRepository {
	if window <= 0 {
		window = 10
	}
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &HistoryRepository{
		cache:  c,
		window: window,
	}
}

func historyKey(sessionId uint) string {
	return fmt.Sprintf("session:%d", sessionId)
}

// Append adds a message to the session window, dropping the oldest beyond the window.
func (r *HistoryRepository) Append(message *entity.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := historyKey(message.ChatSessionId)
	var history []*entity.ChatMessage
	if x, found := r.cache.Get(key); found {
		history = x.([]*entity.ChatMessage)
	}
	next := make([]*entity.ChatMessage, 0, len(history)+1)
	next = append(next, history...)
	next = append(next, message)
	if len(next) > r.window {
		next = next[len(next)-r.window:]
	}
	r.cache.Set(key, next, cache.DefaultExpiration)
}

// Save replaces the window, keeping only the newest messages.
func (r *HistoryRepository) Save(sessionId uint, messages []*entity.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(messages) > r.window {
		messages = messages[len(messages)-r.window:]
	}
	r.cache.Set(historyKey(sessionId), append([]*entity.ChatMessage(nil), messages...), cache.DefaultExpiration)
}

func (r *HistoryRepository) Get(sessionId uint) ([]*entity.ChatMessage, bool) {
	if x, found := r.cache.Get(historyKey(sessionId)); found {
		return x.([]*entity.ChatMessage), true
	}
	return nil, false
}

func (r *HistoryRepository) Delete(sessionId uint) {
	r.cache.Delete(historyKey(sessionId))
}

func (r *HistoryRepository) Window() int {
	return r.window
}
