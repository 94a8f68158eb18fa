// Package memory provides a process-local implementation of the repository
// contracts. It backs the service when no database is configured and serves as
// the test double for service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/repository/contract"
	"infra-assistant-be/internal/repository/unitofwork"
)

// Store holds every table behind one mutex. Writes are applied immediately;
// transactions only track Begin/Commit pairing and do not isolate or roll back.
type Store struct {
	mu     sync.RWMutex
	nextID uint

	sessions    map[uint]*entity.ChatSession
	messages    map[uint]*entity.ChatMessage
	feedback    map[uint]*entity.ChatFeedback
	memories    map[uint]*entity.MemoryEntry
	preferences map[string]*entity.UserPreference
	shortcuts   map[string]*entity.CommandShortcut

	// FailWith, when set, is returned by every operation. Used to simulate an
	// unreachable store.
	FailWith error
}

func NewStore() *Store {
	return &Store{
		sessions:    make(map[uint]*entity.ChatSession),
		messages:    make(map[uint]*entity.ChatMessage),
		feedback:    make(map[uint]*entity.ChatFeedback),
		memories:    make(map[uint]*entity.MemoryEntry),
		preferences: make(map[string]*entity.UserPreference),
		shortcuts:   make(map[string]*entity.CommandShortcut),
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.FailWith
}

// RepositoryFactoryImpl hands out units of work over a shared Store.
type RepositoryFactoryImpl struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactoryImpl{store: store}
}

func (f *RepositoryFactoryImpl) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: f.store}
}

type unitOfWork struct {
	store *Store
	inTx  bool
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.inTx = true
	return nil
}

func (u *unitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.inTx = false
	return nil
}

func (u *unitOfWork) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.inTx = false
	return nil
}

func (u *unitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return &sessionRepo{u.store}
}

func (u *unitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return &messageRepo{u.store}
}

func (u *unitOfWork) ChatFeedbackRepository() contract.ChatFeedbackRepository {
	return &feedbackRepo{u.store}
}

func (u *unitOfWork) MemoryRepository() contract.MemoryRepository {
	return &memoryRepo{u.store}
}

func (u *unitOfWork) PreferenceRepository() contract.PreferenceRepository {
	return &preferenceRepo{u.store}
}

func (u *unitOfWork) CommandShortcutRepository() contract.CommandShortcutRepository {
	return &shortcutRepo{u.store}
}

// Sessions

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return err
	}
	session.Id = r.s.id()
	session.CreatedAt = time.Now()
	stored := *session
	r.s.sessions[session.Id] = &stored
	return nil
}

func (r *sessionRepo) Update(ctx context.Context, session *entity.ChatSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return err
	}
	now := time.Now()
	session.UpdatedAt = &now
	stored := *session
	r.s.sessions[session.Id] = &stored
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return err
	}
	delete(r.s.sessions, id)
	return nil
}

func (r *sessionRepo) FindByID(ctx context.Context, id uint) (*entity.ChatSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check(ctx); err != nil {
		return nil, err
	}
	session, ok := r.s.sessions[id]
	if !ok {
		return nil, nil
	}
	out := *session
	return &out, nil
}

func (r *sessionRepo) FindAllByUser(ctx context.Context, userId string) ([]*entity.ChatSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check(ctx); err != nil {
		return nil, err
	}
	var out []*entity.ChatSession
	for _, session := range r.s.sessions {
		if session.UserId == userId {
			c := *session
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id > out[j].Id })
	return out, nil
}

// Messages

type messageRepo struct{ s *Store }

func (r *messageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return err
	}
	message.Id = r.s.id()
	message.CreatedAt = time.Now()
	stored := *message
	stored.Suggestions = append([]string(nil), message.Suggestions...)
	r.s.messages[message.Id] = &stored
	return nil
}

func (r *messageRepo) FindByID(ctx context.Context, id uint) (*entity.ChatMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check(ctx); err != nil {
		return nil, err
	}
	message, ok := r.s.messages[id]
	if !ok {
		return nil, nil
	}
	out := *message
	return &out, nil
}

func (r *messageRepo) FindBySession(ctx context.Context, sessionId uint, limit int) ([]*entity.ChatMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check(ctx); err != nil {
		return nil, err
	}
	var out []*entity.ChatMessage
	for _, message := range r.s.messages {
		if message.ChatSessionId == sessionId {
			c := *message
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *messageRepo) DeleteBySession(ctx context.Context, sessionId uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return err
	}
	for id, message := range r.s.messages {
		if message.ChatSessionId == sessionId {
			delete(r.s.messages, id)
		}
	}
	return nil
}

// Feedback

type feedbackRepo struct{ s *Store }

func (r *feedbackRepo) Create(ctx context.Context, feedback *entity.ChatFeedback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return err
	}
	feedback.Id = r.s.id()
	feedback.CreatedAt = time.Now()
	stored := *feedback
	r.s.feedback[feedback.Id] = &stored
	return nil
}

func (r *feedbackRepo) filter(ctx context.Context, keep func(*entity.ChatFeedback) bool) ([]*entity.ChatFeedback, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check(ctx); err != nil {
		return nil, err
	}
	var out []*entity.ChatFeedback
	for _, f := range r.s.feedback {
		if keep(f) {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (r *feedbackRepo) FindByMessage(ctx context.Context, messageId uint) ([]*entity.ChatFeedback, error) {
	return r.filter(ctx, func(f *entity.ChatFeedback) bool { return f.MessageId == messageId })
}

func (r *feedbackRepo) FindByUser(ctx context.Context, userId string) ([]*entity.ChatFeedback, error) {
	return r.filter(ctx, func(f *entity.ChatFeedback) bool { return f.UserId == userId })
}

// Memories

type memoryRepo struct{ s *Store }

func copyMemory(m *entity.MemoryEntry) *entity.MemoryEntry {
	c := *m
	if m.Embedding != nil {
		c.Embedding = append([]float32(nil), m.Embedding...)
	}
	return &c
}

func (r *memoryRepo) Create(ctx context.Context, memory *entity.MemoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return err
	}
	memory.Id = r.s.id()
	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = time.Now()
	}
	r.s.memories[memory.Id] = copyMemory(memory)
	return nil
}

func (r *memoryRepo) FindAllByUser(ctx context.Context, userId string) ([]*entity.MemoryEntry, error) {
	return r.FindRecentByUser(ctx, userId, 0)
}

func (r *memoryRepo) FindRecentByUser(ctx context.Context, userId string, limit int) ([]*entity.MemoryEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check(ctx); err != nil {
		return nil, err
	}
	var out []*entity.MemoryEntry
	for _, m := range r.s.memories {
		if m.UserId == userId {
			out = append(out, copyMemory(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Id > out[j].Id
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) CountByUser(ctx context.Context, userId string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check(ctx); err != nil {
		return 0, err
	}
	var count int64
	for _, m := range r.s.memories {
		if m.UserId == userId {
			count++
		}
	}
	return count, nil
}

func (r *memoryRepo) DeleteByIDs(ctx context.Context, ids []uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return err
	}
	for _, id := range ids {
		delete(r.s.memories, id)
	}
	return nil
}

// Preferences

type preferenceRepo struct{ s *Store }

func copyPreference(p *entity.UserPreference) *entity.UserPreference {
	c := *p
	c.PreferredTopics = append([]string{}, p.PreferredTopics...)
	c.AvoidedTopics = append([]string{}, p.AvoidedTopics...)
	c.FeedbackStats.Topics = make(map[string]*entity.TopicStat, len(p.FeedbackStats.Topics))
	for topic, stat := range p.FeedbackStats.Topics {
		s := *stat
		c.FeedbackStats.Topics[topic] = &s
	}
	return &c
}

func (r *preferenceRepo) FindByUser(ctx context.Context, userId string) (*entity.UserPreference, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check(ctx); err != nil {
		return nil, err
	}
	p, ok := r.s.preferences[userId]
	if !ok {
		return nil, nil
	}
	return copyPreference(p), nil
}

// FindByUserForUpdate does not lock; callers serialize per user themselves.
func (r *preferenceRepo) FindByUserForUpdate(ctx context.Context, userId string) (*entity.UserPreference, error) {
	return r.FindByUser(ctx, userId)
}

func (r *preferenceRepo) Upsert(ctx context.Context, preference *entity.UserPreference) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return err
	}
	now := time.Now()
	if existing, ok := r.s.preferences[preference.UserId]; ok {
		preference.Id = existing.Id
		preference.CreatedAt = existing.CreatedAt
	} else {
		preference.Id = r.s.id()
		preference.CreatedAt = now
	}
	preference.UpdatedAt = &now
	r.s.preferences[preference.UserId] = copyPreference(preference)
	return nil
}

// Shortcuts

type shortcutRepo struct{ s *Store }

func shortcutKey(userId, command string) string {
	return userId + "\x00" + command
}

func (r *shortcutRepo) Create(ctx context.Context, shortcut *entity.CommandShortcut) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return err
	}
	key := shortcutKey(shortcut.UserId, shortcut.Command)
	if _, ok := r.s.shortcuts[key]; ok {
		return apperror.AlreadyExists("shortcut.create", "shortcut "+shortcut.Command+" already exists")
	}
	shortcut.Id = r.s.id()
	shortcut.CreatedAt = time.Now()
	stored := *shortcut
	r.s.shortcuts[key] = &stored
	return nil
}

func (r *shortcutRepo) Update(ctx context.Context, shortcut *entity.CommandShortcut) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return err
	}
	now := time.Now()
	shortcut.UpdatedAt = &now
	stored := *shortcut
	r.s.shortcuts[shortcutKey(shortcut.UserId, shortcut.Command)] = &stored
	return nil
}

func (r *shortcutRepo) FindByCommand(ctx context.Context, userId, command string) (*entity.CommandShortcut, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check(ctx); err != nil {
		return nil, err
	}
	sc, ok := r.s.shortcuts[shortcutKey(userId, command)]
	if !ok {
		return nil, nil
	}
	out := *sc
	return &out, nil
}

func (r *shortcutRepo) FindAllByUser(ctx context.Context, userId string) ([]*entity.CommandShortcut, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check(ctx); err != nil {
		return nil, err
	}
	var out []*entity.CommandShortcut
	for _, sc := range r.s.shortcuts {
		if sc.UserId == userId {
			c := *sc
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Command < out[j].Command
	})
	return out, nil
}

func (r *shortcutRepo) IncrementUsage(ctx context.Context, userId, command string) (*entity.CommandShortcut, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return nil, err
	}
	sc, ok := r.s.shortcuts[shortcutKey(userId, command)]
	if !ok {
		return nil, nil
	}
	sc.UsageCount++
	now := time.Now()
	sc.UpdatedAt = &now
	out := *sc
	return &out, nil
}

func (r *shortcutRepo) Delete(ctx context.Context, userId, command string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx); err != nil {
		return false, err
	}
	key := shortcutKey(userId, command)
	if _, ok := r.s.shortcuts[key]; !ok {
		return false, nil
	}
	delete(r.s.shortcuts, key)
	return true, nil
}
