package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"infra-assistant-be/internal/config"
	"infra-assistant-be/internal/pkg/logger"
	"infra-assistant-be/internal/repository/memory"
	"infra-assistant-be/internal/websocket"
	"infra-assistant-be/pkg/embedding"
	"infra-assistant-be/pkg/events"
	"infra-assistant-be/pkg/llm"
)

var errEmbedderDown = errors.New("embedder down")

type failingEmbedder struct{}

func (failingEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	return nil, errEmbedderDown
}

type recordingTransport struct {
	mu     sync.Mutex
	events []*websocket.Event
}

func (r *recordingTransport) Send(ctx context.Context, event *websocket.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingTransport) Close() error { return nil }

func (r *recordingTransport) ofType(t websocket.EventType) []*websocket.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*websocket.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type stubResponder struct {
	reply *llm.Reply
	err   error

	mu   sync.Mutex
	last llm.ResponseRequest
}

func (s *stubResponder) Respond(ctx context.Context, req llm.ResponseRequest) (*llm.Reply, error) {
	s.mu.Lock()
	s.last = req
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.reply, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingEvents) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func testMemoryConfig(limit int) config.MemoryConfig {
	return config.MemoryConfig{Limit: limit, SimilarityWeight: 0.7, ImportanceWeight: 0.3, DefaultTopK: 5}
}

type testEnv struct {
	store      *memory.Store
	registry   *websocket.Registry
	dispatcher *websocket.Dispatcher
	responder  *stubResponder
	capture    *recordingPublisher
	events     *recordingEvents
	memories   IMemoryService
	prefs      IPreferenceService
	chat       IChatbotService
}

func newTestEnv(reply *llm.Reply, respErr error) *testEnv {
	return newTestEnvWithDelay(reply, respErr, 0)
}

func newTestEnvWithDelay(reply *llm.Reply, respErr error, chunkDelay time.Duration) *testEnv {
	log := logger.NewNopLogger()
	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	registry := websocket.NewRegistry(log)
	dispatcher := websocket.NewDispatcher(registry, log, websocket.DispatcherConfig{ChunkDelay: chunkDelay})

	env := &testEnv{
		store:      store,
		registry:   registry,
		dispatcher: dispatcher,
		responder:  &stubResponder{reply: reply, err: respErr},
		capture:    &recordingPublisher{},
		events:     &recordingEvents{},
	}
	env.memories = NewMemoryService(factory, embedding.NewPlaceholderProvider(32), testMemoryConfig(50), log)
	env.prefs = NewPreferenceService(factory, log)
	env.chat = NewChatbotService(
		factory,
		dispatcher,
		env.responder,
		memory.NewHistoryRepository(10),
		env.memories,
		env.prefs,
		env.capture,
		env.events,
		ChatbotConfig{AssistantIdentity: "assistant", MaxChunkSize: 50, MemoryTopK: 3},
		log,
	)
	return env
}
