package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/pkg/logger"
)

const (
	DefaultChunkDelay  = 50 * time.Millisecond
	defaultSendTimeout = 10 * time.Second
)

// DeliveryReport counts per-subscriber outcomes of one fan-out.
type DeliveryReport struct {
	Attempted int `json:"attempted"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

func (r *DeliveryReport) add(other DeliveryReport) {
	r.Attempted += other.Attempted
	r.Delivered += other.Delivered
	r.Failed += other.Failed
}

type DispatcherConfig struct {
	// ChunkDelay paces streamed chunks. Zero disables pacing.
	ChunkDelay time.Duration
	// SendTimeout bounds detached typing broadcasts.
	SendTimeout time.Duration
}

// Dispatcher fans typed events out to the subscribers of a session. A failed
// send is logged and counted; the connection is left for its transport to
// disconnect.
type Dispatcher struct {
	registry    *Registry
	logger      logger.ILogger
	chunkDelay  time.Duration
	sendTimeout time.Duration

	// background work (typing broadcasts) runs under baseCtx and is drained by Close
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	typingMu    sync.Mutex
	typingLanes map[typingKey]*typingLane
}

type typingKey struct {
	identity  string
	sessionId uint
}

// typingLane holds the newest undelivered state for one key. At most one
// goroutine drains a lane, so notifications for a key go out in call order
// and intermediate states may be skipped.
type typingLane struct {
	pending  *Event
	draining bool
}

func NewDispatcher(registry *Registry, log logger.ILogger, cfg DispatcherConfig) *Dispatcher {
	if cfg.ChunkDelay < 0 {
		cfg.ChunkDelay = 0
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		registry:    registry,
		logger:      log,
		chunkDelay:  cfg.ChunkDelay,
		sendTimeout: cfg.SendTimeout,
		baseCtx:     ctx,
		cancel:      cancel,
		typingLanes: make(map[typingKey]*typingLane),
	}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// fanOut sends event to every subscriber of sessionId except exclude, one
// goroutine per subscriber, and waits for all of them.
func (d *Dispatcher) fanOut(ctx context.Context, sessionId uint, exclude string, event *Event) DeliveryReport {
	targets := d.registry.targets(sessionId, exclude)
	report := DeliveryReport{Attempted: len(targets)}
	if len(targets) == 0 {
		return report
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, conn := range targets {
		wg.Add(1)
		go func(conn *Connection) {
			defer wg.Done()
			err := conn.Send(ctx, event)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				d.logFailure(conn, event, err)
				return
			}
			report.Delivered++
		}(conn)
	}
	wg.Wait()
	return report
}

func (d *Dispatcher) logFailure(conn *Connection, event *Event, err error) {
	wrapped := apperror.TransportFailure("dispatcher."+string(event.Type), err)
	d.logger.Warn("Dispatcher", "Send failed", map[string]interface{}{
		"identity":      conn.Identity,
		"connection_id": conn.ID.String(),
		"session_id":    event.SessionId,
		"event":         string(event.Type),
		"error":         wrapped.Error(),
	})
}

// BroadcastMessage delivers a chat_message to every subscriber of the session.
func (d *Dispatcher) BroadcastMessage(ctx context.Context, sessionId uint, message any) DeliveryReport {
	return d.fanOut(ctx, sessionId, "", NewChatMessageEvent(sessionId, message))
}

// SetTypingStatus updates the identity's typing flag immediately and
// notifies the other subscribers in the background. Delivery is best effort;
// the last state set is always the last one delivered.
func (d *Dispatcher) SetTypingStatus(identity string, isTyping bool, sessionId uint) {
	d.registry.SetTyping(identity, isTyping)

	key := typingKey{identity: identity, sessionId: sessionId}
	event := NewTypingEvent(sessionId, identity, isTyping)

	d.typingMu.Lock()
	defer d.typingMu.Unlock()
	lane, ok := d.typingLanes[key]
	if !ok {
		lane = &typingLane{}
		d.typingLanes[key] = lane
	}
	lane.pending = event
	if lane.draining {
		return
	}
	lane.draining = true
	d.wg.Add(1)
	go d.drainTyping(key, lane)
}

func (d *Dispatcher) drainTyping(key typingKey, lane *typingLane) {
	defer d.wg.Done()
	for {
		d.typingMu.Lock()
		event := lane.pending
		lane.pending = nil
		if event == nil {
			lane.draining = false
			delete(d.typingLanes, key)
			d.typingMu.Unlock()
			return
		}
		d.typingMu.Unlock()

		ctx, cancel := context.WithTimeout(d.baseCtx, d.sendTimeout)
		d.fanOut(ctx, key.sessionId, key.identity, event)
		cancel()
	}
}

// StreamResponse delivers chunks in index order with a pacing delay between
// them. Subscribers are re-read before every chunk, so an identity that
// disconnects mid-stream receives nothing further. Cancelling ctx abandons
// the stream and returns ctx.Err().
func (d *Dispatcher) StreamResponse(ctx context.Context, sessionId, messageId uint, chunks []string) (DeliveryReport, error) {
	var report DeliveryReport
	total := len(chunks)

	for i, chunk := range chunks {
		if i > 0 && d.chunkDelay > 0 {
			if err := sleep(ctx, d.chunkDelay); err != nil {
				return report, err
			}
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.add(d.fanOut(ctx, sessionId, "", NewChunkEvent(sessionId, messageId, chunk, i, total)))
	}
	return report, nil
}

func sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SendTaskUpdate broadcasts task progress. Status must be running, complete
// or failed and progress within [0,100].
func (d *Dispatcher) SendTaskUpdate(ctx context.Context, sessionId uint, taskId, status string, progress int, message string, data map[string]any) (DeliveryReport, error) {
	switch status {
	case TaskStatusRunning, TaskStatusComplete, TaskStatusFailed:
	default:
		return DeliveryReport{}, apperror.InvalidInput("dispatcher.task_update", fmt.Sprintf("unknown task status %q", status))
	}
	if progress < 0 || progress > 100 {
		return DeliveryReport{}, apperror.InvalidInput("dispatcher.task_update", fmt.Sprintf("progress %d out of range [0,100]", progress))
	}
	if taskId == "" {
		return DeliveryReport{}, apperror.InvalidInput("dispatcher.task_update", "task_id is required")
	}
	return d.fanOut(ctx, sessionId, "", NewTaskUpdateEvent(sessionId, taskId, status, progress, message, data)), nil
}

// SendReadReceipt tells the other subscribers that identity read messageId.
func (d *Dispatcher) SendReadReceipt(ctx context.Context, sessionId, messageId uint, identity string) DeliveryReport {
	return d.fanOut(ctx, sessionId, identity, NewReadReceiptEvent(sessionId, messageId, identity))
}

// SendPersonal delivers an event to a single identity.
func (d *Dispatcher) SendPersonal(ctx context.Context, identity string, event *Event) error {
	conn, ok := d.registry.Connection(identity)
	if !ok {
		return apperror.NotFound("dispatcher.personal", "no live connection for "+identity)
	}
	if err := conn.Send(ctx, event); err != nil {
		d.logFailure(conn, event, err)
		return apperror.TransportFailure("dispatcher.personal", err)
	}
	return nil
}

// Close stops background broadcasts and waits for them to return.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
