package websocket

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// Transport delivers frames to one live client.
type Transport interface {
	Send(ctx context.Context, event *Event) error
	Close() error
}

// Connection is one identity's live transport. ID changes on every connect so
// a stale read pump can tell it has been replaced.
type Connection struct {
	Identity    string
	ID          uuid.UUID
	ConnectedAt time.Time

	transport Transport
	typing    atomic.Bool
}

func (c *Connection) IsTyping() bool {
	return c.typing.Load()
}

func (c *Connection) Send(ctx context.Context, event *Event) error {
	return c.transport.Send(ctx, event)
}

type Stats struct {
	Connections   int `json:"connections"`
	Sessions      int `json:"sessions"`
	Subscriptions int `json:"subscriptions"`
}

// Registry maps identities to connections and sessions to subscribers.
// One lock guards both indices so they never disagree.
type Registry struct {
	mu                   sync.RWMutex
	connections          map[string]*Connection
	sessionsByIdentity   map[string]map[uint]struct{}
	subscribersBySession map[uint]map[string]struct{}
	logger               logger.ILogger
}

func NewRegistry(log logger.ILogger) *Registry {
	return &Registry{
		connections:          make(map[string]*Connection),
		sessionsByIdentity:   make(map[string]map[uint]struct{}),
		subscribersBySession: make(map[uint]map[string]struct{}),
		logger:               log,
	}
}

// Connect registers identity with a fresh connection. A prior connection for
// the same identity is replaced and its transport closed; subscriptions carry over.
func (r *Registry) Connect(identity string, transport Transport) *Connection {
	conn := &Connection{
		Identity:    identity,
		ID:          uuid.New(),
		ConnectedAt: time.Now(),
		transport:   transport,
	}

	r.mu.Lock()
	previous := r.connections[identity]
	r.connections[identity] = conn
	r.mu.Unlock()

	if previous != nil {
		_ = previous.transport.Close()
		r.logger.Info("Registry", "Connection replaced", map[string]interface{}{
			"identity": identity, "previous_id": previous.ID.String(), "connection_id": conn.ID.String(),
		})
	} else {
		r.logger.Info("Registry", "Connection registered", map[string]interface{}{
			"identity": identity, "connection_id": conn.ID.String(),
		})
	}
	return conn
}

// Disconnect removes identity and every subscription it holds.
func (r *Registry) Disconnect(identity string) bool {
	r.mu.Lock()
	conn, ok := r.removeLocked(identity)
	r.mu.Unlock()

	if ok {
		_ = conn.transport.Close()
		r.logger.Info("Registry", "Connection removed", map[string]interface{}{"identity": identity})
	}
	return ok
}

// DisconnectConnection removes conn only if it is still the registered
// connection for its identity.
func (r *Registry) DisconnectConnection(conn *Connection) bool {
	r.mu.Lock()
	current, ok := r.connections[conn.Identity]
	if !ok || current.ID != conn.ID {
		r.mu.Unlock()
		return false
	}
	r.removeLocked(conn.Identity)
	r.mu.Unlock()

	_ = conn.transport.Close()
	r.logger.Info("Registry", "Connection removed", map[string]interface{}{
		"identity": conn.Identity, "connection_id": conn.ID.String(),
	})
	return true
}

func (r *Registry) removeLocked(identity string) (*Connection, bool) {
	conn, ok := r.connections[identity]
	if !ok {
		return nil, false
	}
	delete(r.connections, identity)
	for sessionId := range r.sessionsByIdentity[identity] {
		subscribers := r.subscribersBySession[sessionId]
		delete(subscribers, identity)
		if len(subscribers) == 0 {
			delete(r.subscribersBySession, sessionId)
		}
	}
	delete(r.sessionsByIdentity, identity)
	return conn, true
}

// DropSession removes every subscription to sessionId and returns the
// identities that were subscribed. Connections stay open.
func (r *Registry) DropSession(sessionId uint) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	subscribers, ok := r.subscribersBySession[sessionId]
	if !ok {
		return nil
	}
	dropped := make([]string, 0, len(subscribers))
	for identity := range subscribers {
		dropped = append(dropped, identity)
		sessions := r.sessionsByIdentity[identity]
		delete(sessions, sessionId)
		if len(sessions) == 0 {
			delete(r.sessionsByIdentity, identity)
		}
	}
	delete(r.subscribersBySession, sessionId)
	return dropped
}

// Subscribe reports whether the subscription was added. Identities without a
// live connection cannot subscribe.
func (r *Registry) Subscribe(identity string, sessionId uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[identity]; !ok {
		return false, apperror.NotFound("registry.subscribe", "no live connection for "+identity)
	}
	if _, ok := r.sessionsByIdentity[identity][sessionId]; ok {
		return false, nil
	}

	if r.sessionsByIdentity[identity] == nil {
		r.sessionsByIdentity[identity] = make(map[uint]struct{})
	}
	if r.subscribersBySession[sessionId] == nil {
		r.subscribersBySession[sessionId] = make(map[string]struct{})
	}
	r.sessionsByIdentity[identity][sessionId] = struct{}{}
	r.subscribersBySession[sessionId][identity] = struct{}{}
	return true, nil
}

// Unsubscribe reports whether a subscription was removed.
func (r *Registry) Unsubscribe(identity string, sessionId uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, ok := r.sessionsByIdentity[identity]
	if !ok {
		return false
	}
	if _, ok := sessions[sessionId]; !ok {
		return false
	}

	delete(sessions, sessionId)
	if len(sessions) == 0 {
		delete(r.sessionsByIdentity, identity)
	}
	subscribers := r.subscribersBySession[sessionId]
	delete(subscribers, identity)
	if len(subscribers) == 0 {
		delete(r.subscribersBySession, sessionId)
	}
	return true
}

// SubscribersOf returns a sorted snapshot; empty for unknown sessions.
func (r *Registry) SubscribersOf(sessionId uint) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscribers := r.subscribersBySession[sessionId]
	out := make([]string, 0, len(subscribers))
	for identity := range subscribers {
		out = append(out, identity)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) SessionsOf(identity string) []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := r.sessionsByIdentity[identity]
	out := make([]uint, 0, len(sessions))
	for sessionId := range sessions {
		out = append(out, sessionId)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// targets copies the live connections subscribed to sessionId, minus exclude.
func (r *Registry) targets(sessionId uint, exclude string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscribers := r.subscribersBySession[sessionId]
	out := make([]*Connection, 0, len(subscribers))
	for identity := range subscribers {
		if identity == exclude {
			continue
		}
		if conn, ok := r.connections[identity]; ok {
			out = append(out, conn)
		}
	}
	return out
}

// SetTyping reports whether identity has a live connection.
func (r *Registry) SetTyping(identity string, isTyping bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[identity]
	if !ok {
		return false
	}
	conn.typing.Store(isTyping)
	return true
}

func (r *Registry) Connection(identity string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.connections[identity]
	return conn, ok
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		Connections: len(r.connections),
		Sessions:    len(r.subscribersBySession),
	}
	for _, subscribers := range r.subscribersBySession {
		stats.Subscriptions += len(subscribers)
	}
	return stats
}

// Close drops every connection and closes its transport.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		conns = append(conns, conn)
	}
	r.connections = make(map[string]*Connection)
	r.sessionsByIdentity = make(map[string]map[uint]struct{})
	r.subscribersBySession = make(map[uint]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range conns {
		_ = conn.transport.Close()
	}
	r.logger.Info("Registry", "Registry closed", map[string]interface{}{"connections": len(conns)})
}
