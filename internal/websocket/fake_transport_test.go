package websocket

import (
	"context"
	"errors"
	"sync"
)

type fakeTransport struct {
	mu     sync.Mutex
	events []*Event
	fail   error
	closed bool
	// onSend runs before the event is recorded
	onSend func(*Event)
}

func (f *fakeTransport) Send(ctx context.Context, event *Event) error {
	if f.onSend != nil {
		f.onSend(event)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	if f.closed {
		return errors.New("closed")
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) received() []*Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Event(nil), f.events...)
}

func (f *fakeTransport) ofType(t EventType) []*Event {
	var out []*Event
	for _, e := range f.received() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
