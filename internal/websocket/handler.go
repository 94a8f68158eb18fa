package websocket

import (
	"context"
	"time"

	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

const frameTimeout = 5 * time.Second

// Session runs one authenticated websocket connection: it registers the
// client, routes control frames and unregisters on exit.
type Session struct {
	dispatcher *Dispatcher
	registry   *Registry
	logger     logger.ILogger
}

func NewSession(dispatcher *Dispatcher, log logger.ILogger) *Session {
	return &Session{
		dispatcher: dispatcher,
		registry:   dispatcher.Registry(),
		logger:     log,
	}
}

// ServeWs blocks until the peer disconnects.
func (s *Session) ServeWs(conn *websocket.Conn, identity string) {
	client := NewClient(conn, identity, s.logger)
	registered := s.registry.Connect(identity, client)
	go client.writePump()

	s.reply(registered, NewConnectionEstablishedEvent(identity))
	client.readPump(func(raw []byte) {
		s.HandleFrame(registered, raw)
	})

	// A reconnect may already have replaced this connection.
	s.registry.DisconnectConnection(registered)
}

// HandleFrame applies one client control frame. Malformed frames are answered
// with an error event and never close the connection.
func (s *Session) HandleFrame(conn *Connection, raw []byte) {
	frame, err := ParseClientFrame(raw)
	if err != nil {
		s.reply(conn, NewErrorEvent(apperror.MessageOf(err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	switch frame.Type {
	case FrameSubscribe:
		if _, err := s.registry.Subscribe(conn.Identity, frame.SessionId); err != nil {
			s.reply(conn, NewErrorEvent(apperror.MessageOf(err)))
			return
		}
		s.reply(conn, NewSubscriptionEvent(EventSubscriptionConfirmed, frame.SessionId))
	case FrameUnsubscribe:
		s.registry.Unsubscribe(conn.Identity, frame.SessionId)
		s.reply(conn, NewSubscriptionEvent(EventUnsubscriptionConfirmed, frame.SessionId))
	case FrameTyping:
		s.dispatcher.SetTypingStatus(conn.Identity, *frame.IsTyping, frame.SessionId)
	case FrameReadReceipt:
		s.dispatcher.SendReadReceipt(ctx, frame.SessionId, frame.MessageId, conn.Identity)
	case FramePing:
		s.reply(conn, NewPongEvent())
	}
}

func (s *Session) reply(conn *Connection, event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	if err := conn.Send(ctx, event); err != nil {
		s.dispatcher.logFailure(conn, event, err)
	}
}
