package websocket

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"infra-assistant-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

type EventType string

const (
	EventChatMessage             EventType = "chat_message"
	EventTypingStatus            EventType = "typing_status"
	EventMessageChunk            EventType = "message_chunk"
	EventTaskUpdate              EventType = "task_update"
	EventReadReceipt             EventType = "read_receipt"
	EventError                   EventType = "error"
	EventConnectionEstablished   EventType = "connection_established"
	EventSubscriptionConfirmed   EventType = "subscription_confirmed"
	EventUnsubscriptionConfirmed EventType = "unsubscription_confirmed"
	EventPong                    EventType = "pong"
)

const (
	TaskStatusRunning  = "running"
	TaskStatusComplete = "complete"
	TaskStatusFailed   = "failed"
)

// Event is the single frame shape sent to clients. Fields whose zero value is
// meaningful are pointers so they survive omitempty.
type Event struct {
	Type        EventType         `json:"type"`
	UserId      string            `json:"user_id,omitempty"`
	IsTyping    *bool             `json:"is_typing,omitempty"`
	SessionId   uint              `json:"session_id,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	Message     any               `json:"message,omitempty"`
	Chunk       *string           `json:"chunk,omitempty"`
	IsFirst     *bool             `json:"is_first,omitempty"`
	IsLast      *bool             `json:"is_last,omitempty"`
	ChunkIndex  *int              `json:"chunk_index,omitempty"`
	TotalChunks *int              `json:"total_chunks,omitempty"`
	TaskId      string            `json:"task_id,omitempty"`
	Status      string            `json:"status,omitempty"`
	Progress    *int              `json:"progress,omitempty"`
	Data        datatypes.JSONMap `json:"data,omitempty"`
	MessageId   uint              `json:"message_id,omitempty"`
	Error       string            `json:"error,omitempty"`
}

func ptr[T any](v T) *T {
	return &v
}

func newEvent(t EventType, sessionId uint) *Event {
	return &Event{Type: t, SessionId: sessionId, Timestamp: time.Now().UTC()}
}

func NewChatMessageEvent(sessionId uint, message any) *Event {
	e := newEvent(EventChatMessage, sessionId)
	e.Message = message
	return e
}

func NewTypingEvent(sessionId uint, identity string, isTyping bool) *Event {
	e := newEvent(EventTypingStatus, sessionId)
	e.UserId = identity
	e.IsTyping = ptr(isTyping)
	return e
}

func NewChunkEvent(sessionId, messageId uint, chunk string, index, total int) *Event {
	e := newEvent(EventMessageChunk, sessionId)
	e.MessageId = messageId
	e.Chunk = ptr(chunk)
	e.ChunkIndex = ptr(index)
	e.TotalChunks = ptr(total)
	e.IsFirst = ptr(index == 0)
	e.IsLast = ptr(index == total-1)
	return e
}

func NewTaskUpdateEvent(sessionId uint, taskId, status string, progress int, message string, data map[string]any) *Event {
	e := newEvent(EventTaskUpdate, sessionId)
	e.TaskId = taskId
	e.Status = status
	e.Progress = ptr(progress)
	if message != "" {
		e.Message = message
	}
	if len(data) > 0 {
		e.Data = datatypes.JSONMap(data)
	}
	return e
}

func NewReadReceiptEvent(sessionId, messageId uint, identity string) *Event {
	e := newEvent(EventReadReceipt, sessionId)
	e.MessageId = messageId
	e.UserId = identity
	return e
}

func NewErrorEvent(message string) *Event {
	e := newEvent(EventError, 0)
	e.Error = message
	return e
}

func NewConnectionEstablishedEvent(identity string) *Event {
	e := newEvent(EventConnectionEstablished, 0)
	e.UserId = identity
	return e
}

func NewSubscriptionEvent(t EventType, sessionId uint) *Event {
	return newEvent(t, sessionId)
}

func NewPongEvent() *Event {
	return newEvent(EventPong, 0)
}

// Client control frame types.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameTyping      = "typing"
	FrameReadReceipt = "read_receipt"
	FramePing        = "ping"
)

type ClientFrame struct {
	Type      string `json:"type" validate:"required,oneof=subscribe unsubscribe typing read_receipt ping"`
	SessionId uint   `json:"session_id" validate:"required_unless=Type ping"`
	IsTyping  *bool  `json:"is_typing" validate:"required_if=Type typing"`
	MessageId uint   `json:"message_id" validate:"required_if=Type read_receipt"`
}

var frameValidator = validator.New()

// ParseClientFrame decodes and validates one inbound frame. Failures are
// apperror.KindInvalidInput with a message fit for the client.
func ParseClientFrame(raw []byte) (*ClientFrame, error) {
	var frame ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, apperror.InvalidInput("frame.parse", "malformed frame: expected a JSON object")
	}
	if err := frameValidator.Struct(&frame); err != nil {
		return nil, apperror.InvalidInput("frame.validate", describeValidation(err))
	}
	return &frame, nil
}

func describeValidation(err error) string {
	var errs validator.ValidationErrors
	if ve, ok := err.(validator.ValidationErrors); ok {
		errs = ve
	}
	if len(errs) == 0 {
		return "invalid frame"
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "oneof":
			parts = append(parts, fmt.Sprintf("unknown frame type %q", fe.Value()))
		default:
			parts = append(parts, fmt.Sprintf("%s is required", jsonName(fe.Field())))
		}
	}
	return strings.Join(parts, "; ")
}

func jsonName(field string) string {
	switch field {
	case "SessionId":
		return "session_id"
	case "IsTyping":
		return "is_typing"
	case "MessageId":
		return "message_id"
	default:
		return "type"
	}
}
