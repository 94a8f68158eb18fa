package events

import (
	"fmt"
	"time"
)

// Domain event types. The NATS subject is "events." + type.
const (
	ChatMessageCreated = "chat.message.created"
	FeedbackRecorded   = "chat.feedback.recorded"
	TaskProgress       = "task.progress"
)

// Event defines the contract for all domain events.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func Subject(eventType string) string {
	return "events." + eventType
}

// TaskProgressPayload is published by workers running long infrastructure tasks.
type TaskProgressPayload struct {
	SessionId uint
	TaskId    string
	Status    string
	Progress  int
	Message   string
	Data      map[string]interface{}
}

// ParseTaskProgress reads a task.progress payload. JSON numbers arrive as float64.
func ParseTaskProgress(data map[string]interface{}) (*TaskProgressPayload, error) {
	sessionId, ok := number(data["session_id"])
	if !ok || sessionId <= 0 {
		return nil, fmt.Errorf("task progress: session_id missing")
	}
	taskId, _ := data["task_id"].(string)
	if taskId == "" {
		return nil, fmt.Errorf("task progress: task_id missing")
	}
	status, _ := data["status"].(string)
	progress, _ := number(data["progress"])
	message, _ := data["message"].(string)
	extra, _ := data["data"].(map[string]interface{})

	return &TaskProgressPayload{
		SessionId: uint(sessionId),
		TaskId:    taskId,
		Status:    status,
		Progress:  int(progress),
		Message:   message,
		Data:      extra,
	}, nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}
