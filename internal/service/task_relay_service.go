package service

import (
	"context"

	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/pkg/logger"
	"infra-assistant-be/internal/websocket"
	"infra-assistant-be/pkg/events"
	pktNats "infra-assistant-be/pkg/nats"
)

// TaskSubscriber is the part of *nats.Subscriber the relay needs.
type TaskSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

// TaskRelayService forwards task progress published by workers to the
// subscribers of the task's chat session.
type TaskRelayService struct {
	subscriber  TaskSubscriber
	dispatcher  *websocket.Dispatcher
	subject     string
	durableName string
	logger      logger.ILogger
}

func NewTaskRelayService(sub TaskSubscriber, dispatcher *websocket.Dispatcher, subject, durableName string, log logger.ILogger) *TaskRelayService {
	if subject == "" {
		subject = events.Subject(events.TaskProgress)
	}
	return &TaskRelayService{
		subscriber:  sub,
		dispatcher:  dispatcher,
		subject:     subject,
		durableName: durableName,
		logger:      log,
	}
}

// Start begins listening to the task subject.
func (s *TaskRelayService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, s.subject, s.durableName, s.HandleEvent); err != nil {
		s.logger.Error("TaskRelayService", "Failed to start task subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("TaskRelayService", "Task relay started", map[string]interface{}{"subject": s.subject})
	return nil
}

// HandleEvent relays one progress event. Malformed payloads are dropped
// rather than redelivered.
func (s *TaskRelayService) HandleEvent(ctx context.Context, event events.Event) error {
	progress, err := events.ParseTaskProgress(event.Payload())
	if err != nil {
		s.logger.Warn("TaskRelayService", "Dropping malformed task event", map[string]interface{}{"error": err.Error()})
		return nil
	}

	report, err := s.dispatcher.SendTaskUpdate(ctx, progress.SessionId, progress.TaskId, progress.Status, progress.Progress, progress.Message, progress.Data)
	if err != nil {
		if apperror.Is(err, apperror.KindInvalidInput) {
			s.logger.Warn("TaskRelayService", "Dropping invalid task update", map[string]interface{}{
				"task_id": progress.TaskId, "error": err.Error(),
			})
			return nil
		}
		return err
	}

	s.logger.Debug("TaskRelayService", "Task update relayed", map[string]interface{}{
		"task_id":   progress.TaskId,
		"session":   progress.SessionId,
		"delivered": report.Delivered,
	})
	return nil
}
