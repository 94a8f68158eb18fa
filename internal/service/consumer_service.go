package service

import (
	"context"
	"encoding/json"

	"infra-assistant-be/internal/dto"
	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService turns queued chat messages into memories off the request path.
type consumerService struct {
	subscriber    message.Subscriber
	topicName     string
	memoryService IMemoryService
	logger        logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	memoryService IMemoryService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:    subscriber,
		topicName:     topicName,
		memoryService: memoryService,
		logger:        log,
	}
}

// Consume subscribes and processes messages in the background until ctx ends.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.MemoryCaptureMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal memory capture", map[string]interface{}{"error": err.Error()})
		msg.Ack() // never retry a payload that cannot be decoded
		return
	}

	sessionId, messageId := payload.SessionId, payload.MessageId
	_, err := cs.memoryService.AddMemory(ctx, &dto.AddMemoryRequest{
		UserId:    payload.UserId,
		Content:   payload.Content,
		SessionId: &sessionId,
		MessageId: &messageId,
		Context:   payload.Context,
	})
	switch {
	case err == nil:
		msg.Ack()
	case apperror.Is(err, apperror.KindInvalidInput):
		cs.logger.Warn("ConsumerService", "Dropping invalid memory capture", map[string]interface{}{
			"message_id": messageId, "error": err.Error(),
		})
		msg.Ack()
	default:
		cs.logger.Error("ConsumerService", "Failed to store memory", map[string]interface{}{
			"message_id": messageId, "error": err.Error(),
		})
		msg.Nack()
	}
}
