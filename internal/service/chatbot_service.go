package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"infra-assistant-be/internal/constant"
	"infra-assistant-be/internal/dto"
	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/pkg/logger"
	"infra-assistant-be/internal/repository/memory"
	"infra-assistant-be/internal/repository/unitofwork"
	"infra-assistant-be/internal/websocket"
	"infra-assistant-be/pkg/chunker"
	"infra-assistant-be/pkg/events"
	"infra-assistant-be/pkg/llm"
	"infra-assistant-be/pkg/topic"
)

// EventPublisher publishes domain events. *nats.Publisher implements it.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IChatbotService interface {
	CreateSession(ctx context.Context, userId string, request *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, userId string) ([]*dto.SessionResponse, error)
	GetSession(ctx context.Context, userId string, sessionId uint) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, userId string, sessionId uint) error
	GetHistory(ctx context.Context, userId string, sessionId uint) ([]*dto.ChatMessageResponse, error)
	SendChat(ctx context.Context, userId string, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	SubmitFeedback(ctx context.Context, userId string, request *dto.FeedbackRequest) (*dto.FeedbackResult, error)
	MarkRead(ctx context.Context, userId string, sessionId uint, request *dto.ReadReceiptRequest) error
}

type ChatbotConfig struct {
	// AssistantIdentity is the identity typing indicators are reported for.
	AssistantIdentity string
	MaxChunkSize      int
	MemoryTopK        int
}

type chatbotService struct {
	uowFactory        unitofwork.RepositoryFactory
	dispatcher        *websocket.Dispatcher
	responder         llm.Responder
	history           *memory.HistoryRepository
	memoryService     IMemoryService
	preferenceService IPreferenceService
	memoryCapture     IPublisherService
	eventPublisher    EventPublisher // nil when NATS is not configured
	cfg               ChatbotConfig
	logger            logger.ILogger

	turnsMu  sync.Mutex
	turns    map[uint]map[uint64]context.CancelFunc
	nextTurn uint64
}

func NewChatbotService(
	uowFactory unitofwork.RepositoryFactory,
	dispatcher *websocket.Dispatcher,
	responder llm.Responder,
	history *memory.HistoryRepository,
	memoryService IMemoryService,
	preferenceService IPreferenceService,
	memoryCapture IPublisherService,
	eventPublisher EventPublisher,
	cfg ChatbotConfig,
	log logger.ILogger,
) IChatbotService {
	if cfg.AssistantIdentity == "" {
		cfg.AssistantIdentity = "assistant"
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = chunker.DefaultMaxChunkSize
	}
	return &chatbotService{
		uowFactory:        uowFactory,
		dispatcher:        dispatcher,
		responder:         responder,
		history:           history,
		memoryService:     memoryService,
		preferenceService: preferenceService,
		memoryCapture:     memoryCapture,
		eventPublisher:    eventPublisher,
		cfg:               cfg,
		logger:            log,
		turns:             make(map[uint]map[uint64]context.CancelFunc),
	}
}

func (cs *chatbotService) CreateSession(ctx context.Context, userId string, request *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	title := strings.TrimSpace(request.Title)
	if title == "" {
		title = constant.DefaultSessionTitle
	}
	session := &entity.ChatSession{UserId: userId, Title: title}
	if err := cs.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, storageErr("session.create", err)
	}
	return toSessionResponse(session), nil
}

func (cs *chatbotService) ListSessions(ctx context.Context, userId string) ([]*dto.SessionResponse, error) {
	sessions, err := cs.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().FindAllByUser(ctx, userId)
	if err != nil {
		return nil, storageErr("session.list", err)
	}
	res := make([]*dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		res = append(res, toSessionResponse(s))
	}
	return res, nil
}

func (cs *chatbotService) GetSession(ctx context.Context, userId string, sessionId uint) (*dto.SessionResponse, error) {
	session, err := cs.ownedSession(ctx, "session.get", userId, sessionId)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// ownedSession hides sessions of other users behind NotFound.
func (cs *chatbotService) ownedSession(ctx context.Context, op, userId string, sessionId uint) (*entity.ChatSession, error) {
	session, err := cs.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().FindByID(ctx, sessionId)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if session == nil || session.UserId != userId {
		return nil, apperror.NotFound(op, "chat session not found")
	}
	return session, nil
}

func (cs *chatbotService) DeleteSession(ctx context.Context, userId string, sessionId uint) error {
	if _, err := cs.ownedSession(ctx, "session.delete", userId, sessionId); err != nil {
		return err
	}

	cs.cancelTurns(sessionId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return storageErr("session.delete", err)
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteBySession(ctx, sessionId); err != nil {
		return storageErr("session.delete", err)
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return storageErr("session.delete", err)
	}
	if err := uow.Commit(); err != nil {
		return storageErr("session.delete", err)
	}

	// turns that registered while the delete was in flight
	cancelled := cs.cancelTurns(sessionId)
	dropped := cs.dispatcher.Registry().DropSession(sessionId)
	cs.history.Delete(sessionId)

	cs.logger.Info("ChatbotService", "Session deleted", map[string]interface{}{
		"session_id": sessionId, "subscribers_dropped": len(dropped), "turns_cancelled": cancelled,
	})
	return nil
}

// beginTurn derives the context a conversation turn runs under. DeleteSession
// cancels it.
func (cs *chatbotService) beginTurn(ctx context.Context, sessionId uint) (context.Context, func()) {
	turnCtx, cancel := context.WithCancel(ctx)

	cs.turnsMu.Lock()
	cs.nextTurn++
	id := cs.nextTurn
	if cs.turns[sessionId] == nil {
		cs.turns[sessionId] = make(map[uint64]context.CancelFunc)
	}
	cs.turns[sessionId][id] = cancel
	cs.turnsMu.Unlock()

	return turnCtx, func() {
		cs.turnsMu.Lock()
		if active, ok := cs.turns[sessionId]; ok {
			delete(active, id)
			if len(active) == 0 {
				delete(cs.turns, sessionId)
			}
		}
		cs.turnsMu.Unlock()
		cancel()
	}
}

func (cs *chatbotService) cancelTurns(sessionId uint) int {
	cs.turnsMu.Lock()
	active := cs.turns[sessionId]
	delete(cs.turns, sessionId)
	cs.turnsMu.Unlock()

	for _, cancel := range active {
		cancel()
	}
	return len(active)
}

// turnErr reports a turn cut short by DeleteSession as NotFound.
func turnErr(ctx, turnCtx context.Context, err error) error {
	if turnCtx.Err() != nil && ctx.Err() == nil {
		return apperror.NotFound("chat.send", "chat session was deleted")
	}
	return err
}

func (cs *chatbotService) GetHistory(ctx context.Context, userId string, sessionId uint) ([]*dto.ChatMessageResponse, error) {
	if _, err := cs.ownedSession(ctx, "session.history", userId, sessionId); err != nil {
		return nil, err
	}
	messages, err := cs.uowFactory.NewUnitOfWork(ctx).ChatMessageRepository().FindBySession(ctx, sessionId, 0)
	if err != nil {
		return nil, storageErr("session.history", err)
	}
	res := make([]*dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, toMessageResponse(m))
	}
	return res, nil
}

// SendChat runs one conversation turn: the user's message is stored and
// broadcast, the reply is streamed in chunks to every subscriber of the
// session and finally broadcast whole. Memory capture and the domain event
// are best effort.
func (cs *chatbotService) SendChat(ctx context.Context, userId string, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	text := strings.TrimSpace(request.Chat)
	if text == "" {
		return nil, apperror.InvalidInput("chat.send", "chat is required")
	}

	// registered before the ownership check so a concurrent delete either
	// hides the session or cancels the turn
	turnCtx, release := cs.beginTurn(ctx, request.ChatSessionId)
	defer release()

	session, err := cs.ownedSession(turnCtx, "chat.send", userId, request.ChatSessionId)
	if err != nil {
		return nil, turnErr(ctx, turnCtx, err)
	}

	// window before this turn
	history, err := cs.recentHistory(turnCtx, session.Id)
	if err != nil {
		return nil, turnErr(ctx, turnCtx, err)
	}

	userMessage := &entity.ChatMessage{
		ChatSessionId: session.Id,
		UserId:        userId,
		Role:          constant.ChatMessageRoleUser,
		Chat:          text,
	}
	if err := cs.uowFactory.NewUnitOfWork(turnCtx).ChatMessageRepository().Create(turnCtx, userMessage); err != nil {
		return nil, turnErr(ctx, turnCtx, storageErr("chat.send", err))
	}
	if err := turnCtx.Err(); err != nil {
		return nil, turnErr(ctx, turnCtx, err)
	}
	cs.history.Append(userMessage)
	cs.retitle(turnCtx, session, text)

	cs.dispatcher.BroadcastMessage(turnCtx, session.Id, toMessageResponse(userMessage))

	reply, chunks, fallback, err := cs.respond(turnCtx, userId, session.Id, text, request.Context, history)
	if err != nil {
		return nil, turnErr(ctx, turnCtx, err)
	}

	if !fallback {
		cs.captureMemory(ctx, userMessage, reply, request.Context)
	}
	cs.publishEvent(ctx, events.New(events.ChatMessageCreated, map[string]interface{}{
		"user_id":    userId,
		"session_id": session.Id,
		"message_id": reply.Id,
		"fallback":   fallback,
	}))

	return &dto.SendChatResponse{
		ChatSessionId: session.Id,
		Sent:          toMessageResponse(userMessage),
		Reply:         toMessageResponse(reply),
		Chunks:        chunks,
		Fallback:      fallback,
	}, nil
}

// respond produces, stores and streams the assistant's reply while the
// assistant is shown as typing.
func (cs *chatbotService) respond(
	ctx context.Context,
	userId string,
	sessionId uint,
	text string,
	queryContext map[string]interface{},
	history []*entity.ChatMessage,
) (*entity.ChatMessage, int, bool, error) {
	cs.dispatcher.SetTypingStatus(cs.cfg.AssistantIdentity, true, sessionId)
	defer cs.dispatcher.SetTypingStatus(cs.cfg.AssistantIdentity, false, sessionId)

	request := cs.buildRequest(ctx, userId, sessionId, text, queryContext, history)

	replyMessage := &entity.ChatMessage{ChatSessionId: sessionId, UserId: userId}
	fallback := false

	reply, err := cs.responder.Respond(ctx, request)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, 0, false, ctxErr
	}
	if err != nil || reply == nil || strings.TrimSpace(reply.Text) == "" {
		fields := map[string]interface{}{"user_id": userId, "session_id": sessionId}
		if err != nil {
			fields["error"] = err.Error()
		}
		cs.logger.Error("ChatbotService", "Responder failed, sending fallback", fields)

		fallback = true
		replyMessage.Role = constant.ChatMessageRoleSystem
		replyMessage.Chat = constant.ChatFallbackMessage
		replyMessage.Suggestions = append([]string{}, llm.FallbackSuggestions...)
	} else {
		replyMessage.Role = constant.ChatMessageRoleAssistant
		replyMessage.Chat = strings.TrimSpace(reply.Text)
		if request.AutoSuggestions {
			replyMessage.Suggestions = reply.Suggestions
		}
	}

	if err := cs.uowFactory.NewUnitOfWork(ctx).ChatMessageRepository().Create(ctx, replyMessage); err != nil {
		return nil, 0, false, storageErr("chat.send", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, false, err
	}
	cs.history.Append(replyMessage)

	if fallback {
		cs.dispatcher.BroadcastMessage(ctx, sessionId, toMessageResponse(replyMessage))
		return replyMessage, 0, true, nil
	}

	chunks := chunker.Split(replyMessage.Chat, cs.cfg.MaxChunkSize)
	report, err := cs.dispatcher.StreamResponse(ctx, sessionId, replyMessage.Id, chunks)
	if err != nil {
		return nil, 0, false, err
	}
	if report.Failed > 0 {
		cs.logger.Warn("ChatbotService", "Some chunks were not delivered", map[string]interface{}{
			"session_id": sessionId, "failed": report.Failed, "attempted": report.Attempted,
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, false, err
	}

	cs.dispatcher.BroadcastMessage(ctx, sessionId, toMessageResponse(replyMessage))
	return replyMessage, len(chunks), false, nil
}

// buildRequest gathers preferences and relevant memories. Both degrade to
// defaults when unavailable so a reply is still attempted.
func (cs *chatbotService) buildRequest(
	ctx context.Context,
	userId string,
	sessionId uint,
	text string,
	queryContext map[string]interface{},
	history []*entity.ChatMessage,
) llm.ResponseRequest {
	pref, err := cs.preferenceService.GetPreferenceRecord(ctx, userId)
	if err != nil {
		cs.logger.Warn("ChatbotService", "Preferences unavailable, using defaults", map[string]interface{}{
			"user_id": userId, "error": err.Error(),
		})
		pref = entity.NewDefaultPreference(userId)
	}

	var memories []string
	scored, err := cs.memoryService.GetRelevantMemories(ctx, userId, text, queryContext, cs.cfg.MemoryTopK)
	if err != nil {
		cs.logger.Warn("ChatbotService", "Memories unavailable", map[string]interface{}{
			"user_id": userId, "error": err.Error(),
		})
	}
	for _, s := range scored {
		memories = append(memories, s.Memory.Content)
	}

	turns := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := llm.RoleUser
		if m.Role != constant.ChatMessageRoleUser {
			role = llm.RoleAssistant
		}
		turns = append(turns, llm.Message{Role: role, Content: m.Chat})
	}

	return llm.ResponseRequest{
		UserId:          userId,
		SessionId:       sessionId,
		Message:         text,
		History:         turns,
		Memories:        memories,
		Topics:          cs.preferenceService.ExtractTopics(text),
		Intent:          topic.ClassifyIntent(text),
		ResponseStyle:   pref.ResponseStyle,
		PreferredTopics: pref.PreferredTopics,
		AvoidedTopics:   pref.AvoidedTopics,
		AutoSuggestions: pref.AutoSuggestions,
	}
}

func (cs *chatbotService) recentHistory(ctx context.Context, sessionId uint) ([]*entity.ChatMessage, error) {
	if cached, ok := cs.history.Get(sessionId); ok {
		return append([]*entity.ChatMessage(nil), cached...), nil
	}
	messages, err := cs.uowFactory.NewUnitOfWork(ctx).ChatMessageRepository().FindBySession(ctx, sessionId, cs.history.Window())
	if err != nil {
		return nil, storageErr("chat.send", err)
	}
	cs.history.Save(sessionId, messages)
	return messages, nil
}

// retitle names an untitled session after its first message.
func (cs *chatbotService) retitle(ctx context.Context, session *entity.ChatSession, text string) {
	if session.Title != constant.DefaultSessionTitle {
		return
	}
	title := []rune(text)
	if len(title) > constant.SessionTitleMaxLen {
		session.Title = strings.TrimSpace(string(title[:constant.SessionTitleMaxLen])) + "..."
	} else {
		session.Title = text
	}
	if err := cs.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().Update(ctx, session); err != nil {
		cs.logger.Warn("ChatbotService", "Failed to update session title", map[string]interface{}{
			"session_id": session.Id, "error": err.Error(),
		})
	}
}

// captureMemory queues the exchange for memory extraction, keyed by the
// assistant's reply.
func (cs *chatbotService) captureMemory(ctx context.Context, question, reply *entity.ChatMessage, memoryContext map[string]interface{}) {
	if cs.memoryCapture == nil {
		return
	}
	payload, err := json.Marshal(dto.MemoryCaptureMessage{
		UserId:    question.UserId,
		SessionId: reply.ChatSessionId,
		MessageId: reply.Id,
		Content:   question.Chat + "\n\n" + reply.Chat,
		Context:   memoryContext,
	})
	if err == nil {
		err = cs.memoryCapture.Publish(ctx, payload)
	}
	if err != nil {
		cs.logger.Warn("ChatbotService", "Failed to queue memory capture", map[string]interface{}{
			"message_id": reply.Id, "error": err.Error(),
		})
	}
}

func (cs *chatbotService) publishEvent(ctx context.Context, event events.Event) {
	if cs.eventPublisher == nil {
		return
	}
	if err := cs.eventPublisher.Publish(ctx, event); err != nil {
		cs.logger.Warn("ChatbotService", "Failed to publish event", map[string]interface{}{
			"type": event.EventType(), "error": err.Error(),
		})
	}
}

// SubmitFeedback records a rating on a message of the caller's session.
func (cs *chatbotService) SubmitFeedback(ctx context.Context, userId string, request *dto.FeedbackRequest) (*dto.FeedbackResult, error) {
	result, err := cs.preferenceService.ProcessFeedback(ctx, userId, request.MessageId, request.Rating, request.FeedbackText)
	if err != nil {
		return nil, err
	}
	cs.publishEvent(ctx, events.New(events.FeedbackRecorded, map[string]interface{}{
		"user_id":    userId,
		"message_id": request.MessageId,
		"rating":     request.Rating,
		"learned":    result.Learned,
	}))
	return result, nil
}

func (cs *chatbotService) MarkRead(ctx context.Context, userId string, sessionId uint, request *dto.ReadReceiptRequest) error {
	if _, err := cs.ownedSession(ctx, "chat.read", userId, sessionId); err != nil {
		return err
	}
	cs.dispatcher.SendReadReceipt(ctx, sessionId, request.MessageId, userId)
	return nil
}

func toSessionResponse(s *entity.ChatSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:        s.Id,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toMessageResponse(m *entity.ChatMessage) *dto.ChatMessageResponse {
	return &dto.ChatMessageResponse{
		Id:            m.Id,
		ChatSessionId: m.ChatSessionId,
		UserId:        m.UserId,
		Role:          m.Role,
		Chat:          m.Chat,
		Suggestions:   m.Suggestions,
		CreatedAt:     m.CreatedAt,
	}
}
