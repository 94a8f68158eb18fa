package handler

import (
	"infra-assistant-be/internal/dto"
	"infra-assistant-be/internal/pkg/logger"
	"infra-assistant-be/internal/pkg/serverutils"
	"infra-assistant-be/internal/service"
	internalWS "infra-assistant-be/internal/websocket"
	"infra-assistant-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type RealtimeHandler struct {
	session     *internalWS.Session
	dispatcher  *internalWS.Dispatcher
	chatService service.IChatbotService
	publisher   service.EventPublisher // nil without NATS
	jwtSecret   []byte
	logger      logger.ILogger
}

func NewRealtimeHandler(
	dispatcher *internalWS.Dispatcher,
	chatService service.IChatbotService,
	pub service.EventPublisher,
	jwtSecret string,
	log logger.ILogger,
) *RealtimeHandler {
	return &RealtimeHandler{
		session:     internalWS.NewSession(dispatcher, log),
		dispatcher:  dispatcher,
		chatService: chatService,
		publisher:   pub,
		jwtSecret:   []byte(jwtSecret),
		logger:      log,
	}
}

// ServeWs authenticates the handshake and upgrades the connection.
// Browsers pass the token as ?token=, other clients may use the Authorization header.
func (h *RealtimeHandler) ServeWs(c *fiber.Ctx) error {
	identity, err := serverutils.ParseIdentity(serverutils.BearerToken(c), h.jwtSecret)
	if err != nil {
		h.logger.Warn("RealtimeHandler", "Rejected websocket handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse{
			Success: false,
			Code:    fiber.StatusUnauthorized,
			Message: err.Error(),
		})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("RealtimeHandler", "Starting websocket session", map[string]interface{}{"user_id": identity})
			h.session.ServeWs(conn, identity)
			h.logger.Info("RealtimeHandler", "Websocket session ended", map[string]interface{}{"user_id": identity})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *RealtimeHandler) Stats(c *fiber.Ctx) error {
	stats := h.dispatcher.Registry().Stats()
	return c.JSON(serverutils.SuccessResponse("Success get realtime stats", dto.RealtimeStatsResponse{
		Connections:   stats.Connections,
		Sessions:      stats.Sessions,
		Subscriptions: stats.Subscriptions,
	}))
}

// PublishTask reports progress of a task running for one of the caller's
// sessions. With NATS configured the update goes through the task subject
// like any worker's would; otherwise it is dispatched directly.
func (h *RealtimeHandler) PublishTask(c *fiber.Ctx) error {
	var req dto.TaskUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx := c.UserContext()
	if _, err := h.chatService.GetSession(ctx, serverutils.Identity(c), req.SessionId); err != nil {
		return err
	}
	if req.TaskId == "" {
		req.TaskId = uuid.NewString()
	}

	res := dto.TaskUpdateResponse{TaskId: req.TaskId}
	if h.publisher != nil {
		evt := events.New(events.TaskProgress, map[string]interface{}{
			"session_id": req.SessionId,
			"task_id":    req.TaskId,
			"status":     req.Status,
			"progress":   req.Progress,
			"message":    req.Message,
			"data":       req.Data,
		})
		if err := h.publisher.Publish(ctx, evt); err != nil {
			return err
		}
		res.Queued = true
	} else {
		report, err := h.dispatcher.SendTaskUpdate(ctx, req.SessionId, req.TaskId, req.Status, req.Progress, req.Message, req.Data)
		if err != nil {
			return err
		}
		res.Delivered = report.Delivered
	}

	return c.JSON(serverutils.SuccessResponse("Success publish task update", res))
}

func (h *RealtimeHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	rt := router.Group("/realtime/v1")
	rt.Use(auth)
	rt.Get("/stats", h.Stats)
	rt.Post("/tasks", h.PublishTask)

	// WebSocket authenticates its own handshake
	router.Get("/ws", h.ServeWs)
}
