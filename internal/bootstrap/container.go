package bootstrap

import (
	"context"
	"log"
	"time"

	"infra-assistant-be/internal/config"
	"infra-assistant-be/internal/constant"
	"infra-assistant-be/internal/controller"
	"infra-assistant-be/internal/handler"
	"infra-assistant-be/internal/pkg/logger"
	"infra-assistant-be/internal/pkg/serverutils"
	"infra-assistant-be/internal/repository/memory"
	"infra-assistant-be/internal/repository/unitofwork"
	"infra-assistant-be/internal/service"
	"infra-assistant-be/internal/websocket"
	"infra-assistant-be/pkg/embedding"
	"infra-assistant-be/pkg/llm/factory"
	pktNats "infra-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController    controller.IChatbotController
	PreferenceController controller.IPreferenceController
	MemoryController     controller.IMemoryController
	RealtimeHandler      *handler.RealtimeHandler
	JwtMiddleware        fiber.Handler

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	TaskRelayService *service.TaskRelayService // nil without NATS

	Dispatcher *websocket.Dispatcher

	closers []func()
}

// NewContainer wires the application. A nil db selects the in-memory store.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c.closers = append(c.closers, func() { _ = wsLogger.Sync(); _ = sysLogger.Sync() })

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		sysLogger.Warn("Bootstrap", "No database configured, using in-memory store", nil)
		uowFactory = memory.NewRepositoryFactory(memory.NewStore())
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.Redis.URL}
		}
		rdb = redis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		cancel()
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.Nats.URL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.Nats.URL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.Nats.URL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// 4. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	case "gemini":
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
	default:
		embeddingProvider = embedding.NewPlaceholderProvider(cfg.Ai.EmbeddingDimension)
	}
	embeddingProvider = embedding.NewCachedProvider(embeddingProvider, rdb, cfg.Ai.EmbeddingProvider, cfg.Redis.EmbeddingCacheTTL)
	log.Printf("[INFO] Using Embedding Provider: %s", cfg.Ai.EmbeddingProvider)

	responder, err := factory.NewResponder(factory.Settings{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		ApiKey:   cfg.Ai.LLMApiKey,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Realtime
	registry := websocket.NewRegistry(wsLogger)
	dispatcher := websocket.NewDispatcher(registry, wsLogger, websocket.DispatcherConfig{
		ChunkDelay: cfg.Realtime.ChunkDelay,
	})
	c.Dispatcher = dispatcher
	c.closers = append(c.closers, dispatcher.Close, registry.Close)

	// 6. Services
	memoryService := service.NewMemoryService(uowFactory, embeddingProvider, cfg.Memory, sysLogger)
	preferenceService := service.NewPreferenceService(uowFactory, sysLogger)

	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	chatbotService := service.NewChatbotService(
		uowFactory,
		dispatcher,
		responder,
		memory.NewHistoryRepository(cfg.Ai.HistoryWindow),
		memoryService,
		preferenceService,
		service.NewPublisherService(constant.MemoryCaptureTopic, pubSub),
		eventPublisher,
		service.ChatbotConfig{
			AssistantIdentity: cfg.App.AssistantIdentity,
			MaxChunkSize:      cfg.Realtime.MaxChunkSize,
			MemoryTopK:        cfg.Memory.DefaultTopK,
		},
		sysLogger,
	)

	c.ConsumerService = service.NewConsumerService(pubSub, constant.MemoryCaptureTopic, memoryService, sysLogger)
	if natsSub != nil {
		c.TaskRelayService = service.NewTaskRelayService(natsSub, dispatcher, cfg.Nats.TaskSubject, cfg.Nats.DurableName, wsLogger)
	}

	// 7. Controllers
	c.JwtMiddleware = serverutils.NewJwtMiddleware(cfg.App.JwtSecret)
	c.ChatbotController = controller.NewChatbotController(chatbotService)
	c.PreferenceController = controller.NewPreferenceController(preferenceService)
	c.MemoryController = controller.NewMemoryController(memoryService)
	c.RealtimeHandler = handler.NewRealtimeHandler(dispatcher, chatbotService, eventPublisher, cfg.App.JwtSecret, wsLogger)

	return c
}

// Close releases everything NewContainer opened, newest first.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
