package bootstrap

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"research-workflow-be/internal/config"
	"research-workflow-be/internal/controller"
	"research-workflow-be/internal/pkg/logger"
	"research-workflow-be/internal/repository/memory"
	"research-workflow-be/internal/repository/unitofwork"
	"research-workflow-be/internal/service"
	"research-workflow-be/internal/websocket"
	"research-workflow-be/pkg/llm/factory"
	"research-workflow-be/pkg/specgen"
	"research-workflow-be/pkg/store"
)

const analysisEventsTopic = "ANALYSIS_EVENTS"

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	ProjectController  controller.IProjectController
	StudyController    controller.IStudyController
	AssetController    controller.IAssetController
	AnalysisController controller.IAnalysisController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. LLM Provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	producer := specgen.NewLLMProducer(llmProvider)

	// 4. In-Memory State
	sessionRepo := memory.NewSessionRepository()
	currentSpecs := store.NewCurrentSpecs()

	// 5. Redis (optional, multi-instance websocket fan-out)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// 6. WebSocket Hub
	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run()

	// 7. Services
	publisherService := service.NewPublisherService(analysisEventsTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		analysisEventsTopic,
		uowFactory,
		currentSpecs,
		wsHub,
	)

	authService := service.NewAuthService(cfg)
	projectService := service.NewProjectService(uowFactory, cfg)
	studyService := service.NewStudyService(uowFactory)
	assetService := service.NewAssetService(studyService)
	analysisService := service.NewAnalysisService(
		uowFactory,
		producer,
		sessionRepo,
		currentSpecs,
		publisherService,
		studyService,
		cfg,
		sysLogger,
	)

	// 8. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService),
		ProjectController:  controller.NewProjectController(projectService),
		StudyController:    controller.NewStudyController(studyService),
		AssetController:    controller.NewAssetController(assetService),
		AnalysisController: controller.NewAnalysisController(analysisService),

		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
	}
}
