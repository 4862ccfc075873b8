// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"studylink-service/internal/config"
	"studylink-service/internal/db"
	alertHandler "studylink-service/internal/handlers/alert"
	authHandler "studylink-service/internal/handlers/auth"
	commHandler "studylink-service/internal/handlers/communication"
	configHandler "studylink-service/internal/handlers/config"
	notifyH "studylink-service/internal/handlers/notification"
	pushHandler "studylink-service/internal/handlers/push"
	schedulerHandler "studylink-service/internal/handlers/scheduler"
	templateHandler "studylink-service/internal/handlers/template"
	"studylink-service/internal/middleware"
	"studylink-service/internal/pkg/jwt"
	"studylink-service/internal/pkg/ratelimit"
	"studylink-service/internal/repository/postgres"
	configUsecase "studylink-service/internal/service/alertconfig"
	alertsUsecase "studylink-service/internal/service/alerts"
	authUsecase "studylink-service/internal/service/auth"
	commUsecase "studylink-service/internal/service/communication"
	"studylink-service/internal/service/dispatch"
	"studylink-service/internal/service/email"
	notifyUsecase "studylink-service/internal/service/notification"
	pushUsecase "studylink-service/internal/service/push"
	schedulerUsecase "studylink-service/internal/service/scheduler"
	templateUsecase "studylink-service/internal/service/template"
	"studylink-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	pool         *pgxpool.Pool
	redisClient  *redis.Client
	orchestrator *dispatch.Orchestrator
	hubCancel    context.CancelFunc
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redisClient = redisClient

	// ----- JWT Manager -----
	jwtManager, err := jwt.NewManager(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to build JWT manager: %w", err)
	}

	// ----- Rate Limiter -----
	limiter := ratelimit.NewLimiter(ratelimit.NewRedisCounterStore(redisClient))

	// ----- Email -----
	emailSender := email.NewSender(email.Config{
		Host:     s.cfg.SMTPHost,
		Port:     s.cfg.SMTPPort,
		Username: s.cfg.SMTPUser,
		Password: s.cfg.SMTPPass,
		FromName: s.cfg.SMTPFromName,
		Secure:   s.cfg.SMTPSecure,
		Timeout:  s.cfg.SendTimeout,
	})

	// ----- Repositories -----
	alertRepo := postgres.NewAlertRepository(pool)
	alertConfigRepo := postgres.NewAlertConfigRepository(pool)
	notifyRepo := postgres.NewNotificationRepository(pool)
	templateRepo := postgres.NewTemplateRepository(pool)
	pushRepo := postgres.NewPushSubscriptionRepository(pool)
	commRepo := postgres.NewCommunicationRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	progressRepo := postgres.NewProgressRepository(pool)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(logger)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	s.hubCancel = hubCancel
	go hub.Run(hubCtx)

	// ----- Dispatch -----
	renderer := templateUsecase.NewRenderer(logger)

	inAppWriter := dispatch.NewInAppWriter(notifyRepo, hub, logger)
	emailChannel := email.NewChannelSender(emailSender, logger)
	pushSender := pushUsecase.NewSender(pushRepo, pushUsecase.VAPIDConfig{
		PublicKey:  s.cfg.VAPIDPublicKey,
		PrivateKey: s.cfg.VAPIDPrivateKey,
		Subscriber: s.cfg.VAPIDSubscriber,
	}, &http.Client{Timeout: s.cfg.SendTimeout}, logger)

	resolver := dispatch.NewRecipientResolver(userRepo)
	orchestrator, err := dispatch.NewOrchestrator(
		[]dispatch.Sender{inAppWriter, emailChannel, pushSender},
		resolver,
		templateRepo,
		commRepo,
		renderer,
		s.cfg.DispatchWorkers,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to build dispatcher: %w", err)
	}
	s.orchestrator = orchestrator

	// ----- Alert Engine & Scheduler -----
	alertEngine := alertsUsecase.NewEngine(alertRepo, alertConfigRepo, progressRepo, logger)
	runner := schedulerUsecase.NewRunner(alertEngine, alertConfigRepo, orchestrator, s.cfg.SchedulerConcurrency, logger)

	// ----- Services -----
	authService := authUsecase.NewService(userRepo, jwtManager, limiter, logger)
	alertService := alertsUsecase.NewService(alertRepo, logger)
	notifService := notifyUsecase.NewService(notifyRepo, hub, logger)
	templateService := templateUsecase.NewService(templateRepo, renderer, logger)
	configService := configUsecase.NewService(alertConfigRepo, templateRepo, logger)
	commService := commUsecase.NewService(commRepo)
	pushService := pushUsecase.NewService(pushRepo, logger)

	// ----- Handlers -----
	handlers := &Handlers{
		AuthHandler:      authHandler.NewAuthHandler(authService),
		AlertHandler:     alertHandler.NewAlertHandler(alertService),
		NotifHandler:     notifyH.NewNotificationHandler(notifService),
		PushHandler:      pushHandler.NewPushHandler(pushService, s.cfg.VAPIDPublicKey),
		CommHandler:      commHandler.NewCommunicationHandler(commService, orchestrator),
		TemplateHandler:  templateHandler.NewTemplateHandler(templateService),
		ConfigHandler:    configHandler.NewConfigHandler(configService),
		SchedulerHandler: schedulerHandler.NewSchedulerHandler(runner, s.cfg.SchedulerToken, logger),
		WSHandler:        websocket.NewHandler(hub, jwtManager, logger),
		AuthMiddleware:   middleware.NewAuthMiddleware(jwtManager),
		Limiter:          limiter,
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.CORSOrigin),
	)

	// ----- Router -----
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	logger.Info("server starting", zap.String("addr", s.cfg.HTTPAddr))
	return s.engine.Run(s.cfg.HTTPAddr)
}

// Shutdown releases the server's long-lived resources.
func (s *Server) Shutdown(ctx context.Context) {
	if s.hubCancel != nil {
		s.hubCancel()
	}
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}
