package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lume/internal/agent"
	"lume/internal/config"
	"lume/internal/db"
	"lume/internal/email"
	apihttp "lume/internal/http"
	"lume/internal/llm"
	"lume/internal/repository"
	"lume/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pingers := map[string]apihttp.Pinger{}

	var (
		userRepo repository.UserRepository
		chatRepo repository.ChatRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		userRepo = repository.NewPgUserRepository(pool)
		chatRepo = repository.NewPgChatRepository(pool)
		pingers["postgres"] = func(ctx context.Context) error { return db.Ping(ctx, pool) }
	default:
		client, database, err := db.NewMongo(ctx, cfg)
		if err != nil {
			logger.Fatal("mongo connect", zap.Error(err))
		}
		defer func() {
			ctxClose, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctxClose); err != nil {
				logger.Warn("mongo disconnect", zap.Error(err))
			}
		}()
		if err := db.EnsureMongoIndexes(ctx, database); err != nil {
			logger.Fatal("mongo indexes", zap.Error(err))
		}
		userRepo = repository.NewMongoUserRepository(database.Collection(db.UsersCollection))
		chatRepo = repository.NewMongoChatRepository(database.Collection(db.ChatsCollection))
		pingers["mongo"] = func(ctx context.Context) error { return db.PingMongo(ctx, client) }
	}

	var sessionStore service.SessionStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory sessions", zap.Error(err))
		} else {
			sessionStore = service.NewRedisSessionStore(redisClient)
			pingers["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
		cancel()
	}
	sessionSvc := service.NewSessionService(
		cfg.SessionSecret,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute,
		sessionStore,
	)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	llmClient, err := newLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("llm client", zap.Error(err))
	}

	catalog, err := agent.LoadCatalog(cfg.AgentsFile)
	if err != nil {
		logger.Fatal("agent catalog", zap.Error(err))
	}
	catalog = catalog.WithModel(cfg.LLMModelOverride)

	agentSessions := agent.NewInMemorySessionService()
	runner, err := agent.NewRunner(agent.RunnerConfig{
		AppName:      cfg.AgentAppName,
		Catalog:      catalog,
		Sessions:     agentSessions,
		Client:       llmClient,
		MaxTransfers: cfg.AgentMaxTransfers,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("agent runner", zap.Error(err))
	}
	bridge := agent.NewBridge(
		cfg.AgentAppName,
		runner,
		agentSessions,
		time.Duration(cfg.AgentTimeoutSeconds)*time.Second,
		logger,
	)

	userSvc := service.NewUserService(logger, userRepo, emailSender)
	chatSvc := service.NewChatService(logger, chatRepo, bridge)

	router := apihttp.NewRouter(
		logger,
		sessionSvc,
		apihttp.NewPageHandler(logger, userSvc, chatSvc),
		apihttp.NewAuthHandler(logger, userSvc, sessionSvc, cfg.CookieSecure),
		apihttp.NewChatHandler(logger, chatSvc),
		apihttp.NewHealthHandler(logger, pingers),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.HTTPPort),
			zap.String("store", cfg.StoreDriver),
			zap.String("llm_provider", cfg.LLMProvider),
			zap.String("root_agent", catalog.Root().Name),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}

func newLLMClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.Client, error) {
	if cfg.LLMProvider == config.LLMProviderOpenAI {
		return llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, logger), nil
	}
	return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, logger)
}
