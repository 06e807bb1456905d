package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatmodels "clientdesk/backend/chat/models"
	crmmodels "clientdesk/backend/crm/models"
	"clientdesk/backend/pkg/config"
	"clientdesk/backend/pkg/di"
	"clientdesk/backend/pkg/logger"
	"clientdesk/backend/pkg/router"
	"clientdesk/backend/pkg/secrets"
	"clientdesk/backend/shared/observability"
	usermodels "clientdesk/backend/user/models"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	logConfig := logger.DefaultConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logConfig.Level = level
	}
	logConfig.JSON = os.Getenv("LOG_FORMAT") != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"))

	// Resolve managed secrets before the config singleton reads the
	// environment; without Vault these fall through to the env values
	if err := secrets.Init(log); err != nil {
		log.Warn("secrets manager unavailable, using environment values", "error", err.Error())
	}
	ctx := context.Background()
	os.Setenv("JWT_SECRET", secrets.GetSecretWithDefault(ctx, "JWT_SECRET", os.Getenv("JWT_SECRET")))
	os.Setenv("DB_PASSWORD", secrets.GetSecretWithDefault(ctx, "DB_PASSWORD", os.Getenv("DB_PASSWORD")))

	cfg := config.New()

	shutdownTracing := observability.SetupTracing("clientdesk-backend")
	defer shutdownTracing()
	observability.SetupPrometheusMetrics()

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&usermodels.User{},
		&crmmodels.Client{},
		&crmmodels.Task{},
		&chatmodels.ChatMessage{},
	); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Conversation reads are always client-scoped and ordered by time
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_chat_messages_client_created ON chat_messages(client_id, created_at)").Error; err != nil {
		log.LogError(err, "Failed to create index", "index", "idx_chat_messages_client_created")
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_chat_messages_unread ON chat_messages(client_id, is_read)").Error; err != nil {
		log.LogError(err, "Failed to create index", "index", "idx_chat_messages_unread")
	}

	container, err := di.New(ctx, db, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	defer container.Close()

	r := router.New(container)
	r.SetupRoutes()

	if schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH"); schemaPath != "" {
		r.AddOpenAPIValidation(schemaPath)
	}

	// No read/write timeouts on the server itself: the chat sockets are
	// long-lived and manage their own deadlines
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}
