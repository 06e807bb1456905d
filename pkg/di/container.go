package di

import (
	"context"
	"fmt"

	chatrepo "clientdesk/backend/chat/repository"
	chatservice "clientdesk/backend/chat/service"
	crmrepo "clientdesk/backend/crm/repository"
	crmservice "clientdesk/backend/crm/service"
	"clientdesk/backend/notify"
	"clientdesk/backend/pkg/cache"
	"clientdesk/backend/pkg/config"
	"clientdesk/backend/pkg/jwt"
	"clientdesk/backend/pkg/logger"
	"clientdesk/backend/realtime"
	"clientdesk/backend/shared/observability"
	sharedredis "clientdesk/backend/shared/redis"
	"clientdesk/backend/storage"
	userrepo "clientdesk/backend/user/repository"
	userservice "clientdesk/backend/user/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB         *gorm.DB
	Logger     *logger.Logger
	Redis      *redis.Client
	Metrics    *observability.Metrics
	JWTService *jwt.Service

	Broker   *realtime.RedisBroker
	Manager  *realtime.Manager
	Notifier notify.Publisher
	Uploader *storage.Uploader

	UserService      *userservice.UserService
	IdentityResolver *userservice.IdentityResolver
	ChatService      *chatservice.ChatService
	ClientService    *crmservice.ClientService
	TaskService      *crmservice.TaskService
}

// New wires the full dependency graph from the loaded configuration
func New(ctx context.Context, db *gorm.DB, log *logger.Logger) (*Container, error) {
	cfg := config.Get()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)

	rdb := sharedredis.NewClient()
	if err := sharedredis.Ping(ctx, rdb); err != nil {
		// Redis only carries the live fan-out; the HTTP surface still works
		// without it, so a failed ping is a warning rather than a fatal.
		log.Warn("redis unreachable, realtime delivery degraded", "error", err.Error())
	}

	store, err := storage.NewS3Store(ctx, storage.S3Options{
		Endpoint:      cfg.Storage.Endpoint,
		Region:        cfg.Storage.Region,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}
	uploader := storage.NewUploader(store, cfg.Storage.Bucket, log, metrics)

	var notifier notify.Publisher
	if cfg.AMQP.URL != "" {
		amqpPub, err := notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			log.Warn("amqp unreachable, notification events will be dropped", "error", err.Error())
			notifier = notify.NewFallback(log)
		} else {
			notifier = notify.NewResilient(amqpPub, log)
		}
	} else {
		notifier = notify.NewFallback(log)
	}

	users := userrepo.NewGormUserRepository(db)
	messages := chatrepo.NewGormMessageRepository(db)
	clients := crmrepo.NewGormClientRepository(db)
	tasks := crmrepo.NewGormTaskRepository(db)

	identityResolver := userservice.NewIdentityResolver(users, log)
	userService := userservice.NewUserService(users, jwtService)

	broker := realtime.NewRedisBroker(rdb, log)
	chatService := chatservice.NewChatService(messages, identityResolver, broker, notifier, log, metrics)
	manager := realtime.NewManager(broker, chatService, identityResolver, log, metrics)

	clientService := crmservice.NewClientService(clients, cache.NewCache())
	taskService := crmservice.NewTaskService(tasks)

	return &Container{
		DB:               db,
		Logger:           log,
		Redis:            rdb,
		Metrics:          metrics,
		JWTService:       jwtService,
		Broker:           broker,
		Manager:          manager,
		Notifier:         notifier,
		Uploader:         uploader,
		UserService:      userService,
		IdentityResolver: identityResolver,
		ChatService:      chatService,
		ClientService:    clientService,
		TaskService:      taskService,
	}, nil
}

// Close releases the container's long-lived connections
func (c *Container) Close() error {
	var firstErr error
	if c.Notifier != nil {
		if err := c.Notifier.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
