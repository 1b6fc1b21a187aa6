package container

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/safeguardai/console/internal/api"
	"github.com/safeguardai/console/internal/auth"
	"github.com/safeguardai/console/internal/aws"
	"github.com/safeguardai/console/internal/backend"
	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/database"
	"github.com/safeguardai/console/internal/identity"
	"github.com/safeguardai/console/internal/image"
	"github.com/safeguardai/console/internal/logging"
	"github.com/safeguardai/console/internal/queue"
	"github.com/safeguardai/console/internal/state"
)

type Container struct {
	Config      *config.Config
	Database    *database.Database
	Queue       *queue.TaskQueue
	RedisClient *redis.Client
	AuthService *auth.Service
	Backend     *backend.Client
	Store       *state.Store
	Server      *api.Server
	Worker      *queue.Worker
}

func New(cfg config.Config) (*Container, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		return nil, err
	}

	taskQueue, err := queue.NewQueue(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	// Two separate Redis connection pools are used: the asynq task
	// queue manages its own connection, and this client holds session
	// state.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	jwtService, err := auth.NewJWTService([]byte(cfg.JWT.SigningKey), cfg.JWT.Issuer, cfg.JWT.Expiry)
	if err != nil {
		return nil, err
	}

	provider, err := identity.NewOIDCProvider(context.Background(), cfg.Identity)
	if err != nil {
		return nil, err
	}

	authService := auth.NewService(db.Users(), redisClient, jwtService, provider, taskQueue, cfg.Auth)

	backendClient := backend.NewClient(cfg.Backend)

	store, err := state.NewStore(backendClient, cfg.Backend)
	if err != nil {
		return nil, err
	}
	store.UsePreprocessor(image.NewProcessor())

	if cfg.AWS.Bucket != "" {
		archive, err := aws.NewExportArchive(context.Background(), cfg.AWS)
		if err != nil {
			return nil, err
		}
		// localstack-specific config (buckets are not managed by app in prod)
		if cfg.AWS.EndpointURL != "" {
			if err := archive.CreateBucket(context.Background()); err != nil {
				logging.Info("S3 bucket creation attempted", "bucket", cfg.AWS.Bucket, "result", err)
			}
		}
		store.UseArchiver(archive)
	}

	emailService, err := aws.NewEmailService(context.Background(), cfg.AWS)
	if err != nil {
		return nil, err
	}

	worker := queue.NewWorker(&cfg.Redis, emailService, cfg.Server.ConsoleURL)

	server := api.NewServer(authService, store, backendClient, db, redisClient, &cfg)

	logging.Info("Connected to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port)

	return &Container{
		Config:      &cfg,
		Database:    db,
		Queue:       taskQueue,
		RedisClient: redisClient,
		AuthService: authService,
		Backend:     backendClient,
		Store:       store,
		Server:      server,
		Worker:      worker,
	}, nil
}

func (c *Container) Cleanup() {
	if c.Queue != nil {
		c.Queue.Close()
		logging.Info("Queue client closed")
	}
	if c.Worker != nil {
		c.Worker.Close()
		logging.Info("Worker closed")
	}
	if c.RedisClient != nil {
		c.RedisClient.Close()
		logging.Info("Redis client closed")
	}
	if c.Database != nil {
		c.Database.Close()
		logging.Info("Database connection closed")
	}
}
