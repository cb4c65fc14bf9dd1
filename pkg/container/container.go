package container

import (
	"context"
	"fmt"
	"time"

	"library-backend/internal/config"
	infraCache "library-backend/internal/infrastructure/cache"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/infrastructure/metrics"
	"library-backend/internal/infrastructure/queue"
	"library-backend/pkg/cache"
	"library-backend/pkg/jwt"
	"library-backend/pkg/logger"

	bookHandler "library-backend/internal/domains/book/handler"
	bookRepo "library-backend/internal/domains/book/repository"
	bookService "library-backend/internal/domains/book/service"

	invHandler "library-backend/internal/domains/inventory/handler"
	invJob "library-backend/internal/domains/inventory/job"
	invRepo "library-backend/internal/domains/inventory/repository"
	invService "library-backend/internal/domains/inventory/service"

	borrowHandler "library-backend/internal/domains/borrowing/handler"
	borrowJob "library-backend/internal/domains/borrowing/job"
	borrowRepo "library-backend/internal/domains/borrowing/repository"
	borrowService "library-backend/internal/domains/borrowing/service"

	"library-backend/internal/domains/user"
	userHandler "library-backend/internal/domains/user/handler"
	userRepo "library-backend/internal/domains/user/repository"
	userService "library-backend/internal/domains/user/service"

	"github.com/hibiken/asynq"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa toàn bộ dependencies dùng chung cho cmd/api và cmd/worker
type Container struct {
	// INFRASTRUCTURE
	Config      *config.Config
	DB          *database.PostgresDB
	Redis       *infraCache.RedisClient
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	Metrics     *metrics.Metrics
	AsynqClient *asynq.Client
	RedisOpt    asynq.RedisClientOpt

	// REPOSITORIES
	BookRepo   bookRepo.RepositoryInterface
	LedgerRepo invRepo.LedgerInterface
	BorrowRepo borrowRepo.RepositoryInterface
	UserRepo   user.Repository

	// SERVICES
	BookService      bookService.ServiceInterface
	InventoryService invService.ServiceInterface
	BorrowService    borrowService.ServiceInterface
	Sweeper          borrowService.SweeperInterface
	UserService      user.Service

	// HANDLERS (HTTP)
	BookHandler      *bookHandler.Handler
	InventoryHandler *invHandler.Handler
	BorrowHandler    *borrowHandler.Handler
	UserHandler      *userHandler.UserHandler

	// JOB HANDLERS (asynq)
	SweepOverdueJob        *borrowJob.SweepOverdueHandler
	AvailabilityChangedJob *invJob.AvailabilityChangedHandler
}

// ========================================
// CONSTRUCTOR
// ========================================

// NewContainer: config -> infrastructure -> repositories -> services -> handlers
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	logger.Info("Config loaded", map[string]interface{}{"environment": cfg.App.Environment})

	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("Container initialized", nil)
	return c, nil
}

// ========================================
// STEP 1: INFRASTRUCTURE
// ========================================

func (c *Container) initInfrastructure() error {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	c.Redis = infraCache.NewRedisClient(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Cache = infraCache.NewRedisCache(c.Redis.Client, "library")

	c.RedisOpt = asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
	c.AsynqClient = asynq.NewClient(c.RedisOpt)

	c.JWTManager = jwt.NewManager(
		c.Config.JWT.Secret,
		c.Config.JWT.Issuer,
		time.Duration(c.Config.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(c.Config.JWT.RefreshTokenExpiry)*time.Hour,
	)
	c.Metrics = metrics.New()
	return nil
}

// ========================================
// STEP 2: REPOSITORIES
// ========================================

func (c *Container) initRepositories() {
	c.BookRepo = bookRepo.NewPostgresRepository(c.DB.Pool)
	c.LedgerRepo = invRepo.NewLedgerRepository(c.DB.Pool)
	c.BorrowRepo = borrowRepo.NewPostgresRepository(c.DB.Pool)
	c.UserRepo = userRepo.NewPostgresRepository(c.DB.Pool)
}

// ========================================
// STEP 3: SERVICES
// ========================================

func (c *Container) initServices() {
	loc := c.Config.Borrowing.Location()

	c.BookService = bookService.NewService(c.BookRepo, c.Cache, c.Config.Borrowing.BookCacheTTL)
	c.InventoryService = invService.NewService(c.LedgerRepo)

	uow := borrowService.NewPostgresUnitOfWork(c.DB.Pool, c.BookRepo, c.LedgerRepo, c.BorrowRepo)
	c.BorrowService = borrowService.NewService(
		uow,
		c.BorrowRepo,
		queue.NewPublisher(c.AsynqClient),
		c.Metrics,
		borrowService.Config{MaxLoanDays: c.Config.Borrowing.MaxLoanDays, Location: loc},
	)
	c.Sweeper = borrowService.NewSweeper(c.BorrowRepo, loc, c.Metrics)

	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager, c.Cache, c.BorrowService)
}

// ========================================
// STEP 4: HANDLERS
// ========================================

func (c *Container) initHandlers() {
	c.BookHandler = bookHandler.NewHandler(c.BookService)
	c.InventoryHandler = invHandler.NewHandler(c.InventoryService)
	c.BorrowHandler = borrowHandler.NewHandler(c.BorrowService, c.Sweeper)
	c.UserHandler = userHandler.NewUserHandler(c.UserService, c.Config.App.Environment == "production")

	c.SweepOverdueJob = borrowJob.NewSweepOverdueHandler(c.Sweeper)
	c.AvailabilityChangedJob = invJob.NewAvailabilityChangedHandler(c.LedgerRepo, c.BookService)
}

// Cleanup đóng resources theo thứ tự ngược lại. Gọi được với container dở dang.
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			logger.Warn("Failed to close asynq client", map[string]interface{}{"error": err.Error()})
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Warn("Failed to close redis", map[string]interface{}{"error": err.Error()})
		}
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
	logger.Info("Container cleanup completed", nil)
}
