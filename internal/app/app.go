package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"talentvault_backend/internal/auth"
	"talentvault_backend/internal/config"
	"talentvault_backend/internal/handlers"
	"talentvault_backend/internal/logger"
	"talentvault_backend/internal/models"
	"talentvault_backend/internal/repositories"
	"talentvault_backend/internal/services"
	"talentvault_backend/internal/utils"
	"talentvault_backend/ws"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := Migrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}
	logger.Info("Database connected")

	if err := seedFirstAdmin(gormDB); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter, liveRouter := SetupRouter(cfg, gormDB)

	startCleanupJob(gormDB, cfg)
	startRedisBridge(cfg, liveRouter)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// Migrate creates the schema. Kept separate so tests can run it against
// sqlite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.Broadcast{},
	)
}

// SetupRouter wires repositories, services, handlers and the live hub, and
// returns the gin engine plus the live event router (so callers can attach
// the redis bridge).
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, *ws.Router) {
	registerValidations()

	userRepo := repositories.NewUserRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	broadcastRepo := repositories.NewBroadcastRepository(gormDB)

	wsManager := ws.NewManager(cfg.Live.SendBufferSize)
	liveRouter := ws.NewRouter(wsManager)

	var emailSender services.EmailSender
	if cfg.Email.Enabled {
		emailSender = utils.NewEmailSender(cfg)
	}

	authService := services.NewAuthService(userRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo)
	broadcastService := services.NewBroadcastService(broadcastRepo, notificationRepo, userRepo, liveRouter, emailSender)

	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, authService)
	notificationHandler := handlers.NewNotificationHandler(base, notificationService)
	broadcastHandler := handlers.NewBroadcastHandler(base, broadcastService)
	wsHandler := ws.NewHandler(wsManager)

	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())

	api := ginRouter.Group("/api/v1")
	authHandler.RegisterRoutes(api)
	notificationHandler.RegisterRoutes(api)
	broadcastHandler.RegisterRoutes(api)
	api.GET("/ws", wsHandler.ServeWS)

	return ginRouter, liveRouter
}

// registerValidations adds the platformrole binding rule used by request
// DTOs that carry a role field.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("platformrole", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
}

// startCleanupJob purges old read notifications nightly.
func startCleanupJob(gormDB *gorm.DB, cfg *config.Config) {
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	days := cfg.Live.CleanupAfterDays

	c := cron.New()
	_, err := c.AddFunc("0 3 * * *", func() {
		if err := notificationRepo.CleanOldNotifications(days); err != nil {
			logger.Error("notification cleanup failed", "error", err)
			return
		}
		logger.Info("notification cleanup completed", "older_than_days", days)
	})
	if err != nil {
		logger.Fatal("Failed to schedule cleanup job", "error", err)
	}
	c.Start()
}

// startRedisBridge attaches cross-instance fan-out when redis is configured.
func startRedisBridge(cfg *config.Config, liveRouter *ws.Router) {
	if cfg.Redis.Addr == "" {
		logger.Info("Redis not configured, live events are single-instance")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	bridge := ws.NewRedisBridge(client, cfg.Redis.Channel)
	liveRouter.WithBridge(bridge)
	go bridge.Run(context.Background())
}

// seedFirstAdmin creates a super admin account on first boot so the
// broadcast tooling is reachable.
func seedFirstAdmin(gormDB *gorm.DB) error {
	var count int64
	if err := gormDB.Model(&models.User{}).Where("role = ?", models.UserRoleSuperAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword("changeme123")
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        "admin@talentvault.io",
		DisplayName:  "Platform Admin",
		PasswordHash: hash,
		Role:         models.UserRoleSuperAdmin,
		Status:       models.UserStatusActive,
	}
	if err := gormDB.Create(admin).Error; err != nil {
		return err
	}
	logger.Warn("Seeded first super admin, change the default password", "email", admin.Email)
	return nil
}
