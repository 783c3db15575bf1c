package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagecraft/pagecraft-backend/internal/config"
	"github.com/pagecraft/pagecraft-backend/internal/handler"
	"github.com/pagecraft/pagecraft-backend/internal/middleware"
	"github.com/pagecraft/pagecraft-backend/internal/repository"
	"github.com/pagecraft/pagecraft-backend/internal/routes"
	"github.com/pagecraft/pagecraft-backend/internal/service"
	pkgcache "github.com/pagecraft/pagecraft-backend/pkg/cache"
	"github.com/pagecraft/pagecraft-backend/pkg/jwt"
	pkglogger "github.com/pagecraft/pagecraft-backend/pkg/logger"
	pkgredis "github.com/pagecraft/pagecraft-backend/pkg/redis"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.Init(env)
	pkglogger.Infof("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	configPath := getConfigPath()
	cfg := config.LoadOrDefault(configPath)
	pkglogger.Infof("Loaded config from: %s", configPath)

	db, err := initDB(cfg)
	if err != nil {
		pkglogger.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Infof("Connected to MySQL")

	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.Infof("Warning: Failed to connect to Redis: %v (continuing without Redis)", err)
		redisClient = nil
	} else {
		pkglogger.Infof("Connected to Redis")
	}
	cacheService := pkgcache.NewService(redisClient)

	jwtManager := jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)

	uow := repository.NewUnitOfWork(db)
	gate := middleware.NewLevelGate(cfg.Permissions)
	registry := service.NewStaticRegistry(cfg.Modules.Types)

	snapshotSvc := service.NewSnapshotService(uow, cacheService)
	promotionSvc := service.NewPromotionService(uow, snapshotSvc, gate, cacheService, service.NoopNotifier{})
	moduleSvc := service.NewModuleService(uow, snapshotSvc, gate, registry, cacheService)
	postSvc := service.NewPostService(uow, snapshotSvc, gate, cacheService)

	postHandler := handler.NewPostHandler(postSvc, promotionSvc)
	moduleHandler := handler.NewModuleHandler(moduleSvc)
	revisionHandler := handler.NewRevisionHandler(snapshotSvc)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	routes.Setup(router, postHandler, moduleHandler, revisionHandler, jwtManager, cfg)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	pkglogger.Infof("Listening on %s", addr)
	if err := router.Run(addr); err != nil {
		pkglogger.Fatalf("Server stopped: %v", err)
	}
}

// initDB opens the MySQL connection and tunes the pool
func initDB(cfg *config.Config) (*gorm.DB, error) {
	logMode := gormlogger.Warn
	if cfg.IsDevelopment() {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
