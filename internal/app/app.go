package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"taskhub/internal/config"
	"taskhub/internal/handlers"
	"taskhub/internal/repositories"
	"taskhub/internal/repositories/inmemory"
	"taskhub/internal/routes"
	"taskhub/internal/services"
	"taskhub/internal/worker"
)

// Run wires the whole service together and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// === Repos ===
	var (
		taskRepo  repositories.TaskRepository
		userRepo  repositories.UserRepository
		resetRepo repositories.PasswordResetRepository
	)

	db, dbErr := openDB(ctx, cfg)
	if dbErr != nil {
		// degraded mode, useful for local development without Postgres
		log.Printf("[app] database unavailable, using in-memory storage: %v", dbErr)
		taskRepo = inmemory.NewTaskStorage()
		userRepo = inmemory.NewUserStorage()
		resetRepo = inmemory.NewResetStorage()
	} else {
		defer func() {
			if err := db.Close(); err != nil {
				log.Printf("[app] closing database: %v", err)
			}
		}()
		if err := repositories.Migrate(cfg.Database.DSN, cfg.Database.MigrationsPath); err != nil {
			return err
		}
		log.Printf("[app] migrations applied")
		taskRepo = repositories.NewTaskRepository(db)
		userRepo = repositories.NewUserRepository(db)
		resetRepo = repositories.NewPasswordResetRepository(db)
	}

	// === Services ===
	gateway := services.NewEmailGateway(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	dispatcher := worker.NewDispatcher(gateway, cfg.Notify.QueueSize, cfg.NotifyTimeout())
	go dispatcher.Start(ctx)

	authService := services.NewAuthService([]byte(cfg.Auth.JWTSecret), cfg.AccessTTL())
	userService := services.NewUserService(userRepo, authService, gateway)
	taskService := services.NewTaskService(taskRepo, userRepo, dispatcher)
	resetService := services.NewPasswordResetService(
		userRepo, resetRepo, authService, gateway,
		cfg.Email.ResetBaseURL, cfg.Email.SecurityEmail,
	)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService, resetService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	routes.SetupRoutes(router, []byte(cfg.Auth.JWTSecret), authHandler, userHandler, taskHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("[app] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Printf("[app] stopped")
	return nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("no database dsn configured")
	}
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBTimeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
