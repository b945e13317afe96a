package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sociomanager/sociomanager/internal/config"
	"github.com/sociomanager/sociomanager/internal/geelark"
	"github.com/sociomanager/sociomanager/internal/service"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Geelark    *geelark.Client
	Accounts   *service.AccountService
	Phones     *service.PhoneService
	Ledger     *service.Ledger
	Dispatcher *service.Dispatcher
	Reconciler *service.Reconciler
	Scheduler  *service.Scheduler
	Auth       *service.AuthService
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	client := geelark.NewClient(&cfg.Geelark, nil, logger)
	encoder := geelark.NewEncoder(nil)
	ledger := service.NewLedger(db, logger)
	accounts := service.NewAccountService(db, logger)
	phones := service.NewPhoneService(db, client, logger)
	dispatcher := service.NewDispatcher(encoder, client, ledger, logger)
	reconciler := service.NewReconciler(ledger, client, logger)
	scheduler := service.NewScheduler(&cfg.Scheduler, logger, reconciler, dispatcher, accounts)
	auth := service.NewAuthService(&cfg.Auth, logger)

	// Create router
	router := gin.New()

	srv := &Server{
		Config:     cfg,
		DB:         db,
		Router:     router,
		Logger:     logger,
		Geelark:    client,
		Accounts:   accounts,
		Phones:     phones,
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Reconciler: reconciler,
		Scheduler:  scheduler,
		Auth:       auth,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	api.Use(s.Auth.Middleware())
	{
		api.POST("/auth/login", s.handleAuthLogin)

		accounts := api.Group("/accounts")
		{
			accounts.GET("", s.handleListAccounts)
			accounts.POST("", s.handleCreateAccounts)
			accounts.GET("/dropdown", s.handleAccountsDropdown)
			accounts.PUT("/:id", s.handleUpdateAccount)
			accounts.DELETE("/:id", s.handleDeleteAccount)
			accounts.POST("/:id/login", s.handleLoginAccount)
		}

		phones := api.Group("/phones")
		{
			phones.GET("", s.handleListPhones)
			phones.GET("/dropdown", s.handlePhonesDropdown)
			phones.POST("/refresh", s.handleRefreshPhones)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.GET("/live", s.handleQueryLiveTasks)
			tasks.POST("/:taskId/cancel", s.handleCancelTask)
			tasks.POST("/:taskId/retry", s.handleRetryTask)
		}

		posts := api.Group("/posts")
		{
			posts.GET("", s.handleListPosts)
			posts.POST("", s.handleSchedulePost)
		}
	}
}

func (s *Server) Start(ctx context.Context) error {
	// Start background schedules
	if err := s.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop scheduler first
	s.Scheduler.Stop()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
