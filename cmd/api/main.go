package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/dkurilov/persona-service/internal/cache"
	"github.com/dkurilov/persona-service/internal/config"
	"github.com/dkurilov/persona-service/internal/handler"
	"github.com/dkurilov/persona-service/internal/integrations/rates"
	"github.com/dkurilov/persona-service/internal/middleware"
	"github.com/dkurilov/persona-service/internal/notify"
	"github.com/dkurilov/persona-service/internal/repository"
	"github.com/dkurilov/persona-service/internal/service"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Signal bundle cache: Redis when configured, in-process otherwise
	var signalCache cache.Repository
	if cfg.RedisAddr != "" {
		signalCache = cache.NewRedisCache(cfg.RedisAddr)
		logger.Infof("Using Redis signal cache at %s", cfg.RedisAddr)
	} else {
		signalCache = cache.NewMemoryCache()
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	ratesClient := rates.NewClient(cfg, logger)
	var notifier service.Notifier
	if cfg.SMTPHost != "" {
		notifier = notify.NewSender(cfg, logger)
	}
	svc := service.NewService(repo, signalCache, ratesClient, notifier, logger, cfg)
	h := handler.NewHandler(svc)

	// Nightly persona reclassification
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReclassCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		svc.ReclassifyAll(ctx)
	}); err != nil {
		logger.Fatalf("Failed to schedule reclassification: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/users").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/{id}/classify", h.Classify).Methods("POST")
	authRouter.HandleFunc("/{id}/persona", h.GetPersona).Methods("GET")
	authRouter.HandleFunc("/{id}/persona/timeline", h.GetTimeline).Methods("GET")
	authRouter.HandleFunc("/{id}/debt-plan", h.GetDebtPlan).Methods("GET")
	authRouter.HandleFunc("/{id}/recommendations", h.GetRecommendations).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
