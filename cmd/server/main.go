package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/dmarkov/contenthub/internal/config"
	"github.com/dmarkov/contenthub/internal/db"
	"github.com/dmarkov/contenthub/internal/es"
	"github.com/dmarkov/contenthub/internal/httpserver"
	"github.com/dmarkov/contenthub/internal/logging"
	"github.com/dmarkov/contenthub/internal/middleware"
	"github.com/dmarkov/contenthub/internal/mykafka"
	"github.com/dmarkov/contenthub/internal/repo"
	"github.com/dmarkov/contenthub/internal/service"
)

func main() {
	configuration, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(configuration.LogLevel)

	database, err := db.Open(context.Background(), configuration.DatabaseDSN())
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	var producer *mykafka.Producer
	if configuration.KafkaAddress != "" {
		producer, err = mykafka.NewProducer(
			[]string{configuration.KafkaAddress},
			[]string{"user_events", "article_events"},
		)
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
	} else {
		logger.Warn("KAFKA_ADDRESS is not set, event publishing disabled")
	}

	var esClient *elasticsearch.Client
	if configuration.ESURL != "" {
		esClient, err = es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	} else {
		logger.Warn("ES_URL is not set, article search disabled")
	}

	users := &repo.UserRepo{DB: database, BcryptCost: configuration.BcryptCost}
	articles := &repo.ArticleRepo{DB: database}

	authSvc := &service.AuthService{
		Users:         users,
		Producer:      producer,
		AccessSecret:  configuration.AccessSecret,
		RefreshSecret: configuration.RefreshSecret,
		AccessTTL:     configuration.AccessTTL,
		RefreshTTL:    configuration.RefreshTTL,
	}
	articleSvc := &service.ArticleService{
		Articles: articles,
		Producer: producer,
		ES:       esClient,
		Index:    "articles",
	}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID(), echomw.CORS())
	e.Use(middleware.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:              database,
		AuthHandler:     &httpserver.AuthHTTP{Svc: authSvc},
		ArticleHandler:  &httpserver.ArticleHTTP{Svc: articleSvc},
		AuthMW:          middleware.NewAuth(users, configuration.AccessSecret),
		LoginRateWindow: configuration.LoginRateWindow,
		LoginRateLimit:  configuration.LoginRateLimit,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", configuration.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "port", configuration.ServerPort, "env", configuration.Env)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	} else {
		logger.Error("db() error", "error", err)
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
