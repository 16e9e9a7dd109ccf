package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/read1store/backoffice/internal/config"
	"github.com/read1store/backoffice/internal/es"
	"github.com/read1store/backoffice/internal/httpserver"
	"github.com/read1store/backoffice/internal/mykafka"
	"github.com/read1store/backoffice/internal/repo"
	"github.com/read1store/backoffice/internal/service"
	pkgdb "github.com/read1store/backoffice/pkg/db"
	"github.com/read1store/backoffice/pkg/logging"
	loggingmw "github.com/read1store/backoffice/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	gormRepo := &repo.GormRepo{DB: db}

	var events service.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := mykafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		events = producer
	} else {
		logger.Warn("kafka disabled: KAFKA_BROKERS not set")
	}

	var indexer *es.Indexer
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		indexer = &es.Indexer{Client: esClient, Index: cfg.ESIndex}
	} else {
		logger.Warn("search disabled: ES_URL not set")
	}

	catalogSvc := &service.CatalogService{Repo: gormRepo}
	if indexer != nil {
		catalogSvc.Index = indexer
	}
	orderSvc := &service.OrderService{Repo: gormRepo, Events: events}

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	deps := &httpserver.Deps{
		ProductHandler:  &httpserver.ProductHTTP{Svc: catalogSvc},
		CategoryHandler: &httpserver.CategoryHTTP{Svc: catalogSvc},
		OrderHandler:    &httpserver.OrderHTTP{Svc: orderSvc},
		AuthHandler:     &httpserver.AuthHTTP{Repo: gormRepo, JWTSecret: cfg.JWTAccessSecret},
		JWTSecret:       cfg.JWTAccessSecret,
	}
	if indexer != nil {
		deps.SearchHandler = &httpserver.SearchHTTP{Searcher: indexer}
	}
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("backoffice listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("backoffice stopped")
}
