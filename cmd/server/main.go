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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/storekeeper/b2b_orders/internal/cart"
	"github.com/storekeeper/b2b_orders/internal/config"
	"github.com/storekeeper/b2b_orders/internal/es"
	"github.com/storekeeper/b2b_orders/internal/httpserver"
	"github.com/storekeeper/b2b_orders/internal/logging"
	loggingmw "github.com/storekeeper/b2b_orders/internal/middleware/logging"
	"github.com/storekeeper/b2b_orders/internal/mykafka"
	"github.com/storekeeper/b2b_orders/internal/notifier"
	"github.com/storekeeper/b2b_orders/internal/repo"
	"github.com/storekeeper/b2b_orders/internal/service"
)

const (
	orderEventsTopic = "order_events"
	orderIndex       = "orders"
	outboxSize       = 256
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(context.Background(), configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS}, orderEventsTopic)

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: configuration.REDIS_ADDR})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("redis ping error: %v", err)
	}

	emailClient := notifier.NewClient(configuration.EMAIL_URL)
	outbox := notifier.NewOutbox(emailClient, outboxSize, logger)

	cartStore := cart.NewRedisStore(redisClient)
	orderSvc := &service.OrderService{
		Repo:   repo.NewOrderRepo(db),
		Cart:   cartStore,
		Outbox: outbox,
	}

	jwtSecret := []byte(configuration.JWT_SECRET)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		OrderHandler: &httpserver.OrderHandler{
			Svc:       orderSvc,
			Producer:  prod,
			ES:        esClient,
			Index:     orderIndex,
			JWTSecret: jwtSecret,
		},
		CartHandler: &httpserver.CartHandler{
			Cart:      cartStore,
			Svc:       orderSvc,
			Producer:  prod,
			ES:        esClient,
			Index:     orderIndex,
			JWTSecret: jwtSecret,
		},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", configuration.SERVER_PORT),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	outbox.Close()

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	log.Println("shutdown complete")
}
