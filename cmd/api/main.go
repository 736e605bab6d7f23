package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dexday077/kep-orders/internal/config"
	"github.com/dexday077/kep-orders/internal/httpx"
	kafkax "github.com/dexday077/kep-orders/internal/kafka"
	"github.com/dexday077/kep-orders/internal/notify"
	"github.com/dexday077/kep-orders/internal/orders"
	"github.com/dexday077/kep-orders/internal/payments"
	"github.com/dexday077/kep-orders/internal/postgres"
	"github.com/dexday077/kep-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: order lifecycle events + notification requests
	prodEvents := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	prodEvents.Start(ctx)
	prodNotify := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicNotifications, 1024)
	prodNotify.Start(ctx)

	// Repos & handler
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Store:    &orders.Repo{DB: db},
		Payments: &payments.Repo{DB: db},
		Producer: prodEvents,
		Notify:   &notify.Notifier{Producer: prodNotify, Service: cfg.ServiceName},
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.APIAddr, Handler: router}

	go func() {
		log.Printf("order API listening at %s", cfg.APIAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prodEvents.Close()
	prodNotify.Close()
	cancel()
	prodEvents.WaitClosed()
	prodNotify.WaitClosed()
}
