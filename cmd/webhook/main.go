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
	"github.com/dexday077/kep-orders/internal/webhooks"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prodNotify := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicNotifications, 1024)
	prodNotify.Start(ctx)
	prodEvents := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderUpdated, 1024)
	prodEvents.Start(ctx)

	router := httpx.NewRouter()
	wh := &webhooks.Handler{
		Payments:     &payments.Repo{DB: db},
		Orders:       &orders.Repo{DB: db},
		Reservations: &orders.ReservationRepo{DB: db},
		DeadLetters:  &webhooks.DeadLetterRepo{DB: db},
		Notify:       &notify.Notifier{Producer: prodNotify, Service: cfg.ServiceName + "-webhook"},
		Events:       prodEvents,
		Service:      cfg.ServiceName + "-webhook",
		Redis:        rdb,
		Secrets:      cfg.WebhookSecrets,
	}
	wh.Register(router)

	srv := &http.Server{Addr: cfg.WebhookAddr, Handler: router}

	go func() {
		log.Printf("payment webhook listening at %s", cfg.WebhookAddr)
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
	prodNotify.Close()
	prodEvents.Close()
	cancel()
	prodNotify.WaitClosed()
	prodEvents.WaitClosed()
}
