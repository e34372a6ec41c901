package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	mongoadapter "github.com/robertarktes/aircnc-server/internal/adapters/mongo"
	"github.com/robertarktes/aircnc-server/internal/adapters/rabbit"
	"github.com/robertarktes/aircnc-server/internal/audit"
	"github.com/robertarktes/aircnc-server/internal/config"
	"github.com/robertarktes/aircnc-server/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL is required")
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg, "aircnc-audit-worker")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger(cfg.LogLevel)

	store, err := mongoadapter.Connect(context.Background(), cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer store.Close(context.Background())

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	consumer, err := rabbit.NewConsumer(conn, rabbit.AuditQueue, rabbit.BookingTopic)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	recorder := audit.NewRecorder(store.Audit, logger)
	done := make(chan struct{})
	go func() {
		recorder.Run(ctx, deliveries)
		close(done)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-done:
		logger.Warn("delivery channel closed")
	}
	logger.Info("Shutdown audit worker")
}
