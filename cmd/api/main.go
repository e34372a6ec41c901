package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	mongoadapter "github.com/robertarktes/aircnc-server/internal/adapters/mongo"
	"github.com/robertarktes/aircnc-server/internal/adapters/rabbit"
	redisadapter "github.com/robertarktes/aircnc-server/internal/adapters/redis"
	"github.com/robertarktes/aircnc-server/internal/adapters/smtp"
	"github.com/robertarktes/aircnc-server/internal/adapters/stripe"
	"github.com/robertarktes/aircnc-server/internal/auth"
	"github.com/robertarktes/aircnc-server/internal/booking"
	"github.com/robertarktes/aircnc-server/internal/config"
	httphandler "github.com/robertarktes/aircnc-server/internal/http"
	"github.com/robertarktes/aircnc-server/internal/notify"
	"github.com/robertarktes/aircnc-server/internal/observability"
	"github.com/robertarktes/aircnc-server/internal/payment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "aircnc-api")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger(cfg.LogLevel)
	observability.InitMetrics()

	store, err := mongoadapter.Connect(context.Background(), cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer store.Close(context.Background())
	if err := store.EnsureIndexes(context.Background()); err != nil {
		logger.WithError(err).Warn("failed to ensure indexes")
	}

	var redisClient *redisclient.Client
	if cfg.RedisAddr != "" {
		redisClient = redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}
	roomCache := redisadapter.NewRoomCache(redisClient, cfg.RoomCacheTTL)

	mailer := smtp.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.MailUser, cfg.MailPass)
	dispatcher := notify.NewDispatcher(mailer, logger)

	stripeClient := stripe.NewClient(cfg.PaymentSecretKey)

	opts := []booking.Option{booking.WithHostFilter(cfg.HostBookingsFilter)}
	if cfg.RabbitURL != "" {
		rabbitConn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer rabbitConn.Close()
		rabbitPub, err := rabbit.NewPublisher(rabbitConn)
		if err != nil {
			log.Fatalf("failed to create publisher: %v", err)
		}
		defer rabbitPub.Close()
		opts = append(opts, booking.WithEvents(rabbitPub))
	}
	if cfg.VerifyTransactions {
		if redisClient == nil {
			log.Fatal("VERIFY_TRANSACTIONS requires REDIS_ADDR")
		}
		opts = append(opts, booking.WithVerification(stripeClient, redisadapter.NewTransactionLedger(redisClient)))
	}
	bookings := booking.NewService(store.Bookings, dispatcher, logger, opts...)

	handlers := httphandler.NewHandlers(httphandler.Deps{
		Users:     store.Users,
		Rooms:     store.Rooms,
		RoomCache: roomCache,
		Bookings:  bookings,
		Payments:  payment.NewService(stripeClient, logger),
		Issuer:    auth.NewIssuer(cfg.TokenSecret, cfg.TokenTTL),
		Verifier:  auth.NewVerifier(cfg.TokenSecret),
		Ready:     store,
	})

	r := httphandler.SetupRouter(handlers, logger, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("AirCNC is running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server shutdown")
	}
	if err := dispatcher.Wait(ctx); err != nil {
		logger.WithError(err).Warn("pending notifications abandoned")
	}
	logger.Info("Server exiting")
}
