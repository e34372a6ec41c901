package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	MongoURI      string
	MongoDatabase string

	RedisAddr    string
	RabbitURL    string
	OTLPEndpoint string
	OTLPInsecure bool
	TraceRatio   float64

	AllowedOrigins []string

	TokenSecret string
	TokenTTL    time.Duration

	PaymentSecretKey string

	MailUser string
	MailPass string
	SMTPHost string
	SMTPPort int

	HostBookingsFilter bool
	VerifyTransactions bool
	RoomCacheTTL       time.Duration
	ShutdownTimeout    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	smtpPort, err := intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	hostFilter, err := boolEnv("HOST_BOOKINGS_FILTER", true)
	if err != nil {
		return nil, err
	}
	verifyTx, err := boolEnv("VERIFY_TRANSACTIONS", false)
	if err != nil {
		return nil, err
	}
	otlpInsecure, err := boolEnv("OTEL_EXPORTER_OTLP_INSECURE", true)
	if err != nil {
		return nil, err
	}
	traceRatio, err := floatEnv("OTEL_TRACES_SAMPLER_ARG", 1)
	if err != nil {
		return nil, err
	}
	if traceRatio < 0 || traceRatio > 1 {
		return nil, errors.Newf("OTEL_TRACES_SAMPLER_ARG must be within [0,1], got %v", traceRatio)
	}

	return &Config{
		Port:               stringEnv("PORT", "5000"),
		LogLevel:           stringEnv("LOG_LEVEL", "info"),
		MongoURI:           mongoURI(),
		MongoDatabase:      stringEnv("MONGO_DATABASE", "aircncDb"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RabbitURL:          os.Getenv("RABBIT_URL"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:       otlpInsecure,
		TraceRatio:         traceRatio,
		AllowedOrigins:     listEnv("ALLOWED_ORIGINS", []string{"*"}),
		TokenSecret:        os.Getenv("ACCESS_TOKEN_SECRET"),
		TokenTTL:           durationEnv("TOKEN_TTL", time.Hour),
		PaymentSecretKey:   os.Getenv("PAYMENT_SECRET_KEY"),
		MailUser:           os.Getenv("EMAIL"),
		MailPass:           os.Getenv("PASS"),
		SMTPHost:           stringEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           smtpPort,
		HostBookingsFilter: hostFilter,
		VerifyTransactions: verifyTx,
		RoomCacheTTL:       durationEnv("ROOM_CACHE_TTL", 30*time.Second),
		ShutdownTimeout:    durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
	}, nil
}

// mongoURI prefers MONGO_URI and otherwise assembles an Atlas SRV URI from
// DB_USER, DB_PASS and DB_CLUSTER.
func mongoURI() string {
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		return uri
	}
	user, pass := os.Getenv("DB_USER"), os.Getenv("DB_PASS")
	if user == "" {
		return "mongodb://localhost:27017"
	}
	cluster := stringEnv("DB_CLUSTER", "localhost")
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority", user, pass, cluster)
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) time.Duration {
	d, _ := time.ParseDuration(os.Getenv(key))
	if d == 0 {
		return def
	}
	return d
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Newf("invalid int for %s: %q", key, v)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Newf("invalid bool for %s: %q", key, v)
	}
	return b, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Newf("invalid float for %s: %q", key, v)
	}
	return f, nil
}

// listEnv splits a comma-separated value, dropping blanks.
func listEnv(key string, def []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
