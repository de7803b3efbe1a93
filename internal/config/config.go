package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/corray333/backend-labs/delivery/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MustInit loads .env and config.yaml and installs the default logger.
func MustInit() {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	SetDefaults()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/delivery-svc")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()
}

// SetDefaults registers the values used when config.yaml omits a key.
func SetDefaults() {
	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("postgres.migrations_path", "./migrations")
	viper.SetDefault("rabbitmq.exchange", "delivery.orders")
	viper.SetDefault("rabbitmq.outbox.poll_interval_seconds", 10)
	viper.SetDefault("rabbitmq.outbox.batch_size", 100)
	viper.SetDefault("rabbitmq.outbox.retry_interval_seconds", 30)
	viper.SetDefault("rabbitmq.outbox.max_retries", 5)
	viper.SetDefault("orders.page_size", 25)
	viper.SetDefault("pubsub.buffer_size", 100)
	viper.SetDefault("graphql.max_depth", 10)
	viper.SetDefault("otel.service_name", "delivery-svc")
	viper.SetDefault("log.level", "debug")
}

// SetupLogger installs the JSON logger at the configured level.
func SetupLogger() {
	handler := logger.NewHandler(&slog.HandlerOptions{
		Level:     parseLevel(viper.GetString("log.level")),
		AddSource: true,
	})
	log := slog.New(handler)
	slog.SetDefault(log)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
