// Package config loads runtime settings from the environment and an
// optional config file.
package config

import (
	"fmt"
	"log"
	"time"

	"maplestore/internal/shipping"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the store.
type Config struct {
	AppPort string

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret     string
	TokenDuration time.Duration

	// RabbitMQURL disables order events when empty.
	RabbitMQURL      string
	RabbitMQExchange string
	RabbitMQQueue    string

	// RedisAddr disables the product listing cache when empty.
	RedisAddr      string
	CacheTTL       time.Duration
	ReceiptURL     string
	ReceiptTimeout time.Duration

	SeedDemo      bool
	AdminUsername string
	AdminPassword string
	AdminEmail    string

	Shipping shipping.RateTable
}

// Load reads the configuration. Environment variables override the config
// file named by CONFIG_FILE, which overrides the defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		log.Printf("Loaded configuration from %s", file)
	}

	cfg := &Config{
		AppPort:          v.GetString("APP_PORT"),
		DatabaseDriver:   v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenDuration:    v.GetDuration("TOKEN_DURATION"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		RabbitMQExchange: v.GetString("RABBITMQ_EXCHANGE"),
		RabbitMQQueue:    v.GetString("RABBITMQ_QUEUE"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		CacheTTL:         v.GetDuration("CACHE_TTL"),
		ReceiptURL:       v.GetString("RECEIPT_SERVICE_URL"),
		ReceiptTimeout:   v.GetDuration("RECEIPT_TIMEOUT"),
		SeedDemo:         v.GetBool("SEED_DEMO"),
		AdminUsername:    v.GetString("ADMIN_USERNAME"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
		AdminEmail:       v.GetString("ADMIN_EMAIL"),
		Shipping:         shipping.DefaultRateTable(),
	}

	if v.IsSet("shipping") {
		var table shipping.RateTable
		if err := v.UnmarshalKey("shipping", &table); err != nil {
			return nil, fmt.Errorf("failed to decode shipping rate table: %w", err)
		}
		if len(table.Rules) == 0 && table.FallbackCents == 0 {
			return nil, fmt.Errorf("shipping rate table has no rules and no fallback")
		}
		cfg.Shipping = table
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:maplestore.db?_foreign_keys=on")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("TOKEN_DURATION", 24*time.Hour)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "orders")
	v.SetDefault("RABBITMQ_QUEUE", "order-notifications")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("RECEIPT_SERVICE_URL", "http://localhost:8001")
	v.SetDefault("RECEIPT_TIMEOUT", 10*time.Second)
	v.SetDefault("SEED_DEMO", false)
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_EMAIL", "staff@maplestore.example")
}
