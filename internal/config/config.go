// Package config loads service configuration from .env and the process environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/georgemunganga/storefront-backend/internal/money"
)

// Config holds all storefront runtime configuration.
type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string

	RedisURL string
	CartTTL  time.Duration

	JWTSecret         string
	AdminCheckTimeout time.Duration

	KafkaBrokers []string
	OrderTopic   string

	FreeShippingThreshold money.Cents
	FlatShippingRate      money.Cents
	CheckoutDelay         time.Duration

	// SettingsFile optionally points at a YAML file seeding the site settings.
	SettingsFile string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:                  "8080",
		LogLevel:              "info",
		CartTTL:               30 * 24 * time.Hour,
		AdminCheckTimeout:     5 * time.Second,
		OrderTopic:            "orders.placed",
		FreeShippingThreshold: 5000,
		FlatShippingRate:      599,
		CheckoutDelay:         2 * time.Second,
	}
}

// Load reads .env (when present) and overlays environment variables on Default.
// The returned bool reports whether a .env file was loaded.
func Load() (Config, bool, error) {
	loaded := godotenv.Load() == nil
	cfg, err := FromEnv(os.Getenv)
	return cfg, loaded, err
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("APP_PORT"); v != "" {
		cfg.Port = v
	}
	cfg.DatabaseURL = getenv("DATABASE_URL")
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.RedisURL = getenv("REDIS_URL")
	cfg.JWTSecret = getenv("JWT_SECRET")
	cfg.SettingsFile = getenv("SETTINGS_FILE")
	if v := getenv("KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if v := getenv("KAFKA_ORDER_TOPIC"); v != "" {
		cfg.OrderTopic = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CART_TTL", &cfg.CartTTL},
		{"ADMIN_CHECK_TIMEOUT", &cfg.AdminCheckTimeout},
		{"CHECKOUT_DELAY", &cfg.CheckoutDelay},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	amounts := []struct {
		key string
		dst *money.Cents
	}{
		{"FREE_SHIPPING_THRESHOLD", &cfg.FreeShippingThreshold},
		{"FLAT_SHIPPING_RATE", &cfg.FlatShippingRate},
	}
	for _, a := range amounts {
		v := getenv(a.key)
		if v == "" {
			continue
		}
		parsed, err := money.Parse(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", a.key, err)
		}
		if parsed < 0 {
			return cfg, fmt.Errorf("invalid %s: must not be negative", a.key)
		}
		*a.dst = parsed
	}

	return cfg, nil
}

// LoadSettingsSeed reads a YAML document of site settings keyed by section name.
func LoadSettingsSeed(path string) (map[string]map[string]interface{}, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	seed := map[string]map[string]interface{}{}
	if err := yaml.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	return seed, nil
}
