package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP / webhook configuration
	Port                string
	WhatsAppVerifyToken string

	// WhatsApp Cloud API configuration
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppAPIBase       string

	// OpenAI configuration
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// Catalog source configuration
	CatalogCSVURL          string
	CatalogRefreshInterval time.Duration
	CatalogMaxStale        time.Duration

	// Odoo ERP configuration (optional; CSV source is used when unset)
	OdooURL      string
	OdooDB       string
	OdooUser     string
	OdooPassword string

	// Redis session store (optional; in-memory store is used when unset)
	RedisURL string

	// Tunables
	SearchLimit       int
	MaxToolIterations int
	SessionTTL        time.Duration
	DedupTTL          time.Duration
	FuzzyThreshold    float64

	// Service configuration
	ServiceName string
}

func Load() (*Config, error) {
	cfg := &Config{
		// HTTP settings
		Port:                getEnv("PORT", "3000"),
		WhatsAppVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", ""),

		// WhatsApp Cloud API settings
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppAPIBase:       getEnv("WHATSAPP_API_BASE", "https://graph.facebook.com/v19.0"),

		// OpenAI settings
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout: getDurationEnv("OPENAI_TIMEOUT", 60*time.Second),

		// Catalog settings
		CatalogCSVURL:          getEnv("CATALOG_CSV_URL", ""),
		CatalogRefreshInterval: getDurationEnv("CATALOG_REFRESH_INTERVAL", 5*time.Minute),
		CatalogMaxStale:        getDurationEnv("CATALOG_MAX_STALE", 30*time.Minute),

		// Odoo settings
		OdooURL:      getEnv("ODOO_URL", ""),
		OdooDB:       getEnv("ODOO_DB", ""),
		OdooUser:     getEnv("ODOO_USER", ""),
		OdooPassword: getEnv("ODOO_PASSWORD", ""),

		// Redis settings
		RedisURL: getEnv("REDIS_URL", ""),

		// Tunables
		SearchLimit:       getIntEnv("SEARCH_LIMIT", 3),
		MaxToolIterations: getIntEnv("MAX_TOOL_ITERATIONS", 5),
		SessionTTL:        getDurationEnv("SESSION_TTL", 30*time.Minute),
		DedupTTL:          getDurationEnv("DEDUP_TTL", 10*time.Minute),
		FuzzyThreshold:    getFloatEnv("FUZZY_THRESHOLD", 0.4),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "bkbot"),
	}

	if cfg.WhatsAppVerifyToken == "" {
		return nil, fmt.Errorf("WHATSAPP_VERIFY_TOKEN is required")
	}
	if cfg.CatalogCSVURL == "" && cfg.OdooURL == "" {
		return nil, fmt.Errorf("either CATALOG_CSV_URL or ODOO_URL must be set")
	}

	return cfg, nil
}

// UseOdoo reports whether the ERP is configured as the catalog source.
func (c *Config) UseOdoo() bool {
	return c.OdooURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
