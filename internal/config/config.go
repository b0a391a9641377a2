package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Port           string
	RequestTimeout time.Duration

	ListDBDSN string

	// Live cart storage: "memory" (default) or "redis".
	CartStore string
	RedisAddr string
	CartTTL   time.Duration

	RabbitURL  string
	CatalogURL string

	// Base for shareable links, e.g. https://hustlecare.com
	PublicBaseURL string

	CORSAllowOrigins []string
}

func Load() Config {
	return Config{
		Port:           getenv("PORT", "8084"),
		RequestTimeout: parseDuration(getenv("REQUEST_TIMEOUT", "5s"), 5*time.Second),

		ListDBDSN: getenv("LIST_DB_DSN", ""),

		CartStore: getenv("CART_STORE", "memory"),
		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		CartTTL:   parseDuration(getenv("CART_TTL", "72h"), 72*time.Hour),

		RabbitURL:  getenv("RABBITMQ_URL", ""),
		CatalogURL: getenv("CATALOG_URL", ""),

		PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8084"), "/"),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
