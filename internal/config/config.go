package config

import (
	"os"
	"strconv"
)

type Config struct {
	Env          string
	HTTPPort     string
	DatabaseURL  string // empty disables the history archive
	AMQPURL      string // empty disables event publishing
	AMQPExchange string
	JWTSecret    string // empty disables auth on the point API
	JWTIssuer    string
	RateRPS      int
}

func Load() Config {
	cfg := Config{
		Env:          get("APP_ENV", "dev"),
		HTTPPort:     get("HTTP_PORT", "8080"),
		DatabaseURL:  get("DATABASE_URL", ""),
		AMQPURL:      get("AMQP_URL", ""),
		AMQPExchange: get("AMQP_EXCHANGE", "points"),
		JWTSecret:    get("JWT_SECRET", ""),
		JWTIssuer:    get("JWT_ISSUER", "points-ledger"),
		RateRPS:      getInt("RATE_RPS", 100),
	}
	return cfg
}

func get(key, def string) string { v := os.Getenv(key); if v == "" { return def }; return v }

func getInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return def
}
