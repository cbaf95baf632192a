package config

import (
	"os"
	"strings"
)

// Config holds the server's environment configuration. DatabaseURL and
// KafkaBrokers are optional: without a database the server runs on the
// in-memory store, without brokers event publishing is disabled.
type Config struct {
	HTTPAddr     string
	DatabaseURL  string
	KafkaBrokers []string
	KafkaTopic   string
	SeedAccounts []string // account ids to pre-register in memory mode
}

func Load() Config {
	cfg := Config{
		HTTPAddr:    os.Getenv("HTTP_ADDR"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		KafkaTopic:  os.Getenv("KAFKA_TOPIC"),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "operation_recorded"
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	if seed := os.Getenv("SEED_ACCOUNTS"); seed != "" {
		cfg.SeedAccounts = splitList(seed)
	}
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
