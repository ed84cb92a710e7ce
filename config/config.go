package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Bus string

const (
	BusLocal Bus = "local"
	BusRedis Bus = "redis"
	BusKafka Bus = "kafka"
)

type Envs struct {
	PORT            string
	ALLOWED_ORIGINS []string
	REDIS_URL       string
	BUS             Bus
	KAFKA_BROKERS   []string
	KAFKA_TOPIC     string
	POSTGRES_URL    string
	STORE_TIMEOUT   time.Duration
	DEBUG           bool
}

// Load reads the process environment. Unset variables fall back to
// development defaults; malformed ones are reported.
func Load() (Envs, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Envs, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	envs := Envs{
		PORT:            get("PORT", "3001"),
		ALLOWED_ORIGINS: splitList(get("ALLOWED_ORIGINS", "http://localhost:5173")),
		REDIS_URL:       get("REDIS_URL", "redis://localhost:6379/0"),
		BUS:             Bus(get("BUS", string(BusRedis))),
		KAFKA_BROKERS:   splitList(get("KAFKA_BROKERS", "localhost:9092")),
		KAFKA_TOPIC:     get("KAFKA_TOPIC", "pictobattle-events"),
		POSTGRES_URL:    get("POSTGRES_URL", ""),
	}

	timeout, err := time.ParseDuration(get("STORE_TIMEOUT", "2s"))
	if err != nil || timeout <= 0 {
		return Envs{}, fmt.Errorf("invalid STORE_TIMEOUT: %q", get("STORE_TIMEOUT", ""))
	}
	envs.STORE_TIMEOUT = timeout

	debug, err := strconv.ParseBool(get("DEBUG", "false"))
	if err != nil {
		return Envs{}, fmt.Errorf("invalid DEBUG: %w", err)
	}
	envs.DEBUG = debug

	switch envs.BUS {
	case BusLocal, BusRedis, BusKafka:
	default:
		return Envs{}, fmt.Errorf("unknown BUS %q", envs.BUS)
	}

	return envs, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
