package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	MaxUploadBytes int64
	MaxPages       int

	TextLayerMinWords int
	OCREnabled        bool
	OCRLanguage       string
	MinTableRows      int
	MinTableCols      int

	BroadcastBuffer int
	StreamKeepAlive time.Duration

	NATSURL     string
	NATSSubject string

	APIRateLimitRPS   int
	APIRateLimitBurst int
	APIMaxConcurrent  int
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		MaxUploadBytes: int64(mustEnvInt("MAX_UPLOAD_BYTES", 32<<20)),
		MaxPages:       mustEnvInt("MAX_PAGES", 10),

		TextLayerMinWords: mustEnvInt("TEXT_LAYER_MIN_WORDS", 10),
		OCREnabled:        mustEnvBool("OCR_ENABLED", true),
		OCRLanguage:       mustEnv("OCR_LANGUAGE", "eng"),
		MinTableRows:      mustEnvInt("MIN_TABLE_ROWS", 2),
		MinTableCols:      mustEnvInt("MIN_TABLE_COLS", 2),

		BroadcastBuffer: mustEnvInt("BROADCAST_BUFFER", 64),
		StreamKeepAlive: time.Duration(mustEnvInt("STREAM_KEEPALIVE_SECONDS", 10)) * time.Second,

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "extractions.progress"),

		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 10),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 20),
		APIMaxConcurrent:  mustEnvInt("API_MAX_CONCURRENT", 32),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
