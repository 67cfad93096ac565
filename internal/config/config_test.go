package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MAX_PAGES", "")
	t.Setenv("TEXT_LAYER_MIN_WORDS", "")
	t.Setenv("OCR_ENABLED", "")
	t.Setenv("BROADCAST_BUFFER", "")
	t.Setenv("STREAM_KEEPALIVE_SECONDS", "")

	cfg := Load()
	if cfg.MaxPages != 10 {
		t.Fatalf("expected default max pages 10, got %d", cfg.MaxPages)
	}
	if cfg.TextLayerMinWords != 10 {
		t.Fatalf("expected default text layer min words 10, got %d", cfg.TextLayerMinWords)
	}
	if !cfg.OCREnabled {
		t.Fatalf("expected OCR enabled by default")
	}
	if cfg.BroadcastBuffer != 64 {
		t.Fatalf("expected default broadcast buffer 64, got %d", cfg.BroadcastBuffer)
	}
	if cfg.StreamKeepAlive != 10*time.Second {
		t.Fatalf("expected default keep-alive 10s, got %s", cfg.StreamKeepAlive)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("MAX_PAGES", "3")
	t.Setenv("OCR_ENABLED", "false")
	t.Setenv("OCR_LANGUAGE", "nld")
	t.Setenv("MIN_TABLE_ROWS", "5")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg := Load()
	if cfg.MaxPages != 3 {
		t.Fatalf("expected max pages override, got %d", cfg.MaxPages)
	}
	if cfg.OCREnabled {
		t.Fatalf("expected OCR disabled")
	}
	if cfg.OCRLanguage != "nld" {
		t.Fatalf("expected language override, got %q", cfg.OCRLanguage)
	}
	if cfg.MinTableRows != 5 {
		t.Fatalf("expected min rows 5, got %d", cfg.MinTableRows)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Fatalf("expected nats url override, got %q", cfg.NATSURL)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_PAGES", "not-a-number")

	cfg := Load()
	if cfg.MaxPages != 10 {
		t.Fatalf("expected fallback on malformed value, got %d", cfg.MaxPages)
	}
}
