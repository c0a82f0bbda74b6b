package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr string
	PushAddr   string

	RedisURL    string
	DatabaseURL string

	AdminPlayer string

	SeasonStart time.Time // first play day (a Sunday)
	SeasonWeeks int
	Courts      int

	MessageDir string // optional msgcat override directory
	RosterFile string // optional roster YAML, replaces the embedded one
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:  ":8080",
		PushAddr:    ":8081",
		AdminPlayer: "Mattias",
		SeasonStart: time.Date(2025, time.September, 28, 0, 0, 0, 0, time.UTC),
		SeasonWeeks: 20,
		Courts:      3,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("PUSH_ADDR")); v != "" {
		cfg.PushAddr = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("ADMIN_PLAYER")); v != "" {
		cfg.AdminPlayer = v
	}

	if v := strings.TrimSpace(os.Getenv("SEASON_START")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("SEASON_START must be yyyy-mm-dd: %w", err)
		}
		cfg.SeasonStart = t
	}
	if v := strings.TrimSpace(os.Getenv("SEASON_WEEKS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SeasonWeeks = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("COURTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Courts = n
		}
	}

	cfg.MessageDir = strings.TrimSpace(os.Getenv("MESSAGE_DIR"))
	cfg.RosterFile = strings.TrimSpace(os.Getenv("ROSTER_FILE"))

	return cfg, nil
}
