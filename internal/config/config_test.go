package config

import (
	"log/slog"
	"strings"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/psytest")
	t.Setenv("EVENTS_DRIVER", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port == "" {
		t.Error("port should have a default")
	}
	if cfg.Events.Driver != "memory" {
		t.Errorf("expected memory event driver by default, got %s", cfg.Events.Driver)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
	if cfg.Database.DSN() != "postgres://localhost/psytest" {
		t.Errorf("DATABASE_URL should win, got %s", cfg.Database.DSN())
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "children")
	t.Setenv("EVENTS_DRIVER", "KAFKA")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Events.Brokers) != 2 || cfg.Events.Brokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Events.Brokers)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.RateLimitRPS != 2.5 || !cfg.AutoMigrate {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if dsn := cfg.Database.DSN(); !strings.Contains(dsn, "host=db") || !strings.Contains(dsn, "dbname=children") {
		t.Errorf("unexpected DSN %s", dsn)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Database: DatabaseConfig{URL: "x"}, Events: EventsConfig{Driver: "none"}}, false},
		{"no database", Config{Events: EventsConfig{Driver: "memory"}}, true},
		{"kafka without brokers", Config{Database: DatabaseConfig{URL: "x"}, Events: EventsConfig{Driver: "kafka"}}, true},
		{"unknown driver", Config{Database: DatabaseConfig{URL: "x"}, Events: EventsConfig{Driver: "nats"}}, true},
		{"negative burst", Config{Database: DatabaseConfig{URL: "x"}, Events: EventsConfig{Driver: "none"}, RateLimitBurst: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
