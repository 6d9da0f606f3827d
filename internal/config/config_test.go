package config

import (
	"testing"
	"time"
)

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "disasters", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{Mode: "header"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "disasters", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Auth.Mode != "header" {
		t.Fatalf("expected header auth default, got %q", c.Auth.Mode)
	}
	if c.Lookup.TTL != time.Hour {
		t.Fatalf("expected 1h lookup TTL default, got %v", c.Lookup.TTL)
	}
	if c.Geo.DefaultRadiusMeters != 10000 {
		t.Fatalf("expected 10000m default radius, got %v", c.Geo.DefaultRadiusMeters)
	}
}

func TestValidate_JWTModeRequiresSecret(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "disasters"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{Mode: "jwt"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for jwt mode without secret")
	}
}
