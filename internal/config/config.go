// Package config loads application configuration from a .env file and the
// process environment, environment taking precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kafkasder-portal/kafkas-sub000/internal/security"
)

// AppConfig is the full runtime configuration: server address, database
// connection, and the security policy knobs layered over their defaults.
type AppConfig struct {
	ListenAddr    string
	DatabaseURL   string
	MigrationsURL string

	Security *security.Config
}

// Load reads configuration from envPath (ignored when absent) and the
// process environment. Unset keys keep the security defaults.
func Load(envPath string) (*AppConfig, error) {
	k := koanf.New(".")

	if _, err := os.Stat(envPath); err == nil {
		if err := k.Load(file.Provider(envPath), dotenv.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	sec := security.DefaultConfig()
	overrideDuration(k, "SESSION_TTL", &sec.SessionTTL)
	overrideDuration(k, "CSRF_TOKEN_TTL", &sec.CSRFTokenTTL)
	overrideInt(k, "LOGIN_MAX_ATTEMPTS", &sec.LoginMaxAttempts)
	overrideDuration(k, "LOGIN_WINDOW", &sec.LoginWindow)
	overrideInt(k, "API_MAX_REQUESTS", &sec.APIMaxRequests)
	overrideDuration(k, "API_WINDOW", &sec.APIWindow)
	overrideInt(k, "BCRYPT_COST", &sec.BcryptCost)
	if v := k.String("AUDIT_COLLECTOR_URL"); v != "" {
		sec.AuditCollectorURL = v
	}
	if v := k.String("AUDIT_BEARER_TOKEN"); v != "" {
		sec.AuditBearerToken = v
	}

	cfg := &AppConfig{
		ListenAddr:    ":3000",
		MigrationsURL: "file://migrations",
		DatabaseURL:   k.String("DATABASE_URL"),
		Security:      sec,
	}
	if v := k.String("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := k.String("MIGRATIONS_URL"); v != "" {
		cfg.MigrationsURL = v
	}
	return cfg, nil
}

func overrideInt(k *koanf.Koanf, key string, dst *int) {
	if k.Exists(key) {
		*dst = k.Int(key)
	}
}

func overrideDuration(k *koanf.Koanf, key string, dst *time.Duration) {
	if k.Exists(key) {
		if d, err := time.ParseDuration(k.String(key)); err == nil {
			*dst = d
		}
	}
}
