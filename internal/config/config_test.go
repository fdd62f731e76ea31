package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoad_Defaults tests that a missing .env file yields the security
// defaults.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":3000" {
		t.Errorf("Expected default listen addr :3000, got %s", cfg.ListenAddr)
	}
	if cfg.Security.SessionTTL != 24*time.Hour {
		t.Errorf("Expected 24h session TTL, got %v", cfg.Security.SessionTTL)
	}
	if cfg.Security.BcryptCost != 12 {
		t.Errorf("Expected bcrypt cost 12, got %d", cfg.Security.BcryptCost)
	}
}

// TestLoad_EnvFile tests .env overrides.
func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "LISTEN_ADDR=:8080\nSESSION_TTL=12h\nLOGIN_MAX_ATTEMPTS=3\nAUDIT_COLLECTOR_URL=https://collector.example.org/audit\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(envPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("Expected listen addr :8080, got %s", cfg.ListenAddr)
	}
	if cfg.Security.SessionTTL != 12*time.Hour {
		t.Errorf("Expected 12h session TTL, got %v", cfg.Security.SessionTTL)
	}
	if cfg.Security.LoginMaxAttempts != 3 {
		t.Errorf("Expected 3 login attempts, got %d", cfg.Security.LoginMaxAttempts)
	}
	if cfg.Security.AuditCollectorURL != "https://collector.example.org/audit" {
		t.Errorf("Unexpected collector URL: %s", cfg.Security.AuditCollectorURL)
	}
}

// TestLoad_ProcessEnvWins tests that process environment overrides the
// .env file.
func TestLoad_ProcessEnvWins(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("LISTEN_ADDR=:8080\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	t.Setenv("LISTEN_ADDR", ":9090")

	cfg, err := Load(envPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("Expected process env to win, got %s", cfg.ListenAddr)
	}
}
