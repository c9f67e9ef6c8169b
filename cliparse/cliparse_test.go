// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFlags_EnvVars(t *testing.T) {
	// Set env vars
	os.Setenv("PORT", "9000")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("DATABASE_TYPE", "postgres")
	os.Setenv("TOKEN_SALT", "test-salt")
	os.Setenv("TX_TIMEOUT", "2s")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-env", filepath.Join(t.TempDir(), "missing.env")})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if cfg.TxTimeout != 2*time.Second {
		t.Errorf("expected 2s tx timeout, got %s", cfg.TxTimeout)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-token-salt", "s1", "-env", filepath.Join(t.TempDir(), "missing.env")})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	os.Setenv("TOKEN_SALT", "s1")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-env", filepath.Join(t.TempDir(), "missing.env")})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DatabaseType != "sqlite" || cfg.DatabaseURL != "voting.db" {
		t.Errorf("expected sqlite voting.db, got %s %s", cfg.DatabaseType, cfg.DatabaseURL)
	}
	if cfg.SubscriberBuffer != 16 {
		t.Errorf("expected buffer 16, got %d", cfg.SubscriberBuffer)
	}
	if cfg.TxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.TxRetries)
	}
	if cfg.TokenTTL != 12*time.Hour {
		t.Errorf("expected 12h token TTL, got %s", cfg.TokenTTL)
	}
}

func TestParseFlags_TokenTTL(t *testing.T) {
	tests := []struct {
		name string
		env  string
		args []string
		want time.Duration
	}{
		{"from env", "30m", nil, 30 * time.Minute},
		{"disabled", "0", nil, 0},
		{"flag wins", "30m", []string{"-token-ttl", "1h"}, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			defer os.Clearenv()
			os.Setenv("TOKEN_SALT", "s")
			os.Setenv("TOKEN_TTL", tt.env)

			args := append(tt.args, "-env", filepath.Join(t.TempDir(), "missing.env"))
			cfg, err := ParseFlags(args)
			if err != nil {
				t.Fatal(err)
			}
			if cfg.TokenTTL != tt.want {
				t.Errorf("expected token TTL %s, got %s", tt.want, cfg.TokenTTL)
			}
		})
	}
}

func TestParseFlags_DotEnv(t *testing.T) {
	defer os.Clearenv()

	envFile := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(envFile, []byte("TOKEN_SALT=from-dotenv\nPORT=7000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseFlags([]string{"-env", envFile})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.TokenSalt != "from-dotenv" {
		t.Errorf("expected salt from .env, got %q", cfg.TokenSalt)
	}
	if cfg.Port != 7000 {
		t.Errorf("expected port 7000, got %d", cfg.Port)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing salt", nil, nil},
		{"postgres without url", map[string]string{"TOKEN_SALT": "s", "DATABASE_TYPE": "postgres"}, nil},
		{"unknown database type", map[string]string{"TOKEN_SALT": "s"}, []string{"-t", "mysql"}},
		{"zero buffer", map[string]string{"TOKEN_SALT": "s", "SUBSCRIBER_BUFFER": "-1"}, nil},
		{"bad port", map[string]string{"TOKEN_SALT": "s", "PORT": "abc"}, nil},
		{"bad token ttl", map[string]string{"TOKEN_SALT": "s", "TOKEN_TTL": "soon"}, nil},
		{"negative token ttl", map[string]string{"TOKEN_SALT": "s"}, []string{"-token-ttl", "-1h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			defer os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			args := append(tt.args, "-env", filepath.Join(t.TempDir(), "missing.env"))
			if _, err := ParseFlags(args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
