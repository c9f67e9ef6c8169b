package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	DatabaseURL      string
	DatabaseType     string
	TokenSalt        string
	TokenTTL         time.Duration
	CandidatesFile   string
	SubscriberBuffer int
	TxTimeout        time.Duration
	TxRetries        int
}

// ParseFlags validates flags and fills defaults.
// Values in a .env file are loaded first, without overriding variables
// already present in the environment.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string

	fs := flag.NewFlagSet("tally-booth", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&envFile, "env", ".env", "Path to a .env file (optional)")

	// Election setup
	fs.StringVar(&cfg.CandidatesFile, "candidates", "", "YAML file with the candidate list")

	// Core tuning
	fs.IntVar(&cfg.SubscriberBuffer, "buffer", 0, "Per-subscriber snapshot buffer")
	fs.DurationVar(&cfg.TxTimeout, "tx-timeout", 0, "Vote transaction timeout")
	fs.IntVar(&cfg.TxRetries, "tx-retries", -1, "Vote transaction retries on contention")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.TokenSalt, "token-salt", "", "Voter token salt (prefer env)")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", 0, "Voter token lifetime")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3000 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType != "sqlite" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "voting.db"
	}

	if cfg.CandidatesFile == "" {
		cfg.CandidatesFile = os.Getenv("CANDIDATES_FILE")
	}

	if cfg.SubscriberBuffer == 0 {
		n, err := intEnv("SUBSCRIBER_BUFFER", 16)
		if err != nil {
			return Config{}, err
		}
		cfg.SubscriberBuffer = n
	}
	if cfg.SubscriberBuffer < 1 {
		return Config{}, errors.New("subscriber buffer must be at least 1")
	}

	if cfg.TxTimeout == 0 {
		cfg.TxTimeout = 5 * time.Second
		if s := os.Getenv("TX_TIMEOUT"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return Config{}, errors.New("invalid TX_TIMEOUT env variable")
			}
			cfg.TxTimeout = d
		}
	}

	if cfg.TxRetries < 0 {
		n, err := intEnv("TX_RETRIES", 5)
		if err != nil {
			return Config{}, err
		}
		cfg.TxRetries = n
	}

	// Secrets - MUST be provided
	if cfg.TokenSalt == "" {
		cfg.TokenSalt = os.Getenv("TOKEN_SALT")
	}
	if cfg.TokenSalt == "" {
		return Config{}, errors.New("TOKEN_SALT required")
	}

	// TOKEN_TTL=0 disables expiry
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 12 * time.Hour
		if s := os.Getenv("TOKEN_TTL"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil || d < 0 {
				return Config{}, errors.New("invalid TOKEN_TTL env variable")
			}
			cfg.TokenTTL = d
		}
	}
	if cfg.TokenTTL < 0 {
		return Config{}, errors.New("token TTL must not be negative")
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}
