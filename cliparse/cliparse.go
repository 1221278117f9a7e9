// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/detour/consensus"
)

type Config struct {
	Port             int
	DatabaseURL      string
	DatabaseType     string
	OrganizerKeySalt string
	InviteSlugSalt   string
	SearchURL        string
	Policy           consensus.Policy
}

// ParseFlags validates flags, applies env fallbacks, and resolves the
// consensus policy overrides. A .env file in the working directory is
// loaded first if present.
func ParseFlags(args []string) (Config, error) {
	// Missing .env is the normal production case
	_ = godotenv.Load()

	cfg := Config{Policy: consensus.DefaultPolicy()}

	fs := flag.NewFlagSet("detour", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.SearchURL, "search-url", "", "Activity search service URL")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.OrganizerKeySalt, "organizer-salt", "", "Organizer key salt (prefer env)")
	fs.StringVar(&cfg.InviteSlugSalt, "slug-salt", "", "Invite slug salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
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
			cfg.Port = 3319 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}

	if cfg.SearchURL == "" {
		cfg.SearchURL = os.Getenv("SEARCH_URL")
	}

	// Secrets - MUST be provided
	if cfg.OrganizerKeySalt == "" {
		cfg.OrganizerKeySalt = os.Getenv("ORGANIZER_KEY_SALT")
	}
	if cfg.OrganizerKeySalt == "" {
		return Config{}, errors.New("ORGANIZER_KEY_SALT required")
	}

	if cfg.InviteSlugSalt == "" {
		cfg.InviteSlugSalt = os.Getenv("INVITE_SLUG_SALT")
	}
	if cfg.InviteSlugSalt == "" {
		return Config{}, errors.New("INVITE_SLUG_SALT required")
	}

	if err := applyPolicyEnv(&cfg.Policy); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyPolicyEnv overlays consensus policy overrides from the
// environment. Fractions must be in (0, 1]; counts must be positive.
func applyPolicyEnv(p *consensus.Policy) error {
	fractions := []struct {
		env string
		dst *float64
	}{
		{"QUORUM_FRACTION", &p.QuorumFraction},
		{"SPLIT_THRESHOLD", &p.SplitThreshold},
		{"CONFIRM_THRESHOLD", &p.ConfirmThreshold},
	}
	for _, f := range fractions {
		raw := os.Getenv(f.env)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > 1 {
			return fmt.Errorf("invalid %s: must be a fraction in (0, 1]", f.env)
		}
		*f.dst = v
	}

	counts := []struct {
		env string
		dst *int
	}{
		{"MAX_ALTERNATIVES", &p.MaxAlternatives},
		{"MAX_RESOLUTION_ROUNDS", &p.MaxResolutionRounds},
	}
	for _, c := range counts {
		raw := os.Getenv(c.env)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return fmt.Errorf("invalid %s: must be a positive integer", c.env)
		}
		*c.dst = v
	}

	if raw := os.Getenv("ALTERNATIVE_FETCH_TIMEOUT_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 1 {
			return errors.New("invalid ALTERNATIVE_FETCH_TIMEOUT_MS: must be a positive integer")
		}
		p.AlternativeFetchTimeout = time.Duration(ms) * time.Millisecond
	}

	return nil
}
