// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("ORGANIZER_KEY_SALT", "test-salt")
	os.Setenv("INVITE_SLUG_SALT", "test-slug")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite default, got %s", cfg.DatabaseType)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-organizer-salt", "s1", "-slug-salt", "s2"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
}

func TestParseFlags_MissingSecrets(t *testing.T) {
	os.Clearenv()
	os.Setenv("DATABASE_URL", "postgres://test")
	defer os.Clearenv()

	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error when ORGANIZER_KEY_SALT missing")
	}
}

func TestParseFlags_PolicyDefaults(t *testing.T) {
	setRequiredEnv(t)
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	p := cfg.Policy
	if p.QuorumFraction != 0.60 {
		t.Errorf("expected quorum 0.60, got %f", p.QuorumFraction)
	}
	if p.SplitThreshold != 0.25 {
		t.Errorf("expected split threshold 0.25, got %f", p.SplitThreshold)
	}
	if p.ConfirmThreshold != 0.70 {
		t.Errorf("expected confirm threshold 0.70, got %f", p.ConfirmThreshold)
	}
	if p.MaxAlternatives != 3 {
		t.Errorf("expected 3 max alternatives, got %d", p.MaxAlternatives)
	}
	if p.MaxResolutionRounds != 2 {
		t.Errorf("expected 2 max rounds, got %d", p.MaxResolutionRounds)
	}
	if p.AlternativeFetchTimeout != 8*time.Second {
		t.Errorf("expected 8s fetch timeout, got %s", p.AlternativeFetchTimeout)
	}
}

func TestParseFlags_PolicyOverrides(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("QUORUM_FRACTION", "0.5")
	os.Setenv("CONFIRM_THRESHOLD", "0.8")
	os.Setenv("MAX_ALTERNATIVES", "5")
	os.Setenv("ALTERNATIVE_FETCH_TIMEOUT_MS", "2500")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Policy.QuorumFraction != 0.5 {
		t.Errorf("expected quorum 0.5, got %f", cfg.Policy.QuorumFraction)
	}
	if cfg.Policy.ConfirmThreshold != 0.8 {
		t.Errorf("expected confirm 0.8, got %f", cfg.Policy.ConfirmThreshold)
	}
	if cfg.Policy.MaxAlternatives != 5 {
		t.Errorf("expected 5 max alternatives, got %d", cfg.Policy.MaxAlternatives)
	}
	if cfg.Policy.AlternativeFetchTimeout != 2500*time.Millisecond {
		t.Errorf("expected 2.5s fetch timeout, got %s", cfg.Policy.AlternativeFetchTimeout)
	}
	// Untouched knobs keep their defaults
	if cfg.Policy.SplitThreshold != 0.25 {
		t.Errorf("expected split threshold untouched, got %f", cfg.Policy.SplitThreshold)
	}
}

func TestParseFlags_BadPolicyOverrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"quorum above one", "QUORUM_FRACTION", "1.5"},
		{"quorum not a number", "QUORUM_FRACTION", "lots"},
		{"zero split threshold", "SPLIT_THRESHOLD", "0"},
		{"zero rounds", "MAX_RESOLUTION_ROUNDS", "0"},
		{"negative timeout", "ALTERNATIVE_FETCH_TIMEOUT_MS", "-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			os.Setenv(tt.key, tt.value)
			defer os.Clearenv()

			if _, err := ParseFlags([]string{}); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
