package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		SelfHandle:      "@CheckBot",
		HotInterval:     10 * time.Minute,
		MediumInterval:  time.Hour,
		ColdInterval:    24 * time.Hour,
		HotAgeCutoff:    7 * 24 * time.Hour,
		MediumAgeCutoff: 30 * 24 * time.Hour,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsHandleWithoutAtPrefix(t *testing.T) {
	cfg := validConfig()
	cfg.SelfHandle = "CheckBot"

	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for handle without '@' prefix")
	}
}

func TestValidateRejectsNonPositiveIntervals(t *testing.T) {
	cfg := validConfig()
	cfg.MediumInterval = 0

	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for zero tier interval")
	}
}

func TestValidateRejectsInvertedAgeCutoffs(t *testing.T) {
	cfg := validConfig()
	cfg.HotAgeCutoff = cfg.MediumAgeCutoff

	if err := cfg.validate(); err == nil {
		t.Fatal("expected error when hot cutoff is not below medium cutoff")
	}
}
