package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate: %v", err)
	}
	if cfg.ListenAddr() != "127.0.0.1:37778" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
}

func TestRecommendationsDecaySlowerThanMessages(t *testing.T) {
	s := Default().Scoring
	if s.Type("recommendation_received").HalfLifeDays <= s.Type("message").HalfLifeDays {
		t.Error("recommendation half-life should exceed message half-life")
	}
}

func TestVouchCapsSumToHundred(t *testing.T) {
	v := Default().Vouch
	total := v.EndorsementMax + v.RecommendationBase + v.RecommendationLength + v.ReciprocityMax + v.SharedHistoryMax
	if total != 100 {
		t.Errorf("vouch caps sum = %v, want 100", total)
	}
	if v.RecommendationBase <= v.EndorsementMax {
		t.Error("recommendation should outweigh endorsements")
	}
}

func TestTypeUnknown(t *testing.T) {
	p := Default().Scoring.Type("carrier-pigeon")
	if p.Weight != 0 {
		t.Errorf("unknown type weight = %v, want 0", p.Weight)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rapport.toml")
	content := `
[server]
port = 9000

[paths]
max_hops = 3
top_k = 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Paths.MaxHops != 3 || cfg.Paths.TopK != 5 {
		t.Errorf("paths = %+v", cfg.Paths)
	}
	// Untouched sections keep defaults.
	if cfg.Scoring.StrongThreshold != 70 {
		t.Errorf("strong threshold = %v, want 70", cfg.Scoring.StrongThreshold)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	content := `
[scoring]
strong_threshold = 10
active_threshold = 40
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for strong < active")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("RAPPORT_DB", "/tmp/r.db")
	t.Setenv("RAPPORT_PORT", "1234")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Database.Path != "/tmp/r.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Server.Port != 1234 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}
