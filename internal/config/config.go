package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all rapport configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Scoring  ScoringConfig  `toml:"scoring"`
	Vouch    VouchConfig    `toml:"vouch"`
	Paths    PathConfig     `toml:"paths"`
	Analysis AnalysisConfig `toml:"analysis"`
}

type ServerConfig struct {
	Bind           string   `toml:"bind"`
	Port           int      `toml:"port" validate:"gte=0,lte=65535"`
	TimeoutSeconds int      `toml:"timeout_seconds" validate:"gte=0"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// TypeParams is the decay policy for one interaction type.
type TypeParams struct {
	Weight       float64 `toml:"weight" validate:"gte=0"`
	HalfLifeDays float64 `toml:"half_life_days" validate:"gt=0"`
}

// ScoringConfig drives the relationship health model. Half-lives and band
// thresholds are policy, not data-derived constants.
type ScoringConfig struct {
	Types            map[string]TypeParams `toml:"types" validate:"required,dive"`
	Saturation       float64               `toml:"saturation" validate:"gt=0"`
	StaleHorizonDays float64               `toml:"stale_horizon_days" validate:"gt=0"`

	StrongThreshold  float64 `toml:"strong_threshold" validate:"gtefield=ActiveThreshold,lte=100"`
	ActiveThreshold  float64 `toml:"active_threshold" validate:"gtefield=CoolingThreshold"`
	CoolingThreshold float64 `toml:"cooling_threshold" validate:"gte=0"`

	SharedCompanyBoost    float64 `toml:"shared_company_boost" validate:"gte=0"`
	CurrentColleagueBoost float64 `toml:"current_colleague_boost" validate:"gte=0"`
	TheyInitiatedBoost    float64 `toml:"they_initiated_boost" validate:"gte=0"`
	DeepConversationBoost float64 `toml:"deep_conversation_boost" validate:"gte=0"`
	DeepConversationChars int     `toml:"deep_conversation_chars" validate:"gt=0"`
	MultiChannelBoost     float64 `toml:"multi_channel_boost" validate:"gte=0"`
}

// VouchConfig holds the caps of each advocacy factor. They sum to 100.
type VouchConfig struct {
	EndorsementMax        float64 `toml:"endorsement_max" validate:"gte=0"`
	EndorsementK          float64 `toml:"endorsement_k" validate:"gt=0"`
	RecommendationBase    float64 `toml:"recommendation_base" validate:"gte=0"`
	RecommendationLength  float64 `toml:"recommendation_length_max" validate:"gte=0"`
	RecommendationFullLen int     `toml:"recommendation_full_chars" validate:"gt=0"`
	RecommendationFloor   float64 `toml:"recommendation_recency_floor" validate:"gte=0,lte=1"`
	ReciprocityMax        float64 `toml:"reciprocity_max" validate:"gte=0"`
	SharedHistoryMax      float64 `toml:"shared_history_max" validate:"gte=0"`
	SharedHistoryFullDays float64 `toml:"shared_history_full_days" validate:"gt=0"`
	SharedUnknownFraction float64 `toml:"shared_unknown_fraction" validate:"gte=0,lte=1"`
	SharedPastFraction    float64 `toml:"shared_past_fraction" validate:"gte=0,lte=1"`
}

// PathConfig bounds the warm path search.
type PathConfig struct {
	MaxHops             int     `toml:"max_hops" validate:"gte=1,lte=8"`
	TopK                int     `toml:"top_k" validate:"gte=1"`
	Epsilon             float64 `toml:"epsilon" validate:"gt=0"`
	FuzzyThreshold      float64 `toml:"fuzzy_threshold" validate:"gte=0,lte=1"`
	DistinctIntroducers bool    `toml:"distinct_introducers"`
}

type AnalysisConfig struct {
	MinEgoMessages       int `toml:"min_ego_messages" validate:"gte=1"`
	DormantThresholdDays int `toml:"dormant_threshold_days" validate:"gte=1"`
	ParseWorkers         int `toml:"parse_workers" validate:"gte=0"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:           "127.0.0.1",
			Port:           37778,
			TimeoutSeconds: 30,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Scoring: ScoringConfig{
			Types: map[string]TypeParams{
				"connection":              {Weight: 1.0, HalfLifeDays: 540},
				"message":                 {Weight: 1.0, HalfLifeDays: 90},
				"endorsement_given":       {Weight: 0.8, HalfLifeDays: 365},
				"endorsement_received":    {Weight: 1.2, HalfLifeDays: 365},
				"recommendation_given":    {Weight: 3.0, HalfLifeDays: 1095},
				"recommendation_received": {Weight: 4.0, HalfLifeDays: 1095},
				"invitation":              {Weight: 0.5, HalfLifeDays: 180},
				"reaction":                {Weight: 0.3, HalfLifeDays: 60},
				"colleague":               {Weight: 2.0, HalfLifeDays: 730},
				"co_recipient":            {Weight: 0.5, HalfLifeDays: 90},
			},
			Saturation:       2.0,
			StaleHorizonDays: 3650,

			StrongThreshold:  70,
			ActiveThreshold:  40,
			CoolingThreshold: 15,

			SharedCompanyBoost:    0.4,
			CurrentColleagueBoost: 0.8,
			TheyInitiatedBoost:    0.3,
			DeepConversationBoost: 0.3,
			DeepConversationChars: 200,
			MultiChannelBoost:     0.3,
		},
		Vouch: VouchConfig{
			EndorsementMax:        25,
			EndorsementK:          2,
			RecommendationBase:    30,
			RecommendationLength:  10,
			RecommendationFullLen: 500,
			RecommendationFloor:   0.5,
			ReciprocityMax:        15,
			SharedHistoryMax:      20,
			SharedHistoryFullDays: 730,
			SharedUnknownFraction: 0.5,
			SharedPastFraction:    0.75,
		},
		Paths: PathConfig{
			MaxHops:             4,
			TopK:                3,
			Epsilon:             1,
			FuzzyThreshold:      0.55,
			DistinctIntroducers: true,
		},
		Analysis: AnalysisConfig{
			MinEgoMessages:       2,
			DormantThresholdDays: 90,
			ParseWorkers:         4,
		},
	}
}

// Load reads a TOML file on top of Default. Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides server and database settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("RAPPORT_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("RAPPORT_BIND"); v != "" {
		c.Server.Bind = v
	}
	if v := os.Getenv("RAPPORT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// Type returns the decay policy for an interaction type. Unknown types get a
// zero weight so they never contribute.
func (s ScoringConfig) Type(name string) TypeParams {
	if p, ok := s.Types[name]; ok {
		return p
	}
	return TypeParams{Weight: 0, HalfLifeDays: 1}
}
