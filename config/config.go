package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/goldtracker/challenge"
	"github.com/rustyeddy/goldtracker/market"
	"github.com/rustyeddy/goldtracker/risk"
)

// Config is the complete tracker configuration.
type Config struct {
	Challenge ChallengeConfig `json:"challenge" yaml:"challenge"`
	Selection SelectionConfig `json:"selection" yaml:"selection"`
	Policy    PolicyConfig    `json:"policy" yaml:"policy"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// ChallengeConfig holds the terms a challenge is started with.
type ChallengeConfig struct {
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	TargetPips     float64 `json:"target_pips" yaml:"target_pips"`
	RiskPercentage float64 `json:"risk_percentage" yaml:"risk_percentage"`
	Instrument     string  `json:"instrument" yaml:"instrument"`
}

// SelectionConfig holds the operator's default mode choices.
type SelectionConfig struct {
	RewardRatio float64 `json:"reward_ratio" yaml:"reward_ratio"`
	ProfitMode  string  `json:"profit_mode" yaml:"profit_mode"`
	LotMode     string  `json:"lot_mode" yaml:"lot_mode"`
	ManualLot   float64 `json:"manual_lot,omitempty" yaml:"manual_lot,omitempty"`
}

type PolicyConfig struct {
	ZeroBalance string `json:"zero_balance" yaml:"zero_balance"` // "continue" or "bust"
	Reload      string `json:"reload" yaml:"reload"`             // "trust" or "reject"
}

// StoreConfig selects the ledger store backend.
type StoreConfig struct {
	Type        string `json:"type" yaml:"type"` // "memory", "sqlite" or "postgres"
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	SessionID   string `json:"session_id" yaml:"session_id"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// LoadFromFile loads and validates configuration from a file.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Read parses a config file over Default (YAML first, JSON fallback)
// without validating it, so environment overrides can still complete it.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Environment variables read by ApplyEnv.
const (
	EnvDatabaseURL = "GOLDTRACKER_DATABASE_URL"
	EnvSession     = "GOLDTRACKER_SESSION"
	EnvLogLevel    = "GOLDTRACKER_LOG_LEVEL"
	EnvDBPath      = "GOLDTRACKER_DB_PATH"
)

// ApplyEnv loads the given .env files (".env" when none are named) into the
// process environment without overriding it, then overlays the GOLDTRACKER_*
// variables onto c. Missing .env files are not an error.
func (c *Config) ApplyEnv(envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	c.Store.DatabaseURL = getEnv(EnvDatabaseURL, c.Store.DatabaseURL)
	c.Store.SessionID = getEnv(EnvSession, c.Store.SessionID)
	c.Store.DBPath = getEnv(EnvDBPath, c.Store.DBPath)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Challenge.InitialBalance <= 0 {
		return fmt.Errorf("challenge.initial_balance must be positive")
	}
	if c.Challenge.TargetPips <= 0 {
		return fmt.Errorf("challenge.target_pips must be positive")
	}
	if c.Challenge.RiskPercentage <= 0 || c.Challenge.RiskPercentage > 100 {
		return fmt.Errorf("challenge.risk_percentage must be between 0 and 100")
	}
	if _, err := market.Lookup(c.Challenge.Instrument); err != nil {
		return fmt.Errorf("challenge.instrument: %w", err)
	}
	if _, err := c.Selections(); err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	if _, err := challenge.ParseZeroBalancePolicy(c.Policy.ZeroBalance); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if _, err := challenge.ParseReloadPolicy(c.Policy.Reload); err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	switch c.Store.Type {
	case "memory":
	case "sqlite":
		if c.Store.DBPath == "" {
			return fmt.Errorf("store.db_path required for sqlite type")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store.database_url required for postgres type (or set %s)", EnvDatabaseURL)
		}
	default:
		return fmt.Errorf("store.type must be 'memory', 'sqlite' or 'postgres'")
	}
	if strings.TrimSpace(c.Store.SessionID) == "" {
		return fmt.Errorf("store.session_id is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	return nil
}

// ChallengeTerms converts the challenge section.
func (c *Config) ChallengeTerms() challenge.Config {
	return challenge.Config{
		InitialBalance: c.Challenge.InitialBalance,
		TargetPips:     c.Challenge.TargetPips,
		RiskPercentage: c.Challenge.RiskPercentage,
		Instrument:     c.Challenge.Instrument,
	}
}

// Selections converts the selection section. Empty fields take the defaults.
func (c *Config) Selections() (challenge.Selections, error) {
	sel := challenge.DefaultSelections()
	if c.Selection.RewardRatio != 0 {
		rr, err := risk.RewardRatioOf(c.Selection.RewardRatio)
		if err != nil {
			return sel, err
		}
		sel.RewardRatio = rr
	}
	if c.Selection.ProfitMode != "" {
		pm, err := risk.ParseProfitMode(c.Selection.ProfitMode)
		if err != nil {
			return sel, err
		}
		sel.ProfitMode = pm
	}
	if c.Selection.LotMode != "" {
		lm, err := risk.ParseLotMode(c.Selection.LotMode)
		if err != nil {
			return sel, err
		}
		sel.LotMode = lm
	}
	sel.ManualLot = c.Selection.ManualLot
	return sel, sel.Validate()
}

// SessionOptions turns the policy section into session options.
func (c *Config) SessionOptions() ([]challenge.Option, error) {
	zp, err := challenge.ParseZeroBalancePolicy(c.Policy.ZeroBalance)
	if err != nil {
		return nil, err
	}
	rp, err := challenge.ParseReloadPolicy(c.Policy.Reload)
	if err != nil {
		return nil, err
	}
	return []challenge.Option{
		challenge.WithZeroBalancePolicy(zp),
		challenge.WithReloadPolicy(rp),
	}, nil
}

// Default returns the configuration of a fresh gold challenge.
func Default() *Config {
	return &Config{
		Challenge: ChallengeConfig{
			InitialBalance: 1000,
			TargetPips:     20,
			RiskPercentage: 30,
			Instrument:     market.DefaultInstrument,
		},
		Selection: SelectionConfig{
			RewardRatio: 1.5,
			ProfitMode:  string(risk.ProfitModeRR),
			LotMode:     string(risk.LotModeAuto),
		},
		Policy: PolicyConfig{
			ZeroBalance: "continue",
			Reload:      "trust",
		},
		Store: StoreConfig{
			Type:      "sqlite",
			DBPath:    "./goldtracker.db",
			SessionID: "default",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
