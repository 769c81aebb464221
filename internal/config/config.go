package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/reg-trainer/internal/assemble"
)

// Tokenizer modes.
const (
	TokenizerGRPC    = "grpc"
	TokenizerLexicon = "lexicon"
)

// #region types
// Round names one data collection round: a workspace file and the response
// table collected against it.
type Round struct {
	Name       string `yaml:"name"`
	Workspaces string `yaml:"workspaces"`
	Responses  string `yaml:"responses"`
}

// Tokenizer selects and configures the response tokenizer.
type Tokenizer struct {
	Mode    string `yaml:"mode"`
	Addr    string `yaml:"addr"`
	Lexicon string `yaml:"lexicon"`
}

// Config is the training run configuration.
type Config struct {
	DBPath     string        `yaml:"db_path"`
	ModelAddr  string        `yaml:"model_addr"`
	Tokenizer  Tokenizer     `yaml:"tokenizer"`
	PoolPolicy string        `yaml:"pool_policy"`
	Save       bool          `yaml:"save"`
	RunTimeout time.Duration `yaml:"run_timeout"`
	LogMode    string        `yaml:"log_mode"`
	Rounds     []Round       `yaml:"rounds"`
}

// #endregion types

// #region defaults
// Default returns the configuration of the two study rounds.
func Default() Config {
	return Config{
		DBPath:    "reg_corpus.db",
		ModelAddr: "localhost:50051",
		Tokenizer: Tokenizer{
			Mode: TokenizerGRPC,
			Addr: "localhost:50052",
		},
		PoolPolicy: assemble.Strict.String(),
		Save:       true,
		RunTimeout: 30 * time.Minute,
		LogMode:    "development",
		Rounds: []Round{
			{Name: "v1", Workspaces: "data/stim_v1_original.xml", Responses: "data/study_v1_responses.csv"},
			{Name: "v2", Workspaces: "data/stim_v2.xml", Responses: "data/study_v2_responses.csv"},
		},
	}
}

// #endregion defaults

// #region load
// Load reads path over the defaults (an empty path keeps them), applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DBPath = envOr("REG_DB", c.DBPath)
	c.ModelAddr = envOr("REG_MODEL_ADDR", c.ModelAddr)
	c.Tokenizer.Addr = envOr("REG_TOKENIZER_ADDR", c.Tokenizer.Addr)
	c.LogMode = envOr("REG_LOG_MODE", c.LogMode)
}

// Validate checks the fields the driver depends on.
func (c Config) Validate() error {
	if _, err := assemble.ParsePolicy(c.PoolPolicy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Tokenizer.Mode {
	case TokenizerGRPC:
		if c.Tokenizer.Addr == "" {
			return fmt.Errorf("config: tokenizer.addr required for mode %s", TokenizerGRPC)
		}
	case TokenizerLexicon:
		if c.Tokenizer.Lexicon == "" {
			return fmt.Errorf("config: tokenizer.lexicon required for mode %s", TokenizerLexicon)
		}
	default:
		return fmt.Errorf("config: unknown tokenizer mode %q", c.Tokenizer.Mode)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("config: run_timeout must be positive")
	}
	if len(c.Rounds) == 0 {
		return fmt.Errorf("config: no rounds")
	}
	seen := make(map[string]bool, len(c.Rounds))
	for i, r := range c.Rounds {
		if r.Name == "" || r.Workspaces == "" || r.Responses == "" {
			return fmt.Errorf("config: round %d needs name, workspaces and responses", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("config: duplicate round %q", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// Policy returns the parsed pool policy.
func (c Config) Policy() assemble.Policy {
	p, _ := assemble.ParsePolicy(c.PoolPolicy)
	return p
}

// #endregion load

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
