package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration.
type Config struct {
	Risk     RiskConfig     `yaml:"risk"`
	Stake    StakeConfig    `yaml:"stake"`
	Bankroll BankrollConfig `yaml:"bankroll"`
	Stress   StressConfig   `yaml:"stress"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// RiskConfig controls the pre-stake validation rules. The phase-policy
// booleans are pointers so an omitted key defaults on while an explicit
// `false` is honored.
type RiskConfig struct {
	MinProbability    float64 `yaml:"min_probability"`
	DeadZoneLow       float64 `yaml:"dead_zone_low"`
	DeadZoneHigh      float64 `yaml:"dead_zone_high"`
	MinEV             float64 `yaml:"min_ev"`
	BlockEarlySeason  *bool   `yaml:"block_early_season"`
	ReducePreDeadline *bool   `yaml:"reduce_pre_deadline"`
}

// StakeConfig controls position sizing.
type StakeConfig struct {
	FractionalKelly float64 `yaml:"fractional_kelly"`
	MaxStakePercent float64 `yaml:"max_stake_percent"`
	MinStakeUnits   float64 `yaml:"min_stake_units"`
}

// BankrollConfig controls the ledger and the circuit breaker thresholds.
type BankrollConfig struct {
	InitialUnits    float64 `yaml:"initial_units"`
	NormalKelly     float64 `yaml:"normal_kelly"`
	DegradedKelly   float64 `yaml:"degraded_kelly"`
	DegradeDrawdown float64 `yaml:"degrade_drawdown"`
	RecoverDrawdown float64 `yaml:"recover_drawdown"`
	PauseDrawdown   float64 `yaml:"pause_drawdown"`
	PauseLossStreak int     `yaml:"pause_loss_streak"`
}

// StressConfig controls the Monte Carlo stress runs.
type StressConfig struct {
	Simulations     int     `yaml:"simulations"`
	GamesPerSeason  int     `yaml:"games_per_season"`
	InitialBankroll float64 `yaml:"initial_bankroll"`
	RuinThreshold   float64 `yaml:"ruin_threshold"`
	Workers         int     `yaml:"workers"` // 0 = NumCPU
	Seed            int64   `yaml:"seed"`
	PoolPath        string  `yaml:"pool_path"`
}

// StorageConfig controls where the ledger is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file and the .env file if present. Env values
// override the YAML for the keys they cover.
func Load(path string) (*Config, error) {
	// Load .env if present (silently skip when missing)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default returns a configuration with every knob at its default, for use
// when no config file is given.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// applyEnvOverrides overrides values from environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BETGUARD_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("BETGUARD_INITIAL_UNITS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Bankroll.InitialUnits = f
		}
	}
}

// setDefaults ensures every required value is usable.
func setDefaults(cfg *Config) {
	if cfg.Risk.MinProbability <= 0 {
		cfg.Risk.MinProbability = 0.55
	}
	if cfg.Risk.DeadZoneLow <= 0 {
		cfg.Risk.DeadZoneLow = 0.50
	}
	if cfg.Risk.DeadZoneHigh <= 0 {
		cfg.Risk.DeadZoneHigh = 0.55
	}
	if cfg.Risk.MinEV <= 0 {
		cfg.Risk.MinEV = 0.03
	}
	if cfg.Risk.BlockEarlySeason == nil {
		cfg.Risk.BlockEarlySeason = boolPtr(true)
	}
	if cfg.Risk.ReducePreDeadline == nil {
		cfg.Risk.ReducePreDeadline = boolPtr(true)
	}

	if cfg.Stake.FractionalKelly <= 0 {
		cfg.Stake.FractionalKelly = 0.25
	}
	if cfg.Stake.MaxStakePercent <= 0 {
		cfg.Stake.MaxStakePercent = 0.05
	}
	if cfg.Stake.MinStakeUnits <= 0 {
		cfg.Stake.MinStakeUnits = 0.01
	}

	if cfg.Bankroll.InitialUnits <= 0 {
		cfg.Bankroll.InitialUnits = 100.0
	}
	if cfg.Bankroll.NormalKelly <= 0 {
		cfg.Bankroll.NormalKelly = 0.25
	}
	if cfg.Bankroll.DegradedKelly <= 0 {
		cfg.Bankroll.DegradedKelly = 0.10
	}
	if cfg.Bankroll.DegradeDrawdown <= 0 {
		cfg.Bankroll.DegradeDrawdown = 0.20
	}
	if cfg.Bankroll.RecoverDrawdown <= 0 {
		cfg.Bankroll.RecoverDrawdown = 0.15
	}
	if cfg.Bankroll.PauseDrawdown <= 0 {
		cfg.Bankroll.PauseDrawdown = 0.40
	}
	if cfg.Bankroll.PauseLossStreak <= 0 {
		cfg.Bankroll.PauseLossStreak = 10
	}

	if cfg.Stress.Simulations <= 0 {
		cfg.Stress.Simulations = 10_000
	}
	if cfg.Stress.GamesPerSeason <= 0 {
		cfg.Stress.GamesPerSeason = 1230
	}
	if cfg.Stress.InitialBankroll <= 0 {
		cfg.Stress.InitialBankroll = 100.0
	}
	if cfg.Stress.RuinThreshold <= 0 {
		cfg.Stress.RuinThreshold = 10.0
	}
	if cfg.Stress.Seed == 0 {
		cfg.Stress.Seed = 42
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "betguard.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func boolPtr(b bool) *bool { return &b }
