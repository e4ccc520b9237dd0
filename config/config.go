/*
Package config loads service settings from a file, the environment and
defaults.

PRIORITY:
  1. Environment variables, HP_ prefix (HP_SOLVER_KIND, HP_SERVER_PORT)
  2. Config file (planner.yaml in ., ./configs or /etc/harvest-planner)
  3. Defaults

A .env file in the working directory is loaded first when present.

SECTIONS:
  planning:  Farm settings, same keys as a scenario's planning block
  solver:    Which solver and its limits
  database:  SQLite path for stored runs
  server:    HTTP port, CORS origins, solve rate limit
  logging:   Level and format
  metrics:   Prometheus endpoint

SEE ALSO:
  - factory/documents.go: PlanningDoc
  - cli/root.go: --config flag
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/warp/harvest-planner/factory"
	"github.com/warp/harvest-planner/planner"
	"github.com/warp/harvest-planner/solver"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HP"

// Config is the main configuration struct combining all sub-configs
type Config struct {
	Planning factory.PlanningDoc `mapstructure:"planning"`
	Solver   SolverConfig        `mapstructure:"solver"`
	Database DatabaseConfig      `mapstructure:"database"`
	Server   ServerConfig        `mapstructure:"server"`
	Logging  LoggingConfig       `mapstructure:"logging"`
	Metrics  MetricsConfig       `mapstructure:"metrics"`
}

// SolverConfig selects the MILP solver.
type SolverConfig struct {
	// simplex, cbc or auto
	Kind string `mapstructure:"kind" validate:"required,oneof=simplex cbc auto"`

	// Path or name of the CBC binary
	CBCPath string `mapstructure:"cbc_path"`

	// Directory for CBC model files; empty uses the system temp dir
	WorkDir string `mapstructure:"work_dir"`

	// Wall-clock limit per solve; 0 means none
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	MaxDenseCells int `mapstructure:"max_dense_cells" validate:"gte=0"`
	MaxNodes      int `mapstructure:"max_nodes" validate:"gte=0"`
}

// DatabaseConfig holds the run store location.
type DatabaseConfig struct {
	// SQLite file, or ":memory:"
	Path string `mapstructure:"path" validate:"required"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`

	CORSOrigins []string `mapstructure:"cors_origins"`

	// Solve requests per second across all clients, and burst
	SolveRate  float64 `mapstructure:"solve_rate" validate:"gt=0"`
	SolveBurst int     `mapstructure:"solve_burst" validate:"min=1"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Log format: json, text
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"omitempty,startswith=/"`
}

// LoadConfig loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Config file (planner.yaml)
// 3. Defaults (lowest priority)
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("planner")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/harvest-planner")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// keys must be known to viper for env overrides to apply
	registerDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadConfigOrDefault loads configuration or returns a default config on error
func LoadConfigOrDefault(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return Default()
	}
	return cfg
}

// MustLoadConfig loads configuration and panics on error (for use in main.go)
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{Planning: factory.DefaultPlanning()}
	SetDefaults(cfg)
	return cfg
}

// Settings converts the planning section.
func (c *Config) Settings() (planner.Settings, error) {
	return c.Planning.Settings()
}

// SolverOptions converts the solver section.
func (c *Config) SolverOptions() solver.Options {
	return solver.Options{
		Kind:          c.Solver.Kind,
		CBCPath:       c.Solver.CBCPath,
		WorkDir:       c.Solver.WorkDir,
		Timeout:       c.Solver.Timeout,
		MaxDenseCells: c.Solver.MaxDenseCells,
		MaxNodes:      c.Solver.MaxNodes,
	}
}
