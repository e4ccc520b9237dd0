package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/warp/harvest-planner/factory"
	"github.com/warp/harvest-planner/solver"
)

// SetDefaults sets default values for fields whose zero value is not
// meaningful. Planning values are defaulted per key in registerDefaults,
// since zero is a legal cash, land or minimum day.
func SetDefaults(cfg *Config) {
	// Solver defaults
	if cfg.Solver.Kind == "" {
		cfg.Solver.Kind = solver.KindAuto
	}
	if cfg.Solver.CBCPath == "" {
		cfg.Solver.CBCPath = "cbc"
	}
	if cfg.Solver.MaxDenseCells == 0 {
		cfg.Solver.MaxDenseCells = solver.DefaultMaxDenseCells
	}
	if cfg.Solver.MaxNodes == 0 {
		cfg.Solver.MaxNodes = solver.DefaultMaxNodes
	}

	// Database defaults
	if cfg.Database.Path == "" {
		cfg.Database.Path = "plans.db"
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.SolveRate == 0 {
		cfg.Server.SolveRate = 1
	}
	if cfg.Server.SolveBurst == 0 {
		cfg.Server.SolveBurst = 2
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Metrics defaults
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func registerDefaults(v *viper.Viper) {
	p := factory.DefaultPlanning()
	v.SetDefault("planning.horizon_days", p.HorizonDays)
	v.SetDefault("planning.season_length", p.SeasonLength)
	v.SetDefault("planning.initial_cash", p.InitialCash)
	v.SetDefault("planning.total_land", p.TotalLand)
	v.SetDefault("planning.inventory_capacity", p.InventoryCapacity)
	v.SetDefault("planning.processing_blackout_days", p.ProcessingBlackoutDays)
	v.SetDefault("planning.processing_min_day", p.ProcessingMinDay)
	stages := make([]map[string]any, len(p.Stages))
	for i, s := range p.Stages {
		stages[i] = map[string]any{"name": s.Name, "every": s.Every, "lag": s.Lag}
	}
	v.SetDefault("planning.stages", stages)

	// zero values; SetDefaults fills them after unmarshalling
	for _, key := range []string{
		"solver.kind", "solver.cbc_path", "solver.work_dir", "solver.timeout",
		"solver.max_dense_cells", "solver.max_nodes",
		"database.path",
		"server.host", "server.port", "server.cors_origins", "server.solve_rate", "server.solve_burst", "server.shutdown_timeout",
		"logging.level", "logging.format",
		"metrics.enabled", "metrics.path",
	} {
		v.SetDefault(key, nil)
	}
}
