package solver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/harvest-planner/generic"
)

// Solver kinds accepted by New.
const (
	KindSimplex = "simplex"
	KindCBC     = "cbc"
	KindAuto    = "auto"
)

// Options configures the solver built by New.
type Options struct {
	Kind          string
	CBCPath       string
	WorkDir       string
	Timeout       time.Duration
	MaxDenseCells int
	MaxNodes      int
}

// New builds the solver named by opts.Kind.
func New(opts Options, logger zerolog.Logger) (generic.Solver, error) {
	simplex := NewSimplex()
	simplex.Logger = logger.With().Str("solver", KindSimplex).Logger()
	if opts.MaxDenseCells > 0 {
		simplex.MaxDenseCells = opts.MaxDenseCells
	}
	if opts.MaxNodes > 0 {
		simplex.MaxNodes = opts.MaxNodes
	}

	cbc := NewCBC(opts.CBCPath)
	cbc.WorkDir = opts.WorkDir
	cbc.Timeout = opts.Timeout
	cbc.Logger = logger.With().Str("solver", KindCBC).Logger()

	switch strings.ToLower(opts.Kind) {
	case KindSimplex:
		return simplex, nil
	case KindCBC:
		return cbc, nil
	case KindAuto, "":
		return &Auto{Small: simplex, Large: cbc, MaxDenseCells: simplex.MaxDenseCells, Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown solver kind %q (want %s, %s or %s)", opts.Kind, KindSimplex, KindCBC, KindAuto)
	}
}

// Auto sends problems that fit the dense simplex to Small and everything
// else to Large. When Small breaks on a problem, Large gets a try; if that
// fails too, Small's error is returned.
type Auto struct {
	Small, Large  generic.Solver
	MaxDenseCells int
	Logger        zerolog.Logger
}

func (a *Auto) Name() string { return KindAuto }

// Solve implements generic.Solver. The size estimate ignores presolve, so
// it errs towards Large.
func (a *Auto) Solve(ctx context.Context, p *generic.Problem) (*generic.Solution, error) {
	if !a.fitsDense(p) {
		return a.Large.Solve(ctx, p)
	}
	sol, err := a.Small.Solve(ctx, p)
	if err == nil || ctx.Err() != nil {
		return sol, err
	}
	a.Logger.Warn().Err(err).Str("fallback", a.Large.Name()).Msg("in-process solve failed")
	fallback, largeErr := a.Large.Solve(ctx, p)
	if largeErr == nil {
		return fallback, nil
	}
	a.Logger.Debug().Err(largeErr).Msg("fallback solve failed")
	return nil, err
}

func (a *Auto) fitsDense(p *generic.Problem) bool {
	rows := len(p.Constraints)
	cols := len(p.Vars)
	for _, v := range p.Vars {
		if v.Upper != nil {
			rows++
		}
	}
	cols += 2 * rows
	return rows*cols <= a.MaxDenseCells
}
