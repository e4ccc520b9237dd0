package planner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// SERVICE - Assemble, solve, persist
// =============================================================================

// Service runs complete planning requests for the API and the CLI.
type Service struct {
	Solver   generic.Solver
	Store    generic.PlanStore
	Logger   zerolog.Logger
	Observer Observer

	// NewID and Now default to random UUIDs and the wall clock.
	NewID func() generic.RunID
	Now   func() time.Time
}

// Run assembles and solves a model, and stores the outcome.
//
// Infeasible and unbounded outcomes are stored too: the returned run holds
// the status and the error is the *generic.StatusError. Construction errors
// and solver failures store nothing.
func (s *Service) Run(ctx context.Context, scenario string, cat *catalog.Catalog, settings Settings) (*generic.Run, *Plan, error) {
	log := s.Logger.With().Str("scenario", scenario).Str("solver", s.Solver.Name()).Logger()

	assembler := &Assembler{Logger: log, Observer: s.Observer}
	model, err := assembler.Assemble(cat, settings)
	if err != nil {
		log.Warn().Err(err).Msg("model rejected")
		return nil, nil, err
	}

	plan, err := Solve(ctx, model, s.Solver)
	status := generic.StatusOptimal
	var statusErr *generic.StatusError
	switch {
	case errors.As(err, &statusErr):
		status = statusErr.Status
	case err != nil:
		s.observer().ObserveSolve(s.Solver.Name(), generic.StatusFailed, 0)
		log.Error().Err(err).Msg("solve failed")
		return nil, nil, err
	}

	var run generic.Run
	if plan != nil {
		run = plan.Run(s.newID(), scenario, s.now())
		s.observer().ObserveSolve(s.Solver.Name(), status, plan.Duration)
		log.Info().
			Str("run", string(run.ID)).
			Str("objective", plan.Objective.StringFixed(2)).
			Dur("took", plan.Duration).
			Msg("plan solved")
	} else {
		run = generic.Run{ID: s.newID(), Scenario: scenario, Solver: s.Solver.Name(), Status: status, CreatedAt: s.now()}
		s.observer().ObserveSolve(s.Solver.Name(), status, 0)
		log.Info().Str("run", string(run.ID)).Str("status", string(status)).Msg("no plan")
	}

	if s.Store != nil {
		if serr := s.Store.SaveRun(ctx, run); serr != nil {
			return nil, nil, serr
		}
	}
	return &run, plan, err
}

func (s *Service) newID() generic.RunID {
	if s.NewID != nil {
		return s.NewID()
	}
	return generic.RunID(uuid.NewString())
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) observer() Observer {
	if s.Observer == nil {
		return nopObserver{}
	}
	return s.Observer
}
