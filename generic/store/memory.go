// Package store provides PlanStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	runs map[generic.RunID]generic.Run
}

func NewMemory() *Memory {
	return &Memory{runs: make(map[generic.RunID]generic.Run)}
}

// SaveRun stores a copy of run.
func (m *Memory) SaveRun(_ context.Context, run generic.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.ID]; exists {
		return generic.ErrDuplicateRun
	}
	m.runs[run.ID] = cloneRun(run, true)
	return nil
}

func (m *Memory) GetRun(_ context.Context, id generic.RunID) (*generic.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, generic.ErrPlanNotFound
	}
	out := cloneRun(run, true)
	return &out, nil
}

func (m *Memory) ListRuns(_ context.Context, limit int) ([]generic.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]generic.Run, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, cloneRun(run, false))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneRun(run generic.Run, withArrays bool) generic.Run {
	out := run
	out.Grids = nil
	out.Series = nil
	if !withArrays {
		return out
	}
	for _, g := range run.Grids {
		cp := generic.Grid{Name: g.Name, Label: g.Label, Rows: append([]string(nil), g.Rows...)}
		cp.Values = make([][]float64, len(g.Values))
		for i, row := range g.Values {
			cp.Values[i] = append([]float64(nil), row...)
		}
		out.Grids = append(out.Grids, cp)
	}
	for _, s := range run.Series {
		out.Series = append(out.Series, generic.Series{Name: s.Name, Values: append([]float64(nil), s.Values...)})
	}
	return out
}
