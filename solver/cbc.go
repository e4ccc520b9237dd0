/*
cbc.go - COIN-OR CBC adapter

PURPOSE:
  Solves a generic.Problem by writing it as an LP file and running the
  external cbc binary. This is the solver used for the full 84-day model.

PROTOCOL:
  cbc <dir>/model.lp solve solu <dir>/solution.txt

  The solution file starts with a status line followed by one line per
  non-zero variable:

    Optimal - objective value 1100.00000000
          0 x0                    20                      -15
    **    7 x7                   1.5                        0

  Variables absent from the file are zero. A leading "**" marks values
  CBC considers infeasible; the value is read all the same and the caller
  verifies the assignment.
*/
package solver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/generic"
)

// ErrMalformedSolution is returned when a CBC solution file cannot be read.
var ErrMalformedSolution = errors.New("malformed cbc solution")

// CBC runs the cbc command line solver.
type CBC struct {
	// Path of the cbc binary. Defaults to "cbc" on $PATH.
	Path string
	// Timeout bounds a single solve. Zero means the context alone decides.
	Timeout time.Duration
	// WorkDir is where per-solve temporary directories are created.
	WorkDir string
	// KeepFiles leaves the model and solution files in place.
	KeepFiles bool
	Logger    zerolog.Logger
}

// NewCBC returns a CBC adapter using the binary at path.
func NewCBC(path string) *CBC {
	return &CBC{Path: path, Logger: zerolog.Nop()}
}

func (c *CBC) Name() string { return "cbc" }

// Solve implements generic.Solver.
func (c *CBC) Solve(ctx context.Context, p *generic.Problem) (*generic.Solution, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp(c.WorkDir, "harvest-cbc-")
	if err != nil {
		return nil, &generic.SolverError{Solver: c.Name(), Err: err}
	}
	if !c.KeepFiles {
		defer os.RemoveAll(dir)
	}

	modelPath := filepath.Join(dir, "model.lp")
	solutionPath := filepath.Join(dir, "solution.txt")

	if err := c.writeModel(modelPath, p); err != nil {
		return nil, &generic.SolverError{Solver: c.Name(), Err: err}
	}

	bin := c.Path
	if bin == "" {
		bin = "cbc"
	}
	args := []string{modelPath}
	if c.Timeout > 0 {
		args = append(args, "sec", strconv.Itoa(int(c.Timeout.Seconds())))
	}
	args = append(args, "solve", "solu", solutionPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr

	c.Logger.Debug().Str("dir", dir).Strs("args", args).Msg("running cbc")
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &generic.SolverError{Solver: c.Name(), Err: err}
	}
	c.Logger.Debug().Dur("took", time.Since(start)).Msg("cbc finished")

	f, err := os.Open(solutionPath)
	if err != nil {
		return nil, &generic.SolverError{Solver: c.Name(), Err: err}
	}
	defer f.Close()

	sol, err := ParseCBCSolution(f, p)
	if err != nil {
		return nil, &generic.SolverError{Solver: c.Name(), Err: err}
	}
	return sol, nil
}

func (c *CBC) writeModel(path string, p *generic.Problem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := (LPWriter{}).Write(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// =============================================================================
// SOLUTION FILE
// =============================================================================

// ParseCBCSolution reads a CBC solution file for p.
//
// Infeasible and unbounded outcomes are returned as a Solution carrying that
// status. Any other non-optimal status (time limits, stopped on gap) is an
// error, since the values cannot be trusted as optimal.
func ParseCBCSolution(r io.Reader, p *generic.Problem) (*generic.Solution, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty file", ErrMalformedSolution)
	}
	header := strings.TrimSpace(sc.Text())
	status, err := cbcStatus(header)
	if err != nil {
		return nil, err
	}

	sol := &generic.Solution{
		Status: status,
		Values: generic.NewAssignment(len(p.Vars)),
		Solver: "cbc",
	}
	if status != generic.StatusOptimal {
		return sol, nil
	}

	line := 1
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 && fields[0] == "**" {
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedSolution, line, sc.Text())
		}

		id, ok := parseVarName(fields[1])
		if !ok || int(id) >= len(p.Vars) {
			return nil, fmt.Errorf("%w: line %d: unknown variable %q", ErrMalformedSolution, line, fields[1])
		}
		v, err := decimal.NewFromString(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedSolution, line, err)
		}
		sol.Values[id] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sol.Objective = p.ObjectiveValue(sol.Values)
	return sol, nil
}

func cbcStatus(header string) (generic.Status, error) {
	lower := strings.ToLower(header)
	switch {
	case strings.HasPrefix(lower, "optimal"):
		return generic.StatusOptimal, nil
	case strings.Contains(lower, "infeasible"):
		return generic.StatusInfeasible, nil
	case strings.Contains(lower, "unbounded"):
		return generic.StatusUnbounded, nil
	case header == "":
		return "", fmt.Errorf("%w: missing status line", ErrMalformedSolution)
	default:
		return "", fmt.Errorf("cbc stopped without an optimal solution: %s", header)
	}
}

func parseVarName(s string) (generic.VarID, bool) {
	if !strings.HasPrefix(s, "x") {
		return 0, false
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return generic.VarID(n), true
}
