/*
Package export writes solved plans as CSV sheets and terminal tables.

PURPOSE:
  The output boundary of a solve. A plan or stored run holds named grids
  (resource x day) and series (per day); this package lays them out for
  people: one CSV sheet per grid, a cash sheet, and compact tables.

SHEETS:
  <grid>.csv   header: type,0,1,...,H-1   one row per type with any
               non-zero value; all-zero rows are dropped
  cash.csv     header: day,cash,land      H+1 rows, then objective

SEE ALSO:
  - planner/plan.go: Builds grids and series
  - cli/solve.go: --out writes a sheet directory
*/
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// CSV
// =============================================================================

// WriteGridCSV writes g with one column per day. Rows that are zero on
// every day are skipped.
func WriteGridCSV(w io.Writer, g generic.Grid) error {
	cw := csv.NewWriter(w)

	days := 0
	if len(g.Values) > 0 {
		days = len(g.Values[0])
	}
	header := make([]string, 0, days+1)
	header = append(header, "type")
	for d := 0; d < days; d++ {
		header = append(header, strconv.Itoa(d))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range g.NonZeroRows() {
		record := make([]string, 0, days+1)
		record = append(record, g.Rows[r])
		for _, v := range g.Values[r] {
			record = append(record, formatValue(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCashCSV writes the cash and land series side by side, followed by
// the objective.
func WriteCashCSV(w io.Writer, run *generic.Run) error {
	cash, _ := seriesOf(run, "cash")
	land, _ := seriesOf(run, "land")

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"day", "cash", "land"}); err != nil {
		return err
	}
	n := len(cash.Values)
	if len(land.Values) > n {
		n = len(land.Values)
	}
	for t := 0; t < n; t++ {
		record := []string{strconv.Itoa(t), at(cash.Values, t), at(land.Values, t)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"objective", run.Objective.String(), ""}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteSheets writes every grid of run plus cash.csv into dir, creating it
// if needed. It returns the files written.
func WriteSheets(dir string, run *generic.Run) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	for _, g := range run.Grids {
		g := g
		if err := write(sheetName(g.Name)+".csv", func(w io.Writer) error { return WriteGridCSV(w, g) }); err != nil {
			return written, err
		}
	}
	if err := write("cash.csv", func(w io.Writer) error { return WriteCashCSV(w, run) }); err != nil {
		return written, err
	}
	return written, nil
}

// =============================================================================
// TABLES
// =============================================================================

// WriteSummary prints the headline numbers of a run.
func WriteSummary(w io.Writer, run *generic.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run\t%s\n", run.ID)
	if run.Scenario != "" {
		fmt.Fprintf(tw, "Scenario\t%s\n", run.Scenario)
	}
	fmt.Fprintf(tw, "Status\t%s\n", run.Status)
	fmt.Fprintf(tw, "Solver\t%s\n", run.Solver)
	fmt.Fprintf(tw, "Objective\t%s\n", run.Objective.StringFixed(2))
	if cash, ok := seriesOf(run, "cash"); ok && len(cash.Values) > 0 {
		fmt.Fprintf(tw, "Final cash\t%s\n", formatValue(cash.Values[len(cash.Values)-1]))
	}
	fmt.Fprintf(tw, "Took\t%s\n", run.Duration)
	return tw.Flush()
}

// WriteGridTable prints the non-zero rows of g as "day×qty" lists.
func WriteGridTable(w io.Writer, g generic.Grid) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tTotal\tDays\n", g.Label)
	fmt.Fprintf(tw, "%s\t─────\t────\n", strings.Repeat("─", len([]rune(g.Label))))

	rows := g.NonZeroRows()
	if len(rows) == 0 {
		fmt.Fprintln(tw, "(none)\t\t")
	}
	for _, r := range rows {
		total := 0.0
		var cells []string
		for d, v := range g.Values[r] {
			if v == 0 {
				continue
			}
			total += v
			cells = append(cells, fmt.Sprintf("%d×%s", d, formatValue(v)))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.Rows[r], formatValue(total), strings.Join(cells, " "))
	}
	return tw.Flush()
}

// WriteRunTables prints the summary and every grid.
func WriteRunTables(w io.Writer, run *generic.Run) error {
	if err := WriteSummary(w, run); err != nil {
		return err
	}
	for _, g := range run.Grids {
		fmt.Fprintln(w)
		if err := WriteGridTable(w, g); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func seriesOf(run *generic.Run, name string) (generic.Series, bool) {
	for _, s := range run.Series {
		if s.Name == name {
			return s, true
		}
	}
	return generic.Series{}, false
}

func at(values []float64, i int) string {
	if i >= len(values) {
		return ""
	}
	return formatValue(values[i])
}

// formatValue prints whole numbers without a fraction.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// sheetName keeps a grid name safe as a file name.
func sheetName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
