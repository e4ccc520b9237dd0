/*
main.go - Application entry point

PURPOSE:
  Runs the harvest-planner command tree. All wiring lives in cli/.

EXAMPLES:
  # Solve the small demo scenario in-process
  ./planner solve --scenario tiny --solver simplex

  # Solve the full year with CBC and keep the run
  ./planner solve --solver cbc --save --db ./data/plans.db

  # Serve the API with an in-memory store
  ./planner serve --db ":memory:" --port 3000

ENVIRONMENT:
  HP_* variables override config keys, e.g. HP_SOLVER_KIND=cbc,
  HP_SERVER_PORT=9000, HP_PLANNING_TOTAL_LAND=30.

SEE ALSO:
  - cli/root.go: Commands and global flags
  - config/config.go: Configuration sources
*/
package main

import "github.com/warp/harvest-planner/cli"

func main() {
	cli.Execute()
}
