package solver

import (
	"fmt"
	"os"
	"time"
)

// PerfCounters accumulates wall time and call counts separately for
// decompose, compute (iterative precompute) and solve, per spec.md 4.2.
// It is written only from Solver code paths, which are single-threaded
// (spec.md 5), so no locking is needed.
type PerfCounters struct {
	DecomposeSeconds float64
	DecomposeCalls   int64
	ComputeSeconds   float64
	ComputeCalls     int64
	SolveSeconds     float64
	SolveCalls       int64
}

// record records one call's duration against the counter pair named by kind.
func (p *PerfCounters) record(kind string, start time.Time) {
	elapsed := time.Since(start).Seconds()
	switch kind {
	case "decompose":
		p.DecomposeSeconds += elapsed
		p.DecomposeCalls++
	case "compute":
		p.ComputeSeconds += elapsed
		p.ComputeCalls++
	case "solve":
		p.SolveSeconds += elapsed
		p.SolveCalls++
	}
}

// DumpPerfCounters writes seven key/value lines: the six counters (seconds
// and calls for decompose, compute and solve) plus the total wallclock,
// formatted per original_source/src/solver.cpp::dump_perf_counters.
func DumpPerfCounters(path string, p *PerfCounters, wallclock time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("solver: opening perf report: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f,
		"decompose_seconds:\t%.9f\ndecompose_calls:\t%d\ncompute_seconds:\t%.9f\ncompute_calls:\t%d\nsolve_seconds:\t%.9f\nsolve_calls:\t%d\nwallclock_seconds:\t%.9f\n",
		p.DecomposeSeconds, p.DecomposeCalls,
		p.ComputeSeconds, p.ComputeCalls,
		p.SolveSeconds, p.SolveCalls,
		wallclock.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("solver: writing perf report: %w", err)
	}
	return nil
}
