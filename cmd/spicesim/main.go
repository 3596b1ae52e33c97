package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lucidcircuit/spicesim/pkg/dcsweep"
	"github.com/lucidcircuit/spicesim/pkg/mna"
	"github.com/lucidcircuit/spicesim/pkg/netlist"
	"github.com/lucidcircuit/spicesim/pkg/output"
	"github.com/lucidcircuit/spicesim/pkg/solver"
	"github.com/lucidcircuit/spicesim/pkg/transient"
)

func main() {
	outputDir := flag.String("output_dir", "", "directory for run outputs (required, wiped if it exists)")
	bypassOptions := flag.Bool("bypass_options", false, "ignore .OPTIONS in the netlist, use flags instead")
	disableDCSweeps := flag.Bool("disable_dc_sweeps", false, "skip .DC sweeps even if present")
	spd := flag.Bool("spd", false, "matrix is symmetric positive-definite (Cholesky/CG)")
	custom := flag.Bool("custom", false, "use the hand-rolled numeric kernel instead of the library one")
	sparse := flag.Bool("sparse", false, "assemble and solve with the sparse representation")
	iter := flag.Bool("iter", false, "use an iterative method (CG/BiCG)")
	itol := flag.Float64("itol", 1e-6, "iterative convergence tolerance")
	transientMethod := flag.String("transient_method", "BE", "time-integration rule: BE or TR")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("spicesim: --output_dir is required")
	}
	if flag.NArg() != 1 {
		log.Fatal("spicesim: usage: spicesim --output_dir PATH <netlist_file>")
	}

	start := time.Now()

	netlistPath := flag.Arg(0)
	raw, err := os.ReadFile(netlistPath)
	if err != nil {
		log.Fatalf("spicesim: reading netlist: %v", err)
	}

	result, err := netlist.Parse(string(raw))
	if err != nil {
		log.Fatalf("spicesim: parse: %v", err)
	}

	cliMethod := netlist.BackwardEuler
	if *transientMethod == "TR" {
		cliMethod = netlist.Trapezoidal
	} else if *transientMethod != "BE" {
		log.Fatalf("spicesim: unknown --transient_method %q", *transientMethod)
	}

	opts := result.Commands.Options
	if *bypassOptions {
		opts = netlist.Options{
			Custom:          *custom,
			SPD:             *spd,
			Iter:            *iter,
			Sparse:          *sparse,
			ITol:            *itol,
			TransientMethod: cliMethod,
		}
	}
	if err := opts.Validate(); err != nil {
		log.Fatalf("spicesim: %v", err)
	}

	if err := os.RemoveAll(*outputDir); err != nil {
		log.Fatalf("spicesim: clearing output dir: %v", err)
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("spicesim: creating output dir: %v", err)
	}

	echoPath := filepath.Join(*outputDir, filepath.Base(netlistPath))
	if err := output.WriteNetlistEcho(echoPath, string(raw), *bypassOptions); err != nil {
		log.Fatalf("spicesim: %v", err)
	}

	nodeCount := result.Nodes.Count()
	outputNodes := result.Commands.OutputNodeUnion()

	var denseSys *mna.DenseSystem
	var sparseSys *mna.SparseSystem
	var slv *solver.Solver
	var dcX []float64

	if opts.Sparse {
		sparseSys = mna.AssembleSparse(result.Netlist, nodeCount)
		slv, err = solver.NewSparse(sparseSys, opts)
		if err != nil {
			log.Fatalf("spicesim: solver: %v", err)
		}
		dcX, err = slv.Solve(sparseSys.B)
	} else {
		denseSys = mna.AssembleDense(result.Netlist, nodeCount)
		slv, err = solver.NewDense(denseSys, opts)
		if err != nil {
			log.Fatalf("spicesim: solver: %v", err)
		}
		dcX, err = slv.Solve(denseSys.B)
	}
	if err != nil {
		log.Fatalf("spicesim: DC operating point: %v", err)
	}
	if !slv.Converged() && opts.Iter {
		log.Printf("spicesim: WARNING: DC solve did not converge (iterations=%d error=%g)", slv.LastIterations(), slv.LastError())
	}

	dcOpPath := filepath.Join(*outputDir, "dc_op.dat")
	if err := output.WriteDCOperatingPoint(dcOpPath, result.Netlist, result.Nodes, dcX); err != nil {
		log.Fatalf("spicesim: %v", err)
	}

	if len(result.Commands.Transients) > 0 {
		tranDir := filepath.Join(*outputDir, "transient")
		for _, spec := range result.Commands.Transients {
			var res *transient.Result
			var err error
			if opts.Sparse {
				res, err = transient.RunSparse(spec, opts, result.Netlist, result.Nodes, sparseSys, slv, outputNodes)
			} else {
				res, err = transient.RunDense(spec, opts, result.Netlist, result.Nodes, denseSys, slv, outputNodes)
			}
			if err != nil {
				log.Fatalf("spicesim: transient analysis: %v", err)
			}
			if err := output.WriteTransientResult(tranDir, res); err != nil {
				log.Fatalf("spicesim: %v", err)
			}
		}
	}

	if !*disableDCSweeps && len(result.Commands.DCSweeps) > 0 {
		sweepDir := filepath.Join(*outputDir, "dc_sweeps")
		var rhs []float64
		if opts.Sparse {
			rhs = sparseSys.B
		} else {
			rhs = denseSys.B
		}

		voltageSweeps, currentSweeps := splitSweeps(result.Commands.DCSweeps)
		for _, sw := range append(voltageSweeps, currentSweeps...) {
			res, err := dcsweep.Run(sw, result.Netlist, result.Nodes, rhs, slv, outputNodes)
			if err != nil {
				log.Fatalf("spicesim: dc sweep: %v", err)
			}
			if err := output.WriteDCSweepResult(sweepDir, res); err != nil {
				log.Fatalf("spicesim: %v", err)
			}
		}
	}

	perfPath := filepath.Join(*outputDir, "spic_performance.rpt")
	if err := solver.DumpPerfCounters(perfPath, slv.PerfCounters(), time.Since(start)); err != nil {
		log.Fatalf("spicesim: %v", err)
	}

	fmt.Printf("spicesim: wrote results to %s\n", *outputDir)
}

// splitSweeps partitions DCSweeps into voltage- and current-kind lists,
// preserving declaration order within each, so voltage sweeps run before
// current sweeps per spec.md 4.3's ordering guarantee.
func splitSweeps(sweeps []netlist.DCSweep) (voltage, current []netlist.DCSweep) {
	for _, sw := range sweeps {
		if sw.Kind == netlist.VoltageSweep {
			voltage = append(voltage, sw)
		} else {
			current = append(current, sw)
		}
	}
	return voltage, current
}
