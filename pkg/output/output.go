// Package output writes a run's persisted artifacts: the DC operating
// point table, DC-sweep and transient trajectory files, the (possibly
// filtered) netlist echo, per spec.md 4.5 and 6.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lucidcircuit/spicesim/pkg/dcsweep"
	"github.com/lucidcircuit/spicesim/pkg/netlist"
	"github.com/lucidcircuit/spicesim/pkg/nodetable"
	"github.com/lucidcircuit/spicesim/pkg/transient"
)

// stripNumber renders v the way the original formatter does: fixed
// six-decimal notation, then trailing zeros stripped, then a bare
// trailing dot stripped, per spec.md 4.5's file-naming rule.
func stripNumber(v float64) string {
	s := fmt.Sprintf("%f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		s = "0"
	}
	return s
}

func dcSweepFileName(sweep netlist.DCSweep, node string) string {
	kind := "V"
	if sweep.Kind == netlist.CurrentSweep {
		kind = "I"
	}
	name := sweep.SourceName
	if !strings.HasPrefix(strings.ToUpper(name), kind) {
		name = kind + name
	}
	return fmt.Sprintf("%s_%s_%s_%s_V(%s).dat",
		name,
		stripNumber(sweep.Start), stripNumber(sweep.End), stripNumber(sweep.Step),
		node)
}

func transientFileName(spec netlist.TransientSpec, node string) string {
	return fmt.Sprintf("tran_%s_%s_V(%s).dat", stripNumber(spec.TimeStep), stripNumber(spec.FinTime), node)
}

// WriteDCOperatingPoint writes dc_op.dat: one line per non-ground node,
// a blank line, then one line per voltage-source/inductor branch current
// in parse order, per spec.md 6.
func WriteDCOperatingPoint(path string, nl *netlist.Netlist, nodes *nodetable.Table, x []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: creating %s: %w", path, err)
	}
	defer f.Close()

	for _, name := range nodes.NonGroundNames() {
		id := nodes.Lookup(name)
		if _, err := fmt.Fprintf(f, "%s %g\n", name, x[id-1]); err != nil {
			return fmt.Errorf("output: writing %s: %w", path, err)
		}
	}
	if _, err := fmt.Fprintln(f); err != nil {
		return fmt.Errorf("output: writing %s: %w", path, err)
	}
	for _, v := range nl.VoltageSources {
		if _, err := fmt.Fprintf(f, "%s %g\n", v.Name, x[v.BranchRow]); err != nil {
			return fmt.Errorf("output: writing %s: %w", path, err)
		}
	}
	for _, l := range nl.Inductors {
		if _, err := fmt.Fprintf(f, "%s %g\n", l.Name, x[l.BranchRow]); err != nil {
			return fmt.Errorf("output: writing %s: %w", path, err)
		}
	}
	return nil
}

// WriteDCSweepResult writes one two-column file per output node under dir,
// per spec.md 4.5. Output rows are in the order res already carries
// (strictly increasing src_value).
func WriteDCSweepResult(dir string, res *dcsweep.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output: creating %s: %w", dir, err)
	}
	nodeNames := sortedNodeNames(res.Points)
	for _, node := range nodeNames {
		path := filepath.Join(dir, dcSweepFileName(res.Sweep, node))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("output: creating %s: %w", path, err)
		}
		for _, p := range res.Points {
			if _, err := fmt.Fprintf(f, "%g %g\n", p.SourceValue, p.NodeValues[node]); err != nil {
				f.Close()
				return fmt.Errorf("output: writing %s: %w", path, err)
			}
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("output: closing %s: %w", path, err)
		}
	}
	return nil
}

// WriteTransientResult mirrors WriteDCSweepResult for a transient run.
func WriteTransientResult(dir string, res *transient.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output: creating %s: %w", dir, err)
	}
	nodeNames := sortedTransientNodeNames(res.Samples)
	for _, node := range nodeNames {
		path := filepath.Join(dir, transientFileName(res.Spec, node))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("output: creating %s: %w", path, err)
		}
		for _, s := range res.Samples {
			if _, err := fmt.Fprintf(f, "%g %g\n", s.Time, s.NodeValues[node]); err != nil {
				f.Close()
				return fmt.Errorf("output: writing %s: %w", path, err)
			}
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("output: closing %s: %w", path, err)
		}
	}
	return nil
}

func sortedNodeNames(points []dcsweep.Point) []string {
	if len(points) == 0 {
		return nil
	}
	names := make([]string, 0, len(points[0].NodeValues))
	for name := range points[0].NodeValues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedTransientNodeNames(samples []transient.Sample) []string {
	if len(samples) == 0 {
		return nil
	}
	names := make([]string, 0, len(samples[0].NodeValues))
	for name := range samples[0].NodeValues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteNetlistEcho copies the input netlist into the output directory. When
// bypassOptions is set, .OPTIONS lines are dropped from the echo since the
// run used command-line flags instead, per spec.md 6.
func WriteNetlistEcho(path, source string, bypassOptions bool) error {
	content := source
	if bypassOptions {
		var kept []string
		for _, line := range strings.Split(source, "\n") {
			if strings.HasPrefix(strings.TrimSpace(strings.ToUpper(line)), ".OPTIONS") {
				continue
			}
			kept = append(kept, line)
		}
		content = strings.Join(kept, "\n")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("output: writing %s: %w", path, err)
	}
	return nil
}
