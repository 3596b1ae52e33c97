package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucidcircuit/spicesim/pkg/nodetable"
)

var unitMap = map[string]float64{
	"T":   1e12,
	"G":   1e9,
	"meg": 1e6,
	"K":   1e3,
	"k":   1e3,
	"m":   1e-3,
	"u":   1e-6,
	"n":   1e-9,
	"p":   1e-12,
	"f":   1e-15,
}

var valueRe = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|[TGKkmunpf])?$`)

// ParseValue converts a SPICE-style numeric literal with an optional unit
// suffix (1k -> 1000, 2.2u -> 2.2e-6) into a float64.
func ParseValue(val string) (float64, error) {
	matches := valueRe.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	if matches[2] != "" {
		if multiplier, ok := unitMap[matches[2]]; ok {
			num *= multiplier
		}
	}

	return num, nil
}

// ParseResult is everything a successful parse produces: the node
// bijection, the typed netlist, and the parsed command list.
type ParseResult struct {
	Nodes    *nodetable.Table
	Netlist  *Netlist
	Commands *Commands
}

// Parse reads a netlist file's contents and builds the node table, netlist,
// and command list per the grammar in spec.md 6. The first non-comment,
// non-empty line is not special-cased as a title (unlike the original SPICE
// convention) since spec.md's grammar has no title line.
func Parse(input string) (*ParseResult, error) {
	nodes := nodetable.New()
	nl := New()
	cmds := NewCommands()

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}

		var err error
		if strings.HasPrefix(line, ".") {
			err = parseDirective(cmds, nl, line)
		} else {
			err = parseElementLine(nl, nodes, line)
		}
		if err != nil {
			return nil, fmt.Errorf("netlist: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("netlist: reading input: %w", err)
	}

	for _, sw := range cmds.DCSweeps {
		switch sw.Kind {
		case VoltageSweep:
			if nl.FindVoltageSource(sw.SourceName) == nil {
				return nil, fmt.Errorf("netlist: .DC references undeclared voltage source %q", sw.SourceName)
			}
		case CurrentSweep:
			if nl.FindCurrentSource(sw.SourceName) == nil {
				return nil, fmt.Errorf("netlist: .DC references undeclared current source %q", sw.SourceName)
			}
		}
	}

	if err := cmds.Options.Validate(); err != nil {
		return nil, err
	}

	nl.AssignBranchRows(nodes.Count())

	return &ParseResult{Nodes: nodes, Netlist: nl, Commands: cmds}, nil
}

func parseElementLine(nl *Netlist, nodes *nodetable.Table, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return fmt.Errorf("malformed element line: %q", line)
	}
	name := fields[0]
	kind := strings.ToUpper(name[:1])

	switch kind {
	case "R":
		value, err := requireValue(fields, 3, "resistor")
		if err != nil {
			return err
		}
		return nl.AddResistor(&Resistor{Name: name, Pos: nodes.Lookup(fields[1]), Neg: nodes.Lookup(fields[2]), Value: value})
	case "C":
		value, err := requireValue(fields, 3, "capacitor")
		if err != nil {
			return err
		}
		return nl.AddCapacitor(&Capacitor{Name: name, Pos: nodes.Lookup(fields[1]), Neg: nodes.Lookup(fields[2]), Value: value})
	case "L":
		value, err := requireValue(fields, 3, "inductor")
		if err != nil {
			return err
		}
		return nl.AddInductor(&Inductor{Name: name, Pos: nodes.Lookup(fields[1]), Neg: nodes.Lookup(fields[2]), Value: value})
	case "V":
		return parseSource(fields, func(dc float64, wf *Waveform) error {
			return nl.AddVoltageSource(&VoltageSource{Name: name, Pos: nodes.Lookup(fields[1]), Neg: nodes.Lookup(fields[2]), DCValue: dc, Waveform: wf})
		})
	case "I":
		return parseSource(fields, func(dc float64, wf *Waveform) error {
			return nl.AddCurrentSource(&CurrentSource{Name: name, Pos: nodes.Lookup(fields[1]), Neg: nodes.Lookup(fields[2]), DCValue: dc, Waveform: wf})
		})
	case "D":
		if len(fields) < 3 {
			return fmt.Errorf("malformed diode line: %q", line)
		}
		d := &Diode{Name: name, Pos: nodes.Lookup(fields[1]), Neg: nodes.Lookup(fields[2])}
		if len(fields) > 3 {
			d.Model = fields[3]
		}
		return nl.AddDiode(d)
	case "M":
		if len(fields) < 5 {
			return fmt.Errorf("malformed MOS line: %q", line)
		}
		m := &MOS{
			Name: name,
			Drain: nodes.Lookup(fields[1]), Gate: nodes.Lookup(fields[2]),
			Source: nodes.Lookup(fields[3]), Bulk: nodes.Lookup(fields[4]),
		}
		if len(fields) > 5 {
			m.Model = fields[5]
		}
		return nl.AddMOS(m)
	case "Q":
		if len(fields) < 4 {
			return fmt.Errorf("malformed BJT line: %q", line)
		}
		q := &BJT{
			Name:      name,
			Collector: nodes.Lookup(fields[1]), Base: nodes.Lookup(fields[2]), Emitter: nodes.Lookup(fields[3]),
		}
		if len(fields) > 4 {
			q.Model = fields[4]
		}
		return nl.AddBJT(q)
	default:
		return fmt.Errorf("unrecognized element prefix %q", kind)
	}
}

func requireValue(fields []string, idx int, kind string) (float64, error) {
	if len(fields) <= idx {
		return 0, fmt.Errorf("%s %s: missing value", kind, fields[0])
	}
	v, err := ParseValue(fields[idx])
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", kind, fields[0], err)
	}
	return v, nil
}

// parseSource parses a V/I element's value field: either a bare DC literal
// or a waveform descriptor (EXP/SIN/PULSE/PWL), per spec.md 6.
func parseSource(fields []string, build func(dc float64, wf *Waveform) error) error {
	if len(fields) < 4 {
		return fmt.Errorf("source %s: missing value", fields[0])
	}

	remaining := strings.Join(fields[3:], " ")
	remaining = strings.ReplaceAll(remaining, "(", " ( ")
	remaining = strings.ReplaceAll(remaining, ")", " ) ")
	var words []string
	for _, w := range strings.Fields(remaining) {
		if w != "(" && w != ")" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return fmt.Errorf("source %s: missing value", fields[0])
	}

	switch strings.ToUpper(words[0]) {
	case "EXP":
		nums, err := numericArgs(words[1:], 6, fields[0], "EXP")
		if err != nil {
			return err
		}
		return build(nums[0], NewExp(nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]))
	case "SIN":
		nums, err := numericArgs(words[1:], 6, fields[0], "SIN")
		if err != nil {
			return err
		}
		return build(nums[0], NewSin(nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]))
	case "PULSE":
		nums, err := numericArgs(words[1:], 7, fields[0], "PULSE")
		if err != nil {
			return err
		}
		return build(nums[0], NewPulse(nums[0], nums[1], nums[2], nums[3], nums[4], nums[5], nums[6]))
	case "PWL":
		body := words[1:]
		if len(body) < 4 || len(body)%2 != 0 {
			return fmt.Errorf("source %s: PWL needs pairs of time-value points", fields[0])
		}
		n := len(body) / 2
		times := make([]float64, n)
		values := make([]float64, n)
		for i := 0; i < n; i++ {
			t, err := ParseValue(body[2*i])
			if err != nil {
				return fmt.Errorf("source %s: PWL time[%d]: %w", fields[0], i, err)
			}
			v, err := ParseValue(body[2*i+1])
			if err != nil {
				return fmt.Errorf("source %s: PWL value[%d]: %w", fields[0], i, err)
			}
			if i > 0 && t <= times[i-1] {
				return fmt.Errorf("source %s: PWL time points must be strictly increasing", fields[0])
			}
			times[i], values[i] = t, v
		}
		return build(values[0], NewPWL(times, values))
	default:
		value, err := ParseValue(words[0])
		if err != nil {
			return fmt.Errorf("source %s: %w", fields[0], err)
		}
		return build(value, nil)
	}
}

func numericArgs(words []string, n int, name, kind string) ([]float64, error) {
	if len(words) < n {
		return nil, fmt.Errorf("source %s: %s needs %d parameters", name, kind, n)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := ParseValue(words[i])
		if err != nil {
			return nil, fmt.Errorf("source %s: %s parameter %d: %w", name, kind, i, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseDirective(cmds *Commands, nl *Netlist, line string) error {
	fields := strings.Fields(line)
	switch strings.ToUpper(fields[0]) {
	case ".OPTIONS":
		cmds.OptionsSet = true
		for _, tok := range fields[1:] {
			upper := strings.ToUpper(tok)
			switch {
			case upper == "SPD":
				cmds.Options.SPD = true
			case upper == "CUSTOM":
				cmds.Options.Custom = true
			case upper == "SPARSE":
				cmds.Options.Sparse = true
			case upper == "ITER":
				cmds.Options.Iter = true
			case strings.HasPrefix(upper, "ITOL="):
				v, err := ParseValue(tok[len("ITOL="):])
				if err != nil {
					return fmt.Errorf(".OPTIONS: invalid ITOL: %w", err)
				}
				cmds.Options.ITol = v
			case strings.HasPrefix(upper, "METHOD="):
				switch strings.ToUpper(strings.TrimPrefix(upper, "METHOD=")) {
				case "BE":
					cmds.Options.TransientMethod = BackwardEuler
				case "TR":
					cmds.Options.TransientMethod = Trapezoidal
				default:
					return fmt.Errorf(".OPTIONS: unknown METHOD %q", tok)
				}
			default:
				return fmt.Errorf(".OPTIONS: unrecognized token %q", tok)
			}
		}
		return nil

	case ".DC":
		if len(fields) < 5 {
			return fmt.Errorf(".DC: expected <name> <start> <end> <step>")
		}
		start, err := ParseValue(fields[2])
		if err != nil {
			return fmt.Errorf(".DC: invalid start: %w", err)
		}
		end, err := ParseValue(fields[3])
		if err != nil {
			return fmt.Errorf(".DC: invalid end: %w", err)
		}
		step, err := ParseValue(fields[4])
		if err != nil {
			return fmt.Errorf(".DC: invalid step: %w", err)
		}
		kind := VoltageSweep
		if strings.HasPrefix(strings.ToUpper(fields[1]), "I") {
			kind = CurrentSweep
		}
		cmds.DCSweeps = append(cmds.DCSweeps, DCSweep{Kind: kind, SourceName: fields[1], Start: start, End: end, Step: step})
		return nil

	case ".TRAN":
		if len(fields) < 3 {
			return fmt.Errorf(".TRAN: expected <time_step> <fin_time>")
		}
		step, err := ParseValue(fields[1])
		if err != nil {
			return fmt.Errorf(".TRAN: invalid time_step: %w", err)
		}
		fin, err := ParseValue(fields[2])
		if err != nil {
			return fmt.Errorf(".TRAN: invalid fin_time: %w", err)
		}
		cmds.Transients = append(cmds.Transients, TransientSpec{TimeStep: step, FinTime: fin})
		return nil

	case ".PRINT":
		nodesOut, err := parseOutputNodes(fields[1:])
		if err != nil {
			return fmt.Errorf(".PRINT: %w", err)
		}
		cmds.PrintNodes = append(cmds.PrintNodes, nodesOut...)
		return nil

	case ".PLOT":
		nodesOut, err := parseOutputNodes(fields[1:])
		if err != nil {
			return fmt.Errorf(".PLOT: %w", err)
		}
		cmds.PlotNodes = append(cmds.PlotNodes, nodesOut...)
		return nil

	default:
		return fmt.Errorf("unrecognized directive %q", fields[0])
	}
}

var outputNodeRe = regexp.MustCompile(`(?i)^V\(([^)]+)\)$`)

func parseOutputNodes(tokens []string) ([]OutputNode, error) {
	var out []OutputNode
	for _, tok := range tokens {
		m := outputNodeRe.FindStringSubmatch(tok)
		if m == nil {
			return nil, fmt.Errorf("malformed node reference %q", tok)
		}
		out = append(out, OutputNode{Node: m[1]})
	}
	return out, nil
}
