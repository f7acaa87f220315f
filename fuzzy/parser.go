package fuzzy

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Parse reads a subset of fuzzylite's FLL text format: InputVariable/
// OutputVariable blocks with a range and Triangle/Trapezoid terms, and a
// single RuleBlock of AND-only "if ... then ..." rules. This mirrors the
// shape of fl::FllImporter well enough to load the same rule file the
// original engine does (Engine/PriorityEvaluator.cpp's
// fl::FllImporter().fromString), without pulling in the full fuzzylite
// grammar (weighted hedges, OR, accumulation/defuzzifier directives are not
// supported — none of object-priorities.txt uses them).
func Parse(text string) (*Engine, error) {
	e := NewEngine()

	var current *Variable
	var currentIsOutput bool

	lines := strings.Split(text, "\n")
	for lineNo, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "Engine:"):
			continue

		case strings.HasPrefix(line, "InputVariable:"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "InputVariable:"))
			current = &Variable{Name: name}
			currentIsOutput = false
			e.Inputs[name] = current

		case strings.HasPrefix(line, "OutputVariable:"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "OutputVariable:"))
			current = &Variable{Name: name}
			currentIsOutput = true
			e.Outputs[name] = current

		case strings.HasPrefix(line, "RuleBlock:"):
			current = nil

		case strings.HasPrefix(line, "rule:"):
			r, err := parseRule(strings.TrimSpace(strings.TrimPrefix(line, "rule:")))
			if err != nil {
				return nil, fmt.Errorf("fuzzy: line %d: %w", lineNo+1, err)
			}
			e.Rules = append(e.Rules, r)

		case strings.HasPrefix(line, "range:"):
			if current == nil {
				return nil, fmt.Errorf("fuzzy: line %d: range outside a variable block", lineNo+1)
			}
			fields := strings.Fields(strings.TrimPrefix(line, "range:"))
			if len(fields) != 2 {
				return nil, fmt.Errorf("fuzzy: line %d: range needs two bounds", lineNo+1)
			}
			min, err1 := strconv.ParseFloat(fields[0], 64)
			max, err2 := strconv.ParseFloat(fields[1], 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("fuzzy: line %d: invalid range bounds", lineNo+1)
			}
			current.Min, current.Max = min, max

		case strings.HasPrefix(line, "term:"):
			if current == nil {
				return nil, fmt.Errorf("fuzzy: line %d: term outside a variable block", lineNo+1)
			}
			term, err := parseTerm(strings.Fields(strings.TrimPrefix(line, "term:")))
			if err != nil {
				return nil, fmt.Errorf("fuzzy: line %d: %w", lineNo+1, err)
			}
			current.Terms = append(current.Terms, term)

		case strings.HasPrefix(line, "enabled:"), strings.HasPrefix(line, "default:"),
			strings.HasPrefix(line, "lock-range:"), strings.HasPrefix(line, "lock-previous:"),
			strings.HasPrefix(line, "activation:"), strings.HasPrefix(line, "conjunction:"),
			strings.HasPrefix(line, "disjunction:"), strings.HasPrefix(line, "implication:"),
			strings.HasPrefix(line, "aggregation:"), strings.HasPrefix(line, "defuzzifier:"):
			// Directives this engine doesn't need: Mamdani min-conjunction,
			// max-aggregation and centroid defuzzification are the only
			// behavior this package implements.
			continue

		default:
			return nil, fmt.Errorf("fuzzy: line %d: unrecognized directive %q", lineNo+1, line)
		}

		_ = currentIsOutput
	}

	return e, nil
}

func parseTerm(fields []string) (Term, error) {
	if len(fields) < 2 {
		return Term{}, fmt.Errorf("term needs a name and a shape")
	}
	name := fields[0]
	shapeName := fields[1]
	params := fields[2:]

	var shape Shape
	var want int
	switch shapeName {
	case "Triangle":
		shape, want = ShapeTriangle, 3
	case "Trapezoid":
		shape, want = ShapeTrapezoid, 4
	default:
		return Term{}, fmt.Errorf("unsupported term shape %q", shapeName)
	}
	if len(params) != want {
		return Term{}, fmt.Errorf("term %q: %s needs %d params, got %d", name, shapeName, want, len(params))
	}

	values := make([]float64, want)
	for i, p := range params {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Term{}, fmt.Errorf("term %q: invalid param %q", name, p)
		}
		values[i] = v
	}
	return Term{Name: name, Shape: shape, Params: values}, nil
}

// parseRule parses "if <v1> is <t1> [and <v2> is <t2> ...] then <out> is <term>"
// into a Rule. Weight syntax ("with 0.5") is accepted but optional.
func parseRule(body string) (Rule, error) {
	weight := 1.0
	if idx := strings.Index(body, " with "); idx >= 0 {
		w, err := strconv.ParseFloat(strings.TrimSpace(body[idx+len(" with "):]), 64)
		if err != nil {
			return Rule{}, fmt.Errorf("invalid rule weight: %w", err)
		}
		weight = w
		body = body[:idx]
	}

	body = strings.TrimPrefix(body, "if ")
	parts := strings.SplitN(body, " then ", 2)
	if len(parts) != 2 {
		return Rule{}, fmt.Errorf("rule missing 'then': %q", body)
	}

	antecedentClauses := strings.Split(parts[0], " and ")
	var antecedents []Clause
	for _, c := range antecedentClauses {
		clause, err := parseClause(c)
		if err != nil {
			return Rule{}, err
		}
		antecedents = append(antecedents, clause)
	}

	consequent, err := parseClause(parts[1])
	if err != nil {
		return Rule{}, err
	}

	return Rule{Antecedents: antecedents, Consequent: consequent, Weight: weight}, nil
}

func parseClause(s string) (Clause, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 3 || fields[1] != "is" {
		return Clause{}, fmt.Errorf("malformed clause %q, want '<var> is <term>'", s)
	}
	return Clause{Variable: fields[0], Term: fields[2]}, nil
}

// LoadFile reads and parses an FLL-subset rule file from disk (spec §6
// config/ai/object-priorities.txt).
func LoadFile(path string) (*Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("fuzzy: opening rule file: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("fuzzy: reading rule file: %w", err)
	}

	return Parse(sb.String())
}
