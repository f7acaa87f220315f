// Package fuzzy implements a minimal Mamdani fuzzy inference engine:
// triangular/trapezoidal membership functions, AND-only rule antecedents,
// max-aggregation, and centroid defuzzification. No fuzzy-logic library
// turned up anywhere in the retrieved example pack, so this is hand-rolled
// rather than wrapped, the one piece of the core built on the standard
// library by necessity (see DESIGN.md).
//
// Grounded on Engine/PriorityEvaluator.cpp's use of the fuzzylite library
// (fl::FllImporter, InputVariable/OutputVariable/engine->process()) — this
// package exposes the same borrow/SetInput/Process/Output shape, and its
// rule-file parser accepts a subset of fuzzylite's FLL text format so the
// external config file's syntax doesn't have to change.
package fuzzy

import "fmt"

// Shape is a membership function family.
type Shape int

const (
	ShapeTriangle Shape = iota
	ShapeTrapezoid
)

// Term is one named fuzzy set over a variable's domain.
type Term struct {
	Name   string
	Shape  Shape
	Params []float64
}

// Degree returns the membership degree of x in this term, 0..1.
func (t Term) Degree(x float64) float64 {
	switch t.Shape {
	case ShapeTriangle:
		return triangle(x, t.Params[0], t.Params[1], t.Params[2])
	case ShapeTrapezoid:
		return trapezoid(x, t.Params[0], t.Params[1], t.Params[2], t.Params[3])
	default:
		return 0
	}
}

func triangle(x, a, b, c float64) float64 {
	if x == b {
		return 1
	}
	if x <= a || x >= c {
		return 0
	}
	if x < b {
		return (x - a) / (b - a)
	}
	return (c - x) / (c - b)
}

func trapezoid(x, a, b, c, d float64) float64 {
	if x <= a || x >= d {
		return 0
	}
	if x >= b && x <= c {
		return 1
	}
	if x < b {
		return (x - a) / (b - a)
	}
	return (d - x) / (d - c)
}

// Variable is a named domain with a set of terms.
type Variable struct {
	Name string
	Min  float64
	Max  float64
	Terms []Term
}

func (v *Variable) term(name string) (Term, bool) {
	for _, t := range v.Terms {
		if t.Name == name {
			return t, true
		}
	}
	return Term{}, false
}

// Clause is one "variable is term" antecedent or consequent fragment.
type Clause struct {
	Variable string
	Term     string
}

// Rule is an AND-only antecedent list with a single consequent, matching
// the shape every rule in the original object-priorities rule base uses.
type Rule struct {
	Antecedents []Clause
	Consequent  Clause
	Weight      float64
}

// Engine holds a loaded rule base: input/output variables and rules.
type Engine struct {
	Inputs  map[string]*Variable
	Outputs map[string]*Variable
	Rules   []Rule

	values  map[string]float64
	results map[string]float64
}

// NewEngine builds an empty engine; Parse populates one from an FLL-subset
// text file.
func NewEngine() *Engine {
	return &Engine{
		Inputs:  map[string]*Variable{},
		Outputs: map[string]*Variable{},
		values:  map[string]float64{},
		results: map[string]float64{},
	}
}

// SetInput assigns a crisp value to a named input variable.
func (e *Engine) SetInput(name string, value float64) error {
	if _, ok := e.Inputs[name]; !ok {
		return fmt.Errorf("fuzzy: unknown input variable %q", name)
	}
	e.values[name] = value
	return nil
}

// Clone returns a new Engine sharing the same variables and rules (both
// read-only after Parse) but with its own input/output value maps, so each
// PriorityEvaluator in a SharedPool can SetInput/Process concurrently
// without racing another borrower.
func (e *Engine) Clone() *Engine {
	return &Engine{
		Inputs:  e.Inputs,
		Outputs: e.Outputs,
		Rules:   e.Rules,
		values:  map[string]float64{},
		results: map[string]float64{},
	}
}

// Output returns a named output variable's most recently processed crisp
// value.
func (e *Engine) Output(name string) (float64, error) {
	v, ok := e.results[name]
	if !ok {
		return 0, fmt.Errorf("fuzzy: output variable %q was never processed", name)
	}
	return v, nil
}

// samples is the centroid discretization resolution; fine enough for the
// triangular/trapezoidal shapes this rule base uses, coarse enough to stay
// cheap per evaluation.
const samples = 200

// Process fires every rule, aggregates each output variable's clipped
// membership by taking the max across firing rules, and defuzzifies by
// centroid.
func (e *Engine) Process() error {
	firing := make([]float64, len(e.Rules))
	for i, r := range e.Rules {
		strength := 1.0
		for _, a := range r.Antecedents {
			v, ok := e.Inputs[a.Variable]
			if !ok {
				return fmt.Errorf("fuzzy: rule references unknown input %q", a.Variable)
			}
			term, ok := v.term(a.Term)
			if !ok {
				return fmt.Errorf("fuzzy: rule references unknown term %q on %q", a.Term, a.Variable)
			}
			degree := term.Degree(e.values[a.Variable])
			if degree < strength {
				strength = degree
			}
		}
		firing[i] = strength * r.Weight
	}

	for name, out := range e.Outputs {
		e.results[name] = defuzzifyCentroid(out, e.Rules, firing, name)
	}
	return nil
}

func defuzzifyCentroid(out *Variable, rules []Rule, firing []float64, outputName string) float64 {
	if out.Max <= out.Min {
		return out.Min
	}

	step := (out.Max - out.Min) / float64(samples)
	var numerator, denominator float64
	for i := 0; i <= samples; i++ {
		x := out.Min + step*float64(i)

		aggregated := 0.0
		for ri, r := range rules {
			if r.Consequent.Variable != outputName || firing[ri] <= 0 {
				continue
			}
			term, ok := out.term(r.Consequent.Term)
			if !ok {
				continue
			}
			clipped := term.Degree(x)
			if clipped > firing[ri] {
				clipped = firing[ri]
			}
			if clipped > aggregated {
				aggregated = clipped
			}
		}

		numerator += x * aggregated
		denominator += aggregated
	}

	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
