package playbook

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/theirongolddev/budgetlens/internal/model"
)

// Op is a comparison operator.
type Op string

// Supported operators. present and absent ignore Value.
const (
	OpGT      Op = "gt"
	OpGTE     Op = "gte"
	OpLT      Op = "lt"
	OpLTE     Op = "lte"
	OpEQ      Op = "eq"
	OpNE      Op = "ne"
	OpPresent Op = "present"
	OpAbsent  Op = "absent"
)

const eqTolerance = 1e-9

// Condition is a node of the applies_if tree. Exactly one of All, Any,
// Not, or Metric is set.
type Condition struct {
	All    []Condition `yaml:"all,omitempty"`
	Any    []Condition `yaml:"any,omitempty"`
	Not    *Condition  `yaml:"not,omitempty"`
	Metric string      `yaml:"metric,omitempty"`
	Op     Op          `yaml:"op,omitempty"`
	Value  float64     `yaml:"value,omitempty"`
}

// Validate checks the tree shape, metric names and operators.
func (c *Condition) Validate() error {
	set := 0
	if c.All != nil {
		set++
	}
	if c.Any != nil {
		set++
	}
	if c.Not != nil {
		set++
	}
	if c.Metric != "" {
		set++
	}
	if set != 1 {
		return errors.New("condition must set exactly one of all, any, not, metric")
	}

	switch {
	case c.All != nil:
		return validateList("all", c.All)
	case c.Any != nil:
		return validateList("any", c.Any)
	case c.Not != nil:
		if err := c.Not.Validate(); err != nil {
			return fmt.Errorf("not: %w", err)
		}
		return nil
	}

	if !slices.Contains(model.SummaryMetrics, c.Metric) {
		return fmt.Errorf("unknown metric %q", c.Metric)
	}
	switch c.Op {
	case OpGT, OpGTE, OpLT, OpLTE, OpEQ, OpNE, OpPresent, OpAbsent:
		return nil
	case "":
		return fmt.Errorf("metric %q: missing op", c.Metric)
	default:
		return fmt.Errorf("metric %q: unknown op %q", c.Metric, c.Op)
	}
}

func validateList(name string, conds []Condition) error {
	if len(conds) == 0 {
		return fmt.Errorf("%s: empty list", name)
	}
	for i := range conds {
		if err := conds[i].Validate(); err != nil {
			return fmt.Errorf("%s[%d]: %w", name, i, err)
		}
	}
	return nil
}

// Eval evaluates the condition against a summary. Comparisons on a
// metric the summary does not carry are false; present/absent test for it.
func (c *Condition) Eval(s model.Summary) bool {
	switch {
	case c.All != nil:
		for i := range c.All {
			if !c.All[i].Eval(s) {
				return false
			}
		}
		return true
	case c.Any != nil:
		for i := range c.Any {
			if c.Any[i].Eval(s) {
				return true
			}
		}
		return false
	case c.Not != nil:
		return !c.Not.Eval(s)
	}

	v, ok := s.Metric(c.Metric)
	switch c.Op {
	case OpPresent:
		return ok
	case OpAbsent:
		return !ok
	}
	if !ok {
		return false
	}
	switch c.Op {
	case OpGT:
		return v > c.Value
	case OpGTE:
		return v >= c.Value
	case OpLT:
		return v < c.Value
	case OpLTE:
		return v <= c.Value
	case OpEQ:
		return math.Abs(v-c.Value) <= eqTolerance
	case OpNE:
		return math.Abs(v-c.Value) > eqTolerance
	}
	return false
}
