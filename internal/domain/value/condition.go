package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition is a parsed three-token step condition of the form
// "<factorKey> <operator> <number>".
type Condition struct {
	FactorKey string
	Operator  string
	Threshold float64
}

const conditionTokens = 3

// ParseCondition parses a raw condition expression. Supported operators are
// >, <, >=, <= and ==.
func ParseCondition(raw string) (Condition, error) {
	tokens := strings.Fields(raw)
	if len(tokens) != conditionTokens {
		return Condition{}, fmt.Errorf("condition %q: want 3 tokens, got %d", raw, len(tokens))
	}

	switch tokens[1] {
	case ">", "<", ">=", "<=", "==":
	default:
		return Condition{}, fmt.Errorf("condition %q: unknown operator %q", raw, tokens[1])
	}

	threshold, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return Condition{}, fmt.Errorf("condition %q: threshold: %w", raw, err)
	}

	return Condition{
		FactorKey: tokens[0],
		Operator:  tokens[1],
		Threshold: threshold,
	}, nil
}

// Eval evaluates the condition against the risk factors. A missing factor
// evaluates to false.
func (c Condition) Eval(factors RiskFactors) bool {
	v, ok := factors.Lookup(c.FactorKey)
	if !ok {
		return false
	}

	switch c.Operator {
	case ">":
		return v > c.Threshold
	case "<":
		return v < c.Threshold
	case ">=":
		return v >= c.Threshold
	case "<=":
		return v <= c.Threshold
	case "==":
		return v == c.Threshold
	}

	return false
}
