package engine

import (
	"fmt"
	"strings"

	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
)

// GroupCombiner folds the per-group AND results into the rule verdict.
// The default is OR (a rule is a disjunction of conjunction groups);
// kept pluggable because the grouping semantics are catalog convention,
// not schema.
type GroupCombiner func(groups []bool) bool

func orGroups(groups []bool) bool {
	for _, g := range groups {
		if g {
			return true
		}
	}
	return false
}

// evalConditions evaluates a rule's condition rows against the context.
// Zero conditions means the rule is unconditional. Any resolver or
// operator fault fails the whole rule closed and is reported to the
// caller for the audit trail.
func evalConditions(snap *tariffdomain.Snapshot, ctx Context, rule tariffdomain.Rule, combine GroupCombiner) (bool, error) {
	if len(rule.Conditions) == 0 {
		return true, nil
	}

	// Conditions arrive sorted by (group, order); walk group runs.
	var groups []bool
	i := 0
	for i < len(rule.Conditions) {
		group := rule.Conditions[i].Group
		pass := true
		for i < len(rule.Conditions) && rule.Conditions[i].Group == group {
			ok, err := evalCondition(snap, ctx, rule.Conditions[i])
			if err != nil {
				return false, err
			}
			pass = pass && ok
			i++
		}
		groups = append(groups, pass)
	}

	if combine == nil {
		combine = orGroups
	}
	return combine(groups), nil
}

func evalCondition(snap *tariffdomain.Snapshot, ctx Context, cond tariffdomain.Condition) (bool, error) {
	value, err := resolveVariable(snap, ctx, cond.VariableCode)
	if err != nil {
		return false, err
	}

	result, err := applyOperator(value, cond)
	if err != nil {
		return false, err
	}
	if cond.Negated {
		result = !result
	}
	return result, nil
}

func applyOperator(value Value, cond tariffdomain.Condition) (bool, error) {
	switch cond.Operator {
	case tariffdomain.OpEq, tariffdomain.OpNe:
		operand, err := parseOperand(value.Kind, cond.Value1)
		if err != nil {
			return false, err
		}
		eq := valuesEqual(value, operand)
		if cond.Operator == tariffdomain.OpNe {
			return !eq, nil
		}
		return eq, nil

	case tariffdomain.OpGt, tariffdomain.OpGe, tariffdomain.OpLt, tariffdomain.OpLe:
		operand, err := parseOperand(value.Kind, cond.Value1)
		if err != nil {
			return false, err
		}
		cmp, err := compareValues(value, operand)
		if err != nil {
			return false, err
		}
		switch cond.Operator {
		case tariffdomain.OpGt:
			return cmp > 0, nil
		case tariffdomain.OpGe:
			return cmp >= 0, nil
		case tariffdomain.OpLt:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}

	case tariffdomain.OpBetween:
		low, err := parseOperand(value.Kind, cond.Value1)
		if err != nil {
			return false, err
		}
		high, err := parseOperand(value.Kind, cond.Value2)
		if err != nil {
			return false, err
		}
		cmpLow, err := compareValues(value, low)
		if err != nil {
			return false, err
		}
		cmpHigh, err := compareValues(value, high)
		if err != nil {
			return false, err
		}
		// Inclusive on both bounds.
		return cmpLow >= 0 && cmpHigh <= 0, nil

	case tariffdomain.OpIn, tariffdomain.OpNotIn:
		found := false
		for _, item := range strings.Split(cond.Value1, ",") {
			operand, err := parseOperand(value.Kind, item)
			if err != nil {
				return false, err
			}
			if valuesEqual(value, operand) {
				found = true
				break
			}
		}
		if cond.Operator == tariffdomain.OpNotIn {
			return !found, nil
		}
		return found, nil

	case tariffdomain.OpContains:
		if value.Kind != tariffdomain.DataText {
			return false, fmt.Errorf("%w: CONTAINS needs a text variable, got %s", ErrTypeMismatch, value.Kind)
		}
		return strings.Contains(value.Text, cond.Value1), nil
	}

	return false, fmt.Errorf("%w: unsupported operator %q", ErrTypeMismatch, cond.Operator)
}

func valuesEqual(a, b Value) bool {
	switch a.Kind {
	case tariffdomain.DataInt:
		return a.Int == b.Int
	case tariffdomain.DataDecimal:
		return a.Dec.Equal(b.Dec)
	case tariffdomain.DataText:
		return a.Text == b.Text
	case tariffdomain.DataBool:
		return a.Bool == b.Bool
	case tariffdomain.DataDate:
		return a.Date.Equal(b.Date)
	}
	return false
}

// compareValues orders two values of the same kind. BOOL has no
// ordering, only equality.
func compareValues(a, b Value) (int, error) {
	switch a.Kind {
	case tariffdomain.DataInt:
		switch {
		case a.Int < b.Int:
			return -1, nil
		case a.Int > b.Int:
			return 1, nil
		}
		return 0, nil
	case tariffdomain.DataDecimal:
		return a.Dec.Cmp(b.Dec), nil
	case tariffdomain.DataText:
		return strings.Compare(a.Text, b.Text), nil
	case tariffdomain.DataDate:
		switch {
		case a.Date.Before(b.Date):
			return -1, nil
		case a.Date.After(b.Date):
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %s values have no ordering", ErrTypeMismatch, a.Kind)
}
