package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
)

// Accumulator field names. Actions may target any field; these are the
// ones the totals formula reads.
const (
	FieldBasePremium = "prima_base"
	FieldFactorTotal = "factor_total"
	FieldNetPremium  = "prima_neta"
	FieldFees        = "derechos"
	FieldSurcharges  = "recargos"
	FieldDiscounts   = "descuentos"
)

// Accumulator is the per-evaluation set of named running totals. It is
// a plain value owned by one evaluation, never shared across
// combinations. Every field starts at zero except factor_total, which
// starts at one so multiplicative rules compose.
type Accumulator struct {
	values map[string]decimal.Decimal
	dirty  map[string]bool
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		values: map[string]decimal.Decimal{
			FieldFactorTotal: decimal.NewFromInt(1),
		},
		dirty: make(map[string]bool),
	}
}

func (a *Accumulator) Get(field string) decimal.Decimal {
	return a.values[field]
}

func (a *Accumulator) Set(field string, v decimal.Decimal) {
	a.values[field] = v
	a.dirty[field] = true
}

func (a *Accumulator) Add(field string, v decimal.Decimal) {
	a.Set(field, a.values[field].Add(v))
}

func (a *Accumulator) Multiply(field string, v decimal.Decimal) {
	current, ok := a.values[field]
	if !ok {
		current = decimal.Zero
	}
	a.Set(field, current.Mul(v))
}

// WasSet reports whether any action explicitly wrote the field.
func (a *Accumulator) WasSet(field string) bool {
	return a.dirty[field]
}

// Fields returns the touched field names in stable order.
func (a *Accumulator) Fields() []string {
	names := make([]string, 0, len(a.dirty))
	for name := range a.dirty {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// errReject carries a reject action's message up to the rule engine.
type errReject struct{ message string }

func (e errReject) Error() string { return e.message }

// execActions runs a matched rule's actions in order against the
// accumulator. The returned string is the last applied value, used for
// the audit trail. Resolver faults on a single action fail that action
// closed; a missing factor table aborts with ErrMissingCatalogRef; a
// reject action aborts with errReject.
func execActions(snap *tariffdomain.Snapshot, ctx Context, rule tariffdomain.Rule, acc *Accumulator) (applied bool, lastValue string, failures []string, err error) {
	for _, action := range rule.Actions {
		if action.Type == tariffdomain.ActionReject {
			message := action.Message
			if message == "" {
				message = fmt.Sprintf("rejected by rule %s", rule.Name)
			}
			return applied, lastValue, failures, errReject{message: message}
		}

		value, ok, execErr := actionValue(snap, ctx, action)
		if execErr != nil {
			if errors.Is(execErr, ErrMissingCatalogRef) {
				return applied, lastValue, failures, execErr
			}
			// Fail closed on this action only; the rest still run.
			failures = append(failures, execErr.Error())
			continue
		}
		if !ok {
			// Factor table NoMatch: target stays untouched.
			failures = append(failures, fmt.Sprintf("no range matched in table %s", action.TableRef))
			continue
		}

		value = roundValue(value, action.Rounding)
		value = clampValue(value, action.Min, action.Max)

		target := action.TargetField
		switch action.Type {
		case tariffdomain.ActionAddAmount:
			acc.Add(target, value)
		case tariffdomain.ActionApplyFactorTable:
			if combineMode(action) == tariffdomain.CombineMultiply {
				acc.Multiply(target, value)
			} else {
				acc.Set(target, value)
			}
		case tariffdomain.ActionSetFactor:
			// Under multiply-all the factors of successive matching
			// rules compose instead of overwriting each other.
			if rule.Mode == tariffdomain.MultiplyAll {
				acc.Multiply(target, value)
			} else {
				acc.Set(target, value)
			}
		default: // SET_MONTO, SET_PORCENTAJE
			acc.Set(target, value)
		}
		applied = true
		lastValue = acc.Get(target).String()
	}
	return applied, lastValue, failures, nil
}

// actionValue computes an action's raw value before rounding/clamping.
// The boolean mirrors factor-table NoMatch.
func actionValue(snap *tariffdomain.Snapshot, ctx Context, action tariffdomain.Action) (decimal.Decimal, bool, error) {
	switch action.Type {
	case tariffdomain.ActionApplyFactorTable:
		if action.TableRef == "" {
			return decimal.Zero, false, fmt.Errorf("%w: action %d has no factor table", ErrMissingCatalogRef, action.ID)
		}
		return resolveFactorTable(snap, ctx, action.TableRef)
	default:
		if !action.Value.Valid {
			return decimal.Zero, false, fmt.Errorf("%w: action %d has no value", ErrTypeMismatch, action.ID)
		}
		return action.Value.Decimal, true, nil
	}
}

// combineMode defaults apply-factor-table to multiply into factor_total
// and set anywhere else, unless the action says otherwise.
func combineMode(action tariffdomain.Action) tariffdomain.Combine {
	if action.Combine != "" {
		return action.Combine
	}
	if action.TargetField == FieldFactorTotal {
		return tariffdomain.CombineMultiply
	}
	return tariffdomain.CombineSet
}

// roundValue applies the action's rounding policy. Half-up throughout;
// never banker's rounding.
func roundValue(v decimal.Decimal, rounding tariffdomain.Rounding) decimal.Decimal {
	switch rounding {
	case tariffdomain.RoundTwoDec:
		return v.Round(2)
	case tariffdomain.RoundInteger:
		return v.Round(0)
	default:
		return v
	}
}

// clampValue clamps after rounding; clamping twice is a no-op.
func clampValue(v decimal.Decimal, min, max decimal.NullDecimal) decimal.Decimal {
	if min.Valid && v.Cmp(min.Decimal) < 0 {
		v = min.Decimal
	}
	if max.Valid && v.Cmp(max.Decimal) > 0 {
		v = max.Decimal
	}
	return v
}
