package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
)

// Status is the terminal state of one (insurer, product) evaluation.
type Status string

const (
	StatusPriced   Status = "PRICED"
	StatusRejected Status = "REJECTED"
	StatusErrored  Status = "ERRORED"
)

// Outcome records how a single rule resolved in the audit trail.
type Outcome string

const (
	OutcomeApplied    Outcome = "APLICO"
	OutcomeNotApplied Outcome = "NO_APLICO"
	OutcomeRejected   Outcome = "RECHAZO"
)

// RuleTrace is one audit-trail row: every evaluated rule produces one,
// matched or not.
type RuleTrace struct {
	RuleID   snowflake.ID          `json:"rule_id"`
	RuleName string                `json:"rule_name"`
	RuleType tariffdomain.RuleType `json:"rule_type"`
	Outcome  Outcome               `json:"outcome"`
	Value    string                `json:"value,omitempty"`
	Message  string                `json:"message,omitempty"`
	Order    int                   `json:"order"`
}

// Evaluation is the engine's output for one combination.
type Evaluation struct {
	Status          Status
	Accum           *Accumulator
	Trace           []RuleTrace
	RejectMessage   string
	UsedDefaultBase bool
	Err             error
}

// Engine evaluates a product's rules against a quote context. It holds
// only immutable state and is safe for concurrent use.
type Engine struct {
	snap        *tariffdomain.Snapshot
	defaultBase decimal.Decimal
	combine     GroupCombiner
}

func New(snap *tariffdomain.Snapshot, defaultBase decimal.Decimal) *Engine {
	return &Engine{snap: snap, defaultBase: defaultBase}
}

// WithGroupCombiner overrides the OR-of-AND-groups condition semantics.
func (e *Engine) WithGroupCombiner(combine GroupCombiner) *Engine {
	e.combine = combine
	return e
}

// Evaluate walks the product's active rules in (type, priority desc,
// id) order, short-circuiting on reject. Resolver faults on a single
// rule fail that rule closed; a dangling catalog reference errors the
// whole combination.
func (e *Engine) Evaluate(productID snowflake.ID, ctx Context) Evaluation {
	acc := NewAccumulator()
	var trace []RuleTrace
	skipType := make(map[tariffdomain.RuleType]bool)

	for i, rule := range e.snap.Rules[productID] {
		order := i + 1

		if skipType[rule.Type] {
			trace = append(trace, RuleTrace{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				RuleType: rule.Type,
				Outcome:  OutcomeNotApplied,
				Message:  "omitted: first match already applied for this rule type",
				Order:    order,
			})
			continue
		}

		pass, err := evalConditions(e.snap, ctx, rule, e.combine)
		if err != nil {
			// Fail closed: the rule does not apply, evaluation goes on.
			trace = append(trace, RuleTrace{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				RuleType: rule.Type,
				Outcome:  OutcomeNotApplied,
				Message:  fmt.Sprintf("condition error: %v", err),
				Order:    order,
			})
			continue
		}
		if !pass {
			trace = append(trace, RuleTrace{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				RuleType: rule.Type,
				Outcome:  OutcomeNotApplied,
				Message:  "conditions not satisfied",
				Order:    order,
			})
			continue
		}

		applied, lastValue, failures, err := execActions(e.snap, ctx, rule, acc)
		if err != nil {
			var reject errReject
			if errors.As(err, &reject) {
				trace = append(trace, RuleTrace{
					RuleID:   rule.ID,
					RuleName: rule.Name,
					RuleType: rule.Type,
					Outcome:  OutcomeRejected,
					Message:  reject.message,
					Order:    order,
				})
				return Evaluation{
					Status:        StatusRejected,
					Accum:         acc,
					Trace:         trace,
					RejectMessage: reject.message,
				}
			}
			trace = append(trace, RuleTrace{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				RuleType: rule.Type,
				Outcome:  OutcomeNotApplied,
				Message:  err.Error(),
				Order:    order,
			})
			return Evaluation{Status: StatusErrored, Accum: acc, Trace: trace, Err: err}
		}

		outcome := OutcomeNotApplied
		if applied {
			outcome = OutcomeApplied
			if rule.Mode == tariffdomain.FirstMatch {
				skipType[rule.Type] = true
			}
		}
		trace = append(trace, RuleTrace{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			RuleType: rule.Type,
			Outcome:  outcome,
			Value:    lastValue,
			Message:  strings.Join(failures, "; "),
			Order:    order,
		})
	}

	usedDefault := false
	if !acc.WasSet(FieldBasePremium) && !acc.WasSet(FieldNetPremium) {
		acc.Set(FieldBasePremium, e.defaultBase)
		usedDefault = true
	}

	return Evaluation{
		Status:          StatusPriced,
		Accum:           acc,
		Trace:           trace,
		UsedDefaultBase: usedDefault,
	}
}
