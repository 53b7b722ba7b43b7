package engine

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productID = snowflake.ID(100)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func intVar(id snowflake.ID, code string, origin tariffdomain.Origin) tariffdomain.Variable {
	return tariffdomain.Variable{ID: id, Code: code, Name: code, DataKind: tariffdomain.DataInt, Origin: origin, Active: true}
}

func driverContext(age int) Context {
	return Context{
		Driver: Attributes{"edad": age},
		Now:    time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

// pricingSnapshot builds the demo tariff: reject under 18, base 8500,
// age factor from a table, policy fees 450.
func pricingSnapshot() *tariffdomain.Snapshot {
	variables := []tariffdomain.Variable{intVar(1, "edad", tariffdomain.OriginDriver)}

	tables := []tariffdomain.FactorTable{{
		ID: 10, Name: "factor_edad", Kind: tariffdomain.TableFactor, Active: true,
		Ranges: []tariffdomain.FactorTableRange{
			{ID: 11, TableID: 10, Var1Code: "edad", Var1Min: nd("18"), Var1Max: nd("25"), Value: d("1.25"), Active: true},
			{ID: 12, TableID: 10, Var1Code: "edad", Var1Min: nd("26"), Var1Max: nd("60"), Value: d("1.10"), Active: true},
			{ID: 13, TableID: 10, Var1Code: "edad", Var1Min: nd("61"), Value: d("1.18"), Active: true},
		},
	}}

	rules := []tariffdomain.Rule{
		{
			ID: 20, ProductID: productID, Name: "Edad mínima", Type: tariffdomain.RuleEligibility,
			Mode: tariffdomain.FirstMatch, Active: true,
			Conditions: []tariffdomain.Condition{
				{ID: 21, RuleID: 20, VariableCode: "edad", Operator: tariffdomain.OpLt, Value1: "18", Group: 1, Order: 1},
			},
			Actions: []tariffdomain.Action{
				{ID: 22, RuleID: 20, Type: tariffdomain.ActionReject, Message: "Edad fuera del rango asegurable", Order: 1},
			},
		},
		{
			ID: 30, ProductID: productID, Name: "Prima base", Type: tariffdomain.RuleBasePremium,
			Mode: tariffdomain.FirstMatch, Active: true,
			Actions: []tariffdomain.Action{
				{ID: 31, RuleID: 30, Type: tariffdomain.ActionSetAmount, TargetField: FieldBasePremium, Value: nd("8500.00"), Rounding: tariffdomain.RoundTwoDec, Order: 1},
			},
		},
		{
			ID: 40, ProductID: productID, Name: "Factor por edad", Type: tariffdomain.RuleFactor,
			Mode: tariffdomain.MultiplyAll, Active: true,
			Actions: []tariffdomain.Action{
				{ID: 41, RuleID: 40, Type: tariffdomain.ActionApplyFactorTable, TargetField: FieldFactorTotal, TableRef: "factor_edad", Combine: tariffdomain.CombineMultiply, Order: 1},
			},
		},
		{
			ID: 50, ProductID: productID, Name: "Derechos de póliza", Type: tariffdomain.RuleFee,
			Mode: tariffdomain.FirstMatch, Active: true,
			Actions: []tariffdomain.Action{
				{ID: 51, RuleID: 50, Type: tariffdomain.ActionSetAmount, TargetField: FieldFees, Value: nd("450.00"), Rounding: tariffdomain.RoundTwoDec, Order: 1},
			},
		},
	}

	return tariffdomain.NewSnapshot(variables, tables, rules, nil, nil)
}

func TestEvaluate_PricesAdultDriver(t *testing.T) {
	eng := New(pricingSnapshot(), d("8500.00"))

	eval := eng.Evaluate(productID, driverContext(30))

	require.Equal(t, StatusPriced, eval.Status)
	assert.False(t, eval.UsedDefaultBase)
	assert.True(t, d("8500").Equal(eval.Accum.Get(FieldBasePremium)))
	assert.True(t, d("1.10").Equal(eval.Accum.Get(FieldFactorTotal)))
	assert.True(t, d("450").Equal(eval.Accum.Get(FieldFees)))

	require.Len(t, eval.Trace, 4)
	assert.Equal(t, OutcomeNotApplied, eval.Trace[0].Outcome) // eligibility did not match
	assert.Equal(t, OutcomeApplied, eval.Trace[1].Outcome)
	assert.Equal(t, OutcomeApplied, eval.Trace[2].Outcome)
	assert.Equal(t, OutcomeApplied, eval.Trace[3].Outcome)
	for i, trace := range eval.Trace {
		assert.Equal(t, i+1, trace.Order)
	}
}

func TestEvaluate_RejectsUnderageDriver(t *testing.T) {
	eng := New(pricingSnapshot(), d("8500.00"))

	eval := eng.Evaluate(productID, driverContext(17))

	require.Equal(t, StatusRejected, eval.Status)
	assert.Equal(t, "Edad fuera del rango asegurable", eval.RejectMessage)
	// Reject short-circuits: only the eligibility rule is traced.
	require.Len(t, eval.Trace, 1)
	assert.Equal(t, OutcomeRejected, eval.Trace[0].Outcome)
}

func TestEvaluate_FirstMatchSkipsRemainingOfType(t *testing.T) {
	variables := []tariffdomain.Variable{intVar(1, "edad", tariffdomain.OriginDriver)}
	rules := []tariffdomain.Rule{
		{
			ID: 30, ProductID: productID, Name: "Base preferente", Type: tariffdomain.RuleBasePremium,
			Mode: tariffdomain.FirstMatch, Priority: 10, Active: true,
			Actions: []tariffdomain.Action{
				{ID: 31, Type: tariffdomain.ActionSetAmount, TargetField: FieldBasePremium, Value: nd("7000")},
			},
		},
		{
			ID: 40, ProductID: productID, Name: "Base general", Type: tariffdomain.RuleBasePremium,
			Mode: tariffdomain.FirstMatch, Priority: 5, Active: true,
			Actions: []tariffdomain.Action{
				{ID: 41, Type: tariffdomain.ActionSetAmount, TargetField: FieldBasePremium, Value: nd("9000")},
			},
		},
	}
	eng := New(tariffdomain.NewSnapshot(variables, nil, rules, nil, nil), d("8500"))

	eval := eng.Evaluate(productID, driverContext(30))

	require.Equal(t, StatusPriced, eval.Status)
	assert.True(t, d("7000").Equal(eval.Accum.Get(FieldBasePremium)))
	require.Len(t, eval.Trace, 2)
	assert.Equal(t, OutcomeApplied, eval.Trace[0].Outcome)
	assert.Equal(t, OutcomeNotApplied, eval.Trace[1].Outcome)
	assert.Contains(t, eval.Trace[1].Message, "first match already applied")
}

func TestEvaluate_SetFactorComposesUnderMultiplyAll(t *testing.T) {
	rules := []tariffdomain.Rule{
		{
			ID: 40, ProductID: productID, Name: "Factor zona", Type: tariffdomain.RuleFactor,
			Mode: tariffdomain.MultiplyAll, Priority: 10, Active: true,
			Actions: []tariffdomain.Action{
				{ID: 41, Type: tariffdomain.ActionSetFactor, TargetField: FieldFactorTotal, Value: nd("1.10")},
			},
		},
		{
			ID: 50, ProductID: productID, Name: "Factor uso", Type: tariffdomain.RuleFactor,
			Mode: tariffdomain.MultiplyAll, Priority: 5, Active: true,
			Actions: []tariffdomain.Action{
				{ID: 51, Type: tariffdomain.ActionSetFactor, TargetField: FieldFactorTotal, Value: nd("1.20")},
			},
		},
	}
	eng := New(tariffdomain.NewSnapshot(nil, nil, rules, nil, nil), d("8500"))

	eval := eng.Evaluate(productID, driverContext(30))

	require.Equal(t, StatusPriced, eval.Status)
	assert.True(t, d("1.32").Equal(eval.Accum.Get(FieldFactorTotal)))
}

func TestEvaluate_DefaultBaseWhenNoBaseRuleApplies(t *testing.T) {
	eng := New(tariffdomain.NewSnapshot(nil, nil, nil, nil, nil), d("8500.00"))

	eval := eng.Evaluate(productID, driverContext(30))

	require.Equal(t, StatusPriced, eval.Status)
	assert.True(t, eval.UsedDefaultBase)
	assert.True(t, d("8500").Equal(eval.Accum.Get(FieldBasePremium)))
}

func TestEvaluate_MissingFactorTableErrorsCombination(t *testing.T) {
	rules := []tariffdomain.Rule{{
		ID: 40, ProductID: productID, Name: "Factor fantasma", Type: tariffdomain.RuleFactor,
		Mode: tariffdomain.FirstMatch, Active: true,
		Actions: []tariffdomain.Action{
			{ID: 41, Type: tariffdomain.ActionApplyFactorTable, TargetField: FieldFactorTotal, TableRef: "no_existe"},
		},
	}}
	eng := New(tariffdomain.NewSnapshot(nil, nil, rules, nil, nil), d("8500"))

	eval := eng.Evaluate(productID, driverContext(30))

	require.Equal(t, StatusErrored, eval.Status)
	assert.ErrorIs(t, eval.Err, ErrMissingCatalogRef)
}

func TestEvaluate_ConditionFaultFailsRuleClosed(t *testing.T) {
	rules := []tariffdomain.Rule{
		{
			ID: 20, ProductID: productID, Name: "Regla rota", Type: tariffdomain.RuleSurcharge,
			Mode: tariffdomain.FirstMatch, Active: true,
			Conditions: []tariffdomain.Condition{
				{ID: 21, VariableCode: "no_declarada", Operator: tariffdomain.OpEq, Value1: "1", Group: 1, Order: 1},
			},
			Actions: []tariffdomain.Action{
				{ID: 22, Type: tariffdomain.ActionAddAmount, TargetField: FieldSurcharges, Value: nd("999")},
			},
		},
	}
	eng := New(tariffdomain.NewSnapshot(nil, nil, rules, nil, nil), d("8500"))

	eval := eng.Evaluate(productID, driverContext(30))

	// The broken rule does not apply; evaluation still prices.
	require.Equal(t, StatusPriced, eval.Status)
	assert.True(t, eval.Accum.Get(FieldSurcharges).IsZero())
	require.Len(t, eval.Trace, 1)
	assert.Equal(t, OutcomeNotApplied, eval.Trace[0].Outcome)
	assert.Contains(t, eval.Trace[0].Message, "condition error")
}

func TestEvaluate_Deterministic(t *testing.T) {
	eng := New(pricingSnapshot(), d("8500.00"))
	ctx := driverContext(42)

	first := eng.Evaluate(productID, ctx)
	second := eng.Evaluate(productID, ctx)

	require.Equal(t, first.Status, second.Status)
	for _, field := range first.Accum.Fields() {
		assert.True(t, first.Accum.Get(field).Equal(second.Accum.Get(field)), field)
	}
	require.Equal(t, len(first.Trace), len(second.Trace))
	for i := range first.Trace {
		assert.Equal(t, first.Trace[i], second.Trace[i])
	}
}

func TestWithGroupCombiner_AndSemantics(t *testing.T) {
	variables := []tariffdomain.Variable{intVar(1, "edad", tariffdomain.OriginDriver)}
	rules := []tariffdomain.Rule{{
		ID: 20, ProductID: productID, Name: "Dos grupos", Type: tariffdomain.RuleSurcharge,
		Mode: tariffdomain.FirstMatch, Active: true,
		Conditions: []tariffdomain.Condition{
			{ID: 21, VariableCode: "edad", Operator: tariffdomain.OpGe, Value1: "18", Group: 1, Order: 1},
			{ID: 22, VariableCode: "edad", Operator: tariffdomain.OpGt, Value1: "99", Group: 2, Order: 1},
		},
		Actions: []tariffdomain.Action{
			{ID: 23, Type: tariffdomain.ActionAddAmount, TargetField: FieldSurcharges, Value: nd("100")},
		},
	}}
	snap := tariffdomain.NewSnapshot(variables, nil, rules, nil, nil)

	// Default OR: one passing group is enough.
	orEval := New(snap, d("8500")).Evaluate(productID, driverContext(30))
	require.Equal(t, StatusPriced, orEval.Status)
	assert.True(t, d("100").Equal(orEval.Accum.Get(FieldSurcharges)))

	// AND combiner: both groups must pass.
	andCombiner := func(groups []bool) bool {
		for _, g := range groups {
			if !g {
				return false
			}
		}
		return true
	}
	andEval := New(snap, d("8500")).WithGroupCombiner(andCombiner).Evaluate(productID, driverContext(30))
	require.Equal(t, StatusPriced, andEval.Status)
	assert.True(t, andEval.Accum.Get(FieldSurcharges).IsZero())
}
