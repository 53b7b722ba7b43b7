package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshot_RuleOrdering(t *testing.T) {
	const product = snowflake.ID(1)

	rules := []Rule{
		{ID: 5, ProductID: product, Type: RuleFee, Active: true},
		{ID: 4, ProductID: product, Type: RuleFactor, Priority: 1, Active: true},
		{ID: 3, ProductID: product, Type: RuleFactor, Priority: 9, Active: true},
		{ID: 2, ProductID: product, Type: RuleBasePremium, Active: true},
		{ID: 1, ProductID: product, Type: RuleEligibility, Active: true},
		{ID: 6, ProductID: product, Type: RuleFactor, Priority: 9, Active: true},
		{ID: 7, ProductID: product, Type: RuleDiscount, Active: false},
	}

	snap := NewSnapshot(nil, nil, rules, nil, nil)

	got := make([]snowflake.ID, 0, len(snap.Rules[product]))
	for _, r := range snap.Rules[product] {
		got = append(got, r.ID)
	}
	// Type order first, then priority desc, then lowest id; inactive dropped.
	assert.Equal(t, []snowflake.ID{1, 2, 3, 6, 4, 5}, got)
}

func TestNewSnapshot_ConditionAndActionOrdering(t *testing.T) {
	const product = snowflake.ID(1)

	rules := []Rule{{
		ID: 1, ProductID: product, Type: RuleFactor, Active: true,
		Conditions: []Condition{
			{ID: 3, Group: 2, Order: 1},
			{ID: 2, Group: 1, Order: 2},
			{ID: 1, Group: 1, Order: 1},
		},
		Actions: []Action{
			{ID: 9, Order: 2},
			{ID: 8, Order: 1},
			{ID: 7, Order: 1},
		},
	}}

	snap := NewSnapshot(nil, nil, rules, nil, nil)
	rule := snap.Rules[product][0]

	require.Len(t, rule.Conditions, 3)
	assert.Equal(t, snowflake.ID(1), rule.Conditions[0].ID)
	assert.Equal(t, snowflake.ID(2), rule.Conditions[1].ID)
	assert.Equal(t, snowflake.ID(3), rule.Conditions[2].ID)

	require.Len(t, rule.Actions, 3)
	assert.Equal(t, snowflake.ID(7), rule.Actions[0].ID)
	assert.Equal(t, snowflake.ID(8), rule.Actions[1].ID)
	assert.Equal(t, snowflake.ID(9), rule.Actions[2].ID)
}

func TestNewSnapshot_RangeOrderingAndInactiveRows(t *testing.T) {
	one := decimal.NewFromInt(1)

	tables := []FactorTable{
		{
			ID: 10, Name: "activa", Active: true,
			Ranges: []FactorTableRange{
				{ID: 2, TableID: 10, Var1Code: "edad", Value: one, Priority: 1, Active: true},
				{ID: 3, TableID: 10, Var1Code: "edad", Value: one, Priority: 5, Active: true},
				{ID: 1, TableID: 10, Var1Code: "edad", Value: one, Priority: 5, Active: true},
				{ID: 4, TableID: 10, Var1Code: "edad", Value: one, Priority: 9, Active: false},
			},
		},
		{ID: 20, Name: "inactiva", Active: false},
	}
	variables := []Variable{
		{ID: 1, Code: "edad", DataKind: DataInt, Origin: OriginDriver, Active: true},
		{ID: 2, Code: "vieja", DataKind: DataInt, Origin: OriginDriver, Active: false},
	}

	snap := NewSnapshot(variables, tables, nil, nil, nil)

	_, ok := snap.Tables["inactiva"]
	assert.False(t, ok)
	_, ok = snap.Variables["vieja"]
	assert.False(t, ok)

	ranges := snap.Tables["activa"].Ranges
	require.Len(t, ranges, 3)
	assert.Equal(t, snowflake.ID(1), ranges[0].ID, "priority ties break on lowest id")
	assert.Equal(t, snowflake.ID(3), ranges[1].ID)
	assert.Equal(t, snowflake.ID(2), ranges[2].ID)
}

func TestRuleTypeEvalOrder(t *testing.T) {
	ordered := []RuleType{
		RuleEligibility,
		RuleBasePremium,
		RuleFactor,
		RuleSurcharge,
		RuleDiscount,
		RuleFee,
		RuleCoverageAdjustment,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, ordered[i-1].EvalOrder(), ordered[i].EvalOrder())
	}
	assert.Greater(t, RuleType("OTRA").EvalOrder(), RuleCoverageAdjustment.EvalOrder())
}
