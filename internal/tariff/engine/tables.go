package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
)

// resolveFactorTable looks up the scalar for the context's input values
// in a named table. The boolean result is false on NoMatch, which is a
// regular outcome, not an error: the calling action keeps its target
// unchanged and records not-applied.
func resolveFactorTable(snap *tariffdomain.Snapshot, ctx Context, tableName string) (decimal.Decimal, bool, error) {
	table, ok := snap.Tables[tableName]
	if !ok {
		return decimal.Zero, false, fmt.Errorf("%w: factor table %q", ErrMissingCatalogRef, tableName)
	}

	// Ranges are pre-sorted by priority desc then id asc, so the first
	// match is the authoritative row.
	for _, rng := range table.Ranges {
		match, err := rangeMatches(snap, ctx, rng)
		if err != nil {
			return decimal.Zero, false, err
		}
		if match {
			return rng.Value, true, nil
		}
	}
	return decimal.Zero, false, nil
}

func rangeMatches(snap *tariffdomain.Snapshot, ctx Context, rng tariffdomain.FactorTableRange) (bool, error) {
	ok, err := boundsContain(snap, ctx, rng.Var1Code, rng.Var1Min, rng.Var1Max)
	if err != nil || !ok {
		return false, err
	}
	if rng.Var2Code == "" {
		return true, nil
	}
	return boundsContain(snap, ctx, rng.Var2Code, rng.Var2Min, rng.Var2Max)
}

// boundsContain checks an inclusive [min, max] interval, open on a
// missing bound, against the resolved numeric value of a variable.
func boundsContain(snap *tariffdomain.Snapshot, ctx Context, code string, min, max decimal.NullDecimal) (bool, error) {
	value, err := resolveVariable(snap, ctx, code)
	if err != nil {
		return false, err
	}
	n, err := value.Numeric()
	if err != nil {
		return false, err
	}
	if min.Valid && n.Cmp(min.Decimal) < 0 {
		return false, nil
	}
	if max.Valid && n.Cmp(max.Decimal) > 0 {
		return false, nil
	}
	return true, nil
}
