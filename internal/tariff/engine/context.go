// Package engine interprets the tariff rule language over an immutable
// catalog snapshot. It is a pure library: no database, no HTTP, no
// shared mutable state, so any number of (insurer, product)
// combinations can be evaluated concurrently.
package engine

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
)

// Resolver faults. The first three fail a single condition or action
// closed (the rule does not apply); a missing catalog reference is
// fatal for the whole combination.
var (
	ErrUnknownVariable    = errors.New("unknown_variable")
	ErrUnresolvableOrigin = errors.New("unresolvable_origin")
	ErrTypeMismatch       = errors.New("type_mismatch")
	ErrMissingCatalogRef  = errors.New("missing_catalog_reference")
)

// Attributes is one origin's bag of raw context values keyed by
// variable code. A nil bag means the context has no data for that
// origin (e.g. a fleet quote with no single vehicle).
type Attributes map[string]any

// Context carries everything a quote evaluation may read.
type Context struct {
	Client  Attributes
	Vehicle Attributes
	Driver  Attributes
	Quote   Attributes
	Now     time.Time
}

func (c Context) origin(o tariffdomain.Origin) (Attributes, bool) {
	switch o {
	case tariffdomain.OriginClient:
		return c.Client, c.Client != nil
	case tariffdomain.OriginVehicle:
		return c.Vehicle, c.Vehicle != nil
	case tariffdomain.OriginDriver:
		return c.Driver, c.Driver != nil
	case tariffdomain.OriginQuote:
		return c.Quote, c.Quote != nil
	default:
		return nil, false
	}
}

// Value is a resolved, typed variable value.
type Value struct {
	Kind tariffdomain.DataKind
	Int  int64
	Dec  decimal.Decimal
	Text string
	Bool bool
	Date time.Time
}

// Numeric returns the value as a decimal for factor-table lookups.
func (v Value) Numeric() (decimal.Decimal, error) {
	switch v.Kind {
	case tariffdomain.DataInt:
		return decimal.NewFromInt(v.Int), nil
	case tariffdomain.DataDecimal:
		return v.Dec, nil
	default:
		return decimal.Zero, ErrTypeMismatch
	}
}
