package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
)

const dateLayout = "2006-01-02"

// System variables resolved from the evaluation clock when the context
// does not override them.
const (
	sysCurrentDate = "fecha_actual"
	sysCurrentYear = "anio_actual"
)

// resolveVariable maps a variable code to its typed current value.
func resolveVariable(snap *tariffdomain.Snapshot, ctx Context, code string) (Value, error) {
	variable, ok := snap.Variables[code]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownVariable, code)
	}

	if variable.Origin == tariffdomain.OriginSystem {
		return resolveSystem(ctx, variable)
	}

	bag, ok := ctx.origin(variable.Origin)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s needs %s data", ErrUnresolvableOrigin, code, variable.Origin)
	}
	raw, ok := bag[code]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s missing from %s context", ErrUnresolvableOrigin, code, variable.Origin)
	}
	return coerce(variable.DataKind, raw)
}

func resolveSystem(ctx Context, variable tariffdomain.Variable) (Value, error) {
	switch variable.Code {
	case sysCurrentDate:
		return Value{Kind: tariffdomain.DataDate, Date: ctx.Now.Truncate(24 * time.Hour)}, nil
	case sysCurrentYear:
		return Value{Kind: tariffdomain.DataInt, Int: int64(ctx.Now.Year())}, nil
	}
	return Value{}, fmt.Errorf("%w: system variable %s", ErrUnresolvableOrigin, variable.Code)
}

// coerce converts a raw context value into the variable's declared kind.
func coerce(kind tariffdomain.DataKind, raw any) (Value, error) {
	switch kind {
	case tariffdomain.DataInt:
		switch v := raw.(type) {
		case int:
			return Value{Kind: kind, Int: int64(v)}, nil
		case int64:
			return Value{Kind: kind, Int: v}, nil
		case float64:
			return Value{Kind: kind, Int: int64(v)}, nil
		case decimal.Decimal:
			return Value{Kind: kind, Int: v.IntPart()}, nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, v)
			}
			return Value{Kind: kind, Int: n}, nil
		}
	case tariffdomain.DataDecimal:
		switch v := raw.(type) {
		case decimal.Decimal:
			return Value{Kind: kind, Dec: v}, nil
		case int:
			return Value{Kind: kind, Dec: decimal.NewFromInt(int64(v))}, nil
		case int64:
			return Value{Kind: kind, Dec: decimal.NewFromInt(v)}, nil
		case float64:
			return Value{Kind: kind, Dec: decimal.NewFromFloat(v)}, nil
		case string:
			d, err := decimal.NewFromString(strings.TrimSpace(v))
			if err != nil {
				return Value{}, fmt.Errorf("%w: %q is not a decimal", ErrTypeMismatch, v)
			}
			return Value{Kind: kind, Dec: d}, nil
		}
	case tariffdomain.DataText:
		if v, ok := raw.(string); ok {
			return Value{Kind: kind, Text: v}, nil
		}
	case tariffdomain.DataBool:
		switch v := raw.(type) {
		case bool:
			return Value{Kind: kind, Bool: v}, nil
		case string:
			b, err := parseBool(v)
			if err != nil {
				return Value{}, err
			}
			return Value{Kind: kind, Bool: b}, nil
		}
	case tariffdomain.DataDate:
		switch v := raw.(type) {
		case time.Time:
			return Value{Kind: kind, Date: v}, nil
		case string:
			t, err := time.Parse(dateLayout, strings.TrimSpace(v))
			if err != nil {
				return Value{}, fmt.Errorf("%w: %q is not a date", ErrTypeMismatch, v)
			}
			return Value{Kind: kind, Date: t}, nil
		}
	}
	return Value{}, fmt.Errorf("%w: cannot read %T as %s", ErrTypeMismatch, raw, kind)
}

// parseOperand parses a stored textual condition operand into the
// variable's kind, e.g. "2019" becomes an INT before comparison.
func parseOperand(kind tariffdomain.DataKind, s string) (Value, error) {
	return coerce(kind, strings.TrimSpace(s))
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "si", "sí", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, s)
}
