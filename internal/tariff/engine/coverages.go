package engine

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
)

// varVehicleValue is the catalog variable %-of-vehicle-value coverage
// tariffs read from.
const varVehicleValue = "valor_vehiculo"

var oneHundred = decimal.NewFromInt(100)

// CoverageCost is one priced coverage line within a combination.
type CoverageCost struct {
	CoverageID snowflake.ID    `json:"coverage_id"`
	Amount     decimal.Decimal `json:"amount"`
	Applied    bool            `json:"applied"`
	Message    string          `json:"message,omitempty"`
}

// PriceCoverages prices every active coverage tariff of a product
// against the accumulator's base premium. A tariff that cannot be
// priced (NoMatch, missing context) is returned unapplied rather than
// failing the combination.
func (e *Engine) PriceCoverages(productID snowflake.ID, ctx Context, basePremium decimal.Decimal) []CoverageCost {
	tariffs := e.snap.CoverageTariffs[productID]
	if len(tariffs) == 0 {
		return nil
	}

	costs := make([]CoverageCost, 0, len(tariffs))
	for _, tariff := range tariffs {
		cost := CoverageCost{CoverageID: tariff.CoverageID}

		amount, ok, message := e.coverageAmount(tariff, ctx, basePremium)
		if !ok {
			cost.Message = message
			costs = append(costs, cost)
			continue
		}

		amount = amount.Round(2)
		amount = clampValue(amount, tariff.Min, tariff.Max)
		cost.Amount = amount
		cost.Applied = true
		costs = append(costs, cost)
	}
	return costs
}

func (e *Engine) coverageAmount(tariff tariffdomain.CoverageTariff, ctx Context, basePremium decimal.Decimal) (decimal.Decimal, bool, string) {
	switch tariff.CostMode {
	case tariffdomain.CostFixed:
		if !tariff.FixedAmount.Valid {
			return decimal.Zero, false, "fixed tariff missing amount"
		}
		return tariff.FixedAmount.Decimal, true, ""

	case tariffdomain.CostPctBasePremium:
		if !tariff.Percentage.Valid {
			return decimal.Zero, false, "percentage tariff missing rate"
		}
		return basePremium.Mul(tariff.Percentage.Decimal).Div(oneHundred), true, ""

	case tariffdomain.CostPctVehicleVal:
		if !tariff.Percentage.Valid {
			return decimal.Zero, false, "percentage tariff missing rate"
		}
		value, err := resolveVariable(e.snap, ctx, varVehicleValue)
		if err != nil {
			return decimal.Zero, false, err.Error()
		}
		vehicleValue, err := value.Numeric()
		if err != nil {
			return decimal.Zero, false, err.Error()
		}
		return vehicleValue.Mul(tariff.Percentage.Decimal).Div(oneHundred), true, ""

	case tariffdomain.CostFactorTable:
		amount, ok, err := resolveFactorTable(e.snap, ctx, tariff.TableRef)
		if err != nil {
			return decimal.Zero, false, err.Error()
		}
		if !ok {
			return decimal.Zero, false, "no range matched in table " + tariff.TableRef
		}
		return amount, true, ""
	}
	return decimal.Zero, false, "unknown cost mode"
}
