// Package seed installs a small demo catalog: two insurers with rule
// products, the shared tariff variables and one age factor table, so a
// fresh install can price quotes immediately.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/polizaflow/cotiza/internal/catalog/domain"
	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EnsureDemoCatalog seeds insurers, products, variables, the age factor
// table and pricing rules. Rows are matched by their natural keys so
// repeated startups are idempotent.
func EnsureDemoCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureVariables(ctx, tx, node); err != nil {
			return err
		}
		ageTable, err := ensureAgeFactorTable(ctx, tx, node)
		if err != nil {
			return err
		}

		centro, err := ensureInsurer(ctx, tx, node, "Aseguradora del Centro")
		if err != nil {
			return err
		}
		norte, err := ensureInsurer(ctx, tx, node, "Seguros del Norte")
		if err != nil {
			return err
		}

		amplia, err := ensureProduct(ctx, tx, node, centro.ID, "Auto Cobertura Amplia")
		if err != nil {
			return err
		}
		limitada, err := ensureProduct(ctx, tx, node, norte.ID, "Auto Cobertura Limitada")
		if err != nil {
			return err
		}

		if err := ensurePricingRules(ctx, tx, node, amplia.ID, ageTable.Name, "8500.00", "450.00"); err != nil {
			return err
		}
		if err := ensurePricingRules(ctx, tx, node, limitada.ID, ageTable.Name, "6200.00", "380.00"); err != nil {
			return err
		}

		if err := ensureCoverages(ctx, tx, node, amplia.ID); err != nil {
			return err
		}
		return ensureDeductibles(ctx, tx, node, amplia.ID)
	})
}

var demoVariables = []tariffdomain.Variable{
	{Code: "edad", Name: "Edad del conductor", DataKind: tariffdomain.DataInt, Origin: tariffdomain.OriginDriver},
	{Code: "valor_vehiculo", Name: "Valor comercial del vehículo", DataKind: tariffdomain.DataDecimal, Origin: tariffdomain.OriginVehicle},
	{Code: "anio_vehiculo", Name: "Año modelo", DataKind: tariffdomain.DataInt, Origin: tariffdomain.OriginVehicle},
	{Code: "codigo_postal", Name: "Código postal", DataKind: tariffdomain.DataText, Origin: tariffdomain.OriginClient},
	{Code: "uso_comercial", Name: "Uso comercial", DataKind: tariffdomain.DataBool, Origin: tariffdomain.OriginVehicle},
}

func ensureVariables(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	for _, v := range demoVariables {
		var existing tariffdomain.Variable
		err := tx.WithContext(ctx).Where("code = ?", v.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		v.ID = node.Generate()
		v.Active = true
		if err := tx.WithContext(ctx).Create(&v).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureAgeFactorTable(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (*tariffdomain.FactorTable, error) {
	const name = "factor_edad"

	var table tariffdomain.FactorTable
	err := tx.WithContext(ctx).Where("name = ?", name).First(&table).Error
	if err == nil {
		return &table, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	table = tariffdomain.FactorTable{
		ID:          node.Generate(),
		Name:        name,
		Kind:        tariffdomain.TableFactor,
		Description: "Factor de prima por edad del conductor",
		Active:      true,
	}
	if err := tx.WithContext(ctx).Create(&table).Error; err != nil {
		return nil, err
	}

	ranges := []tariffdomain.FactorTableRange{
		{Var1Code: "edad", Var1Min: dec("18"), Var1Max: dec("25"), Value: decimal.RequireFromString("1.25")},
		{Var1Code: "edad", Var1Min: dec("26"), Var1Max: dec("60"), Value: decimal.RequireFromString("1.10")},
		{Var1Code: "edad", Var1Min: dec("61"), Value: decimal.RequireFromString("1.18")},
	}
	for _, r := range ranges {
		r.ID = node.Generate()
		r.TableID = table.ID
		r.Active = true
		if err := tx.WithContext(ctx).Create(&r).Error; err != nil {
			return nil, err
		}
	}
	return &table, nil
}

func ensureInsurer(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string) (*catalogdomain.Insurer, error) {
	var insurer catalogdomain.Insurer
	err := tx.WithContext(ctx).Where("name = ?", name).First(&insurer).Error
	if err == nil {
		return &insurer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	insurer = catalogdomain.Insurer{
		ID:     node.Generate(),
		Name:   name,
		Active: true,
	}
	if err := tx.WithContext(ctx).Create(&insurer).Error; err != nil {
		return nil, err
	}
	return &insurer, nil
}

func ensureProduct(ctx context.Context, tx *gorm.DB, node *snowflake.Node, insurerID snowflake.ID, name string) (*catalogdomain.Product, error) {
	var product catalogdomain.Product
	err := tx.WithContext(ctx).Where("insurer_id = ? AND name = ?", insurerID, name).First(&product).Error
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	product = catalogdomain.Product{
		ID:          node.Generate(),
		InsurerID:   insurerID,
		Name:        name,
		ProductType: catalogdomain.ProductTypeAuto,
		CalcModel:   catalogdomain.CalcModelRules,
		Active:      true,
	}
	if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func ensurePricingRules(ctx context.Context, tx *gorm.DB, node *snowflake.Node, productID snowflake.ID, ageTable, basePremium, fees string) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&tariffdomain.Rule{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	// Eligibility: no drivers under 18.
	eligibility := tariffdomain.Rule{
		ID:        node.Generate(),
		ProductID: productID,
		Name:      "Edad mínima del conductor",
		Type:      tariffdomain.RuleEligibility,
		Mode:      tariffdomain.FirstMatch,
		Priority:  100,
		Active:    true,
		Conditions: []tariffdomain.Condition{{
			ID:           node.Generate(),
			VariableCode: "edad",
			Operator:     tariffdomain.OpLt,
			Value1:       "18",
			Group:        1,
			Order:        1,
		}},
		Actions: []tariffdomain.Action{{
			ID:      node.Generate(),
			Type:    tariffdomain.ActionReject,
			Message: "Edad fuera del rango asegurable",
			Order:   1,
		}},
	}

	base := tariffdomain.Rule{
		ID:        node.Generate(),
		ProductID: productID,
		Name:      "Prima base",
		Type:      tariffdomain.RuleBasePremium,
		Mode:      tariffdomain.FirstMatch,
		Priority:  100,
		Active:    true,
		Actions: []tariffdomain.Action{{
			ID:          node.Generate(),
			Type:        tariffdomain.ActionSetAmount,
			TargetField: "prima_base",
			Value:       dec(basePremium),
			Rounding:    tariffdomain.RoundTwoDec,
			Order:       1,
		}},
	}

	ageFactor := tariffdomain.Rule{
		ID:        node.Generate(),
		ProductID: productID,
		Name:      "Factor por edad",
		Type:      tariffdomain.RuleFactor,
		Mode:      tariffdomain.MultiplyAll,
		Priority:  100,
		Active:    true,
		Actions: []tariffdomain.Action{{
			ID:       node.Generate(),
			Type:     tariffdomain.ActionApplyFactorTable,
			TableRef: ageTable,
			Combine:  tariffdomain.CombineMultiply,
			Order:    1,
		}},
	}

	policyFees := tariffdomain.Rule{
		ID:        node.Generate(),
		ProductID: productID,
		Name:      "Derechos de póliza",
		Type:      tariffdomain.RuleFee,
		Mode:      tariffdomain.FirstMatch,
		Priority:  100,
		Active:    true,
		Actions: []tariffdomain.Action{{
			ID:          node.Generate(),
			Type:        tariffdomain.ActionSetAmount,
			TargetField: "derechos",
			Value:       dec(fees),
			Rounding:    tariffdomain.RoundTwoDec,
			Order:       1,
		}},
	}

	for _, rule := range []tariffdomain.Rule{eligibility, base, ageFactor, policyFees} {
		for i := range rule.Conditions {
			rule.Conditions[i].RuleID = rule.ID
		}
		for i := range rule.Actions {
			rule.Actions[i].RuleID = rule.ID
		}
		if err := tx.WithContext(ctx).Create(&rule).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureCoverages(ctx context.Context, tx *gorm.DB, node *snowflake.Node, productID snowflake.ID) error {
	coverages := []catalogdomain.Coverage{
		{Code: "DM", Name: "Daños materiales", ValueKind: catalogdomain.CoverageValueAmount},
		{Code: "RT", Name: "Robo total", ValueKind: catalogdomain.CoverageValueAmount},
		{Code: "RC", Name: "Responsabilidad civil", ValueKind: catalogdomain.CoverageValueAmount},
	}

	for _, coverage := range coverages {
		var existing catalogdomain.Coverage
		err := tx.WithContext(ctx).Where("code = ?", coverage.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			coverage.ID = node.Generate()
			coverage.Active = true
			if err := tx.WithContext(ctx).Create(&coverage).Error; err != nil {
				return err
			}
			existing = coverage
		} else if err != nil {
			return err
		}

		var link catalogdomain.ProductCoverage
		err = tx.WithContext(ctx).Where("product_id = ? AND coverage_id = ?", productID, existing.ID).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			link = catalogdomain.ProductCoverage{
				ID:         node.Generate(),
				ProductID:  productID,
				CoverageID: existing.ID,
				Included:   true,
			}
			if err := tx.WithContext(ctx).Create(&link).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var tariff tariffdomain.CoverageTariff
		err = tx.WithContext(ctx).Where("product_id = ? AND coverage_id = ?", productID, existing.ID).First(&tariff).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tariff = tariffdomain.CoverageTariff{
				ID:         node.Generate(),
				ProductID:  productID,
				CoverageID: existing.ID,
				CostMode:   tariffdomain.CostPctBasePremium,
				Percentage: dec("12"),
				Active:     true,
			}
			if err := tx.WithContext(ctx).Create(&tariff).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}

func ensureDeductibles(ctx context.Context, tx *gorm.DB, node *snowflake.Node, productID snowflake.ID) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&tariffdomain.DeductibleOption{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	options := []tariffdomain.DeductibleOption{
		{Kind: tariffdomain.DeductibleMaterialDamage, Value: decimal.RequireFromString("5"), IsPercentage: true, AffectsPremium: false},
		{Kind: tariffdomain.DeductibleMaterialDamage, Value: decimal.RequireFromString("10"), IsPercentage: true, AffectsPremium: true, PremiumFactor: dec("0.93")},
		{Kind: tariffdomain.DeductibleTotalTheft, Value: decimal.RequireFromString("10"), IsPercentage: true, AffectsPremium: false},
	}
	for _, opt := range options {
		opt.ID = node.Generate()
		opt.ProductID = productID
		opt.Active = true
		if err := tx.WithContext(ctx).Create(&opt).Error; err != nil {
			return err
		}
	}
	return nil
}

func dec(raw string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(raw), Valid: true}
}
