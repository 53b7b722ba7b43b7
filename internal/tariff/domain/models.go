// Package domain defines the data-driven tariff rule language: variables,
// factor tables, rules with their condition and action rows, coverage
// tariffs and deductible options. Rows are authored by catalog
// administration and interpreted at quote time by the engine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// DataKind is a variable's declared value type.
type DataKind string

const (
	DataInt     DataKind = "INT"
	DataDecimal DataKind = "DECIMAL"
	DataText    DataKind = "TEXT"
	DataBool    DataKind = "BOOL"
	DataDate    DataKind = "DATE"
)

// Origin names the slice of the quote context a variable reads from.
type Origin string

const (
	OriginClient  Origin = "CLIENTE"
	OriginVehicle Origin = "VEHICULO"
	OriginDriver  Origin = "CONDUCTOR"
	OriginQuote   Origin = "COTIZACION"
	OriginSystem  Origin = "SISTEMA"
)

type Variable struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Code        string       `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name        string       `json:"name" gorm:"type:text;not null"`
	DataKind    DataKind     `json:"data_kind" gorm:"column:data_kind;type:text;not null;index"`
	Origin      Origin       `json:"origin" gorm:"type:text;not null;index"`
	Description string       `json:"description" gorm:"type:text"`
	Active      bool         `json:"active" gorm:"not null;default:true;index"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Variable) TableName() string { return "tariff_variables" }

// TableKind describes what the scalar in a factor table means.
type TableKind string

const (
	TableFactor     TableKind = "FACTOR"
	TableAmount     TableKind = "MONTO"
	TablePercentage TableKind = "PORCENTAJE"
)

type FactorTable struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Kind        TableKind    `json:"kind" gorm:"type:text;not null;default:FACTOR;index"`
	Description string       `json:"description" gorm:"type:text"`
	Active      bool         `json:"active" gorm:"not null;default:true;index"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Ranges []FactorTableRange `json:"ranges,omitempty" gorm:"foreignKey:TableID"`
}

func (FactorTable) TableName() string { return "factor_tables" }

// FactorTableRange maps one or two numeric input ranges to a scalar.
// A missing bound leaves that side of the interval open; both present
// bounds are inclusive. Among matching active rows the highest priority
// wins, ties resolved by lowest id.
type FactorTableRange struct {
	ID        snowflake.ID        `json:"id" gorm:"primaryKey"`
	TableID   snowflake.ID        `json:"table_id" gorm:"column:table_id;not null;index"`
	Var1Code  string              `json:"var1_code" gorm:"column:var1_code;type:text;not null"`
	Var1Min   decimal.NullDecimal `json:"var1_min,omitempty" gorm:"type:numeric(14,4)"`
	Var1Max   decimal.NullDecimal `json:"var1_max,omitempty" gorm:"type:numeric(14,4)"`
	Var2Code  string              `json:"var2_code,omitempty" gorm:"column:var2_code;type:text"`
	Var2Min   decimal.NullDecimal `json:"var2_min,omitempty" gorm:"type:numeric(14,4)"`
	Var2Max   decimal.NullDecimal `json:"var2_max,omitempty" gorm:"type:numeric(14,4)"`
	Value     decimal.Decimal     `json:"value" gorm:"type:numeric(14,6);not null"`
	Priority  int                 `json:"priority" gorm:"not null;default:0;index"`
	Active    bool                `json:"active" gorm:"not null;default:true;index"`
	CreatedAt time.Time           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time           `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FactorTableRange) TableName() string { return "factor_table_ranges" }

// RuleType orders rule evaluation: eligibility first, then base premium,
// factors, and the additive rule families.
type RuleType string

const (
	RuleEligibility        RuleType = "ELEGIBILIDAD"
	RuleBasePremium        RuleType = "PRIMA_BASE"
	RuleFactor             RuleType = "FACTOR"
	RuleSurcharge          RuleType = "RECARGO"
	RuleDiscount           RuleType = "DESCUENTO"
	RuleFee                RuleType = "DERECHOS"
	RuleCoverageAdjustment RuleType = "AJUSTE_COBERTURA"
)

// EvalOrder returns the position of a rule type in the evaluation
// sequence. Unknown types sort last.
func (t RuleType) EvalOrder() int {
	switch t {
	case RuleEligibility:
		return 0
	case RuleBasePremium:
		return 1
	case RuleFactor:
		return 2
	case RuleSurcharge:
		return 3
	case RuleDiscount:
		return 4
	case RuleFee:
		return 5
	case RuleCoverageAdjustment:
		return 6
	default:
		return 7
	}
}

// ApplicationMode controls how several matching rules of one type combine.
type ApplicationMode string

const (
	FirstMatch  ApplicationMode = "PRIMER_MATCH"
	SumAll      ApplicationMode = "SUMAR_TODAS"
	MultiplyAll ApplicationMode = "MULTIPLICAR_TODAS"
)

type Rule struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	ProductID snowflake.ID    `json:"product_id" gorm:"not null;index"`
	Name      string          `json:"name" gorm:"type:text;not null"`
	Type      RuleType        `json:"type" gorm:"column:rule_type;type:text;not null;index"`
	Mode      ApplicationMode `json:"mode" gorm:"column:application_mode;type:text;not null;default:PRIMER_MATCH"`
	Priority  int             `json:"priority" gorm:"not null;default:0;index"`
	Active    bool            `json:"active" gorm:"not null;default:true;index"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Conditions []Condition `json:"conditions,omitempty" gorm:"foreignKey:RuleID"`
	Actions    []Action    `json:"actions,omitempty" gorm:"foreignKey:RuleID"`
}

func (Rule) TableName() string { return "tariff_rules" }

// Operator is a condition's comparison operator.
type Operator string

const (
	OpEq       Operator = "="
	OpNe       Operator = "!="
	OpGt       Operator = ">"
	OpGe       Operator = ">="
	OpLt       Operator = "<"
	OpLe       Operator = "<="
	OpIn       Operator = "IN"
	OpNotIn    Operator = "NOT_IN"
	OpBetween  Operator = "BETWEEN"
	OpContains Operator = "CONTAINS"
)

// Condition is one comparison row of a rule. Conditions sharing a Group
// are combined with AND; distinct groups combine with OR.
type Condition struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	RuleID       snowflake.ID `json:"rule_id" gorm:"not null;index"`
	VariableCode string       `json:"variable_code" gorm:"type:text;not null"`
	Operator     Operator     `json:"operator" gorm:"type:text;not null"`
	Value1       string       `json:"value1" gorm:"type:text;not null"`
	Value2       string       `json:"value2" gorm:"type:text"`
	Negated      bool         `json:"negated" gorm:"not null;default:false"`
	Group        int          `json:"group" gorm:"column:cond_group;not null;default:1;index"`
	Order        int          `json:"order" gorm:"column:cond_order;not null;default:1"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Condition) TableName() string { return "tariff_rule_conditions" }

// ActionType is the kind of mutation an action performs on the accumulator.
type ActionType string

const (
	ActionSetAmount        ActionType = "SET_MONTO"
	ActionSetFactor        ActionType = "SET_FACTOR"
	ActionAddAmount        ActionType = "SUMAR_MONTO"
	ActionApplyFactorTable ActionType = "APLICAR_TABLA_FACTOR"
	ActionSetPercentage    ActionType = "SET_PORCENTAJE"
	ActionReject           ActionType = "RECHAZAR"
)

// Rounding applied to an action's computed value before clamping.
type Rounding string

const (
	RoundNone    Rounding = "NO"
	RoundTwoDec  Rounding = "2_DEC"
	RoundInteger Rounding = "ENTERO"
)

// Combine selects how an apply-factor-table action folds the resolved
// table value into the target field.
type Combine string

const (
	CombineSet      Combine = "SET"
	CombineMultiply Combine = "MULTIPLY"
)

type Action struct {
	ID          snowflake.ID        `json:"id" gorm:"primaryKey"`
	RuleID      snowflake.ID        `json:"rule_id" gorm:"not null;index"`
	Type        ActionType          `json:"type" gorm:"column:action_type;type:text;not null"`
	TargetField string              `json:"target_field" gorm:"type:text"`
	Value       decimal.NullDecimal `json:"value,omitempty" gorm:"type:numeric(14,6)"`
	TableRef    string              `json:"table_ref,omitempty" gorm:"column:factor_table_name;type:text"`
	Combine     Combine             `json:"combine,omitempty" gorm:"type:text"`
	Rounding    Rounding            `json:"rounding" gorm:"type:text;not null;default:NO"`
	Min         decimal.NullDecimal `json:"min,omitempty" gorm:"column:min_value;type:numeric(14,2)"`
	Max         decimal.NullDecimal `json:"max,omitempty" gorm:"column:max_value;type:numeric(14,2)"`
	Message     string              `json:"message,omitempty" gorm:"type:text"`
	Order       int                 `json:"order" gorm:"column:action_order;not null;default:1"`
	CreatedAt   time.Time           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time           `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Action) TableName() string { return "tariff_rule_actions" }

// CostMode prices a coverage within an item.
type CostMode string

const (
	CostFixed          CostMode = "FIJO"
	CostPctBasePremium CostMode = "PORC_PRIMA_BASE"
	CostPctVehicleVal  CostMode = "PORC_VALOR_VEH"
	CostFactorTable    CostMode = "TABLA_FACTOR"
)

type CoverageTariff struct {
	ID          snowflake.ID        `json:"id" gorm:"primaryKey"`
	ProductID   snowflake.ID        `json:"product_id" gorm:"not null;index:idx_coverage_tariff,unique"`
	CoverageID  snowflake.ID        `json:"coverage_id" gorm:"not null;index:idx_coverage_tariff,unique"`
	CostMode    CostMode            `json:"cost_mode" gorm:"type:text;not null;index"`
	FixedAmount decimal.NullDecimal `json:"fixed_amount,omitempty" gorm:"type:numeric(14,2)"`
	Percentage  decimal.NullDecimal `json:"percentage,omitempty" gorm:"type:numeric(8,4)"`
	TableRef    string              `json:"table_ref,omitempty" gorm:"column:factor_table_name;type:text"`
	Min         decimal.NullDecimal `json:"min,omitempty" gorm:"column:min_value;type:numeric(14,2)"`
	Max         decimal.NullDecimal `json:"max,omitempty" gorm:"column:max_value;type:numeric(14,2)"`
	Active      bool                `json:"active" gorm:"not null;default:true;index"`
	CreatedAt   time.Time           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time           `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CoverageTariff) TableName() string { return "coverage_tariffs" }

// DeductibleKind is the loss type a deductible option applies to.
type DeductibleKind string

const (
	DeductibleMaterialDamage DeductibleKind = "DM"
	DeductibleTotalTheft     DeductibleKind = "RT"
	DeductibleLiability      DeductibleKind = "RC"
	DeductibleOther          DeductibleKind = "OTRO"
)

// DeductibleOption is a per-product deductible choice; when it affects
// the premium, PremiumFactor scales prima_neta.
type DeductibleOption struct {
	ID             snowflake.ID        `json:"id" gorm:"primaryKey"`
	ProductID      snowflake.ID        `json:"product_id" gorm:"not null;index"`
	Kind           DeductibleKind      `json:"kind" gorm:"type:text;not null;index"`
	Value          decimal.Decimal     `json:"value" gorm:"type:numeric(12,4);not null"`
	IsPercentage   bool                `json:"is_percentage" gorm:"not null;default:true"`
	AffectsPremium bool                `json:"affects_premium" gorm:"not null;default:true"`
	PremiumFactor  decimal.NullDecimal `json:"premium_factor,omitempty" gorm:"type:numeric(12,6)"`
	Active         bool                `json:"active" gorm:"not null;default:true;index"`
	CreatedAt      time.Time           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time           `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (DeductibleOption) TableName() string { return "deductible_options" }
