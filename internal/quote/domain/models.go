// Package domain contains quote aggregates: the quote request, its
// priced items and the persisted calculation/audit records.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Origin string

const (
	OriginPublicPortal Origin = "PORTAL_PUBLICO"
	OriginCRM          Origin = "CRM"
	OriginAgent        Origin = "AGENTE"
	OriginAPI          Origin = "API"
)

type QuoteType string

const (
	TypeIndividual QuoteType = "INDIVIDUAL"
	TypeFleet      QuoteType = "FLOTILLA"
)

type Status string

const (
	StatusDraft    Status = "BORRADOR"
	StatusSent     Status = "ENVIADA"
	StatusAccepted Status = "ACEPTADA"
	StatusRejected Status = "RECHAZADA"
	StatusExpired  Status = "VENCIDA"
)

// Quote is one quote request. The raw context attributes are stored
// verbatim so a priced quote can be re-evaluated byte-for-byte against
// the same inputs.
type Quote struct {
	ID           snowflake.ID      `json:"id" gorm:"primaryKey"`
	Folio        string            `json:"folio" gorm:"type:text;not null;uniqueIndex"`
	Origin       Origin            `json:"origin" gorm:"type:text;not null;default:CRM;index"`
	QuoteType    QuoteType         `json:"quote_type" gorm:"type:text;not null;index"`
	Status       Status            `json:"status" gorm:"type:text;not null;default:BORRADOR;index"`
	ValidFrom    time.Time         `json:"valid_from" gorm:"not null;index"`
	ValidTo      time.Time         `json:"valid_to" gorm:"not null;index"`
	PaymentForm  string            `json:"payment_form" gorm:"type:text"`
	Notes        string            `json:"notes" gorm:"type:text"`
	ClientAttrs  datatypes.JSONMap `json:"client_attrs,omitempty" gorm:"type:jsonb"`
	VehicleAttrs datatypes.JSONMap `json:"vehicle_attrs,omitempty" gorm:"type:jsonb"`
	DriverAttrs  datatypes.JSONMap `json:"driver_attrs,omitempty" gorm:"type:jsonb"`
	QuoteAttrs   datatypes.JSONMap `json:"quote_attrs,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Items []QuoteItem `json:"items,omitempty" gorm:"foreignKey:QuoteID"`
}

func (Quote) TableName() string { return "quotes" }

// QuoteItem is one priced (insurer, product) combination: the ranked,
// comparable premium line the caller presents and may select.
type QuoteItem struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	QuoteID     snowflake.ID    `json:"quote_id" gorm:"not null;index:idx_quote_item,unique"`
	InsurerID   snowflake.ID    `json:"insurer_id" gorm:"not null;index:idx_quote_item,unique"`
	ProductID   snowflake.ID    `json:"product_id" gorm:"not null;index:idx_quote_item,unique"`
	NetPremium  decimal.Decimal `json:"net_premium" gorm:"column:prima_neta;type:numeric(14,2);not null"`
	Fees        decimal.Decimal `json:"fees" gorm:"column:derechos;type:numeric(14,2);not null"`
	Surcharges  decimal.Decimal `json:"surcharges" gorm:"column:recargos;type:numeric(14,2);not null"`
	Discounts   decimal.Decimal `json:"discounts" gorm:"column:descuentos;type:numeric(14,2);not null"`
	Tax         decimal.Decimal `json:"tax" gorm:"column:iva;type:numeric(14,2);not null"`
	Total       decimal.Decimal `json:"total" gorm:"column:prima_total;type:numeric(14,2);not null;index"`
	PaymentForm string          `json:"payment_form" gorm:"type:text"`
	Months      *int            `json:"months,omitempty" gorm:""`
	Ranking     int             `json:"ranking" gorm:"not null;default:0;index"`
	Selected    bool            `json:"selected" gorm:"not null;default:false;index"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Calc         *QuoteItemCalc         `json:"calc,omitempty" gorm:"foreignKey:ItemID"`
	AppliedRules []QuoteItemAppliedRule `json:"applied_rules,omitempty" gorm:"foreignKey:ItemID"`
	Coverages    []QuoteItemCoverage    `json:"coverages,omitempty" gorm:"foreignKey:ItemID"`
}

func (QuoteItem) TableName() string { return "quote_items" }

// QuoteItemCalc keeps the calculation trace for one item.
type QuoteItemCalc struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	ItemID      snowflake.ID      `json:"item_id" gorm:"not null;uniqueIndex"`
	BasePremium decimal.Decimal   `json:"base_premium" gorm:"column:prima_base;type:numeric(14,2);not null"`
	FactorTotal decimal.Decimal   `json:"factor_total" gorm:"type:numeric(14,6);not null;default:1"`
	Detail      datatypes.JSONMap `json:"detail,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (QuoteItemCalc) TableName() string { return "quote_item_calcs" }

// RuleOutcome mirrors the engine's per-rule audit outcome.
type RuleOutcome string

const (
	RuleApplied    RuleOutcome = "APLICO"
	RuleNotApplied RuleOutcome = "NO_APLICO"
	RuleRejected   RuleOutcome = "RECHAZO"
)

// QuoteItemAppliedRule is one persisted audit-trail row.
type QuoteItemAppliedRule struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	ItemID      snowflake.ID `json:"item_id" gorm:"not null;index"`
	RuleID      snowflake.ID `json:"rule_id" gorm:"not null"`
	Outcome     RuleOutcome  `json:"outcome" gorm:"type:text;not null;index"`
	ResultValue string       `json:"result_value" gorm:"type:text"`
	Message     string       `json:"message" gorm:"type:text"`
	Order       int          `json:"order" gorm:"column:eval_order;not null;default:1;index"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (QuoteItemAppliedRule) TableName() string { return "quote_item_applied_rules" }

// QuoteItemCoverage is one priced coverage line attached to an item.
type QuoteItemCoverage struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	ItemID     snowflake.ID `json:"item_id" gorm:"not null;index:idx_item_coverage,unique"`
	CoverageID snowflake.ID `json:"coverage_id" gorm:"not null;index:idx_item_coverage,unique"`
	Included   bool         `json:"included" gorm:"not null;default:true"`
	Value      string       `json:"value" gorm:"type:text"`
	Notes      string       `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (QuoteItemCoverage) TableName() string { return "quote_item_coverages" }
