// Package domain contains the insurer/product/coverage catalog entities.
//
// The quoting engine treats all of these as read-only input: they are
// administered elsewhere and snapshotted once per quote request.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ProductType string

const (
	ProductTypeAuto  ProductType = "AUTO"
	ProductTypeFleet ProductType = "FLOTILLA"
	ProductTypeMoto  ProductType = "MOTO"
	ProductTypeOther ProductType = "OTRO"
)

// CalcModel selects how a product is priced: SIMPLE items are captured
// externally, REGLAS products run through the rule engine.
type CalcModel string

const (
	CalcModelSimple CalcModel = "SIMPLE"
	CalcModelRules  CalcModel = "REGLAS"
)

type Insurer struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Name         string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
	RFC          string       `json:"rfc" gorm:"type:text"`
	Website      string       `json:"website" gorm:"type:text"`
	ContactPhone string       `json:"contact_phone" gorm:"type:text"`
	ContactEmail string       `json:"contact_email" gorm:"type:text"`
	Active       bool         `json:"active" gorm:"not null;default:true;index"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Insurer) TableName() string { return "insurers" }

type Product struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	InsurerID   snowflake.ID `json:"insurer_id" gorm:"not null;index"`
	Name        string       `json:"name" gorm:"type:text;not null"`
	ProductType ProductType  `json:"product_type" gorm:"type:text;not null;default:AUTO;index"`
	Description string       `json:"description" gorm:"type:text"`
	CalcModel   CalcModel    `json:"calc_model" gorm:"type:text;not null;default:REGLAS;index"`
	Active      bool         `json:"active" gorm:"not null;default:true;index"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

// CoverageValueKind describes what a coverage's configured value means.
type CoverageValueKind string

const (
	CoverageValueAmount     CoverageValueKind = "MONTO"
	CoverageValuePercentage CoverageValueKind = "PORCENTAJE"
	CoverageValueText       CoverageValueKind = "TEXTO"
	CoverageValueBool       CoverageValueKind = "BOOL"
)

type Coverage struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	Code        string            `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name        string            `json:"name" gorm:"type:text;not null"`
	Description string            `json:"description" gorm:"type:text"`
	ValueKind   CoverageValueKind `json:"value_kind" gorm:"type:text;not null;default:MONTO"`
	Active      bool              `json:"active" gorm:"not null;default:true;index"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Coverage) TableName() string { return "coverages" }

// ProductCoverage links a coverage into a product with its default value.
type ProductCoverage struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	ProductID    snowflake.ID `json:"product_id" gorm:"not null;index:idx_product_coverage,unique"`
	CoverageID   snowflake.ID `json:"coverage_id" gorm:"not null;index:idx_product_coverage,unique"`
	Included     bool         `json:"included" gorm:"not null;default:true"`
	DefaultValue string       `json:"default_value" gorm:"type:text"`
	Notes        string       `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProductCoverage) TableName() string { return "product_coverages" }
