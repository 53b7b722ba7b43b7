package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// CreateRequest carries one quote context: who/what is being insured
// and the quote-level preferences. Attribute maps are keyed by tariff
// variable code.
type CreateRequest struct {
	Origin      Origin         `json:"origin"`
	QuoteType   QuoteType      `json:"quote_type"`
	ValidFrom   string         `json:"valid_from"`
	ValidTo     string         `json:"valid_to"`
	PaymentForm string         `json:"payment_form"`
	Notes       string         `json:"notes"`
	Deductible  string         `json:"deductible,omitempty"`
	Client      map[string]any `json:"client"`
	Vehicle     map[string]any `json:"vehicle"`
	Driver      map[string]any `json:"driver"`
	Quote       map[string]any `json:"quote"`
}

type GetRequest struct {
	ID string
}

type SelectItemRequest struct {
	QuoteID string
	ItemID  string
}

// CombinationFailure reports one (insurer, product) combination that
// did not survive to a priced item.
type CombinationFailure struct {
	InsurerID string `json:"insurer_id"`
	ProductID string `json:"product_id"`
	Status    string `json:"status"` // REJECTED or ERRORED
	Reason    string `json:"reason"`
}

type ItemResponse struct {
	ID          string                 `json:"id"`
	InsurerID   string                 `json:"insurer_id"`
	ProductID   string                 `json:"product_id"`
	NetPremium  decimal.Decimal        `json:"net_premium"`
	Fees        decimal.Decimal        `json:"fees"`
	Surcharges  decimal.Decimal        `json:"surcharges"`
	Discounts   decimal.Decimal        `json:"discounts"`
	Tax         decimal.Decimal        `json:"tax"`
	Total       decimal.Decimal        `json:"total"`
	PaymentForm string                 `json:"payment_form"`
	Months      *int                   `json:"months,omitempty"`
	Ranking     int                    `json:"ranking"`
	Selected    bool                   `json:"selected"`
	BasePremium decimal.Decimal        `json:"base_premium"`
	FactorTotal decimal.Decimal        `json:"factor_total"`
	Detail      map[string]any         `json:"detail,omitempty"`
	Rules       []AppliedRuleResponse  `json:"rules,omitempty"`
	Coverages   []ItemCoverageResponse `json:"coverages,omitempty"`
}

type AppliedRuleResponse struct {
	RuleID      string      `json:"rule_id"`
	Outcome     RuleOutcome `json:"outcome"`
	ResultValue string      `json:"result_value,omitempty"`
	Message     string      `json:"message,omitempty"`
	Order       int         `json:"order"`
}

type ItemCoverageResponse struct {
	CoverageID string `json:"coverage_id"`
	Included   bool   `json:"included"`
	Value      string `json:"value,omitempty"`
}

type Response struct {
	ID        string               `json:"id"`
	Folio     string               `json:"folio"`
	Origin    Origin               `json:"origin"`
	QuoteType QuoteType            `json:"quote_type"`
	Status    Status               `json:"status"`
	ValidFrom string               `json:"valid_from"`
	ValidTo   string               `json:"valid_to"`
	Items     []ItemResponse       `json:"items"`
	Failures  []CombinationFailure `json:"failures,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, req GetRequest) (*Response, error)
	SelectItem(ctx context.Context, req SelectItemRequest) (*Response, error)
}

var (
	ErrInvalidQuoteType = errors.New("invalid_quote_type")
	ErrInvalidOrigin    = errors.New("invalid_origin")
	ErrInvalidValidity  = errors.New("invalid_validity_window")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
	ErrItemNotFound     = errors.New("item_not_found")
	ErrMissingVehicle   = errors.New("missing_vehicle_context")
)
