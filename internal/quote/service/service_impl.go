package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/polizaflow/cotiza/internal/catalog/domain"
	"github.com/polizaflow/cotiza/internal/clock"
	"github.com/polizaflow/cotiza/internal/config"
	"github.com/polizaflow/cotiza/internal/folio"
	"github.com/polizaflow/cotiza/internal/observability/metrics"
	quotedomain "github.com/polizaflow/cotiza/internal/quote/domain"
	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
	"github.com/polizaflow/cotiza/internal/tariff/engine"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Cfg         config.Config
	Repo        quotedomain.Repository
	CatalogRepo catalogdomain.Repository
	TariffRepo  tariffdomain.Repository
	Folio       *folio.Allocator
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	cfg         config.Config
	repo        quotedomain.Repository
	catalogRepo catalogdomain.Repository
	tariffRepo  tariffdomain.Repository
	folio       *folio.Allocator
}

func New(p Params) quotedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("quote.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		cfg:         p.Cfg,
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
		tariffRepo:  p.TariffRepo,
		folio:       p.Folio,
	}
}

// comboResult is the outcome of one (insurer, product) evaluation.
// Index preserves generation order for the ranking tie-break.
type comboResult struct {
	index     int
	product   catalogdomain.Product
	eval      engine.Evaluation
	total     decimal.Decimal
	item      quotedomain.QuoteItem
	calc      quotedomain.QuoteItemCalc
	coverages []engine.CoverageCost
}

func (s *Service) Create(ctx context.Context, req quotedomain.CreateRequest) (*quotedomain.Response, error) {
	req, validFrom, validTo, err := validateCreate(req)
	if err != nil {
		return nil, err
	}

	// Snapshot the catalog once, up front. Concurrent admin edits are
	// invisible for the rest of this request.
	products, err := s.catalogRepo.ListActiveRuleProducts(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if len(products) > s.cfg.MaxCombinations {
		products = products[:s.cfg.MaxCombinations]
	}
	snapshot, err := s.tariffRepo.LoadSnapshot(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("load tariff snapshot: %w", err)
	}

	engCtx := engine.Context{
		Client:  req.Client,
		Vehicle: req.Vehicle,
		Driver:  req.Driver,
		Quote:   quoteAttributes(req),
		Now:     s.clock.Now(),
	}
	eng := engine.New(snapshot, s.cfg.DefaultBasePremium)

	// Evaluation is pure per combination; run them all in parallel and
	// collect into preallocated slots so output order never depends on
	// goroutine scheduling.
	started := time.Now()
	results := make([]comboResult, len(products))
	var wg sync.WaitGroup
	for i, product := range products {
		wg.Add(1)
		go func(i int, product catalogdomain.Product) {
			defer wg.Done()
			results[i] = s.evaluateCombination(i, eng, snapshot, product, engCtx, req)
		}(i, product)
	}
	wg.Wait()
	metrics.EvaluationDuration.Observe(time.Since(started).Seconds())

	var priced []*comboResult
	var failures []quotedomain.CombinationFailure
	for i := range results {
		r := &results[i]
		metrics.CombinationsEvaluated.WithLabelValues(string(r.eval.Status)).Inc()
		switch r.eval.Status {
		case engine.StatusPriced:
			priced = append(priced, r)
		case engine.StatusRejected:
			failures = append(failures, quotedomain.CombinationFailure{
				InsurerID: r.product.InsurerID.String(),
				ProductID: r.product.ID.String(),
				Status:    string(engine.StatusRejected),
				Reason:    r.eval.RejectMessage,
			})
		case engine.StatusErrored:
			s.log.Warn("combination errored",
				zap.String("product_id", r.product.ID.String()),
				zap.Error(r.eval.Err))
			failures = append(failures, quotedomain.CombinationFailure{
				InsurerID: r.product.InsurerID.String(),
				ProductID: r.product.ID.String(),
				Status:    string(engine.StatusErrored),
				Reason:    r.eval.Err.Error(),
			})
		}
	}

	// Rank ascending by total; ties keep generation order. Ranks are
	// dense and contiguous by construction.
	sort.SliceStable(priced, func(i, j int) bool {
		c := priced[i].total.Cmp(priced[j].total)
		if c != 0 {
			return c < 0
		}
		return priced[i].index < priced[j].index
	})
	for rank, r := range priced {
		r.item.Ranking = rank + 1
	}

	folioStr, err := s.folio.Next(ctx, validFrom.Year())
	if err != nil {
		return nil, fmt.Errorf("allocate folio: %w", err)
	}
	metrics.FoliosAllocated.Inc()

	quote := &quotedomain.Quote{
		ID:           s.genID.Generate(),
		Folio:        folioStr,
		Origin:       req.Origin,
		QuoteType:    req.QuoteType,
		Status:       quotedomain.StatusDraft,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
		PaymentForm:  req.PaymentForm,
		Notes:        req.Notes,
		ClientAttrs:  datatypes.JSONMap(req.Client),
		VehicleAttrs: datatypes.JSONMap(req.Vehicle),
		DriverAttrs:  datatypes.JSONMap(req.Driver),
		QuoteAttrs:   datatypes.JSONMap(req.Quote),
	}
	for _, r := range priced {
		item := r.item
		item.ID = s.genID.Generate()
		item.QuoteID = quote.ID

		calc := r.calc
		calc.ID = s.genID.Generate()
		calc.ItemID = item.ID
		item.Calc = &calc

		for _, trace := range r.eval.Trace {
			item.AppliedRules = append(item.AppliedRules, quotedomain.QuoteItemAppliedRule{
				ID:          s.genID.Generate(),
				ItemID:      item.ID,
				RuleID:      trace.RuleID,
				Outcome:     quotedomain.RuleOutcome(trace.Outcome),
				ResultValue: trace.Value,
				Message:     trace.Message,
				Order:       trace.Order,
			})
		}
		for _, cost := range r.coverages {
			if !cost.Applied {
				continue
			}
			item.Coverages = append(item.Coverages, quotedomain.QuoteItemCoverage{
				ID:         s.genID.Generate(),
				ItemID:     item.ID,
				CoverageID: cost.CoverageID,
				Included:   true,
				Value:      cost.Amount.StringFixed(2),
			})
		}
		quote.Items = append(quote.Items, item)
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, quote)
	}); err != nil {
		return nil, fmt.Errorf("persist quote: %w", err)
	}

	metrics.QuotesCreated.Inc()
	s.log.Info("quote created",
		zap.String("folio", quote.Folio),
		zap.Int("priced", len(priced)),
		zap.Int("failed", len(failures)))

	resp := s.toResponse(quote)
	resp.Failures = failures
	return resp, nil
}

// evaluateCombination prices one (insurer, product) combination. It
// only reads the snapshot and the context; no writes anywhere.
func (s *Service) evaluateCombination(
	index int,
	eng *engine.Engine,
	snapshot *tariffdomain.Snapshot,
	product catalogdomain.Product,
	engCtx engine.Context,
	req quotedomain.CreateRequest,
) comboResult {
	result := comboResult{index: index, product: product}
	result.eval = eng.Evaluate(product.ID, engCtx)
	if result.eval.Status != engine.StatusPriced {
		return result
	}

	acc := result.eval.Accum
	basePremium := engine.Round2(acc.Get(engine.FieldBasePremium))
	factorTotal := acc.Get(engine.FieldFactorTotal).Round(6)

	var netPremium decimal.Decimal
	if acc.WasSet(engine.FieldNetPremium) {
		netPremium = engine.Round2(acc.Get(engine.FieldNetPremium))
	} else {
		netPremium = engine.Round2(basePremium.Mul(factorTotal))
	}

	netPremium = s.applyDeductible(snapshot, product.ID, req.Deductible, netPremium)

	fees := engine.Round2(acc.Get(engine.FieldFees))
	surcharges := engine.Round2(acc.Get(engine.FieldSurcharges))
	discounts := engine.Round2(acc.Get(engine.FieldDiscounts))

	taxable := netPremium.Add(fees).Add(surcharges).Sub(discounts)
	tax := engine.Round2(s.cfg.TaxRate.Mul(taxable))
	total := taxable.Add(tax)

	paymentForm := req.PaymentForm
	if paymentForm == "" {
		paymentForm = "CONTADO"
	}

	result.total = total
	result.item = quotedomain.QuoteItem{
		InsurerID:   product.InsurerID,
		ProductID:   product.ID,
		NetPremium:  netPremium,
		Fees:        fees,
		Surcharges:  surcharges,
		Discounts:   discounts,
		Tax:         tax,
		Total:       total,
		PaymentForm: paymentForm,
	}
	result.coverages = eng.PriceCoverages(product.ID, engCtx, basePremium)
	result.calc = quotedomain.QuoteItemCalc{
		BasePremium: basePremium,
		FactorTotal: factorTotal,
		Detail: datatypes.JSONMap{
			"calculo": map[string]any{
				"prima_base":   basePremium.StringFixed(2),
				"factor_total": factorTotal.StringFixed(6),
				"prima_neta":   netPremium.StringFixed(2),
				"derechos":     fees.StringFixed(2),
				"recargos":     surcharges.StringFixed(2),
				"descuentos":   discounts.StringFixed(2),
				"iva_rate":     s.cfg.TaxRate.String(),
				"iva":          tax.StringFixed(2),
				"prima_total":  total.StringFixed(2),
			},
			"base_default": result.eval.UsedDefaultBase,
		},
	}
	return result
}

// applyDeductible scales the net premium when the requested deductible
// option affects it.
func (s *Service) applyDeductible(snapshot *tariffdomain.Snapshot, productID snowflake.ID, kind string, netPremium decimal.Decimal) decimal.Decimal {
	if kind == "" {
		return netPremium
	}
	for _, opt := range snapshot.Deductibles[productID] {
		if string(opt.Kind) != kind || !opt.AffectsPremium || !opt.PremiumFactor.Valid {
			continue
		}
		return engine.Round2(netPremium.Mul(opt.PremiumFactor.Decimal))
	}
	return netPremium
}

func (s *Service) Get(ctx context.Context, req quotedomain.GetRequest) (*quotedomain.Response, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return nil, quotedomain.ErrInvalidID
	}
	quote, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, quotedomain.ErrNotFound
	}
	return s.toResponse(quote), nil
}

func (s *Service) SelectItem(ctx context.Context, req quotedomain.SelectItemRequest) (*quotedomain.Response, error) {
	quoteID, err := parseID(req.QuoteID)
	if err != nil {
		return nil, quotedomain.ErrInvalidID
	}
	itemID, err := parseID(req.ItemID)
	if err != nil {
		return nil, quotedomain.ErrInvalidID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.repo.MarkSelected(ctx, tx, quoteID, itemID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return quotedomain.ErrItemNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, quotedomain.GetRequest{ID: req.QuoteID})
}

func (s *Service) toResponse(quote *quotedomain.Quote) *quotedomain.Response {
	resp := &quotedomain.Response{
		ID:        quote.ID.String(),
		Folio:     quote.Folio,
		Origin:    quote.Origin,
		QuoteType: quote.QuoteType,
		Status:    quote.Status,
		ValidFrom: quote.ValidFrom.Format(dateLayout),
		ValidTo:   quote.ValidTo.Format(dateLayout),
		Items:     []quotedomain.ItemResponse{},
	}
	for _, item := range quote.Items {
		ir := quotedomain.ItemResponse{
			ID:          item.ID.String(),
			InsurerID:   item.InsurerID.String(),
			ProductID:   item.ProductID.String(),
			NetPremium:  item.NetPremium,
			Fees:        item.Fees,
			Surcharges:  item.Surcharges,
			Discounts:   item.Discounts,
			Tax:         item.Tax,
			Total:       item.Total,
			PaymentForm: item.PaymentForm,
			Months:      item.Months,
			Ranking:     item.Ranking,
			Selected:    item.Selected,
		}
		if item.Calc != nil {
			ir.BasePremium = item.Calc.BasePremium
			ir.FactorTotal = item.Calc.FactorTotal
			ir.Detail = item.Calc.Detail
		}
		for _, rule := range item.AppliedRules {
			ir.Rules = append(ir.Rules, quotedomain.AppliedRuleResponse{
				RuleID:      rule.RuleID.String(),
				Outcome:     rule.Outcome,
				ResultValue: rule.ResultValue,
				Message:     rule.Message,
				Order:       rule.Order,
			})
		}
		for _, coverage := range item.Coverages {
			ir.Coverages = append(ir.Coverages, quotedomain.ItemCoverageResponse{
				CoverageID: coverage.CoverageID.String(),
				Included:   coverage.Included,
				Value:      coverage.Value,
			})
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

func validateCreate(req quotedomain.CreateRequest) (quotedomain.CreateRequest, time.Time, time.Time, error) {
	if req.Origin == "" {
		req.Origin = quotedomain.OriginCRM
	}
	switch req.Origin {
	case quotedomain.OriginPublicPortal, quotedomain.OriginCRM, quotedomain.OriginAgent, quotedomain.OriginAPI:
	default:
		return req, time.Time{}, time.Time{}, quotedomain.ErrInvalidOrigin
	}

	switch req.QuoteType {
	case quotedomain.TypeIndividual:
		if req.Vehicle == nil {
			return req, time.Time{}, time.Time{}, quotedomain.ErrMissingVehicle
		}
	case quotedomain.TypeFleet:
	default:
		return req, time.Time{}, time.Time{}, quotedomain.ErrInvalidQuoteType
	}

	validFrom, err := time.Parse(dateLayout, req.ValidFrom)
	if err != nil {
		return req, time.Time{}, time.Time{}, quotedomain.ErrInvalidValidity
	}
	validTo, err := time.Parse(dateLayout, req.ValidTo)
	if err != nil {
		return req, time.Time{}, time.Time{}, quotedomain.ErrInvalidValidity
	}
	if !validTo.After(validFrom) {
		return req, time.Time{}, time.Time{}, quotedomain.ErrInvalidValidity
	}
	return req, validFrom, validTo, nil
}

// quoteAttributes exposes quote-level data to COTIZACION-origin
// variables alongside whatever the caller provided.
func quoteAttributes(req quotedomain.CreateRequest) map[string]any {
	attrs := make(map[string]any, len(req.Quote)+4)
	for k, v := range req.Quote {
		attrs[k] = v
	}
	attrs["tipo_cotizacion"] = string(req.QuoteType)
	attrs["origen"] = string(req.Origin)
	attrs["vigencia_desde"] = req.ValidFrom
	attrs["vigencia_hasta"] = req.ValidTo
	return attrs
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(raw)
}
