package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/polizaflow/cotiza/internal/catalog/domain"
	catalogrepo "github.com/polizaflow/cotiza/internal/catalog/repository"
	"github.com/polizaflow/cotiza/internal/clock"
	"github.com/polizaflow/cotiza/internal/config"
	"github.com/polizaflow/cotiza/internal/folio"
	quotedomain "github.com/polizaflow/cotiza/internal/quote/domain"
	quoterepo "github.com/polizaflow/cotiza/internal/quote/repository"
	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
	tariffrepo "github.com/polizaflow/cotiza/internal/tariff/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

type fixture struct {
	svc       quotedomain.Service
	db        *gorm.DB
	node      *snowflake.Node
	ampliaID  snowflake.ID
	selectaID snowflake.ID
}

// newFixture migrates an in-memory catalog with two rule products:
// "Amplia" prices adults at base 8500 with an age factor table and 450
// fees; "Selecta" rejects everyone under 90.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// One pooled connection, or every new conn sees a fresh empty db.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Insurer{},
		&catalogdomain.Product{},
		&catalogdomain.Coverage{},
		&catalogdomain.ProductCoverage{},
		&tariffdomain.Variable{},
		&tariffdomain.FactorTable{},
		&tariffdomain.FactorTableRange{},
		&tariffdomain.Rule{},
		&tariffdomain.Condition{},
		&tariffdomain.Action{},
		&tariffdomain.CoverageTariff{},
		&tariffdomain.DeductibleOption{},
		&quotedomain.Quote{},
		&quotedomain.QuoteItem{},
		&quotedomain.QuoteItemCalc{},
		&quotedomain.QuoteItemAppliedRule{},
		&quotedomain.QuoteItemCoverage{},
		&folio.Counter{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{db: db, node: node}
	f.seedCatalog(t)

	cfg := config.Config{
		TaxRate:            d("0.16"),
		DefaultBasePremium: d("8500.00"),
		FolioPrefix:        "COT",
		MaxCombinations:    50,
	}
	f.svc = New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)),
		Cfg:         cfg,
		Repo:        quoterepo.Provide(),
		CatalogRepo: catalogrepo.Provide(),
		TariffRepo:  tariffrepo.Provide(),
		Folio:       folio.NewAllocator(db, cfg.FolioPrefix),
	})
	return f
}

func (f *fixture) seedCatalog(t *testing.T) {
	t.Helper()

	insurer := catalogdomain.Insurer{ID: f.node.Generate(), Name: "Aseguradora del Centro", Active: true}
	require.NoError(t, f.db.Create(&insurer).Error)

	amplia := catalogdomain.Product{
		ID: f.node.Generate(), InsurerID: insurer.ID, Name: "Amplia",
		ProductType: catalogdomain.ProductTypeAuto, CalcModel: catalogdomain.CalcModelRules, Active: true,
	}
	selecta := catalogdomain.Product{
		ID: f.node.Generate(), InsurerID: insurer.ID, Name: "Selecta",
		ProductType: catalogdomain.ProductTypeAuto, CalcModel: catalogdomain.CalcModelRules, Active: true,
	}
	require.NoError(t, f.db.Create(&amplia).Error)
	require.NoError(t, f.db.Create(&selecta).Error)
	f.ampliaID = amplia.ID
	f.selectaID = selecta.ID

	edad := tariffdomain.Variable{
		ID: f.node.Generate(), Code: "edad", Name: "Edad",
		DataKind: tariffdomain.DataInt, Origin: tariffdomain.OriginDriver, Active: true,
	}
	require.NoError(t, f.db.Create(&edad).Error)

	table := tariffdomain.FactorTable{
		ID: f.node.Generate(), Name: "factor_edad", Kind: tariffdomain.TableFactor, Active: true,
	}
	require.NoError(t, f.db.Create(&table).Error)
	ranges := []tariffdomain.FactorTableRange{
		{ID: f.node.Generate(), TableID: table.ID, Var1Code: "edad", Var1Min: nd("18"), Var1Max: nd("25"), Value: d("1.25"), Active: true},
		{ID: f.node.Generate(), TableID: table.ID, Var1Code: "edad", Var1Min: nd("26"), Var1Max: nd("60"), Value: d("1.10"), Active: true},
	}
	require.NoError(t, f.db.Create(&ranges).Error)

	rules := []tariffdomain.Rule{
		{
			ID: f.node.Generate(), ProductID: amplia.ID, Name: "Prima base",
			Type: tariffdomain.RuleBasePremium, Mode: tariffdomain.FirstMatch, Active: true,
			Actions: []tariffdomain.Action{{
				ID: f.node.Generate(), Type: tariffdomain.ActionSetAmount,
				TargetField: "prima_base", Value: nd("8500.00"), Rounding: tariffdomain.RoundTwoDec, Order: 1,
			}},
		},
		{
			ID: f.node.Generate(), ProductID: amplia.ID, Name: "Factor por edad",
			Type: tariffdomain.RuleFactor, Mode: tariffdomain.MultiplyAll, Active: true,
			Actions: []tariffdomain.Action{{
				ID: f.node.Generate(), Type: tariffdomain.ActionApplyFactorTable,
				TargetField: "factor_total", TableRef: "factor_edad", Combine: tariffdomain.CombineMultiply, Order: 1,
			}},
		},
		{
			ID: f.node.Generate(), ProductID: amplia.ID, Name: "Derechos",
			Type: tariffdomain.RuleFee, Mode: tariffdomain.FirstMatch, Active: true,
			Actions: []tariffdomain.Action{{
				ID: f.node.Generate(), Type: tariffdomain.ActionSetAmount,
				TargetField: "derechos", Value: nd("450.00"), Rounding: tariffdomain.RoundTwoDec, Order: 1,
			}},
		},
		{
			ID: f.node.Generate(), ProductID: selecta.ID, Name: "Solo mayores de 90",
			Type: tariffdomain.RuleEligibility, Mode: tariffdomain.FirstMatch, Active: true,
			Conditions: []tariffdomain.Condition{{
				ID: f.node.Generate(), VariableCode: "edad", Operator: tariffdomain.OpLt, Value1: "90", Group: 1, Order: 1,
			}},
			Actions: []tariffdomain.Action{{
				ID: f.node.Generate(), Type: tariffdomain.ActionReject, Message: "Producto restringido", Order: 1,
			}},
		},
	}
	for i := range rules {
		for j := range rules[i].Conditions {
			rules[i].Conditions[j].RuleID = rules[i].ID
		}
		for j := range rules[i].Actions {
			rules[i].Actions[j].RuleID = rules[i].ID
		}
		require.NoError(t, f.db.Create(&rules[i]).Error)
	}
}

func createRequest() quotedomain.CreateRequest {
	return quotedomain.CreateRequest{
		Origin:    quotedomain.OriginCRM,
		QuoteType: quotedomain.TypeIndividual,
		ValidFrom: "2026-01-15",
		ValidTo:   "2026-02-14",
		Client:    map[string]any{"codigo_postal": "06700"},
		Vehicle:   map[string]any{"valor_vehiculo": "185000"},
		Driver:    map[string]any{"edad": 30},
	}
}

func TestCreate_PricesAndRanks(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	assert.Equal(t, "COT-2026-000001", resp.Folio)
	assert.Equal(t, quotedomain.StatusDraft, resp.Status)

	// Amplia prices, Selecta rejects.
	require.Len(t, resp.Items, 1)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "REJECTED", resp.Failures[0].Status)
	assert.Equal(t, "Producto restringido", resp.Failures[0].Reason)

	item := resp.Items[0]
	assert.Equal(t, 1, item.Ranking)
	assert.True(t, d("8500").Equal(item.BasePremium), "base %s", item.BasePremium)
	assert.True(t, d("1.1").Equal(item.FactorTotal), "factor %s", item.FactorTotal)
	assert.True(t, d("9350").Equal(item.NetPremium), "net %s", item.NetPremium)
	assert.True(t, d("450").Equal(item.Fees))
	// 16% of 9350 + 450 = 1568.00
	assert.True(t, d("1568").Equal(item.Tax), "tax %s", item.Tax)
	assert.True(t, d("11368").Equal(item.Total), "total %s", item.Total)

	require.NotEmpty(t, item.Rules)
	for _, rule := range item.Rules {
		assert.NotZero(t, rule.Order)
	}
}

func TestCreate_FoliosAreSequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, createRequest())
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, createRequest())
	require.NoError(t, err)

	assert.Equal(t, "COT-2026-000001", first.Folio)
	assert.Equal(t, "COT-2026-000002", second.Folio)
}

func TestCreate_RankingIsDenseAndAscending(t *testing.T) {
	f := newFixture(t)

	// A cheaper competitor product so two items survive.
	insurer := catalogdomain.Insurer{ID: f.node.Generate(), Name: "Seguros del Norte", Active: true}
	require.NoError(t, f.db.Create(&insurer).Error)
	economica := catalogdomain.Product{
		ID: f.node.Generate(), InsurerID: insurer.ID, Name: "Economica",
		ProductType: catalogdomain.ProductTypeAuto, CalcModel: catalogdomain.CalcModelRules, Active: true,
	}
	require.NoError(t, f.db.Create(&economica).Error)
	rule := tariffdomain.Rule{
		ID: f.node.Generate(), ProductID: economica.ID, Name: "Prima base",
		Type: tariffdomain.RuleBasePremium, Mode: tariffdomain.FirstMatch, Active: true,
		Actions: []tariffdomain.Action{{
			ID: f.node.Generate(), Type: tariffdomain.ActionSetAmount,
			TargetField: "prima_base", Value: nd("5000.00"), Order: 1,
		}},
	}
	rule.Actions[0].RuleID = rule.ID
	require.NoError(t, f.db.Create(&rule).Error)

	resp, err := f.svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, 1, resp.Items[0].Ranking)
	assert.Equal(t, 2, resp.Items[1].Ranking)
	assert.True(t, resp.Items[0].Total.LessThanOrEqual(resp.Items[1].Total))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*quotedomain.CreateRequest)
		wantErr error
	}{
		{"bad quote type", func(r *quotedomain.CreateRequest) { r.QuoteType = "GRUPAL" }, quotedomain.ErrInvalidQuoteType},
		{"bad origin", func(r *quotedomain.CreateRequest) { r.Origin = "FAX" }, quotedomain.ErrInvalidOrigin},
		{"unparsable validity", func(r *quotedomain.CreateRequest) { r.ValidFrom = "15/01/2026" }, quotedomain.ErrInvalidValidity},
		{"inverted window", func(r *quotedomain.CreateRequest) { r.ValidFrom, r.ValidTo = r.ValidTo, r.ValidFrom }, quotedomain.ErrInvalidValidity},
		{"individual without vehicle", func(r *quotedomain.CreateRequest) { r.Vehicle = nil }, quotedomain.ErrMissingVehicle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest()
			tt.mutate(&req)
			_, err := f.svc.Create(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGet_RoundTripsPersistedQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, createRequest())
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, quotedomain.GetRequest{ID: created.ID})
	require.NoError(t, err)

	assert.Equal(t, created.Folio, got.Folio)
	require.Len(t, got.Items, 1)
	assert.True(t, created.Items[0].Total.Equal(got.Items[0].Total))
	assert.NotEmpty(t, got.Items[0].Rules, "the audit trail is persisted")
}

func TestGet_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, quotedomain.GetRequest{ID: "not-a-number"})
	assert.ErrorIs(t, err, quotedomain.ErrInvalidID)

	_, err = f.svc.Get(ctx, quotedomain.GetRequest{ID: "424242"})
	assert.ErrorIs(t, err, quotedomain.ErrNotFound)
}

func TestSelectItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, createRequest())
	require.NoError(t, err)
	require.Len(t, created.Items, 1)

	resp, err := f.svc.SelectItem(ctx, quotedomain.SelectItemRequest{
		QuoteID: created.ID,
		ItemID:  created.Items[0].ID,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].Selected)

	_, err = f.svc.SelectItem(ctx, quotedomain.SelectItemRequest{
		QuoteID: created.ID,
		ItemID:  "424242",
	})
	assert.ErrorIs(t, err, quotedomain.ErrItemNotFound)
}
