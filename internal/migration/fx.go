package migration

import (
	catalogdomain "github.com/polizaflow/cotiza/internal/catalog/domain"
	"github.com/polizaflow/cotiza/internal/config"
	"github.com/polizaflow/cotiza/internal/folio"
	quotedomain "github.com/polizaflow/cotiza/internal/quote/domain"
	"github.com/polizaflow/cotiza/internal/seed"
	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := autoMigrate(conn); err != nil {
				return err
			}
		}

		if cfg.SeedDemoCatalog {
			return seed.EnsureDemoCatalog(conn)
		}
		return nil
	}),
)

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
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
	)
}
