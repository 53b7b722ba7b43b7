// Package folio allocates sequential per-year quote folios. The counter
// row is locked for the duration of one increment-and-read, so
// concurrent callers (including other engine instances) never observe
// or allocate the same number.
package folio

import (
	"context"
	"errors"
	"fmt"

	"github.com/polizaflow/cotiza/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Counter is the per-year persistent sequence row.
type Counter struct {
	Year int   `gorm:"primaryKey"`
	Last int64 `gorm:"not null;default:0"`
}

func (Counter) TableName() string { return "quote_folio_counters" }

type Allocator struct {
	db     *gorm.DB
	prefix string
}

func NewAllocator(db *gorm.DB, prefix string) *Allocator {
	return &Allocator{db: db, prefix: prefix}
}

// Next returns the next folio for the year, formatted PREFIX-year-NNNNNN.
// The row lock is held only for the increment, never across quote
// evaluation work.
func (a *Allocator) Next(ctx context.Context, year int) (string, error) {
	var folio string
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter Counter
		err := lockRow(tx).First(&counter, "year = ?", year).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter = Counter{Year: year}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
				return err
			}
			// Re-acquire under lock: another transaction may have
			// created and advanced the row first.
			if err := lockRow(tx).First(&counter, "year = ?", year).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		counter.Last++
		if err := tx.Model(&Counter{}).Where("year = ?", year).Update("last", counter.Last).Error; err != nil {
			return err
		}
		folio = fmt.Sprintf("%s-%d-%06d", a.prefix, year, counter.Last)
		return nil
	})
	if err != nil {
		return "", err
	}
	return folio, nil
}

// lockRow adds FOR UPDATE on dialects that support it. sqlite
// serializes writers on its own.
func lockRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

var Module = fx.Module("folio",
	fx.Provide(func(db *gorm.DB, cfg config.Config) *Allocator {
		return NewAllocator(db, cfg.FolioPrefix)
	}),
)
