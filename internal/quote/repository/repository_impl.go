package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	quotedomain "github.com/polizaflow/cotiza/internal/quote/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() quotedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, quote *quotedomain.Quote) error {
	return db.WithContext(ctx).Create(quote).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []quotedomain.QuoteItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*quotedomain.Quote, error) {
	var quote quotedomain.Quote
	err := db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("ranking ASC") }).
		Preload("Items.Calc").
		Preload("Items.AppliedRules", func(db *gorm.DB) *gorm.DB { return db.Order("eval_order ASC") }).
		Preload("Items.Coverages").
		First(&quote, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &quote, nil
}

func (r *repo) MarkSelected(ctx context.Context, db *gorm.DB, quoteID, itemID snowflake.ID) (int64, error) {
	if err := db.WithContext(ctx).
		Model(&quotedomain.QuoteItem{}).
		Where("quote_id = ? AND selected = ?", quoteID, true).
		Update("selected", false).Error; err != nil {
		return 0, err
	}
	result := db.WithContext(ctx).
		Model(&quotedomain.QuoteItem{}).
		Where("quote_id = ? AND id = ?", quoteID, itemID).
		Update("selected", true)
	return result.RowsAffected, result.Error
}
