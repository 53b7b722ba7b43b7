package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, quote *Quote) error
	InsertItems(ctx context.Context, db *gorm.DB, items []QuoteItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Quote, error)
	// MarkSelected sets the given item as the quote's selected option
	// and clears any previous selection in the same statement scope.
	MarkSelected(ctx context.Context, db *gorm.DB, quoteID, itemID snowflake.ID) (int64, error)
}
