package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListActiveInsurers(ctx context.Context, db *gorm.DB) ([]Insurer, error)
	ListActiveRuleProducts(ctx context.Context, db *gorm.DB) ([]Product, error)
	ListCoverages(ctx context.Context, db *gorm.DB) ([]Coverage, error)
	ListProductCoverages(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) ([]ProductCoverage, error)
}
