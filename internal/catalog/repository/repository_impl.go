package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/polizaflow/cotiza/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) ListActiveInsurers(ctx context.Context, db *gorm.DB) ([]catalogdomain.Insurer, error) {
	var insurers []catalogdomain.Insurer
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&insurers).Error
	return insurers, err
}

// ListActiveRuleProducts returns active REGLAS products of active insurers,
// in stable id order. This is the combination universe for one quote.
func (r *repo) ListActiveRuleProducts(ctx context.Context, db *gorm.DB) ([]catalogdomain.Product, error) {
	var products []catalogdomain.Product
	err := db.WithContext(ctx).
		Joins("JOIN insurers ON insurers.id = products.insurer_id AND insurers.active = ?", true).
		Where("products.active = ? AND products.calc_model = ?", true, catalogdomain.CalcModelRules).
		Order("products.id ASC").
		Find(&products).Error
	return products, err
}

func (r *repo) ListCoverages(ctx context.Context, db *gorm.DB) ([]catalogdomain.Coverage, error) {
	var coverages []catalogdomain.Coverage
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("code ASC").
		Find(&coverages).Error
	return coverages, err
}

func (r *repo) ListProductCoverages(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) ([]catalogdomain.ProductCoverage, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var links []catalogdomain.ProductCoverage
	err := db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("id ASC").
		Find(&links).Error
	return links, err
}
