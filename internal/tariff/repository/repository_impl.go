package repository

import (
	"context"

	tariffdomain "github.com/polizaflow/cotiza/internal/tariff/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tariffdomain.Repository {
	return &repo{}
}

func (r *repo) LoadSnapshot(ctx context.Context, db *gorm.DB) (*tariffdomain.Snapshot, error) {
	var variables []tariffdomain.Variable
	if err := db.WithContext(ctx).Where("active = ?", true).Find(&variables).Error; err != nil {
		return nil, err
	}

	var tables []tariffdomain.FactorTable
	if err := db.WithContext(ctx).
		Preload("Ranges", "active = ?", true).
		Where("active = ?", true).
		Find(&tables).Error; err != nil {
		return nil, err
	}

	var rules []tariffdomain.Rule
	if err := db.WithContext(ctx).
		Preload("Conditions").
		Preload("Actions").
		Where("active = ?", true).
		Find(&rules).Error; err != nil {
		return nil, err
	}

	var coverageTariffs []tariffdomain.CoverageTariff
	if err := db.WithContext(ctx).Where("active = ?", true).Find(&coverageTariffs).Error; err != nil {
		return nil, err
	}

	var deductibles []tariffdomain.DeductibleOption
	if err := db.WithContext(ctx).Where("active = ?", true).Find(&deductibles).Error; err != nil {
		return nil, err
	}

	return tariffdomain.NewSnapshot(variables, tables, rules, coverageTariffs, deductibles), nil
}
