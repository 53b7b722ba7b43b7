package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// LoadSnapshot reads the whole active tariff catalog in one pass.
	LoadSnapshot(ctx context.Context, db *gorm.DB) (*Snapshot, error)
}
