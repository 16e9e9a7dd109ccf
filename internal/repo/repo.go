package repo

import (
	"context"

	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

// WithinTx runs fn against a repo bound to a single transaction. Commit and
// rollback are hidden from the caller: fn returning an error rolls back.
func (r *GormRepo) WithinTx(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}
