package service

import (
	"context"
	"errors"

	"github.com/read1store/backoffice/internal/models"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
)

// EventPublisher pushes domain events to the broker. Publishing is
// best-effort: lifecycle operations log failures and carry on.
type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event map[string]any) error
}

// ProductIndexer keeps the search index in step with the catalog.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}
