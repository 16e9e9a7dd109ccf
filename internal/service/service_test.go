package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/read1store/backoffice/internal/models"
	"github.com/read1store/backoffice/internal/repo"
)

var testClock = time.Date(2024, 11, 27, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testClock }

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderCounter{},
		&models.User{},
	))
	return &repo.GormRepo{DB: db}
}

type fakePublisher struct {
	events []map[string]any
}

func (f *fakePublisher) PublishEvent(_ context.Context, _ string, event map[string]any) error {
	f.events = append(f.events, event)
	return nil
}

func seedCategory(t *testing.T, r *repo.GormRepo) *models.Category {
	t.Helper()
	cat := &models.Category{Name: "Mirrorless Cameras", Slug: "mirrorless-cameras", IsActive: true}
	require.NoError(t, r.DB.Create(cat).Error)
	return cat
}

func seedProduct(t *testing.T, r *repo.GormRepo, catID uint, name, slug, sku string, price string, stock int) *models.Product {
	t.Helper()
	prod := &models.Product{
		CategoryID:    catID,
		Name:          name,
		Slug:          slug,
		SKU:           sku,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, r.DB.Create(prod).Error)
	return prod
}

func stockOf(t *testing.T, r *repo.GormRepo, id uint) int {
	t.Helper()
	prod, err := r.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return prod.StockQuantity
}
