package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/read1store/backoffice/internal/models"
	"github.com/read1store/backoffice/internal/repo"
	"github.com/read1store/backoffice/internal/transport"
	"github.com/read1store/backoffice/pkg/logging"
)

const DefaultLowStockThreshold = 10

type CatalogService struct {
	Repo  *repo.GormRepo
	Index ProductIndexer
	Now   func() time.Time
}

func (s *CatalogService) timeNow() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return prod, err
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if req.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock_quantity must be >= 0", ErrValidation)
	}
	if _, err := s.Repo.GetCategory(ctx, req.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %d", ErrValidation, req.CategoryID)
		}
		return nil, err
	}

	prod := &models.Product{
		CategoryID:     req.CategoryID,
		Name:           req.Name,
		Slug:           req.Slug,
		SKU:            req.SKU,
		Description:    req.Description,
		Specifications: req.Specifications,
		Price:          req.Price,
		StockQuantity:  req.StockQuantity,
		FeaturedImage:  req.FeaturedImage,
		IsActive:       true,
		IsFeatured:     req.IsFeatured,
		SortOrder:      req.SortOrder,
	}
	if req.IsActive != nil {
		prod.IsActive = *req.IsActive
	}
	if prod.Slug == "" {
		prod.Slug = Slugify(prod.Name)
	}

	autoSKU := prod.SKU == ""
	for attempt := 0; ; attempt++ {
		if autoSKU {
			sku, err := generateSKU(s.timeNow())
			if err != nil {
				return nil, err
			}
			prod.SKU = sku
		}

		err := s.Repo.CreateProduct(ctx, prod)
		if err == nil {
			break
		}
		// A generated SKU may collide; try a fresh one before giving up.
		if autoSKU && errors.Is(err, gorm.ErrDuplicatedKey) && attempt < 2 {
			continue
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: slug or sku already taken", ErrConflict)
		}
		return nil, err
	}

	s.reindex(ctx, prod)
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		prod.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		prod.Name = *req.Name
		// Slug follows the name unless the caller pins it explicitly.
		if req.Slug == nil {
			prod.Slug = Slugify(*req.Name)
		}
	}
	if req.Slug != nil {
		prod.Slug = *req.Slug
	}
	if req.SKU != nil {
		prod.SKU = *req.SKU
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Specifications != nil {
		prod.Specifications = *req.Specifications
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		prod.Price = *req.Price
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return nil, fmt.Errorf("%w: stock_quantity must be >= 0", ErrValidation)
		}
		prod.StockQuantity = *req.StockQuantity
	}
	if req.FeaturedImage != nil {
		prod.FeaturedImage = *req.FeaturedImage
	}
	if req.IsActive != nil {
		prod.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		prod.IsFeatured = *req.IsFeatured
	}
	if req.SortOrder != nil {
		prod.SortOrder = *req.SortOrder
	}

	if err := s.Repo.SaveProduct(ctx, prod); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: slug or sku already taken", ErrConflict)
		}
		return nil, err
	}

	s.reindex(ctx, prod)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return err
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("index_delete_error", "product_id", id, "error", err)
		}
	}
	return nil
}

func (s *CatalogService) LowStockProducts(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.Repo.LowStockProducts(ctx, threshold, limit)
}

func (s *CatalogService) OutOfStockProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.Repo.OutOfStockProducts(ctx, limit)
}

func (s *CatalogService) GetCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.GetCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}

	cat := &models.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		IsActive:    true,
		SortOrder:   req.SortOrder,
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	if cat.Slug == "" {
		cat.Slug = Slugify(cat.Name)
	}

	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: slug already taken", ErrConflict)
		}
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) PatchCategory(ctx context.Context, id uint, req transport.PatchCategoryRequest) (*models.Category, error) {
	cat, err := s.Repo.GetCategory(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: category %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		cat.Name = *req.Name
		if req.Slug == nil {
			cat.Slug = Slugify(*req.Name)
		}
	}
	if req.Slug != nil {
		cat.Slug = *req.Slug
	}
	if req.Description != nil {
		cat.Description = *req.Description
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		cat.SortOrder = *req.SortOrder
	}

	if err := s.Repo.SaveCategory(ctx, cat); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: slug already taken", ErrConflict)
		}
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	err := s.Repo.DeleteCategory(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: category %d", ErrNotFound, id)
	}
	return err
}

func (s *CatalogService) reindex(ctx context.Context, prod *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, prod); err != nil {
		logging.FromContext(ctx).Warn("index_error", "product_id", prod.ID, "error", err)
	}
}

// Slugify lowercases, strips diacritics and joins the alphanumeric runs of
// name with hyphens.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}
	s = strings.ToLower(s)

	var b strings.Builder
	pending := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

const skuAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateSKU builds FC-yymmdd-XXXX with a random uppercase alphanumeric
// suffix. FC is the store's camera prefix.
func generateSKU(t time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("sku entropy: %w", err)
	}
	for i := range buf {
		buf[i] = skuAlphabet[int(buf[i])%len(skuAlphabet)]
	}
	return fmt.Sprintf("FC-%s-%s", t.Format("060102"), buf), nil
}
