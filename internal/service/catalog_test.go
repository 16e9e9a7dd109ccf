package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/read1store/backoffice/internal/repo"
	"github.com/read1store/backoffice/internal/transport"
)

func newCatalogService(t *testing.T) (*CatalogService, *repo.GormRepo) {
	t.Helper()
	r := newTestRepo(t)
	return &CatalogService{Repo: r, Now: fixedNow}, r
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Fujifilm X-T5", "fujifilm-x-t5"},
		{"Café Crème", "cafe-creme"},
		{"  XF 35mm f/1.4 R  ", "xf-35mm-f-1-4-r"},
		{"Instax Mini 12 (Lilac)", "instax-mini-12-lilac"},
		{"UPPER---lower", "upper-lower"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}

func TestGenerateSKUFormat(t *testing.T) {
	sku, err := generateSKU(testClock)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^FC-241127-[A-Z0-9]{4}$`), sku)

	other, err := generateSKU(testClock)
	require.NoError(t, err)
	// not a guarantee, but two collisions in a row would be suspicious
	if sku == other {
		third, err := generateSKU(testClock)
		require.NoError(t, err)
		require.NotEqual(t, sku, third)
	}
}

func TestCreateProductDefaults(t *testing.T) {
	svc, r := newCatalogService(t)
	ctx := context.Background()
	cat := seedCategory(t, r)

	prod, err := svc.CreateProduct(ctx, transport.CreateProductRequest{
		CategoryID:    cat.ID,
		Name:          "Fujifilm X100VI",
		Price:         decimal.RequireFromString("26999000"),
		StockQuantity: 7,
	})
	require.NoError(t, err)
	require.Equal(t, "fujifilm-x100vi", prod.Slug)
	require.Regexp(t, `^FC-241127-[A-Z0-9]{4}$`, prod.SKU)
	require.True(t, prod.IsActive)
}

func TestCreateProductValidation(t *testing.T) {
	svc, r := newCatalogService(t)
	ctx := context.Background()
	cat := seedCategory(t, r)

	_, err := svc.CreateProduct(ctx, transport.CreateProductRequest{CategoryID: cat.ID})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(ctx, transport.CreateProductRequest{
		CategoryID: cat.ID,
		Name:       "x",
		Price:      decimal.RequireFromString("-1"),
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(ctx, transport.CreateProductRequest{
		CategoryID:    cat.ID,
		Name:          "x",
		StockQuantity: -1,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(ctx, transport.CreateProductRequest{
		CategoryID: 999,
		Name:       "x",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateProductDuplicateSlug(t *testing.T) {
	svc, r := newCatalogService(t)
	ctx := context.Background()
	cat := seedCategory(t, r)

	_, err := svc.CreateProduct(ctx, transport.CreateProductRequest{
		CategoryID: cat.ID,
		Name:       "Fujifilm X-T5",
		SKU:        "FC-XT5-A",
	})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, transport.CreateProductRequest{
		CategoryID: cat.ID,
		Name:       "Fujifilm X-T5",
		SKU:        "FC-XT5-B",
	})
	require.ErrorIs(t, err, ErrConflict)
}

func TestPatchProductReslugsOnRename(t *testing.T) {
	svc, r := newCatalogService(t)
	ctx := context.Background()
	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "28999000", 5)

	name := "Fujifilm X-T5 II"
	got, err := svc.PatchProduct(ctx, prod.ID, transport.PatchProductRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "fujifilm-x-t5-ii", got.Slug)

	name = "Fujifilm X-T6"
	pinned := "custom-slug"
	got, err = svc.PatchProduct(ctx, prod.ID, transport.PatchProductRequest{Name: &name, Slug: &pinned})
	require.NoError(t, err)
	require.Equal(t, "custom-slug", got.Slug)
}

func TestStockReports(t *testing.T) {
	svc, r := newCatalogService(t)
	ctx := context.Background()
	cat := seedCategory(t, r)

	seedProduct(t, r, cat.ID, "plenty", "plenty", "FC-A", "10", 50)
	low := seedProduct(t, r, cat.ID, "low", "low", "FC-B", "10", 3)
	gone := seedProduct(t, r, cat.ID, "gone", "gone", "FC-C", "10", 0)

	lowList, err := svc.LowStockProducts(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, lowList, 1)
	require.Equal(t, low.ID, lowList[0].ID)

	outList, err := svc.OutOfStockProducts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, outList, 1)
	require.Equal(t, gone.ID, outList[0].ID)
}

func TestCategoryLifecycle(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Instant Cameras"})
	require.NoError(t, err)
	require.Equal(t, "instant-cameras", cat.Slug)

	_, err = svc.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Instant Cameras"})
	require.ErrorIs(t, err, ErrConflict)

	desc := "Instax instant cameras"
	got, err := svc.PatchCategory(ctx, cat.ID, transport.PatchCategoryRequest{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, desc, got.Description)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))
	require.ErrorIs(t, svc.DeleteCategory(ctx, cat.ID), ErrNotFound)
}
