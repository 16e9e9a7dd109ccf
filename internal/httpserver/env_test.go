package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/read1store/backoffice/internal/hash"
	"github.com/read1store/backoffice/internal/models"
	"github.com/read1store/backoffice/internal/repo"
	"github.com/read1store/backoffice/internal/service"
)

var testClock = time.Date(2024, 11, 27, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	T          *testing.T
	E          *echo.Echo
	Repo       *repo.GormRepo
	Products   *ProductHTTP
	Categories *CategoryHTTP
	Orders     *OrderHTTP
	Auth       *AuthHTTP
	JWTSecret  []byte
}

func newTestEnv(t *testing.T) *testEnv {
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

	r := &repo.GormRepo{DB: db}
	now := func() time.Time { return testClock }
	secret := []byte("test-secret")

	env := &testEnv{
		T:          t,
		E:          echo.New(),
		Repo:       r,
		Products:   &ProductHTTP{Svc: &service.CatalogService{Repo: r, Now: now}},
		Orders:     &OrderHTTP{Svc: &service.OrderService{Repo: r, Now: now}},
		Auth:       &AuthHTTP{Repo: r, JWTSecret: secret, Now: now},
		JWTSecret:  secret,
	}
	env.Categories = &CategoryHTTP{Svc: env.Products.Svc}
	return env
}

func (env *testEnv) doJSONRequest(method, path string, body any) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) seedCategory() *models.Category {
	cat := &models.Category{Name: "Mirrorless Cameras", Slug: "mirrorless-cameras", IsActive: true}
	require.NoError(env.T, env.Repo.DB.Create(cat).Error)
	return cat
}

func (env *testEnv) seedProduct(catID uint, name, slug, sku, price string, stock int) *models.Product {
	prod := &models.Product{
		CategoryID:    catID,
		Name:          name,
		Slug:          slug,
		SKU:           sku,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(env.T, env.Repo.DB.Create(prod).Error)
	return prod
}

func (env *testEnv) seedAdmin(username, password string) {
	pwHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)
	require.NoError(env.T, env.Repo.CreateUser(context.Background(), &models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         "admin",
	}))
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, code, he.Code)
}
