package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/internal/catalog"
	"github.com/mdbytes/reads-backend/pkg/config"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:products_%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS categories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  display_order INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cover_types (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  author TEXT NOT NULL,
  isbn TEXT NOT NULL UNIQUE,
  description TEXT,
  list_price_cents INTEGER NOT NULL,
  price_cents INTEGER NOT NULL,
  price50_cents INTEGER NOT NULL,
  price100_cents INTEGER NOT NULL,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  category_id INTEGER,
  cover_type_id INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newProductsService(t *testing.T) (Service, *gorm.DB, uint, uint) {
	t.Helper()

	db := setupProductsTestDB(t)
	catalogRepo := catalog.NewRepository(db)

	require.NoError(t, db.Exec(`INSERT INTO categories (name, display_order) VALUES ('Fiction', 1);`).Error)
	require.NoError(t, db.Exec(`INSERT INTO cover_types (name) VALUES ('Hardcover');`).Error)

	svc, err := NewService(NewRepository(db), catalogRepo, config.CatalogConfig{MaxPriceCents: 1000000})
	require.NoError(t, err)
	return svc, db, 1, 1
}

func validCreateInput(categoryID, coverTypeID uint, isbn string) CreateInput {
	return CreateInput{
		Title:          "The Test Book",
		Author:         "Jane Author",
		ISBN:           isbn,
		ListPriceCents: 9900,
		PriceCents:     9000,
		Price50Cents:   8500,
		Price100Cents:  8000,
		IsActive:       true,
		CategoryID:     &categoryID,
		CoverTypeID:    &coverTypeID,
	}
}

func TestCreateAndGetProduct(t *testing.T) {
	svc, _, categoryID, coverTypeID := newProductsService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateInput(categoryID, coverTypeID, "9780000000001"))
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.NotNil(t, created.Category)
	assert.Equal(t, "Fiction", created.Category.Name)

	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Test Book", loaded.Title)
}

func TestCreateProductRejectsBadPrices(t *testing.T) {
	svc, _, categoryID, coverTypeID := newProductsService(t)
	ctx := context.Background()

	input := validCreateInput(categoryID, coverTypeID, "9780000000002")
	input.Price50Cents = 0
	_, err := svc.Create(ctx, input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	input = validCreateInput(categoryID, coverTypeID, "9780000000003")
	input.PriceCents = 2000000
	_, err = svc.Create(ctx, input)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateProductRejectsMissingCategory(t *testing.T) {
	svc, _, _, coverTypeID := newProductsService(t)

	input := validCreateInput(99, coverTypeID, "9780000000004")
	_, err := svc.Create(context.Background(), input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateProductWithoutReferences(t *testing.T) {
	svc, _, categoryID, _ := newProductsService(t)
	ctx := context.Background()

	input := CreateInput{
		Title:          "Uncatalogued",
		Author:         "Anon Author",
		ISBN:           "9780000000099",
		ListPriceCents: 9900,
		PriceCents:     9000,
		Price50Cents:   8500,
		Price100Cents:  8000,
		IsActive:       true,
	}
	created, err := svc.Create(ctx, input)
	require.NoError(t, err)
	assert.Nil(t, created.CategoryID)
	assert.Nil(t, created.CoverTypeID)
	assert.Nil(t, created.Category)
	assert.Nil(t, created.CoverType)

	listed, err := svc.List(ctx, ListInput{})
	require.NoError(t, err)
	require.Len(t, listed.Products, 1)
	assert.Equal(t, "Uncatalogued", listed.Products[0].Title)

	updated, err := svc.Update(ctx, created.ID, UpdateInput{CategoryID: &categoryID})
	require.NoError(t, err)
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, categoryID, *updated.CategoryID)
	assert.Nil(t, updated.CoverTypeID)
}

func TestUpdateProduct(t *testing.T) {
	svc, _, categoryID, coverTypeID := newProductsService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateInput(categoryID, coverTypeID, "9780000000005"))
	require.NoError(t, err)

	title := "Retitled"
	price := 7500
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Title: &title, Price100Cents: &price})
	require.NoError(t, err)
	assert.Equal(t, "Retitled", updated.Title)
	assert.Equal(t, 7500, updated.Price100Cents)
	assert.Equal(t, "Jane Author", updated.Author)
}

func TestDeleteProduct(t *testing.T) {
	svc, _, categoryID, coverTypeID := newProductsService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateInput(categoryID, coverTypeID, "9780000000006"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	err = svc.Delete(ctx, created.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListProductsSearchSortFilter(t *testing.T) {
	svc, db, categoryID, coverTypeID := newProductsService(t)
	ctx := context.Background()

	require.NoError(t, db.Exec(`INSERT INTO categories (name, display_order) VALUES ('History', 2);`).Error)

	first := validCreateInput(categoryID, coverTypeID, "9780000000007")
	first.Title = "Alpha Adventures"
	first.Author = "Zoe Zed"
	first.Price100Cents = 5000
	_, err := svc.Create(ctx, first)
	require.NoError(t, err)

	second := validCreateInput(2, coverTypeID, "9780000000008")
	second.Title = "Beta Battles"
	second.Author = "Adam Able"
	second.Price100Cents = 9000
	_, err = svc.Create(ctx, second)
	require.NoError(t, err)

	hidden := validCreateInput(categoryID, coverTypeID, "9780000000009")
	hidden.Title = "Hidden Gamma"
	hidden.IsActive = false
	_, err = svc.Create(ctx, hidden)
	require.NoError(t, err)

	all, err := svc.List(ctx, ListInput{Sort: SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, all.Products, 2)
	assert.Equal(t, "Alpha Adventures", all.Products[0].Title)
	assert.Equal(t, int64(2), all.TotalCount)

	byAuthor, err := svc.List(ctx, ListInput{Sort: SortAuthorAsc})
	require.NoError(t, err)
	assert.Equal(t, "Adam Able", byAuthor.Products[0].Author)

	searched, err := svc.List(ctx, ListInput{Filters: ListFilters{Search: "beta"}})
	require.NoError(t, err)
	require.Len(t, searched.Products, 1)
	assert.Equal(t, "Beta Battles", searched.Products[0].Title)

	filtered, err := svc.List(ctx, ListInput{Filters: ListFilters{CategoryName: "history"}})
	require.NoError(t, err)
	require.Len(t, filtered.Products, 1)
	assert.Equal(t, "Beta Battles", filtered.Products[0].Title)

	withInactive, err := svc.List(ctx, ListInput{IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), withInactive.TotalCount)

	_, err = svc.List(ctx, ListInput{Sort: "bogus"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
