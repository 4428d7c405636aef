package products

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/pkg/db/models"
)

const defaultPageSize = 24

// Repository persists book listings.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads the product with its category and cover type.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("CoverType").
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Update persists the mutated product row.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes the product row.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// ListResult carries one storefront page plus paging metadata.
type ListResult struct {
	Products   []models.Product
	Page       int
	PageSize   int
	TotalCount int64
}

// List pages through products applying search, filter and sort.
func (r *Repository) List(ctx context.Context, input ListInput) (*ListResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Joins("LEFT JOIN categories c ON c.id = products.category_id").
		Joins("LEFT JOIN cover_types ct ON ct.id = products.cover_type_id").
		Preload("Category").
		Preload("CoverType")

	if !input.IncludeInactive {
		qb = qb.Where("products.is_active = ?", true)
	}

	filters := input.Filters
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where(
			"(LOWER(products.title) LIKE ? OR LOWER(products.author) LIKE ? OR LOWER(products.description) LIKE ?)",
			pattern, pattern, pattern,
		)
	}
	if name := strings.TrimSpace(filters.CategoryName); name != "" {
		qb = qb.Where("LOWER(c.name) = ?", strings.ToLower(name))
	}
	if filters.CoverTypeID != nil {
		qb = qb.Where("products.cover_type_id = ?", *filters.CoverTypeID)
	}

	var total int64
	if err := qb.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	switch input.Sort {
	case SortPriceAsc:
		qb = qb.Order("products.price100_cents ASC")
	case SortPriceDesc:
		qb = qb.Order("products.price100_cents DESC")
	case SortAuthorAsc:
		qb = qb.Order("products.author ASC")
	case SortAuthorDesc:
		qb = qb.Order("products.author DESC")
	case SortCoverType:
		qb = qb.Order("ct.name ASC")
	default:
		qb = qb.Order("products.created_at DESC")
	}
	qb = qb.Order("products.id DESC")

	var result []models.Product
	if err := qb.Offset((page - 1) * pageSize).Limit(pageSize).Find(&result).Error; err != nil {
		return nil, err
	}

	return &ListResult{
		Products:   result,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}, nil
}
