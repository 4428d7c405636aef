package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/pkg/db/models"
)

// Repository wires together category and cover type persistence.
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

// CreateCategory inserts a new category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// FindCategoryByID loads a single category.
func (r *Repository) FindCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns all categories ordered for display.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("display_order ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// UpdateCategory persists the mutated category row.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes the category row.
func (r *Repository) DeleteCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}

// DetachProductsFromCategory clears the category reference on every product
// that points at it. The reference is optional, so detached products stay
// listed.
func (r *Repository) DetachProductsFromCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ?", id).
		Update("category_id", nil).Error
}

// CreateCoverType inserts a new cover type row.
func (r *Repository) CreateCoverType(ctx context.Context, coverType *models.CoverType) (*models.CoverType, error) {
	if err := r.db.WithContext(ctx).Create(coverType).Error; err != nil {
		return nil, err
	}
	return coverType, nil
}

// FindCoverTypeByID loads a single cover type.
func (r *Repository) FindCoverTypeByID(ctx context.Context, id uint) (*models.CoverType, error) {
	var coverType models.CoverType
	if err := r.db.WithContext(ctx).First(&coverType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coverType, nil
}

// ListCoverTypes returns all cover types ordered by name.
func (r *Repository) ListCoverTypes(ctx context.Context) ([]models.CoverType, error) {
	var coverTypes []models.CoverType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&coverTypes).Error; err != nil {
		return nil, err
	}
	return coverTypes, nil
}

// UpdateCoverType persists the mutated cover type row.
func (r *Repository) UpdateCoverType(ctx context.Context, coverType *models.CoverType) (*models.CoverType, error) {
	if err := r.db.WithContext(ctx).Save(coverType).Error; err != nil {
		return nil, err
	}
	return coverType, nil
}

// DeleteCoverType removes the cover type row.
func (r *Repository) DeleteCoverType(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.CoverType{}, "id = ?", id).Error
}

// DetachProductsFromCoverType clears the cover type reference on every
// product that points at it.
func (r *Repository) DetachProductsFromCoverType(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("cover_type_id = ?", id).
		Update("cover_type_id", nil).Error
}
