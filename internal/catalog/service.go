package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/pkg/db"
	"github.com/mdbytes/reads-backend/pkg/db/models"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
)

const (
	minDisplayOrder = 1
	maxDisplayOrder = 100
)

// Service exposes category and cover type management.
type Service interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id uint, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uint) error

	CreateCoverType(ctx context.Context, input CoverTypeInput) (*models.CoverType, error)
	GetCoverType(ctx context.Context, id uint) (*models.CoverType, error)
	ListCoverTypes(ctx context.Context) ([]models.CoverType, error)
	UpdateCoverType(ctx context.Context, id uint, input CoverTypeInput) (*models.CoverType, error)
	DeleteCoverType(ctx context.Context, id uint) error
}

// CategoryInput holds the validated payload for category writes.
type CategoryInput struct {
	Name         string
	DisplayOrder int
}

// CoverTypeInput holds the validated payload for cover type writes.
type CoverTypeInput struct {
	Name string
}

type service struct {
	repo *Repository
}

// NewService constructs the catalog service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	if err := validateCategoryInput(input); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateCategory(ctx, &models.Category{
		Name:         strings.TrimSpace(input.Name),
		DisplayOrder: input.DisplayOrder,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_categories_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert category")
	}
	return created, nil
}

func (s *service) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uint, input CategoryInput) (*models.Category, error) {
	if err := validateCategoryInput(input); err != nil {
		return nil, err
	}

	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = strings.TrimSpace(input.Name)
	category.DisplayOrder = input.DisplayOrder

	updated, err := s.repo.UpdateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_categories_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update category")
	}
	return updated, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}

	if err := s.repo.DetachProductsFromCategory(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach category products")
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func (s *service) CreateCoverType(ctx context.Context, input CoverTypeInput) (*models.CoverType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	created, err := s.repo.CreateCoverType(ctx, &models.CoverType{Name: name})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_cover_types_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cover type name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert cover type")
	}
	return created, nil
}

func (s *service) GetCoverType(ctx context.Context, id uint) (*models.CoverType, error) {
	coverType, err := s.repo.FindCoverTypeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cover type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cover type")
	}
	return coverType, nil
}

func (s *service) ListCoverTypes(ctx context.Context) ([]models.CoverType, error) {
	coverTypes, err := s.repo.ListCoverTypes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cover types")
	}
	return coverTypes, nil
}

func (s *service) UpdateCoverType(ctx context.Context, id uint, input CoverTypeInput) (*models.CoverType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	coverType, err := s.GetCoverType(ctx, id)
	if err != nil {
		return nil, err
	}

	coverType.Name = name
	updated, err := s.repo.UpdateCoverType(ctx, coverType)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_cover_types_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cover type name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cover type")
	}
	return updated, nil
}

func (s *service) DeleteCoverType(ctx context.Context, id uint) error {
	if _, err := s.GetCoverType(ctx, id); err != nil {
		return err
	}

	if err := s.repo.DetachProductsFromCoverType(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach cover type products")
	}
	if err := s.repo.DeleteCoverType(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cover type")
	}
	return nil
}

func validateCategoryInput(input CategoryInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.DisplayOrder < minDisplayOrder || input.DisplayOrder > maxDisplayOrder {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("display_order must be between %d and %d", minDisplayOrder, maxDisplayOrder))
	}
	return nil
}
