package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/pkg/config"
	"github.com/mdbytes/reads-backend/pkg/db"
	"github.com/mdbytes/reads-backend/pkg/db/models"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
)

// Service exposes book listing management plus the storefront browse path.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Get(ctx context.Context, id uint) (*models.Product, error)
	Update(ctx context.Context, id uint, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, input ListInput) (*ListResult, error)
}

// CreateInput holds the validated payload to create a product.
type CreateInput struct {
	Title          string
	Author         string
	ISBN           string
	Description    *string
	ListPriceCents int
	PriceCents     int
	Price50Cents   int
	Price100Cents  int
	ImageURL       *string
	IsActive       bool
	CategoryID     *uint
	CoverTypeID    *uint
}

// UpdateInput holds optional mutation values for a product.
type UpdateInput struct {
	Title          *string
	Author         *string
	ISBN           *string
	Description    *string
	ListPriceCents *int
	PriceCents     *int
	Price50Cents   *int
	Price100Cents  *int
	ImageURL       *string
	IsActive       *bool
	CategoryID     *uint
	CoverTypeID    *uint
}

type categoryLoader interface {
	FindCategoryByID(ctx context.Context, id uint) (*models.Category, error)
	FindCoverTypeByID(ctx context.Context, id uint) (*models.CoverType, error)
}

type service struct {
	repo    *Repository
	catalog categoryLoader
	cfg     config.CatalogConfig
}

// NewService constructs the product service.
func NewService(repo *Repository, catalog categoryLoader, cfg config.CatalogConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, catalog: catalog, cfg: cfg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}
	if err := s.ensureReferences(ctx, input.CategoryID, input.CoverTypeID); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &models.Product{
		Title:          strings.TrimSpace(input.Title),
		Author:         strings.TrimSpace(input.Author),
		ISBN:           strings.TrimSpace(input.ISBN),
		Description:    input.Description,
		ListPriceCents: input.ListPriceCents,
		PriceCents:     input.PriceCents,
		Price50Cents:   input.Price50Cents,
		Price100Cents:  input.Price100Cents,
		ImageURL:       input.ImageURL,
		IsActive:       input.IsActive,
		CategoryID:     input.CategoryID,
		CoverTypeID:    input.CoverTypeID,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_products_isbn") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "isbn already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return s.Get(ctx, created.ID)
}

func (s *service) Get(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateInput) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		product.Author = strings.TrimSpace(*input.Author)
	}
	if input.ISBN != nil {
		product.ISBN = strings.TrimSpace(*input.ISBN)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.ListPriceCents != nil {
		product.ListPriceCents = *input.ListPriceCents
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.Price50Cents != nil {
		product.Price50Cents = *input.Price50Cents
	}
	if input.Price100Cents != nil {
		product.Price100Cents = *input.Price100Cents
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.CoverTypeID != nil {
		product.CoverTypeID = input.CoverTypeID
	}

	if err := s.validateProduct(product); err != nil {
		return nil, err
	}
	if input.CategoryID != nil || input.CoverTypeID != nil {
		if err := s.ensureReferences(ctx, product.CategoryID, product.CoverTypeID); err != nil {
			return nil, err
		}
	}

	// Save with preloaded associations would write them back; detach first.
	product.Category = nil
	product.CoverType = nil

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_products_isbn") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "isbn already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return s.Get(ctx, updated.ID)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	sort, ok := normalizeSort(input.Sort)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort")
	}
	input.Sort = sort

	result, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return result, nil
}

func (s *service) validateCreate(input CreateInput) error {
	return s.validateProduct(&models.Product{
		Title:          input.Title,
		Author:         input.Author,
		ISBN:           input.ISBN,
		ListPriceCents: input.ListPriceCents,
		PriceCents:     input.PriceCents,
		Price50Cents:   input.Price50Cents,
		Price100Cents:  input.Price100Cents,
	})
}

func (s *service) validateProduct(p *models.Product) error {
	missing := []string{}
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.Author) == "" {
		missing = append(missing, "author")
	}
	if strings.TrimSpace(p.ISBN) == "" {
		missing = append(missing, "isbn")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required fields").WithDetails(missing)
	}

	maxCents := s.cfg.MaxPriceCents
	for name, cents := range map[string]int{
		"list_price": p.ListPriceCents,
		"price":      p.PriceCents,
		"price50":    p.Price50Cents,
		"price100":   p.Price100Cents,
	} {
		if cents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be positive", name))
		}
		if maxCents > 0 && cents > maxCents {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s exceeds the price ceiling", name))
		}
	}
	return nil
}

// ensureReferences checks only the references that are actually set; both
// are optional on a product.
func (s *service) ensureReferences(ctx context.Context, categoryID, coverTypeID *uint) error {
	if categoryID != nil {
		if _, err := s.catalog.FindCategoryByID(ctx, *categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
	}
	if coverTypeID != nil {
		if _, err := s.catalog.FindCoverTypeByID(ctx, *coverTypeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cover type does not exist")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cover type")
		}
	}
	return nil
}
