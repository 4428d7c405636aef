package companies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/pkg/db/models"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
)

// Service exposes company account management for the back office.
type Service interface {
	Create(ctx context.Context, input CompanyInput) (*models.Company, error)
	Get(ctx context.Context, id uint) (*models.Company, error)
	List(ctx context.Context) ([]models.Company, error)
	Update(ctx context.Context, id uint, input CompanyInput) (*models.Company, error)
	Delete(ctx context.Context, id uint) error
}

// CompanyInput holds the validated payload for company writes.
type CompanyInput struct {
	Name          string
	StreetAddress string
	City          string
	State         string
	PostalCode    string
	PhoneNumber   string
}

type service struct {
	repo *Repository
}

// NewService constructs the company service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("company repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CompanyInput) (*models.Company, error) {
	if err := validateCompanyInput(input); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, companyFromInput(input))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert company")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	return company, nil
}

func (s *service) List(ctx context.Context) ([]models.Company, error) {
	result, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list companies")
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, id uint, input CompanyInput) (*models.Company, error) {
	if err := validateCompanyInput(input); err != nil {
		return nil, err
	}

	company, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	company.Name = strings.TrimSpace(input.Name)
	company.StreetAddress = strings.TrimSpace(input.StreetAddress)
	company.City = strings.TrimSpace(input.City)
	company.State = strings.TrimSpace(input.State)
	company.PostalCode = strings.TrimSpace(input.PostalCode)
	company.PhoneNumber = strings.TrimSpace(input.PhoneNumber)

	updated, err := s.repo.Update(ctx, company)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update company")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count company users")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "company still has user accounts")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete company")
	}
	return nil
}

func companyFromInput(input CompanyInput) *models.Company {
	return &models.Company{
		Name:          strings.TrimSpace(input.Name),
		StreetAddress: strings.TrimSpace(input.StreetAddress),
		City:          strings.TrimSpace(input.City),
		State:         strings.TrimSpace(input.State),
		PostalCode:    strings.TrimSpace(input.PostalCode),
		PhoneNumber:   strings.TrimSpace(input.PhoneNumber),
	}
}

func validateCompanyInput(input CompanyInput) error {
	missing := []string{}
	for field, value := range map[string]string{
		"name":           input.Name,
		"street_address": input.StreetAddress,
		"city":           input.City,
		"state":          input.State,
		"postal_code":    input.PostalCode,
		"phone_number":   input.PhoneNumber,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required fields").WithDetails(missing)
	}
	return nil
}
