package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/internal/companies"
	"github.com/mdbytes/reads-backend/internal/customers"
	"github.com/mdbytes/reads-backend/pkg/config"
	"github.com/mdbytes/reads-backend/pkg/db"
	"github.com/mdbytes/reads-backend/pkg/enums"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
	"github.com/mdbytes/reads-backend/pkg/security"
)

// RegisterRequest contains the payload required for onboarding a customer.
type RegisterRequest struct {
	FirstName     string     `json:"first_name" validate:"required"`
	LastName      string     `json:"last_name" validate:"required"`
	Email         string     `json:"email" validate:"required,email"`
	Password      string     `json:"password" validate:"required,min=8"`
	Phone         *string    `json:"phone,omitempty"`
	Role          enums.Role `json:"role" validate:"required"`
	CompanyID     *uint      `json:"company_id,omitempty"`
	StreetAddress *string    `json:"street_address,omitempty"`
	City          *string    `json:"city,omitempty"`
	State         *string    `json:"state,omitempty"`
	PostalCode    *string    `json:"postal_code,omitempty"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*customers.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*customers.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	// Staff accounts are provisioned by an admin, never self-registered.
	if req.Role != enums.RoleIndividual && req.Role != enums.RoleCompany {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be individual or company")
	}
	if req.Role == enums.RoleCompany && req.CompanyID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company_id is required for company accounts")
	}
	if req.Role == enums.RoleIndividual && req.CompanyID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company_id is only valid for company accounts")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *customers.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := customers.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		if req.CompanyID != nil {
			companyRepo := companies.NewRepository(tx)
			if _, err := companyRepo.FindByID(ctx, *req.CompanyID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "company does not exist")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check company")
			}
		}

		user, err := userRepo.Create(ctx, customers.CreateUserDTO{
			Email:         email,
			PasswordHash:  passwordHash,
			FirstName:     strings.TrimSpace(req.FirstName),
			LastName:      strings.TrimSpace(req.LastName),
			Phone:         req.Phone,
			Role:          req.Role,
			CompanyID:     req.CompanyID,
			StreetAddress: req.StreetAddress,
			City:          req.City,
			State:         req.State,
			PostalCode:    req.PostalCode,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		created = customers.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
