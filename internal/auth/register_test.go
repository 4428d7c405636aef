package auth

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/pkg/config"
	"github.com/mdbytes/reads-backend/pkg/db"
	"github.com/mdbytes/reads-backend/pkg/db/models"
	"github.com/mdbytes/reads-backend/pkg/enums"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
	"github.com/mdbytes/reads-backend/pkg/security"
)

func setupRegisterTestDB(t *testing.T) *db.Client {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:register_%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	companies := `
CREATE TABLE IF NOT EXISTS companies (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  street_address TEXT,
  city TEXT,
  state TEXT,
  postal_code TEXT,
  phone_number TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL,
  company_id INTEGER,
  street_address TEXT,
  city TEXT,
  state TEXT,
  postal_code TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := conn.Exec(companies).Error; err != nil {
		t.Fatalf("create companies table: %v", err)
	}
	if err := conn.Exec(users).Error; err != nil {
		t.Fatalf("create users table: %v", err)
	}
	return db.NewFromGorm(conn)
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func buildRegisterService(t *testing.T, client *db.Client) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             client,
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("build register service: %v", err)
	}
	return svc
}

func TestRegisterIndividual(t *testing.T) {
	client := setupRegisterTestDB(t)
	svc := buildRegisterService(t, client)

	street := "12 Shelf Lane"
	dto, err := svc.Register(context.Background(), RegisterRequest{
		FirstName:     "  Ada ",
		LastName:      "Lovelace",
		Email:         "Ada@Example.COM",
		Password:      "turing-complete",
		Role:          enums.RoleIndividual,
		StreetAddress: &street,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if dto.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", dto.Email)
	}
	if dto.FirstName != "Ada" {
		t.Fatalf("expected trimmed first name, got %q", dto.FirstName)
	}
	if dto.Role != enums.RoleIndividual {
		t.Fatalf("expected individual role, got %s", dto.Role)
	}

	var stored models.User
	if err := client.DB().Where("email = ?", "ada@example.com").First(&stored).Error; err != nil {
		t.Fatalf("load stored user: %v", err)
	}
	if !stored.IsActive {
		t.Fatalf("expected new accounts to be active")
	}
	if stored.PasswordHash == "turing-complete" {
		t.Fatalf("password must not be stored in the clear")
	}
	valid, err := security.VerifyPassword("turing-complete", stored.PasswordHash)
	if err != nil || !valid {
		t.Fatalf("expected stored hash to verify, valid=%v err=%v", valid, err)
	}
}

func TestRegisterCompanyBuyer(t *testing.T) {
	client := setupRegisterTestDB(t)
	svc := buildRegisterService(t, client)

	company := models.Company{Name: "Acme Reads"}
	if err := client.DB().Create(&company).Error; err != nil {
		t.Fatalf("seed company: %v", err)
	}

	dto, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Bea",
		LastName:  "Buyer",
		Email:     "bea@acme.example",
		Password:  "bulk-orders",
		Role:      enums.RoleCompany,
		CompanyID: &company.ID,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if dto.CompanyID == nil || *dto.CompanyID != company.ID {
		t.Fatalf("expected company id %d, got %v", company.ID, dto.CompanyID)
	}
}

func TestRegisterValidationRules(t *testing.T) {
	client := setupRegisterTestDB(t)
	svc := buildRegisterService(t, client)

	companyID := uint(7)
	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{
			name: "staff role rejected",
			req: RegisterRequest{
				FirstName: "Eve", LastName: "Mallory",
				Email: "eve@example.com", Password: "password-123",
				Role: enums.RoleAdmin,
			},
		},
		{
			name: "company role without company id",
			req: RegisterRequest{
				FirstName: "Carl", LastName: "Corp",
				Email: "carl@example.com", Password: "password-123",
				Role: enums.RoleCompany,
			},
		},
		{
			name: "individual with company id",
			req: RegisterRequest{
				FirstName: "Ines", LastName: "Solo",
				Email: "ines@example.com", Password: "password-123",
				Role: enums.RoleIndividual, CompanyID: &companyID,
			},
		},
		{
			name: "blank email",
			req: RegisterRequest{
				FirstName: "No", LastName: "Mail",
				Email: "   ", Password: "password-123",
				Role: enums.RoleIndividual,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterRejectsUnknownCompany(t *testing.T) {
	client := setupRegisterTestDB(t)
	svc := buildRegisterService(t, client)

	missing := uint(999)
	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ghost", LastName: "Buyer",
		Email: "ghost@example.com", Password: "password-123",
		Role: enums.RoleCompany, CompanyID: &missing,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown company, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	client := setupRegisterTestDB(t)
	svc := buildRegisterService(t, client)

	req := RegisterRequest{
		FirstName: "Dupe", LastName: "Reader",
		Email: "dupe@example.com", Password: "password-123",
		Role: enums.RoleIndividual,
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(context.Background(), req)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}
}
