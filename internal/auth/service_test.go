package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/mdbytes/reads-backend/pkg/auth"
	"github.com/mdbytes/reads-backend/pkg/auth/session"
	"github.com/mdbytes/reads-backend/pkg/config"
	"github.com/mdbytes/reads-backend/pkg/db/models"
	"github.com/mdbytes/reads-backend/pkg/enums"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
	"github.com/mdbytes/reads-backend/pkg/security"
)

type stubUserRepository struct {
	users      map[string]*models.User
	lastLogins map[uuid.UUID]time.Time
}

func newStubUserRepository(users ...*models.User) *stubUserRepository {
	repo := &stubUserRepository{
		users:      make(map[string]*models.User),
		lastLogins: make(map[uuid.UUID]time.Time),
	}
	for _, u := range users {
		repo.users[strings.ToLower(u.Email)] = u
	}
	return repo
}

func (r *stubUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubUserRepository) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.lastLogins[id] = at
	return nil
}

type stubSessionManager struct {
	generated map[string]string
	revoked   []string
	rotateErr error
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{generated: make(map[string]string)}
}

func (m *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	m.generated[accessID] = token
	return token, nil
}

func (m *stubSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if m.rotateErr != nil {
		return "", "", m.rotateErr
	}
	if m.generated[oldAccessID] != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(m.generated, oldAccessID)
	newAccessID := session.NewAccessID()
	token := "refresh-" + newAccessID
	m.generated[newAccessID] = token
	return newAccessID, token, nil
}

func (m *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	m.revoked = append(m.revoked, accessID)
	delete(m.generated, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "reads",
		ExpirationMinutes: 30,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hashed
}

func newTestUser(t *testing.T, email, password string, role enums.Role, companyID *uint) *models.User {
	t.Helper()
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Avid",
		LastName:     "Reader",
		Role:         role,
		CompanyID:    companyID,
		IsActive:     true,
	}
}

func buildTestService(t *testing.T, users *stubUserRepository, sessions *stubSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       users,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestServiceLoginCompanyBuyer(t *testing.T) {
	password := "shelf-secret"
	companyID := uint(42)
	user := newTestUser(t, "buyer@acme.example", password, enums.RoleCompany, &companyID)
	users := newStubUserRepository(user)
	sessions := newStubSessionManager()
	svc := buildTestService(t, users, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Buyer@Acme.Example",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s, got %s", user.ID, claims.UserID)
	}
	if claims.Role != enums.RoleCompany {
		t.Fatalf("expected company role claim, got %s", claims.Role)
	}
	if claims.CompanyID == nil || *claims.CompanyID != companyID {
		t.Fatalf("expected company id %d in claims, got %v", companyID, claims.CompanyID)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("expected user payload for %s, got %+v", user.Email, resp.User)
	}
	if _, ok := users.lastLogins[user.ID]; !ok {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := newTestUser(t, "reader@example.com", "right-password", enums.RoleIndividual, nil)
	svc := buildTestService(t, newStubUserRepository(user), newStubSessionManager())

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{name: "unknown email", email: "nobody@example.com", password: "right-password"},
		{name: "wrong password", email: user.Email, password: "wrong-password"},
		{name: "blank email", email: "   ", password: "right-password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), LoginRequest{Email: tc.email, Password: tc.password})
			if err == nil {
				t.Fatalf("expected login to fail")
			}
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized error, got %v", err)
			}
			if appErr.Message() != invalidCredentialsMessage {
				t.Fatalf("expected generic credentials message, got %q", appErr.Message())
			}
		})
	}
}

func TestServiceLoginRejectsInactiveUser(t *testing.T) {
	password := "dusty-stacks"
	user := newTestUser(t, "dormant@example.com", password, enums.RoleIndividual, nil)
	user.IsActive = false
	svc := buildTestService(t, newStubUserRepository(user), newStubSessionManager())

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error for inactive user, got %v", err)
	}
}

func TestServiceRefreshRotatesTokens(t *testing.T) {
	password := "rotate-me"
	user := newTestUser(t, "rotate@example.com", password, enums.RoleIndividual, nil)
	sessions := newStubSessionManager()
	svc := buildTestService(t, newStubUserRepository(user), sessions)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatalf("expected refresh token to rotate")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated access token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.RoleIndividual {
		t.Fatalf("expected identity to carry across rotation, got %+v", claims)
	}

	// The original refresh token is spent once rotated.
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on reused refresh token, got %v", err)
	}
}

func TestServiceRefreshRejectsGarbageAccessToken(t *testing.T) {
	svc := buildTestService(t, newStubUserRepository(), newStubSessionManager())

	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "whatever",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for malformed access token, got %v", err)
	}
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	password := "walk-out"
	user := newTestUser(t, "leaver@example.com", password, enums.RoleIndividual, nil)
	sessions := newStubSessionManager()
	svc := buildTestService(t, newStubUserRepository(user), sessions)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), login.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 {
		t.Fatalf("expected one revoked session, got %d", len(sessions.revoked))
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected refresh to fail after logout, got %v", err)
	}
}
