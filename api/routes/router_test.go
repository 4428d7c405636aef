package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mdbytes/reads-backend/internal/products"
	"github.com/mdbytes/reads-backend/pkg/config"
	"github.com/mdbytes/reads-backend/pkg/db/models"
	"github.com/mdbytes/reads-backend/pkg/logger"
)

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return false, nil
}

func (stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessions) Revoke(ctx context.Context, accessID string) error { return nil }

type stubProducts struct{}

func (stubProducts) Create(ctx context.Context, input products.CreateInput) (*models.Product, error) {
	return nil, nil
}

func (stubProducts) Get(ctx context.Context, id uint) (*models.Product, error) {
	return nil, nil
}

func (stubProducts) Update(ctx context.Context, id uint, input products.UpdateInput) (*models.Product, error) {
	return nil, nil
}

func (stubProducts) Delete(ctx context.Context, id uint) error { return nil }

func (stubProducts) List(ctx context.Context, input products.ListInput) (*products.ListResult, error) {
	return &products.ListResult{Page: 1, PageSize: 20}, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.ErrorLevel})
	return NewRouter(Deps{
		Config:   &config.Config{},
		Logger:   logg,
		DB:       okPinger{},
		Sessions: stubSessions{},
		Products: stubProducts{},
	})
}

func TestRouterHealthLive(t *testing.T) {
	router := testRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterPublicProductBrowse(t *testing.T) {
	router := testRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterCartRequiresAuth(t *testing.T) {
	router := testRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterAdminRequiresAuth(t *testing.T) {
	router := testRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := testRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
