package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mdbytes/reads-backend/api/middleware"
	ordersvc "github.com/mdbytes/reads-backend/internal/orders"
	"github.com/mdbytes/reads-backend/pkg/enums"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
)

type stubOrderService struct {
	order  *ordersvc.OrderDTO
	result *ordersvc.ListResult
	payNow *ordersvc.PayNowResult
	err    error

	shippedWith ordersvc.ShipInput
	lastParams  ordersvc.ListParams
	lastActor   ordersvc.Actor
}

func (s *stubOrderService) GetOrder(ctx context.Context, actor ordersvc.Actor, orderID uint) (*ordersvc.OrderDTO, error) {
	s.lastActor = actor
	return s.order, s.err
}

func (s *stubOrderService) List(ctx context.Context, actor ordersvc.Actor, params ordersvc.ListParams) (*ordersvc.ListResult, error) {
	s.lastActor = actor
	s.lastParams = params
	return s.result, s.err
}

func (s *stubOrderService) StartProcessing(ctx context.Context, orderID uint) (*ordersvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrderService) Ship(ctx context.Context, orderID uint, input ordersvc.ShipInput) (*ordersvc.OrderDTO, error) {
	s.shippedWith = input
	return s.order, s.err
}

func (s *stubOrderService) Cancel(ctx context.Context, orderID uint) (*ordersvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrderService) UpdateDetails(ctx context.Context, orderID uint, input ordersvc.UpdateDetailsInput) (*ordersvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrderService) PayNow(ctx context.Context, orderID uint) (*ordersvc.PayNowResult, error) {
	return s.payNow, s.err
}

func staffRequest(method, target, body string) *http.Request {
	req := authedRequest(method, target, body)
	return req.WithContext(middleware.WithRole(req.Context(), string(enums.RoleAdmin)))
}

func TestAdminOrderListFiltersByStatus(t *testing.T) {
	svc := &stubOrderService{result: &ordersvc.ListResult{
		Orders: []ordersvc.OrderDTO{{ID: 7, OrderStatus: enums.OrderStatusPending}},
	}}
	handler := AdminOrderList(svc, nil)

	req := staffRequest(http.MethodGet, "/api/admin/v1/orders?status=pending&limit=10", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastParams.Status == nil || *svc.lastParams.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status filter, got %+v", svc.lastParams.Status)
	}
	if !svc.lastActor.Role.IsStaff() {
		t.Fatalf("expected staff actor, got %s", svc.lastActor.Role)
	}

	var envelope struct {
		Data ordersvc.ListResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.Orders[0].ID != 7 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestAdminOrderListRejectsUnknownStatus(t *testing.T) {
	handler := AdminOrderList(&stubOrderService{}, nil)

	req := staffRequest(http.MethodGet, "/api/admin/v1/orders?status=bogus", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrderShipRecordsCarrier(t *testing.T) {
	svc := &stubOrderService{order: &ordersvc.OrderDTO{ID: 7, OrderStatus: enums.OrderStatusShipped}}
	handler := AdminOrderShip(svc, nil)

	req := staffRequest(http.MethodPost, "/api/admin/v1/orders/7/ship", `{"carrier":"UPS","tracking_number":"1Z999"}`)
	req = withURLParam(req, "orderID", "7")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.shippedWith.Carrier != "UPS" || svc.shippedWith.TrackingNumber != "1Z999" {
		t.Fatalf("unexpected ship input %+v", svc.shippedWith)
	}
}

func TestAdminOrderShipRequiresTracking(t *testing.T) {
	handler := AdminOrderShip(&stubOrderService{}, nil)

	req := staffRequest(http.MethodPost, "/api/admin/v1/orders/7/ship", `{"carrier":"UPS"}`)
	req = withURLParam(req, "orderID", "7")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrderCancelAlreadyShipped(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order already shipped")}
	handler := AdminOrderCancel(svc, nil)

	req := withURLParam(staffRequest(http.MethodPost, "/api/admin/v1/orders/7/cancel", ""), "orderID", "7")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAdminOrderPayNowReturnsSession(t *testing.T) {
	svc := &stubOrderService{payNow: &ordersvc.PayNowResult{
		SessionID:  "cs_987",
		SessionURL: "https://pay.example.com/session/cs_987",
	}}
	handler := AdminOrderPayNow(svc, nil)

	req := withURLParam(staffRequest(http.MethodPost, "/api/admin/v1/orders/7/pay", ""), "orderID", "7")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data ordersvc.PayNowResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SessionID != "cs_987" {
		t.Fatalf("unexpected session %+v", envelope.Data)
	}
}
