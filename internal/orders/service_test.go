package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/pkg/config"
	"github.com/mdbytes/reads-backend/pkg/db/models"
	"github.com/mdbytes/reads-backend/pkg/enums"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
	"github.com/mdbytes/reads-backend/pkg/logger"
	"github.com/mdbytes/reads-backend/pkg/pagination"
	"github.com/mdbytes/reads-backend/pkg/payments"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	headers := `
CREATE TABLE IF NOT EXISTS order_headers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  order_date DATETIME NOT NULL,
  shipping_date DATETIME,
  payment_due_date DATETIME,
  payment_date DATETIME,
  total_cents INTEGER NOT NULL,
  order_status TEXT NOT NULL,
  payment_status TEXT NOT NULL,
  session_id TEXT,
  payment_intent_id TEXT,
  tracking_number TEXT,
  carrier TEXT,
  name TEXT NOT NULL,
  phone_number TEXT NOT NULL,
  street_address TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	details := `
CREATE TABLE IF NOT EXISTS order_details (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_header_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  title TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(headers).Error)
	require.NoError(t, db.Exec(details).Error)
	return db
}

type fakeGateway struct {
	sessions      []payments.CreateSessionInput
	refunds       []payments.RefundInput
	sessionStatus string
	intentID      string
	failRefund    bool
}

func (g *fakeGateway) CreateSession(_ context.Context, in payments.CreateSessionInput) (*payments.Session, error) {
	g.sessions = append(g.sessions, in)
	return &payments.Session{
		ID:              fmt.Sprintf("cs_test_%d", len(g.sessions)),
		URL:             "https://pay.example/session",
		PaymentIntentID: g.intentID,
		PaymentStatus:   payments.SessionUnpaid,
	}, nil
}

func (g *fakeGateway) GetSession(_ context.Context, id string) (*payments.Session, error) {
	status := g.sessionStatus
	if status == "" {
		status = payments.SessionUnpaid
	}
	return &payments.Session{
		ID:              id,
		PaymentIntentID: g.intentID,
		PaymentStatus:   status,
	}, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, in payments.RefundInput) (*payments.Refund, error) {
	if g.failRefund {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "refund declined")
	}
	g.refunds = append(g.refunds, in)
	return &payments.Refund{ID: fmt.Sprintf("re_test_%d", len(g.refunds)), Status: "succeeded"}, nil
}

func testCheckoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		PublicBaseURL:   "https://reads.example",
		Currency:        "usd",
		PaymentTermDays: 30,
	}
}

func buildOrdersService(t *testing.T, db *gorm.DB, gateway *fakeGateway) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(db),
		gateway,
		testCheckoutConfig(),
		logger.New(logger.Options{ServiceName: "orders-test", Level: zerolog.ErrorLevel}),
	)
	require.NoError(t, err)
	return svc
}

func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, orderStatus enums.OrderStatus, paymentStatus enums.PaymentStatus) *models.OrderHeader {
	t.Helper()
	header := &models.OrderHeader{
		UserID:        userID,
		OrderDate:     time.Now().UTC(),
		TotalCents:    2 * 9000,
		OrderStatus:   orderStatus,
		PaymentStatus: paymentStatus,
		Name:          "Avid Reader",
		PhoneNumber:   "555-0100",
		StreetAddress: "12 Shelf Lane",
		City:          "Booktown",
		State:         "OR",
		PostalCode:    "97201",
		Details: []models.OrderDetail{
			{ProductID: 1, Title: "The Long Novel", Quantity: 2, UnitPriceCents: 9000},
		},
	}
	require.NoError(t, db.Create(header).Error)
	return header
}

func TestStartProcessing(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := buildOrdersService(t, db, &fakeGateway{})
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusPending, enums.PaymentStatusApproved)

	dto, err := svc.StartProcessing(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, dto.OrderStatus)
}

func TestStartProcessingRejectsTerminalOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := buildOrdersService(t, db, &fakeGateway{})
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusShipped, enums.PaymentStatusApproved)

	_, err := svc.StartProcessing(context.Background(), order.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestShipSetsDatesAndCarrier(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := buildOrdersService(t, db, &fakeGateway{})
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusProcessing, enums.PaymentStatusApproved)

	dto, err := svc.Ship(context.Background(), order.ID, ShipInput{Carrier: "UPS", TrackingNumber: "1Z999"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, dto.OrderStatus)
	require.NotNil(t, dto.ShippingDate)
	require.NotNil(t, dto.Carrier)
	assert.Equal(t, "UPS", *dto.Carrier)
	require.NotNil(t, dto.TrackingNumber)
	assert.Equal(t, "1Z999", *dto.TrackingNumber)
	assert.Nil(t, dto.PaymentDueDate)
}

func TestShipResetsInvoiceTerm(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := buildOrdersService(t, db, &fakeGateway{})
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusProcessing, enums.PaymentStatusApprovedForDelayed)

	dto, err := svc.Ship(context.Background(), order.ID, ShipInput{Carrier: "USPS", TrackingNumber: "94001"})
	require.NoError(t, err)
	require.NotNil(t, dto.PaymentDueDate)
	expected := time.Now().UTC().Add(30 * 24 * time.Hour)
	assert.WithinDuration(t, expected, *dto.PaymentDueDate, time.Minute)
}

func TestShipRequiresCarrierAndTracking(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := buildOrdersService(t, db, &fakeGateway{})
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusProcessing, enums.PaymentStatusApproved)

	_, err := svc.Ship(context.Background(), order.ID, ShipInput{Carrier: " ", TrackingNumber: ""})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCancelWithoutCapturedPaymentSkipsRefund(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &fakeGateway{}
	svc := buildOrdersService(t, db, gateway)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusPending, enums.PaymentStatusPending)

	dto, err := svc.Cancel(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.OrderStatus)
	assert.Equal(t, enums.PaymentStatusCancelled, dto.PaymentStatus)
	assert.Empty(t, gateway.refunds)
}

func TestCancelRefundsCapturedPayment(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &fakeGateway{}
	svc := buildOrdersService(t, db, gateway)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusProcessing, enums.PaymentStatusApproved)
	intentID := "pi_test_123"
	require.NoError(t, db.Model(&models.OrderHeader{}).Where("id = ?", order.ID).Update("payment_intent_id", intentID).Error)

	dto, err := svc.Cancel(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.OrderStatus)
	assert.Equal(t, enums.PaymentStatusRefunded, dto.PaymentStatus)
	require.Len(t, gateway.refunds, 1)
	assert.Equal(t, intentID, gateway.refunds[0].PaymentIntentID)
}

func TestCancelRequiresIntentForCapturedPayment(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &fakeGateway{}
	svc := buildOrdersService(t, db, gateway)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusProcessing, enums.PaymentStatusApproved)

	_, err := svc.Cancel(context.Background(), order.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())
	assert.Empty(t, gateway.refunds)
}

func TestDoubleCancelRejected(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &fakeGateway{}
	svc := buildOrdersService(t, db, gateway)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusPending, enums.PaymentStatusPending)

	_, err := svc.Cancel(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), order.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	assert.Empty(t, gateway.refunds)
}

func TestUpdateDetails(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := buildOrdersService(t, db, &fakeGateway{})
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusApproved, enums.PaymentStatusApprovedForDelayed)

	city := "Readerville"
	carrier := "FedEx"
	dto, err := svc.UpdateDetails(context.Background(), order.ID, UpdateDetailsInput{
		City:    &city,
		Carrier: &carrier,
	})
	require.NoError(t, err)
	assert.Equal(t, "Readerville", dto.City)
	require.NotNil(t, dto.Carrier)
	assert.Equal(t, "FedEx", *dto.Carrier)
	assert.Equal(t, "12 Shelf Lane", dto.StreetAddress)
	assert.Equal(t, enums.OrderStatusApproved, dto.OrderStatus)
}

func TestUpdateDetailsRejectsBlankAndTerminal(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := buildOrdersService(t, db, &fakeGateway{})

	open := seedOrder(t, db, uuid.New(), enums.OrderStatusPending, enums.PaymentStatusPending)
	blank := "  "
	_, err := svc.UpdateDetails(context.Background(), open.ID, UpdateDetailsInput{Name: &blank})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	shipped := seedOrder(t, db, uuid.New(), enums.OrderStatusShipped, enums.PaymentStatusApproved)
	name := "New Name"
	_, err = svc.UpdateDetails(context.Background(), shipped.ID, UpdateDetailsInput{Name: &name})
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestPayNowBuildsSessionFromFrozenLines(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &fakeGateway{}
	svc := buildOrdersService(t, db, gateway)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusPending, enums.PaymentStatusApprovedForDelayed)

	result, err := svc.PayNow(context.Background(), order.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, "https://pay.example/session", result.SessionURL)

	require.Len(t, gateway.sessions, 1)
	in := gateway.sessions[0]
	assert.Equal(t, order.ID, in.OrderID)
	assert.Equal(t, "usd", in.Currency)
	require.Len(t, in.LineItems, 1)
	assert.Equal(t, "The Long Novel", in.LineItems[0].Name)
	assert.EqualValues(t, 2, in.LineItems[0].Quantity)
	assert.EqualValues(t, 9000, in.LineItems[0].UnitAmountCents)
	assert.Contains(t, in.SuccessURL, fmt.Sprintf("order_id=%d", order.ID))

	stored, err := NewRepository(db).FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SessionID)
	assert.Equal(t, result.SessionID, *stored.SessionID)
}

func TestPayNowRejectsSettledOrCancelled(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &fakeGateway{}
	svc := buildOrdersService(t, db, gateway)

	cancelled := seedOrder(t, db, uuid.New(), enums.OrderStatusCancelled, enums.PaymentStatusCancelled)
	_, err := svc.PayNow(context.Background(), cancelled.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	paid := seedOrder(t, db, uuid.New(), enums.OrderStatusPending, enums.PaymentStatusApproved)
	_, err = svc.PayNow(context.Background(), paid.ID)
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	assert.Empty(t, gateway.sessions)
}

func TestGetOrderScopesCustomers(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := buildOrdersService(t, db, &fakeGateway{})
	owner := uuid.New()
	order := seedOrder(t, db, owner, enums.OrderStatusPending, enums.PaymentStatusPending)

	dto, err := svc.GetOrder(context.Background(), Actor{UserID: owner, Role: enums.RoleIndividual}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, dto.ID)
	require.Len(t, dto.Details, 1)

	_, err = svc.GetOrder(context.Background(), Actor{UserID: uuid.New(), Role: enums.RoleIndividual}, order.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())

	staffDTO, err := svc.GetOrder(context.Background(), Actor{UserID: uuid.New(), Role: enums.RoleAdmin}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, staffDTO.ID)
}

func TestListFiltersAndPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := buildOrdersService(t, db, &fakeGateway{})
	customer := uuid.New()
	other := uuid.New()

	for i := 0; i < 3; i++ {
		seedOrder(t, db, customer, enums.OrderStatusPending, enums.PaymentStatusPending)
	}
	seedOrder(t, db, customer, enums.OrderStatusShipped, enums.PaymentStatusApproved)
	seedOrder(t, db, other, enums.OrderStatusPending, enums.PaymentStatusPending)

	// Customers only see their own orders.
	mine, err := svc.List(context.Background(), Actor{UserID: customer, Role: enums.RoleIndividual}, ListParams{})
	require.NoError(t, err)
	assert.Len(t, mine.Orders, 4)

	// Staff see everything, optionally narrowed by status.
	pending := enums.OrderStatusPending
	all, err := svc.List(context.Background(), Actor{UserID: uuid.New(), Role: enums.RoleEmployee}, ListParams{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 4)

	// Cursor pagination walks the set without overlap.
	first, err := svc.List(context.Background(), Actor{UserID: customer, Role: enums.RoleIndividual}, ListParams{
		Pagination: pagination.Params{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(context.Background(), Actor{UserID: customer, Role: enums.RoleIndividual}, ListParams{
		Pagination: pagination.Params{Limit: 2, Cursor: first.NextCursor},
	})
	require.NoError(t, err)
	require.Len(t, second.Orders, 2)
	assert.NotEqual(t, first.Orders[0].ID, second.Orders[0].ID)
	assert.NotEqual(t, first.Orders[1].ID, second.Orders[1].ID)
}
