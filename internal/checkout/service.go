// Package checkout turns a cart into an order and settles the payment
// handshake with the hosted gateway.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/internal/cart"
	"github.com/mdbytes/reads-backend/internal/orders"
	"github.com/mdbytes/reads-backend/pkg/config"
	"github.com/mdbytes/reads-backend/pkg/db/models"
	"github.com/mdbytes/reads-backend/pkg/enums"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
	"github.com/mdbytes/reads-backend/pkg/logger"
	"github.com/mdbytes/reads-backend/pkg/payments"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartManager interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*cart.View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Result reports the created order plus the hosted payment page when the
// customer pays immediately.
type Result struct {
	Order      *orders.OrderDTO `json:"order"`
	SessionURL string           `json:"session_url,omitempty"`
}

// Service orchestrates checkout and the gateway confirmation callback.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*Result, error)
	Confirm(ctx context.Context, orderID uint) (*orders.OrderDTO, error)
}

type service struct {
	tx          txRunner
	ordersRepo  *orders.Repository
	cartSvc     cartManager
	users       userLoader
	gateway     payments.Gateway
	checkoutCfg config.CheckoutConfig
	logg        *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	ordersRepo *orders.Repository,
	cartSvc cartManager,
	users userLoader,
	gateway payments.Gateway,
	checkoutCfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:          tx,
		ordersRepo:  ordersRepo,
		cartSvc:     cartSvc,
		users:       users,
		gateway:     gateway,
		checkoutCfg: checkoutCfg,
		logg:        logg,
	}, nil
}

// Checkout freezes the cart into an order header with detail lines. Company
// buyers get invoice terms; everyone else is handed a hosted payment page.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*Result, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if err := validateShippingProfile(user); err != nil {
		return nil, err
	}

	view, err := s.cartSvc.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	now := time.Now().UTC()
	header := &models.OrderHeader{
		UserID:        userID,
		OrderDate:     now,
		TotalCents:    view.TotalCents,
		Name:          user.FirstName + " " + user.LastName,
		PhoneNumber:   derefString(user.Phone),
		StreetAddress: derefString(user.StreetAddress),
		City:          derefString(user.City),
		State:         derefString(user.State),
		PostalCode:    derefString(user.PostalCode),
	}
	for _, line := range view.Lines {
		header.Details = append(header.Details, models.OrderDetail{
			ProductID:      line.ProductID,
			Title:          line.Title,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		})
	}

	deferred := user.CompanyID != nil
	if deferred {
		header.OrderStatus = enums.OrderStatusApproved
		header.PaymentStatus = enums.PaymentStatusApprovedForDelayed
		dueDate := now.Add(s.checkoutCfg.PaymentTerm())
		header.PaymentDueDate = &dueDate
	} else {
		header.OrderStatus = enums.OrderStatusPending
		header.PaymentStatus = enums.PaymentStatusPending
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.ordersRepo.WithTx(tx).Create(ctx, header)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	result := &Result{Order: orders.FromModel(header)}
	if deferred {
		return result, nil
	}

	session, err := s.createSession(ctx, header, view.Lines)
	if err != nil {
		return nil, err
	}
	header.SessionID = &session.ID
	if err := s.ordersRepo.Save(ctx, header); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store session id")
	}

	result.Order = orders.FromModel(header)
	result.SessionURL = session.URL
	return result, nil
}

// Confirm is the gateway redirect target. For pay-now orders it checks the
// session and settles the payment axis; for invoice orders it simply moves
// the order into the fulfillment queue. Repeated calls are no-ops.
func (s *service) Confirm(ctx context.Context, orderID uint) (*orders.OrderDTO, error) {
	header, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	switch header.PaymentStatus {
	case enums.PaymentStatusApprovedForDelayed:
		return s.confirmDeferred(ctx, header)
	case enums.PaymentStatusApproved:
		// Already settled; the customer refreshed the confirmation page.
		return orders.FromModel(header), nil
	default:
		return s.confirmPaid(ctx, header)
	}
}

func (s *service) confirmDeferred(ctx context.Context, header *models.OrderHeader) (*orders.OrderDTO, error) {
	if header.OrderStatus == enums.OrderStatusApproved {
		err := s.ordersRepo.TransitionStatus(ctx, header.ID, enums.OrderStatusApproved, map[string]any{
			"order_status": enums.OrderStatusPending,
		})
		if err != nil {
			return nil, err
		}
	}
	if err := s.cartSvc.Clear(ctx, header.UserID); err != nil {
		return nil, err
	}
	return s.reload(ctx, header.ID)
}

func (s *service) confirmPaid(ctx context.Context, header *models.OrderHeader) (*orders.OrderDTO, error) {
	if header.SessionID == nil || *header.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no payment session")
	}

	session, err := s.gateway.GetSession(ctx, *header.SessionID)
	if err != nil {
		return nil, err
	}
	if session.PaymentStatus != payments.SessionPaid {
		// Not an error: the customer may have landed here before paying.
		return orders.FromModel(header), nil
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"payment_status": enums.PaymentStatusApproved,
		"payment_date":   now,
	}
	// The intent id is provisioned asynchronously by the gateway; this
	// callback is the one reconciliation point where it gets persisted.
	if session.PaymentIntentID != "" {
		updates["payment_intent_id"] = session.PaymentIntentID
	}

	err = s.ordersRepo.TransitionStatus(ctx, header.ID, header.OrderStatus, updates)
	if err != nil {
		return nil, err
	}
	if err := s.cartSvc.Clear(ctx, header.UserID); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, header.ID), "payment confirmed")
	return s.reload(ctx, header.ID)
}

func (s *service) createSession(ctx context.Context, header *models.OrderHeader, lines []cart.Line) (*payments.Session, error) {
	lineItems := make([]payments.LineItem, 0, len(lines))
	for _, line := range lines {
		lineItems = append(lineItems, payments.LineItem{
			Name:            line.Title,
			Quantity:        int64(line.Quantity),
			UnitAmountCents: int64(line.UnitPriceCents),
		})
	}
	return s.gateway.CreateSession(ctx, payments.CreateSessionInput{
		OrderID:    header.ID,
		Currency:   s.checkoutCfg.Currency,
		SuccessURL: orders.ConfirmURL(s.checkoutCfg.PublicBaseURL, header.ID),
		CancelURL:  orders.CancelURL(s.checkoutCfg.PublicBaseURL, header.ID),
		LineItems:  lineItems,
	})
}

func (s *service) reload(ctx context.Context, orderID uint) (*orders.OrderDTO, error) {
	header, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return orders.FromModel(header), nil
}

// validateShippingProfile requires the profile fields that become the
// order's shipping snapshot.
func validateShippingProfile(user *models.User) error {
	var errs error
	check := func(value *string, field string) {
		if value == nil || *value == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s is required", field))
		}
	}
	check(user.Phone, "phone")
	check(user.StreetAddress, "street_address")
	check(user.City, "city")
	check(user.State, "state")
	check(user.PostalCode, "postal_code")

	if errs == nil {
		return nil
	}
	fields := make([]string, 0)
	for _, err := range multierr.Errors(errs) {
		fields = append(fields, err.Error())
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "shipping profile is incomplete").WithDetails(fields)
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
