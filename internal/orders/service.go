package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/pkg/config"
	"github.com/mdbytes/reads-backend/pkg/db/models"
	"github.com/mdbytes/reads-backend/pkg/enums"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
	"github.com/mdbytes/reads-backend/pkg/logger"
	"github.com/mdbytes/reads-backend/pkg/pagination"
	"github.com/mdbytes/reads-backend/pkg/payments"
)

// Service exposes order reads for customers and lifecycle actions for staff.
type Service interface {
	GetOrder(ctx context.Context, actor Actor, orderID uint) (*OrderDTO, error)
	List(ctx context.Context, actor Actor, params ListParams) (*ListResult, error)
	StartProcessing(ctx context.Context, orderID uint) (*OrderDTO, error)
	Ship(ctx context.Context, orderID uint, input ShipInput) (*OrderDTO, error)
	Cancel(ctx context.Context, orderID uint) (*OrderDTO, error)
	UpdateDetails(ctx context.Context, orderID uint, input UpdateDetailsInput) (*OrderDTO, error)
	PayNow(ctx context.Context, orderID uint) (*PayNowResult, error)
}

type service struct {
	repo        *Repository
	gateway     payments.Gateway
	checkoutCfg config.CheckoutConfig
	logg        *logger.Logger
}

// NewService builds an orders service backed by the provided stack.
func NewService(repo *Repository, gateway payments.Gateway, checkoutCfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, gateway: gateway, checkoutCfg: checkoutCfg, logg: logg}, nil
}

func (s *service) GetOrder(ctx context.Context, actor Actor, orderID uint) (*OrderDTO, error) {
	header, err := s.loadForActor(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(header), nil
}

func (s *service) List(ctx context.Context, actor Actor, params ListParams) (*ListResult, error) {
	limit := pagination.NormalizeLimit(params.Pagination.Limit)
	query := listQuery{
		status:        params.Status,
		paymentStatus: params.PaymentStatus,
		limit:         pagination.LimitWithBuffer(params.Pagination.Limit),
	}
	if !actor.Role.IsStaff() {
		userID := actor.UserID
		query.userID = &userID
	}
	if params.Pagination.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Pagination.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	result := &ListResult{
		Orders:     make([]OrderDTO, 0, len(rows)),
		NextCursor: nextCursor,
	}
	for i := range rows {
		result.Orders = append(result.Orders, *FromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) StartProcessing(ctx context.Context, orderID uint) (*OrderDTO, error) {
	header, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	next, err := nextOrderStatus(header.OrderStatus, triggerStartProcessing)
	if err != nil {
		return nil, err
	}

	err = s.repo.TransitionStatus(ctx, header.ID, header.OrderStatus, map[string]any{
		"order_status": next,
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

func (s *service) Ship(ctx context.Context, orderID uint, input ShipInput) (*OrderDTO, error) {
	carrier := strings.TrimSpace(input.Carrier)
	tracking := strings.TrimSpace(input.TrackingNumber)
	if carrier == "" || tracking == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier and tracking number are required")
	}

	header, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	next, err := nextOrderStatus(header.OrderStatus, triggerShip)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"order_status":    next,
		"shipping_date":   now,
		"carrier":         carrier,
		"tracking_number": tracking,
	}
	// Delayed-payment invoices restart their term at the ship date.
	if header.PaymentStatus == enums.PaymentStatusApprovedForDelayed {
		updates["payment_due_date"] = now.Add(s.checkoutCfg.PaymentTerm())
	}

	if err := s.repo.TransitionStatus(ctx, header.ID, header.OrderStatus, updates); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, header.ID), "order shipped")
	return s.reload(ctx, orderID)
}

func (s *service) Cancel(ctx context.Context, orderID uint) (*OrderDTO, error) {
	header, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	next, err := nextOrderStatus(header.OrderStatus, triggerCancel)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"order_status": next}
	if header.PaymentStatus == enums.PaymentStatusApproved {
		if header.PaymentIntentID == nil || *header.PaymentIntentID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment intent unavailable for refund")
		}
		refund, err := s.gateway.CreateRefund(ctx, payments.RefundInput{
			PaymentIntentID: *header.PaymentIntentID,
		})
		if err != nil {
			return nil, err
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":  header.ID,
			"refund_id": refund.ID,
		}), "order refunded")
		updates["payment_status"] = enums.PaymentStatusRefunded
	} else {
		updates["payment_status"] = enums.PaymentStatusCancelled
	}

	if err := s.repo.TransitionStatus(ctx, header.ID, header.OrderStatus, updates); err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

func (s *service) UpdateDetails(ctx context.Context, orderID uint, input UpdateDetailsInput) (*OrderDTO, error) {
	header, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if header.OrderStatus.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot edit an order in status %s", header.OrderStatus))
	}

	if err := applyDetailUpdates(header, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, header); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save order")
	}
	return s.reload(ctx, orderID)
}

// PayNow opens a fresh hosted session for an order's outstanding balance,
// priced from the frozen detail lines.
func (s *service) PayNow(ctx context.Context, orderID uint) (*PayNowResult, error) {
	header, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if header.OrderStatus == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot pay a cancelled order")
	}
	if header.PaymentStatus.IsSettled() || header.PaymentStatus == enums.PaymentStatusRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order payment is already settled")
	}
	if len(header.Details) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no detail lines")
	}

	lineItems := make([]payments.LineItem, 0, len(header.Details))
	for _, detail := range header.Details {
		lineItems = append(lineItems, payments.LineItem{
			Name:            detail.Title,
			Quantity:        int64(detail.Quantity),
			UnitAmountCents: int64(detail.UnitPriceCents),
		})
	}

	session, err := s.gateway.CreateSession(ctx, payments.CreateSessionInput{
		OrderID:    header.ID,
		Currency:   s.checkoutCfg.Currency,
		SuccessURL: ConfirmURL(s.checkoutCfg.PublicBaseURL, header.ID),
		CancelURL:  CancelURL(s.checkoutCfg.PublicBaseURL, header.ID),
		LineItems:  lineItems,
	})
	if err != nil {
		return nil, err
	}

	header.SessionID = &session.ID
	if err := s.repo.Save(ctx, header); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store session id")
	}

	return &PayNowResult{SessionID: session.ID, SessionURL: session.URL}, nil
}

// ConfirmURL is where the gateway redirects a paid session.
func ConfirmURL(baseURL string, orderID uint) string {
	return fmt.Sprintf("%s/api/v1/checkout/confirm?order_id=%d", strings.TrimRight(baseURL, "/"), orderID)
}

// CancelURL is where the gateway redirects an abandoned session.
func CancelURL(baseURL string, orderID uint) string {
	return fmt.Sprintf("%s/orders/%d", strings.TrimRight(baseURL, "/"), orderID)
}

func (s *service) loadForActor(ctx context.Context, actor Actor, orderID uint) (*models.OrderHeader, error) {
	var header *models.OrderHeader
	var err error
	if actor.Role.IsStaff() {
		header, err = s.repo.FindByID(ctx, orderID)
	} else {
		header, err = s.repo.FindByIDAndUser(ctx, orderID, actor.UserID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return header, nil
}

func (s *service) load(ctx context.Context, orderID uint) (*models.OrderHeader, error) {
	header, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return header, nil
}

func (s *service) reload(ctx context.Context, orderID uint) (*OrderDTO, error) {
	header, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(header), nil
}

func applyDetailUpdates(header *models.OrderHeader, input UpdateDetailsInput) error {
	assign := func(target *string, value *string, field string) error {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, field+" cannot be blank")
		}
		*target = trimmed
		return nil
	}

	if err := assign(&header.Name, input.Name, "name"); err != nil {
		return err
	}
	if err := assign(&header.PhoneNumber, input.PhoneNumber, "phone_number"); err != nil {
		return err
	}
	if err := assign(&header.StreetAddress, input.StreetAddress, "street_address"); err != nil {
		return err
	}
	if err := assign(&header.City, input.City, "city"); err != nil {
		return err
	}
	if err := assign(&header.State, input.State, "state"); err != nil {
		return err
	}
	if err := assign(&header.PostalCode, input.PostalCode, "postal_code"); err != nil {
		return err
	}
	if input.Carrier != nil {
		carrier := strings.TrimSpace(*input.Carrier)
		header.Carrier = &carrier
	}
	if input.TrackingNumber != nil {
		tracking := strings.TrimSpace(*input.TrackingNumber)
		header.TrackingNumber = &tracking
	}
	return nil
}
