package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/mdbytes/reads-backend/pkg/db/models"
	"github.com/mdbytes/reads-backend/pkg/enums"
	"github.com/mdbytes/reads-backend/pkg/pagination"
	"github.com/mdbytes/reads-backend/pkg/types"
)

// Actor identifies the caller for scoping decisions.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// DetailDTO is one frozen order line.
type DetailDTO struct {
	ProductID uint        `json:"product_id"`
	Title     string      `json:"title"`
	Quantity  int         `json:"quantity"`
	UnitPrice types.Money `json:"unit_price"`
	LineTotal types.Money `json:"line_total"`
}

// OrderDTO is the API shape of an order aggregate.
type OrderDTO struct {
	ID             uint                `json:"id"`
	UserID         uuid.UUID           `json:"user_id"`
	OrderDate      time.Time           `json:"order_date"`
	ShippingDate   *time.Time          `json:"shipping_date,omitempty"`
	PaymentDueDate *time.Time          `json:"payment_due_date,omitempty"`
	PaymentDate    *time.Time          `json:"payment_date,omitempty"`
	Total          types.Money         `json:"total"`
	OrderStatus    enums.OrderStatus   `json:"order_status"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	TrackingNumber *string             `json:"tracking_number,omitempty"`
	Carrier        *string             `json:"carrier,omitempty"`
	Name           string              `json:"name"`
	PhoneNumber    string              `json:"phone_number"`
	StreetAddress  string              `json:"street_address"`
	City           string              `json:"city"`
	State          string              `json:"state"`
	PostalCode     string              `json:"postal_code"`
	Details        []DetailDTO         `json:"details,omitempty"`
}

// FromModel converts the persistence aggregate into its API shape.
func FromModel(header *models.OrderHeader) *OrderDTO {
	if header == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:             header.ID,
		UserID:         header.UserID,
		OrderDate:      header.OrderDate,
		ShippingDate:   header.ShippingDate,
		PaymentDueDate: header.PaymentDueDate,
		PaymentDate:    header.PaymentDate,
		Total:          types.Money(header.TotalCents),
		OrderStatus:    header.OrderStatus,
		PaymentStatus:  header.PaymentStatus,
		TrackingNumber: header.TrackingNumber,
		Carrier:        header.Carrier,
		Name:           header.Name,
		PhoneNumber:    header.PhoneNumber,
		StreetAddress:  header.StreetAddress,
		City:           header.City,
		State:          header.State,
		PostalCode:     header.PostalCode,
	}
	for _, detail := range header.Details {
		dto.Details = append(dto.Details, DetailDTO{
			ProductID: detail.ProductID,
			Title:     detail.Title,
			Quantity:  detail.Quantity,
			UnitPrice: types.Money(detail.UnitPriceCents),
			LineTotal: types.Money(detail.UnitPriceCents * detail.Quantity),
		})
	}
	return dto
}

// ListParams carries listing filters plus cursor pagination inputs.
type ListParams struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Pagination    pagination.Params
}

// ListResult is one page of orders with the cursor for the next one.
type ListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ShipInput captures the carrier handoff recorded at shipping time.
type ShipInput struct {
	Carrier        string `json:"carrier" validate:"required"`
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

// UpdateDetailsInput lists the mutable shipping snapshot fields. Nil fields
// are left untouched.
type UpdateDetailsInput struct {
	Name           *string `json:"name,omitempty"`
	PhoneNumber    *string `json:"phone_number,omitempty"`
	StreetAddress  *string `json:"street_address,omitempty"`
	City           *string `json:"city,omitempty"`
	State          *string `json:"state,omitempty"`
	PostalCode     *string `json:"postal_code,omitempty"`
	Carrier        *string `json:"carrier,omitempty"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
}

// PayNowResult hands the caller the hosted payment page for an open balance.
type PayNowResult struct {
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
}
