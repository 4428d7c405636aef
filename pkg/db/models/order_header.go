package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mdbytes/reads-backend/pkg/enums"
)

// OrderHeader is the order aggregate root. Shipping fields are snapshots
// captured at checkout; gateway identifiers arrive as the payment flow
// progresses.
type OrderHeader struct {
	ID               uint                `gorm:"column:id;primaryKey;autoIncrement"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	User             *User               `gorm:"foreignKey:UserID"`
	OrderDate        time.Time           `gorm:"column:order_date;not null"`
	ShippingDate     *time.Time          `gorm:"column:shipping_date"`
	PaymentDueDate   *time.Time          `gorm:"column:payment_due_date"`
	PaymentDate      *time.Time          `gorm:"column:payment_date"`
	TotalCents       int                 `gorm:"column:total_cents;not null"`
	OrderStatus      enums.OrderStatus   `gorm:"column:order_status;type:text;not null"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	SessionID        *string             `gorm:"column:session_id"`
	PaymentIntentID  *string             `gorm:"column:payment_intent_id"`
	TrackingNumber   *string             `gorm:"column:tracking_number"`
	Carrier          *string             `gorm:"column:carrier"`
	Name             string              `gorm:"column:name;not null"`
	PhoneNumber      string              `gorm:"column:phone_number;not null"`
	StreetAddress    string              `gorm:"column:street_address;not null"`
	City             string              `gorm:"column:city;not null"`
	State            string              `gorm:"column:state;not null"`
	PostalCode       string              `gorm:"column:postal_code;not null"`
	Details          []OrderDetail       `gorm:"foreignKey:OrderHeaderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
