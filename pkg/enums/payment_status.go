package enums

import "fmt"

// PaymentStatus tracks settlement progress of an order's payment.
type PaymentStatus string

const (
	PaymentStatusPending            PaymentStatus = "pending"
	PaymentStatusApproved           PaymentStatus = "approved"
	PaymentStatusApprovedForDelayed PaymentStatus = "approved_for_delayed_payment"
	PaymentStatusRejected           PaymentStatus = "rejected"
	PaymentStatusCancelled          PaymentStatus = "cancelled"
	PaymentStatusRefunded           PaymentStatus = "refunded"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusApproved,
	PaymentStatusApprovedForDelayed,
	PaymentStatusRejected,
	PaymentStatusCancelled,
	PaymentStatusRefunded,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsSettled reports whether money has been captured for the order.
func (p PaymentStatus) IsSettled() bool {
	return p == PaymentStatusApproved
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
