package orders

import (
	"fmt"

	"github.com/mdbytes/reads-backend/pkg/enums"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
)

// trigger names a lifecycle action applied to an order.
type trigger string

const (
	triggerStartProcessing trigger = "start_processing"
	triggerShip            trigger = "ship"
	triggerCancel          trigger = "cancel"
)

// orderTransitions maps each trigger to the statuses it may fire from and
// the status it lands on. Shipped and cancelled are terminal; nothing fires
// from them.
var orderTransitions = map[trigger]map[enums.OrderStatus]enums.OrderStatus{
	triggerStartProcessing: {
		enums.OrderStatusPending:  enums.OrderStatusProcessing,
		enums.OrderStatusApproved: enums.OrderStatusProcessing,
	},
	triggerShip: {
		enums.OrderStatusPending:    enums.OrderStatusShipped,
		enums.OrderStatusApproved:   enums.OrderStatusShipped,
		enums.OrderStatusProcessing: enums.OrderStatusShipped,
	},
	triggerCancel: {
		enums.OrderStatusPending:    enums.OrderStatusCancelled,
		enums.OrderStatusApproved:   enums.OrderStatusCancelled,
		enums.OrderStatusProcessing: enums.OrderStatusCancelled,
	},
}

// nextOrderStatus resolves the target status for a trigger, or a state
// conflict error when the current status does not permit it.
func nextOrderStatus(current enums.OrderStatus, action trigger) (enums.OrderStatus, error) {
	targets, ok := orderTransitions[action]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown order trigger %q", action))
	}
	next, ok := targets[current]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot %s an order in status %s", action, current))
	}
	return next, nil
}
