package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/mdbytes/reads-backend/internal/orders"
	"github.com/mdbytes/reads-backend/pkg/db/models"
	"github.com/mdbytes/reads-backend/pkg/logger"
)

// Sessions the buyer abandoned mid-payment stay pending forever unless
// something re-reads the gateway. One hour gives the happy-path redirect
// plenty of room.
const staleSessionAge = time.Hour

type stalePaymentReader interface {
	ListStalePaymentSessions(ctx context.Context, cutoff time.Time) ([]models.OrderHeader, error)
}

type sessionConfirmer interface {
	Confirm(ctx context.Context, orderID uint) (*orders.OrderDTO, error)
}

// PaymentReconcileJobParams configure the payment reconciliation sweep.
type PaymentReconcileJobParams struct {
	Logger    *logger.Logger
	Reader    stalePaymentReader
	Confirmer sessionConfirmer
}

// NewPaymentReconcileJob builds the job that re-reads stale gateway
// sessions and settles orders the confirmation callback missed.
func NewPaymentReconcileJob(params PaymentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("stale payment reader required")
	}
	if params.Confirmer == nil {
		return nil, fmt.Errorf("session confirmer required")
	}
	return &paymentReconcileJob{
		logg:      params.Logger,
		reader:    params.Reader,
		confirmer: params.Confirmer,
		now:       time.Now,
	}, nil
}

type paymentReconcileJob struct {
	logg      *logger.Logger
	reader    stalePaymentReader
	confirmer sessionConfirmer
	now       func() time.Time
}

func (j *paymentReconcileJob) Name() string {
	return "payment_reconcile"
}

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-staleSessionAge)
	headers, err := j.reader.ListStalePaymentSessions(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale payment sessions: %w", err)
	}
	if len(headers) == 0 {
		return nil
	}

	var errs error
	for _, header := range headers {
		orderCtx := j.logg.WithField(ctx, "order_id", header.ID)
		if _, err := j.confirmer.Confirm(orderCtx, header.ID); err != nil {
			j.logg.Error(orderCtx, "reconcile payment session", err)
			errs = multierr.Append(errs, fmt.Errorf("order %d: %w", header.ID, err))
			continue
		}
		j.logg.Info(orderCtx, "payment session reconciled")
	}
	return errs
}
