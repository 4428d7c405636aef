package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/mdbytes/reads-backend/pkg/db/models"
	"github.com/mdbytes/reads-backend/pkg/logger"
)

type overdueInvoiceReader interface {
	ListOverdueInvoices(ctx context.Context, asOf time.Time) ([]models.OrderHeader, error)
}

// OverdueInvoiceJobParams configure the invoice watchdog.
type OverdueInvoiceJobParams struct {
	Logger *logger.Logger
	Reader overdueInvoiceReader
}

// NewOverdueInvoiceJob builds the job that surfaces pay-later orders whose
// due date has passed so staff can chase the balance.
func NewOverdueInvoiceJob(params OverdueInvoiceJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("overdue invoice reader required")
	}
	return &overdueInvoiceJob{
		logg:   params.Logger,
		reader: params.Reader,
		now:    time.Now,
	}, nil
}

type overdueInvoiceJob struct {
	logg   *logger.Logger
	reader overdueInvoiceReader
	now    func() time.Time
}

func (j *overdueInvoiceJob) Name() string {
	return "overdue_invoices"
}

func (j *overdueInvoiceJob) Run(ctx context.Context) error {
	asOf := j.now()
	headers, err := j.reader.ListOverdueInvoices(ctx, asOf)
	if err != nil {
		return fmt.Errorf("list overdue invoices: %w", err)
	}

	for _, header := range headers {
		fields := map[string]any{
			"order_id":    header.ID,
			"user_id":     header.UserID,
			"total_cents": header.TotalCents,
		}
		if header.PaymentDueDate != nil {
			fields["days_overdue"] = int(asOf.Sub(*header.PaymentDueDate).Hours() / 24)
		}
		j.logg.Warn(j.logg.WithFields(ctx, fields), "invoice past due")
	}

	summaryCtx := j.logg.WithField(ctx, "overdue_count", len(headers))
	j.logg.Info(summaryCtx, "overdue invoice sweep complete")
	return nil
}
