package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/pkg/db/models"
	"github.com/mdbytes/reads-backend/pkg/enums"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
	"github.com/mdbytes/reads-backend/pkg/pagination"
)

// Repository exposes persistence operations for order aggregates.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the header together with its detail lines.
func (r *Repository) Create(ctx context.Context, header *models.OrderHeader) (*models.OrderHeader, error) {
	if err := r.db.WithContext(ctx).Create(header).Error; err != nil {
		return nil, err
	}
	return header, nil
}

// FindByID loads an order with its frozen detail lines.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.OrderHeader, error) {
	var header models.OrderHeader
	err := r.db.WithContext(ctx).
		Preload("Details").
		Where("id = ?", id).
		First(&header).Error
	if err != nil {
		return nil, err
	}
	return &header, nil
}

// FindByIDAndUser loads an order restricted to its owner.
func (r *Repository) FindByIDAndUser(ctx context.Context, id uint, userID uuid.UUID) (*models.OrderHeader, error) {
	var header models.OrderHeader
	err := r.db.WithContext(ctx).
		Preload("Details").
		Where("id = ? AND user_id = ?", id, userID).
		First(&header).Error
	if err != nil {
		return nil, err
	}
	return &header, nil
}

// Save persists the full header row.
func (r *Repository) Save(ctx context.Context, header *models.OrderHeader) error {
	return r.db.WithContext(ctx).
		Omit("Details", "User").
		Save(header).Error
}

// TransitionStatus applies the updates only while the order still sits in
// the expected status. A concurrent transition loses the race and surfaces
// as a conflict; a missing row surfaces as not found.
func (r *Repository) TransitionStatus(ctx context.Context, id uint, from enums.OrderStatus, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderHeader{}).
		Where("id = ? AND order_status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var header models.OrderHeader
	err := r.db.WithContext(ctx).
		Select("id", "order_status").
		Where("id = ?", id).
		First(&header).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return err
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently")
}

// listQuery narrows and pages the orders listing.
type listQuery struct {
	userID        *uuid.UUID
	status        *enums.OrderStatus
	paymentStatus *enums.PaymentStatus
	cursor        *pagination.Cursor
	limit         int
}

// List returns newest-first orders matching the query. Callers pass a limit
// with a lookahead row to detect whether another page exists.
func (r *Repository) List(ctx context.Context, query listQuery) ([]models.OrderHeader, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.OrderHeader{}).
		Preload("Details")

	if query.userID != nil {
		tx = tx.Where("user_id = ?", *query.userID)
	}
	if query.status != nil {
		tx = tx.Where("order_status = ?", *query.status)
	}
	if query.paymentStatus != nil {
		tx = tx.Where("payment_status = ?", *query.paymentStatus)
	}
	if query.cursor != nil {
		tx = tx.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			query.cursor.CreatedAt, query.cursor.CreatedAt, query.cursor.ID,
		)
	}

	var rows []models.OrderHeader
	err := tx.Order("created_at DESC, id DESC").
		Limit(query.limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListStalePaymentSessions returns orders that opened a hosted payment
// session but never saw the confirmation callback, created before cutoff.
func (r *Repository) ListStalePaymentSessions(ctx context.Context, cutoff time.Time) ([]models.OrderHeader, error) {
	var rows []models.OrderHeader
	err := r.db.WithContext(ctx).
		Where("payment_status = ?", enums.PaymentStatusPending).
		Where("session_id IS NOT NULL").
		Where("order_status <> ?", enums.OrderStatusCancelled).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListOverdueInvoices returns pay-later orders whose due date passed
// without payment.
func (r *Repository) ListOverdueInvoices(ctx context.Context, asOf time.Time) ([]models.OrderHeader, error) {
	var rows []models.OrderHeader
	err := r.db.WithContext(ctx).
		Where("payment_status = ?", enums.PaymentStatusApprovedForDelayed).
		Where("payment_due_date IS NOT NULL AND payment_due_date < ?", asOf).
		Where("order_status <> ?", enums.OrderStatusCancelled).
		Order("payment_due_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
