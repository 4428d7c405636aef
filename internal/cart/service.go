package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mdbytes/reads-backend/pkg/db/models"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
	"github.com/mdbytes/reads-backend/pkg/logger"
	"github.com/mdbytes/reads-backend/pkg/pricing"
	"github.com/mdbytes/reads-backend/pkg/types"
)

const (
	minQuantity = 1
	maxQuantity = 1000
)

type productLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
}

type badgeCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartCountKey(userID string) string
}

// Line is a cart row priced at the quantity's volume tier.
type Line struct {
	ItemID         uint        `json:"item_id"`
	ProductID      uint        `json:"product_id"`
	Title          string      `json:"title"`
	Author         string      `json:"author"`
	ImageURL       *string     `json:"image_url,omitempty"`
	Quantity       int         `json:"quantity"`
	UnitPrice      types.Money `json:"unit_price"`
	LineTotal      types.Money `json:"line_total"`
	UnitPriceCents int         `json:"-"`
}

// View is the customer's cart with totals computed from current prices.
type View struct {
	Lines      []Line      `json:"lines"`
	LineCount  int         `json:"line_count"`
	Total      types.Money `json:"total"`
	TotalCents int         `json:"-"`
}

// Service exposes cart operations scoped to the owning customer.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, productID uint, quantity int) (*View, error)
	IncrementItem(ctx context.Context, userID uuid.UUID, itemID uint) (*View, error)
	DecrementItem(ctx context.Context, userID uuid.UUID, itemID uint) (*View, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, itemID uint) (*View, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	BadgeCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo     *Repository
	products productLoader
	cache    badgeCache
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack. The badge
// cache is optional; without it counts are always read from the database.
func NewService(repo *Repository, products productLoader, cache badgeCache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, products: products, cache: cache, logg: logg}, nil
}

// AddItem appends a product to the cart, or bumps the line when the product
// is already present.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, productID uint, quantity int) (*View, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	existing, err := s.repo.FindByUserAndProduct(ctx, userID, productID)
	switch {
	case err == nil:
		next := existing.Quantity + quantity
		if err := validateQuantity(next); err != nil {
			return nil, err
		}
		if err := s.repo.UpdateQuantity(ctx, existing.ID, next); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		_, err := s.repo.Create(ctx, &models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart line")
	}

	s.refreshBadge(ctx, userID)
	return s.GetCart(ctx, userID)
}

// IncrementItem raises the line quantity by one.
func (s *service) IncrementItem(ctx context.Context, userID uuid.UUID, itemID uint) (*View, error) {
	item, err := s.loadOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Quantity >= maxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity cannot exceed %d", maxQuantity))
	}
	if err := s.repo.UpdateQuantity(ctx, item.ID, item.Quantity+1); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
	}
	s.refreshBadge(ctx, userID)
	return s.GetCart(ctx, userID)
}

// DecrementItem lowers the line quantity by one, removing the line once it
// reaches zero.
func (s *service) DecrementItem(ctx context.Context, userID uuid.UUID, itemID uint) (*View, error) {
	item, err := s.loadOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Quantity <= minQuantity {
		if err := s.repo.Delete(ctx, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
		}
	} else {
		if err := s.repo.UpdateQuantity(ctx, item.ID, item.Quantity-1); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
	}
	s.refreshBadge(ctx, userID)
	return s.GetCart(ctx, userID)
}

// RemoveItem drops the line regardless of quantity.
func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, itemID uint) (*View, error) {
	item, err := s.loadOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	s.refreshBadge(ctx, userID)
	return s.GetCart(ctx, userID)
}

// GetCart prices every line at its current volume tier and sums the total.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*View, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart")
	}

	view := &View{Lines: make([]Line, 0, len(rows))}
	for _, row := range rows {
		if row.Product == nil {
			continue
		}
		unit := pricing.UnitPriceCents(row.Product, row.Quantity)
		lineTotal := pricing.LineTotalCents(row.Product, row.Quantity)
		view.Lines = append(view.Lines, Line{
			ItemID:         row.ID,
			ProductID:      row.ProductID,
			Title:          row.Product.Title,
			Author:         row.Product.Author,
			ImageURL:       row.Product.ImageURL,
			Quantity:       row.Quantity,
			UnitPrice:      types.Money(unit),
			LineTotal:      types.Money(lineTotal),
			UnitPriceCents: unit,
		})
		view.TotalCents += lineTotal
	}
	view.LineCount = len(view.Lines)
	view.Total = types.Money(view.TotalCents)
	return view, nil
}

// Clear empties the cart and resets the badge.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	s.refreshBadge(ctx, userID)
	return nil
}

// BadgeCount serves the header badge, preferring the cache and falling back
// to the database when the cache is cold or unavailable.
func (s *service) BadgeCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, s.cache.CartCountKey(userID.String()))
		if err == nil {
			if count, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
				return count, nil
			}
		}
	}

	count, err := s.repo.CountLines(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count cart lines")
	}
	s.writeBadge(ctx, userID, count)
	return count, nil
}

func (s *service) loadOwnedItem(ctx context.Context, userID uuid.UUID, itemID uint) (*models.CartItem, error) {
	item, err := s.repo.FindByIDAndUser(ctx, itemID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}
	return item, nil
}

// refreshBadge recomputes the badge from the database after a mutation. The
// cache is a convenience only, so failures are logged and swallowed.
func (s *service) refreshBadge(ctx context.Context, userID uuid.UUID) {
	count, err := s.repo.CountLines(ctx, userID)
	if err != nil {
		s.logg.Warn(ctx, "cart badge recount failed")
		return
	}
	s.writeBadge(ctx, userID, count)
}

func (s *service) writeBadge(ctx context.Context, userID uuid.UUID, count int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CartCountKey(userID.String()), count, 0); err != nil {
		s.logg.Warn(ctx, "cart badge cache write failed")
	}
}

func validateQuantity(quantity int) error {
	if quantity < minQuantity || quantity > maxQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be between %d and %d", minQuantity, maxQuantity))
	}
	return nil
}
