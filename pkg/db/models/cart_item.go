package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem holds one product line in a user's cart. A user has at most
// one row per product; quantity changes mutate the row in place.
type CartItem struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	ProductID uint      `gorm:"column:product_id;not null;uniqueIndex:idx_cart_user_product"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
