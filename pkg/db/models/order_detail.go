package models

import "time"

// OrderDetail is a frozen line snapshot: the unit price is the tiered
// price in effect at checkout and never re-derives from the product.
type OrderDetail struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement"`
	OrderHeaderID  uint      `gorm:"column:order_header_id;not null;index"`
	ProductID      uint      `gorm:"column:product_id;not null"`
	Product        *Product  `gorm:"foreignKey:ProductID"`
	Title          string    `gorm:"column:title;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
