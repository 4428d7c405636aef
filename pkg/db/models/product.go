package models

import "time"

// Product represents a book listing with tiered quantity pricing.
//
// All money amounts are integer cents. ListPriceCents is the sticker
// price; PriceCents, Price50Cents and Price100Cents are the effective
// unit prices for the 1-50, 51-100 and 101+ quantity tiers. Category and
// cover type are optional references.
type Product struct {
	ID             uint       `gorm:"column:id;primaryKey;autoIncrement"`
	Title          string     `gorm:"column:title;not null"`
	Author         string     `gorm:"column:author;not null"`
	ISBN           string     `gorm:"column:isbn;not null;uniqueIndex"`
	Description    *string    `gorm:"column:description"`
	ListPriceCents int        `gorm:"column:list_price_cents;not null"`
	PriceCents     int        `gorm:"column:price_cents;not null"`
	Price50Cents   int        `gorm:"column:price50_cents;not null"`
	Price100Cents  int        `gorm:"column:price100_cents;not null"`
	ImageURL       *string    `gorm:"column:image_url"`
	IsActive       bool       `gorm:"column:is_active;not null;default:true"`
	CategoryID     *uint      `gorm:"column:category_id"`
	Category       *Category  `gorm:"foreignKey:CategoryID"`
	CoverTypeID    *uint      `gorm:"column:cover_type_id"`
	CoverType      *CoverType `gorm:"foreignKey:CoverTypeID"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
