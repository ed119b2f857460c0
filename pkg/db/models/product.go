package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog entry variants hang off of. Price is the base
// price; each variant carries a signed delta on top of it.
type Product struct {
	ID          int64            `gorm:"column:id;primaryKey;autoIncrement"`
	Title       string           `gorm:"column:title;not null"`
	Description string           `gorm:"column:description;not null"`
	ImageURL    string           `gorm:"column:image_url;not null"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
