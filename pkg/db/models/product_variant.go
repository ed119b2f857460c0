package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductVariant is a purchasable SKU distinguished by one attribute
// (color, size, capacity). Stock is the authoritative counter; it is only
// decremented through the catalog reservation primitive.
type ProductVariant struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID  int64           `gorm:"column:product_id;not null;index"`
	Attribute  string          `gorm:"column:attribute;not null"`
	Value      string          `gorm:"column:value;not null"`
	Stock      int             `gorm:"column:stock;not null;default:0"`
	PriceDelta decimal.Decimal `gorm:"column:price_delta;type:numeric(10,2);not null;default:0"`
	Product    *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// UnitPrice is the effective price of this variant: base price plus delta.
func (v ProductVariant) UnitPrice() decimal.Decimal {
	if v.Product == nil {
		return v.PriceDelta
	}
	return v.Product.Price.Add(v.PriceDelta)
}
