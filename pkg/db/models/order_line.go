package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine snapshots one purchased variant. UnitPrice is frozen at order
// time so later catalog price changes never rewrite history.
type OrderLine struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"column:order_id;not null;index"`
	VariantID int64           `gorm:"column:variant_id;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
