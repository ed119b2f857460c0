package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercanlabs/storefront-backend/pkg/enums"
)

// Order is the persisted result of a checkout. Immutable once created
// apart from status transitions; the total is computed at placement and
// never recomputed.
type Order struct {
	ID            int64             `gorm:"column:id;primaryKey;autoIncrement"`
	UserID        int64             `gorm:"column:user_id;not null;index"`
	AddressID     int64             `gorm:"column:address_id;not null"`
	Total         decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod string            `gorm:"column:payment_method;not null"`
	Lines         []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Address       *Address          `gorm:"foreignKey:AddressID"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
