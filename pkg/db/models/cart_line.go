package models

import "time"

// CartLine is one (variant, quantity) entry in a cart. Exactly one of
// UserID/GuestID is set; a line never belongs to both or neither. The
// partial unique indexes enforce one line per (owner, variant).
type CartLine struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    *int64         `gorm:"column:user_id;index:idx_cart_lines_user_variant,unique,where:user_id IS NOT NULL,priority:1"`
	GuestID   *string        `gorm:"column:guest_id;index:idx_cart_lines_guest_variant,unique,where:guest_id IS NOT NULL,priority:1"`
	VariantID int64          `gorm:"column:variant_id;not null;index:idx_cart_lines_user_variant,unique,where:user_id IS NOT NULL,priority:2;index:idx_cart_lines_guest_variant,unique,where:guest_id IS NOT NULL,priority:2"`
	Quantity  int            `gorm:"column:quantity;not null"`
	Variant   ProductVariant `gorm:"foreignKey:VariantID"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
