package models

import "time"

// Address is a user-owned shipping address. The composite index backs the
// find-or-create lookup that keeps repeat checkouts from duplicating rows.
type Address struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index:idx_addresses_dedup,priority:1"`
	Label     string    `gorm:"column:label;not null;index:idx_addresses_dedup,priority:2"`
	Line1     string    `gorm:"column:line1;not null;index:idx_addresses_dedup,priority:3"`
	Line2     *string   `gorm:"column:line2"`
	City      string    `gorm:"column:city;not null;index:idx_addresses_dedup,priority:4"`
	Postal    string    `gorm:"column:postal;not null;index:idx_addresses_dedup,priority:5"`
	Country   string    `gorm:"column:country;not null;index:idx_addresses_dedup,priority:6"`
	Phone     *string   `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
