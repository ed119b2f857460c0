package models

import "time"

// Review is user feedback on a product. Independent of the cart/order
// lifecycle; kept here for the aggregator's pagination and statistics.
type Review struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID  int64     `gorm:"column:product_id;not null;index"`
	UserID     int64     `gorm:"column:user_id;not null"`
	Rating     int       `gorm:"column:rating;not null"`
	Title      *string   `gorm:"column:title"`
	Comment    *string   `gorm:"column:comment"`
	Images     []string  `gorm:"column:images;type:jsonb;serializer:json"`
	Likes      int       `gorm:"column:likes;not null;default:0"`
	Dislikes   int       `gorm:"column:dislikes;not null;default:0"`
	IsVerified bool      `gorm:"column:is_verified;not null;default:false"`
	User       *User     `gorm:"foreignKey:UserID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
