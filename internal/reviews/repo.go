package reviews

import (
	"context"

	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/pkg/db/models"
)

// Repository exposes persistence operations for product reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) error
	List(ctx context.Context, productID int64, orderClause string, offset, limit int) ([]models.Review, error)
	Count(ctx context.Context, productID int64) (int64, error)
	CountByRating(ctx context.Context, productID int64) (map[int]int64, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a review repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new review.
func (r *repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// List returns one page of a product's reviews with their authors.
func (r *repository) List(ctx context.Context, productID int64, orderClause string, offset, limit int) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order(orderClause).
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the total number of reviews for a product.
func (r *repository) Count(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

// CountByRating groups a product's reviews by rating value.
func (r *repository) CountByRating(ctx context.Context, productID int64) (map[int]int64, error) {
	type bucket struct {
		Rating int
		Total  int64
	}
	var buckets []bucket
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("rating, COUNT(*) AS total").
		Where("product_id = ?", productID).
		Group("rating").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}

	out := make(map[int]int64, len(buckets))
	for _, b := range buckets {
		out[b.Rating] = b.Total
	}
	return out, nil
}

// ProductExists reports whether the product id refers to a catalog row.
func (r *repository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Count(&count).Error
	return count > 0, err
}
