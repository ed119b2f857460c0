package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/pkg/db/models"
)

// VariantRepository exposes read access to purchasable variants.
type VariantRepository interface {
	WithTx(tx *gorm.DB) VariantRepository
	FindVariant(ctx context.Context, id int64) (*models.ProductVariant, error)
	FindVariants(ctx context.Context, ids []int64) (map[int64]*models.ProductVariant, error)
}

// Repository exposes persistence operations for catalog data.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) VariantRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindVariant loads a variant with its product summary.
func (r *Repository) FindVariant(ctx context.Context, id int64) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&variant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// FindVariants loads the requested variants keyed by id. Missing ids are
// simply absent from the result; callers decide whether that is an error.
func (r *Repository) FindVariants(ctx context.Context, ids []int64) (map[int64]*models.ProductVariant, error) {
	out := make(map[int64]*models.ProductVariant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}
