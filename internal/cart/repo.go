package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/internal/identity"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
)

// LineRepository exposes persistence operations for cart lines. Every query
// is scoped to the owning identity; there is no unscoped access.
type LineRepository interface {
	WithTx(tx *gorm.DB) LineRepository
	Create(ctx context.Context, line *models.CartLine) error
	Save(ctx context.Context, line *models.CartLine) error
	FindByID(ctx context.Context, owner identity.Identity, lineID int64) (*models.CartLine, error)
	FindByVariant(ctx context.Context, owner identity.Identity, variantID int64) (*models.CartLine, error)
	List(ctx context.Context, owner identity.Identity) ([]models.CartLine, error)
	DeleteByID(ctx context.Context, owner identity.Identity, lineID int64) (int64, error)
	DeleteAll(ctx context.Context, owner identity.Identity) error
}

// Repository is the gorm-backed LineRepository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) LineRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new cart line stamped with the owner.
func (r *Repository) Create(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// Save persists changes to an existing cart line.
func (r *Repository) Save(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// FindByID loads one line restricted to the owner.
func (r *Repository) FindByID(ctx context.Context, owner identity.Identity, lineID int64) (*models.CartLine, error) {
	var line models.CartLine
	err := scopeOwner(r.db.WithContext(ctx), owner).
		Preload("Variant.Product").
		First(&line, "cart_lines.id = ?", lineID).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindByVariant loads the owner's line for a variant, if any.
func (r *Repository) FindByVariant(ctx context.Context, owner identity.Identity, variantID int64) (*models.CartLine, error) {
	var line models.CartLine
	err := scopeOwner(r.db.WithContext(ctx), owner).
		Preload("Variant.Product").
		First(&line, "cart_lines.variant_id = ?", variantID).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// List returns all of the owner's lines, oldest first.
func (r *Repository) List(ctx context.Context, owner identity.Identity) ([]models.CartLine, error) {
	var rows []models.CartLine
	err := scopeOwner(r.db.WithContext(ctx), owner).
		Preload("Variant.Product").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteByID removes one line under the ownership rule and reports how many
// rows went away. Zero means the line did not exist for this owner.
func (r *Repository) DeleteByID(ctx context.Context, owner identity.Identity, lineID int64) (int64, error) {
	res := scopeOwner(r.db.WithContext(ctx), owner).
		Where("id = ?", lineID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// DeleteAll drops every line the owner has. Deleting an already empty cart
// is not an error.
func (r *Repository) DeleteAll(ctx context.Context, owner identity.Identity) error {
	return scopeOwner(r.db.WithContext(ctx), owner).
		Delete(&models.CartLine{}).Error
}

func scopeOwner(q *gorm.DB, owner identity.Identity) *gorm.DB {
	if owner.IsGuest() {
		return q.Where("guest_id = ?", owner.GuestID)
	}
	return q.Where("user_id = ?", owner.UserID)
}
