package address

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
)

// Input carries the shipping address fields supplied at checkout or
// registration.
type Input struct {
	Label   string
	Line1   string
	Line2   *string
	City    string
	Postal  string
	Country string
	Phone   *string
}

// Resolver finds or creates addresses for a user.
type Resolver interface {
	WithTx(tx *gorm.DB) Resolver
	Resolve(ctx context.Context, userID int64, input Input) (*models.Address, error)
	FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Address, error)
}

// Repository is the gorm-backed Resolver.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) Resolver {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Resolve reuses an existing address when the user already has one with the
// same (label, line1, city, postal, country) key, otherwise creates it.
// Secondary fields like line2 and phone do not participate in the match.
func (r *Repository) Resolve(ctx context.Context, userID int64, input Input) (*models.Address, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Label == "" || input.Line1 == "" || input.City == "" || input.Postal == "" || input.Country == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address label, line1, city, postal and country are required")
	}

	var existing models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND label = ? AND line1 = ? AND city = ? AND postal = ? AND country = ?",
			userID, input.Label, input.Line1, input.City, input.Postal, input.Country).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := models.Address{
		UserID:  userID,
		Label:   input.Label,
		Line1:   input.Line1,
		Line2:   input.Line2,
		City:    input.City,
		Postal:  input.Postal,
		Country: input.Country,
		Phone:   input.Phone,
	}
	if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, err
	}
	return &created, nil
}

// FindByIDAndUser loads an address restricted to its owner.
func (r *Repository) FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
