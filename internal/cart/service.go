package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/internal/catalog"
	"github.com/mercanlabs/storefront-backend/internal/identity"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type variantLoader interface {
	WithTx(tx *gorm.DB) catalog.VariantRepository
	FindVariant(ctx context.Context, id int64) (*models.ProductVariant, error)
}

// Service exposes cart operations scoped to a caller identity.
type Service interface {
	AddLine(ctx context.Context, owner identity.Identity, variantID int64, qty int) (*models.CartLine, error)
	ListLines(ctx context.Context, owner identity.Identity) ([]models.CartLine, error)
	UpdateQuantity(ctx context.Context, owner identity.Identity, lineID int64, qty int) (*models.CartLine, error)
	RemoveLine(ctx context.Context, owner identity.Identity, lineID int64) error
	Clear(ctx context.Context, owner identity.Identity) error
}

type service struct {
	repo     LineRepository
	tx       txRunner
	variants variantLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo LineRepository, tx txRunner, variants variantLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant loader required")
	}
	return &service{repo: repo, tx: tx, variants: variants}, nil
}

// AddLine adds qty units of a variant to the owner's cart, merging into the
// existing line for that variant when one exists. The stock check is
// cumulative: existing line quantity plus the requested quantity must fit
// within current stock.
func (s *service) AddLine(ctx context.Context, owner identity.Identity, variantID int64, qty int) (*models.CartLine, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	var saved *models.CartLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		variant, err := s.variants.WithTx(tx).FindVariant(ctx, variantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}

		line, err := txRepo.FindByVariant(ctx, owner, variantID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		existingQty := 0
		if line != nil {
			existingQty = line.Quantity
		}
		if existingQty+qty > variant.Stock {
			return insufficientStock(variantID, variant.Stock, existingQty+qty)
		}

		if line != nil {
			line.Quantity = existingQty + qty
			if err := txRepo.Save(ctx, line); err != nil {
				return err
			}
			saved = line
			return nil
		}

		line = &models.CartLine{VariantID: variantID, Quantity: qty}
		stampOwner(line, owner)
		if err := txRepo.Create(ctx, line); err != nil {
			return err
		}
		saved, err = txRepo.FindByID(ctx, owner, line.ID)
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart line")
	}
	return saved, nil
}

// ListLines returns the owner's cart. An empty cart is an empty slice.
func (s *service) ListLines(ctx context.Context, owner identity.Identity) ([]models.CartLine, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}
	if rows == nil {
		rows = []models.CartLine{}
	}
	return rows, nil
}

// UpdateQuantity replaces a line's quantity. A line that does not exist or
// belongs to another owner is reported as not found.
func (s *service) UpdateQuantity(ctx context.Context, owner identity.Identity, lineID int64, qty int) (*models.CartLine, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	var saved *models.CartLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		line, err := txRepo.FindByID(ctx, owner, lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}

		variant, err := s.variants.WithTx(tx).FindVariant(ctx, line.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		if qty > variant.Stock {
			return insufficientStock(line.VariantID, variant.Stock, qty)
		}

		line.Quantity = qty
		if err := txRepo.Save(ctx, line); err != nil {
			return err
		}
		saved = line
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return saved, nil
}

// RemoveLine deletes one line. Removing the same line twice fails the
// second time with not-found.
func (s *service) RemoveLine(ctx context.Context, owner identity.Identity, lineID int64) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	affected, err := s.repo.DeleteByID(ctx, owner, lineID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

// Clear empties the owner's cart. Clearing an empty cart succeeds.
func (s *service) Clear(ctx context.Context, owner identity.Identity) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	if err := s.repo.DeleteAll(ctx, owner); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func requireOwner(owner identity.Identity) error {
	if !owner.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity is required")
	}
	return nil
}

func stampOwner(line *models.CartLine, owner identity.Identity) {
	if owner.IsGuest() {
		guestID := owner.GuestID
		line.GuestID = &guestID
		return
	}
	userID := owner.UserID
	line.UserID = &userID
}

func insufficientStock(variantID int64, available, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for variant").
		WithDetails(map[string]any{
			"variantId": fmt.Sprintf("%d", variantID),
			"available": available,
			"requested": requested,
		})
}
