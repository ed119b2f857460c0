package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/internal/identity"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
)

// Service exposes read access to a caller's order history.
type Service interface {
	GetOrder(ctx context.Context, owner identity.Identity, orderID int64) (*models.Order, error)
	ListOrders(ctx context.Context, owner identity.Identity) ([]models.Order, error)
}

type service struct {
	repo Repository
}

// NewService builds an orders service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// GetOrder returns one of the caller's orders. An order owned by another
// user reads exactly like a missing one.
func (s *service) GetOrder(ctx context.Context, owner identity.Identity, orderID int64) (*models.Order, error) {
	userID, err := requireUser(owner)
	if err != nil {
		return nil, err
	}
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a positive integer")
	}

	order, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// ListOrders returns the caller's orders, newest first.
func (s *service) ListOrders(ctx context.Context, owner identity.Identity) ([]models.Order, error) {
	userID, err := requireUser(owner)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	if rows == nil {
		rows = []models.Order{}
	}
	return rows, nil
}

func requireUser(owner identity.Identity) (int64, error) {
	if !owner.IsUser() || owner.UserID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "a registered account is required")
	}
	return owner.UserID, nil
}
