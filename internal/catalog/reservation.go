package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
)

// ReservationRequest asks for qty units of one variant.
type ReservationRequest struct {
	VariantID int64
	Qty       int
}

// ReservationResult reports the outcome for one request.
type ReservationResult struct {
	VariantID int64
	Reserved  bool
	Reason    string
}

// ReserveStock decrements stock for each request with a single conditional
// UPDATE per variant. A request only succeeds when the variant has enough
// stock at the moment of the update, so concurrent checkouts cannot jointly
// oversell. Callers run this inside a transaction and roll back when any
// request was not reserved.
func ReserveStock(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reservation requires a db handle")
	}

	results := make([]ReservationResult, 0, len(requests))
	for _, req := range requests {
		if req.VariantID <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
		}
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation qty must be positive")
		}

		res := tx.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("id = ? AND stock >= ?", req.VariantID, req.Qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", req.Qty))
		if res.Error != nil {
			return nil, res.Error
		}

		result := ReservationResult{VariantID: req.VariantID, Reserved: res.RowsAffected > 0}
		if !result.Reserved {
			reason, err := failureReason(ctx, tx, req)
			if err != nil {
				return nil, err
			}
			result.Reason = reason
		}
		results = append(results, result)
	}
	return results, nil
}

func failureReason(ctx context.Context, tx *gorm.DB, req ReservationRequest) (string, error) {
	var variant models.ProductVariant
	err := tx.WithContext(ctx).
		Select("id", "stock").
		First(&variant, "id = ?", req.VariantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "variant not found", nil
		}
		return "", err
	}
	return fmt.Sprintf("insufficient stock: %d available, %d requested", variant.Stock, req.Qty), nil
}
