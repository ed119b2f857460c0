package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/internal/address"
	"github.com/mercanlabs/storefront-backend/internal/cart"
	"github.com/mercanlabs/storefront-backend/internal/catalog"
	"github.com/mercanlabs/storefront-backend/internal/identity"
	"github.com/mercanlabs/storefront-backend/internal/orders"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	"github.com/mercanlabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
)

const defaultPaymentMethod = "card"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type variantLoader interface {
	WithTx(tx *gorm.DB) catalog.VariantRepository
}

type cartLines interface {
	WithTx(tx *gorm.DB) cart.LineRepository
}

// ItemInput is one requested line of an explicit order.
type ItemInput struct {
	VariantID int64
	Qty       int
}

// PlaceOrderInput is the explicit checkout payload. It is authoritative and
// never touches the persisted cart.
type PlaceOrderInput struct {
	Items         []ItemInput
	Shipping      address.Input
	PaymentMethod string
}

// FromCartInput sources the order from the caller's live cart.
type FromCartInput struct {
	AddressID     int64
	PaymentMethod string
}

// Service turns validated line items into immutable orders.
type Service interface {
	PlaceOrder(ctx context.Context, owner identity.Identity, input PlaceOrderInput) (*models.Order, error)
	PlaceOrderFromCart(ctx context.Context, owner identity.Identity, input FromCartInput) (*models.Order, error)
}

type service struct {
	tx        txRunner
	variants  variantLoader
	cartRepo  cartLines
	addresses address.Resolver
	orders    orders.Repository
}

// NewService builds a checkout service backed by the provided stack.
func NewService(tx txRunner, variants variantLoader, cartRepo cartLines, addresses address.Resolver, ordersRepo orders.Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant loader required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address resolver required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{
		tx:        tx,
		variants:  variants,
		cartRepo:  cartRepo,
		addresses: addresses,
		orders:    ordersRepo,
	}, nil
}

// PlaceOrder validates every requested line, resolves the shipping address,
// snapshots unit prices and commits the order header, its lines and the
// stock decrements in one transaction. Nothing is written when any line
// fails validation.
func (s *service) PlaceOrder(ctx context.Context, owner identity.Identity, input PlaceOrderInput) (*models.Order, error) {
	userID, err := requireUser(owner)
	if err != nil {
		return nil, err
	}
	items, err := normalizeItems(input.Items)
	if err != nil {
		return nil, err
	}

	var placed *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		addr, err := s.addresses.WithTx(tx).Resolve(ctx, userID, input.Shipping)
		if err != nil {
			return err
		}

		placed, err = s.placeItems(ctx, tx, userID, addr.ID, items, paymentMethod(input.PaymentMethod))
		return err
	})
	if err != nil {
		return nil, asCheckoutError(err)
	}
	return placed, nil
}

// PlaceOrderFromCart places an order from the caller's live cart against a
// previously saved address, clearing the cart in the same transaction. A
// failed placement leaves the cart untouched.
func (s *service) PlaceOrderFromCart(ctx context.Context, owner identity.Identity, input FromCartInput) (*models.Order, error) {
	userID, err := requireUser(owner)
	if err != nil {
		return nil, err
	}
	if input.AddressID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id must be a positive integer")
	}

	var placed *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txCart := s.cartRepo.WithTx(tx)

		lines, err := txCart.List(ctx, owner)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		if _, err := s.addresses.WithTx(tx).FindByIDAndUser(ctx, input.AddressID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return err
		}

		items := make([]ItemInput, 0, len(lines))
		for _, line := range lines {
			items = append(items, ItemInput{VariantID: line.VariantID, Qty: line.Quantity})
		}

		placed, err = s.placeItems(ctx, tx, userID, input.AddressID, items, paymentMethod(input.PaymentMethod))
		if err != nil {
			return err
		}

		return txCart.DeleteAll(ctx, owner)
	})
	if err != nil {
		return nil, asCheckoutError(err)
	}
	return placed, nil
}

// placeItems runs the shared placement core inside the caller's transaction:
// resolve variants, validate stock for every line before any mutation,
// reserve, snapshot prices and insert the order.
func (s *service) placeItems(ctx context.Context, tx *gorm.DB, userID, addressID int64, items []ItemInput, payment string) (*models.Order, error) {
	txVariants := s.variants.WithTx(tx)

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.VariantID)
	}
	variants, err := txVariants.FindVariants(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		variant, ok := variants[item.VariantID]
		if !ok {
			return nil, variantNotFound(item.VariantID)
		}
		if item.Qty > variant.Stock {
			return nil, insufficientStock(item.VariantID, variant.Stock, item.Qty)
		}
	}

	requests := make([]catalog.ReservationRequest, 0, len(items))
	orderLines := make([]models.OrderLine, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		variant := variants[item.VariantID]
		unitPrice := variant.UnitPrice().Round(2)
		total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))

		requests = append(requests, catalog.ReservationRequest{VariantID: item.VariantID, Qty: item.Qty})
		orderLines = append(orderLines, models.OrderLine{
			VariantID: item.VariantID,
			Quantity:  item.Qty,
			UnitPrice: unitPrice,
		})
	}

	results, err := catalog.ReserveStock(ctx, tx, requests)
	if err != nil {
		return nil, err
	}
	for i, result := range results {
		if result.Reserved {
			continue
		}
		if result.Reason == "variant not found" {
			return nil, variantNotFound(result.VariantID)
		}
		variant := variants[result.VariantID]
		return nil, insufficientStock(result.VariantID, variant.Stock, requests[i].Qty)
	}

	order := &models.Order{
		UserID:        userID,
		AddressID:     addressID,
		Total:         total.Round(2),
		Status:        enums.OrderStatusPending,
		PaymentMethod: payment,
		Lines:         orderLines,
	}
	if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
		return nil, err
	}

	return s.orders.WithTx(tx).FindByIDAndUser(ctx, order.ID, userID)
}

func normalizeItems(items []ItemInput) ([]ItemInput, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	// collapse duplicate variant ids so stock is validated cumulatively
	index := map[int64]int{}
	merged := make([]ItemInput, 0, len(items))
	for _, item := range items {
		if item.VariantID <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id must be a positive integer")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
		}
		if at, ok := index[item.VariantID]; ok {
			merged[at].Qty += item.Qty
			continue
		}
		index[item.VariantID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func paymentMethod(value string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return defaultPaymentMethod
}

func requireUser(owner identity.Identity) (int64, error) {
	if !owner.IsUser() || owner.UserID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "a registered account is required")
	}
	return owner.UserID, nil
}

func variantNotFound(variantID int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found").
		WithDetails(map[string]any{"variantId": fmt.Sprintf("%d", variantID)})
}

func insufficientStock(variantID int64, available, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for variant").
		WithDetails(map[string]any{
			"variantId": fmt.Sprintf("%d", variantID),
			"available": available,
			"requested": requested,
		})
}

func asCheckoutError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
}
