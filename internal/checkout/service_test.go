package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
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

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type testStack struct {
	svc  Service
	cart cart.Service
	db   *gorm.DB
}

func newTestStack(t *testing.T) testStack {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.ProductVariant{},
		&models.CartLine{},
		&models.Order{},
		&models.OrderLine{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	runner := gormTxRunner{db: db}
	cartRepo := cart.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)

	cartSvc, err := cart.NewService(cartRepo, runner, catalogRepo)
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	svc, err := NewService(runner, catalogRepo, cartRepo, address.NewRepository(db), orders.NewRepository(db))
	if err != nil {
		t.Fatalf("new checkout service: %v", err)
	}
	return testStack{svc: svc, cart: cartSvc, db: db}
}

func seedVariant(t *testing.T, db *gorm.DB, basePrice, delta string, stock int) int64 {
	t.Helper()
	product := models.Product{
		Title:       "Field Jacket",
		Description: "Waxed cotton jacket",
		ImageURL:    "https://cdn.example.com/jacket.jpg",
		Price:       decimal.RequireFromString(basePrice),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.ProductVariant{
		ProductID:  product.ID,
		Attribute:  "size",
		Value:      "m",
		Stock:      stock,
		PriceDelta: decimal.RequireFromString(delta),
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant.ID
}

func shipping() address.Input {
	return address.Input{
		Label:   "home",
		Line1:   "4 Rua Nova",
		City:    "Lisbon",
		Postal:  "1100-101",
		Country: "PT",
	}
}

func variantStock(t *testing.T, db *gorm.DB, variantID int64) int {
	t.Helper()
	var variant models.ProductVariant
	if err := db.First(&variant, "id = ?", variantID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	return variant.Stock
}

func TestPlaceOrderTotalAndSnapshot(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	ctx := context.Background()
	owner := identity.User(1)
	variantID := seedVariant(t, stack.db, "99.95", "10.00", 10)

	order, err := stack.svc.PlaceOrder(ctx, owner, PlaceOrderInput{
		Items:    []ItemInput{{VariantID: variantID, Qty: 3}},
		Shipping: shipping(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if !order.Total.Equal(decimal.RequireFromString("329.85")) {
		t.Fatalf("expected total 329.85, got %s", order.Total)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.PaymentMethod != "card" {
		t.Fatalf("expected default payment method, got %q", order.PaymentMethod)
	}
	if len(order.Lines) != 1 || !order.Lines[0].UnitPrice.Equal(decimal.RequireFromString("109.95")) {
		t.Fatalf("unexpected lines %+v", order.Lines)
	}
	if got := variantStock(t, stack.db, variantID); got != 7 {
		t.Fatalf("expected stock 7 after checkout, got %d", got)
	}

	// the snapshot must survive later catalog price changes
	if err := stack.db.Model(&models.Product{}).Where("1 = 1").Update("price", decimal.RequireFromString("1.00")).Error; err != nil {
		t.Fatalf("reprice product: %v", err)
	}
	var line models.OrderLine
	if err := stack.db.First(&line, "order_id = ?", order.ID).Error; err != nil {
		t.Fatalf("load line: %v", err)
	}
	if !line.UnitPrice.Equal(decimal.RequireFromString("109.95")) {
		t.Fatalf("snapshot price changed: %s", line.UnitPrice)
	}
}

func TestPlaceOrderRejectsEmptyItems(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	_, err := stack.svc.PlaceOrder(context.Background(), identity.User(1), PlaceOrderInput{Shipping: shipping()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlaceOrderNamesMissingVariant(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	ctx := context.Background()
	variantID := seedVariant(t, stack.db, "10.00", "0.00", 5)

	_, err := stack.svc.PlaceOrder(ctx, identity.User(1), PlaceOrderInput{
		Items: []ItemInput{
			{VariantID: variantID, Qty: 1},
			{VariantID: 424242, Qty: 1},
		},
		Shipping: shipping(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["variantId"] != "424242" {
		t.Fatalf("expected offending variant in details, got %+v", typed.Details())
	}

	// validation happens before any mutation
	if got := variantStock(t, stack.db, variantID); got != 5 {
		t.Fatalf("stock must be untouched, got %d", got)
	}
	var count int64
	if err := stack.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orders written, got %d", count)
	}
}

func TestPlaceOrderAllOrNothingOnStock(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	ctx := context.Background()
	plenty := seedVariant(t, stack.db, "10.00", "0.00", 100)
	scarce := seedVariant(t, stack.db, "10.00", "0.00", 1)

	_, err := stack.svc.PlaceOrder(ctx, identity.User(1), PlaceOrderInput{
		Items: []ItemInput{
			{VariantID: plenty, Qty: 5},
			{VariantID: scarce, Qty: 2},
		},
		Shipping: shipping(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	if got := variantStock(t, stack.db, plenty); got != 100 {
		t.Fatalf("expected plentiful stock untouched, got %d", got)
	}
	if got := variantStock(t, stack.db, scarce); got != 1 {
		t.Fatalf("expected scarce stock untouched, got %d", got)
	}
}

func TestPlaceOrderMergesDuplicateItems(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	ctx := context.Background()
	variantID := seedVariant(t, stack.db, "5.00", "0.00", 4)

	_, err := stack.svc.PlaceOrder(ctx, identity.User(1), PlaceOrderInput{
		Items: []ItemInput{
			{VariantID: variantID, Qty: 3},
			{VariantID: variantID, Qty: 3},
		},
		Shipping: shipping(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected cumulative stock rejection, got %v", err)
	}
}

func TestPlaceOrderReusesAddress(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	ctx := context.Background()
	owner := identity.User(1)
	variantID := seedVariant(t, stack.db, "10.00", "0.00", 50)

	for i := 0; i < 2; i++ {
		if _, err := stack.svc.PlaceOrder(ctx, owner, PlaceOrderInput{
			Items:    []ItemInput{{VariantID: variantID, Qty: 1}},
			Shipping: shipping(),
		}); err != nil {
			t.Fatalf("place order: %v", err)
		}
	}

	var count int64
	if err := stack.db.Model(&models.Address{}).Count(&count).Error; err != nil {
		t.Fatalf("count addresses: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one deduplicated address, got %d", count)
	}
}

func TestPlaceOrderRequiresUser(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	_, err := stack.svc.PlaceOrder(context.Background(), identity.Guest(uuid.NewString()), PlaceOrderInput{
		Items:    []ItemInput{{VariantID: 1, Qty: 1}},
		Shipping: shipping(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for guest, got %v", err)
	}
}

func TestPlaceOrderFromCartClearsCart(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	ctx := context.Background()
	owner := identity.User(1)
	variantID := seedVariant(t, stack.db, "20.00", "2.50", 10)

	if _, err := stack.cart.AddLine(ctx, owner, variantID, 2); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	addr, err := address.NewRepository(stack.db).Resolve(ctx, owner.UserID, shipping())
	if err != nil {
		t.Fatalf("seed address: %v", err)
	}

	order, err := stack.svc.PlaceOrderFromCart(ctx, owner, FromCartInput{AddressID: addr.ID})
	if err != nil {
		t.Fatalf("place from cart: %v", err)
	}
	if !order.Total.Equal(decimal.RequireFromString("45.00")) {
		t.Fatalf("expected total 45.00, got %s", order.Total)
	}

	lines, err := stack.cart.ListLines(ctx, owner)
	if err != nil {
		t.Fatalf("list cart: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected cart cleared, got %d lines", len(lines))
	}
	if got := variantStock(t, stack.db, variantID); got != 8 {
		t.Fatalf("expected stock 8, got %d", got)
	}
}

func TestPlaceOrderFromCartFailureKeepsCart(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	ctx := context.Background()
	owner := identity.User(1)
	variantID := seedVariant(t, stack.db, "20.00", "0.00", 10)

	if _, err := stack.cart.AddLine(ctx, owner, variantID, 2); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	// unknown address aborts the checkout before any mutation
	_, err := stack.svc.PlaceOrderFromCart(ctx, owner, FromCartInput{AddressID: 424242})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for address, got %v", err)
	}

	lines, err := stack.cart.ListLines(ctx, owner)
	if err != nil {
		t.Fatalf("list cart: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected cart kept after failure, got %d lines", len(lines))
	}
}

func TestPlaceOrderFromCartRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	ctx := context.Background()
	owner := identity.User(1)

	addr, err := address.NewRepository(stack.db).Resolve(ctx, owner.UserID, shipping())
	if err != nil {
		t.Fatalf("seed address: %v", err)
	}

	_, err = stack.svc.PlaceOrderFromCart(ctx, owner, FromCartInput{AddressID: addr.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
}
