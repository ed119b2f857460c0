package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/internal/identity"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	"github.com/mercanlabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.Address{},
		&models.Order{},
		&models.OrderLine{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func seedOrder(t *testing.T, db *gorm.DB, userID int64, total string) *models.Order {
	t.Helper()
	addr := models.Address{
		UserID:  userID,
		Label:   "home",
		Line1:   "1 Main St",
		City:    "Lisbon",
		Postal:  "1100-101",
		Country: "PT",
	}
	if err := db.Create(&addr).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	order := models.Order{
		UserID:        userID,
		AddressID:     addr.ID,
		Total:         decimal.RequireFromString(total),
		Status:        enums.OrderStatusPending,
		PaymentMethod: "card",
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return &order
}

func TestGetOrderScopesByOwner(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	order := seedOrder(t, db, 1, "99.95")

	got, err := svc.GetOrder(ctx, identity.User(1), order.ID)
	if err != nil {
		t.Fatalf("get own order: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("unexpected order %d", got.ID)
	}

	// a foreign order must read as not found, never forbidden
	_, err = svc.GetOrder(ctx, identity.User(2), order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}

	_, err = svc.GetOrder(ctx, identity.User(1), 424242)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing order, got %v", err)
	}
}

func TestGetOrderRequiresUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetOrder(ctx, identity.Guest(uuid.NewString()), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for guest, got %v", err)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	first := seedOrder(t, db, 7, "10.00")
	second := seedOrder(t, db, 7, "20.00")
	seedOrder(t, db, 8, "30.00")

	rows, err := svc.ListOrders(ctx, identity.User(7))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected two orders, got %d", len(rows))
	}
	if rows[0].ID != second.ID || rows[1].ID != first.ID {
		t.Fatalf("expected newest first, got %d then %d", rows[0].ID, rows[1].ID)
	}

	empty, err := svc.ListOrders(ctx, identity.User(99))
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty history, got %d", len(empty))
	}
}
