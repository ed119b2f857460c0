package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/internal/identity"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:reviews_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Review{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	product := models.Product{
		Title:       "Enamel Mug",
		Description: "350ml camping mug",
		ImageURL:    "https://cdn.example.com/mug.jpg",
		Price:       decimal.NewFromFloat(14.90),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func seedUser(t *testing.T, db *gorm.DB, email string) int64 {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func seedReview(t *testing.T, db *gorm.DB, productID, userID int64, rating, likes int) {
	t.Helper()
	review := models.Review{ProductID: productID, UserID: userID, Rating: rating, Likes: likes}
	if err := db.Create(&review).Error; err != nil {
		t.Fatalf("seed review: %v", err)
	}
}

func TestListAggregatesRatings(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db)
	userID := seedUser(t, db, "reviewer@example.com")

	for _, rating := range []int{5, 5, 4, 2} {
		seedReview(t, db, productID, userID, rating, 0)
	}

	result, err := svc.List(ctx, productID, ListInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 4 {
		t.Fatalf("expected total 4, got %d", result.Total)
	}
	if result.TotalPages != 1 {
		t.Fatalf("expected one page, got %d", result.TotalPages)
	}
	if result.AverageRating != 4.0 {
		t.Fatalf("expected mean 4.0, got %f", result.AverageRating)
	}

	want := map[string]int64{"1": 0, "2": 1, "3": 0, "4": 1, "5": 2}
	for key, count := range want {
		if result.RatingDistribution[key] != count {
			t.Fatalf("expected %s=%d, got %d", key, count, result.RatingDistribution[key])
		}
	}
	if len(result.RatingDistribution) != 5 {
		t.Fatalf("histogram must carry all five keys, got %+v", result.RatingDistribution)
	}
}

func TestListPagination(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db)
	userID := seedUser(t, db, "pager@example.com")

	for i := 0; i < 7; i++ {
		seedReview(t, db, productID, userID, 3, i)
	}

	result, err := svc.List(ctx, productID, ListInput{Page: 2, Limit: 3, Sort: "likes", Order: "asc"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.TotalPages != 3 {
		t.Fatalf("expected ceil(7/3)=3 pages, got %d", result.TotalPages)
	}
	if len(result.Reviews) != 3 {
		t.Fatalf("expected 3 reviews on page 2, got %d", len(result.Reviews))
	}
	if result.Reviews[0].Likes != 3 {
		t.Fatalf("expected ascending likes offset, got %d", result.Reviews[0].Likes)
	}
}

func TestListUnknownProductIsEmptyNotError(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	result, err := svc.List(context.Background(), 424242, ListInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 0 || len(result.Reviews) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if result.AverageRating != 0 {
		t.Fatalf("mean of empty set must be 0, got %f", result.AverageRating)
	}
	if len(result.RatingDistribution) != 5 {
		t.Fatalf("histogram must still carry all keys, got %+v", result.RatingDistribution)
	}
}

func TestListValidationNamesParameter(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db)

	cases := []struct {
		name  string
		input ListInput
		param string
	}{
		{"negative page", ListInput{Page: -1}, "page"},
		{"zero limit explicit", ListInput{Limit: -5}, "limit"},
		{"limit too large", ListInput{Limit: 500}, "limit"},
		{"bad sort", ListInput{Sort: "price"}, "sort"},
		{"bad order", ListInput{Order: "sideways"}, "order"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.List(ctx, productID, tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			details, ok := typed.Details().(map[string]any)
			if !ok || details["parameter"] != tc.param {
				t.Fatalf("expected parameter %q named, got %+v", tc.param, typed.Details())
			}
		})
	}
}

func TestCreateReview(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db)
	userID := seedUser(t, db, "author@example.com")

	title := "Solid mug"
	review, err := svc.Create(ctx, identity.User(userID), productID, CreateInput{Rating: 4, Title: &title})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if review.ID == 0 || review.Rating != 4 {
		t.Fatalf("unexpected review %+v", review)
	}

	_, err = svc.Create(ctx, identity.User(userID), 424242, CreateInput{Rating: 4})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}

	_, err = svc.Create(ctx, identity.User(userID), productID, CreateInput{Rating: 6})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for rating, got %v", err)
	}

	_, err = svc.Create(ctx, identity.Guest(uuid.NewString()), productID, CreateInput{Rating: 4})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for guest, got %v", err)
	}
}
