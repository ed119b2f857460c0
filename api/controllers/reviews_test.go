package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mercanlabs/storefront-backend/internal/identity"
	reviewsvc "github.com/mercanlabs/storefront-backend/internal/reviews"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
)

type stubReviewsService struct {
	result *reviewsvc.ListResult
	review *models.Review
	err    error

	gotInput reviewsvc.ListInput
}

func (s *stubReviewsService) List(ctx context.Context, productID int64, input reviewsvc.ListInput) (*reviewsvc.ListResult, error) {
	s.gotInput = input
	return s.result, s.err
}

func (s *stubReviewsService) Create(ctx context.Context, owner identity.Identity, productID int64, input reviewsvc.CreateInput) (*models.Review, error) {
	return s.review, s.err
}

func reviewRouteContext(ctx context.Context, productID string) context.Context {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", productID)
	return context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
}

func TestListReviewsRendersStatistics(t *testing.T) {
	svc := &stubReviewsService{result: &reviewsvc.ListResult{
		Reviews:       []models.Review{{ID: 1, ProductID: 9, Rating: 5}},
		Page:          2,
		Limit:         3,
		Total:         7,
		TotalPages:    3,
		AverageRating: 4.0,
		RatingDistribution: map[string]int64{
			"1": 0, "2": 1, "3": 0, "4": 1, "5": 2,
		},
	}}
	handler := ListReviews(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/9/reviews?page=2&limit=3&sort=rating&order=asc", nil)
	req = req.WithContext(reviewRouteContext(req.Context(), "9"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	if svc.gotInput.Page != 2 || svc.gotInput.Limit != 3 || svc.gotInput.Sort != "rating" || svc.gotInput.Order != "asc" {
		t.Fatalf("unexpected list input: %+v", svc.gotInput)
	}

	var envelope struct {
		Data reviewListResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AverageRating != 4.0 {
		t.Fatalf("unexpected average: %f", envelope.Data.AverageRating)
	}
	if len(envelope.Data.RatingDistribution) != 5 {
		t.Fatalf("expected 5 histogram buckets, got %d", len(envelope.Data.RatingDistribution))
	}
}

func TestListReviewsRendersImagesAndTimestamps(t *testing.T) {
	edited := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc := &stubReviewsService{result: &reviewsvc.ListResult{
		Reviews: []models.Review{
			{ID: 1, ProductID: 9, Rating: 5, Images: []string{"unboxing.jpg", "in-use.jpg"}, UpdatedAt: edited},
			{ID: 2, ProductID: 9, Rating: 3},
		},
		RatingDistribution: map[string]int64{"1": 0, "2": 0, "3": 1, "4": 0, "5": 1},
	}}
	handler := ListReviews(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/9/reviews", nil)
	req = req.WithContext(reviewRouteContext(req.Context(), "9"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var envelope struct {
		Data reviewListResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Reviews) != 2 {
		t.Fatalf("expected 2 reviews got %d", len(envelope.Data.Reviews))
	}
	first := envelope.Data.Reviews[0]
	if len(first.Images) != 2 || first.Images[0] != "unboxing.jpg" {
		t.Fatalf("unexpected images: %v", first.Images)
	}
	if !first.UpdatedAt.Equal(edited) {
		t.Fatalf("unexpected updatedAt: %s", first.UpdatedAt)
	}
	if second := envelope.Data.Reviews[1]; second.Images == nil || len(second.Images) != 0 {
		t.Fatalf("expected an empty images list, got %v", second.Images)
	}
}

func TestListReviewsRejectsBadProductID(t *testing.T) {
	handler := ListReviews(&stubReviewsService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/abc/reviews", nil)
	req = req.WithContext(reviewRouteContext(req.Context(), "abc"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	var payload struct {
		Error struct {
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Error.Details["parameter"] != "productId" {
		t.Fatalf("expected parameter detail, got %+v", payload.Error.Details)
	}
}

func TestCreateReviewRequiresAuth(t *testing.T) {
	handler := CreateReview(&stubReviewsService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/products/9/reviews", strings.NewReader(`{"rating":5}`))
	req = req.WithContext(reviewRouteContext(req.Context(), "9"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCreateReviewSuccess(t *testing.T) {
	svc := &stubReviewsService{review: &models.Review{ID: 4, ProductID: 9, Rating: 5}}
	handler := CreateReview(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/products/9/reviews", strings.NewReader(`{"rating":5,"title":"Great"}`))
	ctx := reviewRouteContext(authedContext(identity.User(42)), "9")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateReviewUnknownProduct(t *testing.T) {
	svc := &stubReviewsService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	handler := CreateReview(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/products/404/reviews", strings.NewReader(`{"rating":5}`))
	ctx := reviewRouteContext(authedContext(identity.User(42)), "404")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

var _ reviewsvc.Service = (*stubReviewsService)(nil)
