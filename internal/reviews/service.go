package reviews

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/internal/identity"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
	"github.com/mercanlabs/storefront-backend/pkg/pagination"
)

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"rating":    "rating",
	"likes":     "likes",
}

// ListInput carries validated-on-entry listing parameters. Zero Page/Limit
// select the defaults; explicit out-of-range values are rejected.
type ListInput struct {
	Page  int
	Limit int
	Sort  string
	Order string
}

// ListResult is one page of reviews plus the product's aggregate statistics.
type ListResult struct {
	Reviews       []models.Review
	Page          int
	Limit         int
	Total         int64
	TotalPages    int
	AverageRating float64
	// RatingDistribution always carries the keys "1" through "5".
	RatingDistribution map[string]int64
}

// CreateInput is the payload for a new review.
type CreateInput struct {
	Rating  int
	Title   *string
	Comment *string
}

// Service aggregates and records product reviews.
type Service interface {
	List(ctx context.Context, productID int64, input ListInput) (*ListResult, error)
	Create(ctx context.Context, owner identity.Identity, productID int64, input CreateInput) (*models.Review, error)
}

type service struct {
	repo Repository
}

// NewService builds a reviews service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	return &service{repo: repo}, nil
}

// List returns a page of reviews with aggregate statistics. A product with
// no reviews, including a product id that does not exist, yields an empty
// zero-valued result rather than an error.
func (s *service) List(ctx context.Context, productID int64, input ListInput) (*ListResult, error) {
	if productID <= 0 {
		return nil, invalidParameter("productId", "product id must be a positive integer")
	}
	page, limit, orderClause, err := normalizeList(input)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count reviews")
	}

	result := &ListResult{
		Reviews:            []models.Review{},
		Page:               page,
		Limit:              limit,
		Total:              total,
		TotalPages:         pagination.TotalPages(total, limit),
		RatingDistribution: emptyDistribution(),
	}
	if total == 0 {
		return result, nil
	}

	rows, err := s.repo.List(ctx, productID, orderClause, (page-1)*limit, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	result.Reviews = rows

	buckets, err := s.repo.CountByRating(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate ratings")
	}
	var weighted int64
	for rating, count := range buckets {
		if rating >= 1 && rating <= 5 {
			result.RatingDistribution[fmt.Sprintf("%d", rating)] = count
			weighted += int64(rating) * count
		}
	}
	result.AverageRating = float64(weighted) / float64(total)

	return result, nil
}

// Create records a review for an existing product.
func (s *service) Create(ctx context.Context, owner identity.Identity, productID int64, input CreateInput) (*models.Review, error) {
	if !owner.IsUser() || owner.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "a registered account is required")
	}
	if productID <= 0 {
		return nil, invalidParameter("productId", "product id must be a positive integer")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, invalidParameter("rating", "rating must be between 1 and 5")
	}

	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    owner.UserID,
		Rating:    input.Rating,
		Title:     input.Title,
		Comment:   input.Comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "review already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	return review, nil
}

func normalizeList(input ListInput) (page, limit int, orderClause string, err error) {
	page = input.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return 0, 0, "", invalidParameter("page", "page must be at least 1")
	}

	limit = input.Limit
	if limit == 0 {
		limit = pagination.DefaultLimit
	}
	if limit < 1 || limit > pagination.MaxLimit {
		return 0, 0, "", invalidParameter("limit", fmt.Sprintf("limit must be between 1 and %d", pagination.MaxLimit))
	}

	sort := input.Sort
	if sort == "" {
		sort = "createdAt"
	}
	column, ok := sortColumns[sort]
	if !ok {
		return 0, 0, "", invalidParameter("sort", "sort must be one of createdAt, rating, likes")
	}

	order := input.Order
	if order == "" {
		order = "desc"
	}
	if order != "asc" && order != "desc" {
		return 0, 0, "", invalidParameter("order", "order must be asc or desc")
	}

	return page, limit, fmt.Sprintf("%s %s, id %s", column, order, order), nil
}

func invalidParameter(name, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]any{"parameter": name})
}

func emptyDistribution() map[string]int64 {
	return map[string]int64{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}
}
