package controllers

import (
	"net/http"
	"time"

	"github.com/mercanlabs/storefront-backend/api/responses"
	"github.com/mercanlabs/storefront-backend/api/validators"
	reviewsvc "github.com/mercanlabs/storefront-backend/internal/reviews"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
	"github.com/mercanlabs/storefront-backend/pkg/logger"
)

// ListReviews returns a page of reviews for a product together with its
// aggregate rating statistics. Public, no auth required.
func ListReviews(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), productID, reviewsvc.ListInput{
			Page:  page,
			Limit: limit,
			Sort:  validators.QueryString(r, "sort", ""),
			Order: validators.QueryString(r, "order", ""),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReviewListResponse(result))
	}
}

// CreateReview records a review for a product. Requires a registered user.
func CreateReview(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Create(r.Context(), caller, productID, reviewsvc.CreateInput{
			Rating:  payload.Rating,
			Title:   payload.Title,
			Comment: payload.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newReviewResponse(review))
	}
}

type createReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

type reviewResponse struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	Rating     int       `json:"rating"`
	Title      *string   `json:"title,omitempty"`
	Comment    *string   `json:"comment,omitempty"`
	Images     []string  `json:"images"`
	Likes      int       `json:"likes"`
	Dislikes   int       `json:"dislikes"`
	IsVerified bool      `json:"isVerified"`
	Author     *string   `json:"author,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type reviewListResponse struct {
	Reviews            []reviewResponse `json:"reviews"`
	Page               int              `json:"page"`
	Limit              int              `json:"limit"`
	Total              int64            `json:"total"`
	TotalPages         int              `json:"totalPages"`
	AverageRating      float64          `json:"averageRating"`
	RatingDistribution map[string]int64 `json:"ratingDistribution"`
}

func newReviewResponse(review *models.Review) reviewResponse {
	resp := reviewResponse{
		ID:         formatID(review.ID),
		ProductID:  formatID(review.ProductID),
		Rating:     review.Rating,
		Title:      review.Title,
		Comment:    review.Comment,
		Images:     review.Images,
		Likes:      review.Likes,
		Dislikes:   review.Dislikes,
		IsVerified: review.IsVerified,
		CreatedAt:  review.CreatedAt,
		UpdatedAt:  review.UpdatedAt,
	}
	if review.Images == nil {
		resp.Images = []string{}
	}
	if review.User != nil {
		resp.Author = review.User.Name
	}
	return resp
}

func newReviewListResponse(result *reviewsvc.ListResult) reviewListResponse {
	items := make([]reviewResponse, 0, len(result.Reviews))
	for i := range result.Reviews {
		items = append(items, newReviewResponse(&result.Reviews[i]))
	}
	return reviewListResponse{
		Reviews:            items,
		Page:               result.Page,
		Limit:              result.Limit,
		Total:              result.Total,
		TotalPages:         result.TotalPages,
		AverageRating:      result.AverageRating,
		RatingDistribution: result.RatingDistribution,
	}
}
