package controllers

import (
	"net/http"
	"time"

	"github.com/mercanlabs/storefront-backend/api/responses"
	"github.com/mercanlabs/storefront-backend/api/validators"
	cartsvc "github.com/mercanlabs/storefront-backend/internal/cart"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
	"github.com/mercanlabs/storefront-backend/pkg/logger"
)

// CartAddItem adds a variant to the caller's cart, merging into an
// existing line for the same variant.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.AddLine(r.Context(), caller, payload.VariantID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartLineResponse(line))
	}
}

// CartList returns every line in the caller's cart with a computed total.
func CartList(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.ListLines(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(lines))
	}
}

// CartUpdateItem replaces the quantity of one cart line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID, err := validators.ParsePathID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.UpdateQuantity(r.Context(), caller, lineID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartLineResponse(line))
	}
}

// CartRemoveItem deletes one line. A second delete of the same line is
// not-found.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID, err := validators.ParsePathID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveLine(r.Context(), caller, lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}

// CartClear empties the caller's cart. Clearing an empty cart succeeds.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), caller); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}

type addCartItemRequest struct {
	VariantID int64 `json:"variantId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type cartLineResponse struct {
	ID        string               `json:"id"`
	VariantID string               `json:"variantId"`
	Quantity  int                  `json:"quantity"`
	UnitPrice string               `json:"unitPrice"`
	LineTotal string               `json:"lineTotal"`
	Variant   *cartVariantResponse `json:"variant,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

type cartVariantResponse struct {
	ID        string               `json:"id"`
	ProductID string               `json:"productId"`
	Title     string               `json:"title,omitempty"`
	Attribute string               `json:"attribute"`
	Value     string               `json:"value"`
	Stock     int                  `json:"stock"`
	Product   *cartProductResponse `json:"product,omitempty"`
}

type cartProductResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Price       string `json:"price"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total string             `json:"total"`
}

func newCartLineResponse(line *models.CartLine) cartLineResponse {
	unit := line.Variant.UnitPrice()
	resp := cartLineResponse{
		ID:        formatID(line.ID),
		VariantID: formatID(line.VariantID),
		Quantity:  line.Quantity,
		UnitPrice: formatMoney(unit),
		LineTotal: formatMoney(unit.Mul(decimalFromInt(line.Quantity))),
		CreatedAt: line.CreatedAt,
		UpdatedAt: line.UpdatedAt,
	}
	if line.Variant.ID != 0 {
		variant := cartVariantResponse{
			ID:        formatID(line.Variant.ID),
			ProductID: formatID(line.Variant.ProductID),
			Attribute: line.Variant.Attribute,
			Value:     line.Variant.Value,
			Stock:     line.Variant.Stock,
		}
		if line.Variant.Product != nil {
			variant.Title = line.Variant.Product.Title
			variant.Product = &cartProductResponse{
				ID:          formatID(line.Variant.Product.ID),
				Title:       line.Variant.Product.Title,
				Description: line.Variant.Product.Description,
				ImageURL:    line.Variant.Product.ImageURL,
				Price:       formatMoney(line.Variant.Product.Price),
			}
		}
		resp.Variant = &variant
	}
	return resp
}

func newCartResponse(lines []models.CartLine) cartResponse {
	items := make([]cartLineResponse, 0, len(lines))
	total := zeroMoney()
	for i := range lines {
		item := newCartLineResponse(&lines[i])
		items = append(items, item)
		total = total.Add(lines[i].Variant.UnitPrice().Mul(decimalFromInt(lines[i].Quantity)))
	}
	return cartResponse{Items: items, Total: formatMoney(total)}
}
