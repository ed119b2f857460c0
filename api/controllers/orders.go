package controllers

import (
	"net/http"
	"time"

	"github.com/mercanlabs/storefront-backend/api/responses"
	"github.com/mercanlabs/storefront-backend/api/validators"
	checkoutsvc "github.com/mercanlabs/storefront-backend/internal/checkout"
	ordersvc "github.com/mercanlabs/storefront-backend/internal/orders"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
	"github.com/mercanlabs/storefront-backend/pkg/logger"
)

// PlaceOrder handles the explicit checkout shape: the request body carries
// the full item list and shipping address, and the persisted cart is left
// untouched.
func PlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), caller, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// CheckoutCart handles the cart-sourced checkout shape: items come from the
// caller's persisted cart, which is cleared when the order commits.
func CheckoutCart(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrderFromCart(r.Context(), caller, checkoutsvc.FromCartInput{
			AddressID:     payload.AddressID,
			PaymentMethod: payload.Payment.Method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// GetOrder returns one of the caller's orders. Orders belonging to other
// users surface as not-found.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), caller, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// ListOrders returns the caller's order history, newest first.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListOrders(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderResponse, 0, len(orders))
		for i := range orders {
			items = append(items, newOrderResponse(&orders[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

type placeOrderRequest struct {
	Items    []orderItemPayload     `json:"items" validate:"required,dive"`
	Shipping registerAddressPayload `json:"shipping" validate:"required"`
	Payment  paymentPayload         `json:"payment"`
}

type orderItemPayload struct {
	VariantID int64 `json:"variantId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type paymentPayload struct {
	Method string `json:"method"`
}

func (r placeOrderRequest) toInput() checkoutsvc.PlaceOrderInput {
	items := make([]checkoutsvc.ItemInput, len(r.Items))
	for i, payload := range r.Items {
		items[i] = checkoutsvc.ItemInput{VariantID: payload.VariantID, Qty: payload.Quantity}
	}

	return checkoutsvc.PlaceOrderInput{
		Items:         items,
		Shipping:      r.Shipping.toInput(),
		PaymentMethod: r.Payment.Method,
	}
}

type checkoutCartRequest struct {
	AddressID int64          `json:"addressId" validate:"required,gt=0"`
	Payment   paymentPayload `json:"payment"`
}

type orderResponse struct {
	ID            string               `json:"id"`
	Status        string               `json:"status"`
	PaymentMethod string               `json:"paymentMethod"`
	Total         string               `json:"total"`
	Lines         []orderLineResponse  `json:"lines"`
	Address       *userAddressResponse `json:"address,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

type orderLineResponse struct {
	ID        string `json:"id"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
	Title     string `json:"title,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Value     string `json:"value,omitempty"`
}

type userAddressResponse struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Line1   string  `json:"line1"`
	Line2   *string `json:"line2,omitempty"`
	City    string  `json:"city"`
	Postal  string  `json:"postal"`
	Country string  `json:"country"`
	Phone   *string `json:"phone,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		item := orderLineResponse{
			ID:        formatID(line.ID),
			VariantID: formatID(line.VariantID),
			Quantity:  line.Quantity,
			UnitPrice: formatMoney(line.UnitPrice),
			LineTotal: formatMoney(line.UnitPrice.Mul(decimalFromInt(line.Quantity))),
		}
		if line.Variant != nil {
			item.Attribute = line.Variant.Attribute
			item.Value = line.Variant.Value
			if line.Variant.Product != nil {
				item.Title = line.Variant.Product.Title
			}
		}
		lines = append(lines, item)
	}

	resp := orderResponse{
		ID:            formatID(order.ID),
		Status:        string(order.Status),
		PaymentMethod: order.PaymentMethod,
		Total:         formatMoney(order.Total),
		Lines:         lines,
		CreatedAt:     order.CreatedAt,
	}
	if order.Address != nil {
		resp.Address = &userAddressResponse{
			ID:      formatID(order.Address.ID),
			Label:   order.Address.Label,
			Line1:   order.Address.Line1,
			Line2:   order.Address.Line2,
			City:    order.Address.City,
			Postal:  order.Address.Postal,
			Country: order.Address.Country,
			Phone:   order.Address.Phone,
		}
	}
	return resp
}
