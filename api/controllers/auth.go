package controllers

import (
	"net/http"
	"time"

	"github.com/mercanlabs/storefront-backend/api/responses"
	"github.com/mercanlabs/storefront-backend/api/validators"
	"github.com/mercanlabs/storefront-backend/internal/address"
	usersvc "github.com/mercanlabs/storefront-backend/internal/users"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
	"github.com/mercanlabs/storefront-backend/pkg/logger"
)

// Register creates an account and returns a minted access token.
func Register(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAuthResponse(result))
	}
}

// Login verifies credentials and returns a minted access token.
func Login(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAuthResponse(result))
	}
}

// GuestSession mints an anonymous guest token. No body is required.
func GuestSession(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		result, err := svc.MintGuest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, guestSessionResponse{
			Token:     result.Token,
			GuestID:   result.GuestID,
			ExpiresIn: int64(result.ExpiresIn.Seconds()),
		})
	}
}

type registerRequest struct {
	Email    string                  `json:"email" validate:"required,email"`
	Password string                  `json:"password" validate:"required,min=8"`
	Name     *string                 `json:"name"`
	Phone    *string                 `json:"phone"`
	Address  *registerAddressPayload `json:"address"`
}

type registerAddressPayload struct {
	Label   string  `json:"label" validate:"required"`
	Line1   string  `json:"line1" validate:"required"`
	Line2   *string `json:"line2"`
	City    string  `json:"city" validate:"required"`
	Postal  string  `json:"postal" validate:"required"`
	Country string  `json:"country" validate:"required"`
	Phone   *string `json:"phone"`
}

func (p registerAddressPayload) toInput() address.Input {
	return address.Input{
		Label:   p.Label,
		Line1:   p.Line1,
		Line2:   p.Line2,
		City:    p.City,
		Postal:  p.Postal,
		Country: p.Country,
		Phone:   p.Phone,
	}
}

func (r registerRequest) toInput() usersvc.RegisterInput {
	input := usersvc.RegisterInput{
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
		Phone:    r.Phone,
	}
	if r.Address != nil {
		addr := r.Address.toInput()
		input.Address = &addr
	}
	return input
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type guestSessionResponse struct {
	Token     string `json:"token"`
	GuestID   string `json:"guestId"`
	ExpiresIn int64  `json:"expiresIn"`
}

func newAuthResponse(result *usersvc.AuthResult) authResponse {
	return authResponse{
		Token: result.Token,
		User:  newUserResponse(result.User),
	}
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:        formatID(user.ID),
		Email:     user.Email,
		Name:      user.Name,
		Phone:     user.Phone,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
	}
}
