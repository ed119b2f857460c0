package controllers

import (
	"net/http"
	"strconv"

	"github.com/mercanlabs/storefront-backend/api/middleware"
	"github.com/mercanlabs/storefront-backend/internal/identity"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Identifiers cross the wire as strings so JavaScript clients never lose
// precision on large int64 values.
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Monetary amounts render as fixed two-decimal strings, e.g. "329.85".
func formatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func zeroMoney() decimal.Decimal {
	return decimal.Zero
}

func callerFromRequest(r *http.Request) (identity.Identity, error) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return identity.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return caller, nil
}
