package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mdbytes/reads-backend/api/responses"
	"github.com/mdbytes/reads-backend/internal/checkout"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
	"github.com/mdbytes/reads-backend/pkg/logger"
)

// CheckoutCreate turns the caller's cart into an order. Individual buyers
// get a hosted payment session URL back; company buyers get invoice terms.
func CheckoutCreate(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CheckoutConfirm is the return landing from the hosted payment page. The
// gateway session is the source of truth: the handler re-reads it before
// settling anything, so refreshing the page is harmless.
func CheckoutConfirm(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		raw := strings.TrimSpace(r.URL.Query().Get("order_id"))
		orderID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || orderID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_id query parameter required"))
			return
		}

		order, err := svc.Confirm(r.Context(), uint(orderID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
