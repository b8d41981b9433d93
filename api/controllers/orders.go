package controllers

import (
	"net/http"

	"github.com/perfumichi/storefront/api/middleware"
	"github.com/perfumichi/storefront/api/responses"
	"github.com/perfumichi/storefront/internal/cart"
	"github.com/perfumichi/storefront/pkg/logger"
)

// PendingOrder returns the snapshot written right before checkout so the
// confirmation page can show what was purchased.
func PendingOrder(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.CartTokenFromContext(r.Context())
		order, err := svc.LoadPendingOrder(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
