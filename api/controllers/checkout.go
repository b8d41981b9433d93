package controllers

import (
	"net/http"
	"strings"

	"github.com/perfumichi/storefront/api/middleware"
	"github.com/perfumichi/storefront/api/responses"
	checkoutsvc "github.com/perfumichi/storefront/internal/checkout"
	"github.com/perfumichi/storefront/pkg/logger"
)

// Checkout opens a payment session for the caller's cart and returns the
// redirect URL.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.CartTokenFromContext(r.Context())
		origin := requestOrigin(r)

		url, err := svc.CreateSession(r.Context(), token, origin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"url": url})
	}
}

func requestOrigin(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("Origin"))
}
