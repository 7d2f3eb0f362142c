package middleware

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/internal/cart"
)

// CartScope gives each request its own resolved-cart memo.
func CartScope() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(cart.WithScope(r.Context())))
		})
	}
}
