package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	SessionHeader = "X-Session-Id"

	maxSessionIDLength = 128
	sessionCookieAge   = 30 * 24 * 60 * 60
)

// IdentityOptions configures how the cart owner is derived from a request.
type IdentityOptions struct {
	JWT          config.JWTConfig
	CookieName   string
	SecureCookie bool
}

// Identity resolves who owns the cart for this request. A bearer token is
// optional but must be valid when sent. Every request also carries a guest
// session id; one is minted and returned when the client has none.
func Identity(opts IdentityOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = "cart_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
				token := raw
				if strings.HasPrefix(strings.ToLower(token), "bearer ") {
					token = strings.TrimSpace(token[7:])
				}
				if token == "" {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				claims, err := pkgAuth.ParseAccessToken(opts.JWT, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				userID, err := claims.UserID()
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID.String())
				}
			}

			sessionID := sessionFromRequest(r, opts.CookieName)
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     opts.CookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   sessionCookieAge,
					HttpOnly: true,
					Secure:   opts.SecureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(SessionHeader, sessionID)
			ctx = WithSessionID(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromRequest(r *http.Request, cookieName string) string {
	if v := validSessionID(r.Header.Get(SessionHeader)); v != "" {
		return v
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return validSessionID(cookie.Value)
	}
	return ""
}

// validSessionID accepts opaque ids made of url-safe characters only.
func validSessionID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxSessionIDLength {
		return ""
	}
	for _, c := range value {
		if !validIDRune(c) {
			return ""
		}
	}
	return value
}

func validIDRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}

// RequireUser rejects requests without a verified bearer token.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
