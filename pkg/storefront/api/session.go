package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"

	"github.com/tendant/simple-storefront/pkg/storefront"
	"github.com/tendant/simple-storefront/pkg/storefront/sessions"
)

const sessionCookie = "jwt"

type principalKey struct{}

// PrincipalFromContext returns the admin attached by the session gate
func PrincipalFromContext(ctx context.Context) (storefront.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(storefront.Principal)
	return p, ok
}

// session issues and checks signed admin session tokens
type session struct {
	auth    *jwtauth.JWTAuth
	ttl     time.Duration
	secure  bool
	admin   *storefront.AdminService
	revoked sessions.Store
	logger  *slog.Logger
}

// issue signs a token for user and stores it in the session cookie
func (s *session) issue(w http.ResponseWriter, user *storefront.AdminUser) error {
	expires := time.Now().Add(s.ttl)
	claims := map[string]interface{}{
		"jti":      uuid.NewString(),
		"sub":      user.ID,
		"username": user.Username,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, expires)

	_, token, err := s.auth.Encode(claims)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *session) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// revoke lists the verified token in ctx as logged out until it expires
func (s *session) revoke(ctx context.Context) error {
	token, _, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil || token.JwtID() == "" {
		return nil
	}
	return s.revoked.Revoke(ctx, token.JwtID(), token.Expiration())
}

// current resolves the verified token in ctx to a stored admin
func (s *session) current(ctx context.Context) (*storefront.AdminUser, bool) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil || token.JwtID() == "" {
		return nil, false
	}
	revoked, err := s.revoked.IsRevoked(ctx, token.JwtID())
	if err != nil {
		s.logger.Error("Failed to check session revocation", "error", err)
		return nil, false
	}
	if revoked {
		return nil, false
	}
	sub, _ := claims["sub"].(string)
	user, err := s.admin.GetAdmin(ctx, sub)
	if err != nil {
		return nil, false
	}
	return user, true
}

// require rejects requests without a valid session. It runs after
// jwtauth.Verify and reloads the user on every request.
func (s *session) require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.current(r.Context())
		if !ok {
			flash(w, r, http.StatusUnauthorized, "Please log in to access this page.", "/admin/login", nil)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, user.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
