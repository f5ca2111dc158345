package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/response"
)

// OwnerHeader carries the authenticated user id set by the upstream gateway.
const OwnerHeader = "X-User-ID"

type ownerKey struct{}

// RequireOwner rejects requests without an owner header and stores the owner
// in the request context.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			response.RespondError(w, http.StatusUnauthorized, "missing "+OwnerHeader+" header", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
	})
}

// WithOwner returns ctx carrying owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// Owner returns the owner stored by RequireOwner, empty when absent.
func Owner(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
