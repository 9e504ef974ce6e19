package access

import (
	"context"
	"net/http"

	"CapStore/pkg/kit"
)

type ctxKey string

const principalKey ctxKey = "principal"

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// AuthJWT rejects requests without a valid bearer token and stores the
// token's principal in the request context.
func AuthJWT(tm *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := kit.BearerToken(r)
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := tm.Parse(tok)
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), claims.Principal())))
		})
	}
}

// RequireCatalogManager admits admins and super-admins, judged by their
// effective role.
func RequireCatalogManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			kit.WriteError(w, r, http.StatusUnauthorized, "no principal", nil)
			return
		}
		role, err := p.Effective()
		if err != nil || !role.CanManageCatalog() {
			kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
