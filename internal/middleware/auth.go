package middleware

import (
	"net/http"

	"printlab-be/internal/auth"
	"printlab-be/internal/utils"
)

// AuthMiddleware verifies the JWT and stores the resulting actor in the
// request context. Requests without a valid token pass through
// unauthenticated; handlers decide whether an actor is required.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := auth.ExtractAccessToken(r)
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := auth.ParseJWT(tokenStr)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := utils.SetActorContext(r.Context(), claims.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
