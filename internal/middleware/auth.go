package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/campuslend/lendhub/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

type key string

const actorKey key = "actor"

// Auth parses the bearer token and puts the authenticated actor on the
// request context. It only authenticates; route guards below decide what
// the actor may do.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				unauthorized(w, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				unauthorized(w, "invalid token claims")
				return
			}
			userID, ok := claims["user_id"].(float64)
			if !ok {
				unauthorized(w, "invalid token claims")
				return
			}
			role, _ := claims["role"].(string)
			approved, _ := claims["approved"].(bool)

			actor := models.Actor{ID: int(userID), Role: role, Approved: approved}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom returns the authenticated actor set by Auth, if any.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	return actor, ok
}

// WithActor returns a context carrying the given actor. Tests use it to
// exercise handlers without running the full middleware chain.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// RequireStaff rejects requests whose actor may not handle lending
// requests: anyone unauthenticated, or an unapproved member. Every
// mutating transition route goes through this single guard.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok || !actor.Staff() {
			unauthorized(w, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuper rejects everything but super actors. Item CRUD, member
// management, and log reporting live behind this.
func RequireSuper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok || actor.Role != models.RoleSuper {
			unauthorized(w, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
