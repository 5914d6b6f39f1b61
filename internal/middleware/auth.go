package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/baharkarakas/points-ledger/internal/auth"
)

type ctxKey string

const ctxSubjectKey ctxKey = "sub"

func Subject(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxSubjectKey).(string)
	return v, ok
}

type AuthMiddleware struct {
	TM     *auth.TokenManager
	AppEnv string
}

func NewAuthMiddleware(tm *auth.TokenManager, appEnv string) *AuthMiddleware {
	return &AuthMiddleware{TM: tm, AppEnv: appEnv}
}

type errResp struct {
	Error string `json:"error"`
}

func (m *AuthMiddleware) writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errResp{Error: msg})
}

// DEV: Bearer dev-<id> | Bearer <JWT>
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
			m.writeErr(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token := strings.TrimSpace(ah[len("Bearer "):])

		if m.AppEnv == "dev" && strings.HasPrefix(token, "dev-") {
			sub := strings.TrimPrefix(token, "dev-")
			ctx := context.WithValue(r.Context(), ctxSubjectKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		claims, err := m.TM.Parse(token)
		if err != nil {
			m.writeErr(w, http.StatusUnauthorized, "invalid access token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSubjectKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
