package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

// Claims carried by back-office tokens. Subject is the user id.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Identity resolves the acting user from an HMAC-signed Bearer token.
// Requests without an Authorization header act as the system user; a header
// that does not hold a valid token is rejected.
func Identity(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				unauthorized(w, "Cabeçalho Authorization inválido")
				return
			}

			claims, err := ParseToken(secret, strings.TrimSpace(parts[1]))
			if err != nil {
				unauthorized(w, "Token inválido ou expirado")
				return
			}

			actor := entity.Actor{Name: claims.Name}
			if claims.Subject != "" {
				sub := claims.Subject
				actor.UserID = &sub
			}

			next.ServeHTTP(w, r.WithContext(entity.ContextWithActor(r.Context(), actor)))
		})
	}
}

func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, jwt.ErrTokenUnverifiable
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// só HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
