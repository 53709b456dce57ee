package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"investa/domain"
	"investa/domain/entities"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the identity of the caller
type Claims struct {
	Role       string `json:"role"`
	InvestorID int64  `json:"investor_id"`
	jwt.RegisteredClaims
}

// ParseToken validates an HS256 token and returns its claims
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueToken signs a token for the identity, valid for ttl
func IssueToken(identity entities.Identity, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:       string(identity.Role),
		InvestorID: identity.InvestorID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "investa",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ExtractBearer returns the token of an "Authorization: Bearer <token>" header
func ExtractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type identityKey struct{}

// identityFrom returns the caller resolved by authenticate, or nil
func identityFrom(ctx context.Context) *entities.Identity {
	identity, _ := ctx.Value(identityKey{}).(*entities.Identity)
	return identity
}

// authenticate resolves the bearer token into an Identity. Requests without a
// valid token are rejected before they reach a handler.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractBearer(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, domain.ErrUnauthenticated)
			return
		}
		claims, err := ParseToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, domain.ErrUnauthenticated)
			return
		}

		identity := &entities.Identity{Role: entities.Role(claims.Role), InvestorID: claims.InvestorID}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, identity)))
	})
}
