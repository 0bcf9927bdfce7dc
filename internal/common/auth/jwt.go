package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the bearer token.
const (
	RoleAdmin    = "admin"
	RolePromoter = "promoter"
	RoleOperator = "operator"
)

// Claims is the token payload issued by the platform's identity service.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}

// Principal is the authenticated caller.
type Principal struct {
	UserID   string
	TenantID string
	Role     string
}

// IsAdmin reports whether the caller holds the elevated role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Verifier validates HS256 bearer tokens.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Parse validates the token signature and expiry and returns the caller.
func (v *Verifier) Parse(tokenString string) (Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return Principal{}, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return Principal{}, fmt.Errorf("token has no user_id")
	}

	return Principal{UserID: claims.UserID, TenantID: claims.TenantID, Role: claims.Role}, nil
}

// Issue signs a token for p. Used by tooling and tests; production tokens
// come from the identity service.
func (v *Verifier) Issue(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    v.issuer,
			Subject:   p.UserID,
		},
		UserID:   p.UserID,
		TenantID: p.TenantID,
		Role:     p.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
