package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the role claim.
const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

var (
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrIssuerMismatch = errors.New("auth: issuer mismatch")
	ErrUnknownRole    = errors.New("auth: unknown role")
)

// Token is a signed access token and its expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Claims is the JWT payload. Subject is the staff id; admins may have an empty one.
type Claims struct {
	StaffID string `json:"staff_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the admin role.
func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CanActFor reports whether the principal may read or write staffID's records.
func (c Claims) CanActFor(staffID string) bool {
	return c.IsAdmin() || (c.StaffID != "" && c.StaffID == staffID)
}

// Issue signs an HS256 access token.
func Issue(staffID, role, issuer, key string, ttl time.Duration) (Token, error) {
	if role != RoleStaff && role != RoleAdmin {
		return Token{}, ErrUnknownRole
	}
	if role == RoleStaff && staffID == "" {
		return Token{}, errors.New("auth: staff token needs a staff id")
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		StaffID: staffID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   staffID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresAt: exp}, nil
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, ErrIssuerMismatch
	}
	if claims.Role != RoleStaff && claims.Role != RoleAdmin {
		return Claims{}, ErrUnknownRole
	}
	return *claims, nil
}
