package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for expired, malformed or mis-purposed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenPurposeActivate marks tokens sent in account activation emails.
const TokenPurposeActivate = "activate"

// ActivationClaims are the JWT claims embedded in emailed activation links.
type ActivationClaims struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	Purpose   string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies short-lived email tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer with the given signing secret and
// token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// ActivationToken creates a signed activation token for the account.
func (i *TokenIssuer) ActivationToken(accountID int64, email string) (string, error) {
	now := time.Now()
	claims := ActivationClaims{
		AccountID: accountID,
		Email:     email,
		Purpose:   TokenPurposeActivate,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyActivationToken parses a token and returns its claims when the
// signature, expiry and purpose all check out.
func (i *TokenIssuer) VerifyActivationToken(tokenString string) (*ActivationClaims, error) {
	claims := &ActivationClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != TokenPurposeActivate {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
