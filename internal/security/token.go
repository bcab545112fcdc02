package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"profilehub/api/internal/models"
)

// AccessClaims carries the full identity snapshot for a request window.
type AccessClaims struct {
	AccountID  string `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	IsVerified bool   `json:"isVerified"`
	jwt.RegisteredClaims
}

// RefreshClaims carries only the account id, keeping the long-lived token
// minimal.
type RefreshClaims struct {
	AccountID string `json:"id"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a short-lived token with the access secret.
// Access and refresh secrets are never shared.
func GenerateAccessToken(secret string, account models.Account, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		AccountID:  account.ID,
		Email:      account.Email,
		Username:   account.Username,
		Role:       string(account.Role),
		Status:     string(account.Status),
		IsVerified: account.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   account.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// GenerateRefreshToken signs a long-lived token with the refresh secret.
func GenerateRefreshToken(secret string, accountID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   accountID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates signature and expiry and returns the claims.
func ParseAccessToken(tokenStr string, secret string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parseInto(tokenStr, secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefreshToken validates signature and expiry and returns the claims.
func ParseRefreshToken(tokenStr string, secret string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parseInto(tokenStr, secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func parseInto(tokenStr string, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}
