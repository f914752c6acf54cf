// Package auth issues and validates the session tokens that guard the local
// planning API.
package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"vault-planning/internal/config"
)

var (
	ErrInvalidAPIKey = errors.New("invalid api key")
	ErrInvalidToken  = errors.New("invalid token")
)

// Claims represents the JWT claims
type Claims struct {
	VaultID string `json:"vault_id"`
	jwt.RegisteredClaims
}

// Issuer signs tokens for one vault.
type Issuer struct {
	secret     []byte
	issuer     string
	audience   string
	ttl        time.Duration
	apiKeyHash []byte
	vaultID    string
}

// NewIssuer builds an issuer from the auth config for the given vault.
func NewIssuer(cfg config.AuthConfig, vaultID string) *Issuer {
	return &Issuer{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		ttl:        cfg.TokenTTL,
		apiKeyHash: []byte(cfg.APIKeyHash),
		vaultID:    vaultID,
	}
}

// CheckAPIKey compares key with the configured bcrypt hash. Without a
// configured hash every key is accepted.
func (i *Issuer) CheckAPIKey(key string) error {
	if len(i.apiKeyHash) == 0 {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(i.apiKeyHash, []byte(key)); err != nil {
		return ErrInvalidAPIKey
	}
	return nil
}

// HashAPIKey returns the bcrypt hash to put in auth.api_key_hash.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateToken generates a session token for the issuer's vault
func (i *Issuer) GenerateToken() (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(i.ttl)
	claims := Claims{
		VaultID: i.vaultID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   i.vaultID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expires, nil
}

// ValidateToken validates a JWT token and returns the claims. Tokens minted
// for another vault are rejected.
func (i *Issuer) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithAudience(i.audience))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.VaultID != i.vaultID || !slices.Contains(claims.Audience, i.audience) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
