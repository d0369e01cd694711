package auth

import (
	"crypto/sha256"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "taskman/internal/domain/errors"
	"taskman/internal/domain/models"
)

// refreshTTL is fixed: refresh tokens always live 30 days regardless of the
// configured access-token lifetime.
const refreshTTL = 30 * 24 * time.Hour

const issuer = "taskman"

// Claims is the payload embedded in every issued token.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed, time-limited identity tokens.
// Refresh tokens are signed with a secret derived from the access secret,
// so the two kinds can never be swapped for one another.
type Codec struct {
	secret        []byte
	refreshSecret []byte
	accessTTL     time.Duration
}

func NewCodec(secret string, accessTTL time.Duration) *Codec {
	derived := sha256.Sum256([]byte(secret + ":refresh"))
	return &Codec{
		secret:        []byte(secret),
		refreshSecret: derived[:],
		accessTTL:     accessTTL,
	}
}

// Issue produces an access token and a refresh token for the given user.
func (c *Codec) Issue(user *models.User) (access string, refresh string, err error) {
	access, err = c.sign(user, c.secret, c.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = c.sign(user, c.refreshSecret, refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify checks an access token's signature and expiration and returns the
// embedded claims. Expired tokens are reported distinctly from malformed or
// tampered ones.
func (c *Codec) Verify(token string) (*Claims, error) {
	return c.verify(token, c.secret)
}

// VerifyRefresh checks a refresh token against the derived secret.
func (c *Codec) VerifyRefresh(token string) (*Claims, error) {
	return c.verify(token, c.refreshSecret)
}

func (c *Codec) sign(user *models.User, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (c *Codec) verify(token string, key []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
