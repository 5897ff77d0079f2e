package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret is returned by NewTokenCodec when no signing secret is configured.
	ErrMissingSecret = errors.New("token signing secret is not configured")
	// ErrInvalidSignature is returned when a token is malformed, unsigned, or signed with another key.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpired is returned when a correctly signed token is past its lifetime.
	ErrExpired = errors.New("token expired")
)

// DefaultTokenTTL is the session token lifetime used when none is configured.
const DefaultTokenTTL = 4 * time.Hour

// SessionClaims holds JWT claims for the session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

// Identity is the decoded content of a verified session token.
type Identity struct {
	AccountID   string
	DisplayName string
	ExpiresAt   time.Time
}

// TokenCodec issues and verifies HS256 session tokens with a process-wide secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec returns a TokenCodec signing with secret. ttl <= 0 uses DefaultTokenTTL.
// Returns ErrMissingSecret if secret is blank; callers treat that as fatal at startup.
func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the fixed token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the account. Returns the token string and its expiration time.
func (c *TokenCodec) Issue(accountID, displayName string) (token string, expiresAt time.Time, err error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := c.now().UTC()
	exp := jwt.NewNumericDate(now.Add(c.ttl))
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
		Name: displayName,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp.Time, nil
}

// Verify checks the signature and lifetime of token and returns the identity it carries.
// Returns ErrExpired for a correctly signed but expired token and ErrInvalidSignature for everything else.
func (c *TokenCodec) Verify(token string) (Identity, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpired
		}
		return Identity{}, ErrInvalidSignature
	}
	if !parsed.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidSignature
	}
	return Identity{
		AccountID:   claims.Subject,
		DisplayName: claims.Name,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
