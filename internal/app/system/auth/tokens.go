// Package auth issues and verifies the bearer tokens that protect the API,
// and provides the request gate that turns a token into a tenant-scoped
// principal.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token purposes. A token minted for one purpose is rejected everywhere else:
// a password-reset token can never authenticate an API request.
const (
	PurposeSession = "session"
	PurposeReset   = "password_reset"
	PurposeMagic   = "magic_login"
)

var (
	// ErrInvalidToken covers malformed, mis-signed, and expired tokens.
	// Callers present all three identically.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrWrongPurpose is returned when a structurally valid token is used
	// for a purpose it was not minted for.
	ErrWrongPurpose = errors.New("token not valid for this purpose")
)

// Claims is the JWT payload for every token the service mints. Role and
// Company are a snapshot at mint time; the auth gate re-resolves both from
// the user record on every request rather than trusting them.
type Claims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Role    string `json:"role,omitempty"`
	Company string `json:"company,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies tokens with a shared HMAC secret.
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	linkTTL    time.Duration
}

// NewTokenManager creates a TokenManager. sessionTTL covers login tokens;
// linkTTL covers the short-lived reset and magic-login tokens.
func NewTokenManager(secret string, sessionTTL, linkTTL time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("auth: empty token secret")
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if linkTTL <= 0 {
		linkTTL = time.Hour
	}
	return &TokenManager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		linkTTL:    linkTTL,
	}, nil
}

// IssueSession mints a login token for the user in their active company.
func (m *TokenManager) IssueSession(userID primitive.ObjectID, email, role string, companyID primitive.ObjectID) (string, error) {
	return m.sign(Claims{
		UserID:  userID.Hex(),
		Email:   email,
		Role:    role,
		Company: companyID.Hex(),
		Purpose: PurposeSession,
	}, m.sessionTTL)
}

// IssueLink mints a short-lived single-purpose token for password reset or
// magic login links.
func (m *TokenManager) IssueLink(purpose string, userID primitive.ObjectID, email string) (string, error) {
	if purpose != PurposeReset && purpose != PurposeMagic {
		return "", fmt.Errorf("auth: unknown link purpose %q", purpose)
	}
	return m.sign(Claims{
		UserID:  userID.Hex(),
		Email:   email,
		Purpose: purpose,
	}, m.linkTTL)
}

func (m *TokenManager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and checks it was minted for the given purpose.
// The returned claims carry a valid UserID hex string.
func (m *TokenManager) Verify(tokenString, purpose string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
