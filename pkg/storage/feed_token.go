package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken is returned for malformed or tampered tokens.
	ErrInvalidToken = errors.New("invalid feed token")
	// ErrTokenExpired is returned once a token passes its expiry.
	ErrTokenExpired = errors.New("feed token expired")
)

// FeedClaims identifies whose calendar a feed token grants access to.
type FeedClaims struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// FeedSigner creates and validates calendar subscription tokens. Calendar
// clients cannot send bearer headers, so the token travels in the URL.
type FeedSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewFeedSigner constructs a signer with the provided secret and TTL.
func NewFeedSigner(secret string, ttl time.Duration) *FeedSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &FeedSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a signed token for the user and role.
func (s *FeedSigner) Generate(userID, role string) (string, time.Time, error) {
	if userID == "" || role == "" {
		return "", time.Time{}, fmt.Errorf("userID and role required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encodedUser := base64.RawURLEncoding.EncodeToString([]byte(userID))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	role = strings.ToLower(role)
	token := strings.Join([]string{encodedUser, role, exp, s.sign(encodedUser, role, exp)}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns its claims.
func (s *FeedSigner) Parse(token string) (FeedClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 || len(s.secret) == 0 {
		return FeedClaims{}, ErrInvalidToken
	}
	encodedUser, role, exp, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(encodedUser, role, exp)), []byte(signature)) {
		return FeedClaims{}, ErrInvalidToken
	}
	rawUser, err := base64.RawURLEncoding.DecodeString(encodedUser)
	if err != nil {
		return FeedClaims{}, fmt.Errorf("%w: decode user: %v", ErrInvalidToken, err)
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return FeedClaims{}, fmt.Errorf("%w: bad expiry", ErrInvalidToken)
	}
	claims := FeedClaims{UserID: string(rawUser), Role: role, ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(claims.ExpiresAt) {
		return FeedClaims{}, ErrTokenExpired
	}
	return claims, nil
}

func (s *FeedSigner) sign(encodedUser, role, exp string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encodedUser + "|" + role + "|" + exp))
	return hex.EncodeToString(mac.Sum(nil))
}
