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

// Download-token validation failures, surfaced to the HTTP layer.
var (
	ErrBadToken     = errors.New("invalid download token")
	ErrTokenExpired = errors.New("download token expired")
)

// LinkSigner mints and verifies expiring HMAC tokens that grant download
// access to a single stored file without further authentication.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewLinkSigner constructs a signer. A non-positive TTL defaults to 24h.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl}
}

// Sign returns a token granting access to the named file until the TTL
// elapses.
func (s *LinkSigner) Sign(name string) (string, time.Time, error) {
	if name == "" {
		return "", time.Time{}, fmt.Errorf("file name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(name))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := encoded + "." + ts + "." + s.mac(encoded, ts)
	return token, expiresAt, nil
}

// Verify checks signature and expiry and returns the file name the token
// grants access to.
func (s *LinkSigner) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrBadToken
	}
	encoded, ts, signature := parts[0], parts[1], parts[2]

	if !hmac.Equal([]byte(s.mac(encoded, ts)), []byte(signature)) {
		return "", ErrBadToken
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", ErrBadToken
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return "", ErrTokenExpired
	}
	name, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrBadToken
	}
	return string(name), nil
}

func (s *LinkSigner) mac(encoded, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encoded + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
