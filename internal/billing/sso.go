package billing

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gameforge.gg/platform/internal/apperr"
)

// TokenMaxAge bounds how far an SSO timestamp may drift from now in either direction.
const TokenMaxAge = 300 * time.Second

// SignToken returns the hex HMAC-SHA256, keyed with secret, of token+timestamp+secret.
func SignToken(token, timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token + timestamp + secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyToken reports whether hash was produced by SignToken for exactly this
// triple. It does not look at the clock; see Fresh.
func VerifyToken(token, timestamp, secret, hash string) bool {
	if token == "" || timestamp == "" || secret == "" || hash == "" {
		return false
	}
	expected := SignToken(token, timestamp, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(hash)))
}

// Fresh reports whether a unix-seconds timestamp is within TokenMaxAge of now.
func Fresh(timestamp string, now time.Time) bool {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := now.Sub(time.Unix(ts, 0))
	return age <= TokenMaxAge && age >= -TokenMaxAge
}

// Handoff is the query parameter set of an SSO login link.
type Handoff struct {
	UserID    string
	Token     string
	Timestamp string
	Hash      string
}

func ParseHandoff(q url.Values) Handoff {
	return Handoff{
		UserID:    strings.TrimSpace(q.Get("userid")),
		Token:     q.Get("token"),
		Timestamp: q.Get("timestamp"),
		Hash:      q.Get("hash"),
	}
}

// Verify checks freshness before the hash. Both failures are authentication errors.
func (h Handoff) Verify(secret string, now time.Time) error {
	const op = "sso.Verify"
	if secret == "" {
		return apperr.Misconfigured(op, "billing sso")
	}
	if h.UserID == "" {
		return apperr.Authentication(op, "missing user id")
	}
	if !Fresh(h.Timestamp, now) {
		return apperr.Authentication(op, "sso token expired")
	}
	if !VerifyToken(h.Token, h.Timestamp, secret, h.Hash) {
		return apperr.Authentication(op, "sso token signature mismatch")
	}
	return nil
}

// NewLoginURL appends a freshly signed handoff for userID to siteURL.
func NewLoginURL(siteURL, userID, secret string, now time.Time) (string, error) {
	if secret == "" {
		return "", apperr.Misconfigured("sso.NewLoginURL", "billing sso")
	}
	u, err := url.Parse(siteURL)
	if err != nil {
		return "", fmt.Errorf("parse site url: %w", err)
	}
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate sso token: %w", err)
	}
	token := hex.EncodeToString(raw)
	timestamp := strconv.FormatInt(now.Unix(), 10)

	q := u.Query()
	q.Set("userid", userID)
	q.Set("token", token)
	q.Set("timestamp", timestamp)
	q.Set("hash", SignToken(token, timestamp, secret))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
