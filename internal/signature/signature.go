package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signer computes and verifies Petzi webhook signature headers.
//
// The wire format is "t=<unix_timestamp>,v1=<hex_digest>" where the digest is
// HMAC-SHA256(secret, "<timestamp>.<body>") over the exact request bytes.
// Verification recomputes the digest from the timestamp carried in the header
// itself, not the verifier's clock, and applies no freshness window: a
// captured header stays valid for as long as the digest matches. That is the
// provider's observed behavior, kept as-is.
type Signer struct {
	secret []byte
}

// New returns a Signer bound to the given shared secret. The secret is
// injected here so tests can use per-instance secrets instead of a
// process-wide value.
func New(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns a signature header for body using the current time as the
// signing timestamp.
func (s *Signer) Sign(body string) string {
	return s.SignAt(body, time.Now().Unix())
}

// SignAt returns a signature header for body at a fixed unix timestamp.
func (s *Signer) SignAt(body string, unix int64) string {
	return fmt.Sprintf("t=%d,v1=%s", unix, s.digest(strconv.FormatInt(unix, 10), body))
}

// Verify reports whether header is a valid signature for body. It fails
// closed: a header with the wrong part count, missing t=/v1= prefixes, an
// empty value, or a non-numeric timestamp yields false, never an error.
func (s *Signer) Verify(body, header string) bool {
	parts := strings.Split(header, ",")
	if len(parts) != 2 {
		return false
	}
	t, ok := strings.CutPrefix(parts[0], "t=")
	if !ok || t == "" {
		return false
	}
	if _, err := strconv.ParseInt(t, 10, 64); err != nil {
		return false
	}
	v1, ok := strings.CutPrefix(parts[1], "v1=")
	if !ok || v1 == "" {
		return false
	}
	// hmac.Equal is constant-time.
	return hmac.Equal([]byte(s.digest(t, body)), []byte(v1))
}

func (s *Signer) digest(timestamp, body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(timestamp + "." + body))
	return hex.EncodeToString(mac.Sum(nil))
}
