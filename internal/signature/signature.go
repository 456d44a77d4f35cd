// Package signature implements the provider's webhook signing scheme:
// a header of comma-separated key=value pairs carrying a unix timestamp
// (t) and a hex HMAC-SHA256 digest (v1) over "{t}.{payload}".
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

// Verify checks the authenticity and freshness of a raw webhook payload.
// The digest comparison is constant-time. When tolerance > 0, signatures
// whose timestamp is further than tolerance from now are rejected;
// tolerance <= 0 disables the freshness check. A timestamp that does not
// parse as an integer is rejected rather than waved through.
func Verify(payload []byte, header, secret string, tolerance time.Duration) bool {
	return verifyAt(payload, header, secret, tolerance, time.Now())
}

func verifyAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) bool {
	if header == "" {
		return false
	}

	parts := parseHeader(header)
	t, v1 := parts["t"], parts["v1"]
	if t == "" || v1 == "" {
		return false
	}

	ts, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return false
	}
	if tolerance > 0 {
		age := now.Sub(time.Unix(ts, 0))
		if age < 0 {
			age = -age
		}
		if age > tolerance {
			return false
		}
	}

	expected := computeDigest(payload, t, secret)
	digest, err := hex.DecodeString(v1)
	if err != nil {
		return false
	}

	return hmac.Equal(expected, digest)
}

// Sign produces a signature header for payload, suitable for tests and
// local replay tooling.
func Sign(payload []byte, secret string, at time.Time) string {
	t := strconv.FormatInt(at.Unix(), 10)
	digest := computeDigest(payload, t, secret)
	return fmt.Sprintf("t=%s,v1=%s", t, hex.EncodeToString(digest))
}

func computeDigest(payload []byte, t, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(t))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

func parseHeader(header string) map[string]string {
	parts := make(map[string]string)
	for _, kv := range strings.Split(header, ",") {
		k, v, found := strings.Cut(kv, "=")
		if !found {
			continue
		}
		parts[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return parts
}
