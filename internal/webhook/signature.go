// internal/webhook/signature.go
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"log"
	"net/http"
)

// Verifier authenticates a raw webhook payload against a shared secret.
// The signature is HMAC-SHA256 over the exact, undecoded request bytes;
// providers render it either base64 or lowercase hex, so both candidate
// encodings are accepted.
type Verifier struct {
	secret      string
	headerNames []string
}

// NewVerifier configures the verifier with its provider-specific header
// name followed by the generic fallbacks. The first present header wins.
func NewVerifier(secret, primaryHeader string) *Verifier {
	names := make([]string, 0, 3)
	if primaryHeader != "" {
		names = append(names, primaryHeader)
	}
	names = append(names, "X-Signature", "X-Hub-Signature")
	return &Verifier{secret: secret, headerNames: names}
}

// Verify reports whether the supplied signature matches the body.
//
// No configured secret means permissive mode for local/dev operation;
// that is allowed but never silent. A configured secret with no signature
// header always fails.
func (v *Verifier) Verify(headers http.Header, rawBody []byte) bool {
	if v.secret == "" {
		log.Printf("[WARN] webhook secret not configured - skipping signature verification")
		return true
	}

	var supplied string
	for _, name := range v.headerNames {
		if s := headers.Get(name); s != "" {
			supplied = s
			break
		}
	}
	if supplied == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(rawBody)
	sum := mac.Sum(nil)

	b64 := base64.StdEncoding.EncodeToString(sum)
	hx := hex.EncodeToString(sum)

	// Accept whichever encoding the signer chose. Both comparisons run
	// unconditionally so the accept path is not shorter for one encoding.
	b64ok := fixedTimeEqual(supplied, b64)
	hexok := fixedTimeEqual(supplied, hx)
	return b64ok || hexok
}

// fixedTimeEqual compares two strings without leaking where they first
// differ. Both operands are padded to equal length before the byte
// comparison, and length equality is asserted independently, so neither
// timing nor early-exit on length reveals anything about the expected
// value. Ordinary == on signatures would leak the common prefix length.
func fixedTimeEqual(a, b string) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	ab := make([]byte, n)
	bb := make([]byte, n)
	copy(ab, a)
	copy(bb, b)

	sameLen := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	sameBytes := subtle.ConstantTimeCompare(ab, bb)
	return sameBytes&sameLen == 1
}
