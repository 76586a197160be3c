package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
)

// ErrMismatch indicates the payload signature did not verify.
var ErrMismatch = errors.New("signature mismatch")

// Verifier authenticates a raw webhook payload against the signature
// header a provider sent with it.
type Verifier interface {
	Verify(payload []byte, signature string) error
	Name() string
}

// HMACVerifier checks hex-encoded HMAC digests computed over the raw
// payload with a shared secret.
type HMACVerifier struct {
	secret  []byte
	newHash func() hash.Hash
	name    string
}

// NewSHA256 builds an HMAC-SHA256 verifier.
func NewSHA256(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), newHash: sha256.New, name: "hmac-sha256"}
}

// NewSHA512 builds an HMAC-SHA512 verifier.
func NewSHA512(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), newHash: sha512.New, name: "hmac-sha512"}
}

// Verify recomputes the digest and compares it in constant time.
func (v *HMACVerifier) Verify(payload []byte, signature string) error {
	mac := hmac.New(v.newHash, v.secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrMismatch
	}
	return nil
}

func (v *HMACVerifier) Name() string {
	return v.name
}

// AcceptAll skips verification. It is wired only when a provider secret is
// absent outside production.
type AcceptAll struct{}

func (AcceptAll) Verify([]byte, string) error { return nil }

func (AcceptAll) Name() string { return "accept-all" }
