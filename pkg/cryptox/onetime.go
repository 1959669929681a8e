package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

// ErrInvalidCode is the only error Verify ever reports for a bad code.
// Expired, tampered, wrong-purpose and already-consumed codes are
// indistinguishable to the caller so no state leaks.
var ErrInvalidCode = errors.New("cryptox: invalid one-time code")

const (
	otcExpiryLen = 8
	otcNonceLen  = 16
	otcMACLen    = sha256.Size
	otcTotalLen  = otcExpiryLen + otcNonceLen + otcMACLen
)

// CodeMinter mints and verifies single-purpose one-time codes using a keyed
// MAC, so no code table is needed. A code is bound to (purpose, user, stamp);
// the stamp is expected to change when the code's side effect is applied,
// which retires every outstanding code for that user and purpose.
//
// Wire format: base64url( expiry(8) || nonce(16) || HMAC-SHA256(key,
// purpose || 0x00 || userID || 0x00 || stamp || 0x00 || expiry || nonce) ).
type CodeMinter struct {
	key     []byte
	purpose string
	ttl     time.Duration
}

// NewCodeMinter builds a minter for one purpose. The key must be secret and
// stable across restarts; ttl bounds how long generated codes stay valid.
func NewCodeMinter(key []byte, purpose string, ttl time.Duration) *CodeMinter {
	return &CodeMinter{key: key, purpose: purpose, ttl: ttl}
}

// Generate mints a code for the given user and stamp, expiring after the
// minter's ttl.
func (m *CodeMinter) Generate(userID, stamp string) (string, error) {
	return m.generateAt(userID, stamp, time.Now().Add(m.ttl))
}

func (m *CodeMinter) generateAt(userID, stamp string, expiry time.Time) (string, error) {
	buf := make([]byte, otcExpiryLen+otcNonceLen, otcTotalLen)
	binary.BigEndian.PutUint64(buf[:otcExpiryLen], uint64(expiry.Unix())) // #nosec G115 - unix seconds fit
	if _, err := rand.Read(buf[otcExpiryLen:]); err != nil {
		return "", err
	}

	buf = append(buf, m.mac(userID, stamp, buf)...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify checks that code was minted by this minter for (userID, stamp) and
// has not expired. Any failure is reported as ErrInvalidCode.
func (m *CodeMinter) Verify(code, userID, stamp string) error {
	raw, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil || len(raw) != otcTotalLen {
		return ErrInvalidCode
	}

	payload := raw[:otcExpiryLen+otcNonceLen]
	expected := m.mac(userID, stamp, payload)
	if !hmac.Equal(raw[otcExpiryLen+otcNonceLen:], expected) {
		return ErrInvalidCode
	}

	expiry := int64(binary.BigEndian.Uint64(raw[:otcExpiryLen])) // #nosec G115
	if time.Now().Unix() > expiry {
		return ErrInvalidCode
	}

	return nil
}

func (m *CodeMinter) mac(userID, stamp string, payload []byte) []byte {
	h := hmac.New(sha256.New, m.key)
	h.Write([]byte(m.purpose))
	h.Write([]byte{0})
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(stamp))
	h.Write([]byte{0})
	h.Write(payload)
	return h.Sum(nil)
}
