package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"time"

	"rollcall/internal/ports/output"
)

var _ output.TokenCodec = (*Codec)(nil)

const (
	version  = "rc1"
	nonceLen = 16
	macLen   = 20
)

var enc = base64.RawURLEncoding

// Codec mints ticket tokens of the form rc1.<nonce>.<mac>, where mac is an
// HMAC-SHA256 over (event, user, issue time in ms, nonce). The random nonce
// makes every issuance unique; the MAC binds it to its holder.
type Codec struct {
	secret []byte
	rand   io.Reader
}

// NewCodec returns a Codec keyed with secret (at least 16 bytes).
func NewCodec(secret string) (*Codec, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("token: secret must be at least 16 bytes")
	}
	return &Codec{secret: []byte(secret), rand: rand.Reader}, nil
}

func (c *Codec) Generate(eventID, userID string, issuedAt time.Time) (string, error) {
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("token: read nonce: %w", err)
	}
	mac := c.sign(eventID, userID, issuedAt, nonce)
	return version + "." + enc.EncodeToString(nonce) + "." + enc.EncodeToString(mac), nil
}

func (c *Codec) WellFormed(token string) bool {
	_, _, ok := parse(token)
	return ok
}

func (c *Codec) Verify(token, eventID, userID string, issuedAt time.Time) bool {
	nonce, mac, ok := parse(token)
	if !ok {
		return false
	}
	return hmac.Equal(mac, c.sign(eventID, userID, issuedAt, nonce))
}

func (c *Codec) sign(eventID, userID string, issuedAt time.Time, nonce []byte) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(eventID))
	h.Write([]byte{0})
	h.Write([]byte(userID))
	h.Write([]byte{0})
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(issuedAt.UnixMilli()))
	h.Write(ts[:])
	h.Write(nonce)
	return h.Sum(nil)[:macLen]
}

func parse(token string) (nonce, mac []byte, ok bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != version {
		return nil, nil, false
	}
	nonce, err := enc.DecodeString(parts[1])
	if err != nil || len(nonce) != nonceLen {
		return nil, nil, false
	}
	mac, err = enc.DecodeString(parts[2])
	if err != nil || len(mac) != macLen {
		return nil, nil, false
	}
	return nonce, mac, true
}
