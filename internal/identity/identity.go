// Package identity derives the opaque keys used to attribute ballots.
// Raw device identifiers and IP addresses never leave this package.
package identity

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

type Guard struct {
	key []byte
}

func NewGuard(salt string) *Guard {
	key := blake2b.Sum256([]byte(salt))
	return &Guard{key: key[:]}
}

// VoterKey is the stable per-device key stored on every ballot.
func (g *Guard) VoterKey(deviceID string) string {
	return g.sum("device", deviceID)
}

// IPHash returns "" when ip is empty so callers can skip the IP dimension.
func (g *Guard) IPHash(ip string) string {
	if ip == "" {
		return ""
	}
	return g.sum("ip", ip)
}

func (g *Guard) sum(kind, v string) string {
	// 32-byte key is always within blake2b's limit.
	h, _ := blake2b.New256(g.key)
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(v))
	return hex.EncodeToString(h.Sum(nil))
}
