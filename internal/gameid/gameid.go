// Package gameid generates identifiers for hosted game sessions.
//
// IDs are UUIDv7 values rendered as 26 lowercase Crockford base32 characters,
// so they sort by creation time.
package gameid

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"
)

// Crockford's base32 alphabet, lowercase.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

const encodedLen = 26

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// RandSource allows tests to make the random tail deterministic.
type RandSource interface {
	Intn(n int) int
}

// Generator produces session IDs.
type Generator struct {
	rand RandSource
	now  func() time.Time
}

// NewGenerator creates a generator. A nil RandSource uses crypto/rand.
func NewGenerator(rand RandSource) *Generator {
	return &Generator{rand: rand, now: time.Now}
}

// Generate returns a new session ID from crypto randomness.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate returns a new session ID.
func (g *Generator) Generate() string {
	var id [16]byte

	ms := uint64(g.now().UnixMilli())
	for i := 0; i < 6; i++ {
		id[i] = byte(ms >> (40 - 8*i))
	}

	if g.rand != nil {
		for i := 6; i < len(id); i++ {
			id[i] = byte(g.rand.Intn(256))
		}
	} else if _, err := rand.Read(id[6:]); err != nil {
		panic("gameid: reading random bytes: " + err.Error())
	}

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant

	// 128 bits need 26 symbols; base32 over the raw bytes pads the last
	// symbol with zero bits, which keeps lexical order equal to byte order.
	return encoding.EncodeToString(id[:])
}

// Validate checks that id could have been produced by Generate.
func Validate(id string) error {
	if len(id) != encodedLen {
		return fmt.Errorf("game ID must be exactly %d characters, got %d", encodedLen, len(id))
	}
	for i, ch := range id {
		if !strings.ContainsRune(alphabet, ch) {
			return fmt.Errorf("invalid character %c at position %d", ch, i)
		}
	}
	raw, err := encoding.DecodeString(id)
	if err != nil {
		return fmt.Errorf("game ID is not valid base32: %w", err)
	}
	if raw[6]>>4 != 7 {
		return fmt.Errorf("game ID is not a version 7 UUID")
	}
	return nil
}
