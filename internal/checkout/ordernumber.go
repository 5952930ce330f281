package checkout

import (
	"crypto/rand"
	"fmt"
)

const (
	orderNumberPrefix  = "ORD-"
	orderNumberLength  = 8
	orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewOrderNumber produces a human-readable order reference such as
// ORD-7GK2M9QX. Uniqueness is enforced by the database, so callers retry on
// a unique violation rather than coordinating here.
func NewOrderNumber() (string, error) {
	// 252 is the largest multiple of the charset size below 256; bytes at or
	// above it are discarded so every character is drawn uniformly
	const limit = byte(252)

	out := make([]byte, 0, orderNumberLength)
	buf := make([]byte, orderNumberLength)
	for len(out) < orderNumberLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generating order number: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, orderNumberCharset[int(b)%len(orderNumberCharset)])
			if len(out) == orderNumberLength {
				break
			}
		}
	}
	return orderNumberPrefix + string(out), nil
}
