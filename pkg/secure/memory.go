// Package secure holds helpers for handling master secrets in memory.
package secure

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"runtime"
)

// Zero overwrites b with zeros
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ClearBytes zeroes the slice and drops the reference
func ClearBytes(b *[]byte) {
	if b == nil || *b == nil {
		return
	}
	Zero(*b)
	*b = nil
}

// ConstantTimeCompare reports whether x and y are equal without leaking
// where they differ
func ConstantTimeCompare(x, y []byte) bool {
	if len(x) != len(y) {
		return false
	}
	return subtle.ConstantTimeCompare(x, y) == 1
}

// SecureRandom returns size bytes from crypto/rand
func SecureRandom(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		Zero(b)
		return nil, fmt.Errorf("failed to generate secure random bytes: %w", err)
	}
	return b, nil
}
