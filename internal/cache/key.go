// Package cache implements the time-boxed response cache that sits in front
// of the AI provider, keyed by a deterministic digest of the question.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeQuery lowercases, trims, and collapses internal whitespace runs so
// trivially different spellings of the same question share a cache key.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// DeriveKey maps (contractID, query) to a stable fixed-width key. Pure and
// total; identical inputs produce identical keys across process restarts.
func DeriveKey(contractID, query string) string {
	sum := sha256.Sum256([]byte(contractID + ":" + NormalizeQuery(query)))
	return hex.EncodeToString(sum[:])
}
