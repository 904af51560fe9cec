// Package cache is the response cache in front of the pipeline: normalized
// question in, serialized response out, bounded by TTL and LRU size. Ingest
// and index-clear operations invalidate it wholesale.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Store is the cache contract shared by the memory and Redis backends.
// Values are opaque serialized responses so a hit replays the original bytes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	// Clear drops every entry. Used for cache invalidation after ingest or
	// index clear.
	Clear(ctx context.Context) error
}

// Key derives the cache key for a question: SHA-256 of the trimmed,
// lowercased text. Key(q) == Key(normalize(q)) by construction.
func Key(question string) string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
