package utils

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// hashWindow bounds how much text feeds the content hash. Rule chunks
// retrieved by different queries share their leading text even when a
// trailing overlap differs, so the window keeps dedup stable.
const hashWindow = 500

// ContentHash returns a stable identity key for a chunk's text:
// whitespace-normalised, lowercased, truncated, then hashed. Independent
// of the vector store's id scheme so dedup is testable in isolation.
func ContentHash(text string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if len(norm) > hashWindow {
		norm = norm[:hashWindow]
	}
	sum := md5.Sum([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// DeterministicUUID derives a stable UUID-shaped identifier from a chunk
// id. Weaviate requires UUID object ids; deriving them from chunk ids
// makes re-indexing an upsert instead of an append.
func DeterministicUUID(id string) string {
	sum := md5.Sum([]byte(id))
	h := hex.EncodeToString(sum[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32])
}

// NewID returns a random hex identifier for runs, reports, and documents.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}
