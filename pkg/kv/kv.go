// Package kv is a small key-value store with hierarchical keys. Keys are
// string slices such as {"render", "1760000000", "id"} stored ':'-joined.
//
// Memory is for tests and throwaway sessions; Badger persists to disk with
// BadgerDB.
package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("kv: not found")

	// ErrInvalidKey is returned for empty keys or segments containing the
	// separator.
	ErrInvalidKey = errors.New("kv: invalid key")
)

// Separator joins key segments.
const Separator = ":"

// Key is a hierarchical path.
type Key []string

// String returns the encoded key.
func (k Key) String() string {
	return strings.Join(k, Separator)
}

func (k Key) validate() error {
	if len(k) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	for _, seg := range k {
		if seg == "" || strings.Contains(seg, Separator) {
			return fmt.Errorf("%w: segment %q in %s", ErrInvalidKey, seg, k)
		}
	}
	return nil
}

// prefixOf returns the encoded scan prefix for p. The trailing separator
// keeps {"a","b"} from matching "a:bc". An empty prefix scans everything.
func prefixOf(p Key) string {
	if len(p) == 0 {
		return ""
	}
	return p.String() + Separator
}

func parseKey(s string) Key {
	return Key(strings.Split(s, Separator))
}

// Entry is a key-value pair returned by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a value, replacing any existing one.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key Key) error

	// List iterates over entries under prefix in lexicographic key order.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchDelete atomically removes keys.
	BatchDelete(ctx context.Context, keys []Key) error

	// Close releases resources.
	Close() error
}
