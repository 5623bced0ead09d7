// Package kv provides a small key-value store interface with hierarchical
// keys, backed either by BadgerDB or by memory.
//
// Keys are string segments such as Key{"build", id, "worker", "3"} and are
// stored joined by '/'. Listing by a prefix matches whole segments only, so
// Key{"build", "a"} does not match Key{"build", "ab", ...}.
package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Separator joins key segments in the encoded form.
const Separator = '/'

// Key is a hierarchical path. Segments must not contain Separator.
type Key []string

// String returns the encoded key.
func (k Key) String() string {
	return strings.Join(k, string(Separator))
}

func (k Key) validate() error {
	for _, seg := range k {
		if strings.ContainsRune(seg, Separator) {
			return fmt.Errorf("kv: key segment %q contains %q", seg, Separator)
		}
	}
	return nil
}

// prefixBytes returns the encoded prefix for listing, ending in a separator
// unless the prefix is empty.
func (k Key) prefixBytes() []byte {
	if len(k) == 0 {
		return nil
	}
	return []byte(k.String() + string(Separator))
}

func parseKey(b []byte) Key {
	return Key(strings.Split(string(b), string(Separator)))
}

// Entry is a key-value pair returned by List and used by BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
// Implementations are safe for concurrent use.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair, replacing any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error

	// List iterates in key order over all entries under prefix.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchSet stores all entries in one batch.
	BatchSet(ctx context.Context, entries []Entry) error

	// Close releases resources held by the store.
	Close() error
}

// Collect drains List into a slice.
func Collect(ctx context.Context, s Store, prefix Key) ([]Entry, error) {
	var out []Entry
	for e, err := range s.List(ctx, prefix) {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
