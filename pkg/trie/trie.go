// Package trie provides a generic rune trie for prefix lookup over symbol
// inventories. Keys are arbitrary strings; the trie is keyed by rune so that
// multi-byte symbols such as IPA phones are matched as whole characters.
//
// The main use is greedy tokenization: LongestPrefix returns the longest
// stored key that prefixes its input.
package trie

import (
	"sort"
	"strings"
)

// Trie is a generic prefix tree mapping string keys to values of type T.
// A Trie is not safe for concurrent mutation; concurrent reads are fine.
type Trie[T any] struct {
	children map[rune]*Trie[T]
	set      bool // whether this node has a value set
	value    T    // the value stored at this node
}

// New creates a new empty Trie.
func New[T any]() *Trie[T] {
	return &Trie[T]{}
}

// Set stores a value at key using the provided setFunc. The setFunc is called
// with a pointer to the value and a boolean indicating whether a value
// already existed at this key. An error from setFunc leaves the node unset
// if it was unset before.
func (t *Trie[T]) Set(key string, setFunc func(ptr *T, existed bool) error) error {
	node := t
	for _, r := range key {
		if node.children == nil {
			node.children = make(map[rune]*Trie[T])
		}
		ch, ok := node.children[r]
		if !ok {
			ch = &Trie[T]{}
			node.children[r] = ch
		}
		node = ch
	}
	if err := setFunc(&node.value, node.set); err != nil {
		return err
	}
	node.set = true
	return nil
}

// SetValue is a convenience method that stores a value at key.
func (t *Trie[T]) SetValue(key string, value T) {
	_ = t.Set(key, func(ptr *T, _ bool) error {
		*ptr = value
		return nil
	})
}

// Get retrieves the value stored at exactly key.
func (t *Trie[T]) Get(key string) (*T, bool) {
	node := t
	for _, r := range key {
		ch, ok := node.children[r]
		if !ok {
			return nil, false
		}
		node = ch
	}
	if !node.set {
		return nil, false
	}
	return &node.value, true
}

// GetValue retrieves the value stored at exactly key.
// Returns the zero value and false if key is absent.
func (t *Trie[T]) GetValue(key string) (T, bool) {
	ptr, ok := t.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	return *ptr, true
}

// LongestPrefix returns the longest stored key that is a prefix of s,
// together with its value. n is the byte length of the match.
func (t *Trie[T]) LongestPrefix(s string) (n int, value T, ok bool) {
	node := t
	if node.set {
		value, ok = node.value, true
	}
	for i, r := range s {
		ch, found := node.children[r]
		if !found {
			break
		}
		node = ch
		if node.set {
			n = i + len(string(r))
			value, ok = node.value, true
		}
	}
	return n, value, ok
}

// Walk calls f for each stored key in lexical order.
func (t *Trie[T]) Walk(f func(key string, value T)) {
	t.walk(nil, f)
}

func (t *Trie[T]) walk(prefix []rune, f func(string, T)) {
	if t.set {
		f(string(prefix), t.value)
	}
	keys := make([]rune, 0, len(t.children))
	for r := range t.children {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, r := range keys {
		t.children[r].walk(append(prefix, r), f)
	}
}

// Len returns the number of stored keys.
func (t *Trie[T]) Len() int {
	n := 0
	t.Walk(func(string, T) { n++ })
	return n
}

// String returns the stored keys in lexical order, one per line.
func (t *Trie[T]) String() string {
	var sb strings.Builder
	t.Walk(func(key string, _ T) {
		sb.WriteString(key)
		sb.WriteByte('\n')
	})
	return sb.String()
}
