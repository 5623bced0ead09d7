package trie

import (
	"errors"
	"testing"
)

func TestTrie_SetValue_Get(t *testing.T) {
	tr := New[int]()
	tr.SetValue("a", 1)
	tr.SetValue("aɪ", 2)
	tr.SetValue("tʃ", 3)

	tests := []struct {
		key    string
		want   int
		wantOK bool
	}{
		{"a", 1, true},
		{"aɪ", 2, true},
		{"tʃ", 3, true},
		{"t", 0, false},
		{"aɪə", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		val, ok := tr.GetValue(tc.key)
		if ok != tc.wantOK || val != tc.want {
			t.Errorf("GetValue(%q) = %v, %v; want %v, %v", tc.key, val, ok, tc.want, tc.wantOK)
		}
	}
}

func TestTrie_Set_Existed(t *testing.T) {
	tr := New[[]string]()
	add := func(v string) func(*[]string, bool) error {
		return func(ptr *[]string, _ bool) error {
			*ptr = append(*ptr, v)
			return nil
		}
	}
	if err := tr.Set("k", add("x")); err != nil {
		t.Fatal(err)
	}
	var sawExisting bool
	err := tr.Set("k", func(ptr *[]string, existed bool) error {
		sawExisting = existed
		*ptr = append(*ptr, "y")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !sawExisting {
		t.Error("second Set should see existed = true")
	}
	if got, _ := tr.GetValue("k"); len(got) != 2 {
		t.Errorf("GetValue(k) = %v, want 2 entries", got)
	}
}

func TestTrie_Set_Error(t *testing.T) {
	tr := New[int]()
	boom := errors.New("boom")
	if err := tr.Set("x", func(*int, bool) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, ok := tr.Get("x"); ok {
		t.Error("failed Set must not mark the key")
	}
}

func TestTrie_LongestPrefix(t *testing.T) {
	tr := New[string]()
	for _, k := range []string{"t", "tʃ", "tʃʰ", "ə", "əʊ"} {
		tr.SetValue(k, k)
	}

	tests := []struct {
		in     string
		wantN  int
		want   string
		wantOK bool
	}{
		{"tʃʰa", len("tʃʰ"), "tʃʰ", true},
		{"tʃa", len("tʃ"), "tʃ", true},
		{"ta", 1, "t", true},
		{"əʊ~", len("əʊ"), "əʊ", true},
		{"x", 0, "", false},
		{"", 0, "", false},
	}
	for _, tc := range tests {
		n, v, ok := tr.LongestPrefix(tc.in)
		if n != tc.wantN || v != tc.want || ok != tc.wantOK {
			t.Errorf("LongestPrefix(%q) = %d, %q, %v; want %d, %q, %v",
				tc.in, n, v, ok, tc.wantN, tc.want, tc.wantOK)
		}
	}
}

func TestTrie_WalkOrder(t *testing.T) {
	tr := New[int]()
	tr.SetValue("b", 2)
	tr.SetValue("a", 1)
	tr.SetValue("ab", 3)

	var keys []string
	tr.Walk(func(k string, _ int) { keys = append(keys, k) })
	want := []string{"a", "ab", "b"}
	if len(keys) != len(want) {
		t.Fatalf("Walk keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	if tr.Len() != 3 {
		t.Errorf("Len = %d, want 3", tr.Len())
	}
	if got := tr.String(); got != "a\nab\nb\n" {
		t.Errorf("String = %q", got)
	}
}
