// Package textfrontend converts transcripts into sequences of 66-wide
// articulatory feature vectors, one per phone or prosodic token, and maps
// those vectors back to token ids.
//
// Input is either orthographic text, converted to phones with a small
// per-language grapheme rule table, or a phone string in IPA. Phone strings
// are tokenized by greedy longest match over the phone inventory, so
// multi-character phones such as "tʃ" or "ɔ̃" are single tokens.
//
// Prosody marks are folded into the vector of the phone they belong to:
// stress marks (ˈ ˌ) precede a syllable and set the stress dimension of the
// next vowel of the word; length marks (ː ˑ) follow a phone; tone letters
// (˥ ˦ ˧ ˨ ˩ and contours) follow a vowel.
package textfrontend

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/haivivi/aligner/pkg/trie"
)

var (
	// ErrUnknownSymbol is returned when the input contains a symbol that is
	// not in the phone inventory and handleMissing is false.
	ErrUnknownSymbol = errors.New("textfrontend: unknown symbol")

	// ErrSyllabification is returned when a prosody mark cannot be attached
	// to a vowel or phone of its word.
	ErrSyllabification = errors.New("textfrontend: syllabification failed")
)

type symbolKind int

const (
	kindPhone symbolKind = iota
	kindModifier
)

type symbol struct {
	kind symbolKind
	id   int64
	mod  modifierDef
}

// Frontend converts transcripts to feature vectors. A Frontend is immutable
// after New and safe for concurrent use.
type Frontend struct {
	lang      string
	symbols   *trie.Trie[symbol]
	g2p       *graphemeRules
	vectors   [][]float32
	phoneToID map[string]int64
	decode    map[[Width]float32]int64
}

// New creates a Frontend for lang ("en" or "de"). The language only affects
// orthographic input; phone input is language independent.
func New(lang string) (*Frontend, error) {
	rules, ok := languages[lang]
	if !ok {
		return nil, fmt.Errorf("textfrontend: unsupported language %q", lang)
	}

	f := &Frontend{
		lang:      lang,
		symbols:   trie.New[symbol](),
		g2p:       newGraphemeRules(rules),
		vectors:   make([][]float32, len(inventory)),
		phoneToID: make(map[string]int64, len(inventory)),
		decode:    make(map[[Width]float32]int64, len(inventory)),
	}
	for i, p := range inventory {
		id := int64(i)
		vec := vectorOf(p.feats)
		f.vectors[i] = vec
		f.phoneToID[p.name] = id
		f.decode[decodeKey(vec)] = id
		if p.name != Placeholder {
			f.symbols.SetValue(p.name, symbol{kind: kindPhone, id: id})
		}
	}
	for alias, target := range aliases {
		f.symbols.SetValue(alias, symbol{kind: kindPhone, id: f.phoneToID[target]})
	}
	for mark, def := range modifiers {
		f.symbols.SetValue(mark, symbol{kind: kindModifier, mod: def})
	}
	return f, nil
}

// Language returns the frontend language.
func (f *Frontend) Language() string {
	return f.lang
}

// Inventory returns the token names ordered by id.
func (f *Frontend) Inventory() []string {
	names := make([]string, len(inventory))
	for i, p := range inventory {
		names[i] = p.name
	}
	return names
}

// PhoneToID returns the id of a token name.
func (f *Frontend) PhoneToID(name string) (int64, bool) {
	id, ok := f.phoneToID[name]
	return id, ok
}

// Vector returns a copy of the feature vector of token id.
func (f *Frontend) Vector(id int64) ([]float32, bool) {
	if id < 0 || int(id) >= len(f.vectors) {
		return nil, false
	}
	return slices.Clone(f.vectors[id]), true
}

// Features converts text into one Width-wide vector per token. When
// inputIsPhones is false, text is first converted to phones with the
// language's grapheme rules. Unknown symbols fail with ErrUnknownSymbol
// unless handleMissing is set, in which case each is replaced by the
// placeholder token.
func (f *Frontend) Features(text string, handleMissing, inputIsPhones bool) ([][]float32, error) {
	phones := text
	if !inputIsPhones {
		phones = f.g2p.convert(text)
	}
	return f.parse(phones, handleMissing)
}

// Decode maps feature vectors to token ids by exact match on their
// non-prosodic dimensions. Vectors that match no token, or have the wrong
// width, are skipped.
func (f *Frontend) Decode(vectors [][]float32) []int64 {
	ids := make([]int64, 0, len(vectors))
	for _, v := range vectors {
		if len(v) != Width {
			continue
		}
		if id, ok := f.decode[decodeKey(v)]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func decodeKey(v []float32) [Width]float32 {
	var k [Width]float32
	copy(k[numProsodic:], v[numProsodic:])
	return k
}

// sentence accumulates the token vectors of one Features call.
type sentence struct {
	f         *Frontend
	out       [][]float32
	wordStart int // index in out where the current word starts
	lastPhone int // index of the last phone in the current word, -1 if none
	lastVowel int // index of the last vowel in the current word, -1 if none
	stress    int // pending stress feature, -1 if none
}

func (f *Frontend) parse(s string, handleMissing bool) ([][]float32, error) {
	st := &sentence{f: f, lastPhone: -1, lastVowel: -1, stress: -1}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) || r == '-' {
			if err := st.endWord(true); err != nil {
				return nil, err
			}
			i += size
			continue
		}

		n, sym, ok := f.symbols.LongestPrefix(s[i:])
		if !ok {
			if !handleMissing {
				return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, r)
			}
			st.emit(f.phoneToID[Placeholder])
			i += size
			continue
		}
		i += n

		if sym.kind == kindModifier {
			if err := st.modify(sym.mod); err != nil {
				return nil, err
			}
			continue
		}
		if isPunctuation(sym.id) {
			if err := st.endWord(false); err != nil {
				return nil, err
			}
			st.dropBoundary()
			st.out = append(st.out, slices.Clone(f.vectors[sym.id]))
			st.wordStart = len(st.out)
			continue
		}
		st.emit(sym.id)
	}
	if err := st.endWord(false); err != nil {
		return nil, err
	}
	st.dropBoundary()
	return st.out, nil
}

func isPunctuation(id int64) bool {
	return id >= 1 && id <= 4
}

func (st *sentence) emit(id int64) {
	vec := slices.Clone(st.f.vectors[id])
	if vec[featVowel] == 1 {
		if st.stress >= 0 {
			vec[st.stress] = 1
			st.stress = -1
		}
		st.lastVowel = len(st.out)
	}
	st.lastPhone = len(st.out)
	st.out = append(st.out, vec)
}

func (st *sentence) modify(m modifierDef) error {
	switch m.pos {
	case modBefore:
		st.stress = m.feat
	case modAfterPhone:
		if st.lastPhone < 0 {
			return fmt.Errorf("%w: length mark without a preceding phone", ErrSyllabification)
		}
		st.out[st.lastPhone][m.feat] = 1
	case modAfterVowel:
		if st.lastVowel < 0 {
			return fmt.Errorf("%w: tone mark without a preceding vowel", ErrSyllabification)
		}
		st.out[st.lastVowel][m.feat] = 1
	}
	return nil
}

// endWord closes the current word. A word boundary token is appended when
// boundary is set and the word produced tokens.
func (st *sentence) endWord(boundary bool) error {
	if st.stress >= 0 {
		return fmt.Errorf("%w: stress mark without a following vowel", ErrSyllabification)
	}
	if boundary && len(st.out) > st.wordStart {
		st.out = append(st.out, slices.Clone(st.f.vectors[0]))
	}
	st.wordStart = len(st.out)
	st.lastPhone, st.lastVowel = -1, -1
	return nil
}

// dropBoundary removes a trailing word boundary token.
func (st *sentence) dropBoundary() {
	if n := len(st.out); n > 0 && st.out[n-1][featWordBoundary] == 1 {
		st.out = st.out[:n-1]
		st.wordStart = len(st.out)
	}
}

// String returns a short description of the frontend.
func (f *Frontend) String() string {
	return fmt.Sprintf("textfrontend(%s, %d tokens)", f.lang, len(inventory))
}

// normalizeText lowercases text and folds typographic quotes.
func normalizeText(text string) string {
	text = strings.ToLower(text)
	return strings.NewReplacer("’", "'", "‘", "'", "“", "", "”", "", "«", "", "»", "", "\"", "").Replace(text)
}
