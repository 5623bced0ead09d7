package textfrontend

import (
	"strings"
	"unicode/utf8"

	"github.com/haivivi/aligner/pkg/trie"
)

// graphemeRules is a greedy grapheme-to-phone converter. Graphemes with no
// rule are passed through unchanged, so punctuation and whitespace reach the
// phone parser as-is and unsupported characters surface as unknown symbols.
type graphemeRules struct {
	t *trie.Trie[string]
}

func newGraphemeRules(rules map[string]string) *graphemeRules {
	t := trie.New[string]()
	for g, p := range rules {
		t.SetValue(g, p)
	}
	return &graphemeRules{t: t}
}

func (g *graphemeRules) convert(text string) string {
	text = normalizeText(text)
	var sb strings.Builder
	for i := 0; i < len(text); {
		if n, phones, ok := g.t.LongestPrefix(text[i:]); ok && n > 0 {
			sb.WriteString(phones)
			i += n
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if r != '\'' {
			sb.WriteRune(r)
		}
		i += size
	}
	return sb.String()
}

var languages = map[string]map[string]string{
	"en": englishRules,
	"de": germanRules,
}

var englishRules = map[string]string{
	"a": "æ", "b": "b", "c": "k", "d": "d", "e": "ɛ", "f": "f", "g": "g",
	"h": "h", "i": "ɪ", "j": "dʒ", "k": "k", "l": "l", "m": "m", "n": "n",
	"o": "ɒ", "p": "p", "q": "k", "r": "ɹ", "s": "s", "t": "t", "u": "ʌ",
	"v": "v", "w": "w", "x": "ks", "y": "j", "z": "z",

	"th": "θ", "sh": "ʃ", "ch": "tʃ", "ph": "f", "wh": "w", "ng": "ŋ",
	"ck": "k", "qu": "kw", "gh": "", "kn": "n", "wr": "ɹ",
	"ee": "iː", "ea": "iː", "oo": "uː", "ou": "aʊ", "ow": "aʊ",
	"ai": "eɪ", "ay": "eɪ", "oi": "ɔɪ", "oy": "ɔɪ", "au": "ɔː", "aw": "ɔː",
	"ie": "aɪ", "igh": "aɪ", "er": "ɚ", "ir": "ɚ", "ur": "ɚ", "ar": "ɑː",
	"or": "ɔː", "oa": "əʊ", "tion": "ʃən", "the": "ðə",
}

var germanRules = map[string]string{
	"a": "a", "b": "b", "c": "k", "d": "d", "e": "ɛ", "f": "f", "g": "g",
	"h": "h", "i": "ɪ", "j": "j", "k": "k", "l": "l", "m": "m", "n": "n",
	"o": "ɔ", "p": "p", "q": "k", "r": "ʁ", "s": "z", "t": "t", "u": "ʊ",
	"v": "f", "w": "v", "x": "ks", "y": "ʏ", "z": "ts",
	"ä": "ɛ", "ö": "œ", "ü": "ʏ", "ß": "s",

	"sch": "ʃ", "ch": "ç", "ach": "ax", "och": "ɔx", "uch": "ʊx",
	"ck": "k", "ng": "ŋ", "nk": "ŋk", "pf": "pf", "ph": "f", "qu": "kv",
	"tz": "ts", "ss": "s", "st": "ʃt", "sp": "ʃp",
	"ei": "aɪ", "ai": "aɪ", "ie": "iː", "eu": "ɔʏ", "äu": "ɔʏ", "au": "aʊ",
	"aa": "aː", "ee": "eː", "oo": "oː", "ah": "aː", "eh": "eː", "ih": "iː",
	"oh": "oː", "uh": "uː", "öh": "øː", "üh": "yː", "er": "ɐ",
}
