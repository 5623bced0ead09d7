package textfrontend

// Width is the number of articulatory features per token.
const Width = 66

// Feature dimensions. Dimensions below numProsodic describe prosody
// attached to a phone and are ignored when decoding vectors to ids.
const (
	featPrimaryStress = iota
	featSecondaryStress
	featLengthened
	featHalfLength
	featShortened
	featToneHigh
	featToneMid
	featToneLow
	featToneRising
	featToneFalling

	featWordBoundary
	featPause
	featQuestion
	featExclamation
	featFullStop
	featPlaceholder
	featVowel
	featConsonant
	featVoiced
	featUnvoiced

	// place of articulation
	featBilabial
	featLabiodental
	featDental
	featAlveolar
	featPostalveolar
	featRetroflex
	featPalatal
	featVelar
	featUvular
	featPharyngal
	featGlottal
	featLabiovelar

	// manner of articulation
	featPlosive
	featNasal
	featTrill
	featFlap
	featFricative
	featLateral
	featApproximant
	featAffricate
	featImplosive
	featEjective
	featAspirated

	// vowel frontness
	featFront
	featNearFront
	featCentral
	featNearBack
	featBack

	// vowel openness
	featClose
	featNearClose
	featCloseMid
	featMid
	featOpenMid
	featNearOpen
	featOpen

	featRounded
	featUnrounded
	featNasalized
	featRhotic
	featPalatalized
	featVelarized
	featLabialized
	featSyllabic
	featSibilant
	featTense
	featLax

	numFeatures
)

const numProsodic = featWordBoundary

// Special token names.
const (
	WordBoundary = "~"
	Placeholder  = "<unk>"
)

type phoneDef struct {
	name  string
	feats []int
}

// vowel returns the feature set of a plain oral vowel.
func vowel(front, open int, rounded bool) []int {
	r := featUnrounded
	if rounded {
		r = featRounded
	}
	return []int{featVowel, featVoiced, featSyllabic, front, open, r}
}

func cons(voiced bool, place, manner int, extra ...int) []int {
	v := featUnvoiced
	if voiced {
		v = featVoiced
	}
	return append([]int{featConsonant, v, place, manner}, extra...)
}

// inventory lists every token in id order. Ids are positions in this table
// and are therefore stable across runs.
var inventory = []phoneDef{
	{WordBoundary, []int{featWordBoundary}},
	{",", []int{featPause}},
	{".", []int{featPause, featFullStop}},
	{"?", []int{featPause, featQuestion}},
	{"!", []int{featPause, featExclamation}},
	{Placeholder, []int{featPlaceholder}},

	// vowels
	{"i", vowel(featFront, featClose, false)},
	{"y", vowel(featFront, featClose, true)},
	{"ɨ", vowel(featCentral, featClose, false)},
	{"ʉ", vowel(featCentral, featClose, true)},
	{"ɯ", vowel(featBack, featClose, false)},
	{"u", vowel(featBack, featClose, true)},
	{"ɪ", vowel(featNearFront, featNearClose, false)},
	{"ʏ", vowel(featNearFront, featNearClose, true)},
	{"ʊ", vowel(featNearBack, featNearClose, true)},
	{"e", vowel(featFront, featCloseMid, false)},
	{"ø", vowel(featFront, featCloseMid, true)},
	{"ɘ", vowel(featCentral, featCloseMid, false)},
	{"ɵ", vowel(featCentral, featCloseMid, true)},
	{"ɤ", vowel(featBack, featCloseMid, false)},
	{"o", vowel(featBack, featCloseMid, true)},
	{"ə", vowel(featCentral, featMid, false)},
	{"ɚ", append(vowel(featCentral, featMid, false), featRhotic)},
	{"ɛ", vowel(featFront, featOpenMid, false)},
	{"œ", vowel(featFront, featOpenMid, true)},
	{"ɜ", vowel(featCentral, featOpenMid, false)},
	{"ɞ", vowel(featCentral, featOpenMid, true)},
	{"ʌ", vowel(featBack, featOpenMid, false)},
	{"ɔ", vowel(featBack, featOpenMid, true)},
	{"æ", vowel(featFront, featNearOpen, false)},
	{"ɐ", vowel(featCentral, featNearOpen, false)},
	{"a", vowel(featFront, featOpen, false)},
	{"ɶ", vowel(featFront, featOpen, true)},
	{"ɑ", vowel(featBack, featOpen, false)},
	{"ɒ", vowel(featBack, featOpen, true)},
	{"ɛ̃", append(vowel(featFront, featOpenMid, false), featNasalized)},
	{"ɑ̃", append(vowel(featBack, featOpen, false), featNasalized)},
	{"ɔ̃", append(vowel(featBack, featOpenMid, true), featNasalized)},
	{"œ̃", append(vowel(featFront, featOpenMid, true), featNasalized)},

	// plosives
	{"p", cons(false, featBilabial, featPlosive)},
	{"b", cons(true, featBilabial, featPlosive)},
	{"t", cons(false, featAlveolar, featPlosive)},
	{"d", cons(true, featAlveolar, featPlosive)},
	{"ʈ", cons(false, featRetroflex, featPlosive)},
	{"ɖ", cons(true, featRetroflex, featPlosive)},
	{"c", cons(false, featPalatal, featPlosive)},
	{"ɟ", cons(true, featPalatal, featPlosive)},
	{"k", cons(false, featVelar, featPlosive)},
	{"g", cons(true, featVelar, featPlosive)},
	{"q", cons(false, featUvular, featPlosive)},
	{"ɢ", cons(true, featUvular, featPlosive)},
	{"ʔ", cons(false, featGlottal, featPlosive)},
	{"pʰ", cons(false, featBilabial, featPlosive, featAspirated)},
	{"tʰ", cons(false, featAlveolar, featPlosive, featAspirated)},
	{"kʰ", cons(false, featVelar, featPlosive, featAspirated)},

	// nasals
	{"m", cons(true, featBilabial, featNasal)},
	{"ɱ", cons(true, featLabiodental, featNasal)},
	{"n", cons(true, featAlveolar, featNasal)},
	{"ɳ", cons(true, featRetroflex, featNasal)},
	{"ɲ", cons(true, featPalatal, featNasal)},
	{"ŋ", cons(true, featVelar, featNasal)},
	{"ɴ", cons(true, featUvular, featNasal)},

	// trills and flaps
	{"ʙ", cons(true, featBilabial, featTrill)},
	{"r", cons(true, featAlveolar, featTrill)},
	{"ʀ", cons(true, featUvular, featTrill)},
	{"ɾ", cons(true, featAlveolar, featFlap)},
	{"ɽ", cons(true, featRetroflex, featFlap)},

	// fricatives
	{"ɸ", cons(false, featBilabial, featFricative)},
	{"β", cons(true, featBilabial, featFricative)},
	{"f", cons(false, featLabiodental, featFricative)},
	{"v", cons(true, featLabiodental, featFricative)},
	{"θ", cons(false, featDental, featFricative)},
	{"ð", cons(true, featDental, featFricative)},
	{"s", cons(false, featAlveolar, featFricative, featSibilant)},
	{"z", cons(true, featAlveolar, featFricative, featSibilant)},
	{"ʃ", cons(false, featPostalveolar, featFricative, featSibilant)},
	{"ʒ", cons(true, featPostalveolar, featFricative, featSibilant)},
	{"ʂ", cons(false, featRetroflex, featFricative, featSibilant)},
	{"ʐ", cons(true, featRetroflex, featFricative, featSibilant)},
	{"ç", cons(false, featPalatal, featFricative)},
	{"ʝ", cons(true, featPalatal, featFricative)},
	{"x", cons(false, featVelar, featFricative)},
	{"ɣ", cons(true, featVelar, featFricative)},
	{"χ", cons(false, featUvular, featFricative)},
	{"ʁ", cons(true, featUvular, featFricative)},
	{"ħ", cons(false, featPharyngal, featFricative)},
	{"ʕ", cons(true, featPharyngal, featFricative)},
	{"h", cons(false, featGlottal, featFricative)},
	{"ɦ", cons(true, featGlottal, featFricative)},
	{"ɬ", cons(false, featAlveolar, featFricative, featLateral)},
	{"ɮ", cons(true, featAlveolar, featFricative, featLateral)},

	// affricates
	{"pf", cons(false, featLabiodental, featAffricate)},
	{"ts", cons(false, featAlveolar, featAffricate, featSibilant)},
	{"dz", cons(true, featAlveolar, featAffricate, featSibilant)},
	{"tʃ", cons(false, featPostalveolar, featAffricate, featSibilant)},
	{"dʒ", cons(true, featPostalveolar, featAffricate, featSibilant)},

	// approximants
	{"ʋ", cons(true, featLabiodental, featApproximant)},
	{"ɹ", cons(true, featAlveolar, featApproximant)},
	{"ɻ", cons(true, featRetroflex, featApproximant)},
	{"j", cons(true, featPalatal, featApproximant)},
	{"ɰ", cons(true, featVelar, featApproximant)},
	{"l", cons(true, featAlveolar, featApproximant, featLateral)},
	{"ɭ", cons(true, featRetroflex, featApproximant, featLateral)},
	{"ʎ", cons(true, featPalatal, featApproximant, featLateral)},
	{"ʟ", cons(true, featVelar, featApproximant, featLateral)},
	{"w", cons(true, featLabiovelar, featApproximant, featRounded)},
	{"ʍ", cons(false, featLabiovelar, featApproximant, featRounded)},
	{"ɥ", cons(true, featPalatal, featApproximant, featRounded)},
}

// aliases map alternative spellings onto inventory phones.
var aliases = map[string]string{
	"ɡ": "g", // U+0261 LATIN SMALL LETTER SCRIPT G
	"ʧ": "tʃ",
	"ʤ": "dʒ",
	"ʦ": "ts",
	";": ",",
	":": ",",
	"(": ",",
	")": ",",
	"…": ".",
}

type modifierPos int

const (
	// modBefore applies to the next vowel in the word (stress marks).
	modBefore modifierPos = iota
	// modAfterPhone applies to the previous phone (length marks).
	modAfterPhone
	// modAfterVowel applies to the previous vowel (tone marks).
	modAfterVowel
)

type modifierDef struct {
	pos  modifierPos
	feat int
}

var modifiers = map[string]modifierDef{
	"ˈ":  {modBefore, featPrimaryStress},
	"ˌ":  {modBefore, featSecondaryStress},
	"ː":  {modAfterPhone, featLengthened},
	"ˑ":  {modAfterPhone, featHalfLength},
	"\u0306": {modAfterPhone, featShortened},
	"˥":  {modAfterVowel, featToneHigh},
	"˦":  {modAfterVowel, featToneHigh},
	"˧":  {modAfterVowel, featToneMid},
	"˨":  {modAfterVowel, featToneLow},
	"˩":  {modAfterVowel, featToneLow},
	"˩˥": {modAfterVowel, featToneRising},
	"˨˦": {modAfterVowel, featToneRising},
	"˧˥": {modAfterVowel, featToneRising},
	"˥˩": {modAfterVowel, featToneFalling},
	"˦˨": {modAfterVowel, featToneFalling},
	"˥˧": {modAfterVowel, featToneFalling},
}

func vectorOf(feats []int) []float32 {
	v := make([]float32, Width)
	for _, f := range feats {
		v[f] = 1
	}
	return v
}
