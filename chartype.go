package govaporetto

// CharType is the category of a code point used by character type n-gram
// features. The mapping is frozen; models trained against it are only valid
// when prediction uses the identical table.
type CharType uint8

const (
	// TypeDigit is a decimal digit, ASCII or full-width.
	TypeDigit CharType = iota + 1
	// TypeRoman is a Latin letter, ASCII or full-width.
	TypeRoman
	// TypeHiragana is a Japanese hiragana character.
	TypeHiragana
	// TypeKatakana is a Japanese katakana character, including the
	// long-sound mark and half-width forms.
	TypeKatakana
	// TypeKanji is a CJK ideograph.
	TypeKanji
	// TypeOther is everything else.
	TypeOther
)

// NumCharTypes is the number of character categories.
const NumCharTypes = 6

func (t CharType) String() string {
	switch t {
	case TypeDigit:
		return "DIGIT"
	case TypeRoman:
		return "ROMAN"
	case TypeHiragana:
		return "HIRAGANA"
	case TypeKatakana:
		return "KATAKANA"
	case TypeKanji:
		return "KANJI"
	case TypeOther:
		return "OTHER"
	}
	return "UNDEFINED"
}

// TypeOf returns the category of c.
func TypeOf(c rune) CharType {
	switch {
	case c >= 0x30 && c <= 0x39 || c >= 0xFF10 && c <= 0xFF19:
		return TypeDigit
	case c >= 0x41 && c <= 0x5A || c >= 0x61 && c <= 0x7A ||
		c >= 0xFF21 && c <= 0xFF3A || c >= 0xFF41 && c <= 0xFF5A:
		return TypeRoman
	case c >= 0x3040 && c <= 0x3096:
		return TypeHiragana
	case c >= 0x30A0 && c <= 0x30FA || c >= 0x30FC && c <= 0x30FF ||
		c >= 0xFF66 && c <= 0xFF9F:
		return TypeKatakana
	case c >= 0x3400 && c <= 0x4DBF || // CJK Unified Ideographs Extension A
		c >= 0x4E00 && c <= 0x9FFF || // CJK Unified Ideographs
		c >= 0xF900 && c <= 0xFAFF || // CJK Compatibility Ideographs
		c >= 0x20000 && c <= 0x2A6DF || // Extension B
		c >= 0x2A700 && c <= 0x2B73F || // Extension C
		c >= 0x2B740 && c <= 0x2B81F || // Extension D
		c >= 0x2B820 && c <= 0x2CEAF || // Extension E
		c >= 0x2F800 && c <= 0x2FA1F: // CJK Compatibility Ideographs Supplement
		return TypeKanji
	}
	return TypeOther
}
