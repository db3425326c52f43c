package govaporetto

import "golang.org/x/text/unicode/norm"

// Pre- and post-processing around prediction is modeled as two small
// capabilities: transforming the raw text before a sentence is built, and
// transforming a decided sentence in place. Callers chain any number of
// either; the engine itself applies none.

// StringFilter transforms raw text before sentence construction.
type StringFilter interface {
	FilterString(text string) string
}

// StringFilterFunc adapts a function to the StringFilter capability.
type StringFilterFunc func(string) string

func (f StringFilterFunc) FilterString(text string) string {
	return f(text)
}

// SentenceFilter transforms a decided sentence in place.
type SentenceFilter interface {
	FilterSentence(s *Sentence)
}

// SentenceFilterFunc adapts a function to the SentenceFilter capability.
type SentenceFilterFunc func(*Sentence)

func (f SentenceFilterFunc) FilterSentence(s *Sentence) {
	f(s)
}

// UnicodeNormalizeFilter normalizes raw text to a Unicode normalization
// form. Models are usually trained on NFKC-normalized corpora; apply the
// same form before prediction.
type UnicodeNormalizeFilter struct {
	Form norm.Form
}

// NewUnicodeNormalizeFilter returns a filter applying NFKC.
func NewUnicodeNormalizeFilter() *UnicodeNormalizeFilter {
	return &UnicodeNormalizeFilter{Form: norm.NFKC}
}

func (f *UnicodeNormalizeFilter) FilterString(text string) string {
	return f.Form.String(text)
}
