// Package model defines the tokenizer model: the pattern tables with their
// integer weight vectors, the optional tag submodel, the binary serialized
// form, and the in-place dictionary editor.
package model

import "fmt"

// Character categories are identified by the ids 1..numCharTypes; the
// authoritative table lives in the root package.
const numCharTypes = 6

// ModelError reports a malformed model: bad magic, unsupported version,
// truncated section, a weight vector whose length does not match its pattern
// length and window radius, or a duplicate pattern key.
type ModelError struct {
	msg string
}

func newModelError(format string, args ...interface{}) *ModelError {
	return &ModelError{msg: fmt.Sprintf(format, args...)}
}

func (e *ModelError) Error() string {
	return "ModelError: " + e.msg
}

// DictError reports an invalid dictionary replacement table: a duplicate
// word, a weight vector whose length is not the word length plus one, or a
// weight outside the int32 range.
type DictError struct {
	msg string
}

func newDictError(format string, args ...interface{}) *DictError {
	return &DictError{msg: fmt.Sprintf(format, args...)}
}

func (e *DictError) Error() string {
	return "DictError: " + e.msg
}

// Ngram is a character n-gram pattern with its boundary weight vector.
type Ngram struct {
	Pattern string
	Weights []int32
}

// TypeNgram is a character category n-gram pattern with its boundary weight
// vector. Pattern bytes are category ids.
type TypeNgram struct {
	Pattern []byte
	Weights []int32
}

// WordWeightRecord is one dictionary entry: a word pattern, one weight per
// internal-or-edge boundary of an occurrence (word length + 1 weights), and a
// free-text comment that does not affect prediction.
type WordWeightRecord struct {
	Word    string
	Weights []int32
	Comment string
}

// TagNgram is a pattern of a tag feature table with one weight per class of
// the owning tag group.
type TagNgram struct {
	Pattern string
	Weights []int32
}

// TagGroup is one classification task over tokens: a fixed class list with
// per-class biases and three pattern tables scanned left of the token, right
// of the token, and inside it.
type TagGroup struct {
	Name        string
	Classes     []string
	Bias        []int32
	LeftWindow  uint8
	RightWindow uint8
	Left        []TagNgram
	Right       []TagNgram
	Self        []TagNgram
}

// Model is an immutable tokenizer model. Construct it programmatically and
// check it with Validate, or load it with Read/ReadBytes/LoadFile which
// validate on the way in. A validated Model is safe to share across any
// number of concurrent predictions.
type Model struct {
	CharNgrams []Ngram
	TypeNgrams []TypeNgram
	Dict       []WordWeightRecord
	Bias       int32
	CharWindow uint8
	TypeWindow uint8
	Tags       []TagGroup
}

// ngramWeightLen is the required weight vector length of an n-gram pattern of
// plen characters under window radius w. Weights cover the boundaries from w
// left of the pattern's last character to w right of it, shrunk by the
// pattern's own extent.
func ngramWeightLen(w uint8, plen int) int {
	return 2*int(w) + 1 - plen
}

// Validate checks every invariant of the model: positive window radii,
// non-empty unique patterns, and the weight-length laws tying every weight
// vector to its pattern length and window radius.
func (m *Model) Validate() error {
	if m.CharWindow < 1 {
		return newModelError("character window radius must be positive")
	}
	if m.TypeWindow < 1 {
		return newModelError("type window radius must be positive")
	}
	seen := make(map[string]struct{}, len(m.CharNgrams))
	for _, d := range m.CharNgrams {
		plen := len([]rune(d.Pattern))
		if plen == 0 {
			return newModelError("empty character n-gram pattern")
		}
		if _, ok := seen[d.Pattern]; ok {
			return newModelError("duplicate character n-gram %q", d.Pattern)
		}
		seen[d.Pattern] = struct{}{}
		if want := ngramWeightLen(m.CharWindow, plen); len(d.Weights) != want {
			return newModelError("character n-gram %q has %d weights, want %d",
				d.Pattern, len(d.Weights), want)
		}
	}
	seen = make(map[string]struct{}, len(m.TypeNgrams))
	for _, d := range m.TypeNgrams {
		if len(d.Pattern) == 0 {
			return newModelError("empty type n-gram pattern")
		}
		for _, b := range d.Pattern {
			if b < 1 || b > numCharTypes {
				return newModelError("type n-gram %v contains invalid category %d", d.Pattern, b)
			}
		}
		if _, ok := seen[string(d.Pattern)]; ok {
			return newModelError("duplicate type n-gram %v", d.Pattern)
		}
		seen[string(d.Pattern)] = struct{}{}
		if want := ngramWeightLen(m.TypeWindow, len(d.Pattern)); len(d.Weights) != want {
			return newModelError("type n-gram %v has %d weights, want %d",
				d.Pattern, len(d.Weights), want)
		}
	}
	if err := validateDict(m.Dict, func(format string, args ...interface{}) error {
		return newModelError(format, args...)
	}); err != nil {
		return err
	}
	for _, g := range m.Tags {
		if err := g.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (g *TagGroup) validate() error {
	if len(g.Classes) == 0 {
		return newModelError("tag group %q has no classes", g.Name)
	}
	if len(g.Bias) != len(g.Classes) {
		return newModelError("tag group %q has %d biases, want %d",
			g.Name, len(g.Bias), len(g.Classes))
	}
	for _, table := range [][]TagNgram{g.Left, g.Right, g.Self} {
		seen := make(map[string]struct{}, len(table))
		for _, d := range table {
			if d.Pattern == "" {
				return newModelError("tag group %q has an empty pattern", g.Name)
			}
			if _, ok := seen[d.Pattern]; ok {
				return newModelError("tag group %q has duplicate pattern %q", g.Name, d.Pattern)
			}
			seen[d.Pattern] = struct{}{}
			if len(d.Weights) != len(g.Classes) {
				return newModelError("tag group %q pattern %q has %d weights, want %d",
					g.Name, d.Pattern, len(d.Weights), len(g.Classes))
			}
		}
	}
	return nil
}

// validateDict checks the dictionary invariants. The same checks guard both
// model load and dictionary replacement, which surface different error kinds;
// errf supplies the kind.
func validateDict(dict []WordWeightRecord, errf func(format string, args ...interface{}) error) error {
	seen := make(map[string]struct{}, len(dict))
	for _, d := range dict {
		plen := len([]rune(d.Word))
		if plen == 0 {
			return errf("empty word")
		}
		if _, ok := seen[d.Word]; ok {
			return errf("duplicate word %q", d.Word)
		}
		seen[d.Word] = struct{}{}
		if len(d.Weights) != plen+1 {
			return errf("word %q has %d weights, want %d",
				d.Word, len(d.Weights), plen+1)
		}
	}
	return nil
}
