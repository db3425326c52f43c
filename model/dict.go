package model

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/msnoigrs/govaporetto/internal/lnreader"
)

// DumpDictionary returns a copy of the dictionary table as-is, in model
// order. Mutating the returned records does not affect the model.
func (m *Model) DumpDictionary() []WordWeightRecord {
	dict := make([]WordWeightRecord, len(m.Dict))
	for i, d := range m.Dict {
		dict[i] = WordWeightRecord{
			Word:    d.Word,
			Weights: append([]int32(nil), d.Weights...),
			Comment: d.Comment,
		}
	}
	return dict
}

// ReplaceDictionary validates the replacement table and returns a new model
// with the dictionary swapped in. The n-gram tables, windows, bias, and tag
// submodel are shared with the receiver; the receiver is not modified.
// A predictor built from the returned model rebuilds the word-pattern
// automaton from the new table.
func (m *Model) ReplaceDictionary(dict []WordWeightRecord) (*Model, error) {
	if err := validateDict(dict, func(format string, args ...interface{}) error {
		return newDictError(format, args...)
	}); err != nil {
		return nil, err
	}
	nm := *m
	nm.Dict = make([]WordWeightRecord, len(dict))
	for i, d := range dict {
		nm.Dict[i] = WordWeightRecord{
			Word:    d.Word,
			Weights: append([]int32(nil), d.Weights...),
			Comment: d.Comment,
		}
	}
	return &nm, nil
}

// ReadDictionaryCSV parses dictionary records from the textual editing form:
// one record per line, `word,weight0 weight1 ...,comment`, UTF-8, with the
// number of weights equal to the word length in code points plus one. Lines
// that are empty or start with '#' are skipped. The comment field may contain
// commas; the field separators are the first two commas of the line.
func ReadDictionaryCSV(r io.Reader) ([]WordWeightRecord, error) {
	lr := lnreader.NewLineNumberReader(r)
	var dict []WordWeightRecord
	seen := make(map[string]struct{})
	for {
		line, err := lr.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if lnreader.IsSkipLine(line) {
			continue
		}
		i1 := bytes.IndexByte(line, ',')
		if i1 < 0 {
			return nil, newDictError("line %d: missing weight field", lr.NumLine)
		}
		word := string(line[:i1])
		if word == "" {
			return nil, newDictError("line %d: empty word", lr.NumLine)
		}
		if _, ok := seen[word]; ok {
			return nil, newDictError("line %d: duplicate word %q", lr.NumLine, word)
		}
		seen[word] = struct{}{}
		rest := line[i1+1:]
		var comment string
		weightField := rest
		if i2 := bytes.IndexByte(rest, ','); i2 >= 0 {
			weightField = rest[:i2]
			comment = string(rest[i2+1:])
		}
		fields := strings.Fields(string(weightField))
		weights := make([]int32, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseInt(f, 10, 32)
			if err != nil {
				return nil, newDictError("line %d: weight %q is not a 32-bit integer", lr.NumLine, f)
			}
			weights = append(weights, int32(v))
		}
		if want := len([]rune(word)) + 1; len(weights) != want {
			return nil, newDictError("line %d: word %q has %d weights, want %d",
				lr.NumLine, word, len(weights), want)
		}
		dict = append(dict, WordWeightRecord{Word: word, Weights: weights, Comment: comment})
	}
	return dict, nil
}

// WriteDictionaryCSV writes records in the textual editing form read by
// ReadDictionaryCSV.
func WriteDictionaryCSV(w io.Writer, dict []WordWeightRecord) error {
	var sb strings.Builder
	for _, d := range dict {
		sb.WriteString(d.Word)
		sb.WriteByte(',')
		for i, wt := range d.Weights {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatInt(int64(wt), 10))
		}
		sb.WriteByte(',')
		sb.WriteString(d.Comment)
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
