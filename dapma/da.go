// Package dapma provides a double-array Aho-Corasick pattern matching
// automaton over sequences of int32 symbols. Symbols may be Unicode scalar
// values, UTF-8 bytes, or character category identifiers; the automaton maps
// them to a dense internal alphabet so the double array stays compact even
// for sparse alphabets.
//
// The automaton is a set of value-typed contiguous tables. State transitions
// use the classic base/check layout, failure links are state indices into the
// same tables, and pattern occurrences are chained through a shared output
// list so that every occurrence ending at a position is reported, including
// occurrences of patterns that are suffixes of other patterns.
package dapma

type output struct {
	value int32
	next  int32
}

// DoubleArray is an immutable pattern matching automaton. Build it once with
// Build; afterwards it is safe for concurrent use.
type DoubleArray struct {
	base    []int32
	check   []int32
	fail    []int32
	outHead []int32
	outputs []output
	codes   map[int32]int32
	lengths []int32
}

// Length returns the number of double-array units.
func (da *DoubleArray) Length() int {
	return len(da.base)
}

// NumPatterns returns the number of patterns the automaton accepts.
func (da *DoubleArray) NumPatterns() int {
	return len(da.lengths)
}

// PatternLength returns the symbol length of the pattern registered with the
// given value.
func (da *DoubleArray) PatternLength(value int) int {
	return int(da.lengths[value])
}

func (da *DoubleArray) nextState(state int32, code int32) int32 {
	for {
		if b := da.base[state]; b >= 0 {
			t := b + code
			if int(t) < len(da.check) && da.check[t] == state {
				return t
			}
		}
		if state == 0 {
			return 0
		}
		state = da.fail[state]
	}
}

// Scanner feeds an automaton one symbol at a time and reports every pattern
// occurrence ending at the fed symbol. A Scanner is cheap to create; use one
// per scan, they are not safe for concurrent use.
type Scanner struct {
	da    *DoubleArray
	state int32
}

// NewScanner returns a Scanner positioned at the automaton root.
func (da *DoubleArray) NewScanner() Scanner {
	return Scanner{da: da}
}

// Reset moves the scanner back to the root state.
func (s *Scanner) Reset() {
	s.state = 0
}

// Feed advances the scanner by one symbol and calls fn once for each pattern
// occurrence ending at that symbol, passing the pattern's registered value.
func (s *Scanner) Feed(sym int32, fn func(value int)) {
	da := s.da
	code, ok := da.codes[sym]
	if !ok {
		// The symbol occurs in no pattern, so no state but the root
		// has an outgoing transition for it.
		s.state = 0
		return
	}
	s.state = da.nextState(s.state, code)
	for out := da.outHead[s.state]; out >= 0; out = da.outputs[out].next {
		fn(int(da.outputs[out].value))
	}
}

// FindOverlapping scans seq from the beginning and calls fn for every pattern
// occurrence, passing the pattern's registered value and the exclusive end
// position of the occurrence within seq.
func (da *DoubleArray) FindOverlapping(seq []int32, fn func(value, end int)) {
	s := da.NewScanner()
	for i, sym := range seq {
		end := i + 1
		s.Feed(sym, func(value int) {
			fn(value, end)
		})
	}
}
