package govaporetto

import (
	"sort"
	"unicode/utf8"

	"github.com/msnoigrs/govaporetto/dapma"
	"github.com/msnoigrs/govaporetto/model"
)

// fixedWeightLen is the common length weight vectors are padded to in
// fix-weight-length mode. Padded vectors are added with a constant-length
// loop into the flanks of the score array; the zero padding does not change
// any score.
const fixedWeightLen = 8

// positionalWeight is an integer convolution kernel anchored at a pattern
// occurrence: weight j is added to the boundary at the occurrence's last
// character index plus offset plus j.
type positionalWeight struct {
	offset  int
	weights []int32
	fixed   bool
}

func (pw *positionalWeight) add(ys []int32, at int) {
	at += pw.offset
	if pw.fixed {
		dst := ys[at : at+fixedWeightLen]
		for j, w := range pw.weights {
			dst[j] += w
		}
		return
	}
	for j, w := range pw.weights {
		i := at + j
		if i < 0 || i >= len(ys) {
			continue
		}
		ys[i] += w
	}
}

// charScorer accumulates the contributions of character n-gram patterns and
// dictionary word patterns. Both tables are merged into one automaton; a
// pattern occurring in both carries one positional weight per origin, so the
// sums are identical to scanning the tables separately.
type charScorer struct {
	pma      *dapma.DoubleArray
	weights  [][]positionalWeight
	bytewise bool
}

func newCharScorer(m *model.Model, pad int, fixWeightLength, bytewise bool) (*charScorer, error) {
	merged := make(map[string][]positionalWeight, len(m.CharNgrams)+len(m.Dict))
	for _, d := range m.CharNgrams {
		merged[d.Pattern] = append(merged[d.Pattern], positionalWeight{
			offset:  -int(m.CharWindow),
			weights: d.Weights,
		})
	}
	for _, d := range m.Dict {
		// The dictionary kernel spans the boundaries immediately before,
		// inside, and immediately after an occurrence, which is the
		// n-gram rule with the word length as the radius.
		merged[d.Word] = append(merged[d.Word], positionalWeight{
			offset:  -len([]rune(d.Word)),
			weights: d.Weights,
		})
	}
	cs := &charScorer{bytewise: bytewise}
	if len(merged) == 0 {
		return cs, nil
	}
	patterns := make([]string, 0, len(merged))
	for p := range merged {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	keys := make([][]int32, len(patterns))
	values := make([]int, len(patterns))
	cs.weights = make([][]positionalWeight, len(patterns))
	for i, p := range patterns {
		keys[i] = patternSymbols(p, bytewise)
		values[i] = i
		pws := merged[p]
		for j := range pws {
			pws[j].fix(pad, fixWeightLength)
		}
		cs.weights[i] = pws
	}
	cs.pma = &dapma.DoubleArray{}
	if err := cs.pma.Build(keys, values); err != nil {
		return nil, err
	}
	return cs, nil
}

// fix pads the weight vector to the fixed length when the unchecked add is
// provably in bounds: the vector fits, and the anchor cannot reach left of
// the score array's flank.
func (pw *positionalWeight) fix(pad int, enabled bool) {
	if !enabled || len(pw.weights) > fixedWeightLen || pw.offset < -pad || pw.offset > 0 {
		return
	}
	ws := make([]int32, fixedWeightLen)
	copy(ws, pw.weights)
	pw.weights = ws
	pw.fixed = true
}

func patternSymbols(p string, bytewise bool) []int32 {
	if bytewise {
		syms := make([]int32, 0, len(p))
		for i := 0; i < len(p); i++ {
			syms = append(syms, int32(p[i]))
		}
		return syms
	}
	rs := []rune(p)
	syms := make([]int32, len(rs))
	for i, c := range rs {
		syms[i] = int32(c)
	}
	return syms
}

func (cs *charScorer) addScores(s *Sentence, pad int, ys []int32) {
	if cs.pma == nil {
		return
	}
	sc := cs.pma.NewScanner()
	var at int
	handle := func(v int) {
		for i := range cs.weights[v] {
			cs.weights[v][i].add(ys, at)
		}
	}
	if cs.bytewise {
		var buf [4]byte
		for i, c := range s.chars {
			at = pad + i
			n := utf8.EncodeRune(buf[:], c)
			for b := 0; b < n; b++ {
				sc.Feed(int32(buf[b]), handle)
			}
		}
		return
	}
	for i, c := range s.chars {
		at = pad + i
		sc.Feed(int32(c), handle)
	}
}
