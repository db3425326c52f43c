package govaporetto

import (
	"github.com/msnoigrs/govaporetto/dapma"
	"github.com/msnoigrs/govaporetto/model"
)

// typeScorer accumulates the contributions of character category n-gram
// patterns. The scanning implementation walks the category sequence through
// the automaton; the cache implementation precomputes the cumulative score of
// every possible category window. Both produce bit-identical scores.
type typeScorer interface {
	addScores(s *Sentence, pad int, ys []int32)
}

type typeScorerScan struct {
	pma     *dapma.DoubleArray
	weights []positionalWeight
}

func newTypeScorerScan(m *model.Model) (*typeScorerScan, error) {
	ts := &typeScorerScan{}
	if len(m.TypeNgrams) == 0 {
		return ts, nil
	}
	keys := make([][]int32, len(m.TypeNgrams))
	values := make([]int, len(m.TypeNgrams))
	ts.weights = make([]positionalWeight, len(m.TypeNgrams))
	for i, d := range m.TypeNgrams {
		syms := make([]int32, len(d.Pattern))
		for j, b := range d.Pattern {
			syms[j] = int32(b)
		}
		keys[i] = syms
		values[i] = i
		ts.weights[i] = positionalWeight{offset: -int(m.TypeWindow), weights: d.Weights}
	}
	ts.pma = &dapma.DoubleArray{}
	if err := ts.pma.Build(keys, values); err != nil {
		return nil, err
	}
	return ts, nil
}

func (ts *typeScorerScan) addScores(s *Sentence, pad int, ys []int32) {
	if ts.pma == nil {
		return
	}
	sc := ts.pma.NewScanner()
	var at int
	handle := func(v int) {
		ts.weights[v].add(ys, at)
	}
	for i, t := range s.types {
		at = pad + i
		sc.Feed(int32(t), handle)
	}
}

// The cumulative type-ngram contribution at a boundary is a pure function of
// the window categories around it. With the category alphabet packed into 3
// bits (0 marks positions outside the sentence), every window of 2*w
// categories is a table index; the table is filled by running the scanning
// scorer over every representable window once at construction time.
const (
	cacheAlphabetShift = 3
	cacheAlphabetMask  = 1<<cacheAlphabetShift - 1
	cacheMaxWindow     = 3
)

type typeScorerCache struct {
	scores []int32
	window int
	mask   int
}

func newTypeScorerCache(m *model.Model) (*typeScorerCache, error) {
	scan, err := newTypeScorerScan(m)
	if err != nil {
		return nil, err
	}
	w := int(m.TypeWindow)
	seqLen := 2 * w
	ts := &typeScorerCache{
		scores: make([]int32, 1<<(cacheAlphabetShift*seqLen)),
		window: w,
		mask:   1<<(cacheAlphabetShift*seqLen) - 1,
	}
	seq := make([]int32, seqLen)
	for id := range ts.scores {
		if !cacheSequence(id, seq) {
			continue
		}
		var y int32
		if scan.pma != nil {
			scan.pma.FindOverlapping(seq, func(v, end int) {
				// The table entry is the score of the window's
				// central boundary; a match ending at position
				// end contributes the weight that the anchor
				// rule places there.
				j := seqLen - end
				if ws := scan.weights[v].weights; j < len(ws) {
					y += ws[j]
				}
			})
		}
		ts.scores[id] = y
	}
	return ts, nil
}

// cacheSequence decodes a table index into a category sequence. Digit 0 is
// the out-of-sentence sentinel; digit 7 encodes no category and marks the
// index unreachable.
func cacheSequence(id int, seq []int32) bool {
	for i := len(seq) - 1; i >= 0; i-- {
		d := id & cacheAlphabetMask
		if d == cacheAlphabetMask {
			return false
		}
		seq[i] = int32(d)
		id >>= cacheAlphabetShift
	}
	return true
}

func (ts *typeScorerCache) push(seqid int, ct int) int {
	return (seqid<<cacheAlphabetShift | ct) & ts.mask
}

func (ts *typeScorerCache) addScores(s *Sentence, pad int, ys []int32) {
	n := len(s.chars)
	seqid := 0
	for i := 0; i < ts.window; i++ {
		ct := 0
		if i < n {
			ct = int(s.types[i])
		}
		seqid = ts.push(seqid, ct)
	}
	for i := 0; i < n-1; i++ {
		ct := 0
		if i+ts.window < n {
			ct = int(s.types[i+ts.window])
		}
		seqid = ts.push(seqid, ct)
		ys[pad+i] += ts.scores[seqid]
	}
}

func newTypeScorer(m *model.Model, cache bool) (typeScorer, error) {
	if cache && int(m.TypeWindow) <= cacheMaxWindow {
		return newTypeScorerCache(m)
	}
	return newTypeScorerScan(m)
}
