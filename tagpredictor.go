package govaporetto

import (
	"sort"

	"github.com/msnoigrs/govaporetto/dapma"
	"github.com/msnoigrs/govaporetto/model"
)

// tagGroupScorer scores one tag group. The group's left, right, and self
// pattern tables are merged into a single automaton; each pattern id maps to
// up to three per-class weight vectors, one per table of origin.
type tagGroupScorer struct {
	classes     []string
	bias        []int32
	leftWindow  int
	rightWindow int
	pma         *dapma.DoubleArray
	left        [][]int32
	right       [][]int32
	self        [][]int32
}

type tagPredictor struct {
	groups []tagGroupScorer
}

func newTagPredictor(m *model.Model) (*tagPredictor, error) {
	tp := &tagPredictor{groups: make([]tagGroupScorer, len(m.Tags))}
	for gi := range m.Tags {
		g := &m.Tags[gi]
		sc := tagGroupScorer{
			classes:     g.Classes,
			bias:        g.Bias,
			leftWindow:  int(g.LeftWindow),
			rightWindow: int(g.RightWindow),
		}
		if len(g.Classes) > 1 {
			if err := sc.build(g); err != nil {
				return nil, err
			}
		}
		tp.groups[gi] = sc
	}
	return tp, nil
}

func (sc *tagGroupScorer) build(g *model.TagGroup) error {
	ids := make(map[string]int)
	for _, table := range [][]model.TagNgram{g.Left, g.Right, g.Self} {
		for _, d := range table {
			if _, ok := ids[d.Pattern]; !ok {
				ids[d.Pattern] = len(ids)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	patterns := make([]string, len(ids))
	for p, id := range ids {
		patterns[id] = p
	}
	// Rebuild the id map over sorted patterns so equal tables always
	// produce the same automaton.
	sort.Strings(patterns)
	for id, p := range patterns {
		ids[p] = id
	}
	sc.left = make([][]int32, len(ids))
	sc.right = make([][]int32, len(ids))
	sc.self = make([][]int32, len(ids))
	for ti, table := range [][]model.TagNgram{g.Left, g.Right, g.Self} {
		dst := [3][][]int32{sc.left, sc.right, sc.self}[ti]
		for _, d := range table {
			dst[ids[d.Pattern]] = d.Weights
		}
	}
	keys := make([][]int32, len(patterns))
	values := make([]int, len(patterns))
	for i, p := range patterns {
		keys[i] = patternSymbols(p, false)
		values[i] = i
	}
	sc.pma = &dapma.DoubleArray{}
	return sc.pma.Build(keys, values)
}

// scan adds the weights of every occurrence of a table's patterns inside the
// window to the class scores.
func (sc *tagGroupScorer) scan(chars []rune, table [][]int32, scores []int32) {
	if sc.pma == nil {
		return
	}
	s := sc.pma.NewScanner()
	handle := func(v int) {
		ws := table[v]
		if ws == nil {
			return
		}
		for i, w := range ws {
			scores[i] += w
		}
	}
	for _, c := range chars {
		s.Feed(int32(c), handle)
	}
}

// predict assigns one class per tag group to every token of the decided
// sentence: the class with the highest score, ties broken by class-list
// order.
func (tp *tagPredictor) predict(s *Sentence) {
	n := len(s.chars)
	for _, t := range s.Tokens() {
		tags := make([]string, len(tp.groups))
		for gi := range tp.groups {
			g := &tp.groups[gi]
			if len(g.classes) == 1 {
				tags[gi] = g.classes[0]
				continue
			}
			scores := append([]int32(nil), g.bias...)
			lo := t.Start - g.leftWindow
			if lo < 0 {
				lo = 0
			}
			hi := t.End + g.rightWindow
			if hi > n {
				hi = n
			}
			g.scan(s.chars[lo:t.Start], g.left, scores)
			g.scan(s.chars[t.End:hi], g.right, scores)
			g.scan(s.chars[t.Start:t.End], g.self, scores)
			best := 0
			for i := 1; i < len(scores); i++ {
				if scores[i] > scores[best] {
					best = i
				}
			}
			tags[gi] = g.classes[best]
		}
		s.setTokenTags(t.End-1, tags)
	}
}
