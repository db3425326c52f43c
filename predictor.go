package govaporetto

import (
	"github.com/msnoigrs/govaporetto/model"
)

// Config selects the build-time variants of the prediction engine. Every
// knob changes internal data shapes only; predictions are bit-identical
// across all combinations. The zero value is the plain scanning engine
// without tag prediction.
type Config struct {
	// PredictTags enables the tag prediction pass after boundary
	// decisions. Requires a model with a tag submodel.
	PredictTags bool

	// CacheTypeScores precomputes the cumulative type-ngram score of
	// every possible category window into a lookup table. Applied only
	// when the type window radius is small enough for the table to stay
	// reasonable; larger radii fall back to scanning.
	CacheTypeScores bool

	// FixWeightLength pads character-side weight vectors to a common
	// length so they are added with a constant-length loop.
	FixWeightLength bool

	// BytewiseAutomaton keys the character automaton by UTF-8 bytes
	// instead of code points.
	BytewiseAutomaton bool
}

// Predictor decides word boundaries by summing pattern weights into
// per-boundary accumulators. A Predictor borrows its model's tables at
// construction and is immutable afterwards; it is safe to run any number of
// concurrent Predict calls, each with its own Sentence.
type Predictor struct {
	bias int32
	pad  int
	char *charScorer
	typ  typeScorer
	tags *tagPredictor
}

// NewPredictor validates the model and builds the pattern automata and
// weight tables for it.
func NewPredictor(m *model.Model, cfg Config) (*Predictor, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	pad := int(m.CharWindow)
	if int(m.TypeWindow) > pad {
		pad = int(m.TypeWindow)
	}
	cs, err := newCharScorer(m, pad, cfg.FixWeightLength, cfg.BytewiseAutomaton)
	if err != nil {
		return nil, err
	}
	ts, err := newTypeScorer(m, cfg.CacheTypeScores)
	if err != nil {
		return nil, err
	}
	p := &Predictor{
		bias: m.Bias,
		pad:  pad,
		char: cs,
		typ:  ts,
	}
	if cfg.PredictTags {
		if len(m.Tags) == 0 {
			return nil, newTagError("the model has no tag submodel")
		}
		p.tags, err = newTagPredictor(m)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Predict scores every boundary of s and decides the undecided ones: a
// boundary breaks iff its accumulated score is strictly positive. Boundaries
// whose label was pre-set by annotated input keep their label; their scores
// are still computed. Score accumulation uses 32-bit wrapping addition.
// Predict cannot fail on a constructed Sentence.
func (p *Predictor) Predict(s *Sentence) {
	n := len(s.chars)
	if n == 0 {
		return
	}
	nb := n - 1
	// The score array carries flanks on both sides so that kernels
	// reaching past the sentence edges land in scratch slots instead of
	// branching in the hot loop.
	ysLen := p.pad + nb + p.pad + fixedWeightLen
	if cap(s.ys) < ysLen {
		s.ys = make([]int32, ysLen)
	}
	ys := s.ys[:ysLen]
	for i := range ys {
		ys[i] = p.bias
	}
	p.char.addScores(s, p.pad, ys)
	p.typ.addScores(s, p.pad, ys)

	if cap(s.scores) < nb {
		s.scores = make([]int32, nb)
	}
	s.scores = s.scores[:nb]
	copy(s.scores, ys[p.pad:p.pad+nb])
	for i, y := range s.scores {
		if s.bounds[i] != Unknown {
			continue
		}
		if y > 0 {
			s.bounds[i] = Break
		} else {
			s.bounds[i] = NoBreak
		}
	}
	if p.tags != nil {
		p.tags.predict(s)
	}
}
