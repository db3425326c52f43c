package govaporetto

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/msnoigrs/govaporetto/model"
)

const fixtureInput = "我らは全世界の国民"

// Input:  我  ら  は  全  世  界  の  国  民
// bias:   -200  ..  ..  ..  ..  ..  ..  ..
// chars:
//   我ら:    3   4   5
//   全世界:          6   7   8   9
//   国民:                       10  11  12
//   世界:           15  16  17  18  19
//   界:             20  21  22  23  24  25
// types:
//   H:      27  28  29
//           26  27  28  29
//                           26  27  28  29
//   K:      32  33
//               30  31  32  33
//                   30  31  32  33
//                       30  31  32  33
//                               30  31  32
//                                   30  31
//   KH:     35  36
//                           34  35  36
//   HK:         37  38  39
//                               37  38  39
// dict:
//   全世界:         43  44  44  45
//   世界:               43  44  45
//   世:                 40  42
func fixtureModel1() *model.Model {
	return &model.Model{
		CharNgrams: []model.Ngram{
			{Pattern: "我ら", Weights: []int32{1, 2, 3, 4, 5}},
			{Pattern: "全世界", Weights: []int32{6, 7, 8, 9}},
			{Pattern: "国民", Weights: []int32{10, 11, 12, 13, 14}},
			{Pattern: "世界", Weights: []int32{15, 16, 17, 18, 19}},
			{Pattern: "界", Weights: []int32{20, 21, 22, 23, 24, 25}},
		},
		TypeNgrams: []model.TypeNgram{
			{Pattern: []byte{byte(TypeHiragana)}, Weights: []int32{26, 27, 28, 29}},
			{Pattern: []byte{byte(TypeKanji)}, Weights: []int32{30, 31, 32, 33}},
			{Pattern: []byte{byte(TypeKanji), byte(TypeHiragana)}, Weights: []int32{34, 35, 36}},
			{Pattern: []byte{byte(TypeHiragana), byte(TypeKanji)}, Weights: []int32{37, 38, 39}},
		},
		Dict: []model.WordWeightRecord{
			{Word: "全世界", Weights: []int32{43, 44, 44, 45}},
			{Word: "世界", Weights: []int32{43, 44, 45}},
			{Word: "世", Weights: []int32{40, 42}},
		},
		Bias:       -200,
		CharWindow: 3,
		TypeWindow: 2,
	}
}

func fixtureModel2() *model.Model {
	return &model.Model{
		CharNgrams: []model.Ngram{
			{Pattern: "我ら", Weights: []int32{1, 2, 3}},
			{Pattern: "全世界", Weights: []int32{4, 5}},
			{Pattern: "国民", Weights: []int32{6, 7, 8}},
			{Pattern: "世界", Weights: []int32{9, 10, 11}},
			{Pattern: "界", Weights: []int32{12, 13, 14, 15}},
		},
		TypeNgrams: []model.TypeNgram{
			{Pattern: []byte{byte(TypeHiragana)}, Weights: []int32{16, 17, 18, 19, 20, 21}},
			{Pattern: []byte{byte(TypeKanji)}, Weights: []int32{22, 23, 24, 25, 26, 27}},
			{Pattern: []byte{byte(TypeKanji), byte(TypeHiragana)}, Weights: []int32{28, 29, 30, 31, 32}},
			{Pattern: []byte{byte(TypeHiragana), byte(TypeKanji)}, Weights: []int32{33, 34, 35, 36, 37}},
		},
		Dict: []model.WordWeightRecord{
			{Word: "全世界", Weights: []int32{44, 45, 45, 46}},
			{Word: "世界", Weights: []int32{41, 42, 43}},
			{Word: "世", Weights: []int32{38, 40}},
		},
		Bias:       -285,
		CharWindow: 2,
		TypeWindow: 3,
	}
}

func fixtureModel3() *model.Model {
	m := fixtureModel2()
	m.Dict = []model.WordWeightRecord{
		{Word: "国民", Weights: []int32{38, 39, 40}},
		{Word: "世界", Weights: []int32{41, 42, 43}},
		{Word: "世", Weights: []int32{44, 46}},
	}
	return m
}

func fixtureModel4() *model.Model {
	m := fixtureModel1()
	m.Dict = append(m.Dict,
		model.WordWeightRecord{Word: "世界の国民", Weights: []int32{43, 44, 44, 44, 44, 45}},
		model.WordWeightRecord{Word: "は全世界", Weights: []int32{43, 44, 44, 44, 45}},
	)
	return m
}

func predictRaw(t *testing.T, m *model.Model, cfg Config, text string) *Sentence {
	t.Helper()
	p, err := NewPredictor(m, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err2 := NewSentenceFromRaw(text)
	s = mustSentence(t, s, err2)
	p.Predict(s)
	return s
}

func labels(bs ...Label) []Label {
	return bs
}

func TestPredictReferenceScores(t *testing.T) {
	b, n := Break, NoBreak
	tests := []struct {
		name     string
		model    *model.Model
		scores   []int32
		expected []Label
	}{
		{"model1", fixtureModel1(),
			[]int32{-77, -5, 45, 132, 133, 144, 50, -32},
			labels(n, n, b, b, b, b, b, n)},
		{"model2", fixtureModel2(),
			[]int32{-138, -109, -39, 57, 104, 34, -79, -114},
			labels(n, n, n, b, b, b, n, n)},
		{"model3", fixtureModel3(),
			[]int32{-138, -109, -83, 18, 65, -12, -41, -75},
			labels(n, n, n, b, b, n, n, n)},
		{"model4", fixtureModel4(),
			[]int32{-77, 38, 89, 219, 221, 233, 94, 12},
			labels(n, b, b, b, b, b, b, b)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := predictRaw(t, tt.model, Config{}, fixtureInput)
			if !reflect.DeepEqual(s.BoundaryScores(), tt.scores) {
				t.Errorf("got %v, expected %v", s.BoundaryScores(), tt.scores)
			}
			if !reflect.DeepEqual(s.Boundaries(), tt.expected) {
				t.Errorf("got %v, expected %v", s.Boundaries(), tt.expected)
			}
		})
	}
}

// Every feature flag changes internal data shapes only; predictions and
// scores must be bit-identical across all combinations.
func TestPredictVariantEquivalence(t *testing.T) {
	// A narrow window with a long dictionary word exercises kernels whose
	// anchor reaches past the score array flanks.
	narrow := &model.Model{
		CharNgrams: []model.Ngram{
			{Pattern: "界", Weights: []int32{5, 6}},
		},
		TypeNgrams: []model.TypeNgram{
			{Pattern: []byte{byte(TypeKanji)}, Weights: []int32{1, 2}},
		},
		Dict: []model.WordWeightRecord{
			{Word: "メロンパン", Weights: []int32{0, 0, -9, 0, 0, 7}},
		},
		Bias:       -3,
		CharWindow: 1,
		TypeWindow: 1,
	}
	models := map[string]*model.Model{
		"model1": fixtureModel1(),
		"model2": fixtureModel2(),
		"model3": fixtureModel3(),
		"model4": fixtureModel4(),
		"narrow": narrow,
	}
	inputs := []string{
		fixtureInput,
		"我ら",
		"界",
		"全世界の国民は我ら",
		"ABC123界あいう",
		"は",
		"メロンパンを食べた",
		"メロンパン",
	}
	for name, m := range models {
		t.Run(name, func(t *testing.T) {
			base, err := NewPredictor(m, Config{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for mask := 1; mask < 8; mask++ {
				cfg := Config{
					CacheTypeScores:   mask&1 != 0,
					FixWeightLength:   mask&2 != 0,
					BytewiseAutomaton: mask&4 != 0,
				}
				variant, err := NewPredictor(m, cfg)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				for _, input := range inputs {
					wantS, wantErr := NewSentenceFromRaw(input)
					want := mustSentence(t, wantS, wantErr)
					base.Predict(want)
					gotS, gotErr := NewSentenceFromRaw(input)
					got := mustSentence(t, gotS, gotErr)
					variant.Predict(got)
					if !reflect.DeepEqual(got.BoundaryScores(), want.BoundaryScores()) {
						t.Errorf("%+v on %q: got scores %v, expected %v",
							cfg, input, got.BoundaryScores(), want.BoundaryScores())
					}
					if !reflect.DeepEqual(got.Boundaries(), want.Boundaries()) {
						t.Errorf("%+v on %q: got %v, expected %v",
							cfg, input, got.Boundaries(), want.Boundaries())
					}
				}
			}
		})
	}
}

func TestPredictSignLaw(t *testing.T) {
	for _, m := range []*model.Model{fixtureModel1(), fixtureModel2(), fixtureModel4()} {
		s := predictRaw(t, m, Config{}, fixtureInput)
		for i, y := range s.BoundaryScores() {
			expected := NoBreak
			if y > 0 {
				expected = Break
			}
			if s.Boundaries()[i] != expected {
				t.Errorf("boundary %d: score %d but label %v", i, y, s.Boundaries()[i])
			}
		}
	}
}

func TestPredictKeepsPresetLabels(t *testing.T) {
	p, err := NewPredictor(fixtureModel1(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 我-ら は|全 世-界 の|国 民: a mix of pre-set and unknown positions.
	sRaw1, sErr1 := NewSentenceFromPartialAnnotation("我-ら は|全 世-界 の|国 民")
	s := mustSentence(t, sRaw1, sErr1)
	p.Predict(s)
	bs := s.Boundaries()
	preset := map[int]Label{0: NoBreak, 2: Break, 4: NoBreak, 6: Break}
	for i, expected := range preset {
		if bs[i] != expected {
			t.Errorf("boundary %d: got %v, expected pre-set %v", i, bs[i], expected)
		}
	}
	// The free positions follow the reference decisions for model 1.
	free := map[int]Label{1: NoBreak, 3: Break, 5: Break, 7: NoBreak}
	for i, expected := range free {
		if bs[i] != expected {
			t.Errorf("boundary %d: got %v, expected %v", i, bs[i], expected)
		}
	}
	// Scores are computed for every boundary, pre-set ones included.
	expected := []int32{-77, -5, 45, 132, 133, 144, 50, -32}
	if !reflect.DeepEqual(s.BoundaryScores(), expected) {
		t.Errorf("got %v, expected %v", s.BoundaryScores(), expected)
	}
}

func TestDictionaryEditChangesSegmentation(t *testing.T) {
	m := fixtureModel1()
	base := predictRaw(t, m, Config{}, fixtureInput)
	var sb strings.Builder
	if err := base.WriteTokenized(&sb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, expected := sb.String(), "我らは 全 世 界 の 国民"; got != expected {
		t.Fatalf("got %q, expected %q", got, expected)
	}

	edited, err := m.ReplaceDictionary([]model.WordWeightRecord{
		{Word: "全世界", Weights: []int32{0, -100000, -100000, 100000}, Comment: "forced"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := predictRaw(t, edited, Config{}, fixtureInput)
	sb.Reset()
	if err := s.WriteTokenized(&sb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, expected := sb.String(), "我らは 全世界 の 国民"; got != expected {
		t.Errorf("got %q, expected %q", got, expected)
	}
	// The original model is untouched.
	again := predictRaw(t, m, Config{}, fixtureInput)
	if !reflect.DeepEqual(again.BoundaryScores(), base.BoundaryScores()) {
		t.Errorf("replacement modified the source model")
	}
}

// Replacing the dictionary with its own dump must not change any prediction.
func TestDictionaryDumpReplaceRoundTrip(t *testing.T) {
	for _, m := range []*model.Model{fixtureModel1(), fixtureModel4()} {
		rt, err := m.ReplaceDictionary(m.DumpDictionary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, input := range []string{fixtureInput, "我ら", "世界の国民"} {
			want := predictRaw(t, m, Config{}, input)
			got := predictRaw(t, rt, Config{}, input)
			if !reflect.DeepEqual(got.BoundaryScores(), want.BoundaryScores()) {
				t.Errorf("%q: got %v, expected %v", input,
					got.BoundaryScores(), want.BoundaryScores())
			}
		}
	}
}

func TestPredictTagsWithoutSubmodel(t *testing.T) {
	_, err := NewPredictor(fixtureModel1(), Config{PredictTags: true})
	var te *TagError
	if !errors.As(err, &te) {
		t.Errorf("got %v, expected a TagError", err)
	}
}

func TestPredictorIsReusable(t *testing.T) {
	p, err := NewPredictor(fixtureModel1(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstS, firstErr := NewSentenceFromRaw(fixtureInput)
	first := mustSentence(t, firstS, firstErr)
	p.Predict(first)
	expected := append([]int32(nil), first.BoundaryScores()...)
	for i := 0; i < 3; i++ {
		s, sErr := NewSentenceFromRaw(fixtureInput)
		s = mustSentence(t, s, sErr)
		p.Predict(s)
		if !reflect.DeepEqual(s.BoundaryScores(), expected) {
			t.Fatalf("run %d: got %v, expected %v", i, s.BoundaryScores(), expected)
		}
	}
	// Re-predicting the same sentence is stable too.
	p.Predict(first)
	if !reflect.DeepEqual(first.BoundaryScores(), expected) {
		t.Errorf("got %v, expected %v", first.BoundaryScores(), expected)
	}
}
