package similarity

import (
	"math"
	"reflect"
	"testing"

	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
)

func TestTermsUnigramsAndBigrams(t *testing.T) {
	got := Terms("China--History--Republic, 1912-1949", DefaultTokenizerOptions())
	want := []string{
		"china", "history", "republic", "1912", "1949",
		"china history", "history republic", "republic 1912", "1912 1949",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestWordsFiltersStopWordsAndShortTokens(t *testing.T) {
	got := Words("The History of a CHINA’s Ｒepublic", DefaultTokenizerOptions())
	want := []string{"history", "china", "republic"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	plain := Words("The history of China", TokenizerOptions{NgramMax: 1})
	if want := []string{"the", "history", "of", "china"}; !reflect.DeepEqual(plain, want) {
		t.Fatalf("without filters got %v want %v", plain, want)
	}
}

func TestWordsAllowsEmptyTokenSet(t *testing.T) {
	if got := Words("!!!###", DefaultTokenizerOptions()); len(got) != 0 {
		t.Fatalf("expected no tokens, got %v", got)
	}
}

func TestVectorizeDeterministic(t *testing.T) {
	corpus := []string{
		"World War II",
		"World War, 1939-1945",
		"World War, 1914-1918",
		"Pacific Area--History",
	}
	v := NewVectorizer(DefaultTokenizerOptions())
	first := v.Vectorize(corpus)
	second := v.Vectorize(corpus)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("vectorize is not deterministic")
	}
	if len(first) != len(corpus) {
		t.Fatalf("expected %d vectors, got %d", len(corpus), len(first))
	}
	dim := len(first[0])
	for i, vec := range first {
		if len(vec) != dim {
			t.Fatalf("vector %d has dim %d, want %d", i, len(vec), dim)
		}
	}
}

func TestVectorizeZeroVectorForEmptyDocument(t *testing.T) {
	v := NewVectorizer(DefaultTokenizerOptions())
	vecs := v.Vectorize([]string{"!!!", "Digital humanities"})
	for _, x := range vecs[0] {
		if x != 0 {
			t.Fatalf("expected zero vector, got %v", vecs[0])
		}
	}
	if Cosine(vecs[0], vecs[1]) != 0 {
		t.Fatalf("zero vector must score 0")
	}
}

func TestIdenticalLabelScoresHighest(t *testing.T) {
	phrase := "China--History--Republic, 1912-1949"
	cands := []entity.Candidate{
		{Label: "China--History--1912-1928", ID: "sh85024101"},
		{Label: "China--History--Republic, 1912-1949", ID: "sh85024107"},
		{Label: "China--Politics and government--1912-1949", ID: "sh85024118"},
		{Label: "Taiwan--History--1945-", ID: "sh85132520"},
	}
	corpus := []string{phrase}
	for _, c := range cands {
		corpus = append(corpus, c.Label)
	}
	vecs := NewVectorizer(DefaultTokenizerOptions()).Vectorize(corpus)

	set := Rank(phrase, vecs[0], vecs[1:], cands, 5)
	top, ok := set.Top()
	if !ok || top.ID != "sh85024107" {
		t.Fatalf("expected exact heading first, got %+v", set)
	}
	if math.Abs(top.Score-1) > 1e-9 {
		t.Fatalf("identical label should score 1.0, got %v", top.Score)
	}
	if top.Term != phrase || top.Label != cands[1].Label {
		t.Fatalf("term/label not carried: %+v", top)
	}
}

func TestRankSortsCapsAndKeepsTieOrder(t *testing.T) {
	cands := []entity.Candidate{
		{Label: "a", ID: "1"},
		{Label: "b", ID: "2"},
		{Label: "c", ID: "3"},
		{Label: "d", ID: "4"},
	}
	phrase := []float64{1, 0}
	vecs := [][]float64{
		{0, 1}, // 0
		{1, 1}, // ~0.707
		{1, 0}, // 1
		{1, 1}, // ~0.707，与 2 并列
	}
	orig := append([]entity.Candidate(nil), cands...)

	set := Rank("q", phrase, vecs, cands, 3)
	if set.Len() != 3 {
		t.Fatalf("expected cap of 3, got %d", set.Len())
	}
	ids := []string{set[0].ID, set[1].ID, set[2].ID}
	if want := []string{"3", "2", "4"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("got order %v want %v", ids, want)
	}
	for i := 1; i < set.Len(); i++ {
		if set[i].Score > set[i-1].Score {
			t.Fatalf("set not sorted non-increasing: %+v", set)
		}
	}
	if !reflect.DeepEqual(orig, cands) {
		t.Fatalf("rank mutated candidates")
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	set := Rank("q", []float64{1}, nil, nil, 5)
	if set == nil || set.Len() != 0 {
		t.Fatalf("expected empty non-nil set, got %#v", set)
	}
}

func TestCosineBounds(t *testing.T) {
	cases := []struct {
		a, b []float64
		want float64
	}{
		{[]float64{1, 0}, []float64{1, 0}, 1},
		{[]float64{1, 0}, []float64{0, 1}, 0},
		{[]float64{0, 0}, []float64{1, 1}, 0},
		{[]float64{3, 4}, []float64{6, 8}, 1},
	}
	for _, tc := range cases {
		if got := Cosine(tc.a, tc.b); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("cosine(%v,%v)=%v want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
