package classifier

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

var whitespaceRuns = regexp.MustCompile(`\s\s+`)

// SparseVector holds the non-zero entries of a feature row, sorted by index.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product with a dense weight vector.
func (v SparseVector) Dot(w []float64) float64 {
	var sum float64
	for k, idx := range v.Indices {
		sum += v.Values[k] * w[idx]
	}
	return sum
}

// Vectorizer turns text into L2-normalised TF-IDF vectors over character n-grams.
type Vectorizer struct {
	MinN       int            `json:"ngram_min"`
	MaxN       int            `json:"ngram_max"`
	MinDF      int            `json:"min_df"`
	Lowercase  bool           `json:"lowercase"`
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// NewVectorizer returns an unfitted vectorizer.
func NewVectorizer(minN, maxN, minDF int) *Vectorizer {
	return &Vectorizer{MinN: minN, MaxN: maxN, MinDF: minDF, Lowercase: true}
}

// Analyze splits a document into character n-grams. Runs of two or more
// whitespace characters collapse into a single space first.
func (v *Vectorizer) Analyze(doc string) []string {
	if v.Lowercase {
		doc = strings.ToLower(doc)
	}
	runes := []rune(whitespaceRuns.ReplaceAllString(doc, " "))

	var grams []string
	for n := v.MinN; n <= v.MaxN && n <= len(runes); n++ {
		for i := 0; i+n <= len(runes); i++ {
			grams = append(grams, string(runes[i:i+n]))
		}
	}
	return grams
}

// Fit learns the vocabulary and inverse document frequencies from docs.
// Terms present in fewer than MinDF documents are discarded; the remaining
// terms are indexed in sorted order.
func (v *Vectorizer) Fit(docs []string) error {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, g := range v.Analyze(doc) {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			df[g]++
		}
	}

	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count >= v.MinDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return fmt.Errorf("empty vocabulary: no n-gram occurs in at least %d documents", v.MinDF)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return nil
}

// NumFeatures is the vocabulary size.
func (v *Vectorizer) NumFeatures() int {
	return len(v.IDF)
}

// Transform maps a document to its TF-IDF row. Unknown n-grams are ignored.
func (v *Vectorizer) Transform(doc string) SparseVector {
	counts := make(map[int]float64)
	for _, g := range v.Analyze(doc) {
		if idx, ok := v.Vocabulary[g]; ok {
			counts[idx]++
		}
	}

	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)

	var norm float64
	for _, idx := range vec.Indices {
		val := counts[idx] * v.IDF[idx]
		vec.Values = append(vec.Values, val)
		norm += val * val
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for k := range vec.Values {
			vec.Values[k] /= norm
		}
	}
	return vec
}

// TransformAll maps every document.
func (v *Vectorizer) TransformAll(docs []string) []SparseVector {
	out := make([]SparseVector, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}
