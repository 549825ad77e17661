// Package features turns ticket text into fixed-width TF-IDF vectors.
package features

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"
)

// DefaultMaxFeatures caps the vocabulary size.
const DefaultMaxFeatures = 1000

var (
	ErrEmptyVocabulary = errors.New("features: empty vocabulary; documents contain only stop words")
	ErrNotFitted       = errors.New("features: vectorizer is not fitted")
)

// Vector is a sparse feature vector. Indices are strictly increasing.
type Vector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Len returns the number of non-zero entries.
func (v Vector) Len() int { return len(v.Indices) }

// Value returns the weight at feature index i, zero when absent.
func (v Vector) Value(i int) float64 {
	pos := sort.SearchInts(v.Indices, i)
	if pos < len(v.Indices) && v.Indices[pos] == i {
		return v.Values[pos]
	}
	return 0
}

// TfidfVectorizer learns a vocabulary and inverse document frequencies on a
// corpus and maps documents onto L2-normalized TF-IDF vectors.
type TfidfVectorizer struct {
	MaxFeatures int            `json:"max_features"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Documents   int            `json:"documents"`
}

func NewTfidfVectorizer(maxFeatures int) *TfidfVectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &TfidfVectorizer{MaxFeatures: maxFeatures}
}

// Dim is the width of every vector produced by Transform.
func (v *TfidfVectorizer) Dim() int { return len(v.IDF) }

func (v *TfidfVectorizer) Fitted() bool {
	return v != nil && len(v.Vocabulary) > 0 && len(v.IDF) == len(v.Vocabulary)
}

// Terms returns the vocabulary ordered by feature index.
func (v *TfidfVectorizer) Terms() []string {
	terms := make([]string, len(v.Vocabulary))
	for term, idx := range v.Vocabulary {
		terms[idx] = term
	}
	return terms
}

// Fit builds the vocabulary from docs. The top MaxFeatures terms by corpus
// frequency are kept (ties broken alphabetically) and indexed alphabetically.
func (v *TfidfVectorizer) Fit(docs []string) error {
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(doc) {
			termFreq[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}
	if len(termFreq) == 0 {
		return ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
		// smoothed idf, as if one extra document contained every term
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	v.Documents = len(docs)
	return nil
}

// Transform maps each document to its TF-IDF vector. Unknown terms are ignored.
func (v *TfidfVectorizer) Transform(docs []string) []Vector {
	out := make([]Vector, len(docs))
	for i, doc := range docs {
		out[i] = v.TransformOne(doc)
	}
	return out
}

func (v *TfidfVectorizer) TransformOne(doc string) Vector {
	counts := make(map[int]float64)
	for _, tok := range Tokenize(doc) {
		if idx, ok := v.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return Vector{}
	}

	vec := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	for _, idx := range vec.Indices {
		vec.Values = append(vec.Values, counts[idx]*v.IDF[idx])
	}
	if norm := floats.Norm(vec.Values, 2); norm > 0 {
		floats.Scale(1/norm, vec.Values)
	}
	return vec
}

// Tokenize splits text into lowercase word tokens of two or more characters,
// dropping English stop words.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 || IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
