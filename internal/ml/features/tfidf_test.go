package features

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"login"}, Tokenize("cannot login to system"))
	assert.Equal(t, []string{"password", "reset", "working"}, Tokenize("password reset not working"))
	assert.Empty(t, Tokenize("a I the of"))
}

func TestTfidfVectorizer_Fit(t *testing.T) {
	docs := []string{
		"password reset failed",
		"password expired",
		"invoice refund",
	}
	v := NewTfidfVectorizer(0)
	require.NoError(t, v.Fit(docs))

	assert.Equal(t, DefaultMaxFeatures, v.MaxFeatures)
	assert.Equal(t, []string{"expired", "failed", "invoice", "password", "refund", "reset"}, v.Terms())
	assert.Equal(t, 6, v.Dim())

	// password appears in 2 of 3 documents
	assert.InDelta(t, math.Log(4.0/3.0)+1, v.IDF[v.Vocabulary["password"]], 1e-12)
	assert.InDelta(t, math.Log(4.0/2.0)+1, v.IDF[v.Vocabulary["refund"]], 1e-12)
}

func TestTfidfVectorizer_MaxFeaturesKeepsMostFrequent(t *testing.T) {
	docs := []string{"alpha alpha beta", "alpha gamma", "beta delta"}
	v := NewTfidfVectorizer(2)
	require.NoError(t, v.Fit(docs))
	assert.Equal(t, []string{"alpha", "beta"}, v.Terms())
}

func TestTfidfVectorizer_EmptyVocabulary(t *testing.T) {
	v := NewTfidfVectorizer(10)
	err := v.Fit([]string{"the and of", ""})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
	assert.False(t, v.Fitted())
}

func TestTfidfVectorizer_Transform(t *testing.T) {
	v := NewTfidfVectorizer(10)
	require.NoError(t, v.Fit([]string{"printer jam", "printer offline", "invoice missing"}))
	dim := v.Dim()
	require.Equal(t, 5, dim)

	vec := v.TransformOne("printer printer jam unknownword")
	require.Equal(t, 2, vec.Len())
	assert.IsIncreasing(t, vec.Indices)

	var sumSq float64
	for _, x := range vec.Values {
		sumSq += x * x
	}
	assert.InDelta(t, 1.0, sumSq, 1e-12, "vectors are L2 normalized")
	assert.Greater(t, vec.Value(v.Vocabulary["jam"]), 0.0)
	assert.Zero(t, vec.Value(v.Vocabulary["invoice"]))

	assert.Equal(t, 0, v.TransformOne("completely unseen words").Len())
	assert.Equal(t, dim, v.Dim(), "transform never grows the vocabulary")
}

func TestTfidfVectorizer_JSONRoundTrip(t *testing.T) {
	docs := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		docs = append(docs, fmt.Sprintf("ticket number%c about billing", 'a'+rune(i)))
	}
	v := NewTfidfVectorizer(5)
	require.NoError(t, v.Fit(docs))

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var restored TfidfVectorizer
	require.NoError(t, json.Unmarshal(raw, &restored))

	assert.Equal(t, v.TransformOne("billing ticket numbera"), restored.TransformOne("billing ticket numbera"))
}
