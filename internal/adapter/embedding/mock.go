package embedding

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// MockEmbedder is an offline provider. Each lower-cased word is hashed into a
// bucket, so texts sharing words land close together.
type MockEmbedder struct {
	dimension int
	keys      KeySource
}

// NewMockEmbedder returns a mock provider. With nil keys it is always connected.
func NewMockEmbedder(dimension int, keys KeySource) *MockEmbedder {
	if dimension <= 0 {
		dimension = 64
	}
	return &MockEmbedder{dimension: dimension, keys: keys}
}

func (e *MockEmbedder) IsConnected() bool {
	return e.keys == nil || e.keys.APIKey() != ""
}

func (e *MockEmbedder) Embed(text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%uint32(e.dimension)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
