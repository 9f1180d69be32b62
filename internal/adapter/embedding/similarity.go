package embedding

import (
	"fmt"
	"math"
	"strings"

	"typeindex/internal/domain"
)

const maxDescriptionExamples = 10

// CosineSimilarity returns dot(a,b)/(|a||b|). A zero-magnitude input yields NaN;
// non-finite inputs propagate.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// BuildTypeDescriptionText synthesizes the text embedded for a semantic type.
func BuildTypeDescriptionText(semanticType, description string, examples []string) string {
	var sb strings.Builder
	sb.WriteString("Semantic Type: ")
	sb.WriteString(semanticType)
	sb.WriteString("\n")

	if description != "" {
		sb.WriteString("Description: ")
		sb.WriteString(description)
		sb.WriteString("\n")
	}

	if len(examples) > 0 {
		if len(examples) > maxDescriptionExamples {
			examples = examples[:maxDescriptionExamples]
		}
		sb.WriteString("Examples: ")
		sb.WriteString(strings.Join(examples, ", "))
		sb.WriteString("\n")
	}
	return sb.String()
}
