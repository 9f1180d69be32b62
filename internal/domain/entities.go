package domain

import "time"

// TypeKind distinguishes types shipped with the detection engine from user-defined ones.
type TypeKind string

const (
	KindBuiltIn TypeKind = "built-in"
	KindCustom  TypeKind = "custom"
)

// SemanticType is a catalog definition as seen by the index.
type SemanticType struct {
	SemanticType      string   `json:"semanticType" yaml:"semantic_type"`
	Description       string   `json:"description,omitempty" yaml:"description"`
	PluginType        string   `json:"pluginType,omitempty" yaml:"plugin_type"`
	BuiltIn           bool     `json:"builtIn,omitempty" yaml:"built_in"`
	ContentValues     []string `json:"contentValues,omitempty" yaml:"content_values"`
	MatchDescriptions []string `json:"matchDescriptions,omitempty" yaml:"match_descriptions"`
}

const (
	maxContentExamples = 10
	maxMatchExamples   = 5
)

// Kind reports whether the type is built-in or custom.
func (t SemanticType) Kind() TypeKind {
	if t.BuiltIn {
		return KindBuiltIn
	}
	return KindCustom
}

// IndexExamples returns the examples stored with the type's vector: the first
// content values followed by the first non-empty match descriptions.
func (t SemanticType) IndexExamples() []string {
	examples := make([]string, 0, maxContentExamples+maxMatchExamples)
	for i, v := range t.ContentValues {
		if i >= maxContentExamples {
			break
		}
		examples = append(examples, v)
	}
	for i, d := range t.MatchDescriptions {
		if i >= maxMatchExamples {
			break
		}
		if d != "" {
			examples = append(examples, d)
		}
	}
	return examples
}

// VectorRecord is the embedding and metadata indexed for one semantic type.
type VectorRecord struct {
	ID           string    `json:"id"`
	SemanticType string    `json:"semanticType"`
	Type         TypeKind  `json:"type"`
	Description  string    `json:"description,omitempty"`
	Embedding    []float32 `json:"embedding"`
	OriginalText string    `json:"originalText"`
	PluginType   string    `json:"pluginType,omitempty"`
	Examples     []string  `json:"examples"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// GenerationRequest describes a new column whose type is being looked up.
type GenerationRequest struct {
	TypeName                string   `json:"typeName,omitempty"`
	Description             string   `json:"description"`
	PositiveContentExamples []string `json:"positiveContentExamples,omitempty"`
	NegativeContentExamples []string `json:"negativeContentExamples,omitempty"`
	PositiveHeaderExamples  []string `json:"positiveHeaderExamples,omitempty"`
	NegativeHeaderExamples  []string `json:"negativeHeaderExamples,omitempty"`
}

// SimilarityResult is one ranked match. It is never persisted.
type SimilarityResult struct {
	SemanticType    string   `json:"semanticType"`
	Description     string   `json:"description"`
	SimilarityScore float64  `json:"similarityScore"`
	Type            TypeKind `json:"type"`
	PluginType      string   `json:"pluginType"`
	Examples        []string `json:"examples"`
}

// IndexState is the lifecycle state of the similarity index.
type IndexState string

const (
	StateDisabled        IndexState = "disabled"
	StateUninitialized   IndexState = "uninitialized"
	StateIndexing        IndexState = "indexing"
	StateReady           IndexState = "ready"
	StateReadyWithErrors IndexState = "ready-with-errors"
)

// IndexingProgress is a snapshot of the lifecycle counters.
type IndexingProgress struct {
	Indexing bool       `json:"indexing"`
	Total    int        `json:"totalTypes"`
	Indexed  int        `json:"indexedTypes"`
	State    IndexState `json:"state"`
}
