package embedding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// KeySource supplies the API key at call time, so connecting and
// disconnecting credentials takes effect without rebuilding the provider.
type KeySource interface {
	APIKey() string
}

type staticKey string

func (k staticKey) APIKey() string { return string(k) }

type OpenAIEmbedder struct {
	keys      KeySource
	model     string
	baseURL   string
	dimension int
	client    *http.Client
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

func NewOpenAIEmbedder(keys KeySource, model string) *OpenAIEmbedder {
	return NewOpenAICompatibleEmbedder(keys, model, DefaultOpenAIBaseURL, 0)
}

// NewOllamaEmbedder talks to a local Ollama server, which needs no credentials.
func NewOllamaEmbedder(model, baseURL string) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}

	dimension := 768
	switch model {
	case "mxbai-embed-large":
		dimension = 1024
	case "all-minilm":
		dimension = 384
	}

	e := NewOpenAICompatibleEmbedder(staticKey("ollama"), model, baseURL, dimension)
	e.client.Timeout = 120 * time.Second
	return e
}

// NewOpenAICompatibleEmbedder builds a provider for any /embeddings endpoint
// speaking the OpenAI wire format. A zero dimension is inferred from the model.
func NewOpenAICompatibleEmbedder(keys KeySource, model, baseURL string, dimension int) *OpenAIEmbedder {
	if dimension <= 0 {
		dimension = knownDimension(model)
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	return &OpenAIEmbedder{
		keys:      keys,
		model:     model,
		baseURL:   baseURL,
		dimension: dimension,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func knownDimension(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "jina-embeddings-v3":
		return 1024
	case "amazon.titan-embed-text-v2:0":
		return 1024
	default:
		return 1536
	}
}

func (e *OpenAIEmbedder) IsConnected() bool {
	return e.keys != nil && e.keys.APIKey() != ""
}

func (e *OpenAIEmbedder) Embed(text string) ([]float32, error) {
	apiKey := ""
	if e.keys != nil {
		apiKey = e.keys.APIKey()
	}
	if apiKey == "" {
		return nil, errors.New("no API key configured")
	}

	jsonData, err := json.Marshal(embeddingRequest{Input: []string{text}, Model: e.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}

	for _, data := range embResp.Data {
		if data.Index == 0 {
			if len(data.Embedding) == 0 {
				return nil, errors.New("API returned an empty embedding")
			}
			return data.Embedding, nil
		}
	}
	return nil, errors.New("API returned no embedding")
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
