package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ontolarium/internal/codec"
	"ontolarium/internal/domain"
)

const (
	// DefaultLLMBaseURL is the default chat-completion endpoint base.
	// Any OpenAI-compatible server works, including a local Ollama.
	DefaultLLMBaseURL = "http://localhost:11434"

	// DefaultLLMModel is the default model name.
	DefaultLLMModel = "llama3.2"

	// DefaultLLMTimeout is the timeout for generation requests.
	DefaultLLMTimeout = 2 * time.Minute

	// apiPathChat is the OpenAI-compatible chat completion path.
	apiPathChat = "/v1/chat/completions"
)

// systemPrompt pins the model to the snapshot JSON contract, so the
// reply can go straight through the regular importer.
const systemPrompt = `You design small ontology graphs. Reply with one JSON object and nothing else, no prose, no code fences:
{"nodes":[{"id":"...","label":"...","category":"class|instance|concept|literal","description":"..."}],"edges":[{"source":"...","target":"...","label":"..."}]}
Node ids must be unique short slugs. Every edge source and target must be the id of a node in the same reply. Aim for 8 to 15 nodes.`

// LLMGenerator asks a chat-completion API to design an ontology.
type LLMGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// LLMOption configures an LLMGenerator.
type LLMOption func(*LLMGenerator)

// WithLLMBaseURL sets the API base URL.
func WithLLMBaseURL(url string) LLMOption {
	return func(g *LLMGenerator) {
		g.baseURL = strings.TrimRight(url, "/")
	}
}

// WithLLMModel sets the model name.
func WithLLMModel(model string) LLMOption {
	return func(g *LLMGenerator) {
		g.model = model
	}
}

// WithLLMAPIKey sets the bearer token, if the server wants one.
func WithLLMAPIKey(key string) LLMOption {
	return func(g *LLMGenerator) {
		g.apiKey = key
	}
}

// WithLLMTimeout sets the HTTP client timeout.
func WithLLMTimeout(timeout time.Duration) LLMOption {
	return func(g *LLMGenerator) {
		g.client.Timeout = timeout
	}
}

// NewLLMGenerator creates a new chat-completion backed generator.
func NewLLMGenerator(opts ...LLMOption) *LLMGenerator {
	g := &LLMGenerator{
		baseURL: DefaultLLMBaseURL,
		model:   DefaultLLMModel,
		client:  &http.Client{Timeout: DefaultLLMTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the backend identifier
func (g *LLMGenerator) Name() string {
	return "llm"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends the prompt and parses the reply as a snapshot. A reply
// that fails the integrity checks is an error; nothing is accepted
// piecemeal.
func (g *LLMGenerator) Generate(ctx context.Context, prompt string) (*domain.Graph, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("empty prompt")
	}

	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+apiPathChat, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if cr.Error != nil {
		return nil, fmt.Errorf("model server error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}

	content := stripFences(strings.TrimSpace(cr.Choices[0].Message.Content))
	graph, err := codec.NewJSONCodec().Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("model returned an unusable graph: %w", err)
	}
	return graph, nil
}

// stripFences removes a markdown code fence when the model wraps its
// JSON despite instructions
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
