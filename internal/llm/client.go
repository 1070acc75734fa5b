package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrEmptyCompletion is returned when the model replies without usable
// content. Callers treat it as the retryable condition of the fixed
// retry policy.
var ErrEmptyCompletion = errors.New("empty completion")

// Client is a generation API client covering chat completions, embeddings
// and image generation against an OpenAI-compatible provider.
// Thread-safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new client with the given configuration.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client := &Client{
		config:  config,
		baseURL: strings.TrimSuffix(config.APIURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}

	return client, nil
}

// CompleteChat sends a chat completion request and returns the joined text of
// the first choice. An absent completion or a completion with no non-blank
// content returns ErrEmptyCompletion.
func (c *Client) CompleteChat(ctx context.Context, messages []Message, opts *ChatOptions) (string, error) {
	request := ChatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}
	if opts != nil {
		if opts.MaxTokens > 0 {
			request.MaxTokens = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			request.Temperature = opts.Temperature
		}
		if opts.TopP > 0 {
			request.TopP = opts.TopP
		}
	}

	var response ChatResponse
	if err := c.makeRequest(ctx, "/chat/completions", request, &response); err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if response.Error != nil && response.Error.Message != "" {
		return "", fmt.Errorf("chat completion failed: %w", response.Error)
	}
	if len(response.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	var parts []string
	for _, choice := range response.Choices[:1] {
		if strings.TrimSpace(choice.Message.Content) != "" {
			parts = append(parts, choice.Message.Content)
		}
	}
	content := strings.Join(parts, "\n")
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("finish reason %s: %w", response.Choices[0].FinishReason, ErrEmptyCompletion)
	}

	return content, nil
}

// GenerateEmbeddings requests one embedding vector per input text in a
// single batched call. Vectors are returned in input order.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := c.config.EmbeddingModel
	if model == "" {
		model = c.config.Model
	}
	request := embeddingRequest{
		Model: model,
		Input: texts,
	}

	var response embeddingResponse
	if err := c.makeRequest(ctx, "/embeddings", request, &response); err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if response.Error != nil && response.Error.Message != "" {
		return nil, fmt.Errorf("embedding request failed: %w", response.Error)
	}
	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(response.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range response.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// GenerateImage generates one image for the prompt and returns the decoded
// bytes. Size is a provider size string like "1536x1024".
func (c *Client) GenerateImage(ctx context.Context, prompt string, size string) ([]byte, error) {
	request := imageRequest{
		Model:          c.config.ImageModel,
		Prompt:         prompt,
		Size:           size,
		ResponseFormat: "b64_json",
	}

	var response imageResponse
	if err := c.makeRequest(ctx, "/images/generations", request, &response); err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if response.Error != nil && response.Error.Message != "" {
		return nil, fmt.Errorf("image generation failed: %w", response.Error)
	}
	if len(response.Data) == 0 || response.Data[0].B64JSON == "" {
		return nil, ErrEmptyCompletion
	}

	imageBytes, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return imageBytes, nil
}

// makeRequest makes a raw HTTP request to the configured API.
func (c *Client) makeRequest(ctx context.Context, path string, payload interface{}, out interface{}) error {
	url := c.baseURL + path

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.config.GetHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if os.IsTimeout(err) {
			return fmt.Errorf("request timed out: %w", err)
		}
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	return nil
}
