package llm

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

	"github.com/cenkalti/backoff/v4"

	"github.com/vedthemaster/lexsy-backend/internal/config"
)

const chatCompletionsEndpoint = "https://api.openai.com/v1/chat/completions"

// Completer is the single capability the pipeline needs from a language
// model provider. Implementations may fail or time out; every call site has
// a deterministic fallback.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleteFunc adapts a plain function to the Completer interface. Tests use
// it to script deterministic responses.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleteFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// OpenAIClient calls the chat completions API. A single instance is shared
// across the pipeline for connection reuse.
type OpenAIClient struct {
	apiKey     string
	model      string
	endpoint   string
	reqTimeout time.Duration
	maxRetries int
	httpClient *http.Client
}

func NewOpenAIClient(cfg config.Config) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.OpenAIModel,
		endpoint:   chatCompletionsEndpoint,
		reqTimeout: cfg.LLMTimeout,
		maxRetries: cfg.LLMMaxRetries,
		httpClient: &http.Client{
			Timeout: cfg.LLMTimeout,
		},
	}
}

// Complete sends the prompt as a single user message and returns the model's
// reply. Network and server-side failures are retried a bounded number of
// times with exponential backoff; client errors are not retried.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.ensureAPIKey(); err != nil {
		return "", err
	}

	var result string
	operation := func() error {
		text, err := c.completeOnce(ctx, prompt)
		if err != nil {
			return err
		}
		result = text
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return result, nil
}

func (c *OpenAIClient) completeOnce(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", backoff.Permanent(fmt.Errorf("encode completion payload: %w", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.reqTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, buf)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create completion request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return "", c.decodeAPIError(resp)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", backoff.Permanent(c.decodeAPIError(resp))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode completion response: %w", err))
	}

	if len(response.Choices) == 0 {
		return "", backoff.Permanent(errors.New("no completion returned"))
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) decodeAPIError(resp *http.Response) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("openai api error: status %d type %s message %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
	}

	return fmt.Errorf("openai api error: status %d body %s", resp.StatusCode, string(body))
}

func (c *OpenAIClient) ensureAPIKey() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return errors.New("openai api key is not configured")
	}
	return nil
}
