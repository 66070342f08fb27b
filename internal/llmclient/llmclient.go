// Package llmclient implements the narrow LLM call contract consumed by the
// content analyzer (C4) and architect planner (C5) stages:
// call(system_prompt, user_prompt, max_tokens, timeout) -> text, with
// distinguishable transient-vs-permanent errors so callers can decide
// whether to retry.
package llmclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/sharoA/document-analyzer-sub000/internal/errs"
)

// Client is the narrow LLM call surface. Implementations must distinguish
// transient failures (safe to retry) from permanent ones.
type Client interface {
	Call(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, timeout time.Duration) (string, error)
}

// OpenAIClient implements Client against the OpenAI chat-completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// New builds an OpenAIClient. apiKey is applied with option.WithAPIKey; any
// other setting (a base URL, for instance) is passed in opts as an
// openai-go option.RequestOption, matching the provider-construction pattern
// used throughout the example pack's OpenAI integration.
func New(apiKey, model string, opts ...option.RequestOption) *OpenAIClient {
	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(options...)
	return &OpenAIClient{client: &client, model: model}
}

// Call issues one chat-completion request and returns the first choice's
// text. A timeout <= 0 means "no deadline beyond ctx's own".
func (c *OpenAIClient) Call(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", errs.Internal("", errors.New("llm response had no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps an openai-go error onto the pipeline's error kinds so
// callers can branch on errs.KindOf without knowing about openai.Error.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Transient("", err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return errs.Transient("", err)
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest:
			return errs.Validation("", err)
		}
	}
	return errs.Internal("", err)
}

// Embed turns text into a dense vector using OpenAI's embeddings endpoint.
// Its signature matches vectorstore.Embedder so the same client can back
// both corpus indexing/retrieval and the document parser's keyword
// clustering.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModelTextEmbedding3Small,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) == 0 {
		return nil, errs.Internal("", errors.New("embedding response had no data"))
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// TokenCounter wraps pkoukk/tiktoken-go to estimate request size, used by
// the planner and content analyzer to keep prompts within max_tokens
// budgets before issuing a call.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter loads the cl100k_base encoding, the one OpenAI's current
// chat models use.
func NewTokenCounter() (*TokenCounter, error) {
	enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		return nil, err
	}
	return &TokenCounter{encoding: enc}, nil
}

// Count returns the number of tokens text would consume.
func (t *TokenCounter) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// contextWindowTokens is the context window budgeted for cl100k_base chat
// models reachable through Call.
const contextWindowTokens = 8192

// minCompletionTokens is the floor Budget returns even when the prompt is
// estimated to fill nearly the whole context window, so a call is never
// issued with a completion budget too small to be useful.
const minCompletionTokens = 256

// Budget estimates how many completion tokens remain in the model's context
// window after the system and user prompts, capped at ceiling.
func (t *TokenCounter) Budget(systemPrompt, userPrompt string, ceiling int) int {
	used := t.Count(systemPrompt) + t.Count(userPrompt)
	remaining := contextWindowTokens - used
	if remaining > ceiling {
		remaining = ceiling
	}
	if remaining < minCompletionTokens {
		remaining = minCompletionTokens
	}
	return remaining
}

var (
	defaultCounterOnce sync.Once
	defaultCounter     *TokenCounter
)

// EstimateMaxTokens estimates the max_tokens budget for a call given its
// system and user prompts, capped at ceiling. Callers use this in place of
// a hardcoded max_tokens so the budget reflects actual prompt size. If the
// tiktoken encoding fails to load, it falls back to ceiling unchanged.
func EstimateMaxTokens(systemPrompt, userPrompt string, ceiling int) int {
	defaultCounterOnce.Do(func() {
		defaultCounter, _ = NewTokenCounter()
	})
	if defaultCounter == nil {
		return ceiling
	}
	return defaultCounter.Budget(systemPrompt, userPrompt, ceiling)
}
