package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethanbaker/controlfill/pkg/sdk"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

/* ---- ASK SAGE ---- */

// AskSageBackend sends prompts to the Ask Sage query endpoint with a session
// token obtained once per run
type AskSageBackend struct {
	Client *sdk.Client
	Token  string
}

// NewAskSageBackend authenticates against Ask Sage and returns a backend
// holding the session token. Authentication failures are returned as
// *sdk.AuthenticationError
func NewAskSageBackend(ctx context.Context, client *sdk.Client, email, apiKey string) (*AskSageBackend, error) {
	token, err := client.GetToken(ctx, email, apiKey)
	if err != nil {
		return nil, err
	}

	return &AskSageBackend{Client: client, Token: token}, nil
}

// Complete implements Backend
func (b *AskSageBackend) Complete(ctx context.Context, req Request) (string, error) {
	return b.Client.Query(ctx, b.Token, &sdk.QueryRequest{
		Message:     req.Prompt,
		Temperature: req.Temperature,
		Dataset:     req.Dataset,
		Model:       req.Model,
	})
}

/* ---- OPENAI ---- */

// OpenAIBackend sends prompts to an OpenAI-compatible chat completions
// endpoint. The dataset scope has no equivalent there and is ignored
type OpenAIBackend struct {
	client openai.Client
}

// NewOpenAIBackend creates a backend for the given API key. An empty base URL
// keeps the library default. Library-level retries are disabled so the
// Retrier stays the only retry policy
func NewOpenAIBackend(apiKey, baseURL string) (*OpenAIBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIBackend{client: openai.NewClient(opts...)}, nil
}

// Complete implements Backend
func (b *OpenAIBackend) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned for model %s", req.Model)
	}

	return resp.Choices[0].Message.Content, nil
}
