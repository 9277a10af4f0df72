package ai

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jdforge/core/internal/config"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
)

// NewCompleter builds the client for the configured provider. It is called once at startup.
func NewCompleter(cfg config.AIRuntimeConfig) (Completer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, config.ErrMissingAPIKey
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("ai model is empty")
	}

	switch cfg.Provider {
	case config.ProviderAnthropic:
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"); endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(endpoint))
		}
		return &anthropicCompleter{client: anthropicclient.NewClient(opts...), model: model}, nil

	case config.ProviderOpenAI, config.ProviderOpenAICompatible:
		opts := []openaioption.RequestOption{
			openaioption.WithAPIKey(apiKey),
			openaioption.WithMaxRetries(0),
		}
		if base := normalizeOpenAIBaseURL(cfg.Endpoint); base != "" {
			opts = append(opts, openaioption.WithBaseURL(base))
		}
		return &openAICompleter{client: openaiclient.NewClient(opts...), model: model}, nil
	}
	return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
}

type openAICompleter struct {
	client openaiclient.Client
	model  string
}

func (o *openAICompleter) Model() string { return o.model }

func (o *openAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openaiclient.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openaiclient.SystemMessage(req.System))
	}
	messages = append(messages, openaiclient.UserMessage(req.Prompt))

	s := req.Sampling
	params := openaiclient.ChatCompletionNewParams{
		Model:            openaiclient.ChatModel(o.model),
		Messages:         messages,
		Temperature:      openaiclient.Float(s.Temperature),
		TopP:             openaiclient.Float(s.TopP),
		FrequencyPenalty: openaiclient.Float(s.FrequencyPenalty),
		PresencePenalty:  openaiclient.Float(s.PresencePenalty),
	}
	if s.MaxTokens > 0 {
		params.MaxTokens = openaiclient.Int(int64(s.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

type anthropicCompleter struct {
	client anthropicclient.Client
	model  string
}

func (a *anthropicCompleter) Model() string { return a.model }

func (a *anthropicCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	s := req.Sampling
	maxTokens := int64(s.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropicclient.MessageNewParams{
		Model:       anthropicclient.Model(a.model),
		MaxTokens:   maxTokens,
		Temperature: anthropicclient.Float(s.Temperature),
		Messages: []anthropicclient.MessageParam{
			anthropicclient.NewUserMessage(anthropicclient.NewTextBlock(req.Prompt)),
		},
	}
	// The messages API rejects temperature and top_p together unless top_p is below 1.
	if s.TopP > 0 && s.TopP < 1 {
		params.TopP = anthropicclient.Float(s.TopP)
	}
	if req.System != "" {
		params.System = []anthropicclient.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

// normalizeOpenAIBaseURL makes sure a custom endpoint ends in /v1, which the SDK expects.
func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}
	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return parsed.String()
}
