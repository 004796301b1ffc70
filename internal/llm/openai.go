package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrNoChoices is returned when a completion carries no usable text.
var ErrNoChoices = errors.New("openai: no choices returned")

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	model   openai.ChatModel
	client  *openai.Client
	timeout time.Duration
}

const defaultChatTimeout = 30 * time.Second

// NewOpenAIClient builds a client against api.openai.com. Extra request
// options (base URL, HTTP client, retries) are passed through to openai-go.
func NewOpenAIClient(apiKey string, model openai.ChatModel, timeout time.Duration, opts ...option.RequestOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	if timeout <= 0 {
		timeout = defaultChatTimeout
	}
	cli := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIClient{
		model:   model,
		client:  &cli,
		timeout: timeout,
	}, nil
}

func (c *OpenAIClient) Model() string {
	return string(c.model)
}

func (c *OpenAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil openai client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: buildMessages(system, prompt),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}
