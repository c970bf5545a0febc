package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pendohq/pendo-assistant/internal/attachments"
	"github.com/pendohq/pendo-assistant/internal/config"
)

const systemPrompt = "You are Pendo, the Climate Economy Assistant. You help job seekers in " +
	"Massachusetts find careers in the climate economy: clean energy, offshore wind, " +
	"building decarbonization, EV infrastructure and environmental justice work. " +
	"You translate military and out-of-state experience into climate career pathways, " +
	"identify skills gaps and recommend training programs. Be concrete and encouraging."

var ErrEmptyCompletion = errors.New("empty completion from model")

type Turn struct {
	Role    openai.ChatCompletionMessageParamRole `json:"role"`
	Content string                                `json:"content"`
}

// Client calls the chat completion API. The zero apiKey argument on Complete
// and Stream falls back to the configured key; a non-empty one is the
// user-supplied demo-mode key from the request header.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
}

func New(cfg config.LLMConfig) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

func (c *Client) openaiClient(apiKey string) *openai.Client {
	key := apiKey
	if key == "" {
		key = c.apiKey
	}
	return openai.NewClient(
		option.WithBaseURL(c.baseURL),
		option.WithAPIKey(key),
	)
}

func (c *Client) params(turns []Turn) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:    openai.F([]openai.ChatCompletionMessageParamUnion{}),
		Model:       openai.F(c.model),
		Temperature: openai.F(c.temperature),
	}

	for _, turn := range turns {
		var content any = turn.Content
		params.Messages.Value = append(params.Messages.Value, openai.ChatCompletionMessageParam{
			Role:    openai.F(turn.Role),
			Content: openai.F(content),
		})
	}

	return params
}

func (c *Client) Complete(ctx context.Context, apiKey string, turns []Turn) (string, error) {
	completion, err := c.openaiClient(apiKey).Chat.Completions.New(ctx, c.params(turns))
	if err != nil {
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return completion.Choices[0].Message.Content, nil
}

// Stream calls fn for every generated token and returns the accumulated
// completion. A non-nil error from fn aborts the stream.
func (c *Client) Stream(ctx context.Context, apiKey string, turns []Turn, fn func(token string) error) (string, error) {
	stream := c.openaiClient(apiKey).Chat.Completions.NewStreaming(ctx, c.params(turns))

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) > 0 {
			token := chunk.Choices[0].Delta.Content
			if token != "" {
				if err := fn(token); err != nil {
					return "", err
				}
			}
		}

		if _, ok := acc.JustFinishedContent(); ok {
			break
		}
	}

	if err := stream.Err(); err != nil {
		return "", err
	}

	if len(acc.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return acc.Choices[0].Message.Content, nil
}

// BuildTurns assembles the prompt: the system persona, one context turn per
// processed attachment, then the user's message.
func BuildTurns(content string, processed []attachments.ProcessedFile) []Turn {
	turns := []Turn{{Role: "system", Content: systemPrompt}}

	for _, file := range processed {
		switch file.Type {
		case attachments.TypeResume:
			result, err := json.Marshal(file.Result)
			if err != nil {
				result = []byte(`{}`)
			}
			turns = append(turns, Turn{
				Role: "system",
				Content: fmt.Sprintf(
					"The user attached a resume %q which has been analysed and stored. Processing result: %s",
					file.Filename, result,
				),
			})
		case attachments.TypeImage:
			turns = append(turns, Turn{
				Role:    "system",
				Content: fmt.Sprintf("The user attached an image %q.", file.Filename),
			})
		}
	}

	turns = append(turns, Turn{Role: "user", Content: content})

	return turns
}
