package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pliu/taskchat/internal/models"
)

// Provider failures surfaced to the transport layer with distinct statuses.
// The server never retries on its own.
var (
	ErrRateLimited = errors.New("model provider rate limited")
	ErrTimeout     = errors.New("model provider timed out")
	ErrProvider    = errors.New("model provider error")
)

// maxSteps bounds the tool loop so a misbehaving model cannot spin forever.
const maxSteps = 8

const systemPrompt = `You are a todo assistant. You manage the current user's task list
through the provided tools: create_task, list_tasks, update_task, toggle_task, delete_task.
Use a tool whenever the user asks to add, show, change, complete or remove tasks,
then answer with a short natural-language confirmation. Never invent task ids.`

// Completer is the slice of the OpenAI client the agent uses. *openai.Client
// satisfies it; tests substitute a fake.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewClient builds the real OpenAI client from configuration.
func NewClient(cfg Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return openai.NewClientWithConfig(clientCfg)
}

type Agent struct {
	client Completer
	model  string
}

func New(client Completer, model string) *Agent {
	return &Agent{client: client, model: model}
}

// Run feeds the prior history plus the new message to the model and executes
// tool calls through the registry until the model produces a final reply.
// The metadata of the last successful tool call is returned with the reply.
func (a *Agent) Run(ctx context.Context, reg *Registry, history []models.ConversationTurn, message string) (string, *Metadata, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	var lastMeta *Metadata
	for step := 0; step < maxSteps; step++ {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
			Tools:    reg.Definitions(),
		})
		if err != nil {
			return "", nil, mapProviderError(err)
		}
		if len(resp.Choices) == 0 {
			return "", nil, fmt.Errorf("%w: empty response", ErrProvider)
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, lastMeta, nil
		}

		messages = append(messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   msg.Content,
			ToolCalls: msg.ToolCalls,
		})
		for _, tc := range msg.ToolCalls {
			result, meta, err := reg.Execute(tc.Function.Name, json.RawMessage(tc.Function.Arguments))
			if err != nil {
				result = toolFailure(err)
			}
			if meta != nil {
				lastMeta = meta
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	return "", nil, fmt.Errorf("%w: tool loop exceeded %d steps", ErrProvider, maxSteps)
}

func mapProviderError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return ErrRateLimited
	}
	return fmt.Errorf("%w: %v", ErrProvider, err)
}
