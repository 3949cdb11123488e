// Package agent implements the LLM-assisted steps of the pipeline: finding
// group websites, extracting membership lists from them, and assigning
// subject categories.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/appgwatch/appgwatch/internal/model"
)

// maxToolRounds caps the tool-calling loop for a single agent run
const maxToolRounds = 12

// Client wraps the OpenAI chat API with a tool-calling loop
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
}

// NewClient creates an LLM client from the configuration
func NewClient(cfg model.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = openai.GPT4o
	}

	return &Client{
		api:       openai.NewClientWithConfig(clientConfig),
		model:     m,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Tool is a function the model may call during a run
type Tool struct {
	Definition openai.FunctionDefinition
	Call       func(ctx context.Context, arguments string) (string, error)
}

// Run drives a conversation until the model produces a final answer, then
// decodes it into output. Tool calls are dispatched as they arrive; the final
// message must be a JSON object matching the output type.
func (c *Client) Run(ctx context.Context, systemPrompt, userMessage string, tools []Tool, output any) error {
	toolDefs := make([]openai.Tool, 0, len(tools))
	byName := make(map[string]Tool, len(tools))
	for _, tool := range tools {
		def := tool.Definition
		toolDefs = append(toolDefs, openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: &def,
		})
		byName[tool.Definition.Name] = tool
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userMessage},
	}

	for round := 0; round < maxToolRounds; round++ {
		req := openai.ChatCompletionRequest{
			Model:     c.model,
			Messages:  messages,
			Tools:     toolDefs,
			MaxTokens: c.maxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		}

		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no response from model")
		}

		message := resp.Choices[0].Message
		messages = append(messages, message)

		if len(message.ToolCalls) == 0 {
			content := strings.TrimSpace(message.Content)
			if err := json.Unmarshal([]byte(content), output); err != nil {
				return fmt.Errorf("decode model output: %w", err)
			}
			return nil
		}

		for _, call := range message.ToolCalls {
			tool, ok := byName[call.Function.Name]
			result := ""
			if !ok {
				result = fmt.Sprintf("unknown tool: %s", call.Function.Name)
			} else if out, err := tool.Call(ctx, call.Function.Arguments); err != nil {
				result = fmt.Sprintf("tool error: %v", err)
			} else {
				result = out
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	return fmt.Errorf("model did not produce a final answer after %d rounds", maxToolRounds)
}

// stripWhitespace removes all whitespace from the text, used for tolerant
// containment checks against fetched pages
func stripWhitespace(text string) string {
	return strings.Join(strings.Fields(text), "")
}
