// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
// Package azure provides an Azure OpenAI chat provider for convo.
package azure

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/dmolins/convo/pkg/llm"
)

// Provider implements llm.Provider against an Azure OpenAI deployment.
type Provider struct {
	client     openai.Client
	deployment string
}

// Config holds the Azure OpenAI connection settings.
type Config struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Deployment string
	MaxRetries int
}

// New creates a new Azure OpenAI provider. On Azure the model name in each
// request is the deployment name.
func New(cfg Config) *Provider {
	opts := []option.RequestOption{
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	return &Provider{
		client:     openai.NewClient(opts...),
		deployment: cfg.Deployment,
	}
}

// Chat implements llm.Provider.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.deployment
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, convertMessage(msg))
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, convertTool(tool))
		}
		params.Tools = tools
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("azure openai chat completion failed: %w", err)
	}

	return convertResponse(completion), nil
}

// convertMessage converts a convo message to the OpenAI wire format.
func convertMessage(msg llm.Message) openai.ChatCompletionMessageParamUnion {
	switch msg.Role {
	case llm.RoleSystem:
		return openai.SystemMessage(msg.Content)
	case llm.RoleUser:
		return openai.UserMessage(msg.Content)
	case llm.RoleAssistant:
		if len(msg.ToolCalls) > 0 {
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			assistantMsg := openai.ChatCompletionAssistantMessageParam{
				ToolCalls: toolCalls,
			}
			if msg.Content != "" {
				assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: param.NewOpt(msg.Content),
				}
			}
			return openai.ChatCompletionMessageParamUnion{
				OfAssistant: &assistantMsg,
			}
		}
		return openai.AssistantMessage(msg.Content)
	case llm.RoleTool:
		return openai.ToolMessage(msg.Content, msg.ToolCallID)
	default:
		return openai.UserMessage(msg.Content)
	}
}

// convertTool converts a convo tool definition to the OpenAI wire format.
func convertTool(tool llm.Tool) openai.ChatCompletionToolParam {
	paramsJSON, _ := json.Marshal(tool.Function.Parameters)
	var params openai.FunctionParameters
	json.Unmarshal(paramsJSON, &params)

	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: openai.FunctionDefinitionParam{
			Name:        tool.Function.Name,
			Description: openai.String(tool.Function.Description),
			Parameters:  params,
		},
	}
}

// convertResponse converts an OpenAI response to the convo shape.
func convertResponse(completion *openai.ChatCompletion) *llm.ChatResponse {
	resp := &llm.ChatResponse{
		Usage: llm.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}

	if len(completion.Choices) > 0 {
		choice := completion.Choices[0]
		resp.Content = choice.Message.Content

		if len(choice.Message.ToolCalls) > 0 {
			resp.ToolCalls = make([]llm.ToolCall, 0, len(choice.Message.ToolCalls))
			for _, tc := range choice.Message.ToolCalls {
				resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
					ID:   tc.ID,
					Type: llm.ToolTypeFunction,
					Function: llm.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
		}
	}

	return resp
}

// Ensure Provider implements llm.Provider.
var _ llm.Provider = (*Provider)(nil)
