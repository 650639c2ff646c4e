package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HTTPClient implementa Client contra una API OpenAI-compatible (chat completions con tools).
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye un cliente HTTP apuntando a la API de chat completions.
func NewHTTPClient(baseURL, apiKey string, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// Sin timeout propio: el limite lo pone el ctx de la invocacion (AGENT_TIMEOUT_SECONDS).
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
		logger:  logger,
	}
}

func (c *HTTPClient) Generate(ctx context.Context, req Request) (Reply, error) {
	bodyBytes, err := json.Marshal(buildChatRequest(req))
	if err != nil {
		return Reply{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Reply{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("llm error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return Reply{}, fmt.Errorf("llm http error: status=%d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return Reply{}, fmt.Errorf("unmarshal response: %w", err)
	}

	if cr.Error != nil {
		return Reply{}, fmt.Errorf("llm api error: %s", cr.Error.Message)
	}

	if len(cr.Choices) == 0 {
		return Reply{}, fmt.Errorf("llm empty response")
	}

	msg := cr.Choices[0].Message
	reply := Reply{}
	if msg.Content != nil {
		reply.Text = *msg.Content
	}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return Reply{}, fmt.Errorf("decode tool arguments for %s: %w", tc.Function.Name, err)
			}
		}
		reply.Calls = append(reply.Calls, ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return reply, nil
}

func buildChatRequest(req Request) chatRequest {
	out := chatRequest{Model: req.Model}
	if req.System != "" {
		out.Messages = append(out.Messages, chatMessage{Role: "system", Content: strPtr(req.System)})
	}

	for _, m := range req.Messages {
		switch {
		case m.Call != nil:
			id := m.Call.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			args, _ := json.Marshal(m.Call.Args)
			out.Messages = append(out.Messages, chatMessage{
				Role: "assistant",
				ToolCalls: []chatToolCall{{
					ID:   id,
					Type: "function",
					Function: chatFunctionCall{
						Name:      m.Call.Name,
						Arguments: string(args),
					},
				}},
			})
		case m.Result != nil:
			payload, _ := json.Marshal(m.Result.Response)
			out.Messages = append(out.Messages, chatMessage{
				Role:       "tool",
				ToolCallID: m.Result.CallID,
				Content:    strPtr(string(payload)),
			})
		case m.Role == RoleModel:
			out.Messages = append(out.Messages, chatMessage{Role: "assistant", Content: strPtr(m.Text)})
		default:
			out.Messages = append(out.Messages, chatMessage{Role: "user", Content: strPtr(m.Text)})
		}
	}

	for _, t := range req.Tools {
		props := map[string]chatProperty{}
		for _, p := range t.Params {
			props[p.Name] = chatProperty{Type: "string", Description: p.Description, Enum: p.Enum}
		}
		out.Tools = append(out.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters: chatParameters{
					Type:       "object",
					Properties: props,
					Required:   requiredParams(t.Params),
				},
			},
		})
	}
	return out
}

func strPtr(s string) *string { return &s }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Tools    []chatTool    `json:"tools,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`
}

type chatFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  chatParameters `json:"parameters"`
}

type chatParameters struct {
	Type       string                  `json:"type"`
	Properties map[string]chatProperty `json:"properties"`
	Required   []string                `json:"required,omitempty"`
}

type chatProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
