package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient implementa Client sobre el SDK google.golang.org/genai.
type GeminiClient struct {
	models contentGenerator
	logger *zap.Logger
}

// NewGeminiClient crea el cliente contra la Gemini API usando la API key.
func NewGeminiClient(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{models: client.Models, logger: logger}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, req Request) (Reply, error) {
	contents := toGenaiContents(req.Messages)
	if len(contents) == 0 {
		return Reply{}, fmt.Errorf("gemini: empty conversation")
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: toFunctionDeclarations(req.Tools)}}
	}

	resp, err := c.models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return Reply{}, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		c.logger.Warn("gemini returned no candidates", zap.String("model", req.Model))
		return Reply{}, nil
	}

	var text strings.Builder
	reply := Reply{}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.FunctionCall != nil {
			reply.Calls = append(reply.Calls, ToolCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
			continue
		}
		text.WriteString(part.Text)
	}
	reply.Text = text.String()
	return reply, nil
}

func toGenaiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch {
		case m.Call != nil:
			contents = append(contents, &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{
					ID:   m.Call.ID,
					Name: m.Call.Name,
					Args: m.Call.Args,
				}}},
			})
		case m.Result != nil:
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
					ID:       m.Result.CallID,
					Name:     m.Result.Name,
					Response: m.Result.Response,
				}}},
			})
		case m.Role == RoleModel:
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleUser))
		}
	}
	return contents
}

func toFunctionDeclarations(tools []Tool) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]*genai.Schema, len(t.Params))
		for _, p := range t.Params {
			props[p.Name] = &genai.Schema{
				Type:        genai.TypeString,
				Description: p.Description,
				Enum:        p.Enum,
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   requiredParams(t.Params),
			},
		})
	}
	return decls
}
