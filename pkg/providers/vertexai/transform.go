package vertexai

import (
	"encoding/json"
	"regexp"
	"time"

	"llmhub/gateway/pkg/schema"
)

// Gemini wire types shared by the Vertex AI and Generative Language
// endpoints.

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	Tools             []toolDecls       `json:"tools,omitempty"`
	ToolConfig        *toolConfig       `json:"toolConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text             string            `json:"text,omitempty"`
	InlineData       *inlineData       `json:"inlineData,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type functionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type generationConfig struct {
	Temperature      *float64        `json:"temperature,omitempty"`
	TopP             *float64        `json:"topP,omitempty"`
	MaxOutputTokens  int             `json:"maxOutputTokens,omitempty"`
	StopSequences    []string        `json:"stopSequences,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any  `json:"responseSchema,omitempty"`
	ThinkingConfig   *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type toolDecls struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type toolConfig struct {
	FunctionCallingConfig functionCallingConfig `json:"functionCallingConfig"`
}

type functionCallingConfig struct {
	Mode                 string   `json:"mode"`
	AllowedFunctionNames []string `json:"allowedFunctionNames,omitempty"`
}

type generateResponse struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
	Index        int     `json:"index"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Reasoning effort maps onto Gemini thinking budgets (token counts).
var thinkingBudgets = map[string]int{
	"low":    1024,
	"medium": 8192,
	"high":   24576,
}

// translateRequest converts a unified chat request to the Gemini shape.
// System messages move into systemInstruction, assistant turns become the
// "model" role, and tool results become functionResponse parts.
func translateRequest(req *schema.ChatCompletionRequest) *generateRequest {
	out := &generateRequest{}

	gen := &generationConfig{
		Temperature:     req.Temperature,
		TopP:            req.TopP,
		MaxOutputTokens: req.EffectiveMaxTokens(),
		StopSequences:   req.Stop,
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_schema" && req.ResponseFormat.JSONSchema != nil {
		gen.ResponseMimeType = "application/json"
		gen.ResponseSchema = req.ResponseFormat.JSONSchema.Schema
	} else if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		gen.ResponseMimeType = "application/json"
	}
	if req.Reasoning != nil {
		if budget, ok := thinkingBudgets[req.Reasoning.Effort]; ok {
			gen.ThinkingConfig = &thinkingConfig{ThinkingBudget: budget}
		}
	}
	out.GenerationConfig = gen

	// Tool call ids are not echoed back by Gemini; remember which call
	// carried which function name so tool results can reference it.
	callNames := map[string]string{}

	for _, msg := range req.Messages {
		switch msg.Role {
		case schema.RoleSystem:
			if out.SystemInstruction == nil {
				out.SystemInstruction = &content{}
			}
			out.SystemInstruction.Parts = append(out.SystemInstruction.Parts, part{Text: msg.Content.Text()})
		case schema.RoleAssistant:
			c := content{Role: "model"}
			if text := msg.Content.Text(); text != "" {
				c.Parts = append(c.Parts, part{Text: text})
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
				callNames[tc.ID] = tc.Function.Name
				c.Parts = append(c.Parts, part{FunctionCall: &functionCall{
					Name: tc.Function.Name,
					Args: args,
				}})
			}
			out.Contents = append(out.Contents, c)
		case schema.RoleTool:
			out.Contents = append(out.Contents, content{
				Role: "user",
				Parts: []part{{FunctionResponse: &functionResponse{
					Name:     callNames[msg.ToolCallID],
					Response: map[string]any{"content": msg.Content.Text()},
				}}},
			})
		default:
			out.Contents = append(out.Contents, content{Role: "user", Parts: translateParts(msg.Content)})
		}
	}

	if len(req.Tools) > 0 {
		decls := toolDecls{}
		for _, t := range req.Tools {
			decls.FunctionDeclarations = append(decls.FunctionDeclarations, functionDeclaration{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			})
		}
		out.Tools = []toolDecls{decls}
	}
	out.ToolConfig = translateToolChoice(req.ToolChoice)
	return out
}

func translateParts(c schema.MessageContent) []part {
	if c.String != nil {
		return []part{{Text: *c.String}}
	}
	var parts []part
	for _, p := range c.Parts {
		switch p.Type {
		case schema.ContentPartText:
			parts = append(parts, part{Text: p.Text})
		case schema.ContentPartImageURL:
			if p.ImageURL != nil {
				if mime, data, ok := parseDataURI(p.ImageURL.URL); ok {
					parts = append(parts, part{InlineData: &inlineData{MimeType: mime, Data: data}})
				}
			}
		}
	}
	return parts
}

var dataURIPattern = regexp.MustCompile(`\Adata:(.+?);base64,`)

// parseDataURI splits a base64 data URI into its mime type and payload.
// Gemini takes inline images as base64, so only data URIs translate; plain
// http(s) image urls are skipped.
func parseDataURI(uri string) (mime, data string, ok bool) {
	m := dataURIPattern.FindStringSubmatch(uri)
	if m == nil {
		return "", "", false
	}
	return m[1], uri[len(m[0]):], true
}

func translateToolChoice(choice any) *toolConfig {
	switch v := choice.(type) {
	case string:
		switch v {
		case "auto":
			return &toolConfig{FunctionCallingConfig: functionCallingConfig{Mode: "AUTO"}}
		case "required":
			return &toolConfig{FunctionCallingConfig: functionCallingConfig{Mode: "ANY"}}
		case "none":
			return &toolConfig{FunctionCallingConfig: functionCallingConfig{Mode: "NONE"}}
		}
	case map[string]any:
		if fn, ok := v["function"].(map[string]any); ok {
			if name, ok := fn["name"].(string); ok {
				return &toolConfig{FunctionCallingConfig: functionCallingConfig{
					Mode:                 "ANY",
					AllowedFunctionNames: []string{name},
				}}
			}
		}
	}
	return nil
}

// mapFinishReason converts Gemini finish reasons to OpenAI finish reasons.
// hasToolCalls wins over the upstream reason because Gemini reports STOP for
// function-call turns.
func mapFinishReason(reason string, hasToolCalls bool) string {
	if hasToolCalls {
		return "tool_calls"
	}
	switch reason {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION", "PROHIBITED_CONTENT", "BLOCKLIST":
		return "content_filter"
	default:
		return "stop"
	}
}

// translateResponse converts a Gemini response to the unified shape.
func translateResponse(resp *generateResponse, model string) *schema.ChatCompletionResponse {
	out := &schema.ChatCompletionResponse{
		ID:      schema.NewResponseID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
	}
	for i, cand := range resp.Candidates {
		msg := schema.Message{Role: schema.RoleAssistant}
		var text string
		for _, p := range cand.Content.Parts {
			switch {
			case p.FunctionCall != nil:
				args, _ := json.Marshal(p.FunctionCall.Args)
				msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
					ID:   schema.NewToolCallID(),
					Type: "function",
					Function: schema.FunctionCall{
						Name:      p.FunctionCall.Name,
						Arguments: string(args),
					},
				})
			default:
				text += p.Text
			}
		}
		msg.Content = schema.NewTextContent(text)
		out.Choices = append(out.Choices, schema.ChatChoice{
			Index:        i,
			Message:      msg,
			FinishReason: mapFinishReason(cand.FinishReason, len(msg.ToolCalls) > 0),
		})
	}
	if resp.UsageMetadata != nil {
		out.Usage = &schema.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return out
}
