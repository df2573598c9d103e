package vertexai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/providers"
	"llmhub/gateway/pkg/schema"
)

// streamChunks pumps a Gemini SSE stream into unified chunks. Each SSE data
// frame is a full generateResponse carrying one content delta; the final
// frame carries the finish reason and usage.
func streamChunks(ctx context.Context, model string, resp *http.Response) <-chan *providers.StreamChunk {
	out := make(chan *providers.StreamChunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		id := schema.NewResponseID()
		created := time.Now().Unix()
		roleSent := false
		toolCount := 0

		scanner := providers.NewSSEScanner(resp.Body)
		for {
			event, err := scanner.Next()
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					deliver(ctx, out, &providers.StreamChunk{
						Err: apierror.Wrap(apierror.KindUpstreamServer, err, "reading vertexai stream"),
					})
				}
				return
			}

			var frame generateResponse
			if err := json.Unmarshal([]byte(event.Data), &frame); err != nil {
				deliver(ctx, out, &providers.StreamChunk{
					Err: apierror.Wrap(apierror.KindUpstreamServer, err, "decoding vertexai frame"),
				})
				return
			}
			if len(frame.Candidates) == 0 {
				continue
			}
			cand := frame.Candidates[0]

			delta := schema.ChunkDelta{}
			if !roleSent {
				delta.Role = schema.RoleAssistant
				roleSent = true
			}
			for _, p := range cand.Content.Parts {
				switch {
				case p.FunctionCall != nil:
					args, _ := json.Marshal(p.FunctionCall.Args)
					delta.ToolCalls = append(delta.ToolCalls, schema.ToolCallDelta{
						Index: toolCount,
						ID:    schema.NewToolCallID(),
						Type:  "function",
						Function: &schema.FunctionCallDelta{
							Name:      p.FunctionCall.Name,
							Arguments: string(args),
						},
					})
					toolCount++
				default:
					delta.Content += p.Text
				}
			}

			var finish *string
			if cand.FinishReason != "" {
				f := mapFinishReason(cand.FinishReason, toolCount > 0)
				finish = &f
			}

			chunk := &schema.ChatCompletionChunk{
				ID:      id,
				Object:  schema.ObjectChatCompletionChunk,
				Created: created,
				Model:   model,
				Choices: []schema.ChunkChoice{{Index: 0, Delta: delta, FinishReason: finish}},
			}
			if finish != nil && frame.UsageMetadata != nil {
				chunk.Usage = &schema.Usage{
					PromptTokens:     frame.UsageMetadata.PromptTokenCount,
					CompletionTokens: frame.UsageMetadata.CandidatesTokenCount,
					TotalTokens:      frame.UsageMetadata.TotalTokenCount,
				}
			}
			if !deliver(ctx, out, &providers.StreamChunk{Chunk: chunk}) {
				return
			}
		}
	}()
	return out
}

func deliver(ctx context.Context, out chan<- *providers.StreamChunk, c *providers.StreamChunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
