package anthropic

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

// StreamEvent is one event of Anthropic's chat event stream.
type StreamEvent struct {
	Type string `json:"type"`

	// message_start
	Message *Response `json:"message,omitempty"`

	// content_block_start
	Index        int           `json:"index,omitempty"`
	ContentBlock *ContentBlock `json:"content_block,omitempty"`

	// content_block_delta and message_delta share the delta field; the
	// inner type tag disambiguates.
	Delta *StreamDelta `json:"delta,omitempty"`

	// message_delta
	Usage *Usage `json:"usage,omitempty"`

	// error
	Error *StreamError `json:"error,omitempty"`
}

type StreamDelta struct {
	Type        string `json:"type,omitempty"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

type StreamError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// StreamState accumulates per-stream context needed to shape unified
// chunks: the generated response id, the model name from message_start,
// input token count, and which content block indexes are tool calls.
type StreamState struct {
	id          string
	model       string
	created     int64
	inputTokens int
	toolIndex   map[int]int
	toolCount   int
}

func NewStreamState() *StreamState {
	return &StreamState{
		id:        schema.NewResponseID(),
		created:   time.Now().Unix(),
		toolIndex: make(map[int]int),
	}
}

func (st *StreamState) chunk(delta schema.ChunkDelta, finish *string) *schema.ChatCompletionChunk {
	return &schema.ChatCompletionChunk{
		ID:      st.id,
		Object:  schema.ObjectChatCompletionChunk,
		Created: st.created,
		Model:   st.model,
		Choices: []schema.ChunkChoice{{Index: 0, Delta: delta, FinishReason: finish}},
	}
}

// TranslateStreamEvent converts one upstream event into zero or one unified
// chunks, updating stream state as a side effect.
func TranslateStreamEvent(ev *StreamEvent, st *StreamState) *schema.ChatCompletionChunk {
	switch ev.Type {
	case "message_start":
		if ev.Message != nil {
			st.model = ev.Message.Model
			st.inputTokens = ev.Message.Usage.InputTokens
		}
		return st.chunk(schema.ChunkDelta{Role: schema.RoleAssistant}, nil)

	case "content_block_start":
		if ev.ContentBlock != nil && ev.ContentBlock.Type == "tool_use" {
			idx := st.toolCount
			st.toolIndex[ev.Index] = idx
			st.toolCount++
			return st.chunk(schema.ChunkDelta{ToolCalls: []schema.ToolCallDelta{{
				Index:    idx,
				ID:       ev.ContentBlock.ID,
				Type:     "function",
				Function: &schema.FunctionCallDelta{Name: ev.ContentBlock.Name},
			}}}, nil)
		}
		return nil

	case "content_block_delta":
		if ev.Delta == nil {
			return nil
		}
		switch ev.Delta.Type {
		case "text_delta":
			return st.chunk(schema.ChunkDelta{Content: ev.Delta.Text}, nil)
		case "input_json_delta":
			idx, ok := st.toolIndex[ev.Index]
			if !ok {
				return nil
			}
			return st.chunk(schema.ChunkDelta{ToolCalls: []schema.ToolCallDelta{{
				Index:    idx,
				Function: &schema.FunctionCallDelta{Arguments: ev.Delta.PartialJSON},
			}}}, nil)
		}
		return nil

	case "message_delta":
		var finish *string
		if ev.Delta != nil && ev.Delta.StopReason != "" {
			f := MapStopReason(ev.Delta.StopReason)
			finish = &f
		}
		chunk := st.chunk(schema.ChunkDelta{}, finish)
		if ev.Usage != nil {
			chunk.Usage = &schema.Usage{
				PromptTokens:     st.inputTokens,
				CompletionTokens: ev.Usage.OutputTokens,
				TotalTokens:      st.inputTokens + ev.Usage.OutputTokens,
			}
		}
		return chunk
	}
	return nil
}

// streamChunks pumps Anthropic's event stream into unified chunks. The
// channel closes at message_stop or on error; the response body is always
// closed so an abandoned consumer aborts the upstream request.
func streamChunks(ctx context.Context, resp *http.Response) <-chan *providers.StreamChunk {
	out := make(chan *providers.StreamChunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		st := NewStreamState()
		scanner := providers.NewSSEScanner(resp.Body)
		for {
			event, err := scanner.Next()
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					emit(ctx, out, &providers.StreamChunk{
						Err: apierror.Wrap(apierror.KindUpstreamServer, err, "reading anthropic stream"),
					})
				}
				return
			}

			var ev StreamEvent
			if err := json.Unmarshal([]byte(event.Data), &ev); err != nil {
				emit(ctx, out, &providers.StreamChunk{
					Err: apierror.Wrap(apierror.KindUpstreamServer, err, "decoding anthropic event"),
				})
				return
			}

			switch ev.Type {
			case "message_stop":
				return
			case "ping":
				continue
			case "error":
				msg := "anthropic stream error"
				if ev.Error != nil {
					msg = ev.Error.Message
				}
				emit(ctx, out, &providers.StreamChunk{
					Err: apierror.New(apierror.KindUpstreamServer, "%s", msg),
				})
				return
			}

			if chunk := TranslateStreamEvent(&ev, st); chunk != nil {
				if !emit(ctx, out, &providers.StreamChunk{Chunk: chunk}) {
					return
				}
			}
		}
	}()
	return out
}

func emit(ctx context.Context, out chan<- *providers.StreamChunk, c *providers.StreamChunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
