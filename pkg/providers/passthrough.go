package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/schema"
)

// StreamDone is the sentinel frame terminating an OpenAI-style SSE stream.
const StreamDone = "[DONE]"

// PassthroughStream pumps an upstream OpenAI-format SSE body into a channel
// of unified chunks without translation. It serves backends whose streaming
// format already matches the unified chunk shape (OpenAI, Azure OpenAI).
//
// The channel closes when the upstream emits [DONE], the body ends, or the
// context is cancelled. The response body is always closed, which aborts
// the upstream request when the consumer goes away early.
func PassthroughStream(ctx context.Context, providerType string, resp *http.Response) <-chan *StreamChunk {
	out := make(chan *StreamChunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := NewSSEScanner(resp.Body)
		for {
			event, err := scanner.Next()
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					sendChunk(ctx, out, &StreamChunk{
						Err: apierror.Wrap(apierror.KindUpstreamServer, err, "reading %s stream", providerType),
					})
				}
				return
			}
			if event.Data == StreamDone {
				return
			}
			var chunk schema.ChatCompletionChunk
			if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
				sendChunk(ctx, out, &StreamChunk{
					Err: apierror.Wrap(apierror.KindUpstreamServer, err, "decoding %s chunk", providerType),
				})
				return
			}
			if !sendChunk(ctx, out, &StreamChunk{Chunk: &chunk}) {
				return
			}
		}
	}()
	return out
}

// sendChunk delivers a chunk unless the consumer's context is gone.
func sendChunk(ctx context.Context, out chan<- *StreamChunk, c *StreamChunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
