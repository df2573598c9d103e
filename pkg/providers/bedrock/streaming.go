package bedrock

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/providers"
	"llmhub/gateway/pkg/providers/anthropic"
)

// chunkEnvelope is the payload of one bedrock response-stream message: the
// inner provider event, base64-encoded. Exception frames carry a message
// instead of bytes.
type chunkEnvelope struct {
	Bytes   []byte `json:"bytes"`
	Message string `json:"message"`
}

// streamClaude pumps a bedrock invoke-with-response-stream body into unified
// chunks. The binary event stream is decoded frame by frame; each frame's
// base64 payload is an Anthropic stream event and reuses the Anthropic
// translation. The channel closes at message_stop, stream end, or error.
func streamClaude(ctx context.Context, resp *http.Response) <-chan *providers.StreamChunk {
	out := make(chan *providers.StreamChunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		st := anthropic.NewStreamState()
		dec := eventstream.NewDecoder()
		var buf []byte
		for {
			msg, err := dec.Decode(resp.Body, buf)
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					send(ctx, out, &providers.StreamChunk{
						Err: apierror.Wrap(apierror.KindUpstreamServer, err, "reading bedrock stream"),
					})
				}
				return
			}
			buf = msg.Payload[:0]

			var envelope chunkEnvelope
			if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
				send(ctx, out, &providers.StreamChunk{
					Err: apierror.Wrap(apierror.KindUpstreamServer, err, "decoding bedrock frame"),
				})
				return
			}
			if len(envelope.Bytes) == 0 {
				if envelope.Message != "" {
					send(ctx, out, &providers.StreamChunk{
						Err: apierror.New(apierror.KindUpstreamServer, "bedrock stream error: %s", envelope.Message),
					})
					return
				}
				continue
			}

			var ev anthropic.StreamEvent
			if err := json.Unmarshal(envelope.Bytes, &ev); err != nil {
				send(ctx, out, &providers.StreamChunk{
					Err: apierror.Wrap(apierror.KindUpstreamServer, err, "decoding bedrock event"),
				})
				return
			}
			switch ev.Type {
			case "message_stop":
				return
			case "ping":
				continue
			case "error":
				msg := "bedrock stream error"
				if ev.Error != nil {
					msg = ev.Error.Message
				}
				send(ctx, out, &providers.StreamChunk{
					Err: apierror.New(apierror.KindUpstreamServer, "%s", msg),
				})
				return
			}

			if chunk := anthropic.TranslateStreamEvent(&ev, st); chunk != nil {
				if !send(ctx, out, &providers.StreamChunk{Chunk: chunk}) {
					return
				}
			}
		}
	}()
	return out
}

func send(ctx context.Context, out chan<- *providers.StreamChunk, c *providers.StreamChunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
