package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/pipeline"
	"llmhub/gateway/pkg/providers"
	"llmhub/gateway/pkg/telemetry"
)

// writeStream encodes a chunk stream as server-sent events. Every stream
// terminates with exactly one [DONE] frame: after the last chunk, after a
// mid-stream error frame, and on client cancellation. Errors arriving once
// streaming has begun cannot change the HTTP status, so they are encoded as
// an in-stream error frame.
func (s *Server) writeStream(w http.ResponseWriter, r *http.Request, pipelineName string, result *pipeline.Result) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apierror.New(apierror.KindInternal, "streaming unsupported by connection"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for sc := range result.Chat.Stream {
		if sc.Err != nil {
			s.logger.Warn("stream ended with error",
				"request_id", RequestID(r.Context()),
				"pipeline", pipelineName,
				"error", sc.Err)
			writeFrame(w, flusher, apierror.FromError(sc.Err).ToBody())
			break
		}
		writeFrame(w, flusher, sc.Chunk)
		telemetry.StreamChunks.WithLabelValues(pipelineName, result.ModelKey).Inc()
	}

	fmt.Fprintf(w, "data: %s\n\n", providers.StreamDone)
	flusher.Flush()
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
	flusher.Flush()
}
