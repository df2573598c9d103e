package server

import (
	"encoding/json"
	"net/http"
	"time"

	"llmhub/gateway/pkg/apierror"
	"llmhub/gateway/pkg/config"
	"llmhub/gateway/pkg/pipeline"
	"llmhub/gateway/pkg/schema"
	"llmhub/gateway/pkg/state"
	"llmhub/gateway/pkg/telemetry"
)

// PipelineHeader selects a non-default pipeline by name.
const PipelineHeader = "X-Traceloop-Pipeline"

// maxBodyBytes caps request body reads.
const maxBodyBytes = 10 << 20

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	snap, p, ok := s.selectPipeline(w, r, config.PipelineChat)
	if !ok {
		return
	}
	var req schema.ChatCompletionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ex := &pipeline.Exec{RequestID: RequestID(r.Context()), Chat: &req}
	s.execute(w, r, snap, p, ex)
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	snap, p, ok := s.selectPipeline(w, r, config.PipelineCompletion)
	if !ok {
		return
	}
	var req schema.CompletionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ex := &pipeline.Exec{RequestID: RequestID(r.Context()), Completion: &req}
	s.execute(w, r, snap, p, ex)
}

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	snap, p, ok := s.selectPipeline(w, r, config.PipelineEmbeddings)
	if !ok {
		return
	}
	var req schema.EmbeddingsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ex := &pipeline.Exec{RequestID: RequestID(r.Context()), Embeddings: &req}
	s.execute(w, r, snap, p, ex)
}

// selectPipeline captures the current snapshot and resolves the pipeline for
// the request; the snapshot is held for the whole request so a mid-flight
// reload never mixes configurations.
func (s *Server) selectPipeline(w http.ResponseWriter, r *http.Request, pt config.PipelineType) (*state.Snapshot, *pipeline.Pipeline, bool) {
	snap := s.store.Current()
	if snap == nil {
		writeError(w, apierror.New(apierror.KindInternal, "configuration not loaded"))
		return nil, nil, false
	}
	name := r.Header.Get(PipelineHeader)
	p, ok := snap.PipelineFor(name, pt)
	if !ok {
		if name == "" {
			writeError(w, apierror.New(apierror.KindPipelineNotFound, "no %s pipeline configured", pt))
		} else {
			writeError(w, apierror.New(apierror.KindPipelineNotFound, "pipeline %q not found for %s", name, pt))
		}
		return nil, nil, false
	}
	return snap, p, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, apierror.Wrap(apierror.KindInvalidRequest, err, "invalid request body"))
		return false
	}
	return true
}

// execute runs the pipeline and writes the outcome: JSON for complete
// responses, SSE for streams.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, _ *state.Snapshot, p *pipeline.Pipeline, ex *pipeline.Exec) {
	start := time.Now()
	result, err := p.Execute(r.Context(), ex)

	outcome := "ok"
	modelKey, providerType := "", ""
	if err != nil {
		ae := apierror.FromError(err)
		outcome = string(ae.Kind)
		modelKey = ae.Model
		providerType = ae.Provider
	} else {
		modelKey = result.ModelKey
		providerType = string(result.ProviderType)
	}
	telemetry.RequestsTotal.WithLabelValues(string(p.Type), p.Name, modelKey, providerType, outcome).Inc()
	telemetry.RequestDuration.WithLabelValues(string(p.Type), p.Name, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		writeError(w, err)
		return
	}

	switch {
	case result.IsStream():
		s.writeStream(w, r, p.Name, result)
	case result.Chat != nil:
		writeJSON(w, http.StatusOK, result.Chat.Response)
	case result.Completion != nil:
		writeJSON(w, http.StatusOK, result.Completion)
	case result.Embeddings != nil:
		writeJSON(w, http.StatusOK, result.Embeddings)
	default:
		writeError(w, apierror.New(apierror.KindInternal, "pipeline produced no result"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	ae := apierror.FromError(err)
	writeJSON(w, ae.HTTPStatus(), ae.ToBody())
}
