package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidRequest, http.StatusBadRequest},
		{KindUnsupportedOperation, http.StatusBadRequest},
		{KindModelNotFound, http.StatusNotFound},
		{KindPipelineNotFound, http.StatusNotFound},
		{KindUpstreamAuth, http.StatusBadGateway},
		{KindUpstreamServer, http.StatusBadGateway},
		{KindUpstreamRateLimited, http.StatusTooManyRequests},
		{KindUpstreamTimeout, http.StatusGatewayTimeout},
		{KindInternal, http.StatusInternalServerError},
		{KindConfigInvalid, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e := New(tt.kind, "boom")
			if got := e.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	retryable := []Kind{KindUpstreamRateLimited, KindUpstreamServer, KindUpstreamTimeout}
	for _, k := range retryable {
		if !New(k, "x").Retryable() {
			t.Errorf("%s should be retryable", k)
		}
	}
	terminal := []Kind{KindInvalidRequest, KindModelNotFound, KindUpstreamAuth, KindUnsupportedOperation, KindInternal}
	for _, k := range terminal {
		if New(k, "x").Retryable() {
			t.Errorf("%s should not be retryable", k)
		}
	}
}

func TestFromUpstreamStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{401, KindUpstreamAuth},
		{403, KindUpstreamAuth},
		{429, KindUpstreamRateLimited},
		{500, KindUpstreamServer},
		{503, KindUpstreamServer},
		{400, KindInvalidRequest},
		{404, KindInvalidRequest},
	}
	for _, tt := range tests {
		e := FromUpstreamStatus(tt.status, "openai", "body")
		if e.Kind != tt.want {
			t.Errorf("status %d: kind = %s, want %s", tt.status, e.Kind, tt.want)
		}
		if e.Provider != "openai" {
			t.Errorf("status %d: provider not set", tt.status)
		}
	}
}

func TestToBodyShape(t *testing.T) {
	e := New(KindUpstreamRateLimited, "too many").WithModel("openai", "gpt-4")
	b, err := json.Marshal(e.ToBody())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"error":{"type":"upstream_rate_limited","message":"too many","provider":"openai","model":"gpt-4"}}`
	if string(b) != want {
		t.Errorf("body = %s, want %s", b, want)
	}
}

func TestFromErrorWrapping(t *testing.T) {
	inner := New(KindUpstreamTimeout, "deadline")
	wrapped := Wrap(KindUpstreamServer, inner, "outer")
	var ae *Error
	if !errors.As(wrapped, &ae) || ae.Kind != KindUpstreamServer {
		t.Fatalf("errors.As failed")
	}

	plain := errors.New("boom")
	if got := FromError(plain); got.Kind != KindInternal {
		t.Errorf("FromError(plain).Kind = %s, want internal", got.Kind)
	}
	if got := FromError(inner); got != inner {
		t.Errorf("FromError should return the typed error unchanged")
	}
}
