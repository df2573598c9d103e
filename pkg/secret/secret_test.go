package secret

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "api-key")
	if err := os.WriteFile(keyFile, []byte("  sk-from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_SECRET_ENV", "sk-from-env")

	tests := []struct {
		name    string
		ref     Ref
		want    string
		wantErr bool
	}{
		{name: "literal", ref: Ref{Literal: "sk-literal"}, want: "sk-literal"},
		{name: "environment", ref: Ref{Environment: "TEST_SECRET_ENV"}, want: "sk-from-env"},
		{name: "environment missing", ref: Ref{Environment: "TEST_SECRET_MISSING"}, wantErr: true},
		{name: "file trims whitespace", ref: Ref{File: keyFile}, want: "sk-from-file"},
		{name: "file missing", ref: Ref{File: filepath.Join(dir, "nope")}, wantErr: true},
		{name: "empty", ref: Ref{}, wantErr: true},
		{name: "kubernetes missing key", ref: Ref{Kubernetes: &KubernetesRef{SecretName: "s"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ref.Resolve()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	var nilRef *Ref
	if !nilRef.IsZero() {
		t.Error("nil ref should be zero")
	}
	if !(&Ref{}).IsZero() {
		t.Error("empty ref should be zero")
	}
	if (&Ref{Literal: "x"}).IsZero() {
		t.Error("literal ref should not be zero")
	}
}

func TestYAMLScalarShorthand(t *testing.T) {
	var r Ref
	if err := yaml.Unmarshal([]byte(`"sk-inline"`), &r); err != nil {
		t.Fatalf("unmarshal scalar: %v", err)
	}
	if r.Literal != "sk-inline" {
		t.Errorf("Literal = %q, want sk-inline", r.Literal)
	}

	var tagged Ref
	doc := "environment: OPENAI_API_KEY\n"
	if err := yaml.Unmarshal([]byte(doc), &tagged); err != nil {
		t.Fatalf("unmarshal mapping: %v", err)
	}
	if tagged.Environment != "OPENAI_API_KEY" {
		t.Errorf("Environment = %q", tagged.Environment)
	}
}

func TestJSONScalarShorthand(t *testing.T) {
	var r Ref
	if err := json.Unmarshal([]byte(`"sk-inline"`), &r); err != nil {
		t.Fatalf("unmarshal scalar: %v", err)
	}
	if r.Literal != "sk-inline" {
		t.Errorf("Literal = %q, want sk-inline", r.Literal)
	}

	var k Ref
	if err := json.Unmarshal([]byte(`{"kubernetes":{"secret_name":"llm","key":"api-key"}}`), &k); err != nil {
		t.Fatalf("unmarshal kubernetes: %v", err)
	}
	if k.Kubernetes == nil || k.Kubernetes.SecretName != "llm" || k.Kubernetes.Key != "api-key" {
		t.Errorf("kubernetes ref = %+v", k.Kubernetes)
	}
}
