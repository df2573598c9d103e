package vertexai

import (
	"testing"

	"golang.org/x/oauth2"

	"llmhub/gateway/pkg/apierror"
)

func TestEndpointAPIKey(t *testing.T) {
	a := &Adapter{apiKey: "k"}

	u, header, err := a.endpoint("gemini-2.0-flash", "generateContent", false)
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	want := "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent?key=k"
	if u != want {
		t.Errorf("url = %q\nwant  %q", u, want)
	}
	if header != nil {
		t.Errorf("api-key path should not set headers: %v", header)
	}

	u, _, _ = a.endpoint("gemini-2.0-flash", "streamGenerateContent", true)
	wantStream := "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:streamGenerateContent?key=k&alt=sse"
	if u != wantStream {
		t.Errorf("stream url = %q\nwant       %q", u, wantStream)
	}
}

func TestEndpointServiceAccount(t *testing.T) {
	a := &Adapter{
		project:  "proj",
		location: "us-central1",
		tokens:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"}),
	}

	u, header, err := a.endpoint("gemini-2.0-flash", "generateContent", false)
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	want := "https://us-central1-aiplatform.googleapis.com/v1/projects/proj/locations/us-central1/publishers/google/models/gemini-2.0-flash:generateContent"
	if u != want {
		t.Errorf("url = %q\nwant  %q", u, want)
	}
	if header.Get("Authorization") != "Bearer tok" {
		t.Errorf("Authorization = %q", header.Get("Authorization"))
	}
}

func TestEndpointEscapesModel(t *testing.T) {
	a := &Adapter{apiKey: "k"}
	u, _, err := a.endpoint("gemini 2.0/flash", "generateContent", false)
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	want := "https://generativelanguage.googleapis.com/v1beta/models/gemini%202.0%2Fflash:generateContent?key=k"
	if u != want {
		t.Errorf("url = %q\nwant  %q", u, want)
	}
}

func TestEmbeddingsEndpoint(t *testing.T) {
	a := &Adapter{apiKey: "k", project: "proj", location: "eu-west4"}
	u, header, err := a.embeddingsEndpoint("text-embedding-004")
	if err != nil {
		t.Fatalf("embeddingsEndpoint: %v", err)
	}
	want := "https://eu-west4-aiplatform.googleapis.com/v1/projects/proj/locations/eu-west4/publishers/google/models/text-embedding-004/generateEmbeddings?key=k"
	if u != want {
		t.Errorf("url = %q\nwant  %q", u, want)
	}
	if header != nil {
		t.Errorf("api-key path should not set headers: %v", header)
	}

	sa := &Adapter{
		project:  "proj",
		location: "eu-west4",
		tokens:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"}),
	}
	u, header, err = sa.embeddingsEndpoint("text-embedding-004")
	if err != nil {
		t.Fatalf("embeddingsEndpoint: %v", err)
	}
	if u != want[:len(want)-len("?key=k")] {
		t.Errorf("bearer url = %q", u)
	}
	if header.Get("Authorization") != "Bearer tok" {
		t.Errorf("Authorization = %q", header.Get("Authorization"))
	}
}

func TestEmbeddingsEndpointRequiresProject(t *testing.T) {
	a := &Adapter{key: "vx", apiKey: "k"}
	_, _, err := a.embeddingsEndpoint("text-embedding-004")
	if err == nil {
		t.Fatal("expected error without project_id and location")
	}
	if apierror.FromError(err).Kind != apierror.KindConfigInvalid {
		t.Errorf("kind = %s", apierror.FromError(err).Kind)
	}
}
