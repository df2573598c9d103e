package schema

import (
	"encoding/json"
	"fmt"
)

// EmbeddingsRequest is the unified embeddings request.
type EmbeddingsRequest struct {
	Model          string          `json:"model"`
	Input          EmbeddingsInput `json:"input"`
	EncodingFormat string          `json:"encoding_format,omitempty"`
	Dimensions     *int            `json:"dimensions,omitempty"`
	User           string          `json:"user,omitempty"`
}

// EmbeddingsInput is the string-or-strings union accepted by the input field.
type EmbeddingsInput struct {
	String  *string
	Strings []string
}

// Texts returns the input as a slice regardless of which form was supplied.
func (i EmbeddingsInput) Texts() []string {
	if i.String != nil {
		return []string{*i.String}
	}
	return i.Strings
}

// MarshalJSON implements json.Marshaler.
func (i EmbeddingsInput) MarshalJSON() ([]byte, error) {
	if i.String != nil {
		return json.Marshal(*i.String)
	}
	return json.Marshal(i.Strings)
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *EmbeddingsInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.String = &s
		i.Strings = nil
		return nil
	}
	var ss []string
	if err := json.Unmarshal(data, &ss); err != nil {
		return fmt.Errorf("input must be a string or an array of strings: %w", err)
	}
	i.String = nil
	i.Strings = ss
	return nil
}

// EmbeddingsResponse is the unified embeddings response.
type EmbeddingsResponse struct {
	Object string      `json:"object"`
	Data   []Embedding `json:"data"`
	Model  string      `json:"model"`
	Usage  *Usage      `json:"usage,omitempty"`
}

// Embedding is one embedding vector in an embeddings response.
type Embedding struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}
