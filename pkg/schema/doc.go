// Package schema defines the unified, OpenAI-compatible request and response
// shapes used across the gateway. Inbound requests are parsed into these
// types, provider adapters translate them to native wire formats, and
// responses are normalized back before they are returned to the client.
//
// The surface deliberately mirrors the OpenAI REST API so that existing
// OpenAI client libraries interoperate with the gateway unchanged. Fields the
// gateway does not recognize are dropped silently during decoding.
package schema
