package bedrock

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

const signingService = "bedrock"

// signingTransport signs each outgoing request with SigV4 before handing it
// to the underlying transport. Credentials come from a refreshing provider
// so role-based and session credentials stay valid across rotations.
type signingTransport struct {
	base   http.RoundTripper
	creds  aws.CredentialsProvider
	signer *v4.Signer
	region string
}

func newSigningTransport(base http.RoundTripper, creds aws.CredentialsProvider, region string) *signingTransport {
	return &signingTransport{
		base:   base,
		creds:  creds,
		signer: v4.NewSigner(),
		region: region,
	}
}

// RoundTrip implements http.RoundTripper. The payload hash over the request
// body is part of the signature, so the body is drained here and restored
// from GetBody for the actual send.
func (t *signingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	hash := sha256.New()
	if req.Body != nil {
		if req.GetBody == nil {
			return nil, fmt.Errorf("bedrock: request body is not replayable")
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(hash, body); err != nil {
			body.Close()
			return nil, err
		}
		body.Close()
		if req.Body, err = req.GetBody(); err != nil {
			return nil, err
		}
	}
	payloadHash := hex.EncodeToString(hash.Sum(nil))

	creds, err := t.creds.Retrieve(req.Context())
	if err != nil {
		return nil, fmt.Errorf("retrieving AWS credentials: %w", err)
	}
	if err := t.signer.SignHTTP(req.Context(), creds, req, payloadHash, signingService, t.region, time.Now()); err != nil {
		return nil, fmt.Errorf("signing bedrock request: %w", err)
	}
	return t.base.RoundTrip(req)
}
