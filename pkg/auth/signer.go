package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// SecurityTokenHeader carries the session token. It is attached after
// signing and is not part of the signed credential scope.
const SecurityTokenHeader = "X-Amz-Security-Token"

// emptyPayloadHash is the SHA-256 of an empty body; all signed requests are
// body-less GETs.
var emptyPayloadHash = func() string {
	sum := sha256.Sum256(nil)
	return hex.EncodeToString(sum[:])
}()

// CanonicalRequest is the method, URL and header set fed to the signer.
type CanonicalRequest struct {
	Method string
	URL    string
	Header http.Header
}

// Signer computes Signature Version 4 headers for a request. It holds no
// per-request state and never reads the clock.
type Signer struct {
	v4 *v4.Signer
}

// NewSigner creates a signer.
func NewSigner() *Signer {
	return &Signer{
		v4: v4.NewSigner(),
	}
}

// Sign returns the headers that authenticate req with creds in the given
// region and service at signingTime. The result always contains
// Authorization and X-Amz-Date. The session token is deliberately left out;
// callers attach it with SecurityTokenHeader afterwards.
func (s *Signer) Sign(ctx context.Context, req CanonicalRequest, creds Credentials, region, service string, signingTime time.Time) (map[string]string, error) {
	awsCreds, err := credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, "").Retrieve(ctx)
	if err != nil {
		return nil, &InvalidCredentialsError{Reason: "access key and secret key are required", Err: err}
	}
	if region == "" || service == "" {
		return nil, &InvalidCredentialsError{Reason: "signing region and service are required"}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, &InvalidCredentialsError{Reason: "request URL cannot be signed", Err: err}
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	before := httpReq.Header.Clone()

	if err := s.v4.SignHTTP(ctx, awsCreds, httpReq, emptyPayloadHash, service, region, signingTime.UTC()); err != nil {
		return nil, &InvalidCredentialsError{Reason: "signing failed", Err: err}
	}

	signed := make(map[string]string)
	for name := range httpReq.Header {
		after := strings.Join(httpReq.Header.Values(name), ",")
		if strings.Join(before.Values(name), ",") != after {
			signed[name] = after
		}
	}
	return signed, nil
}
