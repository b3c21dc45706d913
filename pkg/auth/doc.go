// Package auth holds the credential lifecycle of the Blue Connect client:
// the temporary credential set returned by a password login, the Store
// that caches it and refreshes it lazily, and the Signer that turns it into
// AWS Signature Version 4 request headers.
//
// Signing is a two step contract. Sign produces the Authorization and
// X-Amz-Date headers; the caller then attaches the session token under
// SecurityTokenHeader:
//
//	headers, err := signer.Sign(ctx, req, creds, "eu-west-1", "execute-api", time.Now())
//	...
//	req.Header.Set(auth.SecurityTokenHeader, creds.SessionToken)
package auth
