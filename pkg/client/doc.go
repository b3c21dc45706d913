// Package client talks to the Blue Connect cloud API.
//
// A Client logs in with the account email and password, caches the
// temporary AWS credentials the login returns and signs every resource
// request with Signature Version 4. Typed helpers cover each endpoint;
// Fetch and FetchList decode arbitrary paths with a decode.Schema.
//
//	c, err := client.New(email, password)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	pools, err := c.SwimmingPools(ctx)
package client
