package fakes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/systmms/blueconnect/pkg/client"
)

// Reply is one scripted response. A non-nil Err simulates a transport
// failure; Delay holds the reply back (honoring context cancellation).
type Reply struct {
	Status int
	Body   string
	Err    error
	Delay  time.Duration
}

// OK is a 200 reply with the given body.
func OK(body string) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

// Status is a reply with the given status and body.
func Status(code int, body string) Reply {
	return Reply{Status: code, Body: body}
}

// Call is a recorded request.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// FakeTransport is a scripted client.Transport. Routes are keyed by method
// and path relative to the base URL. Each route replays its replies in
// order and repeats the last one once exhausted.
type FakeTransport struct {
	mu       sync.Mutex
	basePath string
	routes   map[string][]Reply
	calls    []Call
}

var _ client.Transport = (*FakeTransport)(nil)

// NewFakeTransport creates a transport serving paths under baseURL.
func NewFakeTransport(baseURL string) *FakeTransport {
	base, err := url.Parse(baseURL)
	if err != nil {
		panic(fmt.Sprintf("fakes: invalid base URL %q: %v", baseURL, err))
	}
	basePath := base.Path
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return &FakeTransport{
		basePath: basePath,
		routes:   make(map[string][]Reply),
	}
}

// On scripts replies for method and path.
func (f *FakeTransport) On(method, path string, replies ...Reply) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = append(f.routes[method+" "+path], replies...)
	return f
}

// OnLogin scripts the login endpoint.
func (f *FakeTransport) OnLogin(replies ...Reply) *FakeTransport {
	return f.On(http.MethodPost, "user/login", replies...)
}

// OnGet scripts a resource endpoint.
func (f *FakeTransport) OnGet(path string, replies ...Reply) *FakeTransport {
	return f.On(http.MethodGet, path, replies...)
}

// Send implements client.Transport.
func (f *FakeTransport) Send(ctx context.Context, req *client.Request) (*client.Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	query := u.Query()
	for k, vs := range req.Query {
		query[k] = append(query[k], vs...)
	}
	path := strings.TrimPrefix(u.Path, f.basePath)

	f.mu.Lock()
	f.calls = append(f.calls, Call{
		Method: req.Method,
		Path:   path,
		Query:  query,
		Header: req.Header.Clone(),
		Body:   append([]byte(nil), req.Body...),
	})
	key := req.Method + " " + path
	replies := f.routes[key]
	var reply Reply
	switch {
	case len(replies) == 0:
		reply = Status(http.StatusNotFound, `{"message":"no route for `+key+`"}`)
	case len(replies) == 1:
		reply = replies[0]
	default:
		reply = replies[0]
		f.routes[key] = replies[1:]
	}
	f.mu.Unlock()

	if reply.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(reply.Delay):
		}
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &client.Response{
		StatusCode: reply.Status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(reply.Body),
	}, nil
}

// Calls returns every recorded request in order.
func (f *FakeTransport) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many requests hit method and path.
func (f *FakeTransport) Count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// Logins returns how many login requests were made.
func (f *FakeTransport) Logins() int {
	return f.Count(http.MethodPost, "user/login")
}

// LoginBody builds a successful login response.
func LoginBody(accessKey, secretKey, sessionToken string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"identity_id": "eu-west-1:00000000-0000-0000-0000-000000000000",
		"credentials": map[string]string{
			"access_key":    accessKey,
			"secret_key":    secretKey,
			"session_token": sessionToken,
			"expiration":    "2030-01-01T00:00:00Z",
		},
	})
	return string(body)
}

// LoginOK is a successful login reply with fixed example credentials.
func LoginOK() Reply {
	return OK(LoginBody("AKIDEXAMPLE", "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", "session-token-1"))
}
