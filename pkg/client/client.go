package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/systmms/blueconnect/internal/logging"
	"github.com/systmms/blueconnect/internal/secure"
	"github.com/systmms/blueconnect/pkg/auth"
	"github.com/systmms/blueconnect/pkg/decode"
)

// Service defaults.
const (
	DefaultBaseURL        = "https://api.riiotlabs.com/prod/"
	DefaultRegion         = "eu-west-1"
	DefaultService        = "execute-api"
	DefaultUserAgent      = "BlueConnect/3.2.1"
	DefaultAcceptLanguage = "en-DK;q=1.0, da-DK;q=0.9"
)

const loginPath = "user/login"

// Client is an authenticated Blue Connect API client. It logs in lazily,
// caches the temporary credentials until they expire and signs every
// resource request. A Client is safe for concurrent use.
type Client struct {
	baseURL        string
	email          string
	password       *secure.SecureBuffer
	region         string
	service        string
	userAgent      string
	acceptLanguage string

	transport Transport
	store     *auth.Store
	signer    *auth.Signer
	now       func() time.Time
	logger    *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root. A trailing slash is added if missing.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithRegion overrides the signing region.
func WithRegion(region string) Option {
	return func(c *Client) {
		c.region = region
	}
}

// WithService overrides the signing service name.
func WithService(service string) Option {
	return func(c *Client) {
		c.service = service
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithAcceptLanguage overrides the Accept-Language header.
func WithAcceptLanguage(lang string) Option {
	return func(c *Client) {
		c.acceptLanguage = lang
	}
}

// WithTransport sets the transport used for every exchange.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithStore sets the credential store, e.g. to share it between clients or
// to control its clock.
func WithStore(s *auth.Store) Option {
	return func(c *Client) {
		c.store = s
	}
}

// WithSigner sets the request signer.
func WithSigner(s *auth.Signer) Option {
	return func(c *Client) {
		c.signer = s
	}
}

// WithClock sets the clock used for signing timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for the given account. No network traffic happens
// until the first request.
func New(email, password string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:        DefaultBaseURL,
		email:          email,
		region:         DefaultRegion,
		service:        DefaultService,
		userAgent:      DefaultUserAgent,
		acceptLanguage: DefaultAcceptLanguage,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	base, err := url.Parse(c.baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", c.baseURL)
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}

	if c.logger == nil {
		c.logger = logging.New(false, false)
	}
	if c.store == nil {
		c.store = auth.NewStore()
	}
	if c.signer == nil {
		c.signer = auth.NewSigner()
	}
	if c.transport == nil {
		t, err := NewHTTPTransport(HTTPTransportConfig{InsecureSkipVerify: true})
		if err != nil {
			return nil, err
		}
		c.transport = t
	}

	c.password = secure.NewSecureString(password)
	return c, nil
}

// Close wipes the stored password. The client cannot log in afterwards.
func (c *Client) Close() {
	c.password.Destroy()
	if t, ok := c.transport.(*HTTPTransport); ok {
		t.CloseIdleConnections()
	}
}

// Email returns the account email.
func (c *Client) Email() string {
	return c.email
}

// Credentials returns valid temporary credentials, logging in if the cached
// set is missing or expired.
func (c *Client) Credentials(ctx context.Context) (auth.Credentials, error) {
	return c.store.Get(ctx, c.login)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginCredentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// check rejects credentials the service sent as null or empty.
func (c loginCredentials) check() error {
	for _, f := range []struct{ name, value string }{
		{"access_key", c.AccessKey},
		{"secret_key", c.SecretKey},
		{"session_token", c.SessionToken},
	} {
		if f.value == "" {
			return &decode.DecodeError{
				Kind:  decode.MissingField,
				Field: "credentials." + f.name,
				Err:   fmt.Errorf("login returned an empty %s", f.name),
			}
		}
	}
	return nil
}

type loginResponse struct {
	Credentials loginCredentials
}

var loginCredentialsSchema = decode.NewSchema("credentials",
	decode.Required("access_key", decode.String, func(c *loginCredentials) *string { return &c.AccessKey }),
	decode.Required("secret_key", decode.String, func(c *loginCredentials) *string { return &c.SecretKey }),
	decode.Required("session_token", decode.String, func(c *loginCredentials) *string { return &c.SessionToken }),
)

var loginResponseSchema = decode.NewSchema("login",
	decode.Required("credentials", decode.Record(loginCredentialsSchema), func(r *loginResponse) *loginCredentials { return &r.Credentials }),
)

func (c *Client) login(ctx context.Context) (auth.Credentials, error) {
	var body []byte
	err := c.password.Use(func(plain []byte) error {
		var err error
		body, err = json.Marshal(loginRequest{Email: c.email, Password: string(plain)})
		return err
	})
	if err != nil {
		return auth.Credentials{}, &LoginFailedError{Err: err}
	}

	header := c.baseHeader()
	header.Set("Content-Type", "application/json")

	c.logger.Debug("Logging in to %s as %s", c.baseURL, c.email)
	start := time.Now()
	resp, err := c.transport.Send(ctx, &Request{
		Method: http.MethodPost,
		URL:    c.baseURL + loginPath,
		Header: header,
		Body:   body,
	})
	if err != nil {
		recordRequest(kindLogin, 0, time.Since(start))
		return auth.Credentials{}, &LoginFailedError{Err: err}
	}
	recordRequest(kindLogin, resp.StatusCode, time.Since(start))

	if !success(resp.StatusCode) {
		c.logger.Debug("Login rejected with status %d", resp.StatusCode)
		return auth.Credentials{}, &LoginFailedError{
			StatusCode: resp.StatusCode,
			Body:       snippet(resp.Body),
		}
	}

	parsed, err := decode.Decode(resp.Body, loginResponseSchema)
	if err == nil {
		err = parsed.Credentials.check()
	}
	if err != nil {
		recordDecodeError(err)
		return auth.Credentials{}, &LoginFailedError{Err: fmt.Errorf("unexpected login response: %w", err)}
	}

	c.logger.Debug("Login succeeded, access key %s", logging.Secret(parsed.Credentials.AccessKey))
	return auth.Credentials{
		AccessKey:    parsed.Credentials.AccessKey,
		SecretKey:    parsed.Credentials.SecretKey,
		SessionToken: parsed.Credentials.SessionToken,
	}, nil
}

func (c *Client) baseHeader() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", c.userAgent)
	h.Set("Accept-Language", c.acceptLanguage)
	h.Set("Accept", "*/*")
	return h
}

// resolve joins path (relative to the base URL) with query.
func (c *Client) resolve(path string, query url.Values) string {
	target := c.baseURL + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

// Get performs a signed GET of path relative to the base URL and returns
// the parsed JSON body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (interface{}, error) {
	creds, err := c.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	target := c.resolve(path, query)
	header := c.baseHeader()

	signed, err := c.signer.Sign(ctx, auth.CanonicalRequest{
		Method: http.MethodGet,
		URL:    target,
		Header: header,
	}, creds, c.region, c.service, c.now())
	if err != nil {
		return nil, err
	}
	for name, value := range signed {
		header.Set(name, value)
	}
	header.Set(auth.SecurityTokenHeader, creds.SessionToken)

	c.logger.Debug("GET %s", target)
	start := time.Now()
	resp, err := c.transport.Send(ctx, &Request{
		Method: http.MethodGet,
		URL:    target,
		Header: header,
	})
	if err != nil {
		recordRequest(kindResource, 0, time.Since(start))
		return nil, &RequestFailedError{Path: path, Err: err}
	}
	recordRequest(kindResource, resp.StatusCode, time.Since(start))

	if !success(resp.StatusCode) {
		c.logger.Debug("GET %s returned status %d: %s", target, resp.StatusCode,
			logging.Redact(snippet(resp.Body), []string{creds.SecretKey, creds.SessionToken}))
		return nil, &RequestFailedError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       snippet(resp.Body),
		}
	}

	doc, err := decode.Parse(resp.Body)
	if err != nil {
		recordDecodeError(err)
		return nil, fmt.Errorf("endpoint %s: %w", path, err)
	}
	return doc, nil
}

// Fetch performs a signed GET of path and decodes the body with schema.
func Fetch[T any](ctx context.Context, c *Client, path string, schema *decode.Schema[T], query url.Values) (T, error) {
	return FetchAt(ctx, c, path, schema, query)
}

// FetchAt is Fetch for a record nested inside the body at selector.
func FetchAt[T any](ctx context.Context, c *Client, path string, schema *decode.Schema[T], query url.Values, selector ...interface{}) (T, error) {
	var zero T

	doc, err := c.Get(ctx, path, query)
	if err != nil {
		return zero, err
	}
	v, err := decode.DecodeAt(doc, schema, selector...)
	if err != nil {
		recordDecodeError(err)
		return zero, fmt.Errorf("endpoint %s: %w", path, err)
	}
	return v, nil
}

// FetchList performs a signed GET of path and decodes every element of the
// list found at listPath. itemPath selects the record inside each element.
func FetchList[T any](ctx context.Context, c *Client, path string, schema *decode.Schema[T], query url.Values, listPath []interface{}, itemPath ...interface{}) ([]T, error) {
	doc, err := c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	items, err := decode.Items(doc, listPath...)
	if err != nil {
		recordDecodeError(err)
		return nil, fmt.Errorf("endpoint %s: %w", path, err)
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := decode.DecodeAt(item, schema, itemPath...)
		if err != nil {
			recordDecodeError(err)
			return nil, fmt.Errorf("endpoint %s item %d: %w", path, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
