package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/blueconnect/internal/fakes"
	"github.com/systmms/blueconnect/internal/logging"
	"github.com/systmms/blueconnect/internal/secure"
	"github.com/systmms/blueconnect/pkg/auth"
	"github.com/systmms/blueconnect/pkg/client"
	"github.com/systmms/blueconnect/pkg/decode"
	"github.com/systmms/blueconnect/pkg/models"
)

const baseURL = "https://api.test/prod/"

var t0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	client    *client.Client
	transport *fakes.FakeTransport
	store     *auth.Store
	clock     *fakeClock
}

func newHarness(t *testing.T, transport *fakes.FakeTransport) *harness {
	t.Helper()

	clock := &fakeClock{now: t0}
	store := auth.NewStore(auth.WithClock(clock.Now))
	c, err := client.New("ada@example.com", "hunter2",
		client.WithBaseURL(baseURL),
		client.WithTransport(transport),
		client.WithStore(store),
		client.WithClock(clock.Now),
		client.WithLogger(logging.Discard()),
	)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return &harness{client: c, transport: transport, store: store, clock: clock}
}

func TestFetch_SwimmingPool(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.LoginOK()).
		OnGet("swimming_pool/abc", fakes.OK(fakes.PoolJSON)))

	pool, err := client.Fetch(context.Background(), h.client, "swimming_pool/abc", models.SwimmingPoolSchema, nil)
	require.NoError(t, err)

	assert.Equal(t, "abc", pool.SwimmingPoolID)
	assert.Equal(t, "Backyard", pool.Name)
	assert.True(t, pool.Updated.Equal(t0))

	calls := h.transport.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "user/login", calls[0].Path)
	assert.Equal(t, http.MethodGet, calls[1].Method)
	assert.Equal(t, "swimming_pool/abc", calls[1].Path)
}

func TestGet_RequestHeaders(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewPoolAPI(baseURL))
	_, err := h.client.SwimmingPool(context.Background(), "abc")
	require.NoError(t, err)

	calls := h.transport.Calls()
	require.Len(t, calls, 2)

	login := calls[0]
	assert.Equal(t, http.MethodPost, login.Method)
	assert.Equal(t, "application/json", login.Header.Get("Content-Type"))
	assert.Empty(t, login.Header.Get("Authorization"), "login is not signed")
	var body map[string]string
	require.NoError(t, json.Unmarshal(login.Body, &body))
	assert.Equal(t, map[string]string{"email": "ada@example.com", "password": "hunter2"}, body)

	get := calls[1].Header
	assert.Equal(t, client.DefaultUserAgent, get.Get("User-Agent"))
	assert.Equal(t, client.DefaultAcceptLanguage, get.Get("Accept-Language"))
	assert.Equal(t, "*/*", get.Get("Accept"))
	assert.Equal(t, "20230101T000000Z", get.Get("X-Amz-Date"))
	assert.True(t, strings.HasPrefix(get.Get("Authorization"),
		"AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20230101/eu-west-1/execute-api/aws4_request"))
	assert.Equal(t, "session-token-1", get.Get(auth.SecurityTokenHeader))
	assert.NotContains(t, get.Get("Authorization"), "x-amz-security-token", "token is attached after signing")
}

func TestLogin_Rejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.Status(http.StatusUnauthorized, `{"message":"Unauthorized"}`)).
		OnGet("swimming_pool/abc", fakes.OK(fakes.PoolJSON)))

	_, err := h.client.SwimmingPool(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrLoginFailed)

	var lf *client.LoginFailedError
	require.True(t, errors.As(err, &lf))
	assert.Equal(t, http.StatusUnauthorized, lf.StatusCode)
	assert.Contains(t, lf.Body, "Unauthorized")
	assert.True(t, lf.Unauthorized())

	assert.Len(t, h.transport.Calls(), 1, "no resource request after a failed login")
	assert.False(t, h.store.Valid())
}

func TestLogin_UnexpectedResponse(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.OK(`{"credentials":{"access_key":"AKID"}}`)))

	_, err := h.client.Credentials(context.Background())
	assert.ErrorIs(t, err, client.ErrLoginFailed)
	assert.ErrorIs(t, err, decode.ErrMissingField)
}

func TestLogin_EmptyCredentialFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "null access key",
			body:      `{"credentials":{"access_key":null,"secret_key":"SECRET","session_token":"TOKEN"}}`,
			wantField: "credentials.access_key",
		},
		{
			name:      "empty secret key",
			body:      `{"credentials":{"access_key":"AKID","secret_key":"","session_token":"TOKEN"}}`,
			wantField: "credentials.secret_key",
		},
		{
			name:      "null session token",
			body:      `{"credentials":{"access_key":"AKID","secret_key":"SECRET","session_token":null}}`,
			wantField: "credentials.session_token",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, fakes.NewFakeTransport(baseURL).
				OnLogin(fakes.OK(tt.body), fakes.OK(tt.body)).
				OnGet("swimming_pool/abc", fakes.OK(fakes.PoolJSON)))

			for i := 0; i < 2; i++ {
				_, err := h.client.SwimmingPool(context.Background(), "abc")
				require.Error(t, err)
				assert.ErrorIs(t, err, client.ErrLoginFailed)
				assert.ErrorIs(t, err, decode.ErrMissingField)

				var de *decode.DecodeError
				require.True(t, errors.As(err, &de))
				assert.Equal(t, tt.wantField, de.Field)
				assert.False(t, h.store.Valid(), "empty credentials must not be cached")
			}
			assert.Equal(t, 2, h.transport.Logins(), "each call retries the login")
			assert.Len(t, h.transport.Calls(), 2, "no resource request without credentials")
		})
	}
}

func TestLogin_TransportFailure(t *testing.T) {
	t.Parallel()

	netErr := errors.New("dial tcp: connection refused")
	h := newHarness(t, fakes.NewFakeTransport(baseURL).OnLogin(fakes.Reply{Err: netErr}))

	_, err := h.client.User(context.Background())
	var lf *client.LoginFailedError
	require.True(t, errors.As(err, &lf))
	assert.Equal(t, 0, lf.StatusCode)
	assert.ErrorIs(t, err, netErr)
	assert.False(t, lf.Unauthorized())
}

func TestGet_ResourceFailureKeepsCredentials(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.LoginOK()).
		OnGet("swimming_pool/abc", fakes.ServerError("boom"), fakes.OK(fakes.PoolJSON)))

	_, err := h.client.SwimmingPool(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrRequestFailed)

	var rf *client.RequestFailedError
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, http.StatusInternalServerError, rf.StatusCode)
	assert.Equal(t, "swimming_pool/abc", rf.Path)
	assert.Contains(t, rf.Body, "boom")
	assert.True(t, rf.Temporary())

	assert.True(t, h.store.Valid(), "a failed resource request must not invalidate credentials")

	pool, err := h.client.SwimmingPool(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", pool.SwimmingPoolID)
	assert.Equal(t, 1, h.transport.Logins())
}

func TestGet_TransportFailure(t *testing.T) {
	t.Parallel()

	netErr := errors.New("read: connection reset by peer")
	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.LoginOK()).
		OnGet("user", fakes.Reply{Err: netErr}))

	_, err := h.client.User(context.Background())
	var rf *client.RequestFailedError
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, 0, rf.StatusCode)
	assert.ErrorIs(t, err, netErr)
	assert.True(t, rf.Temporary())
}

func TestGet_NotFoundIsNotTemporary(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewFakeTransport(baseURL).OnLogin(fakes.LoginOK()))

	_, err := h.client.SwimmingPool(context.Background(), "missing")
	var rf *client.RequestFailedError
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, http.StatusNotFound, rf.StatusCode)
	assert.False(t, rf.Temporary())
}

func TestGet_LongErrorBodyIsTruncated(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.LoginOK()).
		OnGet("user", fakes.Status(http.StatusBadGateway, strings.Repeat("x", 2000))))

	_, err := h.client.User(context.Background())
	var rf *client.RequestFailedError
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, 512+len("..."), len(rf.Body))
}

func TestCredentials_CachedUntilExpiry(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewPoolAPI(baseURL))
	ctx := context.Background()

	_, err := h.client.User(ctx)
	require.NoError(t, err)
	_, err = h.client.SwimmingPool(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, h.transport.Logins())

	h.clock.Advance(auth.DefaultTTL - time.Second)
	_, err = h.client.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.transport.Logins())

	h.clock.Advance(time.Second)
	_, err = h.client.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.transport.Logins())
	assert.Equal(t, t0.Add(2*auth.DefaultTTL), h.store.ExpiresAt())
}

func TestCredentials_ConcurrentCallersShareLogin(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.Reply{Status: http.StatusOK, Body: fakes.LoginBody("AKID", "SECRET", "TOKEN"), Delay: 20 * time.Millisecond}).
		OnGet("user", fakes.OK(fakes.UserJSON)))

	var wg sync.WaitGroup
	errs := make(chan error, 25)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.client.User(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, h.transport.Logins())
	assert.Equal(t, 25, h.transport.Count(http.MethodGet, "user"))
}

func TestGet_CancelledContext(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.LoginOK()).
		OnGet("user", fakes.Reply{Status: http.StatusOK, Body: fakes.UserJSON, Delay: time.Second}))

	_, err := h.client.Credentials(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = h.client.User(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, h.store.Valid())
}

func TestGet_MalformedBody(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.LoginOK()).
		OnGet("user", fakes.OK(`{"user_info":`)))

	_, err := h.client.User(context.Background())
	assert.ErrorIs(t, err, decode.ErrMalformedJSON)
	assert.Contains(t, err.Error(), "endpoint user")
}

func TestFetch_DecodeErrorNamesField(t *testing.T) {
	t.Parallel()

	bad := strings.Replace(fakes.LastMeasurementsJSON, `"trend":"stable"`, `"trend":"rising"`, 1)
	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.LoginOK()).
		OnGet("swimming_pool/abc/blue/00AA11/lastMeasurements", fakes.OK(bad)))

	_, err := h.client.LastMeasurements(context.Background(), "abc", "00AA11")
	require.Error(t, err)
	assert.ErrorIs(t, err, decode.ErrUnknownEnumValue)

	var de *decode.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "data[1].trend", de.Field)
}

func TestEndpoints(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewPoolAPI(baseURL))
	ctx := context.Background()

	user, err := h.client.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", user.UserPreferences.MainSwimmingPoolID)
	assert.Equal(t, models.Celsius, user.UserPreferences.DisplayTemperatureUnit)

	pools, err := h.client.SwimmingPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.Equal(t, "abc", pools[0].SwimmingPoolID)
	assert.Equal(t, "def", pools[1].SwimmingPoolID)

	status, err := h.client.SwimmingPoolStatus(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "OK", status.GlobalStatusCode)
	require.Len(t, status.Tasks, 2)
	assert.Equal(t, `{"value":7.4}`, status.Tasks[0].Data)

	devices, err := h.client.SwimmingPoolBlueDevices(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "00AA11", devices[0].Serial)
	assert.Equal(t, 3, devices[0].HwGeneration)

	feed, err := h.client.SwimmingPoolFeed(ctx, "abc", "")
	require.NoError(t, err)
	msg, ok := feed.CurrentMessage()
	require.True(t, ok)
	assert.Equal(t, "All good", msg.Title)

	last, err := h.client.LastMeasurements(ctx, "abc", "00AA11")
	require.NoError(t, err)
	assert.Len(t, last.Measurements(), 3)

	assert.Equal(t, 1, h.transport.Logins())

	var feedCall, measureCall fakes.Call
	for _, c := range h.transport.Calls() {
		switch c.Path {
		case "swimming_pool/abc/feed":
			feedCall = c
		case "swimming_pool/abc/blue/00AA11/lastMeasurements":
			measureCall = c
		}
	}
	assert.Equal(t, "en", feedCall.Query.Get("lang"))
	assert.Equal(t, "blue_and_strip", measureCall.Query.Get("mode"))
}

func TestSwimmingPoolBlueDevices_KeepsOrder(t *testing.T) {
	t.Parallel()

	device := func(serial string) string {
		return strings.Replace(fakes.DeviceJSON, `"00AA11"`, `"`+serial+`"`, 1)
	}
	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.LoginOK()).
		OnGet("swimming_pool/abc/blue", fakes.OK(`{"data":[{"blue_device_serial":"s1"},{"blue_device_serial":"s2"},{"blue_device_serial":"s3"}]}`)).
		OnGet("blue/s1", fakes.Reply{Status: http.StatusOK, Body: device("s1"), Delay: 30 * time.Millisecond}).
		OnGet("blue/s2", fakes.OK(device("s2"))).
		OnGet("blue/s3", fakes.OK(device("s3"))))

	devices, err := h.client.SwimmingPoolBlueDevices(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.Equal(t, "s1", devices[0].Serial)
	assert.Equal(t, "s2", devices[1].Serial)
	assert.Equal(t, "s3", devices[2].Serial)
}

func TestSwimmingPoolBlueDevices_DeviceFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.LoginOK()).
		OnGet("swimming_pool/abc/blue", fakes.OK(fakes.BlueDevicesJSON)).
		OnGet("blue/00AA11", fakes.ServerError("device lookup failed")))

	_, err := h.client.SwimmingPoolBlueDevices(context.Background(), "abc")
	var rf *client.RequestFailedError
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, "blue/00AA11", rf.Path)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := client.New("", "pw")
	assert.Error(t, err)

	_, err = client.New("ada@example.com", "pw", client.WithBaseURL("not a url"))
	assert.Error(t, err)

	transport := fakes.NewFakeTransport(baseURL).
		OnLogin(fakes.LoginOK()).
		OnGet("user", fakes.OK(fakes.UserJSON))
	c, err := client.New("ada@example.com", "pw",
		client.WithBaseURL(strings.TrimSuffix(baseURL, "/")),
		client.WithTransport(transport),
		client.WithLogger(logging.Discard()))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.User(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, transport.Count(http.MethodGet, "user"))
}

func TestClose_WipesPassword(t *testing.T) {
	t.Parallel()

	transport := fakes.NewPoolAPI(baseURL)
	c, err := client.New("ada@example.com", "pw", client.WithBaseURL(baseURL), client.WithTransport(transport), client.WithLogger(logging.Discard()))
	require.NoError(t, err)
	c.Close()

	_, err = c.User(context.Background())
	assert.ErrorIs(t, err, client.ErrLoginFailed)
	assert.ErrorIs(t, err, secure.ErrDestroyed)
	assert.Equal(t, 0, transport.Logins())
}
