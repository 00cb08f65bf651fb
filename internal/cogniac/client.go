// Package cogniac is a client for the Cogniac public API. It covers the
// subset of the API that cogstats needs: token authentication, tenant
// lookup, EdgeFlow resolution and aggregated detection statistics.
package cogniac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/cogniac/cogstats/internal/logger"
)

// DefaultURLPrefix is the Cogniac cloud API endpoint.
const DefaultURLPrefix = "https://api.cogniac.io"

const defaultTimeout = 60 * time.Second

// versionSuffix matches a trailing "/<digits>" API version segment in a
// user-supplied URL prefix, which the API paths already carry.
var versionSuffix = regexp.MustCompile(`/\d+/?$`)

// Credentials identify a Cogniac user. Either APIKey or Username+Password
// must be set.
type Credentials struct {
	Username string
	Password string
	APIKey   string
}

func (c Credentials) valid() bool {
	return c.APIKey != "" || (c.Username != "" && c.Password != "")
}

// apply sets the credential headers used before a bearer token exists.
func (c Credentials) apply(req *http.Request) {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Key "+c.APIKey)
		return
	}
	req.SetBasicAuth(c.Username, c.Password)
}

// Options configure a connection.
type Options struct {
	// URLPrefix overrides DefaultURLPrefix, e.g. for on-prem deployments.
	URLPrefix string
	// Timeout applies per request. Defaults to 60s.
	Timeout time.Duration
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Client is an authenticated connection scoped to one tenant.
type Client struct {
	httpClient *http.Client
	urlPrefix  string
	tenantID   string
	creds      Credentials

	mu    sync.Mutex
	token string
}

// Connect authenticates to the Cogniac system and returns a connection
// scoped to tenantID. The credentials are exchanged for a bearer token;
// the token is refreshed transparently if it expires.
func Connect(ctx context.Context, creds Credentials, tenantID string, opts Options) (*Client, error) {
	if tenantID == "" {
		return nil, errors.New("tenant_id is required")
	}
	if !creds.valid() {
		return nil, fmt.Errorf("%w: set COG_API_KEY or COG_USER and COG_PASS", ErrCredentials)
	}

	c := &Client{
		httpClient: newHTTPClient(opts),
		urlPrefix:  normalizeURLPrefix(opts.URLPrefix),
		tenantID:   tenantID,
		creds:      creds,
	}

	logger.Debug("connecting to cogniac system", "url_prefix", c.urlPrefix, "tenant_id", tenantID)

	if err := c.authenticate(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// TenantID returns the tenant this connection is scoped to.
func (c *Client) TenantID() string {
	return c.tenantID
}

func newHTTPClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout, Transport: opts.Transport}
}

// normalizeURLPrefix strips a trailing slash and a trailing API version
// segment from the prefix; request paths carry their own version.
func normalizeURLPrefix(prefix string) string {
	if prefix == "" {
		prefix = DefaultURLPrefix
	}
	if m := versionSuffix.FindStringIndex(prefix); m != nil {
		prefix = prefix[:m[0]]
	}
	return strings.TrimSuffix(prefix, "/")
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// checkMFA rejects username/password accounts with an active TOTP factor.
// The service expects an interactively entered OTP in the token exchange,
// which a report generator cannot supply; such accounts must use an API key.
func (c *Client) checkMFA(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.urlPrefix+"/21/users/mfa/status", nil)
	if err != nil {
		return fmt.Errorf("failed to create mfa status request: %w", err)
	}
	c.creds.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mfa status request failed: %w", err)
	}
	defer closeBody(resp.Body)

	if err := checkResponse(resp); err != nil {
		return err
	}

	var status struct {
		TOTP string `json:"totp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to parse mfa status response: %w", err)
	}
	if status.TOTP == "active" {
		return fmt.Errorf("%w: account requires multi-factor authentication; set COG_API_KEY instead of COG_USER/COG_PASS", ErrCredentials)
	}
	return nil
}

// authenticate trades the credentials for a user+tenant bearer token.
func (c *Client) authenticate(ctx context.Context) error {
	if c.creds.APIKey == "" {
		if err := c.checkMFA(ctx); err != nil {
			return err
		}
	}

	query := url.Values{}
	query.Set("tenant_id", c.tenantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.urlPrefix+"/1/token?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	c.creds.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer closeBody(resp.Body)

	if err := checkResponse(resp); err != nil {
		return err
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("%w: token response contained no access_token", ErrCredentials)
	}

	c.mu.Lock()
	c.token = token.AccessToken
	c.mu.Unlock()
	return nil
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// get performs an authenticated GET and decodes the JSON response into out.
// rawURL may be a path relative to the API prefix or an absolute URL (the
// pagination cursor is returned as a full URL by the service).
func (c *Client) get(ctx context.Context, rawURL string, query url.Values, out any) error {
	return c.call(ctx, http.MethodGet, rawURL, query, nil, out)
}

// post performs an authenticated POST with a JSON body.
func (c *Client) post(ctx context.Context, rawURL string, body any, out any) error {
	return c.call(ctx, http.MethodPost, rawURL, nil, body, out)
}

func (c *Client) call(ctx context.Context, method, rawURL string, query url.Values, body, out any) error {
	err := c.doOnce(ctx, method, rawURL, query, body, out)
	if err == nil || !errors.Is(err, ErrCredentials) {
		return err
	}

	// Bearer token expired: re-authenticate once and retry.
	logger.Debug("re-authenticating after credential expiry", "url", rawURL)
	if authErr := c.authenticate(ctx); authErr != nil {
		return authErr
	}
	return c.doOnce(ctx, method, rawURL, query, body, out)
}

func (c *Client) doOnce(ctx context.Context, method, rawURL string, query url.Values, body, out any) error {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = c.urlPrefix + rawURL
	}
	if len(query) > 0 {
		if strings.Contains(rawURL, "?") {
			rawURL += "&" + query.Encode()
		} else {
			rawURL += "?" + query.Encode()
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = strings.NewReader(string(payload))
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer closeBody(resp.Body)

	if err := checkResponse(resp); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		logger.Error("failed to close response body", "error", err)
	}
}

// TenantInfo is one entry from the authorized-tenant listing.
type TenantInfo struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
}

// AuthorizedTenants returns the tenants the given credentials may assume.
// No tenant scope is needed, so this works before Connect.
func AuthorizedTenants(ctx context.Context, creds Credentials, opts Options) ([]TenantInfo, error) {
	if !creds.valid() {
		return nil, fmt.Errorf("%w: set COG_API_KEY or COG_USER and COG_PASS", ErrCredentials)
	}

	prefix := normalizeURLPrefix(opts.URLPrefix)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, prefix+"/1/users/current/tenants", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tenants request: %w", err)
	}
	creds.apply(req)

	resp, err := newHTTPClient(opts).Do(req)
	if err != nil {
		return nil, fmt.Errorf("tenants request failed: %w", err)
	}
	defer closeBody(resp.Body)

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var listing struct {
		Tenants []TenantInfo `json:"tenants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to parse tenants response: %w", err)
	}
	return listing.Tenants, nil
}
