package cogniac

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

// MockRoundTripper allows mocking HTTP responses in tests.
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNormalizeURLPrefix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Empty", "", "https://api.cogniac.io"},
		{"TrailingSlash", "https://api.cogniac.io/", "https://api.cogniac.io"},
		{"VersionSuffix", "https://api.cogniac.io/1", "https://api.cogniac.io"},
		{"VersionSuffixSlash", "https://api.cogniac.io/21/", "https://api.cogniac.io"},
		{"OnPrem", "https://acme.local.cogniac.io", "https://acme.local.cogniac.io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeURLPrefix(tt.in); got != tt.want {
				t.Errorf("normalizeURLPrefix(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name      string
		creds     Credentials
		tenantID  string
		transport http.RoundTripper
		wantErr   error
	}{
		{
			name:     "APIKeySuccess",
			creds:    Credentials{APIKey: "secret"},
			tenantID: "T1",
			transport: &MockRoundTripper{
				RoundTripFunc: func(req *http.Request) (*http.Response, error) {
					if got := req.Header.Get("Authorization"); got != "Key secret" {
						t.Errorf("Authorization = %q, want Key secret", got)
					}
					if got := req.URL.Query().Get("tenant_id"); got != "T1" {
						t.Errorf("tenant_id = %q, want T1", got)
					}
					return jsonResponse(200, `{"access_token": "tok"}`), nil
				},
			},
		},
		{
			name:     "BasicAuthSuccess",
			creds:    Credentials{Username: "u@example.com", Password: "pw"},
			tenantID: "T1",
			transport: &MockRoundTripper{
				RoundTripFunc: func(req *http.Request) (*http.Response, error) {
					user, pass, ok := req.BasicAuth()
					if !ok || user != "u@example.com" || pass != "pw" {
						t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
					}
					switch req.URL.Path {
					case "/21/users/mfa/status":
						return jsonResponse(200, `{"totp": "inactive"}`), nil
					case "/1/token":
						return jsonResponse(200, `{"access_token": "tok"}`), nil
					default:
						t.Errorf("unexpected request: %s", req.URL.Path)
						return jsonResponse(404, "not found"), nil
					}
				},
			},
		},
		{
			name:     "MissingTenant",
			creds:    Credentials{APIKey: "secret"},
			tenantID: "",
			wantErr:  nil, // any error; no sentinel
		},
		{
			name:     "MissingCredentials",
			creds:    Credentials{Username: "u@example.com"},
			tenantID: "T1",
			wantErr:  ErrCredentials,
		},
		{
			name:     "BadCredentials",
			creds:    Credentials{APIKey: "bad"},
			tenantID: "T1",
			transport: &MockRoundTripper{
				RoundTripFunc: func(req *http.Request) (*http.Response, error) {
					return jsonResponse(401, `{"message": "unauthorized"}`), nil
				},
			},
			wantErr: ErrCredentials,
		},
		{
			name:     "ServerError",
			creds:    Credentials{APIKey: "secret"},
			tenantID: "T1",
			transport: &MockRoundTripper{
				RoundTripFunc: func(req *http.Request) (*http.Response, error) {
					return jsonResponse(503, "unavailable"), nil
				},
			},
			wantErr: ErrServer,
		},
		{
			name:     "EmptyToken",
			creds:    Credentials{APIKey: "secret"},
			tenantID: "T1",
			transport: &MockRoundTripper{
				RoundTripFunc: func(req *http.Request) (*http.Response, error) {
					return jsonResponse(200, `{}`), nil
				},
			},
			wantErr: ErrCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := Connect(context.Background(), tt.creds, tt.tenantID, Options{Transport: tt.transport})

			wantFailure := tt.wantErr != nil || tt.transport == nil
			if wantFailure {
				if err == nil {
					t.Fatal("Connect() succeeded, want error")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("Connect() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Connect() failed: %v", err)
			}
			if client.TenantID() != tt.tenantID {
				t.Errorf("TenantID() = %q, want %q", client.TenantID(), tt.tenantID)
			}
			if client.bearer() != "tok" {
				t.Errorf("bearer() = %q, want tok", client.bearer())
			}
		})
	}
}

func TestConnectRejectsMFAAccounts(t *testing.T) {
	var tokenCalls atomic.Int64

	transport := &MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			switch req.URL.Path {
			case "/21/users/mfa/status":
				return jsonResponse(200, `{"totp": "active"}`), nil
			case "/1/token":
				tokenCalls.Add(1)
				return jsonResponse(401, `{"message": "mfa required"}`), nil
			default:
				t.Errorf("unexpected request: %s", req.URL.Path)
				return jsonResponse(404, "not found"), nil
			}
		},
	}

	_, err := Connect(context.Background(), Credentials{Username: "u@example.com", Password: "pw"}, "T1", Options{Transport: transport})
	if !errors.Is(err, ErrCredentials) {
		t.Fatalf("Connect() error = %v, want ErrCredentials", err)
	}
	if !strings.Contains(err.Error(), "COG_API_KEY") {
		t.Errorf("error %q does not direct the user to an API key", err)
	}
	if got := tokenCalls.Load(); got != 0 {
		t.Errorf("token endpoint called %d times, want 0", got)
	}
}

func TestConnectAPIKeySkipsMFACheck(t *testing.T) {
	var mfaCalls atomic.Int64

	transport := &MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			if req.URL.Path == "/21/users/mfa/status" {
				mfaCalls.Add(1)
			}
			return jsonResponse(200, `{"access_token": "tok"}`), nil
		},
	}

	if _, err := Connect(context.Background(), Credentials{APIKey: "secret"}, "T1", Options{Transport: transport}); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if got := mfaCalls.Load(); got != 0 {
		t.Errorf("mfa status endpoint called %d times, want 0", got)
	}
}

func TestReauthenticateOnExpiredToken(t *testing.T) {
	var tokenCalls, dataCalls atomic.Int64

	transport := &MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			if req.URL.Path == "/1/token" {
				tokenCalls.Add(1)
				return jsonResponse(200, `{"access_token": "tok2"}`), nil
			}

			// First data request fails with a credential error to
			// simulate token expiry; the retry must carry the new token.
			if dataCalls.Add(1) == 1 {
				return jsonResponse(401, "expired"), nil
			}
			if got := req.Header.Get("Authorization"); got != "Bearer tok2" {
				t.Errorf("Authorization = %q, want Bearer tok2", got)
			}
			return jsonResponse(200, `{"tenant_id": "T1", "name": "Acme"}`), nil
		},
	}

	client, err := Connect(context.Background(), Credentials{APIKey: "secret"}, "T1", Options{Transport: transport})
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	tenant, err := client.Tenant(context.Background())
	if err != nil {
		t.Fatalf("Tenant() failed: %v", err)
	}
	if tenant.Name != "Acme" {
		t.Errorf("tenant name = %q, want Acme", tenant.Name)
	}
	if got := tokenCalls.Load(); got != 2 {
		t.Errorf("token endpoint called %d times, want 2", got)
	}
	if got := dataCalls.Load(); got != 2 {
		t.Errorf("data endpoint called %d times, want 2", got)
	}
}

func TestAuthorizedTenants(t *testing.T) {
	transport := &MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/1/users/current/tenants" {
				t.Errorf("path = %q", req.URL.Path)
			}
			return jsonResponse(200, `{"tenants": [{"tenant_id": "T1", "name": "Acme"}, {"tenant_id": "T2", "name": "Beta"}]}`), nil
		},
	}

	tenants, err := AuthorizedTenants(context.Background(), Credentials{APIKey: "secret"}, Options{Transport: transport})
	if err != nil {
		t.Fatalf("AuthorizedTenants() failed: %v", err)
	}
	if len(tenants) != 2 {
		t.Fatalf("got %d tenants, want 2", len(tenants))
	}
	if tenants[0].TenantID != "T1" || tenants[1].Name != "Beta" {
		t.Errorf("unexpected tenants: %+v", tenants)
	}

	if _, err := AuthorizedTenants(context.Background(), Credentials{}, Options{}); !errors.Is(err, ErrCredentials) {
		t.Errorf("empty credentials error = %v, want ErrCredentials", err)
	}
}
