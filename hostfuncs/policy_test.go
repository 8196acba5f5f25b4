package hostfuncs

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/space-operator/space-go/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDenials struct {
	reasons []string
}

func (r *recordingDenials) OnDenial(kind string, request any, reason string) {
	r.reasons = append(r.reasons, kind+": "+reason)
}

func TestNetworkPolicy_Allow(t *testing.T) {
	p, err := NewNetworkPolicy([]NetworkRule{
		{Hosts: []string{"example.com", "*.internal"}, Ports: []string{"80", "443", "8000-8010"}},
	}, WithDenialHandler(&NopDenialHandler{}))
	require.NoError(t, err)

	tests := []struct {
		name string
		host string
		port int
		want bool
	}{
		{"allowed host and port", "example.com", 80, true},
		{"wildcard host", "svc.internal", 443, true},
		{"case insensitive host", "Example.COM", 443, true},
		{"port in range", "example.com", 8005, true},
		{"port past range", "example.com", 8011, false},
		{"port not listed", "example.com", 22, false},
		{"denied host", "google.com", 80, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Allow(tt.host, tt.port))
		})
	}
}

func TestNetworkPolicy_RulesAreIndependent(t *testing.T) {
	p, err := NewNetworkPolicy([]NetworkRule{
		{Hosts: []string{"api.internal"}, Ports: []string{"80"}},
		{Hosts: []string{"*.external.com"}, Ports: []string{"443"}},
	})
	require.NoError(t, err)

	assert.True(t, p.Allow("api.internal", 80))
	assert.True(t, p.Allow("www.external.com", 443))
	assert.False(t, p.Allow("api.internal", 443))
	assert.False(t, p.Allow("www.external.com", 80))
}

func TestNetworkPolicy_EmptyPortsAllowAny(t *testing.T) {
	p, err := NewNetworkPolicy([]NetworkRule{{Hosts: []string{"localhost"}}})
	require.NoError(t, err)

	assert.True(t, p.Allow("localhost", 1))
	assert.True(t, p.Allow("localhost", 65535))
	assert.False(t, p.Allow("127.0.0.1", 80))
}

func TestNewNetworkPolicy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		rule NetworkRule
	}{
		{"bad pattern", NetworkRule{Hosts: []string{"[a-"}}},
		{"bad port", NetworkRule{Hosts: []string{"a"}, Ports: []string{"http"}}},
		{"reversed range", NetworkRule{Hosts: []string{"a"}, Ports: []string{"90-80"}}},
		{"port too large", NetworkRule{Hosts: []string{"a"}, Ports: []string{"70000"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNetworkPolicy([]NetworkRule{tt.rule})
			assert.Error(t, err)
		})
	}
}

func TestNetworkPolicy_Check(t *testing.T) {
	denials := &recordingDenials{}
	p, err := NewNetworkPolicy([]NetworkRule{
		{Hosts: []string{"api.example.com"}, Ports: []string{"443"}},
	}, WithDenialHandler(denials))
	require.NoError(t, err)

	u, _ := url.Parse("https://api.example.com/v1")
	assert.NoError(t, p.Check(u))

	u, _ = url.Parse("http://api.example.com/v1")
	assert.ErrorIs(t, p.Check(u), ErrDenied)

	u, _ = url.Parse("ftp://api.example.com/v1")
	assert.ErrorIs(t, p.Check(u), ErrDenied)

	assert.Len(t, denials.reasons, 2)
	assert.Equal(t, "network: host/port not allowed", denials.reasons[0])
}

func TestLogDenialHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &LogDenialHandler{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	h.OnDenial("network", "evil.com:80", "host/port not allowed")
	assert.Contains(t, buf.String(), "permission denied")
	assert.Contains(t, buf.String(), "evil.com:80")
}

func TestPerformHTTPRequest_NetworkPolicy(t *testing.T) {
	srv, _ := newEchoServer(t)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	allowed, err := NewNetworkPolicy([]NetworkRule{{Hosts: []string{u.Hostname()}, Ports: []string{u.Port()}}})
	require.NoError(t, err)
	denied, err := NewNetworkPolicy([]NetworkRule{{Hosts: []string{"example.com"}}},
		WithDenialHandler(&NopDenialHandler{}))
	require.NoError(t, err)

	_, err = PerformHTTPRequest(context.Background(),
		HTTPRequest{Method: "GET", URL: srv.URL}, WithHTTPNetworkPolicy(allowed))
	require.NoError(t, err)

	_, err = PerformHTTPRequest(context.Background(),
		HTTPRequest{Method: "GET", URL: srv.URL}, WithHTTPNetworkPolicy(denied))
	assert.ErrorIs(t, err, ErrDenied)
	assert.Equal(t, status.CallHTTPRequest, status.KindOf(err))

	_, err = PerformHTTPRequest(context.Background(),
		HTTPRequest{Method: "POST", URL: srv.URL}.WithBody([]byte("x"), "text/plain"),
		WithHTTPNetworkPolicy(denied))
	assert.Equal(t, status.SendWithBody, status.KindOf(err))
}

func TestPerformHTTPRequest_PolicyAppliesToRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("landed"))
	}))
	t.Cleanup(target.Close)

	redirect := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	t.Cleanup(redirect.Close)

	u, err := url.Parse(redirect.URL)
	require.NoError(t, err)
	p, err := NewNetworkPolicy([]NetworkRule{{Hosts: []string{u.Hostname()}, Ports: []string{u.Port()}}},
		WithDenialHandler(&NopDenialHandler{}))
	require.NoError(t, err)

	_, err = PerformHTTPRequest(context.Background(),
		HTTPRequest{Method: "GET", URL: redirect.URL}, WithHTTPNetworkPolicy(p))
	assert.ErrorIs(t, err, ErrDenied)
}
