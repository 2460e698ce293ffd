package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"samved/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name     string
		remote   string
		headers  map[string]string
		expected string
	}{
		{name: "first forwarded hop", remote: "10.0.0.1:5000", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, expected: "203.0.113.7"},
		{name: "real ip header", remote: "10.0.0.1:5000", headers: map[string]string{"X-Real-IP": " 198.51.100.4 "}, expected: "198.51.100.4"},
		{name: "ipv6 socket", remote: "[::1]:8080", expected: "::1"},
		{name: "socket without port", remote: "192.0.2.9", expected: "192.0.2.9"},
		{name: "empty", remote: "", expected: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ClientIPFromRequest(req))
		})
	}
}

func TestClientMetadataStoresIP(t *testing.T) {
	var seen string
	h := ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.ClientIP(r.Context())
	}))
	req := httptest.NewRequest(http.MethodPost, "/registrations", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.7", seen)
}
