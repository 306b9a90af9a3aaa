package tunnel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func agentServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolvePrefersHTTPSTunnel(t *testing.T) {
	srv := agentServer(t, `{"tunnels":[
		{"public_url":"tcp://0.tcp.ngrok.io:1234","proto":"tcp"},
		{"public_url":"http://abc.ngrok.io","proto":"http"},
		{"public_url":"https://abc.ngrok.io","proto":"https"}
	]}`)

	url := Resolve(context.Background(), srv.URL, 5000)
	assert.Equal(t, "https://abc.ngrok.io", url)
}

func TestResolveFallsBackToHTTPTunnel(t *testing.T) {
	srv := agentServer(t, `{"tunnels":[{"public_url":"http://abc.ngrok.io","proto":"http"}]}`)
	assert.Equal(t, "http://abc.ngrok.io", Resolve(context.Background(), srv.URL, 5000))
}

func TestResolveAgentDown(t *testing.T) {
	url := Resolve(context.Background(), "http://127.0.0.1:1/api/tunnels", 5000)
	assert.True(t, strings.HasPrefix(url, "http://"))
	assert.True(t, strings.HasSuffix(url, ":5000"))
}

func TestResolveEmptyTunnelList(t *testing.T) {
	srv := agentServer(t, `{"tunnels":[]}`)
	url := Resolve(context.Background(), srv.URL, 8081)
	assert.True(t, strings.HasSuffix(url, ":8081"))
}

func TestResolveMalformedResponse(t *testing.T) {
	srv := agentServer(t, `not json`)
	url := Resolve(context.Background(), srv.URL, 5000)
	assert.True(t, strings.HasPrefix(url, "http://"))
}
