// Package tunnel resolves the externally-reachable base URL for tracking
// links: a public ngrok tunnel when the local agent is running, otherwise
// the machine's LAN address.
package tunnel

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/webmail-courier/internal/pkg/httpretry"
	"github.com/ignite/webmail-courier/internal/pkg/logger"
)

type agentTunnels struct {
	Tunnels []struct {
		PublicURL string `json:"public_url"`
		Proto     string `json:"proto"`
	} `json:"tunnels"`
}

// Resolve picks the tracking base URL at enqueue time. It queries the local
// ngrok agent API and prefers an https tunnel; when the agent is not
// running (or exposes nothing usable) it falls back to the LAN address on
// the given port.
func Resolve(ctx context.Context, agentAPI string, port int) string {
	if url := publicURL(ctx, agentAPI); url != "" {
		logger.Info("using public tunnel for tracking links", "base_url", url)
		return url
	}
	base := fmt.Sprintf("http://%s:%d", lanIP(), port)
	logger.Info("no tunnel available, using LAN address", "base_url", base)
	return base
}

func publicURL(ctx context.Context, agentAPI string) string {
	// The agent may still be starting when the batch is enqueued, so the
	// probe retries briefly before settling for the LAN fallback.
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, agentAPI, nil)
	if err != nil {
		return ""
	}
	client := httpretry.New(&http.Client{Timeout: 2 * time.Second}, 2)
	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var agent agentTunnels
	if err := json.NewDecoder(resp.Body).Decode(&agent); err != nil {
		return ""
	}

	var fallback string
	for _, t := range agent.Tunnels {
		if !strings.HasPrefix(t.PublicURL, "http") {
			continue
		}
		if t.Proto == "https" || strings.HasPrefix(t.PublicURL, "https://") {
			return t.PublicURL
		}
		if fallback == "" {
			fallback = t.PublicURL
		}
	}
	return fallback
}

// lanIP discovers the outbound interface address without sending traffic:
// a UDP "connection" only resolves routing.
func lanIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
