// Package cftrace looks up the caller's public address with the Cloudflare
// trace endpoint.
package cftrace

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultURL = "https://www.cloudflare.com/cdn-cgi/trace"

// maxBody bounds how much of the trace response is read.
const maxBody = 16 << 10

// Provider fetches the caller's network address.
type Provider struct {
	url        string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider for the public trace endpoint.
func NewProvider(timeout time.Duration, logger *slog.Logger) *Provider {
	return NewProviderWithURL(defaultURL, timeout, logger)
}

// NewProviderWithURL creates a Provider with a custom endpoint (for testing).
func NewProviderWithURL(url string, timeout time.Duration, logger *slog.Logger) *Provider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Provider{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "cftrace"),
	}
}

// FetchCallerAddress performs a single request and returns the value of the
// ip= line of the trace response. There is no retry.
func (p *Provider) FetchCallerAddress(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return "", fmt.Errorf("cftrace: create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.WarnContext(ctx, "cftrace request failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("cftrace: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cftrace: unexpected status %d", resp.StatusCode)
	}

	addr, err := parseTrace(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", err
	}

	p.log.DebugContext(ctx, "cftrace response", slog.Int("status", resp.StatusCode))
	return addr, nil
}

// parseTrace scans key=value lines for the ip key.
func parseTrace(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if ok && key == "ip" {
			value = strings.TrimSpace(value)
			if value == "" {
				break
			}
			return value, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("cftrace: read body: %w", err)
	}
	return "", fmt.Errorf("cftrace: no ip in trace response")
}
