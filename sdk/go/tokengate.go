// Package tokengate is the Go SDK for a tokengate server. It wraps the
// caller-facing token operations and owns the cached device fingerprint that
// binds an activated token to this installation.
package tokengate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tokengate/tokengate/internal/fingerprint"
)

// Config holds the configuration for the tokengate client.
type Config struct {
	// BaseURL is the root URL of the tokengate server.
	// The "/api/v1" suffix is appended automatically if missing.
	BaseURL string

	// FingerprintPath is where the device fingerprint is cached.
	// Default: ".tokengate-device" in the user config directory.
	FingerprintPath string

	// HTTPClient is an optional custom HTTP client.
	// If nil, a default client with 10s timeout is used.
	HTTPClient *http.Client
}

func (c *Config) defaults() error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if !strings.HasSuffix(c.BaseURL, "/api/v1") {
		c.BaseURL = c.BaseURL + "/api/v1"
	}
	if c.FingerprintPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("tokengate: cannot locate config dir: %w", err)
		}
		c.FingerprintPath = filepath.Join(dir, ".tokengate-device")
	}
	return nil
}

// Client is the tokengate SDK client.
type Client struct {
	cfg          Config
	fp           string
	adminSession string
}

// NewClient creates a new tokengate client. The device fingerprint is loaded
// from (or created at) the configured cache path.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, err
	}
	fp, err := fingerprint.Load(cfg.FingerprintPath)
	if err != nil {
		return nil, fmt.Errorf("tokengate: %w", err)
	}
	return &Client{cfg: cfg, fp: fp}, nil
}

// Fingerprint returns this installation's device fingerprint.
func (c *Client) Fingerprint() string {
	return c.fp
}

// Activate claims the token for this device. A rejected activation (wrong
// device, used, expired, unknown) is returned as Success=false, not an error.
func (c *Client) Activate(ctx context.Context, token string) (*ActivateResult, error) {
	var out ActivateResult
	err := c.do(ctx, http.MethodPost, "/tokens/activate",
		map[string]string{"token": token, "fingerprint": c.fp}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Heartbeat refreshes the session activity for an active token. Errors are
// returned for transport failures only; the server never rejects a heartbeat.
func (c *Client) Heartbeat(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/tokens/heartbeat",
		map[string]string{"token": token, "fingerprint": c.fp}, nil)
}

// Release retires the token (logout).
func (c *Client) Release(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/tokens/release",
		map[string]string{"token": token}, nil)
}

// AdminLogin exchanges the admin password for a session used by the
// administrative calls below.
func (c *Client) AdminLogin(ctx context.Context, password string) error {
	var out struct {
		SessionToken string `json:"sessionToken"`
	}
	err := c.do(ctx, http.MethodPost, "/admin/login",
		map[string]string{"password": password}, &out)
	if err != nil {
		return err
	}
	c.adminSession = out.SessionToken
	return nil
}

// IssueToken creates a new access token. expiryDays of nil means no expiry.
func (c *Client) IssueToken(ctx context.Context, expiryDays *int) (*Token, error) {
	body := map[string]interface{}{}
	if expiryDays != nil {
		body["expiryDays"] = *expiryDays
	}
	var out Token
	if err := c.do(ctx, http.MethodPost, "/admin/tokens", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTokens returns all tokens, newest first.
func (c *Client) ListTokens(ctx context.Context) ([]Token, error) {
	var out struct {
		Tokens []Token `json:"tokens"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/tokens", nil, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

// Export downloads the token set as an obfuscated backup blob. The blob is
// not encrypted; treat it like the tokens it contains.
func (c *Client) Export(ctx context.Context) (string, error) {
	var out struct {
		Backup string `json:"backup"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/backup", nil, &out); err != nil {
		return "", err
	}
	return out.Backup, nil
}

// Import merges a backup blob into the server's store.
func (c *Client) Import(ctx context.Context, blob string) (*ImportResult, error) {
	var out ImportResult
	err := c.do(ctx, http.MethodPost, "/admin/backup",
		map[string]string{"backup": blob}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("tokengate: marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("tokengate: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.adminSession != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminSession)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("tokengate: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("tokengate: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("tokengate: decode response: %w", err)
		}
	}
	return nil
}
