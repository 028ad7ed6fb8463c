// Package azdo is a small read-only client for the Azure DevOps REST API
// endpoints the dashboard consumes.
package azdo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	AuthModeBasic  = "basic"
	AuthModeBearer = "bearer"

	defaultBaseURL    = "https://dev.azure.com"
	defaultAPIVersion = "7.1"
	defaultTimeout    = 30 * time.Second
	maxErrorBody      = 512
)

type Config struct {
	BaseURL          string
	Organization     string
	Project          string
	Token            string
	AuthMode         string // basic (PAT) or bearer (Entra access token)
	APIVersion       string
	PolicyAPIVersion string
	Timeout          time.Duration
	HTTPClient       *http.Client // optional; auth is layered on its transport
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Organization) == "" {
		return nil, errors.New("azure devops organization is required")
	}
	if strings.TrimSpace(cfg.Project) == "" {
		return nil, errors.New("azure devops project is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("azure devops token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.PolicyAPIVersion == "" {
		cfg.PolicyAPIVersion = cfg.APIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

func newHTTPClient(cfg Config) (*http.Client, error) {
	base := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}

	switch strings.ToLower(cfg.AuthMode) {
	case "", AuthModeBasic:
		return &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &basicAuthTransport{token: cfg.Token, base: base},
		}, nil
	case AuthModeBearer:
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: base})
		tc := oauth2.NewClient(ctx, ts)
		tc.Timeout = cfg.Timeout
		return tc, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q (must be basic or bearer)", cfg.AuthMode)
	}
}

// basicAuthTransport attaches a personal access token as HTTP basic auth with
// an empty user name, which is what Azure DevOps expects for PATs.
type basicAuthTransport struct {
	token string
	base  http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	creds := base64.StdEncoding.EncodeToString([]byte(":" + t.token))
	clone.Header.Set("Authorization", "Basic "+creds)
	return t.base.RoundTrip(clone)
}

// Organization returns the organization the client is bound to.
func (c *Client) Organization() string { return c.cfg.Organization }

// Project returns the project the client is bound to.
func (c *Client) Project() string { return c.cfg.Project }

// PullRequestWebURL returns the browser link for a pull request.
func (c *Client) PullRequestWebURL(pr PullRequest) string {
	project := pr.Repository.Project.Name
	if project == "" {
		project = c.cfg.Project
	}
	return fmt.Sprintf("%s/%s/%s/_git/%s/pullrequest/%d",
		c.cfg.BaseURL,
		url.PathEscape(c.cfg.Organization),
		url.PathEscape(project),
		url.PathEscape(pr.Repository.Name),
		pr.PullRequestID,
	)
}

func (c *Client) endpoint(path string, query url.Values, apiVersion string) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", apiVersion)
	return fmt.Sprintf("%s/%s/%s/_apis/%s?%s",
		c.cfg.BaseURL,
		url.PathEscape(c.cfg.Organization),
		url.PathEscape(c.cfg.Project),
		strings.TrimLeft(path, "/"),
		query.Encode(),
	)
}

// getRaw issues an authenticated GET and returns the response body.
func (c *Client) getRaw(ctx context.Context, path string, query url.Values, apiVersion string) ([]byte, error) {
	target := c.endpoint(path, query, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RequestError{Method: http.MethodGet, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Method: http.MethodGet, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: http.MethodGet, URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			Method:     http.MethodGet,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s: %s", resp.Status, truncate(body, maxErrorBody)),
		}
	}
	return body, nil
}

// getJSON issues an authenticated GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, apiVersion string, out any) error {
	body, err := c.getRaw(ctx, path, query, apiVersion)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RequestError{Method: http.MethodGet, URL: c.endpoint(path, query, apiVersion), StatusCode: http.StatusOK, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func truncate(body []byte, n int) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
