// Package ado posts changelog comments to Azure DevOps work items.
package ado

import (
	"bytes"
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
)

const (
	DefaultBaseURL      = "https://dev.azure.com"
	DefaultOrganization = "JPL-JioMart"
	DefaultProject      = "Retailer and Distribution Platform"
	DefaultAPIVersion   = "7.0-preview.3"

	// PATEnvVar holds the personal access token. It is never read from a file.
	PATEnvVar = "AZURE_DEVOPS_PAT"

	placeholderPrefix = "REPLACE_WITH"
)

// ErrPATNotConfigured is returned before any request when no usable personal
// access token is set.
var ErrPATNotConfigured = errors.New("Azure DevOps PAT not configured")

// StatusError is a non-2xx answer from the comments endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Azure DevOps API error (%d): %s", e.Code, e.Body)
}

// Config configures a Client. Zero values select defaults.
type Config struct {
	BaseURL      string
	Organization string
	Project      string
	APIVersion   string
	PAT          string
	Timeout      time.Duration
}

// Client talks to the work item comments API.
type Client struct {
	baseURL      string
	organization string
	project      string
	apiVersion   string
	pat          string
	client       *http.Client
}

type commentRequest struct {
	Text string `json:"text"`
}

// NewClient creates a client. A missing PAT is only reported when posting.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Organization == "" {
		cfg.Organization = DefaultOrganization
	}
	if cfg.Project == "" {
		cfg.Project = DefaultProject
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		organization: cfg.Organization,
		project:      cfg.Project,
		apiVersion:   cfg.APIVersion,
		pat:          strings.TrimSpace(cfg.PAT),
		client:       &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether a usable PAT is set.
func (c *Client) Configured() bool {
	return c.pat != "" && !strings.HasPrefix(c.pat, placeholderPrefix)
}

func (c *Client) commentsURL(itemID string) string {
	return fmt.Sprintf("%s/%s/%s/_apis/wit/workItems/%s/comments?api-version=%s",
		c.baseURL,
		url.PathEscape(c.organization),
		url.PathEscape(c.project),
		url.PathEscape(itemID),
		url.QueryEscape(c.apiVersion))
}

// PostComment adds text as a comment on work item itemID. An empty id or
// blank text is a no-op.
func (c *Client) PostComment(ctx context.Context, itemID, text string) error {
	if itemID == "" || strings.TrimSpace(text) == "" {
		return nil
	}
	if !c.Configured() {
		return ErrPATNotConfigured
	}

	body, err := json.Marshal(commentRequest{Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.commentsURL(itemID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(":"+c.pat)))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
