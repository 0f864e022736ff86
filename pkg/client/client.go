// Package client provides a Go client for the mattertrack HTTP API and
// an in-memory edit buffer that debounces document saves.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"mattertrack/internal/models"
)

// APIError carries the HTTP status and server-reported message of a
// failed request.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to a mattertrack server. Session cookies are kept in an
// in-process jar, so one Client represents one logged-in user.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		message := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			message = payload.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Register creates an account and stores the session cookie.
func (c *Client) Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", models.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     name,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and stores the session cookie.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout destroys the server-side session. Safe to call when already
// logged out.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// ChangePassword rotates the account password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/change-password", models.ChangePasswordRequest{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	}, nil)
}

// Me reports the current identity. UserID is nil when not logged in.
func (c *Client) Me(ctx context.Context) (*models.MeResponse, error) {
	var out models.MeResponse
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDisplayName changes the profile display name.
func (c *Client) UpdateDisplayName(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPatch, "/api/me", models.UpdateProfileRequest{
		DisplayName: &name,
	}, nil)
}

// GetDocument fetches the user's whole project document.
func (c *Client) GetDocument(ctx context.Context) (models.Document, error) {
	var out models.Document
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	out.Normalize()
	return out, nil
}

// PutDocument replaces the user's whole project document.
func (c *Client) PutDocument(ctx context.Context, doc models.Document) error {
	if doc == nil {
		doc = models.Document{}
	}
	return c.do(ctx, http.MethodPut, "/api/projects", doc, nil)
}

// ExportBackup downloads the backup artifact.
func (c *Client) ExportBackup(ctx context.Context) (*models.ExportArtifact, error) {
	var out models.ExportArtifact
	if err := c.do(ctx, http.MethodGet, "/api/backup", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RestoreBackup replaces the stored document with a backup payload.
func (c *Client) RestoreBackup(ctx context.Context, payload models.Document) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode backup payload: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/api/restore", models.BackupArtifact{
		Payload: body,
	}, nil)
}
