package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mattertrack/internal/models"
)

// stubServer is a minimal in-memory stand-in for the real API: one
// account, cookie sessions, one document.
func stubServer(t *testing.T) *httptest.Server {
	t.Helper()

	const token = "stub-session-token"
	doc := models.Document{}

	authed := func(r *http.Request) bool {
		c, err := r.Cookie("mt_session")
		return err == nil && c.Value == token
	}
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	grant := func(w http.ResponseWriter) {
		http.SetCookie(w, &http.Cookie{Name: "mt_session", Value: token, Path: "/"})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email == "taken@example.com" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Email is already registered"})
			return
		}
		grant(w)
		writeJSON(w, http.StatusCreated, models.AuthResponse{OK: true, Email: req.Email, DisplayName: req.Name})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		grant(w)
		writeJSON(w, http.StatusOK, models.AuthResponse{OK: true, Email: req.Email})
	})
	mux.HandleFunc("GET /api/projects", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
			return
		}
		writeJSON(w, http.StatusOK, doc)
	})
	mux.HandleFunc("PUT /api/projects", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
			return
		}
		var next models.Document
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		doc = next
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/backup", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
			return
		}
		writeJSON(w, http.StatusOK, models.ExportArtifact{Payload: doc})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSessionCookieFlow(t *testing.T) {
	srv := stubServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	// Unauthenticated reads fail with the server's message.
	_, err = c.GetDocument(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Authentication required", apiErr.Message)

	// Register stores the cookie; later calls carry it automatically.
	resp, err := c.Register(ctx, "alice@example.com", "secret1", "Alice")
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "Alice", resp.DisplayName)

	got, err := c.GetDocument(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	want := models.Document{{
		Name: "Acme",
		Issues: []models.Issue{{
			Issue:    "server down",
			Statuses: []string{"called", ""},
		}},
	}}
	require.NoError(t, c.PutDocument(ctx, want))

	got, err = c.GetDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	backup, err := c.ExportBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, backup.Payload)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	srv := stubServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Register(ctx, "taken@example.com", "secret1", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "Email is already registered", apiErr.Message)

	_, err = c.Login(ctx, "alice@example.com", "wrong")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClientNilDocumentBecomesEmptyArray(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		n, _ := r.Body.Read(buf)
		body = buf[:n]
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	require.NoError(t, c.PutDocument(context.Background(), nil))
	assert.JSONEq(t, "[]", string(body))
}
