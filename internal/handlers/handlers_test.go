package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"mattertrack/internal/database"
	"mattertrack/internal/middleware"
	"mattertrack/internal/services"
	"mattertrack/internal/store"
	"mattertrack/pkg/client"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	docs := store.NewSQLStore(db)
	users := services.NewUserService(db)
	sessions := services.NewSessionService(db, time.Hour)
	identities := services.NewAccountService(users, sessions, docs)
	documentService := services.NewDocumentService(docs, nil)
	backupService := services.NewBackupService(documentService, nil)

	app := fiber.New()
	RegisterRoutes(app, Deps{
		Identities: identities,
		Documents:  documentService,
		Backups:    backupService,
		Backend:    "sqlite",
	})
	return app
}

// doJSON sends a request with an optional JSON body and session cookie.
func doJSON(t *testing.T, app *fiber.App, method, path, body, cookie string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: cookie})
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to send %s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("Failed to parse JSON %q: %v", data, err)
	}
}

func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Value
		}
	}
	t.Fatal("Expected a session cookie in the response")
	return ""
}

func register(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp := doJSON(t, app, "POST", "/api/auth/register",
		`{"email":"`+email+`","password":"`+password+`"}`, "")
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Expected 201 from register, got %d", resp.StatusCode)
	}
	return sessionCookie(t, resp)
}

func TestHealthHandler(t *testing.T) {
	app := setupTestApp(t)

	resp := doJSON(t, app, "GET", "/health", "", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	decodeBody(t, resp, &result)
	if result["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", result["status"])
	}
	if result["backend"] != "sqlite" {
		t.Errorf("Expected backend 'sqlite', got %v", result["backend"])
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	app := setupTestApp(t)

	resp := doJSON(t, app, "POST", "/api/auth/register",
		`{"email":"alice@example.com","password":"secret1","name":"Alice"}`, "")
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	var auth map[string]interface{}
	decodeBody(t, resp, &auth)
	if auth["ok"] != true || auth["email"] != "alice@example.com" || auth["displayName"] != "Alice" {
		t.Errorf("Unexpected register response: %v", auth)
	}

	// Duplicate registration conflicts.
	resp = doJSON(t, app, "POST", "/api/auth/register",
		`{"email":"alice@example.com","password":"other1"}`, "")
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("Expected 409 on duplicate email, got %d", resp.StatusCode)
	}

	// Bad credentials: one 401 for both unknown email and wrong password.
	resp = doJSON(t, app, "POST", "/api/auth/login",
		`{"email":"alice@example.com","password":"wrong"}`, "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 on wrong password, got %d", resp.StatusCode)
	}
	var wrongPw map[string]interface{}
	decodeBody(t, resp, &wrongPw)

	resp = doJSON(t, app, "POST", "/api/auth/login",
		`{"email":"nobody@example.com","password":"secret1"}`, "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 on unknown email, got %d", resp.StatusCode)
	}
	var unknown map[string]interface{}
	decodeBody(t, resp, &unknown)
	if wrongPw["error"] != unknown["error"] {
		t.Errorf("Login failures must be indistinguishable: %v vs %v", wrongPw["error"], unknown["error"])
	}

	// Valid login succeeds.
	resp = doJSON(t, app, "POST", "/api/auth/login",
		`{"email":"alice@example.com","password":"secret1"}`, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200 on login, got %d", resp.StatusCode)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	app := setupTestApp(t)
	resp := doJSON(t, app, "POST", "/api/auth/register",
		`{"email":"bob@example.com","password":"tiny"}`, "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for short password, got %d", resp.StatusCode)
	}
}

func TestAuthGateOnProtectedEndpoints(t *testing.T) {
	app := setupTestApp(t)

	cases := []struct{ method, path, body string }{
		{"GET", "/api/projects", ""},
		{"PUT", "/api/projects", "[]"},
		{"GET", "/api/backup", ""},
		{"POST", "/api/restore", `{"payload":[]}`},
		{"PATCH", "/api/me", `{"displayName":"x"}`},
		{"POST", "/api/auth/change-password", `{"oldPassword":"a","newPassword":"bbbbbb"}`},
	}
	for _, tc := range cases {
		resp := doJSON(t, app, tc.method, tc.path, tc.body, "")
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("%s %s without session: expected 401, got %d", tc.method, tc.path, resp.StatusCode)
		}
		resp.Body.Close()

		resp = doJSON(t, app, tc.method, tc.path, tc.body, "bogus-token")
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("%s %s with bogus session: expected 401, got %d", tc.method, tc.path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestMeAnonymousAndAuthenticated(t *testing.T) {
	app := setupTestApp(t)

	resp := doJSON(t, app, "GET", "/api/me", "", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("GET /api/me must never fail, got %d", resp.StatusCode)
	}
	var me map[string]interface{}
	decodeBody(t, resp, &me)
	if me["userId"] != nil {
		t.Errorf("Expected userId null when anonymous, got %v", me["userId"])
	}

	cookie := register(t, app, "alice@example.com", "secret1")
	resp = doJSON(t, app, "GET", "/api/me", "", cookie)
	decodeBody(t, resp, &me)
	if me["userId"] == nil || me["email"] != "alice@example.com" {
		t.Errorf("Unexpected authenticated /api/me: %v", me)
	}
}

func TestUpdateProfile(t *testing.T) {
	app := setupTestApp(t)
	cookie := register(t, app, "alice@example.com", "secret1")

	resp := doJSON(t, app, "PATCH", "/api/me", `{"displayName":"Alice B"}`, cookie)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	var me map[string]interface{}
	resp = doJSON(t, app, "GET", "/api/me", "", cookie)
	decodeBody(t, resp, &me)
	if me["displayName"] != "Alice B" {
		t.Errorf("Expected displayName 'Alice B', got %v", me["displayName"])
	}
}

func TestChangePasswordGates(t *testing.T) {
	app := setupTestApp(t)
	cookie := register(t, app, "alice@example.com", "secret1")

	resp := doJSON(t, app, "POST", "/api/auth/change-password",
		`{"oldPassword":"wrong","newPassword":"newsecret"}`, cookie)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong old password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, "POST", "/api/auth/change-password",
		`{"oldPassword":"secret1","newPassword":"tiny"}`, cookie)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for short new password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, "POST", "/api/auth/change-password",
		`{"oldPassword":"secret1","newPassword":"newsecret"}`, cookie)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200 for valid change, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, "POST", "/api/auth/login",
		`{"email":"alice@example.com","password":"newsecret"}`, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("New password should log in, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutIsIdempotent(t *testing.T) {
	app := setupTestApp(t)
	cookie := register(t, app, "alice@example.com", "secret1")

	for i := 0; i < 2; i++ {
		resp := doJSON(t, app, "POST", "/api/auth/logout", "", cookie)
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("Logout call %d: expected 200, got %d", i+1, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doJSON(t, app, "GET", "/api/projects", "", cookie)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Session must be dead after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDocumentRoundTripAndFullReplace(t *testing.T) {
	app := setupTestApp(t)
	cookie := register(t, app, "alice@example.com", "secret1")

	// Fresh account reads an empty array.
	resp := doJSON(t, app, "GET", "/api/projects", "", cookie)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("Expected empty document [], got %s", body)
	}

	d1 := `[{"name":"Acme","issues":[{"issue":"server down","statuses":["called",""],"closed":false}]}]`
	resp = doJSON(t, app, "PUT", "/api/projects", d1, cookie)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200 on PUT, got %d", resp.StatusCode)
	}
	var put map[string]interface{}
	decodeBody(t, resp, &put)
	if put["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", put)
	}

	resp = doJSON(t, app, "GET", "/api/projects", "", cookie)
	var got1, want1 interface{}
	decodeBody(t, resp, &got1)
	if err := json.Unmarshal([]byte(d1), &want1); err != nil {
		t.Fatal(err)
	}
	if !jsonEqual(got1, want1) {
		t.Errorf("Round trip mismatch: got %v want %v", got1, want1)
	}

	// Second write fully replaces the first.
	d2 := `[{"name":"Other","issues":[]}]`
	resp = doJSON(t, app, "PUT", "/api/projects", d2, cookie)
	resp.Body.Close()

	resp = doJSON(t, app, "GET", "/api/projects", "", cookie)
	var got2, want2 interface{}
	decodeBody(t, resp, &got2)
	if err := json.Unmarshal([]byte(d2), &want2); err != nil {
		t.Fatal(err)
	}
	if !jsonEqual(got2, want2) {
		t.Errorf("Full replace mismatch: got %v want %v", got2, want2)
	}
}

func TestPutRejectsNonArrayDocument(t *testing.T) {
	app := setupTestApp(t)
	cookie := register(t, app, "alice@example.com", "secret1")

	for _, body := range []string{`{}`, `"x"`, `null`, `123`} {
		resp := doJSON(t, app, "PUT", "/api/projects", body, cookie)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("PUT %s: expected 400, got %d", body, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestBackupExportAndRestore(t *testing.T) {
	app := setupTestApp(t)
	cookie := register(t, app, "alice@example.com", "secret1")

	d1 := `[{"name":"Acme","issues":[{"issue":"bug","statuses":["open"],"closed":false}]}]`
	resp := doJSON(t, app, "PUT", "/api/projects", d1, cookie)
	resp.Body.Close()

	// Export twice with no intervening write: identical payloads.
	resp = doJSON(t, app, "GET", "/api/backup", "", cookie)
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "mattertrack-backup-") {
		t.Errorf("Expected download filename, got %q", cd)
	}
	first, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	resp = doJSON(t, app, "GET", "/api/backup", "", cookie)
	second, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.Equal(first, second) {
		t.Error("Consecutive exports should be identical")
	}

	// Wipe, then restore the export.
	resp = doJSON(t, app, "PUT", "/api/projects", "[]", cookie)
	resp.Body.Close()

	resp = doJSON(t, app, "POST", "/api/restore", string(first), cookie)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200 on restore, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, "GET", "/api/projects", "", cookie)
	var got, want interface{}
	decodeBody(t, resp, &got)
	if err := json.Unmarshal([]byte(d1), &want); err != nil {
		t.Fatal(err)
	}
	if !jsonEqual(got, want) {
		t.Errorf("Restore mismatch: got %v want %v", got, want)
	}
}

func TestRestoreRejectsBadPayloads(t *testing.T) {
	app := setupTestApp(t)
	cookie := register(t, app, "alice@example.com", "secret1")

	keep := `[{"name":"keep","issues":[]}]`
	resp := doJSON(t, app, "PUT", "/api/projects", keep, cookie)
	resp.Body.Close()

	for _, body := range []string{
		`{"payload":{}}`,
		`{"payload":"x"}`,
		`{"payload":null}`,
		`{}`,
		`not json`,
	} {
		resp := doJSON(t, app, "POST", "/api/restore", body, cookie)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("Restore %s: expected 400, got %d", body, resp.StatusCode)
		}
		resp.Body.Close()
	}

	// Stored document untouched.
	resp = doJSON(t, app, "GET", "/api/projects", "", cookie)
	var got, want interface{}
	decodeBody(t, resp, &got)
	if err := json.Unmarshal([]byte(keep), &want); err != nil {
		t.Fatal(err)
	}
	if !jsonEqual(got, want) {
		t.Errorf("Rejected restore must not alter the document: got %v", got)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	app := setupTestApp(t)
	alice := register(t, app, "alice@example.com", "secret1")
	bob := register(t, app, "bob@example.com", "secret2")

	resp := doJSON(t, app, "PUT", "/api/projects", `[{"name":"alice stuff","issues":[]}]`, alice)
	resp.Body.Close()

	resp = doJSON(t, app, "GET", "/api/projects", "", bob)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("Bob must not see Alice's document, got %s", body)
	}
}

// TestEndToEndScenario walks the register → empty read → seed default
// structure → read-back flow a fresh client performs.
func TestEndToEndScenario(t *testing.T) {
	app := setupTestApp(t)
	cookie := register(t, app, "alice@example.com", "secret1")

	resp := doJSON(t, app, "GET", "/api/projects", "", cookie)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("Fresh account should read [], got %s", body)
	}

	seeded := `[{"name":"","issues":[{"issue":"","statuses":[""],"closed":false}]}]`
	resp = doJSON(t, app, "PUT", "/api/projects", seeded, cookie)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Seeding write failed: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, "GET", "/api/projects", "", cookie)
	var got, want interface{}
	decodeBody(t, resp, &got)
	if err := json.Unmarshal([]byte(seeded), &want); err != nil {
		t.Fatal(err)
	}
	if !jsonEqual(got, want) {
		t.Errorf("Seeded structure must read back verbatim: got %v", got)
	}
}

// TestAutosaveFlowOverHTTP drives the Go client and its edit buffer against
// a real listener: register, load the empty document, seed one project with
// one issue and one status line, then wait for the debounced save to land
// and read it back through the API.
func TestAutosaveFlowOverHTTP(t *testing.T) {
	app := setupTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to open listener: %v", err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })

	c, err := client.New("http://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	ctx := context.Background()

	if _, err := c.Register(ctx, "alice@example.com", "secret1", "Alice"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := c.GetDocument(ctx)
	if err != nil {
		t.Fatalf("Initial load failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Fresh account should load an empty document, got %v", got)
	}

	buf := client.NewEditBuffer(c, 50*time.Millisecond, func(err error) {
		t.Errorf("Autosave failed: %v", err)
	})
	buf.Load(got)

	buf.AddProject()
	buf.SetProjectName(0, "Acme")
	buf.SetIssueText(0, 0, "server down")
	buf.SetStatus(0, 0, 0, "called the vendor")

	for i := 0; i < 100 && len(got) == 0; i++ {
		time.Sleep(20 * time.Millisecond)
		if got, err = c.GetDocument(ctx); err != nil {
			t.Fatalf("Read-back failed: %v", err)
		}
	}
	if len(got) == 0 {
		t.Fatal("Debounced save never reached the server")
	}

	if !jsonEqual(got, buf.Document()) {
		t.Errorf("Server state diverged from the buffer: got %v want %v", got, buf.Document())
	}
	statuses := got[0].Issues[0].Statuses
	if len(statuses) != 2 || statuses[0] != "called the vendor" || statuses[1] != "" {
		t.Errorf("Expected the typed status plus an auto-appended blank line, got %v", statuses)
	}
}

func jsonEqual(a, b interface{}) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return bytes.Equal(aj, bj)
}
