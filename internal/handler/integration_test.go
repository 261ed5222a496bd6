package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/notemap/internal/handler"
	"github.com/msomdec/notemap/internal/reconcile"
)

func newTestServer(t *testing.T) (*httptest.Server, *reconcile.Manager) {
	t.Helper()
	auth, notes, categories, sessions := newTestServices(t)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, notes, categories, sessions, false)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, sessions
}

func newTestClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// doJSON sends a JSON request and returns the response. The caller
// closes the body.
func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func registerAndLogin(t *testing.T, client *http.Client, baseURL, email, name string) {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, baseURL+"/api/auth/register", map[string]string{
		"email":           email,
		"displayName":     name,
		"password":        "password123",
		"confirmPassword": "password123",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/auth/login", map[string]string{
		"email":    email,
		"password": "password123",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
}

type noteResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Priority string `json:"priority"`
	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Emoji string `json:"emoji"`
	} `json:"category"`
	CreatedAgo string `json:"createdAgo"`
}

type categoryResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ColorHex string `json:"colorHex"`
	Emoji    string `json:"emoji"`
}

func TestIntegration_RegisterLoginNotesLogout(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newTestClient(t)

	registerAndLogin(t, client, srv.URL, "integ@example.com", "Integration User")

	// Cookie jar should now hold the auth token.
	srvURL, _ := url.Parse(srv.URL)
	var hasAuthToken bool
	for _, c := range client.Jar.Cookies(srvURL) {
		if c.Name == "auth_token" {
			hasAuthToken = true
		}
	}
	if !hasAuthToken {
		t.Fatal("expected auth_token cookie to be set after login")
	}

	// New accounts start with the default category set.
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/categories", nil)
	var categories []categoryResponse
	decodeBody(t, resp, &categories)
	if len(categories) != 5 {
		t.Fatalf("expected 5 default categories, got %d", len(categories))
	}
	if categories[0].Name != "Personal" {
		t.Fatalf("expected first default category Personal, got %s", categories[0].Name)
	}

	// Create a note in the Personal category.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/notes", map[string]string{
		"title":      "Buy milk",
		"content":    "Two liters, whole",
		"categoryId": categories[0].ID,
		"priority":   "HIGH",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create note: expected 201, got %d", resp.StatusCode)
	}
	var created noteResponse
	decodeBody(t, resp, &created)
	if created.ID == "" {
		t.Fatal("expected created note to have an id")
	}
	if created.Category.Name != "Personal" {
		t.Fatalf("expected resolved category Personal, got %s", created.Category.Name)
	}
	if created.CreatedAgo != "Just now" {
		t.Fatalf("expected createdAgo %q, got %q", "Just now", created.CreatedAgo)
	}

	// List should contain exactly that note.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/notes", nil)
	var notes []noteResponse
	decodeBody(t, resp, &notes)
	if len(notes) != 1 || notes[0].Title != "Buy milk" {
		t.Fatalf("expected one note titled Buy milk, got %+v", notes)
	}

	// Update it.
	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/notes/"+created.ID, map[string]string{
		"title":      "Buy oat milk",
		"content":    "Two liters",
		"categoryId": categories[0].ID,
		"priority":   "LOW",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update note: expected 200, got %d", resp.StatusCode)
	}
	var updated noteResponse
	decodeBody(t, resp, &updated)
	if updated.Title != "Buy oat milk" || updated.Priority != "LOW" {
		t.Fatalf("update not applied: %+v", updated)
	}

	// Delete is idempotent.
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/notes/"+created.ID, nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("DELETE note: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete attempt %d: expected 204, got %d", i+1, resp.StatusCode)
		}
	}

	// Logout clears the session; protected routes go back to 401.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/logout", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/notes", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestIntegration_NoteFilters(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newTestClient(t)
	registerAndLogin(t, client, srv.URL, "filters@example.com", "Filter User")

	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/categories", nil)
	var categories []categoryResponse
	decodeBody(t, resp, &categories)

	work := categories[1]
	seed := []map[string]string{
		{"title": "Buy milk", "content": "groceries", "priority": "HIGH"},
		{"title": "Standup notes", "content": "meeting agenda", "priority": "MEDIUM", "categoryId": work.ID},
		{"title": "Plan sprint", "content": "team MEETING prep", "priority": "HIGH", "categoryId": work.ID},
	}
	for _, n := range seed {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/notes", n)
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed note %s: expected 201, got %d", n["title"], resp.StatusCode)
		}
	}

	cases := []struct {
		name   string
		query  string
		titles []string
	}{
		{"search is case-insensitive over title and content", "?q=meeting", []string{"Plan sprint", "Standup notes"}},
		{"category filter", "?category=" + work.ID, []string{"Plan sprint", "Standup notes"}},
		{"priority filter", "?priority=HIGH", []string{"Plan sprint", "Buy milk"}},
		{"criteria combine conjunctively", "?q=meeting&priority=HIGH", []string{"Plan sprint"}},
		{"no matches is an empty list", "?q=zzz", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/notes"+tc.query, nil)
			var notes []noteResponse
			decodeBody(t, resp, &notes)
			if len(notes) != len(tc.titles) {
				t.Fatalf("expected %d notes, got %d: %+v", len(tc.titles), len(notes), notes)
			}
			for i, want := range tc.titles {
				if notes[i].Title != want {
					t.Errorf("notes[%d].Title = %q, want %q", i, notes[i].Title, want)
				}
			}
		})
	}

	// The dedicated search endpoint matches the q filter semantics.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/notes/search?q=milk", nil)
	var notes []noteResponse
	decodeBody(t, resp, &notes)
	if len(notes) != 1 || notes[0].Title != "Buy milk" {
		t.Fatalf("search: expected Buy milk, got %+v", notes)
	}

	// Per-category note listing.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/categories/"+work.ID+"/notes", nil)
	decodeBody(t, resp, &notes)
	if len(notes) != 2 {
		t.Fatalf("category notes: expected 2, got %d", len(notes))
	}

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/categories/no-such-id/notes", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown category notes: expected 404, got %d", resp.StatusCode)
	}
}

func TestIntegration_CategoryLimitAndDeleteConflict(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newTestClient(t)
	registerAndLogin(t, client, srv.URL, "cats@example.com", "Category User")

	// Five defaults are seeded; three more reach the cap of eight.
	var last categoryResponse
	for i := 0; i < 3; i++ {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/categories", map[string]string{
			"name": fmt.Sprintf("Extra %d", i+1),
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create category %d: expected 201, got %d", i+1, resp.StatusCode)
		}
		decodeBody(t, resp, &last)
	}
	if last.Emoji == "" || last.ColorHex == "" {
		t.Fatalf("expected defaulted emoji and color, got %+v", last)
	}

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/categories", map[string]string{"name": "One Too Many"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("ninth category: expected 409, got %d", resp.StatusCode)
	}

	// A category with notes cannot be deleted.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/notes", map[string]string{
		"title": "Pinned", "content": "keeps the category alive", "categoryId": last.ID,
	})
	var note noteResponse
	decodeBody(t, resp, &note)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/categories/"+last.ID, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("DELETE category: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("delete referenced category: expected 409, got %d", resp.StatusCode)
	}

	// After the note is gone the delete succeeds.
	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/notes/"+note.ID, nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("DELETE note: %v", err)
	}
	resp.Body.Close()

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/categories/"+last.ID, nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("DELETE category: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete empty category: expected 204, got %d", resp.StatusCode)
	}
}

func TestIntegration_ValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newTestClient(t)
	registerAndLogin(t, client, srv.URL, "invalid@example.com", "Invalid User")

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"blank title", map[string]string{"title": "   ", "content": "body"}, http.StatusUnprocessableEntity},
		{"blank content", map[string]string{"title": "t", "content": ""}, http.StatusUnprocessableEntity},
		{"dangling category", map[string]string{"title": "t", "content": "c", "categoryId": "no-such-id"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/notes", tc.body)
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}

	// Malformed JSON is a 400, not a validation failure.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/notes", strings.NewReader("{not json"))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST malformed body: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body: expected 400, got %d", resp.StatusCode)
	}

	// Duplicate registration conflicts.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/register", map[string]string{
		"email":           "invalid@example.com",
		"displayName":     "Second",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", resp.StatusCode)
	}
}

func TestIntegration_CrossUserIsolation(t *testing.T) {
	srv, _ := newTestServer(t)

	alice := newTestClient(t)
	registerAndLogin(t, alice, srv.URL, "alice@example.com", "Alice")
	resp := doJSON(t, alice, http.MethodPost, srv.URL+"/api/notes", map[string]string{
		"title": "Alice's secret", "content": "hers alone",
	})
	var note noteResponse
	decodeBody(t, resp, &note)

	bob := newTestClient(t)
	registerAndLogin(t, bob, srv.URL, "bob@example.com", "Bob")

	resp = doJSON(t, bob, http.MethodGet, srv.URL+"/api/notes", nil)
	var notes []noteResponse
	decodeBody(t, resp, &notes)
	if len(notes) != 0 {
		t.Fatalf("expected bob to see no notes, got %d", len(notes))
	}

	resp = doJSON(t, bob, http.MethodGet, srv.URL+"/api/notes/"+note.ID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("fetching another user's note: expected 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/notes/"+note.ID, nil)
	resp, err := bob.Do(req)
	if err != nil {
		t.Fatalf("DELETE note: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("deleting another user's note: expected 401, got %d", resp.StatusCode)
	}

	// Alice's categories are equally off-limits: Bob can neither list
	// their notes nor file a note under one.
	resp = doJSON(t, alice, http.MethodGet, srv.URL+"/api/categories", nil)
	var aliceCategories []categoryResponse
	decodeBody(t, resp, &aliceCategories)

	resp = doJSON(t, bob, http.MethodGet, srv.URL+"/api/categories/"+aliceCategories[0].ID+"/notes", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("listing another user's category notes: expected 401, got %d", resp.StatusCode)
	}

	resp = doJSON(t, bob, http.MethodPost, srv.URL+"/api/notes", map[string]string{
		"title": "sneaky", "content": "c", "categoryId": aliceCategories[0].ID,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("filing a note under another user's category: expected 401, got %d", resp.StatusCode)
	}
}

func TestIntegration_LiveStream(t *testing.T) {
	srv, sessions := newTestServer(t)
	client := newTestClient(t)
	registerAndLogin(t, client, srv.URL, "live@example.com", "Live User")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/notes/live", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET /api/notes/live: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	readUntil := func(substr string) {
		t.Helper()
		for scanner.Scan() {
			if strings.Contains(scanner.Text(), substr) {
				return
			}
		}
		t.Fatalf("stream ended before %q appeared: %v", substr, scanner.Err())
	}

	// First push carries the initial (empty) snapshot with the seeded
	// categories.
	readUntil("Personal")

	// A write through the command API shows up on the stream.
	create := doJSON(t, client, http.MethodPost, srv.URL+"/api/notes", map[string]string{
		"title": "Streamed note", "content": "arrives live",
	})
	create.Body.Close()
	if create.StatusCode != http.StatusCreated {
		t.Fatalf("create note: expected 201, got %d", create.StatusCode)
	}
	readUntil("Streamed note")

	if sessions.StoreFor("") != nil {
		t.Fatal("expected no session for the empty user id")
	}
}
