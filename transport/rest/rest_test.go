package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/unkn0wn-root/rescache/resource"
	"github.com/unkn0wn-root/rescache/transport"
)

func mustClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func jsonResponse(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// ==============================
// Config
// ==============================

func TestRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNoBaseURL) {
		t.Fatalf("err = %v, want ErrNoBaseURL", err)
	}
}

// ==============================
// List
// ==============================

func TestListQueryEncoding(t *testing.T) {
	rawQuery := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery <- r.URL.RawQuery
		q := r.URL.Query()
		if q.Get("page") != "3" || q.Get("per_page") != "50" {
			t.Errorf("pagination params: %v", q)
		}
		if q.Get("sort") != "name" || q.Get("order") != "desc" {
			t.Errorf("sort params: %v", q)
		}
		if q.Get("status") != "active" {
			t.Errorf("scalar filter sent as %q", q.Get("status"))
		}
		if q.Get("ids") != `[1,2]` {
			t.Errorf("composite filter sent as %q", q.Get("ids"))
		}
		jsonResponse(w, 200, `[]`)
	}))
	defer srv.Close()

	c := mustClient(t, Config{BaseURL: srv.URL})
	_, err := c.List(context.Background(), "users", resource.Query{
		Page:    3,
		PerPage: 50,
		Sort:    "name",
		Order:   "desc",
		Filter:  map[string]any{"status": "active", "ids": []any{float64(1), float64(2)}},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if q := <-rawQuery; q == "" {
		t.Fatal("no query sent")
	}
}

func TestListBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 200, `[{"id":"1"},{"id":"2"}]`)
	}))
	defer srv.Close()

	c := mustClient(t, Config{BaseURL: srv.URL})
	lr, err := c.List(context.Background(), "users", resource.Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lr.Items) != 2 || lr.Total != 2 {
		t.Fatalf("got %+v", lr)
	}
}

func TestListItemsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 200, `{"items":[{"id":"1"}],"total":40}`)
	}))
	defer srv.Close()

	c := mustClient(t, Config{BaseURL: srv.URL})
	lr, err := c.List(context.Background(), "users", resource.Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lr.Items) != 1 || lr.Total != 40 {
		t.Fatalf("got %+v", lr)
	}
}

func TestListDataEnvelopeWithoutTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 200, `{"data":[{"id":"1"},{"id":"2"},{"id":"3"}]}`)
	}))
	defer srv.Close()

	c := mustClient(t, Config{BaseURL: srv.URL})
	lr, err := c.List(context.Background(), "users", resource.Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lr.Items) != 3 || lr.Total != 3 {
		t.Fatalf("total should fall back to item count: %+v", lr)
	}
}

// ==============================
// Item operations
// ==============================

func TestGetEscapesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.EscapedPath(); got != "/users/weird%2Fid%20one" {
			t.Errorf("path = %q", got)
		}
		jsonResponse(w, 200, `{"id":"weird/id one"}`)
	}))
	defer srv.Close()

	c := mustClient(t, Config{BaseURL: srv.URL})
	it, err := c.Get(context.Background(), "users", "weird/id one")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if it["id"] != "weird/id one" {
		t.Fatalf("got %v", it)
	}
}

func TestCreatePostsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["name"] != "ada" {
			t.Errorf("body %v err %v", body, err)
		}
		jsonResponse(w, 201, `{"id":"7","name":"ada"}`)
	}))
	defer srv.Close()

	c := mustClient(t, Config{BaseURL: srv.URL})
	it, err := c.Create(context.Background(), "users", resource.Item{"name": "ada"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if it["id"] != "7" {
		t.Fatalf("got %v", it)
	}
}

func TestUpdatePatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/users/7" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "grace" {
			t.Errorf("body %v", body)
		}
		jsonResponse(w, 200, `{"id":"7","name":"grace"}`)
	}))
	defer srv.Close()

	c := mustClient(t, Config{BaseURL: srv.URL})
	it, err := c.Update(context.Background(), "users", "7", map[string]any{"name": "grace"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if it["name"] != "grace" {
		t.Fatalf("got %v", it)
	}
}

func TestDeleteAcceptsNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/users/7" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := mustClient(t, Config{BaseURL: srv.URL})
	if err := c.Delete(context.Background(), "users", "7"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

// ==============================
// Errors
// ==============================

func TestStatusErrorCarriesBoundedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 422, strings.Repeat("x", 100))
	}))
	defer srv.Close()

	c := mustClient(t, Config{BaseURL: srv.URL, MaxErrorBody: 10})
	_, err := c.Get(context.Background(), "users", "7")

	var te *transport.Error
	if !errors.As(err, &te) {
		t.Fatalf("err = %T %v", err, err)
	}
	if te.Status != 422 || te.Resource != "users" || te.ID != "7" {
		t.Fatalf("error fields: %+v", te)
	}
	if len(te.Body) != 10 {
		t.Fatalf("body not bounded: %d bytes", len(te.Body))
	}
}

func TestNonJSONSuccessIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>login</html>"))
	}))
	defer srv.Close()

	c := mustClient(t, Config{BaseURL: srv.URL})
	if _, err := c.Get(context.Background(), "users", "7"); err == nil {
		t.Fatal("expected content type error")
	} else if !strings.Contains(err.Error(), "content type") {
		t.Fatalf("err = %v", err)
	}
}

// ==============================
// Headers
// ==============================

func TestHeaderProviderAndRequestID(t *testing.T) {
	var (
		mu   sync.Mutex
		auth []string
		ids  []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = append(auth, r.Header.Get("Authorization"))
		ids = append(ids, r.Header.Get("X-Request-Id"))
		mu.Unlock()
		jsonResponse(w, 200, `{"id":"1"}`)
	}))
	defer srv.Close()

	calls := 0
	c := mustClient(t, Config{
		BaseURL: srv.URL,
		Headers: func(ctx context.Context) (http.Header, error) {
			calls++
			h := http.Header{}
			h.Set("Authorization", "Bearer tok")
			return h, nil
		},
	})

	for i := 0; i < 2; i++ {
		if _, err := c.Get(context.Background(), "users", "1"); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}

	if calls != 2 {
		t.Fatalf("header provider called %d times", calls)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, a := range auth {
		if a != "Bearer tok" {
			t.Fatalf("auth = %v", auth)
		}
	}
	if len(ids) != 2 || ids[0] == "" || ids[0] == ids[1] {
		t.Fatalf("request ids not unique per request: %v", ids)
	}
}

func TestHeaderProviderErrorFailsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach server")
	}))
	defer srv.Close()

	c := mustClient(t, Config{
		BaseURL: srv.URL,
		Headers: func(ctx context.Context) (http.Header, error) {
			return nil, errors.New("token expired")
		},
	})
	if _, err := c.Get(context.Background(), "users", "1"); err == nil {
		t.Fatal("expected header provider error")
	}
}

// ==============================
// Schema
// ==============================

func TestSchemaEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/schema" {
			t.Errorf("path %s", r.URL.Path)
		}
		jsonResponse(w, 200, `{"type":"object","required":["name"]}`)
	}))
	defer srv.Close()

	c := mustClient(t, Config{BaseURL: srv.URL})
	schema, err := c.Schema(context.Background(), "users")
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if schema["type"] != "object" {
		t.Fatalf("got %v", schema)
	}
}
