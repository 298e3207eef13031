package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pantry-planner/internal/pantry"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shopping"
)

const testSecret = "test-secret"

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	APIKey string
	Prefer string
	Body   string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, n int)
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		APIKey: r.Header.Get("apikey"),
		Prefer: r.Header.Get("Prefer"),
		Body:   string(body),
	})
	n := len(f.requests)
	f.mu.Unlock()
	f.handler(w, r, n)
}

func newTestClient(t *testing.T, backend *fakeBackend, delays *[]time.Duration) *Client {
	t.Helper()
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	client, err := NewClient(Config{BaseURL: ts.URL + "/", APIKey: "anon", JWTSecret: testSecret},
		WithSleeper(func(d time.Duration) {
			if delays != nil {
				*delays = append(*delays, d)
			}
		}),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{JWTSecret: "x"}); err == nil {
		t.Error("expected an error without a base url")
	}
	if _, err := NewClient(Config{BaseURL: "http://x"}); err == nil {
		t.Error("expected an error without a jwt secret")
	}
}

func TestStoreList(t *testing.T) {
	backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request, _ int) {
		w.Write([]byte(`[{"id":"1","user_id":"u1","name":"rice","quantity":200,"unit":"g","checked":false}]`))
	}}
	store := NewStore(newTestClient(t, backend, nil))

	items, err := store.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 || items[0].Name != "rice" || *items[0].Quantity != 200 {
		t.Errorf("unexpected items %+v", items)
	}

	req := backend.requests[0]
	if req.Path != "/rest/v1/shopping_items" || !strings.Contains(req.Query, "user_id=eq.u1") {
		t.Errorf("unexpected request %+v", req)
	}
	if req.APIKey != "anon" {
		t.Errorf("expected apikey header, got %q", req.APIKey)
	}

	raw := strings.TrimPrefix(req.Auth, "Bearer ")
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(testSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("expected a valid service token: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["sub"] != "u1" || claims["role"] != "service" {
		t.Errorf("unexpected claims %v", claims)
	}
}

func TestStoreWrites(t *testing.T) {
	backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request, _ int) {
		switch {
		case r.Method == http.MethodPatch && strings.Contains(r.URL.RawQuery, "missing"):
			w.Write([]byte(`[]`))
		case r.Method == http.MethodPatch:
			w.Write([]byte(`[{"id":"1"}]`))
		default:
			w.WriteHeader(http.StatusCreated)
		}
	}}
	store := NewStore(newTestClient(t, backend, nil))
	ctx := context.Background()

	item := shopping.Item{ID: "1", UserID: "u1", Name: "milk", Quantity: recipe.Float(1), Unit: "l"}
	if err := store.Insert(ctx, item); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	var sent shopping.Item
	if err := json.Unmarshal([]byte(backend.requests[0].Body), &sent); err != nil || sent.Name != "milk" {
		t.Errorf("unexpected insert body %q", backend.requests[0].Body)
	}
	if backend.requests[0].Prefer != "return=minimal,resolution=ignore-duplicates" {
		t.Errorf("unexpected prefer header %q", backend.requests[0].Prefer)
	}

	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	item.ID = "missing"
	if err := store.Update(ctx, item); !errors.Is(err, shopping.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := store.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	last := backend.requests[len(backend.requests)-1]
	if last.Method != http.MethodDelete || last.Query != "id=eq.1" {
		t.Errorf("unexpected delete request %+v", last)
	}
}

func TestPantryStore(t *testing.T) {
	backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request, _ int) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`[{"id":"p1","user_id":"u1","ingredient_name":"rice","quantity":"500g"}]`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}}
	store := NewPantryStore(newTestClient(t, backend, nil))
	ctx := context.Background()

	items, err := store.List(ctx, "u1")
	if err != nil || len(items) != 1 || items[0].Name != "rice" || items[0].Quantity != "500g" {
		t.Fatalf("unexpected pantry %v %+v", err, items)
	}
	if backend.requests[0].Path != "/rest/v1/pantry_items" {
		t.Errorf("unexpected path %q", backend.requests[0].Path)
	}

	if err := store.Add(ctx, &pantry.Item{UserID: "u1"}); !errors.Is(err, pantry.ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
	it := &pantry.Item{UserID: "u1", Name: "flour", Quantity: "1 kg"}
	if err := store.Add(ctx, it); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if it.ID == "" || it.CreatedAt.IsZero() {
		t.Errorf("expected id and created_at to be filled, got %+v", it)
	}
	if err := store.Delete(ctx, it.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestRetry(t *testing.T) {
	t.Run("RetriesServerErrorsWithBackoff", func(t *testing.T) {
		backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request, n int) {
			if n < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`[]`))
		}}
		var delays []time.Duration
		store := NewStore(newTestClient(t, backend, &delays))

		if _, err := store.List(context.Background(), "u1"); err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(backend.requests) != 3 {
			t.Errorf("expected 3 attempts, got %d", len(backend.requests))
		}
		want := []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}
		if len(delays) != 2 || delays[0] != want[0] || delays[1] != want[1] {
			t.Errorf("delays = %v, want %v", delays, want)
		}
	})

	t.Run("HonorsRetryAfter", func(t *testing.T) {
		backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request, n int) {
			if n == 1 {
				w.Header().Set("Retry-After", "2")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`[]`))
		}}
		var delays []time.Duration
		store := NewStore(newTestClient(t, backend, &delays))

		if _, err := store.List(context.Background(), "u1"); err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(delays) != 1 || delays[0] != 2*time.Second {
			t.Errorf("expected a 2s Retry-After delay, got %v", delays)
		}
	})

	t.Run("GivesUpAfterMaxRetries", func(t *testing.T) {
		backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request, n int) {
			w.WriteHeader(http.StatusBadGateway)
		}}
		store := NewStore(newTestClient(t, backend, nil))

		_, err := store.List(context.Background(), "u1")
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
			t.Fatalf("expected a 502 StatusError, got %v", err)
		}
		if len(backend.requests) != 4 {
			t.Errorf("expected 1 call plus 3 retries, got %d", len(backend.requests))
		}
	})

	t.Run("DoesNotRetryClientErrors", func(t *testing.T) {
		backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request, n int) {
			http.Error(w, `{"message":"bad filter"}`, http.StatusBadRequest)
		}}
		store := NewStore(newTestClient(t, backend, nil))

		if _, err := store.List(context.Background(), "u1"); err == nil {
			t.Fatal("expected an error")
		}
		if len(backend.requests) != 1 {
			t.Errorf("expected a single attempt, got %d", len(backend.requests))
		}
	})

	t.Run("StopsOnCanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request, n int) {
			cancel()
			w.WriteHeader(http.StatusServiceUnavailable)
		}}
		store := NewStore(newTestClient(t, backend, nil))

		if _, err := store.List(ctx, "u1"); err == nil {
			t.Fatal("expected an error")
		}
		if len(backend.requests) != 1 {
			t.Errorf("expected a single attempt, got %d", len(backend.requests))
		}
	})
}

func TestInsertRetryConflict(t *testing.T) {
	item := shopping.Item{ID: "1", UserID: "u1", Name: "milk"}

	t.Run("ConflictAfterRetryMeansStored", func(t *testing.T) {
		backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request, n int) {
			if n == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusConflict)
		}}
		store := NewStore(newTestClient(t, backend, nil))

		if err := store.Insert(context.Background(), item); err != nil {
			t.Fatalf("expected the retried insert to succeed, got %v", err)
		}
		if len(backend.requests) != 2 {
			t.Errorf("expected 2 attempts, got %d", len(backend.requests))
		}
	})

	t.Run("FirstAttemptConflictFails", func(t *testing.T) {
		backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request, _ int) {
			w.WriteHeader(http.StatusConflict)
		}}
		store := NewStore(newTestClient(t, backend, nil))

		var se *StatusError
		if err := store.Insert(context.Background(), item); !errors.As(err, &se) || se.StatusCode != http.StatusConflict {
			t.Errorf("expected a conflict error, got %v", err)
		}
	})
}

func TestBackoffDelayIsCapped(t *testing.T) {
	c := &Client{baseDelay: 200 * time.Millisecond, maxDelay: 5 * time.Second}
	if got := c.backoffDelay(10); got != 5*time.Second {
		t.Errorf("expected cap of 5s, got %v", got)
	}
	if got := c.capDelay(time.Minute); got != 5*time.Second {
		t.Errorf("expected Retry-After to be capped, got %v", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Errorf("expected 3s, got %v %v", d, ok)
	}
	if _, ok := parseRetryAfter("-1"); ok {
		t.Error("negative values should be rejected")
	}
	if _, ok := parseRetryAfter(""); ok {
		t.Error("empty values should be rejected")
	}
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if d, ok := parseRetryAfter(future); !ok || d <= 0 {
		t.Errorf("expected a positive delay for an HTTP date, got %v %v", d, ok)
	}
}
