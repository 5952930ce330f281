package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type stubIdempotencyStore struct {
	records map[string]string
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{records: map[string]string{}}
}

func (s *stubIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	if value, ok := s.records[key]; ok {
		return value, nil
	}
	return "", redis.Nil
}

func (s *stubIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.records[key]; ok {
		return false, nil
	}
	s.records[key] = value.(string)
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(context.Context, ...string) error { return nil }

func checkoutHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order_number":"ORD-AAAA1111"}}`))
	})
}

func TestIdempotencyPassesThroughWithoutKey(t *testing.T) {
	calls := 0
	store := newStubIdempotencyStore()
	handler := Idempotency(store, nil, 0)(checkoutHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201 without key got %d", resp.Code)
		}
	}

	if calls != 2 {
		t.Fatalf("expected handler to run every time without a key, ran %d times", calls)
	}
	if len(store.records) != 0 {
		t.Fatalf("expected nothing recorded without a key, got %d records", len(store.records))
	}
}

func TestIdempotencySkipsUnmatchedRoute(t *testing.T) {
	calls := 0
	handler := Idempotency(newStubIdempotencyStore(), nil, 0)(checkoutHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if calls != 1 {
		t.Fatalf("expected passthrough for unmatched route, ran %d times", calls)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	calls := 0
	store := newStubIdempotencyStore()
	handler := Idempotency(store, nil, 0)(checkoutHandler(&calls))

	body := `{"payment_method":"cod"}`

	first := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	first.Header.Set("Idempotency-Key", "key-1")
	firstResp := httptest.NewRecorder()
	handler.ServeHTTP(firstResp, first)
	if firstResp.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first call got %d", firstResp.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	second.Header.Set("Idempotency-Key", "key-1")
	secondResp := httptest.NewRecorder()
	handler.ServeHTTP(secondResp, second)

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if secondResp.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", secondResp.Code)
	}
	if firstResp.Body.String() != secondResp.Body.String() {
		t.Fatalf("expected identical bodies, got %q then %q", firstResp.Body.String(), secondResp.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	calls := 0
	handler := Idempotency(newStubIdempotencyStore(), nil, 0)(checkoutHandler(&calls))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"phone":"0811"}`))
	first.Header.Set("Idempotency-Key", "key-2")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"phone":"0812"}`))
	second.Header.Set("Idempotency-Key", "key-2")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, second)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key got %d", resp.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotencyScopesBySession(t *testing.T) {
	calls := 0
	handler := Idempotency(newStubIdempotencyStore(), nil, 0)(checkoutHandler(&calls))

	body := `{"payment_method":"cod"}`

	first := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	first.Header.Set("Idempotency-Key", "shared-key")
	first = first.WithContext(WithCartSession(first.Context(), "session-a"))
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	second.Header.Set("Idempotency-Key", "shared-key")
	second = second.WithContext(WithCartSession(second.Context(), "session-b"))
	handler.ServeHTTP(httptest.NewRecorder(), second)

	if calls != 2 {
		t.Fatalf("expected separate sessions to run separately, ran %d times", calls)
	}
}

func TestIdempotencyCancelRouteMatches(t *testing.T) {
	calls := 0
	handler := Idempotency(newStubIdempotencyStore(), nil, 0)(checkoutHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/0d9a2f7e-1111-2222-3333-444455556666/cancel", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "cancel-key")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201 on cancel route got %d", resp.Code)
		}
	}

	if calls != 1 {
		t.Fatalf("expected the cancel route to replay, handler ran %d times", calls)
	}
}
