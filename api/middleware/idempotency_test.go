package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/mcbeauty/storefront-backend/pkg/errors"
	"github.com/mcbeauty/storefront-backend/pkg/types"
)

// fakeStore is an in-memory IdempotencyStore. With honorCtx set, writes fail
// on a done context the way go-redis does.
type fakeStore struct {
	data     map[string]string
	ttls     map[string]time.Duration
	setErr   error
	honorCtx bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	f.data[key], _ = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key], _ = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	if f.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func checkoutRequest(session, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req.WithContext(WithCartSession(req.Context(), session))
}

func countingHandler(calls *int, status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func errorCodeOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return env.Error.Code
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	var calls int
	handler := Idempotency(newFakeStore(), CheckoutIdempotencyTTL, nil)(countingHandler(&calls, http.StatusCreated, `{}`))

	for _, key := range []string{"", "has spaces!"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, checkoutRequest("sess-1", key, `{"customer_name":"Ana"}`))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("key %q: expected 400 got %d", key, rec.Code)
		}
	}
	if calls != 0 {
		t.Fatalf("handler should not run without a usable idempotency key")
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, CheckoutIdempotencyTTL, nil)(countingHandler(&calls, http.StatusCreated, `{"order_number":1001}`))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, checkoutRequest("sess-1", "order-1", `{"customer_name":"Ana"}`))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, checkoutRequest("sess-1", "order-1", `{"customer_name":"Ana"}`))

	if calls != 1 {
		t.Fatalf("expected handler once, got %d", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Body.String() != `{"order_number":1001}` {
		t.Fatalf("unexpected replay body %s", second.Body.String())
	}
	if second.Header().Get(IdempotentReplayed) != "true" {
		t.Fatalf("expected replay marker header")
	}
	if got := second.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected content type replayed, got %q", got)
	}
	key := store.IdempotencyKey("sess-1|POST|/api/v1/checkout", "order-1")
	if store.ttls[key] != CheckoutIdempotencyTTL {
		t.Fatalf("expected checkout ttl on stored record, got %v", store.ttls[key])
	}
}

func TestIdempotencyRecordsOutcomeAfterClientDisconnect(t *testing.T) {
	store := newFakeStore()
	store.honorCtx = true
	var calls int
	inner := countingHandler(&calls, http.StatusCreated, `{"order_number":1001}`)

	ctx, cancel := context.WithCancel(context.Background())
	disconnecting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r)
		cancel()
	})
	handler := Idempotency(store, CheckoutIdempotencyTTL, nil)(disconnecting)

	req := checkoutRequest("sess-1", "order-1", `{"customer_name":"Ana"}`)
	handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(WithCartSession(ctx, "sess-1")))

	retry := httptest.NewRecorder()
	handler.ServeHTTP(retry, checkoutRequest("sess-1", "order-1", `{"customer_name":"Ana"}`))
	if calls != 1 {
		t.Fatalf("retry must replay instead of running the handler again, got %d calls", calls)
	}
	if retry.Code != http.StatusCreated || retry.Header().Get(IdempotentReplayed) != "true" {
		t.Fatalf("expected replayed 201, got %d", retry.Code)
	}
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	var calls int
	handler := Idempotency(newFakeStore(), CheckoutIdempotencyTTL, nil)(countingHandler(&calls, http.StatusCreated, `{}`))

	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest("sess-1", "order-1", `{"customer_name":"Ana"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutRequest("sess-1", "order-1", `{"customer_name":"Luis"}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if code := errorCodeOf(t, rec); code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected idempotency code, got %s", code)
	}
	if calls != 1 {
		t.Fatalf("expected handler once, got %d", calls)
	}
}

func TestIdempotencyRejectsConcurrentRetry(t *testing.T) {
	store := newFakeStore()
	var inner *httptest.ResponseRecorder
	var handler http.Handler
	handler = Idempotency(store, CheckoutIdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inner == nil {
			inner = httptest.NewRecorder()
			handler.ServeHTTP(inner, checkoutRequest("sess-1", "order-1", `{"customer_name":"Ana"}`))
		}
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest("sess-1", "order-1", `{"customer_name":"Ana"}`))

	if inner == nil || inner.Code != http.StatusConflict {
		t.Fatalf("expected in-flight retry to conflict, got %+v", inner)
	}
	if code := errorCodeOf(t, inner); code != string(pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict code, got %s", code)
	}
}

func TestIdempotencyScopesKeysBySession(t *testing.T) {
	var calls int
	handler := Idempotency(newFakeStore(), CheckoutIdempotencyTTL, nil)(countingHandler(&calls, http.StatusCreated, `{}`))

	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest("sess-1", "shared", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest("sess-2", "shared", `{}`))

	if calls != 2 {
		t.Fatalf("expected each session to run once, got %d", calls)
	}
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, CheckoutIdempotencyTTL, nil)(countingHandler(&calls, http.StatusServiceUnavailable, `{}`))

	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest("sess-1", "order-1", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest("sess-1", "order-1", `{}`))

	if calls != 2 {
		t.Fatalf("expected server errors not to be stored, got %d calls", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected key released, store=%v", store.data)
	}
}

func TestIdempotencyDropsCorruptRecord(t *testing.T) {
	store := newFakeStore()
	store.data[store.IdempotencyKey("sess-1|POST|/api/v1/checkout", "order-1")] = "not-json"
	var calls int
	handler := Idempotency(store, CheckoutIdempotencyTTL, nil)(countingHandler(&calls, http.StatusCreated, `{}`))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutRequest("sess-1", "order-1", `{}`))

	if calls != 1 || rec.Code != http.StatusCreated {
		t.Fatalf("expected corrupt record to be replaced, calls=%d code=%d", calls, rec.Code)
	}
}

func TestIdempotencyNilStorePassesThrough(t *testing.T) {
	var calls int
	handler := Idempotency(nil, CheckoutIdempotencyTTL, nil)(countingHandler(&calls, http.StatusCreated, `{}`))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutRequest("sess-1", "", `{}`))

	if calls != 1 || rec.Code != http.StatusCreated {
		t.Fatalf("expected pass-through without store, calls=%d code=%d", calls, rec.Code)
	}
}

func TestIdempotencyPersistFailureStillAnswers(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("redis down")
	var calls int
	handler := Idempotency(store, CartImportIdempotencyTTL, nil)(countingHandler(&calls, http.StatusOK, `{"count":2}`))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutRequest("sess-1", "sync-1", `{"items":[]}`))

	if rec.Code != http.StatusOK || rec.Body.String() != `{"count":2}` {
		t.Fatalf("expected handler response despite persist failure, got %d %s", rec.Code, rec.Body.String())
	}
}
