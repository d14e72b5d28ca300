package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mcbeauty/storefront-backend/api/responses"
	pkgerrors "github.com/mcbeauty/storefront-backend/pkg/errors"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
	pkgredis "github.com/mcbeauty/storefront-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	IdempotentReplayed   = "Idempotent-Replayed"

	// CartImportIdempotencyTTL covers client retries of a cart sync.
	CartImportIdempotencyTTL = 24 * time.Hour
	// CheckoutIdempotencyTTL outlives any realistic resubmission of an order.
	CheckoutIdempotencyTTL = 7 * 24 * time.Hour

	pendingTTL             = 30 * time.Second
	maxIdempotencyKeyLen   = 128
	maxIdempotentBodyBytes = 1 << 20

	statePending = "pending"
	stateDone    = "done"
)

// storedResponse is the redis record behind one Idempotency-Key. A pending
// record marks a request still running; a done record is replayed verbatim.
type storedResponse struct {
	State       string `json:"state"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency makes a mutating route safe to retry. Requests are keyed by
// cart session, method, path and the Idempotency-Key header; a retry with the
// same body replays the first response, a different body is rejected, and a
// retry while the first attempt still runs gets a conflict. Server errors are
// forgotten so the client can try again. A nil store disables the check.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || ttl <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := r.Header.Get(IdempotencyKeyHeader)
			idemKey := cleanToken(raw, maxIdempotencyKeyLen)
			if idemKey == "" {
				msg := "Idempotency-Key header required"
				if strings.TrimSpace(raw) != "" {
					msg = "Idempotency-Key must be 1-128 letters, digits, '-' or '_'"
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, msg))
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBodyBytes+1))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unable to read request body"))
				return
			}
			if len(body) > maxIdempotentBodyBytes {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := fingerprint(body)
			key := store.IdempotencyKey(idempotencyScope(r), idemKey)

			existing, err := claim(ctx, store, key, hash, logg)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
				return
			}
			if existing != nil {
				switch {
				case existing.RequestHash != hash:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
				case existing.State == statePending:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "a request with this idempotency key is still in progress"))
				default:
					replay(w, existing)
				}
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			// The outcome is recorded even if the client has gone away.
			settleCtx := context.WithoutCancel(ctx)
			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				if delErr := store.Del(settleCtx, key); delErr != nil {
					logError(ctx, logg, "idempotency.release_failed", delErr)
				}
				return
			}

			payload, _ := json.Marshal(storedResponse{
				State:       stateDone,
				RequestHash: hash,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if setErr := store.Set(settleCtx, key, string(payload), ttl); setErr != nil {
				logError(ctx, logg, "idempotency.persist_failed", setErr)
			}
		})
	}
}

// claim writes a pending marker for key. It returns the record already held
// under key when the claim loses; unreadable records are discarded and the
// claim retried once.
func claim(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string, logg *logger.Logger) (*storedResponse, error) {
	pending, _ := json.Marshal(storedResponse{State: statePending, RequestHash: hash})
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := store.SetNX(ctx, key, string(pending), pendingTTL)
		if err != nil {
			return nil, err
		}
		if ok {
			return nil, nil
		}
		raw, err := store.Get(ctx, key)
		if pkgredis.IsMissing(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var existing storedResponse
		if decodeErr := json.Unmarshal([]byte(raw), &existing); decodeErr == nil && existing.State != "" {
			return &existing, nil
		}
		logError(ctx, logg, "idempotency.corrupt_record", errCorruptRecord)
		if err := store.Del(ctx, key); err != nil {
			return nil, err
		}
	}
	return &storedResponse{State: statePending, RequestHash: hash}, nil
}

var errCorruptRecord = pkgerrors.New(pkgerrors.CodeInternal, "unreadable idempotency record")

func replay(w http.ResponseWriter, record *storedResponse) {
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(IdempotentReplayed, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

func idempotencyScope(r *http.Request) string {
	return strings.Join([]string{CartSessionFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
