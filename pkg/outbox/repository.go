package outbox

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
)

const maxLastErrorLen = 1024

// ErrNotParked is returned by Requeue for rows that are published, unknown,
// or still being retried.
var ErrNotParked = errors.New("outbox row is not parked")

// Repository persists outbox rows. Write methods take the caller's
// transaction; the rest use the repository's own handle.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Backlog counts unpublished rows. Parked rows have used up their attempts
// and wait for Requeue.
type Backlog struct {
	Pending int64
	Parked  int64
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errTxRequired
	}
	return tx.Create(&event).Error
}

// FetchUnpublishedForPublish locks up to limit publishable rows, oldest
// first. On Postgres rows held by another publisher are skipped; SQLite has
// no row locks and reads plainly.
func (r *Repository) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errTxRequired
	}
	q := tx.Where("published_at IS NULL")
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	var rows []models.OutboxEvent
	err := q.Order("created_at, id").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	return update(tx, id, map[string]any{"published_at": time.Now().UTC(), "last_error": nil})
}

// MarkFailedTx records a retryable failure and spends one attempt.
func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	return update(tx, id, map[string]any{
		"last_error":    lastError(err),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	})
}

// MarkTerminalTx parks a row by raising attempt_count to the publisher's
// limit so FetchUnpublishedForPublish skips it.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	return update(tx, id, map[string]any{"last_error": lastError(err), "attempt_count": terminalAttempts})
}

// Backlog reports how many rows wait to be published under maxAttempts.
func (r *Repository) Backlog(ctx context.Context, maxAttempts int) (Backlog, error) {
	var out Backlog
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("published_at IS NULL")
	}
	if err := base().Where("attempt_count < ?", maxAttempts).Count(&out.Pending).Error; err != nil {
		return out, err
	}
	err := base().Where("attempt_count >= ?", maxAttempts).Count(&out.Parked).Error
	return out, err
}

// Requeue gives a parked row a fresh set of attempts. The last error is
// kept until the next attempt overwrites it.
func (r *Repository) Requeue(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	res := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND published_at IS NULL AND attempt_count >= ?", id, maxAttempts).
		Update("attempt_count", 0)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotParked
	}
	return nil
}

func update(tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	if tx == nil {
		return errTxRequired
	}
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(fields).Error
}

// lastError truncates err to maxLastErrorLen bytes without splitting a rune.
func lastError(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if len(msg) > maxLastErrorLen {
		cut := maxLastErrorLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return &msg
}
