package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

// FetchPendingTx returns unpublished rows of eventType that are due at now and
// still have attempts left. On Postgres the rows stay locked for the life of
// tx and rows locked by other workers are skipped.
func (r *Repository) FetchPendingTx(tx *gorm.DB, eventType enums.OutboxEventType, now time.Time, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	query := tx.Model(&models.OutboxEvent{}).
		Where("published_at IS NULL").
		Where("event_type = ?", eventType).
		Where("attempt_count < ?", maxAttempts).
		Where("available_at <= ?", now.UTC()).
		Order("available_at ASC").
		Order("id ASC").
		Limit(limit)
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}

	var rows []models.OutboxEvent
	err := query.Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now().UTC(),
		}).Error
}

// MarkFailedTx records a failed attempt and pushes the row back to nextAttempt.
func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error, nextAttempt time.Time) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"available_at":  nextAttempt.UTC(),
		}).Error
}

// MarkTerminalTx parks the row at terminalAttempts so it is never fetched again.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": terminalAttempts,
		}).Error
}

func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	return r.MarkPublishedTx(r.db.WithContext(ctx), id)
}

func (r *Repository) MarkTerminal(ctx context.Context, id uuid.UUID, err error, terminalAttempts int) error {
	return r.MarkTerminalTx(r.db.WithContext(ctx), id, err, terminalAttempts)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.OutboxEvent, error) {
	var row models.OutboxEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
