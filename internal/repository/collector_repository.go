package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/repository/common"
)

// CollectorRepository отвечает за профили сборщиков.
type CollectorRepository struct {
	db *sqlx.DB
}

// NewCollectorRepository создаёт новый экземпляр.
func NewCollectorRepository(db *sqlx.DB) *CollectorRepository {
	return &CollectorRepository{db: db}
}

// Create сохраняет профиль сборщика.
func (r *CollectorRepository) Create(ctx context.Context, collector *models.Collector) error {
	query := `
		INSERT INTO collectors (collector_id, user_id, real_name, phone, campus, payment_method, order_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		collector.CollectorID,
		collector.UserID,
		collector.RealName,
		collector.Phone,
		collector.Campus,
		collector.PaymentMethod,
		collector.OrderCount,
	).Scan(&collector.CreatedAt, &collector.UpdatedAt); err != nil {
		return fmt.Errorf("collector repository: create %w", err)
	}
	return nil
}

// GetByCollectorID возвращает сборщика по номеру студенческого билета.
func (r *CollectorRepository) GetByCollectorID(ctx context.Context, collectorID string) (*models.Collector, error) {
	return common.GetByField[models.Collector](ctx, r.db, "collectors", "collector_id", collectorID, ErrCollectorNotFound)
}

// GetByUserID возвращает сборщика по идентификатору учётной записи.
func (r *CollectorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Collector, error) {
	return common.GetByField[models.Collector](ctx, r.db, "collectors", "user_id", userID, ErrCollectorNotFound)
}

// UpdateContact обновляет телефон, кампус и способ выплаты.
func (r *CollectorRepository) UpdateContact(ctx context.Context, collector *models.Collector) error {
	query := `
		UPDATE collectors
		SET phone = $1, campus = $2, payment_method = $3, updated_at = NOW()
		WHERE collector_id = $4
	`
	result, err := r.db.ExecContext(ctx, query, collector.Phone, collector.Campus, collector.PaymentMethod, collector.CollectorID)
	if err != nil {
		return fmt.Errorf("collector repository: update contact %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("collector repository: rows affected %w", err)
	}
	if affected == 0 {
		return ErrCollectorNotFound
	}
	return nil
}
