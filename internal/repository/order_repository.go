package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/repository/common"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists - по запечатанной книге уже есть неотменённый заказ.
	ErrOrderExists = errors.New("active order for sealed book already exists")
)

// OrderRepository отвечает за заказы на сбор книг.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create сохраняет новый заказ в статусе pending. Частичный уникальный
// индекс по sealed_book_id не пропускает второй неотменённый заказ по
// той же книге - такая вставка возвращает ErrOrderExists.
func (r *OrderRepository) Create(ctx context.Context, order *models.CollectOrder) error {
	query := `
		INSERT INTO collect_orders (student_id, sealed_book_id, campus, status, price_per_kg)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, create_time
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		order.StudentID,
		order.SealedBookID,
		order.Campus,
		order.Status,
		order.PricePerKg,
	).Scan(&order.ID, &order.CreateTime); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrOrderExists
		}
		return fmt.Errorf("order repository: create %w", err)
	}
	return nil
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CollectOrder, error) {
	return common.GetByID[models.CollectOrder](ctx, r.db, "collect_orders", id, ErrOrderNotFound)
}

// AcceptPending атомарно переводит заказ pending -> accepted. Условие по
// текущему статусу входит в сам UPDATE, поэтому из конкурирующих сборщиков
// выигрывает ровно один: проигравший получает false без ошибки. В той же
// транзакции помечается запечатанная книга и увеличивается счётчик заказов
// сборщика - читатель никогда не увидит accepted с неотмеченной книгой.
func (r *OrderRepository) AcceptPending(ctx context.Context, orderID uuid.UUID, collectorID string, at time.Time) (bool, error) {
	accepted := false
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var sealedBookID uuid.UUID
		query := `
			UPDATE collect_orders
			SET collector_id = $1, status = $2, accept_time = $3
			WHERE id = $4 AND status = $5
			RETURNING sealed_book_id
		`
		row := tx.QueryRowxContext(ctx, query, collectorID, models.OrderStatusAccepted, at, orderID, models.OrderStatusPending)
		if err := row.Scan(&sealedBookID); err != nil {
			// Ноль строк: заказ не существует либо уже не pending.
			// Для вызывающего это обычный проигрыш гонки, не сбой.
			return errNoRowsUpdated
		}

		if _, err := tx.ExecContext(ctx, `UPDATE sealed_books SET is_accepted = TRUE WHERE id = $1`, sealedBookID); err != nil {
			return fmt.Errorf("order repository: mark sealed book %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE collectors SET order_count = order_count + 1, updated_at = NOW() WHERE collector_id = $1`, collectorID); err != nil {
			return fmt.Errorf("order repository: bump collector counter %w", err)
		}

		accepted = true
		return nil
	})
	if errors.Is(err, errNoRowsUpdated) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return accepted, nil
}

var errNoRowsUpdated = errors.New("no rows updated")

// CompleteAccepted атомарно переводит заказ accepted -> completed и
// записывает итоги расчёта. Возвращает false, если заказ уже не accepted.
func (r *OrderRepository) CompleteAccepted(ctx context.Context, order *models.CollectOrder) (bool, error) {
	query := `
		UPDATE collect_orders
		SET status = $1, finish_time = $2, actual_weight = $3, price_per_kg = $4,
		    commission_amount = $5, student_amount = $6
		WHERE id = $7 AND status = $8
	`
	result, err := r.db.ExecContext(
		ctx,
		query,
		models.OrderStatusCompleted,
		order.FinishTime,
		order.ActualWeight,
		order.PricePerKg,
		order.CommissionAmount,
		order.StudentAmount,
		order.ID,
		models.OrderStatusAccepted,
	)
	if err != nil {
		return false, fmt.Errorf("order repository: complete %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("order repository: rows affected %w", err)
	}
	return affected > 0, nil
}

// ListPendingByCampus возвращает свободные заказы по кампусу.
func (r *OrderRepository) ListPendingByCampus(ctx context.Context, campus string, limit, offset int) ([]models.CollectOrder, int, error) {
	var orders []models.CollectOrder
	query := `
		SELECT * FROM collect_orders
		WHERE campus = $1 AND status = $2
		ORDER BY create_time
		LIMIT $3 OFFSET $4
	`
	if err := r.db.SelectContext(ctx, &orders, query, campus, models.OrderStatusPending, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("order repository: list pending by campus %w", err)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM collect_orders WHERE campus = $1 AND status = $2`
	if err := r.db.GetContext(ctx, &total, countQuery, campus, models.OrderStatusPending); err != nil {
		return nil, 0, fmt.Errorf("order repository: count pending by campus %w", err)
	}

	return orders, total, nil
}

// ListByCollector возвращает заказы, принятые сборщиком.
func (r *OrderRepository) ListByCollector(ctx context.Context, collectorID string, limit, offset int) ([]models.CollectOrder, int, error) {
	var orders []models.CollectOrder
	query := `
		SELECT * FROM collect_orders
		WHERE collector_id = $1
		ORDER BY accept_time DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &orders, query, collectorID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("order repository: list by collector %w", err)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM collect_orders WHERE collector_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, collectorID); err != nil {
		return nil, 0, fmt.Errorf("order repository: count by collector %w", err)
	}

	return orders, total, nil
}

// ListByStudent возвращает заказы студента.
func (r *OrderRepository) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]models.CollectOrder, int, error) {
	var orders []models.CollectOrder
	query := `
		SELECT * FROM collect_orders
		WHERE student_id = $1
		ORDER BY create_time DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &orders, query, studentID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("order repository: list by student %w", err)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM collect_orders WHERE student_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, studentID); err != nil {
		return nil, 0, fmt.Errorf("order repository: count by student %w", err)
	}

	return orders, total, nil
}
