package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/repository/common"
)

var ErrReportNotFound = errors.New("report not found")

// ReportRepository отвечает за жалобы на объявления.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository создаёт новый экземпляр.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create сохраняет новую жалобу в статусе pending.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (reporter_id, reported_id, book_id, book_type, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, create_time
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		report.ReporterID,
		report.ReportedID,
		report.BookID,
		report.BookType,
		report.Reason,
		report.Status,
	).Scan(&report.ID, &report.CreateTime); err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}
	return nil
}

// GetByID возвращает жалобу по идентификатору.
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return common.GetByID[models.Report](ctx, r.db, "reports", id, ErrReportNotFound)
}

// UpdateDecision записывает вердикт по жалобе. Условие по текущему статусу
// входит в UPDATE, поэтому повторная обработка возвращает false и не
// изменяет состояние.
func (r *ReportRepository) UpdateDecision(ctx context.Context, report *models.Report, expectedStatus string) (bool, error) {
	query := `
		UPDATE reports
		SET status = $1, result = $2, handler_id = $3, opinion = $4, diff_score = $5, handle_time = $6
		WHERE id = $7 AND status = $8
	`
	result, err := r.db.ExecContext(
		ctx,
		query,
		report.Status,
		report.Result,
		report.HandlerID,
		report.Opinion,
		report.DiffScore,
		report.HandleTime,
		report.ID,
		expectedStatus,
	)
	if err != nil {
		return false, fmt.Errorf("report repository: update decision %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("report repository: rows affected %w", err)
	}
	return affected > 0, nil
}

// ListByStatus возвращает страницу жалоб с заданным статусом.
func (r *ReportRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Report, int, error) {
	var reports []models.Report
	query := `
		SELECT * FROM reports
		WHERE status = $1
		ORDER BY create_time DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &reports, query, status, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("report repository: list by status %w", err)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM reports WHERE status = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, status); err != nil {
		return nil, 0, fmt.Errorf("report repository: count by status %w", err)
	}

	return reports, total, nil
}
