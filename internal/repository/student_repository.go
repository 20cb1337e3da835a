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

var (
	ErrStudentNotFound   = errors.New("student not found")
	ErrCollectorNotFound = errors.New("collector not found")
)

// StudentRepository отвечает за профили студентов и аудит рейтинга.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository создаёт новый экземпляр.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create сохраняет профиль студента.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (student_id, user_id, phone, campus, dormitory, reputation_score, status, payment_method, first_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		student.StudentID,
		student.UserID,
		student.Phone,
		student.Campus,
		student.Dormitory,
		student.ReputationScore,
		student.Status,
		student.PaymentMethod,
		student.FirstLogin,
	).Scan(&student.CreatedAt, &student.UpdatedAt); err != nil {
		return fmt.Errorf("student repository: create %w", err)
	}
	return nil
}

// GetByStudentID возвращает студента по номеру студенческого билета.
func (r *StudentRepository) GetByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	return common.GetByField[models.Student](ctx, r.db, "students", "student_id", studentID, ErrStudentNotFound)
}

// GetByUserID возвращает студента по идентификатору учётной записи.
func (r *StudentRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Student, error) {
	return common.GetByField[models.Student](ctx, r.db, "students", "user_id", userID, ErrStudentNotFound)
}

// UpdateScoreStatus атомарно записывает новый рейтинг и статус аккаунта.
func (r *StudentRepository) UpdateScoreStatus(ctx context.Context, studentID string, score int, status string) error {
	query := `
		UPDATE students
		SET reputation_score = $1, status = $2, updated_at = NOW()
		WHERE student_id = $3
	`
	result, err := r.db.ExecContext(ctx, query, score, status, studentID)
	if err != nil {
		return fmt.Errorf("student repository: update score %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("student repository: rows affected %w", err)
	}
	if affected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// SetFirstLogin переключает флаг первого входа.
func (r *StudentRepository) SetFirstLogin(ctx context.Context, studentID string, firstLogin bool) error {
	query := `UPDATE students SET first_login = $1, updated_at = NOW() WHERE student_id = $2`
	result, err := r.db.ExecContext(ctx, query, firstLogin, studentID)
	if err != nil {
		return fmt.Errorf("student repository: set first login %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("student repository: rows affected %w", err)
	}
	if affected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// UpdateProfile обновляет контактные данные студента.
func (r *StudentRepository) UpdateProfile(ctx context.Context, student *models.Student) error {
	query := `
		UPDATE students
		SET phone = $1, campus = $2, dormitory = $3, payment_method = $4, updated_at = NOW()
		WHERE student_id = $5
	`
	result, err := r.db.ExecContext(ctx, query, student.Phone, student.Campus, student.Dormitory, student.PaymentMethod, student.StudentID)
	if err != nil {
		return fmt.Errorf("student repository: update profile %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("student repository: rows affected %w", err)
	}
	if affected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// InsertReputationEvent сохраняет строку аудита изменения рейтинга.
func (r *StudentRepository) InsertReputationEvent(ctx context.Context, event *models.ReputationEvent) error {
	query := `
		INSERT INTO reputation_events (student_id, operation, delta, score, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, event.StudentID, event.Operation, event.Delta, event.Score, event.Reason).
		Scan(&event.ID, &event.CreatedAt); err != nil {
		return fmt.Errorf("student repository: insert reputation event %w", err)
	}
	return nil
}

// ListReputationEvents возвращает историю изменений рейтинга студента.
func (r *StudentRepository) ListReputationEvents(ctx context.Context, studentID string, limit, offset int) ([]models.ReputationEvent, error) {
	var events []models.ReputationEvent
	query := `
		SELECT id, student_id, operation, delta, score, reason, created_at
		FROM reputation_events
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &events, query, studentID, limit, offset); err != nil {
		return nil, fmt.Errorf("student repository: list reputation events %w", err)
	}
	return events, nil
}
