package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campusbooks/bookcycle-backend/internal/logger"
	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/pkg/apperror"
	"github.com/campusbooks/bookcycle-backend/internal/repository"
	"github.com/campusbooks/bookcycle-backend/internal/validation"
)

// ReportStore описывает взаимодействие сервиса с хранилищем жалоб.
type ReportStore interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	UpdateDecision(ctx context.Context, report *models.Report, expectedStatus string) (bool, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Report, int, error)
}

// ReputationAdjuster описывает корректировки рейтинга, которые нужны
// обработке жалоб.
type ReputationAdjuster interface {
	Deduct(ctx context.Context, studentID string, points int, reason string) (int, error)
	Increase(ctx context.Context, studentID string, points int, reason string) (int, error)
}

// SubmitReportInput - данные новой жалобы.
type SubmitReportInput struct {
	ReporterID string
	ReportedID string
	BookID     uuid.UUID
	BookType   string
	Reason     string
}

// HandleReportInput - вердикт администратора по жалобе.
type HandleReportInput struct {
	ReportID     uuid.UUID
	Result       string
	HandlerID    uuid.UUID
	Opinion      string
	DeductCredit bool
	DiffScore    int
}

// BatchOutcome - результат обработки одной жалобы в пакете.
type BatchOutcome struct {
	ReportID uuid.UUID `json:"report_id"`
	OK       bool      `json:"ok"`
	Reason   string    `json:"reason,omitempty"`
}

// ReportService ведёт жалобы на недостоверные объявления: приём,
// рассмотрение с вердиктом, пакетную обработку и откат вердикта.
type ReportService struct {
	reports    ReportStore
	reputation ReputationAdjuster
}

// NewReportService создаёт сервис жалоб.
func NewReportService(reports ReportStore, reputation ReputationAdjuster) *ReportService {
	return &ReportService{reports: reports, reputation: reputation}
}

// Submit регистрирует новую жалобу в статусе pending.
func (s *ReportService) Submit(ctx context.Context, input SubmitReportInput) (*models.Report, error) {
	if err := validation.ValidateStudentID(input.ReportedID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("причина жалобы", input.Reason, validation.MinReasonLength, validation.MaxReasonLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if input.ReporterID == input.ReportedID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя пожаловаться на самого себя")
	}
	if input.BookType != models.BookTypeSealed && input.BookType != models.BookTypeRecyclable {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип книги")
	}

	report := &models.Report{
		ReporterID: input.ReporterID,
		ReportedID: input.ReportedID,
		BookID:     input.BookID,
		BookType:   input.BookType,
		Reason:     input.Reason,
		Status:     models.ReportStatusPending,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	logger.Log.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"reported_id": report.ReportedID,
	}).Info("report service: жалоба зарегистрирована")

	return report, nil
}

// Get возвращает жалобу по идентификатору.
func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return s.loadReport(ctx, id)
}

// ListByStatus возвращает страницу жалоб с заданным статусом.
func (s *ReportService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Report, int, error) {
	if status != models.ReportStatusPending && status != models.ReportStatusProcessed && status != models.ReportStatusCancelled {
		return nil, 0, apperror.New(apperror.ErrCodeValidation, "некорректный статус жалобы")
	}
	reports, total, err := s.reports.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return reports, total, nil
}

// Handle выносит вердикт по жалобе. Переход pending -> processed условный:
// повторная обработка возвращает конфликт и ничего не меняет. Списание
// рейтинга выполняется только для подтверждённой жалобы и только после
// успешной фиксации вердикта.
func (s *ReportService) Handle(ctx context.Context, input HandleReportInput) (*models.Report, error) {
	if input.Result != models.ReportResultValid && input.Result != models.ReportResultInvalid {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный результат рассмотрения")
	}
	if err := validation.ValidateLength("заключение", input.Opinion, 0, validation.MaxOpinionLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	deduct := input.Result == models.ReportResultValid && input.DeductCredit
	if deduct {
		if err := validation.ValidatePoints(input.DiffScore); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	report, err := s.loadReport(ctx, input.ReportID)
	if err != nil {
		return nil, err
	}
	if report.Status != models.ReportStatusPending {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "жалоба уже рассмотрена")
	}

	now := time.Now()
	report.Status = models.ReportStatusProcessed
	report.Result = &input.Result
	report.HandlerID = &input.HandlerID
	report.Opinion = &input.Opinion
	report.HandleTime = &now
	if deduct {
		diff := input.DiffScore
		report.DiffScore = &diff
	} else {
		report.DiffScore = nil
	}

	ok, err := s.reports.UpdateDecision(ctx, report, models.ReportStatusPending)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	if !ok {
		// Конкурирующий администратор успел первым.
		return nil, apperror.New(apperror.ErrCodeInvalidState, "жалоба уже рассмотрена")
	}

	if deduct {
		if _, err := s.reputation.Deduct(ctx, report.ReportedID, input.DiffScore, "подтверждённая жалоба "+report.ID.String()); err != nil {
			// Вердикт уже зафиксирован; о несписанном штрафе сообщаем наверх.
			return nil, err
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"report_id": report.ID,
		"result":    input.Result,
		"handler":   input.HandlerID,
	}).Info("report service: жалоба рассмотрена")

	return report, nil
}

// BatchHandle обрабатывает пакет жалоб одним вердиктом. Каждая жалоба
// обрабатывается независимо: сбой одной не откатывает остальные, итог
// по каждой возвращается отдельно. Штраф списывается дефолтный.
func (s *ReportService) BatchHandle(ctx context.Context, reportIDs []uuid.UUID, result string, handlerID uuid.UUID, opinion string, deductCredit bool) ([]BatchOutcome, error) {
	if len(reportIDs) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "пустой список жалоб")
	}

	outcomes := make([]BatchOutcome, 0, len(reportIDs))
	for _, id := range reportIDs {
		_, err := s.Handle(ctx, HandleReportInput{
			ReportID:     id,
			Result:       result,
			HandlerID:    handlerID,
			Opinion:      opinion,
			DeductCredit: deductCredit,
			DiffScore:    models.DefaultReportPenalty,
		})
		outcome := BatchOutcome{ReportID: id, OK: err == nil}
		if err != nil {
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				outcome.Reason = appErr.Message
			} else {
				outcome.Reason = err.Error()
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// Revert отменяет вердикт по подтверждённой жалобе и возвращает студенту
// списанные баллы. Откатить можно только processed с результатом valid.
func (s *ReportService) Revert(ctx context.Context, reportID, handlerID uuid.UUID, opinion string) (*models.Report, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status != models.ReportStatusProcessed || report.Result == nil || *report.Result != models.ReportResultValid {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "откатить можно только подтверждённую жалобу")
	}

	restore := 0
	if report.DiffScore != nil {
		restore = *report.DiffScore
	}

	now := time.Now()
	report.Status = models.ReportStatusCancelled
	report.HandlerID = &handlerID
	report.Opinion = &opinion
	report.HandleTime = &now

	ok, err := s.reports.UpdateDecision(ctx, report, models.ReportStatusProcessed)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	if !ok {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "жалоба уже изменена")
	}

	if restore > 0 {
		if _, err := s.reputation.Increase(ctx, report.ReportedID, restore, "откат жалобы "+report.ID.String()); err != nil {
			return nil, err
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"report_id": report.ID,
		"restored":  restore,
	}).Info("report service: вердикт отменён")

	return report, nil
}

func (s *ReportService) loadReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return report, nil
}
