package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/campusbooks/bookcycle-backend/internal/cache"
	"github.com/campusbooks/bookcycle-backend/internal/logger"
	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/pkg/apperror"
	"github.com/campusbooks/bookcycle-backend/internal/repository"
	"github.com/campusbooks/bookcycle-backend/internal/validation"
)

// UpdateStudentProfileInput - изменяемые поля профиля студента.
// Пустое поле оставляет текущее значение.
type UpdateStudentProfileInput struct {
	Phone         string
	Campus        string
	Dormitory     string
	PaymentMethod string
}

// UpdateCollectorContactInput - изменяемые контактные данные сборщика.
// Пустое поле оставляет текущее значение.
type UpdateCollectorContactInput struct {
	Phone         string
	Campus        string
	PaymentMethod string
}

// ProfileDirectory находит и обновляет профили по идентификатору учётной
// записи. Используется middleware для привязки запроса к студенту или
// сборщику и хендлерами личного кабинета.
type ProfileDirectory struct {
	students   StudentProfileStore
	collectors CollectorProfileStore
	cache      cache.Cache
}

// NewProfileDirectory создаёт справочник профилей.
func NewProfileDirectory(students StudentProfileStore, collectors CollectorProfileStore, c cache.Cache) *ProfileDirectory {
	return &ProfileDirectory{students: students, collectors: collectors, cache: c}
}

// StudentIDByUser возвращает номер студенческого билета по учётной записи.
func (d *ProfileDirectory) StudentIDByUser(ctx context.Context, userID uuid.UUID) (string, error) {
	student, err := d.Student(ctx, userID)
	if err != nil {
		return "", err
	}
	return student.StudentID, nil
}

// CollectorIDByUser возвращает идентификатор сборщика по учётной записи.
func (d *ProfileDirectory) CollectorIDByUser(ctx context.Context, userID uuid.UUID) (string, error) {
	collector, err := d.CollectorByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return collector.CollectorID, nil
}

// Student возвращает полный профиль студента.
func (d *ProfileDirectory) Student(ctx context.Context, userID uuid.UUID) (*models.Student, error) {
	student, err := d.students.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return nil, apperror.ErrStudentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return student, nil
}

// CollectorByUser возвращает полный профиль сборщика.
func (d *ProfileDirectory) CollectorByUser(ctx context.Context, userID uuid.UUID) (*models.Collector, error) {
	collector, err := d.collectors.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCollectorNotFound) {
			return nil, apperror.ErrCollectorNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return collector, nil
}

// UpdateStudentProfile обновляет контактные данные студента. Рейтинг и
// статус этим путём не меняются.
func (d *ProfileDirectory) UpdateStudentProfile(ctx context.Context, userID uuid.UUID, input UpdateStudentProfileInput) (*models.Student, error) {
	if input.Campus != "" {
		if err := validation.ValidateLength("кампус", input.Campus, 1, validation.MaxCampusLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	student, err := d.Student(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Phone != "" {
		phone := input.Phone
		student.Phone = &phone
	}
	if input.Campus != "" {
		student.Campus = input.Campus
	}
	if input.Dormitory != "" {
		dormitory := input.Dormitory
		student.Dormitory = &dormitory
	}
	if input.PaymentMethod != "" {
		method := input.PaymentMethod
		student.PaymentMethod = &method
	}

	if err := d.students.UpdateProfile(ctx, student); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	// Снимок в кэше устарел: сбрасываем, свежий положит следующий читатель.
	if err := d.cache.Delete(ctx, cache.StudentKey(student.StudentID)); err != nil {
		logger.Log.WithError(err).Warn("profile directory: не удалось сбросить снимок студента")
	}

	return student, nil
}

// UpdateCollectorContact обновляет контактные данные сборщика.
func (d *ProfileDirectory) UpdateCollectorContact(ctx context.Context, userID uuid.UUID, input UpdateCollectorContactInput) (*models.Collector, error) {
	if input.Campus != "" {
		if err := validation.ValidateLength("кампус", input.Campus, 1, validation.MaxCampusLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	collector, err := d.CollectorByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Phone != "" {
		collector.Phone = input.Phone
	}
	if input.Campus != "" {
		collector.Campus = input.Campus
	}
	if input.PaymentMethod != "" {
		collector.PaymentMethod = input.PaymentMethod
	}

	if err := d.collectors.UpdateContact(ctx, collector); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	return collector, nil
}
