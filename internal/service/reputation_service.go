package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campusbooks/bookcycle-backend/internal/cache"
	"github.com/campusbooks/bookcycle-backend/internal/logger"
	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/pkg/apperror"
	"github.com/campusbooks/bookcycle-backend/internal/repository"
	"github.com/campusbooks/bookcycle-backend/internal/validation"
)

// Срок кэширования снимков студента и рейтинга.
const studentCacheTTL = 24 * time.Hour

// StudentStore описывает взаимодействие сервиса с хранилищем студентов.
type StudentStore interface {
	GetByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	UpdateScoreStatus(ctx context.Context, studentID string, score int, status string) error
	InsertReputationEvent(ctx context.Context, event *models.ReputationEvent) error
	ListReputationEvents(ctx context.Context, studentID string, limit, offset int) ([]models.ReputationEvent, error)
}

// TokenRevoker описывает минимальный контракт отзыва сессий.
type TokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string, ttl time.Duration) (int, error)
}

// ReputationService владеет рейтингом доверия студентов: ограниченные
// списания/начисления, автоматическая блокировка при падении ниже порога
// и разблокировка при восстановлении. Блокировка действует немедленно во
// всей системе: до возврата из suspend отзываются все живые сессии.
type ReputationService struct {
	students StudentStore
	tokens   TokenRevoker
	cache    cache.Cache

	// Корректировки одного студента сериализуются, чтобы не терять
	// обновления при конкурирующих жалобах; разные студенты идут параллельно.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReputationService создаёт сервис рейтинга.
func NewReputationService(students StudentStore, tokens TokenRevoker, c cache.Cache) *ReputationService {
	return &ReputationService{
		students: students,
		tokens:   tokens,
		cache:    c,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor возвращает мьютекс для конкретного студента.
func (s *ReputationService) lockFor(studentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[studentID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[studentID] = m
	}
	return m
}

// Deduct списывает баллы рейтинга. Результат не опускается ниже нуля.
// При падении ниже порога аккаунт блокируется на три месяца.
func (s *ReputationService) Deduct(ctx context.Context, studentID string, points int, reason string) (int, error) {
	if err := validation.ValidatePoints(points); err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	lock := s.lockFor(studentID)
	lock.Lock()
	defer lock.Unlock()

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}

	newScore := student.ReputationScore - points
	if newScore < models.MinReputation {
		newScore = models.MinReputation
	}

	if err := s.persistScore(ctx, student, newScore, models.ReputationOpDeduct, -points, reason); err != nil {
		return 0, err
	}

	if newScore < models.SuspendThreshold && !student.Suspended() {
		until := time.Now().AddDate(0, models.SuspensionMonths, 0)
		if err := s.suspendLocked(ctx, student, until, "рейтинг доверия ниже порога"); err != nil {
			return newScore, err
		}
	}

	return newScore, nil
}

// Increase начисляет баллы рейтинга. Результат не поднимается выше 100.
// При восстановлении до порога заблокированный аккаунт разблокируется.
func (s *ReputationService) Increase(ctx context.Context, studentID string, points int, reason string) (int, error) {
	if err := validation.ValidatePoints(points); err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	lock := s.lockFor(studentID)
	lock.Lock()
	defer lock.Unlock()

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}

	newScore := student.ReputationScore + points
	if newScore > models.MaxReputation {
		newScore = models.MaxReputation
	}

	if err := s.persistScore(ctx, student, newScore, models.ReputationOpIncrease, points, reason); err != nil {
		return 0, err
	}

	if newScore >= models.SuspendThreshold && student.Suspended() {
		if err := s.reinstateLocked(ctx, student); err != nil {
			return newScore, err
		}
	}

	return newScore, nil
}

// Suspend блокирует аккаунт до указанного времени и немедленно отзывает
// все живые сессии пользователя.
func (s *ReputationService) Suspend(ctx context.Context, studentID string, until time.Time, reason string) error {
	lock := s.lockFor(studentID)
	lock.Lock()
	defer lock.Unlock()

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if student.Suspended() {
		return nil
	}
	return s.suspendLocked(ctx, student, until, reason)
}

// Reinstate снимает блокировку. Отозванные сессии не восстанавливаются -
// аккаунту нужно пройти аутентификацию заново.
func (s *ReputationService) Reinstate(ctx context.Context, studentID string) error {
	lock := s.lockFor(studentID)
	lock.Lock()
	defer lock.Unlock()

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if !student.Suspended() {
		return nil
	}
	return s.reinstateLocked(ctx, student)
}

// Score возвращает текущий рейтинг студента. Чтение идёт через кэш;
// промах или сбой кэша уводит в хранилище.
func (s *ReputationService) Score(ctx context.Context, studentID string) (int, error) {
	cached, err := s.cache.Get(ctx, cache.ReputationKey(studentID))
	if err == nil {
		if score, parseErr := strconv.Atoi(cached); parseErr == nil {
			return score, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Log.WithError(err).Warn("reputation service: сбой чтения кэша рейтинга")
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}

	s.cacheScore(ctx, studentID, student.ReputationScore)
	return student.ReputationScore, nil
}

// IsSuspended сообщает, заблокирован ли аккаунт. Сначала проверяется
// запись о блокировке в кэше (её TTL совпадает со сроком), затем статус
// в хранилище.
func (s *ReputationService) IsSuspended(ctx context.Context, studentID string) (bool, error) {
	banned, err := s.cache.Has(ctx, cache.BanKey(studentID))
	if err != nil {
		logger.Log.WithError(err).Warn("reputation service: сбой чтения записи о блокировке")
	} else if banned {
		return true, nil
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return false, err
	}
	return student.Suspended(), nil
}

// History возвращает страницу аудита изменений рейтинга.
func (s *ReputationService) History(ctx context.Context, studentID string, limit, offset int) ([]models.ReputationEvent, error) {
	events, err := s.students.ListReputationEvents(ctx, studentID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return events, nil
}

// loadStudent читает студента из хранилища истины.
func (s *ReputationService) loadStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.students.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return nil, apperror.ErrStudentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return student, nil
}

// persistScore записывает новый рейтинг в хранилище, аудит и кэш.
// В кэш уходит свежий неизменяемый снимок, а не мутировавший оригинал.
func (s *ReputationService) persistScore(ctx context.Context, student *models.Student, newScore int, operation string, delta int, reason string) error {
	if err := s.students.UpdateScoreStatus(ctx, student.StudentID, newScore, student.Status); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	student.ReputationScore = newScore

	event := &models.ReputationEvent{
		StudentID: student.StudentID,
		Operation: operation,
		Delta:     delta,
		Score:     newScore,
		Reason:    reason,
	}
	if err := s.students.InsertReputationEvent(ctx, event); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	s.cacheScore(ctx, student.StudentID, newScore)
	s.cacheSnapshot(ctx, student)

	logger.Log.WithFields(logrus.Fields{
		"student_id": student.StudentID,
		"operation":  operation,
		"delta":      delta,
		"score":      newScore,
	}).Info("reputation service: рейтинг обновлён")

	return nil
}

// suspendLocked выполняет блокировку. Вызывается только под мьютексом студента.
func (s *ReputationService) suspendLocked(ctx context.Context, student *models.Student, until time.Time, reason string) error {
	if err := s.students.UpdateScoreStatus(ctx, student.StudentID, student.ReputationScore, models.StudentStatusSuspended); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	student.Status = models.StudentStatusSuspended

	banTTL := time.Until(until)
	if err := s.cache.SetWithExpire(ctx, cache.BanKey(student.StudentID), reason, banTTL); err != nil {
		logger.Log.WithError(err).Warn("reputation service: не удалось записать блокировку в кэш")
	}
	s.cacheSnapshot(ctx, student)

	// Блокировка должна действовать немедленно, а не при следующем
	// истечении токена: отзываем все живые сессии до возврата.
	if _, err := s.tokens.RevokeAllForUser(ctx, student.UserID, "аккаунт заблокирован: "+reason, banTTL); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"student_id": student.StudentID,
		"until":      until,
		"reason":     reason,
	}).Info("reputation service: аккаунт заблокирован")

	return nil
}

// reinstateLocked снимает блокировку. Вызывается только под мьютексом студента.
func (s *ReputationService) reinstateLocked(ctx context.Context, student *models.Student) error {
	if err := s.students.UpdateScoreStatus(ctx, student.StudentID, student.ReputationScore, models.StudentStatusActive); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	student.Status = models.StudentStatusActive

	if err := s.cache.Delete(ctx, cache.BanKey(student.StudentID)); err != nil {
		logger.Log.WithError(err).Warn("reputation service: не удалось удалить запись о блокировке")
	}
	s.cacheSnapshot(ctx, student)

	logger.Log.WithField("student_id", student.StudentID).Info("reputation service: аккаунт разблокирован")
	return nil
}

// cacheScore обновляет кэш рейтинга. Сбой кэша не валит операцию.
func (s *ReputationService) cacheScore(ctx context.Context, studentID string, score int) {
	if err := s.cache.SetWithExpire(ctx, cache.ReputationKey(studentID), strconv.Itoa(score), studentCacheTTL); err != nil {
		logger.Log.WithError(err).Warn("reputation service: не удалось обновить кэш рейтинга")
	}
}

// cacheSnapshot кладёт в кэш свежий снимок студента.
func (s *ReputationService) cacheSnapshot(ctx context.Context, student *models.Student) {
	snapshot := *student
	data, err := json.Marshal(&snapshot)
	if err != nil {
		logger.Log.WithError(err).Warn(fmt.Sprintf("reputation service: не удалось сериализовать снимок студента %s", student.StudentID))
		return
	}
	if err := s.cache.SetWithExpire(ctx, cache.StudentKey(student.StudentID), string(data), studentCacheTTL); err != nil {
		logger.Log.WithError(err).Warn("reputation service: не удалось обновить снимок студента")
	}
}
