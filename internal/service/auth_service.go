package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusbooks/bookcycle-backend/internal/logger"
	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/pkg/apperror"
	"github.com/campusbooks/bookcycle-backend/internal/repository"
	"github.com/campusbooks/bookcycle-backend/internal/validation"
)

// UserStore описывает доступ к учётным записям.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// StudentProfileStore описывает создание, чтение и обновление профилей
// студентов.
type StudentProfileStore interface {
	Create(ctx context.Context, student *models.Student) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Student, error)
	SetFirstLogin(ctx context.Context, studentID string, firstLogin bool) error
	UpdateProfile(ctx context.Context, student *models.Student) error
	InsertReputationEvent(ctx context.Context, event *models.ReputationEvent) error
}

// CollectorProfileStore описывает создание, чтение и обновление профилей
// сборщиков.
type CollectorProfileStore interface {
	Create(ctx context.Context, collector *models.Collector) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Collector, error)
	UpdateContact(ctx context.Context, collector *models.Collector) error
}

// SessionIssuer описывает выпуск и отзыв сессионных токенов.
type SessionIssuer interface {
	Issue(ctx context.Context, claims TokenClaims) (string, error)
	Refresh(ctx context.Context, oldToken string) (string, error)
	Logout(ctx context.Context, token string) error
}

// RegisterStudentInput - данные регистрации студента.
type RegisterStudentInput struct {
	Username  string
	Password  string
	StudentID string
	Campus    string
	Phone     string
	Dormitory string
}

// RegisterCollectorInput - данные регистрации сборщика.
type RegisterCollectorInput struct {
	Username      string
	Password      string
	CollectorID   string
	RealName      string
	Phone         string
	Campus        string
	PaymentMethod string
}

// AuthResult - итог успешной аутентификации.
type AuthResult struct {
	User       *models.User `json:"user"`
	Token      string       `json:"token"`
	FirstLogin bool         `json:"first_login"`
}

// AuthService отвечает за регистрацию, вход и жизненный цикл сессий.
type AuthService struct {
	users      UserStore
	students   StudentProfileStore
	collectors CollectorProfileStore
	tokens     SessionIssuer
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users UserStore, students StudentProfileStore, collectors CollectorProfileStore, tokens SessionIssuer) *AuthService {
	return &AuthService{
		users:      users,
		students:   students,
		collectors: collectors,
		tokens:     tokens,
	}
}

// RegisterStudent создаёт учётную запись и профиль студента. Новый
// студент получает максимальный рейтинг доверия.
func (s *AuthService) RegisterStudent(ctx context.Context, input RegisterStudentInput) (*AuthResult, error) {
	if err := s.validateCredentials(input.Username, input.Password); err != nil {
		return nil, err
	}
	if err := validation.ValidateStudentID(input.StudentID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("кампус", input.Campus, 1, validation.MaxCampusLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.createUser(ctx, input.Username, input.Password, models.RoleStudent)
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		StudentID:       input.StudentID,
		UserID:          user.ID,
		Campus:          input.Campus,
		ReputationScore: models.MaxReputation,
		Status:          models.StudentStatusActive,
		FirstLogin:      true,
	}
	if input.Phone != "" {
		student.Phone = &input.Phone
	}
	if input.Dormitory != "" {
		student.Dormitory = &input.Dormitory
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	event := &models.ReputationEvent{
		StudentID: student.StudentID,
		Operation: models.ReputationOpInit,
		Delta:     models.MaxReputation,
		Score:     models.MaxReputation,
		Reason:    "регистрация",
	}
	if err := s.students.InsertReputationEvent(ctx, event); err != nil {
		logger.Log.WithError(err).Warn("auth service: не удалось записать стартовое событие рейтинга")
	}

	token, err := s.tokens.Issue(ctx, TokenClaims{UserID: user.ID, Username: user.Username, Roles: user.Role})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"student_id": student.StudentID,
	}).Info("auth service: студент зарегистрирован")

	return &AuthResult{User: user, Token: token, FirstLogin: true}, nil
}

// RegisterCollector создаёт учётную запись и профиль сборщика.
func (s *AuthService) RegisterCollector(ctx context.Context, input RegisterCollectorInput) (*AuthResult, error) {
	if err := s.validateCredentials(input.Username, input.Password); err != nil {
		return nil, err
	}
	if err := validation.ValidateStudentID(input.CollectorID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if input.RealName == "" || input.Phone == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "имя и телефон обязательны")
	}

	user, err := s.createUser(ctx, input.Username, input.Password, models.RoleCollector)
	if err != nil {
		return nil, err
	}

	collector := &models.Collector{
		CollectorID:   input.CollectorID,
		UserID:        user.ID,
		RealName:      input.RealName,
		Phone:         input.Phone,
		Campus:        input.Campus,
		PaymentMethod: input.PaymentMethod,
	}
	if err := s.collectors.Create(ctx, collector); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	token, err := s.tokens.Issue(ctx, TokenClaims{UserID: user.ID, Username: user.Username, Roles: user.Role})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":      user.ID,
		"collector_id": collector.CollectorID,
	}).Info("auth service: сборщик зарегистрирован")

	return &AuthResult{User: user, Token: token}, nil
}

// Login проверяет учётные данные и выпускает токен. Заблокированный
// студент внутрь не попадает.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	result := &AuthResult{User: user}

	if user.Role == models.RoleStudent {
		student, err := s.students.GetByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, repository.ErrStudentNotFound) {
				return nil, apperror.ErrStudentNotFound
			}
			return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
		}
		if student.Suspended() {
			return nil, apperror.ErrAccountSuspended
		}
		result.FirstLogin = student.FirstLogin
		if student.FirstLogin {
			if err := s.students.SetFirstLogin(ctx, student.StudentID, false); err != nil {
				logger.Log.WithError(err).Warn("auth service: не удалось сбросить флаг первого входа")
			}
		}
	}

	token, err := s.tokens.Issue(ctx, TokenClaims{UserID: user.ID, Username: user.Username, Roles: user.Role})
	if err != nil {
		return nil, err
	}
	result.Token = token

	logger.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("auth service: вход выполнен")

	return result, nil
}

// EnsureAdmin создаёт учётную запись администратора, если её ещё нет.
// Вызывается на старте; учётные данные приходят из окружения.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	if err := s.validateCredentials(username, password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захэшировать пароль")
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	logger.Log.WithField("username", username).Info("auth service: создана учётная запись администратора")
	return nil
}

// Refresh обновляет сессионный токен.
func (s *AuthService) Refresh(ctx context.Context, token string) (string, error) {
	return s.tokens.Refresh(ctx, token)
}

// Logout завершает сессию.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.tokens.Logout(ctx, token)
}

func (s *AuthService) validateCredentials(username, password string) error {
	if err := validation.ValidateLength("логин", username, validation.MinUsernameLength, validation.MaxUsernameLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return nil
}

func (s *AuthService) createUser(ctx context.Context, username, password, role string) (*models.User, error) {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "логин уже занят")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захэшировать пароль")
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return user, nil
}
