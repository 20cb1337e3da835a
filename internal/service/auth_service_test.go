package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusbooks/bookcycle-backend/internal/cache"
	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/pkg/apperror"
	"github.com/campusbooks/bookcycle-backend/internal/repository"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockStudentProfiles struct {
	mock.Mock
}

func (m *mockStudentProfiles) Create(ctx context.Context, student *models.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *mockStudentProfiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Student, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *mockStudentProfiles) SetFirstLogin(ctx context.Context, studentID string, firstLogin bool) error {
	args := m.Called(ctx, studentID, firstLogin)
	return args.Error(0)
}

func (m *mockStudentProfiles) UpdateProfile(ctx context.Context, student *models.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *mockStudentProfiles) InsertReputationEvent(ctx context.Context, event *models.ReputationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type mockCollectorProfiles struct {
	mock.Mock
}

func (m *mockCollectorProfiles) Create(ctx context.Context, collector *models.Collector) error {
	args := m.Called(ctx, collector)
	return args.Error(0)
}

func (m *mockCollectorProfiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Collector, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collector), args.Error(1)
}

func (m *mockCollectorProfiles) UpdateContact(ctx context.Context, collector *models.Collector) error {
	args := m.Called(ctx, collector)
	return args.Error(0)
}

func newAuthService(users *mockUserStore, students *mockStudentProfiles, collectors *mockCollectorProfiles) *AuthService {
	tokens := NewTokenService(cache.NewMemory(), "test-secret", time.Hour)
	return NewAuthService(users, students, collectors, tokens)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_RegisterStudent(t *testing.T) {
	users := new(mockUserStore)
	students := new(mockStudentProfiles)
	svc := newAuthService(users, students, new(mockCollectorProfiles))
	ctx := context.Background()

	users.On("GetByUsername", ctx, "ivan").Return(nil, repository.ErrUserNotFound)
	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	students.On("Create", ctx, mock.MatchedBy(func(s *models.Student) bool {
		return s.ReputationScore == models.MaxReputation && s.Status == models.StudentStatusActive
	})).Return(nil)
	students.On("InsertReputationEvent", ctx, mock.AnythingOfType("*models.ReputationEvent")).Return(nil)

	result, err := svc.RegisterStudent(ctx, RegisterStudentInput{
		Username:  "ivan",
		Password:  "secret123",
		StudentID: "20230001",
		Campus:    "Северный",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.FirstLogin)
	assert.Equal(t, models.RoleStudent, result.User.Role)
}

func TestAuthService_RegisterStudent_ShortPassword(t *testing.T) {
	users := new(mockUserStore)
	svc := newAuthService(users, new(mockStudentProfiles), new(mockCollectorProfiles))

	_, err := svc.RegisterStudent(context.Background(), RegisterStudentInput{
		Username:  "ivan",
		Password:  "123",
		StudentID: "20230001",
		Campus:    "Северный",
	})
	assert.True(t, apperror.IsValidation(err))
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterStudent_UsernameTaken(t *testing.T) {
	users := new(mockUserStore)
	svc := newAuthService(users, new(mockStudentProfiles), new(mockCollectorProfiles))
	ctx := context.Background()

	users.On("GetByUsername", ctx, "ivan").Return(&models.User{ID: uuid.New(), Username: "ivan"}, nil)

	_, err := svc.RegisterStudent(ctx, RegisterStudentInput{
		Username:  "ivan",
		Password:  "secret123",
		StudentID: "20230001",
		Campus:    "Северный",
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestAuthService_Login_Student(t *testing.T) {
	users := new(mockUserStore)
	students := new(mockStudentProfiles)
	svc := newAuthService(users, students, new(mockCollectorProfiles))
	ctx := context.Background()

	user := &models.User{
		ID:           uuid.New(),
		Username:     "ivan",
		PasswordHash: hashPassword(t, "secret123"),
		Role:         models.RoleStudent,
	}
	users.On("GetByUsername", ctx, "ivan").Return(user, nil)
	students.On("GetByUserID", ctx, user.ID).Return(&models.Student{
		StudentID:       "20230001",
		UserID:          user.ID,
		ReputationScore: 100,
		Status:          models.StudentStatusActive,
		FirstLogin:      true,
	}, nil)
	students.On("SetFirstLogin", ctx, "20230001", false).Return(nil)

	result, err := svc.Login(ctx, "ivan", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.FirstLogin)
	students.AssertCalled(t, "SetFirstLogin", ctx, "20230001", false)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	users := new(mockUserStore)
	svc := newAuthService(users, new(mockStudentProfiles), new(mockCollectorProfiles))
	ctx := context.Background()

	user := &models.User{
		ID:           uuid.New(),
		Username:     "ivan",
		PasswordHash: hashPassword(t, "secret123"),
		Role:         models.RoleStudent,
	}
	users.On("GetByUsername", ctx, "ivan").Return(user, nil)

	_, err := svc.Login(ctx, "ivan", "wrong-password")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	users := new(mockUserStore)
	svc := newAuthService(users, new(mockStudentProfiles), new(mockCollectorProfiles))
	ctx := context.Background()

	users.On("GetByUsername", ctx, "ghost").Return(nil, repository.ErrUserNotFound)

	_, err := svc.Login(ctx, "ghost", "secret123")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_EnsureAdmin_CreatesWhenMissing(t *testing.T) {
	users := new(mockUserStore)
	svc := newAuthService(users, new(mockStudentProfiles), new(mockCollectorProfiles))
	ctx := context.Background()

	users.On("GetByUsername", ctx, "admin").Return(nil, repository.ErrUserNotFound)
	users.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "admin" && u.Role == models.RoleAdmin
	})).Return(nil)

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin-secret"))
	users.AssertExpectations(t)
}

func TestAuthService_EnsureAdmin_Idempotent(t *testing.T) {
	users := new(mockUserStore)
	svc := newAuthService(users, new(mockStudentProfiles), new(mockCollectorProfiles))
	ctx := context.Background()

	users.On("GetByUsername", ctx, "admin").Return(&models.User{
		ID:       uuid.New(),
		Username: "admin",
		Role:     models.RoleAdmin,
	}, nil)

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin-secret"))
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login_SuspendedStudent(t *testing.T) {
	users := new(mockUserStore)
	students := new(mockStudentProfiles)
	svc := newAuthService(users, students, new(mockCollectorProfiles))
	ctx := context.Background()

	user := &models.User{
		ID:           uuid.New(),
		Username:     "ivan",
		PasswordHash: hashPassword(t, "secret123"),
		Role:         models.RoleStudent,
	}
	users.On("GetByUsername", ctx, "ivan").Return(user, nil)
	students.On("GetByUserID", ctx, user.ID).Return(&models.Student{
		StudentID:       "20230001",
		UserID:          user.ID,
		ReputationScore: 40,
		Status:          models.StudentStatusSuspended,
	}, nil)

	_, err := svc.Login(ctx, "ivan", "secret123")
	assert.ErrorIs(t, err, apperror.ErrAccountSuspended)
}
