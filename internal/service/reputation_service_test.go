package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campusbooks/bookcycle-backend/internal/cache"
	"github.com/campusbooks/bookcycle-backend/internal/models"
)

type mockStudentStore struct {
	mock.Mock
}

func (m *mockStudentStore) GetByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *mockStudentStore) UpdateScoreStatus(ctx context.Context, studentID string, score int, status string) error {
	args := m.Called(ctx, studentID, score, status)
	return args.Error(0)
}

func (m *mockStudentStore) InsertReputationEvent(ctx context.Context, event *models.ReputationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockStudentStore) ListReputationEvents(ctx context.Context, studentID string, limit, offset int) ([]models.ReputationEvent, error) {
	args := m.Called(ctx, studentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReputationEvent), args.Error(1)
}

func activeStudent(studentID string, score int) *models.Student {
	return &models.Student{
		StudentID:       studentID,
		UserID:          uuid.New(),
		Campus:          "Северный",
		ReputationScore: score,
		Status:          models.StudentStatusActive,
	}
}

func TestReputationService_Deduct_SuspendsAndRevokesTokens(t *testing.T) {
	store := new(mockStudentStore)
	sessionCache := cache.NewMemory()
	tokens := NewTokenService(sessionCache, "test-secret", time.Hour)
	svc := NewReputationService(store, tokens, sessionCache)
	ctx := context.Background()

	student := activeStudent("20230001", 70)
	token, err := tokens.Issue(ctx, TokenClaims{UserID: student.UserID, Username: "ivan", Roles: "student"})
	require.NoError(t, err)

	store.On("GetByStudentID", ctx, "20230001").Return(student, nil)
	store.On("UpdateScoreStatus", ctx, "20230001", 55, models.StudentStatusActive).Return(nil)
	store.On("UpdateScoreStatus", ctx, "20230001", 55, models.StudentStatusSuspended).Return(nil)
	store.On("InsertReputationEvent", ctx, mock.AnythingOfType("*models.ReputationEvent")).Return(nil)

	score, err := svc.Deduct(ctx, "20230001", 15, "подтверждённая жалоба")
	require.NoError(t, err)
	assert.Equal(t, 55, score)

	store.AssertCalled(t, "UpdateScoreStatus", ctx, "20230001", 55, models.StudentStatusSuspended)

	// Блокировка действует немедленно: живой токен отозван.
	_, err = tokens.Verify(ctx, token)
	assert.Error(t, err)

	suspended, err := svc.IsSuspended(ctx, "20230001")
	require.NoError(t, err)
	assert.True(t, suspended)
}

func TestReputationService_Deduct_AboveThresholdKeepsActive(t *testing.T) {
	store := new(mockStudentStore)
	sessionCache := cache.NewMemory()
	tokens := NewTokenService(sessionCache, "test-secret", time.Hour)
	svc := NewReputationService(store, tokens, sessionCache)
	ctx := context.Background()

	student := activeStudent("20230002", 80)
	store.On("GetByStudentID", ctx, "20230002").Return(student, nil)
	store.On("UpdateScoreStatus", ctx, "20230002", 70, models.StudentStatusActive).Return(nil)
	store.On("InsertReputationEvent", ctx, mock.AnythingOfType("*models.ReputationEvent")).Return(nil)

	score, err := svc.Deduct(ctx, "20230002", 10, "жалоба")
	require.NoError(t, err)
	assert.Equal(t, 70, score)

	store.AssertNotCalled(t, "UpdateScoreStatus", ctx, "20230002", 70, models.StudentStatusSuspended)
}

func TestReputationService_Deduct_ClampsAtZero(t *testing.T) {
	store := new(mockStudentStore)
	sessionCache := cache.NewMemory()
	tokens := NewTokenService(sessionCache, "test-secret", time.Hour)
	svc := NewReputationService(store, tokens, sessionCache)
	ctx := context.Background()

	student := activeStudent("20230003", 5)
	student.Status = models.StudentStatusSuspended

	store.On("GetByStudentID", ctx, "20230003").Return(student, nil)
	store.On("UpdateScoreStatus", ctx, "20230003", 0, models.StudentStatusSuspended).Return(nil)
	store.On("InsertReputationEvent", ctx, mock.AnythingOfType("*models.ReputationEvent")).Return(nil)

	score, err := svc.Deduct(ctx, "20230003", 50, "жалоба")
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestReputationService_Deduct_InvalidPoints(t *testing.T) {
	store := new(mockStudentStore)
	sessionCache := cache.NewMemory()
	svc := NewReputationService(store, NewTokenService(sessionCache, "test-secret", time.Hour), sessionCache)

	_, err := svc.Deduct(context.Background(), "20230004", 0, "жалоба")
	assert.Error(t, err)
	_, err = svc.Deduct(context.Background(), "20230004", -5, "жалоба")
	assert.Error(t, err)
	store.AssertNotCalled(t, "GetByStudentID", mock.Anything, mock.Anything)
}

func TestReputationService_Increase_ClampsAndReinstates(t *testing.T) {
	store := new(mockStudentStore)
	sessionCache := cache.NewMemory()
	tokens := NewTokenService(sessionCache, "test-secret", time.Hour)
	svc := NewReputationService(store, tokens, sessionCache)
	ctx := context.Background()

	student := activeStudent("20230005", 55)
	student.Status = models.StudentStatusSuspended

	store.On("GetByStudentID", ctx, "20230005").Return(student, nil)
	store.On("UpdateScoreStatus", ctx, "20230005", 100, models.StudentStatusSuspended).Return(nil)
	store.On("UpdateScoreStatus", ctx, "20230005", 100, models.StudentStatusActive).Return(nil)
	store.On("InsertReputationEvent", ctx, mock.AnythingOfType("*models.ReputationEvent")).Return(nil)

	score, err := svc.Increase(ctx, "20230005", 60, "откат жалобы")
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	store.AssertCalled(t, "UpdateScoreStatus", ctx, "20230005", 100, models.StudentStatusActive)

	suspended, err := svc.IsSuspended(ctx, "20230005")
	require.NoError(t, err)
	assert.False(t, suspended)
}

func TestReputationService_Score_UsesCache(t *testing.T) {
	store := new(mockStudentStore)
	sessionCache := cache.NewMemory()
	svc := NewReputationService(store, NewTokenService(sessionCache, "test-secret", time.Hour), sessionCache)
	ctx := context.Background()

	student := activeStudent("20230006", 88)
	store.On("GetByStudentID", ctx, "20230006").Return(student, nil).Once()

	score, err := svc.Score(ctx, "20230006")
	require.NoError(t, err)
	assert.Equal(t, 88, score)

	// Второе чтение идёт из кэша, хранилище не трогаем.
	score, err = svc.Score(ctx, "20230006")
	require.NoError(t, err)
	assert.Equal(t, 88, score)
	store.AssertExpectations(t)
}
