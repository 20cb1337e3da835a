package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/pkg/apperror"
)

type mockReportStore struct {
	mock.Mock
}

func (m *mockReportStore) Create(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	if args.Error(0) == nil {
		report.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReportStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *mockReportStore) UpdateDecision(ctx context.Context, report *models.Report, expectedStatus string) (bool, error) {
	args := m.Called(ctx, report, expectedStatus)
	return args.Bool(0), args.Error(1)
}

func (m *mockReportStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Report, int, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Report), args.Int(1), args.Error(2)
}

type mockReputation struct {
	mock.Mock
}

func (m *mockReputation) Deduct(ctx context.Context, studentID string, points int, reason string) (int, error) {
	args := m.Called(ctx, studentID, points, reason)
	return args.Int(0), args.Error(1)
}

func (m *mockReputation) Increase(ctx context.Context, studentID string, points int, reason string) (int, error) {
	args := m.Called(ctx, studentID, points, reason)
	return args.Int(0), args.Error(1)
}

func pendingReport(id uuid.UUID) *models.Report {
	return &models.Report{
		ID:         id,
		ReporterID: "20230001",
		ReportedID: "20230002",
		BookID:     uuid.New(),
		BookType:   models.BookTypeSealed,
		Reason:     "книга не соответствует описанию",
		Status:     models.ReportStatusPending,
	}
}

func TestReportService_Submit(t *testing.T) {
	reports := new(mockReportStore)
	reputation := new(mockReputation)
	svc := NewReportService(reports, reputation)
	ctx := context.Background()

	reports.On("Create", ctx, mock.AnythingOfType("*models.Report")).Return(nil)

	report, err := svc.Submit(ctx, SubmitReportInput{
		ReporterID: "20230001",
		ReportedID: "20230002",
		BookID:     uuid.New(),
		BookType:   models.BookTypeSealed,
		Reason:     "книга не соответствует описанию",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, report.Status)
}

func TestReportService_Submit_SelfReport(t *testing.T) {
	svc := NewReportService(new(mockReportStore), new(mockReputation))

	_, err := svc.Submit(context.Background(), SubmitReportInput{
		ReporterID: "20230001",
		ReportedID: "20230001",
		BookID:     uuid.New(),
		BookType:   models.BookTypeSealed,
		Reason:     "книга не соответствует описанию",
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestReportService_Handle_ValidWithDeduction(t *testing.T) {
	reports := new(mockReportStore)
	reputation := new(mockReputation)
	svc := NewReportService(reports, reputation)
	ctx := context.Background()

	reportID := uuid.New()
	handlerID := uuid.New()
	reports.On("GetByID", ctx, reportID).Return(pendingReport(reportID), nil)
	reports.On("UpdateDecision", ctx, mock.AnythingOfType("*models.Report"), models.ReportStatusPending).Return(true, nil)
	reputation.On("Deduct", ctx, "20230002", 15, mock.AnythingOfType("string")).Return(55, nil)

	report, err := svc.Handle(ctx, HandleReportInput{
		ReportID:     reportID,
		Result:       models.ReportResultValid,
		HandlerID:    handlerID,
		Opinion:      "жалоба обоснована",
		DeductCredit: true,
		DiffScore:    15,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusProcessed, report.Status)
	require.NotNil(t, report.DiffScore)
	assert.Equal(t, 15, *report.DiffScore)
	reputation.AssertExpectations(t)
}

func TestReportService_Handle_InvalidNoDeduction(t *testing.T) {
	reports := new(mockReportStore)
	reputation := new(mockReputation)
	svc := NewReportService(reports, reputation)
	ctx := context.Background()

	reportID := uuid.New()
	reports.On("GetByID", ctx, reportID).Return(pendingReport(reportID), nil)
	reports.On("UpdateDecision", ctx, mock.AnythingOfType("*models.Report"), models.ReportStatusPending).Return(true, nil)

	report, err := svc.Handle(ctx, HandleReportInput{
		ReportID:  reportID,
		Result:    models.ReportResultInvalid,
		HandlerID: uuid.New(),
		Opinion:   "жалоба не подтвердилась",
		// DeductCredit выставлен, но для invalid штраф не списывается.
		DeductCredit: true,
		DiffScore:    15,
	})
	require.NoError(t, err)
	assert.Nil(t, report.DiffScore)
	reputation.AssertNotCalled(t, "Deduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportService_Handle_AlreadyProcessed(t *testing.T) {
	reports := new(mockReportStore)
	reputation := new(mockReputation)
	svc := NewReportService(reports, reputation)
	ctx := context.Background()

	reportID := uuid.New()
	processed := pendingReport(reportID)
	processed.Status = models.ReportStatusProcessed
	reports.On("GetByID", ctx, reportID).Return(processed, nil)

	_, err := svc.Handle(ctx, HandleReportInput{
		ReportID:  reportID,
		Result:    models.ReportResultValid,
		HandlerID: uuid.New(),
	})
	assert.True(t, apperror.IsInvalidState(err))
	reports.AssertNotCalled(t, "UpdateDecision", mock.Anything, mock.Anything, mock.Anything)
	reputation.AssertNotCalled(t, "Deduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportService_Handle_LostRace(t *testing.T) {
	reports := new(mockReportStore)
	reputation := new(mockReputation)
	svc := NewReportService(reports, reputation)
	ctx := context.Background()

	reportID := uuid.New()
	reports.On("GetByID", ctx, reportID).Return(pendingReport(reportID), nil)
	// Конкурирующий администратор обработал жалобу между чтением и UPDATE.
	reports.On("UpdateDecision", ctx, mock.AnythingOfType("*models.Report"), models.ReportStatusPending).Return(false, nil)

	_, err := svc.Handle(ctx, HandleReportInput{
		ReportID:     reportID,
		Result:       models.ReportResultValid,
		HandlerID:    uuid.New(),
		DeductCredit: true,
		DiffScore:    10,
	})
	assert.True(t, apperror.IsInvalidState(err))
	reputation.AssertNotCalled(t, "Deduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportService_BatchHandle_PerItemOutcomes(t *testing.T) {
	reports := new(mockReportStore)
	reputation := new(mockReputation)
	svc := NewReportService(reports, reputation)
	ctx := context.Background()

	okID := uuid.New()
	staleID := uuid.New()

	stale := pendingReport(staleID)
	stale.Status = models.ReportStatusProcessed

	reports.On("GetByID", ctx, okID).Return(pendingReport(okID), nil)
	reports.On("GetByID", ctx, staleID).Return(stale, nil)
	reports.On("UpdateDecision", ctx, mock.AnythingOfType("*models.Report"), models.ReportStatusPending).Return(true, nil)
	reputation.On("Deduct", ctx, "20230002", models.DefaultReportPenalty, mock.AnythingOfType("string")).Return(90, nil)

	outcomes, err := svc.BatchHandle(ctx, []uuid.UUID{okID, staleID}, models.ReportResultValid, uuid.New(), "пакетная обработка", true)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.True(t, outcomes[0].OK)
	assert.Equal(t, okID, outcomes[0].ReportID)
	assert.False(t, outcomes[1].OK)
	assert.NotEmpty(t, outcomes[1].Reason)
}

func TestReportService_Revert_RestoresPoints(t *testing.T) {
	reports := new(mockReportStore)
	reputation := new(mockReputation)
	svc := NewReportService(reports, reputation)
	ctx := context.Background()

	reportID := uuid.New()
	result := models.ReportResultValid
	diff := 10
	processed := pendingReport(reportID)
	processed.Status = models.ReportStatusProcessed
	processed.Result = &result
	processed.DiffScore = &diff

	reports.On("GetByID", ctx, reportID).Return(processed, nil)
	reports.On("UpdateDecision", ctx, mock.AnythingOfType("*models.Report"), models.ReportStatusProcessed).Return(true, nil)
	reputation.On("Increase", ctx, "20230002", 10, mock.AnythingOfType("string")).Return(100, nil)

	report, err := svc.Revert(ctx, reportID, uuid.New(), "жалоба отозвана")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusCancelled, report.Status)
	reputation.AssertExpectations(t)
}

func TestReportService_Revert_OnlyProcessedValid(t *testing.T) {
	reports := new(mockReportStore)
	reputation := new(mockReputation)
	svc := NewReportService(reports, reputation)
	ctx := context.Background()

	reportID := uuid.New()
	reports.On("GetByID", ctx, reportID).Return(pendingReport(reportID), nil)

	_, err := svc.Revert(ctx, reportID, uuid.New(), "")
	assert.True(t, apperror.IsInvalidState(err))
	reputation.AssertNotCalled(t, "Increase", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
