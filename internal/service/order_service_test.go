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
	"github.com/campusbooks/bookcycle-backend/internal/pkg/apperror"
	"github.com/campusbooks/bookcycle-backend/internal/repository"
)

type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) Create(ctx context.Context, order *models.CollectOrder) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil {
		order.ID = uuid.New()
		order.CreateTime = time.Now()
	}
	return args.Error(0)
}

func (m *mockOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.CollectOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CollectOrder), args.Error(1)
}

func (m *mockOrderStore) AcceptPending(ctx context.Context, orderID uuid.UUID, collectorID string, at time.Time) (bool, error) {
	args := m.Called(ctx, orderID, collectorID, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderStore) CompleteAccepted(ctx context.Context, order *models.CollectOrder) (bool, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderStore) ListPendingByCampus(ctx context.Context, campus string, limit, offset int) ([]models.CollectOrder, int, error) {
	args := m.Called(ctx, campus, limit, offset)
	return args.Get(0).([]models.CollectOrder), args.Int(1), args.Error(2)
}

func (m *mockOrderStore) ListByCollector(ctx context.Context, collectorID string, limit, offset int) ([]models.CollectOrder, int, error) {
	args := m.Called(ctx, collectorID, limit, offset)
	return args.Get(0).([]models.CollectOrder), args.Int(1), args.Error(2)
}

func (m *mockOrderStore) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]models.CollectOrder, int, error) {
	args := m.Called(ctx, studentID, limit, offset)
	return args.Get(0).([]models.CollectOrder), args.Int(1), args.Error(2)
}

type mockSealedBookStore struct {
	mock.Mock
}

func (m *mockSealedBookStore) CreateBook(ctx context.Context, book *models.Book) error {
	args := m.Called(ctx, book)
	if args.Error(0) == nil {
		book.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockSealedBookStore) CreateSealedBook(ctx context.Context, book *models.SealedBook) error {
	args := m.Called(ctx, book)
	if args.Error(0) == nil {
		book.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockSealedBookStore) GetBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *mockSealedBookStore) GetSealedBookByID(ctx context.Context, id uuid.UUID) (*models.SealedBook, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SealedBook), args.Error(1)
}

func (m *mockSealedBookStore) ListByOwner(ctx context.Context, ownerID string) ([]models.SealedBook, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SealedBook), args.Error(1)
}

func acceptedOrder(orderID uuid.UUID, collectorID string) *models.CollectOrder {
	now := time.Now()
	return &models.CollectOrder{
		ID:           orderID,
		StudentID:    "20230001",
		CollectorID:  &collectorID,
		SealedBookID: uuid.New(),
		Campus:       "Северный",
		Status:       models.OrderStatusAccepted,
		PricePerKg:   models.DefaultPricePerKg,
		CreateTime:   now,
		AcceptTime:   &now,
	}
}

func TestOrderService_CreateFromSealedBook(t *testing.T) {
	orders := new(mockOrderStore)
	books := new(mockSealedBookStore)
	svc := NewOrderService(orders, books, cache.NewMemory())
	ctx := context.Background()

	sealedBookID := uuid.New()
	bookID := uuid.New()
	books.On("GetSealedBookByID", ctx, sealedBookID).Return(&models.SealedBook{ID: sealedBookID, BookID: bookID, Weight: 2.5}, nil)
	books.On("GetBookByID", ctx, bookID).Return(&models.Book{ID: bookID, OwnerID: "20230001", Campus: "Северный"}, nil)
	orders.On("Create", ctx, mock.AnythingOfType("*models.CollectOrder")).Return(nil)

	order, err := svc.CreateFromSealedBook(ctx, "20230001", sealedBookID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.DefaultPricePerKg, order.PricePerKg)
	// Получатель выплаты и кампус взяты из объявления.
	assert.Equal(t, "20230001", order.StudentID)
	assert.Equal(t, "Северный", order.Campus)
}

func TestOrderService_CreateFromSealedBook_ForeignBook(t *testing.T) {
	orders := new(mockOrderStore)
	books := new(mockSealedBookStore)
	svc := NewOrderService(orders, books, cache.NewMemory())
	ctx := context.Background()

	sealedBookID := uuid.New()
	bookID := uuid.New()
	books.On("GetSealedBookByID", ctx, sealedBookID).Return(&models.SealedBook{ID: sealedBookID, BookID: bookID, Weight: 2.5}, nil)
	books.On("GetBookByID", ctx, bookID).Return(&models.Book{ID: bookID, OwnerID: "20230002", Campus: "Южный"}, nil)

	// Чужой студент не может назначить себя получателем выплаты.
	_, err := svc.CreateFromSealedBook(ctx, "20239999", sealedBookID)
	assert.True(t, apperror.IsForbidden(err))
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_CreateFromSealedBook_AlreadyAccepted(t *testing.T) {
	orders := new(mockOrderStore)
	books := new(mockSealedBookStore)
	svc := NewOrderService(orders, books, cache.NewMemory())
	ctx := context.Background()

	sealedBookID := uuid.New()
	books.On("GetSealedBookByID", ctx, sealedBookID).Return(&models.SealedBook{ID: sealedBookID, IsAccepted: true}, nil)

	_, err := svc.CreateFromSealedBook(ctx, "20230001", sealedBookID)
	assert.True(t, apperror.IsInvalidState(err))
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_CreateFromSealedBook_DuplicateOrder(t *testing.T) {
	orders := new(mockOrderStore)
	books := new(mockSealedBookStore)
	svc := NewOrderService(orders, books, cache.NewMemory())
	ctx := context.Background()

	sealedBookID := uuid.New()
	bookID := uuid.New()
	books.On("GetSealedBookByID", ctx, sealedBookID).Return(&models.SealedBook{ID: sealedBookID, BookID: bookID, Weight: 2.5}, nil)
	books.On("GetBookByID", ctx, bookID).Return(&models.Book{ID: bookID, OwnerID: "20230001", Campus: "Северный"}, nil)
	// По книге уже есть живой заказ - уникальный индекс не пропустил вставку.
	orders.On("Create", ctx, mock.AnythingOfType("*models.CollectOrder")).Return(repository.ErrOrderExists)

	_, err := svc.CreateFromSealedBook(ctx, "20230001", sealedBookID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestOrderService_Accept_Winner(t *testing.T) {
	orders := new(mockOrderStore)
	books := new(mockSealedBookStore)
	sessionCache := cache.NewMemory()
	svc := NewOrderService(orders, books, sessionCache)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("AcceptPending", ctx, orderID, "20230100", mock.AnythingOfType("time.Time")).Return(true, nil)
	orders.On("GetByID", ctx, orderID).Return(acceptedOrder(orderID, "20230100"), nil)

	order, err := svc.Accept(ctx, orderID, "20230100")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, order.Status)
	require.NotNil(t, order.CollectorID)
	assert.Equal(t, "20230100", *order.CollectorID)

	// Счётчик заказов сборщика обновлён в кэше и виден через сервис.
	count, err := sessionCache.Get(ctx, cache.CollectorOrdersKey("20230100"))
	require.NoError(t, err)
	assert.Equal(t, "1", count)
	assert.Equal(t, int64(1), svc.AcceptedCounter(ctx, "20230100"))
}

func TestOrderService_AcceptedCounter_MissIsZero(t *testing.T) {
	svc := NewOrderService(new(mockOrderStore), new(mockSealedBookStore), cache.NewMemory())
	assert.Equal(t, int64(0), svc.AcceptedCounter(context.Background(), "20230100"))
}

func TestOrderService_Accept_LostRace(t *testing.T) {
	orders := new(mockOrderStore)
	books := new(mockSealedBookStore)
	svc := NewOrderService(orders, books, cache.NewMemory())
	ctx := context.Background()

	orderID := uuid.New()
	// Заказ существует, но его успел забрать другой сборщик.
	orders.On("AcceptPending", ctx, orderID, "20230101", mock.AnythingOfType("time.Time")).Return(false, nil)
	orders.On("GetByID", ctx, orderID).Return(acceptedOrder(orderID, "20230100"), nil)

	_, err := svc.Accept(ctx, orderID, "20230101")
	assert.True(t, apperror.IsInvalidState(err))
}

func TestOrderService_Accept_OrderNotFound(t *testing.T) {
	orders := new(mockOrderStore)
	books := new(mockSealedBookStore)
	svc := NewOrderService(orders, books, cache.NewMemory())
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("AcceptPending", ctx, orderID, "20230100", mock.AnythingOfType("time.Time")).Return(false, nil)
	orders.On("GetByID", ctx, orderID).Return(nil, repository.ErrOrderNotFound)

	_, err := svc.Accept(ctx, orderID, "20230100")
	assert.True(t, apperror.IsNotFound(err))
}

func TestOrderService_Complete_Settlement(t *testing.T) {
	orders := new(mockOrderStore)
	books := new(mockSealedBookStore)
	svc := NewOrderService(orders, books, cache.NewMemory())
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(acceptedOrder(orderID, "20230100"), nil)
	orders.On("CompleteAccepted", ctx, mock.AnythingOfType("*models.CollectOrder")).Return(true, nil)

	order, settlement, err := svc.Complete(ctx, CompleteOrderInput{
		OrderID:      orderID,
		CollectorID:  "20230100",
		ActualWeight: 5.0,
	})
	require.NoError(t, err)

	// 5 кг по 1.6: выручка 8, комиссия 20% = 1.6, студенту 6.4.
	assert.InDelta(t, 8.0, settlement.Total, 0.001)
	assert.InDelta(t, 1.6, settlement.Commission, 0.001)
	assert.InDelta(t, 6.4, settlement.Student, 0.001)

	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.ActualWeight)
	assert.InDelta(t, 5.0, *order.ActualWeight, 0.001)
}

func TestOrderService_Complete_WrongCollector(t *testing.T) {
	orders := new(mockOrderStore)
	books := new(mockSealedBookStore)
	svc := NewOrderService(orders, books, cache.NewMemory())
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(acceptedOrder(orderID, "20230100"), nil)

	_, _, err := svc.Complete(ctx, CompleteOrderInput{
		OrderID:      orderID,
		CollectorID:  "20230999",
		ActualWeight: 5.0,
	})
	assert.Error(t, err)
	orders.AssertNotCalled(t, "CompleteAccepted", mock.Anything, mock.Anything)
}

func TestOrderService_Complete_NotAccepted(t *testing.T) {
	orders := new(mockOrderStore)
	books := new(mockSealedBookStore)
	svc := NewOrderService(orders, books, cache.NewMemory())
	ctx := context.Background()

	orderID := uuid.New()
	pending := acceptedOrder(orderID, "20230100")
	pending.Status = models.OrderStatusPending
	orders.On("GetByID", ctx, orderID).Return(pending, nil)

	_, _, err := svc.Complete(ctx, CompleteOrderInput{
		OrderID:      orderID,
		CollectorID:  "20230100",
		ActualWeight: 5.0,
	})
	assert.True(t, apperror.IsInvalidState(err))
}

func TestOrderService_Complete_InvalidWeight(t *testing.T) {
	orders := new(mockOrderStore)
	books := new(mockSealedBookStore)
	svc := NewOrderService(orders, books, cache.NewMemory())

	_, _, err := svc.Complete(context.Background(), CompleteOrderInput{
		OrderID:      uuid.New(),
		CollectorID:  "20230100",
		ActualWeight: -1,
	})
	assert.True(t, apperror.IsValidation(err))
	orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
