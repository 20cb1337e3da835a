package service

import (
	"context"
	"errors"
	"math"
	"strconv"
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

// OrderStore описывает взаимодействие сервиса с хранилищем заказов.
type OrderStore interface {
	Create(ctx context.Context, order *models.CollectOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CollectOrder, error)
	AcceptPending(ctx context.Context, orderID uuid.UUID, collectorID string, at time.Time) (bool, error)
	CompleteAccepted(ctx context.Context, order *models.CollectOrder) (bool, error)
	ListPendingByCampus(ctx context.Context, campus string, limit, offset int) ([]models.CollectOrder, int, error)
	ListByCollector(ctx context.Context, collectorID string, limit, offset int) ([]models.CollectOrder, int, error)
	ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]models.CollectOrder, int, error)
}

// SealedBookStore описывает доступ к объявлениям и запечатанным книгам.
type SealedBookStore interface {
	CreateBook(ctx context.Context, book *models.Book) error
	CreateSealedBook(ctx context.Context, book *models.SealedBook) error
	GetBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	GetSealedBookByID(ctx context.Context, id uuid.UUID) (*models.SealedBook, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.SealedBook, error)
}

// CompleteOrderInput - фактические данные взвешивания при передаче книги.
type CompleteOrderInput struct {
	OrderID      uuid.UUID
	CollectorID  string
	ActualWeight float64
	// PricePerKg > 0 переопределяет ставку заказа.
	PricePerKg float64
}

// Settlement - итог расчёта по завершённому заказу.
type Settlement struct {
	Total      float64 `json:"total"`
	Commission float64 `json:"commission"`
	Student    float64 `json:"student"`
}

// OrderService ведёт жизненный цикл заказа на сбор: создание из
// запечатанной книги, конкурентное принятие сборщиком и завершение
// с расчётом.
type OrderService struct {
	orders OrderStore
	books  SealedBookStore
	cache  cache.Cache
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(orders OrderStore, books SealedBookStore, c cache.Cache) *OrderService {
	return &OrderService{orders: orders, books: books, cache: c}
}

// CreateFromSealedBook создаёт заказ в статусе pending по существующей
// запечатанной книге. Владелец и кампус берутся из объявления, а не из
// запроса: создать заказ по чужой книге или подменить кампус нельзя.
// Книга, уже принятая сборщиком, второй заказ не порождает.
func (s *OrderService) CreateFromSealedBook(ctx context.Context, studentID string, sealedBookID uuid.UUID) (*models.CollectOrder, error) {
	sealed, err := s.books.GetSealedBookByID(ctx, sealedBookID)
	if err != nil {
		if errors.Is(err, repository.ErrSealedBookNotFound) {
			return nil, apperror.ErrSealedBookNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	if sealed.IsAccepted {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "книга уже принята сборщиком")
	}

	book, err := s.books.GetBookByID(ctx, sealed.BookID)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, apperror.ErrSealedBookNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	if book.OwnerID != studentID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "заказ можно создать только по своей книге")
	}

	order := &models.CollectOrder{
		StudentID:    book.OwnerID,
		SealedBookID: sealedBookID,
		Campus:       book.Campus,
		Status:       models.OrderStatusPending,
		PricePerKg:   models.DefaultPricePerKg,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrOrderExists) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "по этой книге уже есть активный заказ")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	logger.Log.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"student_id": order.StudentID,
		"campus":     order.Campus,
	}).Info("order service: заказ создан")

	return order, nil
}

// Accept принимает свободный заказ от имени сборщика. Из конкурирующих
// сборщиков выигрывает ровно один; проигравший получает конфликт без
// каких-либо изменений состояния.
func (s *OrderService) Accept(ctx context.Context, orderID uuid.UUID, collectorID string) (*models.CollectOrder, error) {
	ok, err := s.orders.AcceptPending(ctx, orderID, collectorID, time.Now())
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	if !ok {
		// Различаем "нет такого заказа" и "заказ уже разобран".
		if _, getErr := s.orders.GetByID(ctx, orderID); getErr != nil {
			if errors.Is(getErr, repository.ErrOrderNotFound) {
				return nil, apperror.ErrOrderNotFound
			}
			return nil, apperror.Wrap(getErr, apperror.ErrCodeUnavailable, "хранилище недоступно")
		}
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заказ уже принят другим сборщиком")
	}

	if _, err := s.cache.Increment(ctx, cache.CollectorOrdersKey(collectorID), 1); err != nil {
		logger.Log.WithError(err).Warn("order service: не удалось обновить счётчик заказов в кэше")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	logger.Log.WithFields(logrus.Fields{
		"order_id":     orderID,
		"collector_id": collectorID,
	}).Info("order service: заказ принят")

	return order, nil
}

// Complete завершает принятый заказ: фиксирует фактический вес и делит
// выручку между платформой и студентом. Завершить заказ может только
// принявший его сборщик.
func (s *OrderService) Complete(ctx context.Context, input CompleteOrderInput) (*models.CollectOrder, *Settlement, error) {
	if err := validation.ValidateWeight(input.ActualWeight); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if input.PricePerKg < 0 {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, "ставка за килограмм не может быть отрицательной")
	}

	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, nil, apperror.ErrOrderNotFound
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	if order.Status != models.OrderStatusAccepted {
		return nil, nil, apperror.New(apperror.ErrCodeInvalidState, "заказ не в статусе accepted")
	}
	if order.CollectorID == nil || *order.CollectorID != input.CollectorID {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "заказ принят другим сборщиком")
	}

	pricePerKg := order.PricePerKg
	if input.PricePerKg > 0 {
		pricePerKg = input.PricePerKg
	}

	settlement := settle(input.ActualWeight, pricePerKg)

	now := time.Now()
	order.Status = models.OrderStatusCompleted
	order.FinishTime = &now
	order.ActualWeight = &input.ActualWeight
	order.PricePerKg = pricePerKg
	order.CommissionAmount = &settlement.Commission
	order.StudentAmount = &settlement.Student

	ok, err := s.orders.CompleteAccepted(ctx, order)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	if !ok {
		return nil, nil, apperror.New(apperror.ErrCodeInvalidState, "заказ не в статусе accepted")
	}

	logger.Log.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"weight":     input.ActualWeight,
		"total":      settlement.Total,
		"commission": settlement.Commission,
	}).Info("order service: заказ завершён")

	return order, &settlement, nil
}

// AcceptedCounter возвращает кэшовый счётчик принятых сборщиком заказов.
// Хранилищем истины остаётся order_count профиля; промах кэша отдаёт ноль.
func (s *OrderService) AcceptedCounter(ctx context.Context, collectorID string) int64 {
	value, err := s.cache.Get(ctx, cache.CollectorOrdersKey(collectorID))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Log.WithError(err).Warn("order service: сбой чтения счётчика заказов")
		}
		return 0
	}
	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return count
}

// Get возвращает заказ по идентификатору.
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.CollectOrder, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return order, nil
}

// ListPendingByCampus возвращает свободные заказы по кампусу.
func (s *OrderService) ListPendingByCampus(ctx context.Context, campus string, limit, offset int) ([]models.CollectOrder, int, error) {
	orders, total, err := s.orders.ListPendingByCampus(ctx, campus, limit, offset)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return orders, total, nil
}

// ListByCollector возвращает заказы, принятые сборщиком.
func (s *OrderService) ListByCollector(ctx context.Context, collectorID string, limit, offset int) ([]models.CollectOrder, int, error) {
	orders, total, err := s.orders.ListByCollector(ctx, collectorID, limit, offset)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return orders, total, nil
}

// ListByStudent возвращает заказы студента.
func (s *OrderService) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]models.CollectOrder, int, error) {
	orders, total, err := s.orders.ListByStudent(ctx, studentID, limit, offset)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return orders, total, nil
}

// settle делит выручку завершённого заказа: платформа удерживает
// комиссию, остаток уходит студенту. Суммы округляются до копеек.
func settle(weight, pricePerKg float64) Settlement {
	total := round2(weight * pricePerKg)
	commission := round2(total * models.CommissionRate)
	return Settlement{
		Total:      total,
		Commission: commission,
		Student:    round2(total - commission),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
