package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/campusbooks/bookcycle-backend/internal/logger"
	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/pkg/apperror"
	"github.com/campusbooks/bookcycle-backend/internal/validation"
)

// SealedBookService ведёт объявления о продаже запечатанных книг на вес.
type SealedBookService struct {
	books SealedBookStore
}

// NewSealedBookService создаёт сервис запечатанных книг.
func NewSealedBookService(books SealedBookStore) *SealedBookService {
	return &SealedBookService{books: books}
}

// AddSealedBook создаёт объявление и запечатанную книгу. Цена считается
// от веса по дефолтной ставке.
func (s *SealedBookService) AddSealedBook(ctx context.Context, ownerID, campus string, weight float64) (*models.SealedBook, error) {
	if err := validation.ValidateWeight(weight); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("кампус", campus, 1, validation.MaxCampusLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	book := &models.Book{
		OwnerID: ownerID,
		Campus:  campus,
	}
	if err := s.books.CreateBook(ctx, book); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	sealed := &models.SealedBook{
		BookID: book.ID,
		Weight: weight,
		Price:  weight * models.DefaultPricePerKg,
	}
	if err := s.books.CreateSealedBook(ctx, sealed); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}

	logger.Log.WithFields(logrus.Fields{
		"sealed_book_id": sealed.ID,
		"owner_id":       ownerID,
		"weight":         weight,
	}).Info("sealed book service: книга выставлена на продажу")

	return sealed, nil
}

// ListStudentSealedBooks возвращает запечатанные книги студента.
func (s *SealedBookService) ListStudentSealedBooks(ctx context.Context, ownerID string) ([]models.SealedBook, error) {
	books, err := s.books.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "хранилище недоступно")
	}
	return books, nil
}
