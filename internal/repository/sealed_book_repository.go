package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/repository/common"
)

var (
	ErrBookNotFound       = errors.New("book not found")
	ErrSealedBookNotFound = errors.New("sealed book not found")
)

// SealedBookRepository отвечает за объявления и запечатанные книги.
type SealedBookRepository struct {
	db *sqlx.DB
}

// NewSealedBookRepository создаёт новый экземпляр.
func NewSealedBookRepository(db *sqlx.DB) *SealedBookRepository {
	return &SealedBookRepository{db: db}
}

// CreateBook сохраняет объявление о книге.
func (r *SealedBookRepository) CreateBook(ctx context.Context, book *models.Book) error {
	query := `
		INSERT INTO books (owner_id, campus)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, book.OwnerID, book.Campus).
		Scan(&book.ID, &book.CreatedAt); err != nil {
		return fmt.Errorf("sealed book repository: create book %w", err)
	}
	return nil
}

// GetBookByID возвращает объявление по идентификатору.
func (r *SealedBookRepository) GetBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return common.GetByID[models.Book](ctx, r.db, "books", id, ErrBookNotFound)
}

// CreateSealedBook сохраняет запечатанную книгу.
func (r *SealedBookRepository) CreateSealedBook(ctx context.Context, book *models.SealedBook) error {
	query := `
		INSERT INTO sealed_books (book_id, weight, price, is_accepted)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, book.BookID, book.Weight, book.Price, book.IsAccepted).
		Scan(&book.ID, &book.CreatedAt); err != nil {
		return fmt.Errorf("sealed book repository: create sealed book %w", err)
	}
	return nil
}

// GetSealedBookByID возвращает запечатанную книгу по идентификатору.
func (r *SealedBookRepository) GetSealedBookByID(ctx context.Context, id uuid.UUID) (*models.SealedBook, error) {
	return common.GetByID[models.SealedBook](ctx, r.db, "sealed_books", id, ErrSealedBookNotFound)
}

// ListByOwner возвращает запечатанные книги студента.
func (r *SealedBookRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.SealedBook, error) {
	var books []models.SealedBook
	query := `
		SELECT sb.id, sb.book_id, sb.weight, sb.price, sb.is_accepted, sb.created_at
		FROM sealed_books sb
		JOIN books b ON b.id = sb.book_id
		WHERE b.owner_id = $1
		ORDER BY sb.created_at DESC
	`
	if err := r.db.SelectContext(ctx, &books, query, ownerID); err != nil {
		return nil, fmt.Errorf("sealed book repository: list by owner %w", err)
	}
	return books, nil
}
