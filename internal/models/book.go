package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы книг в жалобах.
const (
	BookTypeSealed     = "sealed"
	BookTypeRecyclable = "recyclable"
)

// Дефолтная ставка за килограмм при продаже на вес.
const DefaultPricePerKg = 1.6

// Book описывает объявление о книге, принадлежащее студенту.
type Book struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Campus    string    `db:"campus" json:"campus"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SealedBook - книга, сданная на продажу по весу, без идентификации
// по названию. Одна запись соответствует не более чем одному
// неотменённому заказу.
type SealedBook struct {
	ID         uuid.UUID `db:"id" json:"id"`
	BookID     uuid.UUID `db:"book_id" json:"book_id"`
	Weight     float64   `db:"weight" json:"weight"`
	Price      float64   `db:"price" json:"price"`
	IsAccepted bool      `db:"is_accepted" json:"is_accepted"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
