package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы заказа на сбор книг. Переходы строго вперёд:
// pending -> accepted -> completed; отмена - отдельная ветка.
const (
	OrderStatusPending   = "pending"
	OrderStatusAccepted  = "accepted"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Доля платформы при расчёте по завершённому заказу.
const CommissionRate = 0.2

// CollectOrder описывает заказ на выкуп запечатанной книги.
// Инвариант: collector_id заполнен тогда и только тогда, когда статус
// accepted или completed; поля расчёта заполнены только для completed.
type CollectOrder struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	StudentID        string     `db:"student_id" json:"student_id"`
	CollectorID      *string    `db:"collector_id" json:"collector_id,omitempty"`
	SealedBookID     uuid.UUID  `db:"sealed_book_id" json:"sealed_book_id"`
	Campus           string     `db:"campus" json:"campus"`
	Status           string     `db:"status" json:"status"`
	PricePerKg       float64    `db:"price_per_kg" json:"price_per_kg"`
	ActualWeight     *float64   `db:"actual_weight" json:"actual_weight,omitempty"`
	CommissionAmount *float64   `db:"commission_amount" json:"commission_amount,omitempty"`
	StudentAmount    *float64   `db:"student_amount" json:"student_amount,omitempty"`
	CreateTime       time.Time  `db:"create_time" json:"create_time"`
	AcceptTime       *time.Time `db:"accept_time" json:"accept_time,omitempty"`
	FinishTime       *time.Time `db:"finish_time" json:"finish_time,omitempty"`
}
