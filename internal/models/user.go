package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей.
const (
	RoleStudent   = "student"
	RoleCollector = "collector"
	RoleAdmin     = "admin"
)

// User описывает учётную запись платформы. Студенты и сборщики
// ссылаются на неё через user_id.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Статусы аккаунта студента.
const (
	StudentStatusActive    = "active"
	StudentStatusSuspended = "suspended"
)

// Границы и порог рейтинга доверия.
const (
	MaxReputation    = 100
	MinReputation    = 0
	SuspendThreshold = 60
	SuspensionMonths = 3
)

// Student описывает профиль студента. Ключ - номер студенческого билета.
type Student struct {
	StudentID       string    `db:"student_id" json:"student_id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	Phone           *string   `db:"phone" json:"phone,omitempty"`
	Campus          string    `db:"campus" json:"campus"`
	Dormitory       *string   `db:"dormitory" json:"dormitory,omitempty"`
	ReputationScore int       `db:"reputation_score" json:"reputation_score"`
	Status          string    `db:"status" json:"status"`
	PaymentMethod   *string   `db:"payment_method" json:"payment_method,omitempty"`
	FirstLogin      bool      `db:"first_login" json:"first_login"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Suspended сообщает, заблокирован ли аккаунт.
func (s *Student) Suspended() bool {
	return s.Status == StudentStatusSuspended
}

// Collector описывает профиль сборщика книг.
type Collector struct {
	CollectorID   string    `db:"collector_id" json:"collector_id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	RealName      string    `db:"real_name" json:"real_name"`
	Phone         string    `db:"phone" json:"phone"`
	Campus        string    `db:"campus" json:"campus"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	OrderCount    int       `db:"order_count" json:"order_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Операции изменения рейтинга.
const (
	ReputationOpInit     = "init"
	ReputationOpDeduct   = "deduct"
	ReputationOpIncrease = "increase"
)

// ReputationEvent - строка аудита изменения рейтинга: кто, когда,
// почему и на сколько.
type ReputationEvent struct {
	ID        uuid.UUID `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Operation string    `db:"operation" json:"operation"`
	Delta     int       `db:"delta" json:"delta"`
	Score     int       `db:"score" json:"score"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
