package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы жалобы.
const (
	ReportStatusPending   = "pending"
	ReportStatusProcessed = "processed"
	ReportStatusCancelled = "cancelled"
)

// Результат рассмотрения жалобы. Заполняется только при статусе processed.
const (
	ReportResultInvalid = "invalid"
	ReportResultValid   = "valid"
)

// Дефолтный штраф при пакетной обработке жалоб.
const DefaultReportPenalty = 10

// Report описывает жалобу на недостоверное объявление о книге.
// Инвариант: result/handler_id/opinion заполнены тогда и только тогда,
// когда статус processed; diff_score хранится для возможного отката.
type Report struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ReporterID string     `db:"reporter_id" json:"reporter_id"`
	ReportedID string     `db:"reported_id" json:"reported_id"`
	BookID     uuid.UUID  `db:"book_id" json:"book_id"`
	BookType   string     `db:"book_type" json:"book_type"`
	Reason     string     `db:"reason" json:"reason"`
	Status     string     `db:"status" json:"status"`
	Result     *string    `db:"result" json:"result,omitempty"`
	HandlerID  *uuid.UUID `db:"handler_id" json:"handler_id,omitempty"`
	Opinion    *string    `db:"opinion" json:"opinion,omitempty"`
	DiffScore  *int       `db:"diff_score" json:"diff_score,omitempty"`
	CreateTime time.Time  `db:"create_time" json:"create_time"`
	HandleTime *time.Time `db:"handle_time" json:"handle_time,omitempty"`
}
