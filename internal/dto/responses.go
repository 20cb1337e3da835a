package dto

import (
	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/service"
)

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the standard success payload with optional data
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse represents a successful authentication
type AuthResponse struct {
	User       *models.User `json:"user"`
	Token      string       `json:"token"`
	FirstLogin bool         `json:"first_login"`
}

// OrderListResponse represents a page of collect orders
type OrderListResponse struct {
	Orders []models.CollectOrder `json:"orders"`
	Total  int                   `json:"total"`
}

// ReportListResponse represents a page of reports
type ReportListResponse struct {
	Reports []models.Report `json:"reports"`
	Total   int             `json:"total"`
}

// CompletedOrderResponse represents a completed order with its settlement
type CompletedOrderResponse struct {
	*models.CollectOrder
	Settlement *service.Settlement `json:"settlement"`
}

// ReputationResponse represents the current reputation of a student
type ReputationResponse struct {
	StudentID string `json:"student_id"`
	Score     int    `json:"score"`
	Suspended bool   `json:"suspended"`
}

// CollectorProfileResponse represents a collector profile with the
// cache-side counter of recently accepted orders
type CollectorProfileResponse struct {
	*models.Collector
	AcceptedCounter int64 `json:"accepted_counter"`
}

// BatchHandleResponse represents per-report outcomes of a batch verdict
type BatchHandleResponse struct {
	Outcomes []service.BatchOutcome `json:"outcomes"`
	AllOK    bool                   `json:"all_ok"`
}
