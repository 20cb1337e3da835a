package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusbooks/bookcycle-backend/internal/dto"
	"github.com/campusbooks/bookcycle-backend/internal/http/handlers/common"
	"github.com/campusbooks/bookcycle-backend/internal/service"
)

// StudentHandler обслуживает операции студента: объявления, заказы,
// жалобы, собственный рейтинг и профиль.
type StudentHandler struct {
	books      *service.SealedBookService
	orders     *service.OrderService
	reports    *service.ReportService
	reputation *service.ReputationService
	profiles   *service.ProfileDirectory
}

func NewStudentHandler(books *service.SealedBookService, orders *service.OrderService, reports *service.ReportService, reputation *service.ReputationService, profiles *service.ProfileDirectory) *StudentHandler {
	return &StudentHandler{books: books, orders: orders, reports: reports, reputation: reputation, profiles: profiles}
}

// AddSealedBook POST /student/sealed-books
func (h *StudentHandler) AddSealedBook(c *gin.Context) {
	studentID, err := common.CurrentProfileID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.AddSealedBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	book, err := h.books.AddSealedBook(c.Request.Context(), studentID, req.Campus, req.Weight)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, book)
}

// ListSealedBooks GET /student/sealed-books
func (h *StudentHandler) ListSealedBooks(c *gin.Context) {
	studentID, err := common.CurrentProfileID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	books, err := h.books.ListStudentSealedBooks(c.Request.Context(), studentID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, books)
}

// CreateOrder POST /student/orders
func (h *StudentHandler) CreateOrder(c *gin.Context) {
	studentID, err := common.CurrentProfileID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	sealedBookID, err := uuid.Parse(req.SealedBookID)
	if err != nil {
		common.RespondBadRequest(c, "некорректный идентификатор книги")
		return
	}

	order, err := h.orders.CreateFromSealedBook(c.Request.Context(), studentID, sealedBookID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, order)
}

// ListMyOrders GET /student/orders
func (h *StudentHandler) ListMyOrders(c *gin.Context) {
	studentID, err := common.CurrentProfileID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	orders, total, err := h.orders.ListByStudent(c.Request.Context(), studentID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.OrderListResponse{Orders: orders, Total: total})
}

// SubmitReport POST /student/reports
func (h *StudentHandler) SubmitReport(c *gin.Context) {
	studentID, err := common.CurrentProfileID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		common.RespondBadRequest(c, "некорректный идентификатор книги")
		return
	}

	report, err := h.reports.Submit(c.Request.Context(), service.SubmitReportInput{
		ReporterID: studentID,
		ReportedID: req.ReportedID,
		BookID:     bookID,
		BookType:   req.BookType,
		Reason:     req.Reason,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, report)
}

// GetReputation GET /student/reputation
func (h *StudentHandler) GetReputation(c *gin.Context) {
	studentID, err := common.CurrentProfileID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	score, err := h.reputation.Score(c.Request.Context(), studentID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	suspended, err := h.reputation.IsSuspended(c.Request.Context(), studentID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ReputationResponse{
		StudentID: studentID,
		Score:     score,
		Suspended: suspended,
	})
}

// GetProfile GET /student/profile
func (h *StudentHandler) GetProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	student, err := h.profiles.Student(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, student)
}

// UpdateProfile PUT /student/profile
func (h *StudentHandler) UpdateProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.UpdateStudentProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	student, err := h.profiles.UpdateStudentProfile(c.Request.Context(), userID, service.UpdateStudentProfileInput{
		Phone:         req.Phone,
		Campus:        req.Campus,
		Dormitory:     req.Dormitory,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, student)
}

// GetReputationHistory GET /student/reputation/history
func (h *StudentHandler) GetReputationHistory(c *gin.Context) {
	studentID, err := common.CurrentProfileID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	events, err := h.reputation.History(c.Request.Context(), studentID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, events)
}
