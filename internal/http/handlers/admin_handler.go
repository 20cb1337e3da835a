package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusbooks/bookcycle-backend/internal/dto"
	"github.com/campusbooks/bookcycle-backend/internal/http/handlers/common"
	"github.com/campusbooks/bookcycle-backend/internal/models"
	"github.com/campusbooks/bookcycle-backend/internal/service"
)

// AdminHandler обслуживает операции администратора: рассмотрение жалоб
// и ручное управление рейтингом.
type AdminHandler struct {
	reports    *service.ReportService
	reputation *service.ReputationService
}

func NewAdminHandler(reports *service.ReportService, reputation *service.ReputationService) *AdminHandler {
	return &AdminHandler{reports: reports, reputation: reputation}
}

// ListReports GET /admin/reports?status=pending
func (h *AdminHandler) ListReports(c *gin.Context) {
	status := c.DefaultQuery("status", models.ReportStatusPending)
	limit, offset := common.GetPagination(c)

	reports, total, err := h.reports.ListByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ReportListResponse{Reports: reports, Total: total})
}

// GetReport GET /admin/reports/:id
func (h *AdminHandler) GetReport(c *gin.Context) {
	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.reports.Get(c.Request.Context(), reportID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, report)
}

// HandleReport POST /admin/reports/:id/handle
func (h *AdminHandler) HandleReport(c *gin.Context) {
	handlerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.HandleReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.reports.Handle(c.Request.Context(), service.HandleReportInput{
		ReportID:     reportID,
		Result:       req.Result,
		HandlerID:    handlerID,
		Opinion:      req.Opinion,
		DeductCredit: req.DeductCredit,
		DiffScore:    req.DiffScore,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, report)
}

// BatchHandleReports POST /admin/reports/batch
func (h *AdminHandler) BatchHandleReports(c *gin.Context) {
	handlerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.BatchHandleReportsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	reportIDs := make([]uuid.UUID, 0, len(req.ReportIDs))
	for _, raw := range req.ReportIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "некорректный идентификатор жалобы: "+raw)
			return
		}
		reportIDs = append(reportIDs, id)
	}

	outcomes, err := h.reports.BatchHandle(c.Request.Context(), reportIDs, req.Result, handlerID, req.Opinion, req.DeductCredit)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	allOK := true
	for _, outcome := range outcomes {
		if !outcome.OK {
			allOK = false
			break
		}
	}

	common.RespondJSON(c, http.StatusOK, dto.BatchHandleResponse{Outcomes: outcomes, AllOK: allOK})
}

// RevertReport POST /admin/reports/:id/revert
func (h *AdminHandler) RevertReport(c *gin.Context) {
	handlerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.RevertReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.reports.Revert(c.Request.Context(), reportID, handlerID, req.Opinion)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, report)
}

// DeductReputation POST /admin/students/:studentId/reputation/deduct
func (h *AdminHandler) DeductReputation(c *gin.Context) {
	studentID := c.Param("studentId")

	var req dto.AdjustReputationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	score, err := h.reputation.Deduct(c.Request.Context(), studentID, req.Points, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"student_id": studentID, "score": score})
}

// IncreaseReputation POST /admin/students/:studentId/reputation/increase
func (h *AdminHandler) IncreaseReputation(c *gin.Context) {
	studentID := c.Param("studentId")

	var req dto.AdjustReputationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	score, err := h.reputation.Increase(c.Request.Context(), studentID, req.Points, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"student_id": studentID, "score": score})
}

// SuspendStudent POST /admin/students/:studentId/suspend
func (h *AdminHandler) SuspendStudent(c *gin.Context) {
	studentID := c.Param("studentId")

	until := time.Now().AddDate(0, models.SuspensionMonths, 0)
	if err := h.reputation.Suspend(c.Request.Context(), studentID, until, "решение администратора"); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"student_id": studentID, "suspended_until": until})
}

// ReinstateStudent POST /admin/students/:studentId/reinstate
func (h *AdminHandler) ReinstateStudent(c *gin.Context) {
	studentID := c.Param("studentId")

	if err := h.reputation.Reinstate(c.Request.Context(), studentID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"student_id": studentID, "status": models.StudentStatusActive})
}
