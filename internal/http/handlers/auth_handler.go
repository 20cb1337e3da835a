package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusbooks/bookcycle-backend/internal/dto"
	"github.com/campusbooks/bookcycle-backend/internal/http/handlers/common"
	"github.com/campusbooks/bookcycle-backend/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(s *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: s}
}

// RegisterStudent POST /auth/register/student
func (h *AuthHandler) RegisterStudent(c *gin.Context) {
	var req dto.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.svc.RegisterStudent(c.Request.Context(), service.RegisterStudentInput{
		Username:  req.Username,
		Password:  req.Password,
		StudentID: req.StudentID,
		Campus:    req.Campus,
		Phone:     req.Phone,
		Dormitory: req.Dormitory,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.AuthResponse{
		User:       result.User,
		Token:      result.Token,
		FirstLogin: result.FirstLogin,
	})
}

// RegisterCollector POST /auth/register/collector
func (h *AuthHandler) RegisterCollector(c *gin.Context) {
	var req dto.RegisterCollectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.svc.RegisterCollector(c.Request.Context(), service.RegisterCollectorInput{
		Username:      req.Username,
		Password:      req.Password,
		CollectorID:   req.CollectorID,
		RealName:      req.RealName,
		Phone:         req.Phone,
		Campus:        req.Campus,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.AuthResponse{
		User:  result.User,
		Token: result.Token,
	})
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.AuthResponse{
		User:       result.User,
		Token:      result.Token,
		FirstLogin: result.FirstLogin,
	})
}

// Refresh POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	token, err := h.svc.Refresh(c.Request.Context(), req.Token)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"token": token})
}

// Logout POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		common.RespondUnauthorized(c, "")
		return
	}

	if err := h.svc.Logout(c.Request.Context(), strings.TrimPrefix(auth, "Bearer ")); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"message": "сессия завершена"})
}
