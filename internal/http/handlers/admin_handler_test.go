package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAdminHandler_HandleReport_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &AdminHandler{}
	r.POST("/admin/reports/:id/handle", handler.HandleReport)

	reportID := uuid.New()
	req, _ := http.NewRequest("POST", "/admin/reports/"+reportID.String()+"/handle", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminHandler_HandleReport_InvalidReportID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &AdminHandler{}
	r.POST("/admin/reports/:id/handle", handler.HandleReport)

	req, _ := http.NewRequest("POST", "/admin/reports/not-a-uuid/handle", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_BatchHandleReports_BadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &AdminHandler{}
	r.POST("/admin/reports/batch", handler.BatchHandleReports)

	body := `{"report_ids":["not-a-uuid"],"result":"valid"}`
	req, _ := http.NewRequest("POST", "/admin/reports/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
