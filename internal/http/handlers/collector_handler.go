package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusbooks/bookcycle-backend/internal/dto"
	"github.com/campusbooks/bookcycle-backend/internal/http/handlers/common"
	"github.com/campusbooks/bookcycle-backend/internal/service"
)

// CollectorHandler обслуживает операции сборщика: лента свободных заказов,
// принятие, завершение и профиль.
type CollectorHandler struct {
	orders   *service.OrderService
	profiles *service.ProfileDirectory
}

func NewCollectorHandler(orders *service.OrderService, profiles *service.ProfileDirectory) *CollectorHandler {
	return &CollectorHandler{orders: orders, profiles: profiles}
}

// ListPendingOrders GET /collector/orders/pending?campus=...
func (h *CollectorHandler) ListPendingOrders(c *gin.Context) {
	campus := c.Query("campus")
	if campus == "" {
		common.RespondBadRequest(c, "параметр campus обязателен")
		return
	}

	limit, offset := common.GetPagination(c)
	orders, total, err := h.orders.ListPendingByCampus(c.Request.Context(), campus, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.OrderListResponse{Orders: orders, Total: total})
}

// AcceptOrder POST /collector/orders/:id/accept
func (h *CollectorHandler) AcceptOrder(c *gin.Context) {
	collectorID, err := common.CurrentProfileID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.Accept(c.Request.Context(), orderID, collectorID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, order)
}

// CompleteOrder POST /collector/orders/:id/complete
func (h *CollectorHandler) CompleteOrder(c *gin.Context) {
	collectorID, err := common.CurrentProfileID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CompleteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, settlement, err := h.orders.Complete(c.Request.Context(), service.CompleteOrderInput{
		OrderID:      orderID,
		CollectorID:  collectorID,
		ActualWeight: req.ActualWeight,
		PricePerKg:   req.PricePerKg,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.CompletedOrderResponse{
		CollectOrder: order,
		Settlement:   settlement,
	})
}

// GetProfile GET /collector/profile
func (h *CollectorHandler) GetProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	collector, err := h.profiles.CollectorByUser(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.CollectorProfileResponse{
		Collector:       collector,
		AcceptedCounter: h.orders.AcceptedCounter(c.Request.Context(), collector.CollectorID),
	})
}

// UpdateContact PUT /collector/profile
func (h *CollectorHandler) UpdateContact(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.UpdateCollectorContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	collector, err := h.profiles.UpdateCollectorContact(c.Request.Context(), userID, service.UpdateCollectorContactInput{
		Phone:         req.Phone,
		Campus:        req.Campus,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, collector)
}

// ListMyOrders GET /collector/orders
func (h *CollectorHandler) ListMyOrders(c *gin.Context) {
	collectorID, err := common.CurrentProfileID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	orders, total, err := h.orders.ListByCollector(c.Request.Context(), collectorID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.OrderListResponse{Orders: orders, Total: total})
}
