package admin

import (
	"errors"

	handlershared "github.com/candy-store/internal/http/handlers/shared"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/repository"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := handlershared.ReadPagination(c)
	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   handlershared.QueryText(c, "status"),
		OrderNo:  handlershared.QueryText(c, "order_no"),
		UserID:   handlershared.QueryUint(c, "user_id"),
	}
	orders, total, err := h.OrderService.ListAdminOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id", "error.order_not_found")
	if !ok {
		return
	}
	order, err := h.OrderService.GetAdminOrder(orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, order)
}
