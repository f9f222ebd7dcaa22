package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ows/internal/entity"
	"ows/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// priceFor resolves the unit price of a product in the requested currency.
// An active per-currency override wins, otherwise the base price applies
// when the product is listed in that currency.
func priceFor(product *entity.DbProduct, currency string) (int64, bool) {
	for _, override := range product.Prices {
		if override.IsActive && override.Currency == currency {
			return override.Price, true
		}
	}
	if product.Currency == currency {
		return product.Price, true
	}
	return 0, false
}

// CreateOrder places an order for the authenticated user, snapshotting the
// purchased lines at current prices.
func (h *HTTPHandler) CreateOrder(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.OrderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	if len(req.Items) == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "order has no items")
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	// Collapse duplicate product lines before pricing.
	quantities := make(map[uint]int)
	productIDs := make([]uint, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			BadRequest(c, ErrCodeInvalidRequest, "quantity must be positive")
			return
		}
		if _, seen := quantities[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	var (
		items  []entity.OrderItem
		amount int64
	)
	products := make(map[uint]*entity.DbProduct, len(productIDs))
	for _, productID := range productIDs {
		product, err := h.repo.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, ErrCodeProductNotFound, "product not found")
				return
			}
			logrus.WithError(err).WithField("product_id", productID).Error("failed to load product")
			InternalError(c, "failed to create order")
			return
		}
		if !product.IsActive {
			BadRequest(c, ErrCodeInvalidRequest, "product is not available")
			return
		}

		quantity := quantities[productID]
		if product.StockQuantity >= 0 && product.StockQuantity < quantity {
			Conflict(c, ErrCodeOutOfStock, "insufficient stock for "+product.Code)
			return
		}

		unitPrice, priced := priceFor(product, currency)
		if !priced {
			BadRequest(c, ErrCodeInvalidRequest, "product not priced in "+currency)
			return
		}

		products[productID] = product
		items = append(items, entity.OrderItem{
			ProductID: product.ID,
			Code:      product.Code,
			Name:      product.Name,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		})
		amount += unitPrice * int64(quantity)
	}

	order := &entity.DbOrder{
		OrderNo:  utils.NewOrderNo(),
		UserID:   current.ID,
		Amount:   amount,
		Currency: currency,
		Status:   entity.OrderStatusPending,
		Items:    items,
	}
	if err := h.repo.CreateOrder(ctx, order); err != nil {
		logrus.WithError(err).Error("failed to create order")
		InternalError(c, "failed to create order")
		return
	}

	for _, item := range items {
		if err := h.repo.IncrementProductSales(ctx, item.ProductID, item.Quantity); err != nil {
			logrus.WithError(err).WithField("product_id", item.ProductID).Warn("failed to count sale")
		}
		product := products[item.ProductID]
		if product.StockQuantity >= 0 {
			updates := map[string]interface{}{
				"stock_quantity": gorm.Expr("stock_quantity - ?", item.Quantity),
			}
			if err := h.repo.UpdateProduct(ctx, item.ProductID, updates); err != nil {
				logrus.WithError(err).WithField("product_id", item.ProductID).Warn("failed to adjust stock")
			}
		}
	}

	c.JSON(http.StatusCreated, order)
}

func (h *HTTPHandler) ListOrders(c *gin.Context) {
	var params entity.OrderQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	// Non-admin callers only see their own orders.
	current := CurrentUser(c)
	if current != nil && !current.IsAdmin() {
		params.UserID = current.ID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	orders, meta, err := h.repo.ListOrders(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list orders")
		InternalError(c, "failed to list orders")
		return
	}
	c.JSON(http.StatusOK, entity.OrderListResponse{Orders: orders, Meta: meta})
}

func (h *HTTPHandler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeOrderNotFound, "order not found")
			return
		}
		logrus.WithError(err).Error("failed to load order")
		InternalError(c, "failed to load order")
		return
	}

	current := CurrentUser(c)
	if current != nil && !current.IsAdmin() && order.UserID != current.ID {
		NotFound(c, ErrCodeOrderNotFound, "order not found")
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrderByNumber looks an order up by its public order number.
func (h *HTTPHandler) GetOrderByNumber(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	if orderNo == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid order_no")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.repo.GetOrderByNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeOrderNotFound, "order not found")
			return
		}
		logrus.WithError(err).Error("failed to load order")
		InternalError(c, "failed to load order")
		return
	}

	current := CurrentUser(c)
	if current != nil && !current.IsAdmin() && order.UserID != current.ID {
		NotFound(c, ErrCodeOrderNotFound, "order not found")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder transitions an order's status. Marking an order paid stamps
// the payment instant.
func (h *HTTPHandler) UpdateOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.OrderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	if req.Status == nil {
		BadRequest(c, ErrCodeInvalidRequest, "nothing to update")
		return
	}

	status := strings.TrimSpace(*req.Status)
	switch status {
	case entity.OrderStatusPending, entity.OrderStatusPaid, entity.OrderStatusCancelled:
	default:
		BadRequest(c, ErrCodeInvalidStatus, "unknown order status")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetOrder(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeOrderNotFound, "order not found")
			return
		}
		logrus.WithError(err).Error("failed to load order")
		InternalError(c, "failed to update order")
		return
	}

	updates := map[string]interface{}{"status": status}
	if status == entity.OrderStatusPaid {
		updates["paid_at"] = time.Now().UTC()
	}
	if err := h.repo.UpdateOrder(ctx, id, updates); err != nil {
		logrus.WithError(err).WithField("order_id", id).Error("failed to update order")
		InternalError(c, "failed to update order")
		return
	}

	order, err := h.repo.GetOrder(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("failed to reload order")
		InternalError(c, "failed to update order")
		return
	}
	c.JSON(http.StatusOK, order)
}
