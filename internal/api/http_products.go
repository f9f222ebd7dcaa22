package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ows/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func (h *HTTPHandler) ListProducts(c *gin.Context) {
	var params entity.ProductQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	products, meta, err := h.repo.ListProducts(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list products")
		InternalError(c, "failed to list products")
		return
	}
	c.JSON(http.StatusOK, entity.ProductListResponse{Products: products, Meta: meta})
}

func (h *HTTPHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	product, err := h.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeProductNotFound, "product not found")
			return
		}
		logrus.WithError(err).Error("failed to load product")
		InternalError(c, "failed to load product")
		return
	}

	if err := h.repo.IncrementProductViews(ctx, id); err != nil {
		logrus.WithError(err).WithField("product_id", id).Warn("failed to count view")
	}
	c.JSON(http.StatusOK, product)
}

func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	var req entity.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	stock := -1
	if req.StockQuantity != nil {
		stock = *req.StockQuantity
	}
	isFeatured := false
	if req.IsFeatured != nil {
		isFeatured = *req.IsFeatured
	}

	product := &entity.DbProduct{
		Code:            strings.TrimSpace(req.Code),
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Price:           req.Price,
		OriginalPrice:   req.OriginalPrice,
		Currency:        currency,
		StockQuantity:   stock,
		FeaturedImageID: req.FeaturedImageID,
		CategoryID:      req.CategoryID,
		IsActive:        true,
		IsFeatured:      isFeatured,
		SortOrder:       req.SortOrder,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetProductByCode(ctx, product.Code); err == nil {
		Conflict(c, ErrCodeDuplicateEntry, "product code already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.WithError(err).Error("failed to check product code availability")
		InternalError(c, "failed to create product")
		return
	}

	if len(req.TagIDs) > 0 {
		tags, err := h.repo.FindTagsByIDs(ctx, req.TagIDs)
		if err != nil {
			logrus.WithError(err).Error("failed to resolve tags")
			InternalError(c, "failed to create product")
			return
		}
		if len(tags) != len(req.TagIDs) {
			BadRequest(c, ErrCodeTagNotFound, "one or more tags do not exist")
			return
		}
		product.Tags = tags
	}

	if err := h.repo.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeDuplicateEntry, "product code already exists")
			return
		}
		logrus.WithError(err).Error("failed to create product")
		InternalError(c, "failed to create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *HTTPHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeProductNotFound, "product not found")
			return
		}
		logrus.WithError(err).Error("failed to load product")
		InternalError(c, "failed to update product")
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			MissingField(c, "name")
			return
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.OriginalPrice != nil {
		updates["original_price"] = *req.OriginalPrice
	}
	if req.StockQuantity != nil {
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.FeaturedImageID != nil {
		updates["featured_image_id"] = *req.FeaturedImageID
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if err := h.repo.UpdateProduct(ctx, id, updates); err != nil {
		logrus.WithError(err).WithField("product_id", id).Error("failed to update product")
		InternalError(c, "failed to update product")
		return
	}

	if req.TagIDs != nil {
		if err := h.repo.SetProductTags(ctx, id, req.TagIDs); err != nil {
			logrus.WithError(err).WithField("product_id", id).Error("failed to set product tags")
			InternalError(c, "failed to update product")
			return
		}
	}

	product, err := h.repo.GetProduct(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("failed to reload product")
		InternalError(c, "failed to update product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *HTTPHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeProductNotFound, "product not found")
			return
		}
		logrus.WithError(err).WithField("product_id", id).Error("failed to delete product")
		InternalError(c, "failed to delete product")
		return
	}
	c.Status(http.StatusNoContent)
}

// UpsertProductPrice creates or replaces a per-currency price override.
func (h *HTTPHandler) UpsertProductPrice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.ProductPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		MissingField(c, "currency")
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeProductNotFound, "product not found")
			return
		}
		logrus.WithError(err).Error("failed to load product")
		InternalError(c, "failed to set product price")
		return
	}

	price := &entity.DbProductPrice{
		ProductID:     id,
		Currency:      currency,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		IsActive:      isActive,
	}
	if err := h.repo.UpsertProductPrice(ctx, price); err != nil {
		logrus.WithError(err).WithField("product_id", id).Error("failed to set product price")
		InternalError(c, "failed to set product price")
		return
	}

	product, err := h.repo.GetProduct(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("failed to reload product")
		InternalError(c, "failed to set product price")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *HTTPHandler) DeleteProductPrice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(c.Param("currency")))
	if currency == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid currency")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteProductPrice(ctx, id, currency); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeNotFound, "price override not found")
			return
		}
		logrus.WithError(err).WithField("product_id", id).Error("failed to delete product price")
		InternalError(c, "failed to delete product price")
		return
	}
	c.Status(http.StatusNoContent)
}
