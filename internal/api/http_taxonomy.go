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

func (h *HTTPHandler) ListCategories(c *gin.Context) {
	includeInactive := strings.EqualFold(c.Query("include_inactive"), "true")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	categories, err := h.repo.ListCategories(ctx, includeInactive)
	if err != nil {
		logrus.WithError(err).Error("failed to list categories")
		InternalError(c, "failed to list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *HTTPHandler) CreateCategory(c *gin.Context) {
	var req entity.CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		MissingField(c, "code")
		return
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = utils.Slugify(code)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if req.ParentID != nil {
		if _, err := h.repo.GetCategory(ctx, *req.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, ErrCodeCategoryNotFound, "parent category not found")
				return
			}
			logrus.WithError(err).Error("failed to load parent category")
			InternalError(c, "failed to create category")
			return
		}
	}

	category := &entity.DbCategory{
		Code:      code,
		Slug:      slug,
		ParentID:  req.ParentID,
		SortOrder: req.SortOrder,
		IsActive:  isActive,
	}
	if err := h.repo.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeDuplicateEntry, "category code already exists")
			return
		}
		logrus.WithError(err).Error("failed to create category")
		InternalError(c, "failed to create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *HTTPHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeCategoryNotFound, "category not found")
			return
		}
		logrus.WithError(err).Error("failed to load category")
		InternalError(c, "failed to update category")
		return
	}

	updates := make(map[string]interface{})
	if req.Slug != nil {
		updates["slug"] = strings.TrimSpace(*req.Slug)
	}
	if req.ParentID != nil {
		if *req.ParentID == id {
			BadRequest(c, ErrCodeInvalidRequest, "category cannot be its own parent")
			return
		}
		if *req.ParentID == 0 {
			updates["parent_id"] = nil
		} else {
			if _, err := h.repo.GetCategory(ctx, *req.ParentID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					NotFound(c, ErrCodeCategoryNotFound, "parent category not found")
					return
				}
				logrus.WithError(err).Error("failed to load parent category")
				InternalError(c, "failed to update category")
				return
			}
			updates["parent_id"] = *req.ParentID
		}
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := h.repo.UpdateCategory(ctx, id, updates); err != nil {
		logrus.WithError(err).WithField("category_id", id).Error("failed to update category")
		InternalError(c, "failed to update category")
		return
	}

	category, err := h.repo.GetCategory(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("failed to reload category")
		InternalError(c, "failed to update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *HTTPHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeCategoryNotFound, "category not found")
			return
		}
		logrus.WithError(err).WithField("category_id", id).Error("failed to delete category")
		InternalError(c, "failed to delete category")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) ListTags(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tags, err := h.repo.ListTags(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list tags")
		InternalError(c, "failed to list tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (h *HTTPHandler) CreateTag(c *gin.Context) {
	var req entity.TagCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		MissingField(c, "code")
		return
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = utils.Slugify(code)
	}

	tag := &entity.DbTag{Code: code, Slug: slug}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeDuplicateEntry, "tag code already exists")
			return
		}
		logrus.WithError(err).Error("failed to create tag")
		InternalError(c, "failed to create tag")
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *HTTPHandler) DeleteTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteTag(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeTagNotFound, "tag not found")
			return
		}
		logrus.WithError(err).WithField("tag_id", id).Error("failed to delete tag")
		InternalError(c, "failed to delete tag")
		return
	}
	c.Status(http.StatusNoContent)
}
