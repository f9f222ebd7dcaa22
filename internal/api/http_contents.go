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

func (h *HTTPHandler) ListContents(c *gin.Context) {
	var params entity.ContentQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	contents, meta, err := h.repo.ListContents(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list contents")
		InternalError(c, "failed to list contents")
		return
	}
	c.JSON(http.StatusOK, entity.ContentListResponse{Contents: contents, Meta: meta})
}

func (h *HTTPHandler) GetContent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	content, err := h.repo.GetContent(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeContentNotFound, "content not found")
			return
		}
		logrus.WithError(err).Error("failed to load content")
		InternalError(c, "failed to load content")
		return
	}

	if err := h.repo.IncrementContentViews(ctx, id); err != nil {
		logrus.WithError(err).WithField("content_id", id).Warn("failed to count view")
	}
	c.JSON(http.StatusOK, content)
}

func (h *HTTPHandler) CreateContent(c *gin.Context) {
	var req entity.ContentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		MissingField(c, "title")
		return
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = utils.Slugify(title)
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = "article"
	}

	var authorID *uint
	if current := CurrentUser(c); current != nil {
		authorID = &current.ID
	}

	content := &entity.DbContent{
		Title:         title,
		Body:          req.Body,
		Summary:       req.Summary,
		Slug:          slug,
		Status:        entity.ContentStatusDraft,
		ContentType:   contentType,
		CategoryID:    req.CategoryID,
		AuthorID:      authorID,
		FeaturedImage: strings.TrimSpace(req.FeaturedImage),
		MetaTitle:     strings.TrimSpace(req.MetaTitle),
		MetaDesc:      req.MetaDesc,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetContentBySlug(ctx, slug); err == nil {
		Conflict(c, ErrCodeDuplicateEntry, "slug already in use")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.WithError(err).Error("failed to check slug availability")
		InternalError(c, "failed to create content")
		return
	}

	if len(req.TagIDs) > 0 {
		tags, err := h.repo.FindTagsByIDs(ctx, req.TagIDs)
		if err != nil {
			logrus.WithError(err).Error("failed to resolve tags")
			InternalError(c, "failed to create content")
			return
		}
		if len(tags) != len(req.TagIDs) {
			BadRequest(c, ErrCodeTagNotFound, "one or more tags do not exist")
			return
		}
		content.Tags = tags
	}

	if err := h.repo.CreateContent(ctx, content); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeDuplicateEntry, "slug already in use")
			return
		}
		logrus.WithError(err).Error("failed to create content")
		InternalError(c, "failed to create content")
		return
	}
	c.JSON(http.StatusCreated, content)
}

func (h *HTTPHandler) UpdateContent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.ContentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetContent(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeContentNotFound, "content not found")
			return
		}
		logrus.WithError(err).Error("failed to load content")
		InternalError(c, "failed to update content")
		return
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			MissingField(c, "title")
			return
		}
		updates["title"] = title
	}
	if req.Body != nil {
		updates["body"] = *req.Body
	}
	if req.Summary != nil {
		updates["summary"] = *req.Summary
	}
	if req.Slug != nil {
		slug := strings.TrimSpace(*req.Slug)
		if slug == "" {
			BadRequest(c, ErrCodeInvalidRequest, "slug must not be empty")
			return
		}
		updates["slug"] = slug
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		switch status {
		case entity.ContentStatusDraft, entity.ContentStatusPublished, entity.ContentStatusArchived:
		default:
			BadRequest(c, ErrCodeInvalidStatus, "unknown content status")
			return
		}
		updates["status"] = status
		if status == entity.ContentStatusPublished {
			updates["published_at"] = time.Now().UTC()
		}
	}
	if req.ContentType != nil {
		updates["content_type"] = strings.TrimSpace(*req.ContentType)
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.FeaturedImage != nil {
		updates["featured_image"] = strings.TrimSpace(*req.FeaturedImage)
	}
	if req.MetaTitle != nil {
		updates["meta_title"] = strings.TrimSpace(*req.MetaTitle)
	}
	if req.MetaDesc != nil {
		updates["meta_description"] = *req.MetaDesc
	}

	if err := h.repo.UpdateContent(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeDuplicateEntry, "slug already in use")
			return
		}
		logrus.WithError(err).WithField("content_id", id).Error("failed to update content")
		InternalError(c, "failed to update content")
		return
	}

	if req.TagIDs != nil {
		if err := h.repo.SetContentTags(ctx, id, req.TagIDs); err != nil {
			logrus.WithError(err).WithField("content_id", id).Error("failed to set content tags")
			InternalError(c, "failed to update content")
			return
		}
	}

	content, err := h.repo.GetContent(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("failed to reload content")
		InternalError(c, "failed to update content")
		return
	}
	c.JSON(http.StatusOK, content)
}

// PublishContent marks a draft or archived content as published and stamps
// the publication instant.
func (h *HTTPHandler) PublishContent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetContent(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeContentNotFound, "content not found")
			return
		}
		logrus.WithError(err).Error("failed to load content")
		InternalError(c, "failed to publish content")
		return
	}

	updates := map[string]interface{}{
		"status":       entity.ContentStatusPublished,
		"published_at": time.Now().UTC(),
	}
	if err := h.repo.UpdateContent(ctx, id, updates); err != nil {
		logrus.WithError(err).WithField("content_id", id).Error("failed to publish content")
		InternalError(c, "failed to publish content")
		return
	}

	content, err := h.repo.GetContent(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("failed to reload content")
		InternalError(c, "failed to publish content")
		return
	}
	c.JSON(http.StatusOK, content)
}

func (h *HTTPHandler) DeleteContent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteContent(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeContentNotFound, "content not found")
			return
		}
		logrus.WithError(err).WithField("content_id", id).Error("failed to delete content")
		InternalError(c, "failed to delete content")
		return
	}
	c.Status(http.StatusNoContent)
}
