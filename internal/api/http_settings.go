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

func (h *HTTPHandler) ListSettings(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	settings, err := h.repo.ListSettings(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list settings")
		InternalError(c, "failed to list settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *HTTPHandler) GetSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid key")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	setting, err := h.repo.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeSettingNotFound, "setting not found")
			return
		}
		logrus.WithError(err).Error("failed to load setting")
		InternalError(c, "failed to load setting")
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpsertSetting creates the key or replaces its value.
func (h *HTTPHandler) UpsertSetting(c *gin.Context) {
	var req entity.SettingUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	key := strings.TrimSpace(req.Key)
	if key == "" {
		MissingField(c, "key")
		return
	}
	dataType := strings.TrimSpace(req.DataType)
	if dataType == "" {
		dataType = "string"
	}

	setting := &entity.DbSetting{
		Key:         key,
		Value:       req.Value,
		DataType:    dataType,
		Description: req.Description,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpsertSetting(ctx, setting); err != nil {
		logrus.WithError(err).WithField("key", key).Error("failed to save setting")
		InternalError(c, "failed to save setting")
		return
	}

	saved, err := h.repo.GetSetting(ctx, key)
	if err != nil {
		logrus.WithError(err).Error("failed to reload setting")
		InternalError(c, "failed to save setting")
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *HTTPHandler) DeleteSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid key")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteSetting(ctx, key); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeSettingNotFound, "setting not found")
			return
		}
		logrus.WithError(err).WithField("key", key).Error("failed to delete setting")
		InternalError(c, "failed to delete setting")
		return
	}
	c.Status(http.StatusNoContent)
}
