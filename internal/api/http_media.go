package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ows/internal/entity"
	"ows/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UploadMedia accepts a multipart upload, stores the blob plus renditions,
// and returns the recorded file.
func (h *HTTPHandler) UploadMedia(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "missing file field")
		return
	}
	if fileHeader.Size > h.mediaService.MaxUploadSize() {
		ErrorResponse(c, http.StatusRequestEntityTooLarge, ErrCodeFileTooLarge, "file exceeds the upload size limit")
		return
	}

	var folderID *uint
	if raw := strings.TrimSpace(c.PostForm("folder_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed == 0 {
			BadRequest(c, ErrCodeInvalidRequest, "invalid folder_id")
			return
		}
		id := uint(parsed)
		folderID = &id
	}

	src, err := fileHeader.Open()
	if err != nil {
		logrus.WithError(err).Error("failed to open uploaded file")
		InternalError(c, "failed to read upload")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		logrus.WithError(err).Error("failed to read uploaded file")
		InternalError(c, "failed to read upload")
		return
	}

	var uploadedBy *uint
	if current := CurrentUser(c); current != nil {
		uploadedBy = &current.ID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	contentType := fileHeader.Header.Get("Content-Type")
	file, err := h.mediaService.Upload(ctx, data, fileHeader.Filename, contentType, folderID, uploadedBy)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyFile):
			BadRequest(c, ErrCodeInvalidRequest, "file is empty")
		case errors.Is(err, service.ErrFileTooLarge):
			ErrorResponse(c, http.StatusRequestEntityTooLarge, ErrCodeFileTooLarge, "file exceeds the upload size limit")
		case errors.Is(err, service.ErrDisallowedType):
			BadRequest(c, ErrCodeFileTypeBlocked, "file type is not allowed")
		case errors.Is(err, service.ErrFolderNotFound):
			NotFound(c, ErrCodeFolderNotFound, "media folder not found")
		default:
			logrus.WithError(err).Error("failed to store upload")
			InternalError(c, "failed to store upload")
		}
		return
	}
	c.JSON(http.StatusCreated, file)
}

func (h *HTTPHandler) ListMediaFiles(c *gin.Context) {
	var params entity.MediaFileQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	files, meta, err := h.repo.ListMediaFiles(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list media files")
		InternalError(c, "failed to list media files")
		return
	}
	c.JSON(http.StatusOK, entity.MediaListResponse{Files: files, Meta: meta})
}

func (h *HTTPHandler) GetMediaFile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	file, err := h.repo.GetMediaFile(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeMediaNotFound, "media file not found")
			return
		}
		logrus.WithError(err).Error("failed to load media file")
		InternalError(c, "failed to load media file")
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *HTTPHandler) UpdateMediaFile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.MediaFileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetMediaFile(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeMediaNotFound, "media file not found")
			return
		}
		logrus.WithError(err).Error("failed to load media file")
		InternalError(c, "failed to update media file")
		return
	}

	updates := make(map[string]interface{})
	if req.AltText != nil {
		updates["alt_text"] = strings.TrimSpace(*req.AltText)
	}
	if req.Caption != nil {
		updates["caption"] = *req.Caption
	}
	if req.FolderID != nil {
		if *req.FolderID == 0 {
			updates["folder_id"] = nil
		} else {
			if _, err := h.repo.GetMediaFolder(ctx, *req.FolderID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					NotFound(c, ErrCodeFolderNotFound, "media folder not found")
					return
				}
				logrus.WithError(err).Error("failed to load media folder")
				InternalError(c, "failed to update media file")
				return
			}
			updates["folder_id"] = *req.FolderID
		}
	}

	if err := h.repo.UpdateMediaFile(ctx, id, updates); err != nil {
		logrus.WithError(err).WithField("file_id", id).Error("failed to update media file")
		InternalError(c, "failed to update media file")
		return
	}

	file, err := h.repo.GetMediaFile(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("failed to reload media file")
		InternalError(c, "failed to update media file")
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *HTTPHandler) DeleteMediaFile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := h.mediaService.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeMediaNotFound, "media file not found")
			return
		}
		logrus.WithError(err).WithField("file_id", id).Error("failed to delete media file")
		InternalError(c, "failed to delete media file")
		return
	}
	c.Status(http.StatusNoContent)
}

// MoveMediaFiles reassigns a batch of files to a folder.
func (h *HTTPHandler) MoveMediaFiles(c *gin.Context) {
	var req entity.MediaMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.mediaService.Move(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrFolderNotFound) {
			NotFound(c, ErrCodeFolderNotFound, "media folder not found")
			return
		}
		logrus.WithError(err).Error("failed to move media files")
		InternalError(c, "failed to move media files")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ScanMedia reports stored blobs with no matching database row.
func (h *HTTPHandler) ScanMedia(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	resp, err := h.mediaService.Reconcile(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to scan media storage")
		InternalError(c, "failed to scan media storage")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) ListMediaFolders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	folders, err := h.repo.ListMediaFolders(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list media folders")
		InternalError(c, "failed to list media folders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

func (h *HTTPHandler) CreateMediaFolder(c *gin.Context) {
	var req entity.MediaFolderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	var createdBy *uint
	if current := CurrentUser(c); current != nil {
		createdBy = &current.ID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	folder, err := h.mediaService.CreateFolder(ctx, &req, createdBy)
	if err != nil {
		if errors.Is(err, service.ErrFolderNotFound) {
			NotFound(c, ErrCodeFolderNotFound, "parent folder not found")
			return
		}
		logrus.WithError(err).Error("failed to create media folder")
		InternalError(c, "failed to create media folder")
		return
	}
	c.JSON(http.StatusCreated, folder)
}

func (h *HTTPHandler) UpdateMediaFolder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.MediaFolderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	folder, err := h.mediaService.UpdateFolder(ctx, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, ErrCodeFolderNotFound, "media folder not found")
		case errors.Is(err, service.ErrFolderNotFound):
			NotFound(c, ErrCodeFolderNotFound, "parent folder not found")
		case errors.Is(err, service.ErrFolderCycle):
			BadRequest(c, ErrCodeFolderCycle, "folder cannot be moved into its own subtree")
		default:
			logrus.WithError(err).WithField("folder_id", id).Error("failed to update media folder")
			InternalError(c, "failed to update media folder")
		}
		return
	}
	c.JSON(http.StatusOK, folder)
}

func (h *HTTPHandler) DeleteMediaFolder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.mediaService.DeleteFolder(ctx, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, ErrCodeFolderNotFound, "media folder not found")
		case errors.Is(err, service.ErrFolderNotEmpty):
			Conflict(c, ErrCodeFolderNotEmpty, "folder still holds files or subfolders")
		default:
			logrus.WithError(err).WithField("folder_id", id).Error("failed to delete media folder")
			InternalError(c, "failed to delete media folder")
		}
		return
	}
	c.Status(http.StatusNoContent)
}
