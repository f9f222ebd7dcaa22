package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"ows/internal/entity"
	"ows/internal/media"
	"ows/internal/model"
	"ows/internal/storage"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrEmptyFile      = errors.New("empty file")
	ErrFileTooLarge   = errors.New("file exceeds the upload size limit")
	ErrDisallowedType = errors.New("file type is not allowed")
	ErrFolderNotFound = errors.New("media folder not found")
	ErrFolderCycle    = errors.New("folder cannot be moved into its own subtree")
	ErrFolderNotEmpty = errors.New("media folder is not empty")
)

// disallowedExtensions blocks executable and actively-rendered content from
// the media library.
var disallowedExtensions = map[string]struct{}{
	".exe": {}, ".dll": {}, ".so": {}, ".bat": {}, ".cmd": {},
	".sh": {}, ".ps1": {}, ".php": {}, ".jsp": {}, ".asp": {},
	".js": {}, ".html": {}, ".htm": {}, ".svg": {},
}

// MediaService owns the upload pipeline: original blob, derived renditions,
// and the database rows tying them together.
type MediaService struct {
	repo          model.Repository
	store         storage.ObjectStorage
	basePath      string
	maxUploadSize int64
}

// NewMediaService creates the media service.
func NewMediaService(repo model.Repository, store storage.ObjectStorage, basePath string, maxUploadSize int64) *MediaService {
	if maxUploadSize <= 0 {
		maxUploadSize = 16 << 20
	}
	return &MediaService{
		repo:          repo,
		store:         store,
		basePath:      basePath,
		maxUploadSize: maxUploadSize,
	}
}

// MaxUploadSize returns the per-file upload limit in bytes.
func (s *MediaService) MaxUploadSize() int64 {
	return s.maxUploadSize
}

// Upload stores the original blob, generates renditions for supported
// image types, and records everything in one transaction. A failure after
// blobs were written rolls the rows back and removes the blobs best-effort.
func (s *MediaService) Upload(ctx context.Context, data []byte, originalName, contentType string, folderID, uploadedBy *uint) (*entity.DbMediaFile, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.maxUploadSize {
		return nil, ErrFileTooLarge
	}
	ext := strings.ToLower(path.Ext(originalName))
	if _, blocked := disallowedExtensions[ext]; blocked {
		return nil, ErrDisallowedType
	}
	if folderID != nil {
		if _, err := s.repo.GetMediaFolder(ctx, *folderID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrFolderNotFound
			}
			return nil, err
		}
	}

	if strings.TrimSpace(contentType) == "" {
		contentType = http.DetectContentType(data)
	}

	uploaded, err := s.store.Upload(ctx, data, originalName, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload original: %w", err)
	}
	writtenKeys := []string{uploaded.ObjectKey}

	file := &entity.DbMediaFile{
		Filename:         uploaded.StoredName,
		OriginalFilename: originalName,
		ObjectKey:        uploaded.ObjectKey,
		PublicURL:        uploaded.PublicURL,
		FileSize:         int64(len(data)),
		MimeType:         contentType,
		FolderID:         folderID,
		UploadedBy:       uploadedBy,
	}

	if media.IsSupportedImage(contentType) {
		if w, h, ok := media.ProbeDimensions(data, contentType); ok {
			file.Width = &w
			file.Height = &h
		}

		variants, err := media.GenerateVariants(data, contentType)
		if err != nil {
			s.cleanupBlobs(ctx, writtenKeys)
			return nil, fmt.Errorf("generate variants: %w", err)
		}
		for _, v := range variants {
			key := storage.VariantObjectKey(uploaded.ObjectKey, v.Type, v.Ext)
			publicURL, err := s.store.UploadAt(ctx, key, v.Data, v.ContentType)
			if err != nil {
				s.cleanupBlobs(ctx, writtenKeys)
				return nil, fmt.Errorf("upload %s variant: %w", v.Type, err)
			}
			writtenKeys = append(writtenKeys, key)
			file.Variants = append(file.Variants, entity.DbMediaVariant{
				VariantType: v.Type,
				ObjectKey:   key,
				PublicURL:   publicURL,
				Width:       v.Width,
				Height:      v.Height,
				FileSize:    v.FileSize,
			})
		}
	}

	if err := s.repo.CreateMediaFile(ctx, file); err != nil {
		s.cleanupBlobs(ctx, writtenKeys)
		return nil, err
	}
	return file, nil
}

// Delete removes a file's rendition blobs, its original blob, and finally
// its rows. Blobs already missing from storage are not an error.
func (s *MediaService) Delete(ctx context.Context, id uint) error {
	file, err := s.repo.GetMediaFile(ctx, id)
	if err != nil {
		return err
	}

	for _, variant := range file.Variants {
		if _, err := s.store.Delete(ctx, variant.ObjectKey); err != nil {
			return fmt.Errorf("delete %s variant blob: %w", variant.VariantType, err)
		}
	}
	if _, err := s.store.Delete(ctx, file.ObjectKey); err != nil {
		return fmt.Errorf("delete original blob: %w", err)
	}

	return s.repo.DeleteMediaFile(ctx, id)
}

// Move reassigns files to a folder and reports how many rows changed.
func (s *MediaService) Move(ctx context.Context, req *entity.MediaMoveRequest) (*entity.MediaMoveResponse, error) {
	if req == nil || len(req.FileIDs) == 0 {
		return &entity.MediaMoveResponse{}, nil
	}
	if req.FolderID != nil {
		if _, err := s.repo.GetMediaFolder(ctx, *req.FolderID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrFolderNotFound
			}
			return nil, err
		}
	}
	moved, err := s.repo.MoveMediaFiles(ctx, req.FileIDs, req.FolderID)
	if err != nil {
		return nil, err
	}
	return &entity.MediaMoveResponse{Moved: moved}, nil
}

// CreateFolder creates a folder beneath an optional parent, deriving the
// materialised path from the parent's.
func (s *MediaService) CreateFolder(ctx context.Context, req *entity.MediaFolderCreateRequest, createdBy *uint) (*entity.DbMediaFolder, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("folder name is required")
	}

	parentPath := ""
	if req.ParentID != nil {
		parent, err := s.repo.GetMediaFolder(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrFolderNotFound
			}
			return nil, err
		}
		parentPath = parent.Path
	}

	name := strings.TrimSpace(req.Name)
	folder := &entity.DbMediaFolder{
		Name:      name,
		ParentID:  req.ParentID,
		Path:      parentPath + "/" + name,
		CreatedBy: createdBy,
	}
	if err := s.repo.CreateMediaFolder(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// UpdateFolder renames or re-parents a folder. Moving a folder into its
// own subtree is rejected, and descendant paths are rewritten.
func (s *MediaService) UpdateFolder(ctx context.Context, id uint, req *entity.MediaFolderUpdateRequest) (*entity.DbMediaFolder, error) {
	folder, err := s.repo.GetMediaFolder(ctx, id)
	if err != nil {
		return nil, err
	}

	name := folder.Name
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		name = strings.TrimSpace(*req.Name)
	}

	parentID := folder.ParentID
	if req.ParentID != nil {
		if *req.ParentID == 0 {
			parentID = nil
		} else {
			parentID = req.ParentID
		}
	}

	parentPath := ""
	if parentID != nil {
		if *parentID == id {
			return nil, ErrFolderCycle
		}
		parent, err := s.repo.GetMediaFolder(ctx, *parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrFolderNotFound
			}
			return nil, err
		}
		if strings.HasPrefix(parent.Path+"/", folder.Path+"/") {
			return nil, ErrFolderCycle
		}
		parentPath = parent.Path
	}

	oldPath := folder.Path
	newPath := parentPath + "/" + name

	updates := map[string]interface{}{
		"name":      name,
		"parent_id": parentID,
		"path":      newPath,
	}
	if err := s.repo.UpdateMediaFolder(ctx, id, updates); err != nil {
		return nil, err
	}

	if newPath != oldPath {
		if err := s.rewriteDescendantPaths(ctx, oldPath, newPath); err != nil {
			return nil, err
		}
	}
	return s.repo.GetMediaFolder(ctx, id)
}

func (s *MediaService) rewriteDescendantPaths(ctx context.Context, oldPath, newPath string) error {
	folders, err := s.repo.ListMediaFolders(ctx)
	if err != nil {
		return err
	}
	for _, f := range folders {
		if !strings.HasPrefix(f.Path, oldPath+"/") {
			continue
		}
		rewritten := newPath + strings.TrimPrefix(f.Path, oldPath)
		if err := s.repo.UpdateMediaFolder(ctx, f.ID, map[string]interface{}{"path": rewritten}); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFolder removes an empty folder. Folders holding files or child
// folders are rejected.
func (s *MediaService) DeleteFolder(ctx context.Context, id uint) error {
	if _, err := s.repo.GetMediaFolder(ctx, id); err != nil {
		return err
	}
	fileCount, err := s.repo.CountMediaFilesInFolder(ctx, id)
	if err != nil {
		return err
	}
	childCount, err := s.repo.CountChildFolders(ctx, id)
	if err != nil {
		return err
	}
	if fileCount > 0 || childCount > 0 {
		return ErrFolderNotEmpty
	}
	return s.repo.DeleteMediaFolder(ctx, id)
}

// Reconcile lists stored objects under the base path and reports blobs no
// file or variant row references.
func (s *MediaService) Reconcile(ctx context.Context) (*entity.MediaScanResponse, error) {
	knownKeys, err := s.repo.ListAllObjectKeys(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(knownKeys))
	for _, key := range knownKeys {
		known[key] = struct{}{}
	}

	objects, err := s.store.List(ctx, s.basePath)
	if err != nil {
		return nil, err
	}

	resp := &entity.MediaScanResponse{Objects: []entity.OrphanObject{}}
	for _, obj := range objects {
		if _, ok := known[obj.Key]; ok {
			continue
		}
		resp.Objects = append(resp.Objects, entity.OrphanObject{
			ObjectKey: obj.Key,
			PublicURL: s.store.PublicURL(obj.Key),
			Size:      obj.Size,
		})
	}
	resp.TotalFound = len(resp.Objects)
	return resp, nil
}

func (s *MediaService) cleanupBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if _, err := s.store.Delete(ctx, key); err != nil {
			logrus.WithError(err).WithField("object_key", key).Warn("orphaned blob cleanup failed")
		}
	}
}
