package sql

import (
	"context"
	"fmt"
	"strings"

	"ows/internal/entity"

	"gorm.io/gorm"
)

// CreateMediaFile persists a file row and its variant rows in one transaction.
func (r *GormRepository) CreateMediaFile(ctx context.Context, file *entity.DbMediaFile) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if file == nil {
		return fmt.Errorf("media file is nil")
	}
	return r.db.WithContext(ctx).Create(file).Error
}

// GetMediaFile loads a file with its variants.
func (r *GormRepository) GetMediaFile(ctx context.Context, id uint) (*entity.DbMediaFile, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid media file id")
	}
	var file entity.DbMediaFile
	if err := r.db.WithContext(ctx).Preload("Variants").First(&file, id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// ListMediaFiles returns paginated files with optional filters.
func (r *GormRepository) ListMediaFiles(ctx context.Context, params *entity.MediaFileQuery) ([]entity.DbMediaFile, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbMediaFile{})
	if params != nil {
		if params.FolderID != nil {
			if *params.FolderID == 0 {
				query = query.Where("folder_id IS NULL")
			} else {
				query = query.Where("folder_id = ?", *params.FolderID)
			}
		}
		if trimmed := strings.TrimSpace(params.MimeType); trimmed != "" {
			query = query.Where("mime_type LIKE ?", trimmed+"%")
		}
		if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			query = query.Where("LOWER(filename) LIKE ? OR LOWER(original_filename) LIKE ? OR LOWER(alt_text) LIKE ?", kw, kw, kw)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var page, pageSize, offset int
	if params != nil {
		page, pageSize, offset = pageWindow(&params.BaseParams)
	} else {
		page, pageSize, offset = pageWindow(nil)
	}

	var files []entity.DbMediaFile
	if err := query.Preload("Variants").Order("id DESC").Offset(offset).Limit(pageSize).Find(&files).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return files, meta, nil
}

// UpdateMediaFile applies a partial update to a file row.
func (r *GormRepository) UpdateMediaFile(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid media file id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbMediaFile{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteMediaFile removes a file row together with its variant rows.
func (r *GormRepository) DeleteMediaFile(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid media file id")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", id).Delete(&entity.DbMediaVariant{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.DbMediaFile{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// MoveMediaFiles reassigns files to a folder and reports how many moved.
func (r *GormRepository) MoveMediaFiles(ctx context.Context, fileIDs []uint, folderID *uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	if len(fileIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&entity.DbMediaFile{}).
		Where("id IN ?", fileIDs).
		Update("folder_id", folderID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListAllObjectKeys returns the object keys of every file and variant row.
// Used by the reconciliation scan to detect orphaned blobs.
func (r *GormRepository) ListAllObjectKeys(ctx context.Context) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var fileKeys []string
	if err := r.db.WithContext(ctx).Model(&entity.DbMediaFile{}).Pluck("object_key", &fileKeys).Error; err != nil {
		return nil, err
	}
	var variantKeys []string
	if err := r.db.WithContext(ctx).Model(&entity.DbMediaVariant{}).Pluck("object_key", &variantKeys).Error; err != nil {
		return nil, err
	}
	return append(fileKeys, variantKeys...), nil
}

// CreateMediaFolder persists a new folder.
func (r *GormRepository) CreateMediaFolder(ctx context.Context, folder *entity.DbMediaFolder) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if folder == nil {
		return fmt.Errorf("media folder is nil")
	}
	return r.db.WithContext(ctx).Create(folder).Error
}

// GetMediaFolder loads a folder by ID.
func (r *GormRepository) GetMediaFolder(ctx context.Context, id uint) (*entity.DbMediaFolder, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid media folder id")
	}
	var folder entity.DbMediaFolder
	if err := r.db.WithContext(ctx).First(&folder, id).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

// ListMediaFolders returns all folders ordered by path.
func (r *GormRepository) ListMediaFolders(ctx context.Context) ([]entity.DbMediaFolder, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var folders []entity.DbMediaFolder
	if err := r.db.WithContext(ctx).Order("path ASC").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// UpdateMediaFolder applies a partial update to a folder.
func (r *GormRepository) UpdateMediaFolder(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid media folder id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbMediaFolder{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteMediaFolder removes a folder by ID.
func (r *GormRepository) DeleteMediaFolder(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid media folder id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbMediaFolder{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountMediaFilesInFolder counts files directly inside a folder.
func (r *GormRepository) CountMediaFilesInFolder(ctx context.Context, folderID uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbMediaFile{}).
		Where("folder_id = ?", folderID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountChildFolders counts direct child folders.
func (r *GormRepository) CountChildFolders(ctx context.Context, folderID uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbMediaFolder{}).
		Where("parent_id = ?", folderID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
