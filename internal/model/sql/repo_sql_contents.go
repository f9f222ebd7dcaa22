package sql

import (
	"context"
	"fmt"
	"strings"

	"ows/internal/entity"

	"gorm.io/gorm"
)

// CreateContent persists a new content row together with its tag links.
func (r *GormRepository) CreateContent(ctx context.Context, content *entity.DbContent) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if content == nil {
		return fmt.Errorf("content is nil")
	}
	return r.db.WithContext(ctx).Create(content).Error
}

// UpdateContent applies a partial update to a content row.
func (r *GormRepository) UpdateContent(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid content id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbContent{}).Where("id = ?", id).Updates(updates).Error
}

// GetContent loads a content row with its tags.
func (r *GormRepository) GetContent(ctx context.Context, id uint) (*entity.DbContent, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid content id")
	}
	var content entity.DbContent
	if err := r.db.WithContext(ctx).Preload("Tags").First(&content, id).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

// GetContentBySlug loads a content row by its unique slug.
func (r *GormRepository) GetContentBySlug(ctx context.Context, slug string) (*entity.DbContent, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, fmt.Errorf("slug is empty")
	}
	var content entity.DbContent
	if err := r.db.WithContext(ctx).Preload("Tags").Where("slug = ?", trimmed).First(&content).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

// ListContents returns paginated contents with optional filters.
func (r *GormRepository) ListContents(ctx context.Context, params *entity.ContentQuery) ([]entity.DbContent, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbContent{})
	if params != nil {
		if trimmed := strings.TrimSpace(params.Status); trimmed != "" {
			query = query.Where("status = ?", trimmed)
		}
		if trimmed := strings.TrimSpace(params.ContentType); trimmed != "" {
			query = query.Where("content_type = ?", trimmed)
		}
		if params.CategoryID > 0 {
			query = query.Where("category_id = ?", params.CategoryID)
		}
		if params.TagID > 0 {
			query = query.Joins("JOIN content_tags ON content_tags.content_id = contents.id").
				Where("content_tags.tag_id = ?", params.TagID)
		}
		if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ?", kw, kw)
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

	order := "id DESC"
	if params != nil && strings.TrimSpace(params.SortBy) == "published_at" {
		if params.SortDesc {
			order = "published_at DESC"
		} else {
			order = "published_at ASC"
		}
	}

	var contents []entity.DbContent
	if err := query.Preload("Tags").Order(order).Offset(offset).Limit(pageSize).Find(&contents).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return contents, meta, nil
}

// DeleteContent removes a content row and its tag links.
func (r *GormRepository) DeleteContent(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid content id")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		content := entity.DbContent{ID: id}
		if err := tx.Model(&content).Association("Tags").Clear(); err != nil {
			return err
		}
		result := tx.Delete(&entity.DbContent{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SetContentTags replaces the tag set of a content row.
func (r *GormRepository) SetContentTags(ctx context.Context, contentID uint, tagIDs []uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if contentID == 0 {
		return fmt.Errorf("invalid content id")
	}
	tags, err := r.FindTagsByIDs(ctx, tagIDs)
	if err != nil {
		return err
	}
	content := entity.DbContent{ID: contentID}
	return r.db.WithContext(ctx).Model(&content).Association("Tags").Replace(tags)
}

// IncrementContentViews bumps the view counter.
func (r *GormRepository) IncrementContentViews(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid content id")
	}
	return r.db.WithContext(ctx).Model(&entity.DbContent{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

// CreateCategory persists a new category.
func (r *GormRepository) CreateCategory(ctx context.Context, category *entity.DbCategory) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if category == nil {
		return fmt.Errorf("category is nil")
	}
	return r.db.WithContext(ctx).Create(category).Error
}

// UpdateCategory applies a partial update to a category.
func (r *GormRepository) UpdateCategory(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid category id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbCategory{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteCategory removes a category by ID.
func (r *GormRepository) DeleteCategory(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid category id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbCategory{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetCategory loads a category by ID.
func (r *GormRepository) GetCategory(ctx context.Context, id uint) (*entity.DbCategory, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid category id")
	}
	var category entity.DbCategory
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns categories ordered for tree rendering.
func (r *GormRepository) ListCategories(ctx context.Context, includeInactive bool) ([]entity.DbCategory, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	query := r.db.WithContext(ctx).Order("sort_order ASC, id ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var categories []entity.DbCategory
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateTag persists a new tag.
func (r *GormRepository) CreateTag(ctx context.Context, tag *entity.DbTag) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if tag == nil {
		return fmt.Errorf("tag is nil")
	}
	return r.db.WithContext(ctx).Create(tag).Error
}

// DeleteTag removes a tag by ID.
func (r *GormRepository) DeleteTag(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid tag id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbTag{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetTag loads a tag by ID.
func (r *GormRepository) GetTag(ctx context.Context, id uint) (*entity.DbTag, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid tag id")
	}
	var tag entity.DbTag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListTags returns all tags ordered by code.
func (r *GormRepository) ListTags(ctx context.Context) ([]entity.DbTag, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var tags []entity.DbTag
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// FindTagsByIDs resolves tag rows for the given IDs.
func (r *GormRepository) FindTagsByIDs(ctx context.Context, ids []uint) ([]entity.DbTag, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []entity.DbTag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
