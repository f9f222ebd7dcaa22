package sql

import (
	"context"
	"fmt"
	"strings"

	"ows/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateProduct persists a new product with its tag links and prices.
func (r *GormRepository) CreateProduct(ctx context.Context, product *entity.DbProduct) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if product == nil {
		return fmt.Errorf("product is nil")
	}
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateProduct applies a partial update to a product.
func (r *GormRepository) UpdateProduct(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid product id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbProduct{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteProduct removes a product with its tag links and prices.
func (r *GormRepository) DeleteProduct(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid product id")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product := entity.DbProduct{ID: id}
		if err := tx.Model(&product).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&entity.DbProductPrice{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.DbProduct{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// GetProduct loads a product with tags and prices.
func (r *GormRepository) GetProduct(ctx context.Context, id uint) (*entity.DbProduct, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid product id")
	}
	var product entity.DbProduct
	if err := r.db.WithContext(ctx).Preload("Tags").Preload("Prices").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductByCode loads a product by its unique code.
func (r *GormRepository) GetProductByCode(ctx context.Context, code string) (*entity.DbProduct, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, fmt.Errorf("product code is empty")
	}
	var product entity.DbProduct
	if err := r.db.WithContext(ctx).Preload("Tags").Preload("Prices").
		Where("code = ?", trimmed).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns paginated products with optional filters.
func (r *GormRepository) ListProducts(ctx context.Context, params *entity.ProductQuery) ([]entity.DbProduct, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbProduct{})
	if params != nil {
		if params.ActiveOnly {
			query = query.Where("is_active = ?", true)
		}
		if params.CategoryID > 0 {
			query = query.Where("category_id = ?", params.CategoryID)
		}
		if params.TagID > 0 {
			query = query.Joins("JOIN product_tags ON product_tags.product_id = products.id").
				Where("product_tags.tag_id = ?", params.TagID)
		}
		if params.Featured != nil {
			query = query.Where("is_featured = ?", *params.Featured)
		}
		if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", kw, kw)
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

	var products []entity.DbProduct
	if err := query.Preload("Tags").Preload("Prices").
		Order("sort_order ASC, id DESC").Offset(offset).Limit(pageSize).Find(&products).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return products, meta, nil
}

// SetProductTags replaces the tag set of a product.
func (r *GormRepository) SetProductTags(ctx context.Context, productID uint, tagIDs []uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if productID == 0 {
		return fmt.Errorf("invalid product id")
	}
	tags, err := r.FindTagsByIDs(ctx, tagIDs)
	if err != nil {
		return err
	}
	product := entity.DbProduct{ID: productID}
	return r.db.WithContext(ctx).Model(&product).Association("Tags").Replace(tags)
}

// UpsertProductPrice creates or refreshes a per-currency price row.
func (r *GormRepository) UpsertProductPrice(ctx context.Context, price *entity.DbProductPrice) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if price == nil || price.ProductID == 0 || strings.TrimSpace(price.Currency) == "" {
		return fmt.Errorf("invalid product price")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "original_price", "is_active"}),
	}).Create(price).Error
}

// DeleteProductPrice removes a per-currency price row.
func (r *GormRepository) DeleteProductPrice(ctx context.Context, productID uint, currency string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if productID == 0 || strings.TrimSpace(currency) == "" {
		return fmt.Errorf("invalid product price")
	}
	result := r.db.WithContext(ctx).
		Where("product_id = ? AND currency = ?", productID, strings.TrimSpace(currency)).
		Delete(&entity.DbProductPrice{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementProductViews bumps the view counter.
func (r *GormRepository) IncrementProductViews(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid product id")
	}
	return r.db.WithContext(ctx).Model(&entity.DbProduct{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

// IncrementProductSales bumps the sales counter by the purchased quantity.
func (r *GormRepository) IncrementProductSales(ctx context.Context, id uint, quantity int) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid product id")
	}
	if quantity <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbProduct{}).Where("id = ?", id).
		UpdateColumn("sales_count", gorm.Expr("sales_count + ?", quantity)).Error
}

// CreateOrder persists a new order.
func (r *GormRepository) CreateOrder(ctx context.Context, order *entity.DbOrder) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if order == nil {
		return fmt.Errorf("order is nil")
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// GetOrder loads an order by ID.
func (r *GormRepository) GetOrder(ctx context.Context, id uint) (*entity.DbOrder, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid order id")
	}
	var order entity.DbOrder
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByNo loads an order by its unique order number.
func (r *GormRepository) GetOrderByNo(ctx context.Context, orderNo string) (*entity.DbOrder, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(orderNo)
	if trimmed == "" {
		return nil, fmt.Errorf("order number is empty")
	}
	var order entity.DbOrder
	if err := r.db.WithContext(ctx).Where("order_no = ?", trimmed).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns paginated orders with optional filters.
func (r *GormRepository) ListOrders(ctx context.Context, params *entity.OrderQuery) ([]entity.DbOrder, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbOrder{})
	if params != nil {
		if params.UserID > 0 {
			query = query.Where("user_id = ?", params.UserID)
		}
		if trimmed := strings.TrimSpace(params.Status); trimmed != "" {
			query = query.Where("status = ?", trimmed)
		}
		if trimmed := strings.TrimSpace(params.Currency); trimmed != "" {
			query = query.Where("currency = ?", trimmed)
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

	var orders []entity.DbOrder
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return orders, meta, nil
}

// UpdateOrder applies a partial update to an order.
func (r *GormRepository) UpdateOrder(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid order id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbOrder{}).Where("id = ?", id).Updates(updates).Error
}
