package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// BOMRepository BOM仓储
type BOMRepository struct {
	db *gorm.DB
}

// NewBOMRepository 创建BOM仓储
func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// FindByID 根据ID查找BOM（带行、工序及其关联）
func (r *BOMRepository) FindByID(ctx context.Context, id string) (*entity.BOM, error) {
	var bom entity.BOM
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("bom_lines.sort_order ASC")
		}).
		Preload("Lines.Product").
		Preload("Operations", func(db *gorm.DB) *gorm.DB {
			return db.Order("bom_operations.sort_order ASC")
		}).
		Preload("Operations.Workcenter").
		Where("id = ?", id).
		First(&bom).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &bom, nil
}

// FindByProduct 查找产品的BOM（取当前修订）
func (r *BOMRepository) FindByProduct(ctx context.Context, productID string) (*entity.BOM, error) {
	var bom entity.BOM
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("bom_lines.sort_order ASC")
		}).
		Preload("Lines.Product").
		Preload("Operations", func(db *gorm.DB) *gorm.DB {
			return db.Order("bom_operations.sort_order ASC")
		}).
		Preload("Operations.Workcenter").
		Where("product_id = ? AND approval_status <> ?", productID, entity.BOMStatusObsolete).
		Order("revision_number DESC").
		First(&bom).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &bom, nil
}

// Create 创建BOM
func (r *BOMRepository) Create(ctx context.Context, bom *entity.BOM) error {
	return r.db.WithContext(ctx).Create(bom).Error
}

// Update 更新BOM（含派生成本字段）
func (r *BOMRepository) Update(ctx context.Context, bom *entity.BOM) error {
	return r.db.WithContext(ctx).Omit("Lines", "Operations", "Product").Save(bom).Error
}

// List 获取BOM列表
func (r *BOMRepository) List(ctx context.Context, filters map[string]interface{}) ([]entity.BOM, error) {
	var boms []entity.BOM
	query := r.db.WithContext(ctx).Model(&entity.BOM{})
	if productID, ok := filters["product_id"].(string); ok && productID != "" {
		query = query.Where("product_id = ?", productID)
	}
	if status, ok := filters["approval_status"].(string); ok && status != "" {
		query = query.Where("approval_status = ?", status)
	}
	err := query.
		Preload("Product").
		Order("code ASC, revision_number DESC").
		Find(&boms).Error
	return boms, err
}

// AddLine 添加物料行
func (r *BOMRepository) AddLine(ctx context.Context, line *entity.BOMLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// UpdateLine 更新物料行
func (r *BOMRepository) UpdateLine(ctx context.Context, line *entity.BOMLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// RemoveLine 删除物料行
func (r *BOMRepository) RemoveLine(ctx context.Context, lineID string) error {
	return r.db.WithContext(ctx).Delete(&entity.BOMLine{}, "id = ?", lineID).Error
}

// FindLineByID 根据ID查找物料行
func (r *BOMRepository) FindLineByID(ctx context.Context, lineID string) (*entity.BOMLine, error) {
	var line entity.BOMLine
	err := r.db.WithContext(ctx).Where("id = ?", lineID).First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

// AddOperation 添加工序
func (r *BOMRepository) AddOperation(ctx context.Context, op *entity.BOMOperation) error {
	return r.db.WithContext(ctx).Create(op).Error
}

// UpdateOperation 更新工序
func (r *BOMRepository) UpdateOperation(ctx context.Context, op *entity.BOMOperation) error {
	return r.db.WithContext(ctx).Save(op).Error
}

// RemoveOperation 删除工序
func (r *BOMRepository) RemoveOperation(ctx context.Context, opID string) error {
	return r.db.WithContext(ctx).Delete(&entity.BOMOperation{}, "id = ?", opID).Error
}

// FindOperationByID 根据ID查找工序
func (r *BOMRepository) FindOperationByID(ctx context.Context, opID string) (*entity.BOMOperation, error) {
	var op entity.BOMOperation
	err := r.db.WithContext(ctx).Where("id = ?", opID).First(&op).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &op, nil
}

// GenerateCode 生成BOM编码
func (r *BOMRepository) GenerateCode(ctx context.Context) (string, error) {
	return nextCode(ctx, r.db, "bom_code_seq", "BOM")
}
