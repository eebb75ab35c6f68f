package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// ECORepository ECO仓储
type ECORepository struct {
	db *gorm.DB
}

// NewECORepository 创建ECO仓储
func NewECORepository(db *gorm.DB) *ECORepository {
	return &ECORepository{db: db}
}

// FindByID 根据ID查找ECO（带变更行）
func (r *ECORepository) FindByID(ctx context.Context, id string) (*entity.ECO, error) {
	var eco entity.ECO
	err := r.db.WithContext(ctx).
		Preload("BOM").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("eco_lines.sort_order ASC")
		}).
		Preload("Lines.Product").
		Where("id = ?", id).
		First(&eco).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &eco, nil
}

// Create 创建ECO
func (r *ECORepository) Create(ctx context.Context, eco *entity.ECO) error {
	return r.db.WithContext(ctx).Create(eco).Error
}

// Update 更新ECO
func (r *ECORepository) Update(ctx context.Context, eco *entity.ECO) error {
	return r.db.WithContext(ctx).Omit("Lines", "BOM").Save(eco).Error
}

// List 获取ECO列表
func (r *ECORepository) List(ctx context.Context, filters map[string]interface{}) ([]entity.ECO, error) {
	var ecos []entity.ECO
	query := r.db.WithContext(ctx).Model(&entity.ECO{})
	if bomID, ok := filters["bom_id"].(string); ok && bomID != "" {
		query = query.Where("bom_id = ?", bomID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if requestedBy, ok := filters["requested_by"].(string); ok && requestedBy != "" {
		query = query.Where("requested_by = ?", requestedBy)
	}
	err := query.
		Preload("Lines").
		Order("created_at DESC").
		Find(&ecos).Error
	return ecos, err
}

// ListPendingReviews 获取待某用户评审的ECO
func (r *ECORepository) ListPendingReviews(ctx context.Context, userID string) ([]entity.ECO, error) {
	var ecos []entity.ECO
	err := r.db.WithContext(ctx).
		Where("status = ? AND reviewer_ids @> ?", entity.ECOStatusReview, `["`+userID+`"]`).
		Order("created_at ASC").
		Find(&ecos).Error
	return ecos, err
}

// AddLine 添加变更行
func (r *ECORepository) AddLine(ctx context.Context, line *entity.ECOLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// RemoveLine 删除变更行
func (r *ECORepository) RemoveLine(ctx context.Context, lineID string) error {
	return r.db.WithContext(ctx).Delete(&entity.ECOLine{}, "id = ?", lineID).Error
}

// AddHistory 追加操作历史
func (r *ECORepository) AddHistory(ctx context.Context, h *entity.ECOHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// ListHistory 获取操作历史
func (r *ECORepository) ListHistory(ctx context.Context, ecoID string) ([]entity.ECOHistory, error) {
	var hs []entity.ECOHistory
	err := r.db.WithContext(ctx).
		Where("eco_id = ?", ecoID).
		Order("created_at ASC").
		Find(&hs).Error
	return hs, err
}

// GenerateCode 生成ECO编码
func (r *ECORepository) GenerateCode(ctx context.Context) (string, error) {
	return nextCode(ctx, r.db, "eco_code_seq", "ECO")
}
