package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// WorkOrderRepository 工单仓储
type WorkOrderRepository struct {
	db *gorm.DB
}

// NewWorkOrderRepository 创建工单仓储
func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

// FindByID 根据ID查找工单
func (r *WorkOrderRepository) FindByID(ctx context.Context, id string) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&wo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &wo, nil
}

// Create 创建工单
func (r *WorkOrderRepository) Create(ctx context.Context, wo *entity.WorkOrder) error {
	return r.db.WithContext(ctx).Create(wo).Error
}

// Update 更新工单
func (r *WorkOrderRepository) Update(ctx context.Context, wo *entity.WorkOrder) error {
	return r.db.WithContext(ctx).Save(wo).Error
}

// List 获取工单列表
func (r *WorkOrderRepository) List(ctx context.Context, status string) ([]entity.WorkOrder, error) {
	var wos []entity.WorkOrder
	query := r.db.WithContext(ctx).Model(&entity.WorkOrder{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Find(&wos).Error
	return wos, err
}

// GenerateCode 生成工单编码（按日期）
func (r *WorkOrderRepository) GenerateCode(ctx context.Context) (string, error) {
	var n int
	if err := r.db.WithContext(ctx).Raw("SELECT nextval('wo_code_seq')").Scan(&n).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("WO-%s%04d", time.Now().Format("20060102"), n), nil
}
