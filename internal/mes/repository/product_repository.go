package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// ProductRepository 产品仓储
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建产品仓储
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByID 根据ID查找产品
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create 创建产品
func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Update 更新产品
func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// List 获取产品列表
func (r *ProductRepository) List(ctx context.Context, keyword string) ([]entity.Product, error) {
	var products []entity.Product
	query := r.db.WithContext(ctx).Model(&entity.Product{})
	if keyword != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	err := query.Order("code ASC").Find(&products).Error
	return products, err
}

// WorkcenterRepository 工作中心仓储
type WorkcenterRepository struct {
	db *gorm.DB
}

// NewWorkcenterRepository 创建工作中心仓储
func NewWorkcenterRepository(db *gorm.DB) *WorkcenterRepository {
	return &WorkcenterRepository{db: db}
}

// FindByID 根据ID查找工作中心
func (r *WorkcenterRepository) FindByID(ctx context.Context, id string) (*entity.Workcenter, error) {
	var w entity.Workcenter
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// Create 创建工作中心
func (r *WorkcenterRepository) Create(ctx context.Context, w *entity.Workcenter) error {
	return r.db.WithContext(ctx).Create(w).Error
}

// List 获取工作中心列表
func (r *WorkcenterRepository) List(ctx context.Context) ([]entity.Workcenter, error) {
	var ws []entity.Workcenter
	err := r.db.WithContext(ctx).Order("code ASC").Find(&ws).Error
	return ws, err
}
