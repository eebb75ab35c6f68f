package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// PlanRepository 生产计划仓储
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository 创建生产计划仓储
func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// DB 返回底层连接（批量调度事务用）
func (r *PlanRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 根据ID查找计划（带资源/里程碑/质检）
func (r *PlanRepository) FindByID(ctx context.Context, id string) (*entity.ProductionPlan, error) {
	var plan entity.ProductionPlan
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Requirements", func(db *gorm.DB) *gorm.DB {
			return db.Order("resource_requirements.sort_order ASC")
		}).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("milestones.sort_order ASC")
		}).
		Preload("QualityChecks", func(db *gorm.DB) *gorm.DB {
			return db.Order("quality_checks.sort_order ASC")
		}).
		Where("id = ?", id).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Create 创建计划
func (r *PlanRepository) Create(ctx context.Context, plan *entity.ProductionPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// Update 更新计划
func (r *PlanRepository) Update(ctx context.Context, plan *entity.ProductionPlan) error {
	return r.db.WithContext(ctx).
		Omit("Product", "BOM", "Requirements", "Milestones", "QualityChecks").
		Save(plan).Error
}

// List 获取计划列表
func (r *PlanRepository) List(ctx context.Context, filters map[string]interface{}) ([]entity.ProductionPlan, error) {
	var plans []entity.ProductionPlan
	query := r.db.WithContext(ctx).Model(&entity.ProductionPlan{})
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if productID, ok := filters["product_id"].(string); ok && productID != "" {
		query = query.Where("product_id = ?", productID)
	}
	err := query.
		Preload("Product").
		Order("priority DESC, date_planned ASC, code ASC").
		Find(&plans).Error
	return plans, err
}

// ListConfirmed 获取全部已确认计划（调度队列）
func (r *PlanRepository) ListConfirmed(ctx context.Context) ([]entity.ProductionPlan, error) {
	var plans []entity.ProductionPlan
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.PlanStatusConfirmed).
		Order("date_planned ASC, code ASC").
		Find(&plans).Error
	return plans, err
}

// AddDependency 添加计划依赖
func (r *PlanRepository) AddDependency(ctx context.Context, dep *entity.PlanDependency) error {
	return r.db.WithContext(ctx).Create(dep).Error
}

// ListDependencies 获取全部依赖边
func (r *PlanRepository) ListDependencies(ctx context.Context) ([]entity.PlanDependency, error) {
	var deps []entity.PlanDependency
	err := r.db.WithContext(ctx).Find(&deps).Error
	return deps, err
}

// AddRequirement 添加资源需求
func (r *PlanRepository) AddRequirement(ctx context.Context, req *entity.ResourceRequirement) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// UpdateRequirement 更新资源需求
func (r *PlanRepository) UpdateRequirement(ctx context.Context, req *entity.ResourceRequirement) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// RemoveRequirement 删除资源需求
func (r *PlanRepository) RemoveRequirement(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.ResourceRequirement{}, "id = ?", id).Error
}

// FindRequirementByID 根据ID查找资源需求
func (r *PlanRepository) FindRequirementByID(ctx context.Context, id string) (*entity.ResourceRequirement, error) {
	var req entity.ResourceRequirement
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListRequirements 获取计划的资源需求
func (r *PlanRepository) ListRequirements(ctx context.Context, planID string) ([]entity.ResourceRequirement, error) {
	var reqs []entity.ResourceRequirement
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("sort_order ASC").
		Find(&reqs).Error
	return reqs, err
}

// AddMilestone 添加里程碑
func (r *PlanRepository) AddMilestone(ctx context.Context, m *entity.Milestone) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// UpdateMilestone 更新里程碑
func (r *PlanRepository) UpdateMilestone(ctx context.Context, m *entity.Milestone) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// FindMilestoneByID 根据ID查找里程碑
func (r *PlanRepository) FindMilestoneByID(ctx context.Context, id string) (*entity.Milestone, error) {
	var m entity.Milestone
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMilestones 获取计划的里程碑
func (r *PlanRepository) ListMilestones(ctx context.Context, planID string) ([]entity.Milestone, error) {
	var ms []entity.Milestone
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("sort_order ASC").
		Find(&ms).Error
	return ms, err
}

// AddQualityCheck 添加质量检查
func (r *PlanRepository) AddQualityCheck(ctx context.Context, qc *entity.QualityCheck) error {
	return r.db.WithContext(ctx).Create(qc).Error
}

// UpdateQualityCheck 更新质量检查
func (r *PlanRepository) UpdateQualityCheck(ctx context.Context, qc *entity.QualityCheck) error {
	return r.db.WithContext(ctx).Save(qc).Error
}

// FindQualityCheckByID 根据ID查找质量检查
func (r *PlanRepository) FindQualityCheckByID(ctx context.Context, id string) (*entity.QualityCheck, error) {
	var qc entity.QualityCheck
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&qc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &qc, nil
}

// GenerateCode 生成计划编码
func (r *PlanRepository) GenerateCode(ctx context.Context) (string, error) {
	return nextCode(ctx, r.db, "plan_code_seq", "PP")
}
