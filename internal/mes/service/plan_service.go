package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/sse"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanService 生产计划服务：排程、资源需求、进度与质量
type PlanService struct {
	planRepo *repository.PlanRepository
	bomRepo  *repository.BOMRepository
	woRepo   *repository.WorkOrderRepository
	notifier Notifier
}

// NewPlanService 创建生产计划服务
func NewPlanService(planRepo *repository.PlanRepository, bomRepo *repository.BOMRepository, woRepo *repository.WorkOrderRepository, notifier Notifier) *PlanService {
	return &PlanService{
		planRepo: planRepo,
		bomRepo:  bomRepo,
		woRepo:   woRepo,
		notifier: notifier,
	}
}

// CreatePlanRequest 创建计划请求
type CreatePlanRequest struct {
	Name             string    `json:"name" binding:"required"`
	ProductID        string    `json:"product_id" binding:"required"`
	Quantity         float64   `json:"quantity" binding:"required"`
	BOMID            string    `json:"bom_id"`
	Priority         *int      `json:"priority"`
	SchedulingMethod string    `json:"scheduling_method"`
	DatePlanned      time.Time `json:"date_planned" binding:"required"`
}

// UpdatePlanRequest 更新计划请求
type UpdatePlanRequest struct {
	Name             string     `json:"name"`
	Quantity         *float64   `json:"quantity"`
	Priority         *int       `json:"priority"`
	SchedulingMethod string     `json:"scheduling_method"`
	DatePlanned      *time.Time `json:"date_planned"`
}

// RequirementRequest 资源需求请求
type RequirementRequest struct {
	ResourceType     string  `json:"resource_type" binding:"required"`
	ResourceID       string  `json:"resource_id"`
	QuantityRequired float64 `json:"quantity_required"`
	DurationHours    float64 `json:"duration_hours"`
	CostPerHour      float64 `json:"cost_per_hour"`
}

// MilestoneRequest 里程碑请求
type MilestoneRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	PlannedDate *time.Time `json:"planned_date"`
}

// QualityCheckRequest 质量检查请求
type QualityCheckRequest struct {
	CheckType string `json:"check_type" binding:"required"`
	Notes     string `json:"notes"`
}

func validPriority(p int) bool {
	return p >= entity.PlanPriorityLow && p <= entity.PlanPriorityCritical
}

func validSchedulingMethod(m string) bool {
	switch m {
	case entity.SchedulingFCFS, entity.SchedulingSJF, entity.SchedulingPriority, entity.SchedulingCriticalPath:
		return true
	}
	return false
}

// Create 创建计划（草稿态），按BOM工序估算工时
func (s *PlanService) Create(ctx context.Context, actor Actor, req *CreatePlanRequest) (*entity.ProductionPlan, error) {
	if req.Quantity <= 0 {
		return nil, NewValidationError("quantity", "must be positive")
	}
	priority := entity.PlanPriorityNormal
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			return nil, NewValidationError("priority", "must be between 0 and 3")
		}
		priority = *req.Priority
	}
	method := req.SchedulingMethod
	if method == "" {
		method = entity.SchedulingPriority
	}
	if !validSchedulingMethod(method) {
		return nil, NewValidationError("scheduling_method", "unknown method: "+method)
	}

	var bom *entity.BOM
	var bomID *string
	if req.BOMID != "" {
		var err error
		bom, err = s.bomRepo.FindByID(ctx, req.BOMID)
		if err != nil {
			return nil, fmt.Errorf("BOM not found: %w", err)
		}
		bomID = &bom.ID
	} else {
		// 未指定时取产品当前有效BOM
		found, err := s.bomRepo.FindByProduct(ctx, req.ProductID)
		if err == nil {
			bom = found
			bomID = &found.ID
		}
	}

	code, err := s.planRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	now := time.Now()
	plan := &entity.ProductionPlan{
		ID:                uuid.New().String()[:32],
		Code:              code,
		Name:              req.Name,
		ProductID:         req.ProductID,
		Quantity:          req.Quantity,
		BOMID:             bomID,
		Status:            entity.PlanStatusDraft,
		Priority:          priority,
		SchedulingMethod:  method,
		DatePlanned:       req.DatePlanned,
		EstimatedDuration: EstimateDuration(bom, req.Quantity),
		CreatedBy:         actor.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	return plan, nil
}

// Get 获取计划详情
func (s *PlanService) Get(ctx context.Context, id string) (*entity.ProductionPlan, error) {
	return s.planRepo.FindByID(ctx, id)
}

// List 获取计划列表
func (s *PlanService) List(ctx context.Context, filters map[string]interface{}) ([]entity.ProductionPlan, error) {
	return s.planRepo.List(ctx, filters)
}

// Update 更新计划（仅草稿可编辑），数量变化时重估工时
func (s *PlanService) Update(ctx context.Context, id string, req *UpdatePlanRequest) (*entity.ProductionPlan, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	if plan.Status != entity.PlanStatusDraft {
		return nil, NewPreconditionError("plan "+plan.Code, "can only be updated in draft status")
	}

	if req.Name != "" {
		plan.Name = req.Name
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return nil, NewValidationError("quantity", "must be positive")
		}
		plan.Quantity = *req.Quantity
	}
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			return nil, NewValidationError("priority", "must be between 0 and 3")
		}
		plan.Priority = *req.Priority
	}
	if req.SchedulingMethod != "" {
		if !validSchedulingMethod(req.SchedulingMethod) {
			return nil, NewValidationError("scheduling_method", "unknown method: "+req.SchedulingMethod)
		}
		plan.SchedulingMethod = req.SchedulingMethod
	}
	if req.DatePlanned != nil {
		plan.DatePlanned = *req.DatePlanned
	}

	if plan.BOMID != nil {
		if bom, err := s.bomRepo.FindByID(ctx, *plan.BOMID); err == nil {
			plan.EstimatedDuration = EstimateDuration(bom, plan.Quantity)
		}
	}
	plan.UpdatedAt = time.Now()
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return plan, nil
}

// Confirm 确认计划并下发制造工单。
// 状态先落库再创建工单；工单创建失败不回滚确认，返回集成错误。
func (s *PlanService) Confirm(ctx context.Context, id string, actor Actor) (*entity.ProductionPlan, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	if plan.Status != entity.PlanStatusDraft {
		return nil, NewPreconditionError("plan "+plan.Code, "can only confirm a draft plan")
	}

	plan.Status = entity.PlanStatusConfirmed
	plan.UpdatedAt = time.Now()
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}

	woCode, err := s.woRepo.GenerateCode(ctx)
	if err != nil {
		return nil, &IntegrationError{Target: "work order", Ref: plan.Code, Err: err}
	}
	datePlanned := plan.DatePlanned
	wo := &entity.WorkOrder{
		ID:          uuid.New().String()[:32],
		Code:        woCode,
		ProductID:   plan.ProductID,
		BOMID:       plan.BOMID,
		PlannedQty:  plan.Quantity,
		PlannedDate: &datePlanned,
		Origin:      plan.Code,
		Status:      entity.WOStatusCreated,
		CreatedBy:   actor.ID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.woRepo.Create(ctx, wo); err != nil {
		return nil, &IntegrationError{Target: "work order", Ref: plan.Code, Err: err}
	}

	plan.ManufacturingOrderID = &wo.ID
	plan.UpdatedAt = time.Now()
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("link work order: %w", err)
	}

	sse.PublishPlanUpdate(plan.ID, "confirmed")
	return plan, nil
}

// Schedule 对全部已确认计划排程。
// 排序策略取触发计划自身配置，时段写入在单个事务内完成。
func (s *PlanService) Schedule(ctx context.Context, id string) (*entity.ProductionPlan, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	if plan.Status != entity.PlanStatusConfirmed {
		return nil, NewPreconditionError("plan "+plan.Code, "can only schedule a confirmed plan")
	}

	queue, err := s.planRepo.ListConfirmed(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scheduling queue: %w", err)
	}
	ordered := orderForScheduling(queue, plan.SchedulingMethod)

	err = s.planRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for i := range ordered {
			p := &ordered[i]
			slot := slotFor(p)
			p.DateStart = &slot.Start
			p.DateEnd = &slot.End
			p.UpdatedAt = now
			if p.ID == plan.ID {
				p.Status = entity.PlanStatusScheduled
			}
			if err := tx.Omit("Product", "BOM", "Requirements", "Milestones", "QualityChecks").Save(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("schedule plans: %w", err)
	}

	sse.PublishPlanUpdate(plan.ID, "scheduled")
	return s.planRepo.FindByID(ctx, id)
}

// StartProduction 开工：scheduled → in_progress
func (s *PlanService) StartProduction(ctx context.Context, id string) (*entity.ProductionPlan, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	if plan.Status != entity.PlanStatusScheduled {
		return nil, NewPreconditionError("plan "+plan.Code, "can only start a scheduled plan")
	}

	now := time.Now()
	plan.Status = entity.PlanStatusInProgress
	plan.DateStart = &now
	plan.UpdatedAt = now
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	sse.PublishPlanUpdate(plan.ID, "started")
	return plan, nil
}

// Complete 完工：in_progress → done，进度置为100
func (s *PlanService) Complete(ctx context.Context, id string) (*entity.ProductionPlan, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	if plan.Status != entity.PlanStatusInProgress {
		return nil, NewPreconditionError("plan "+plan.Code, "can only complete a plan in progress")
	}

	now := time.Now()
	plan.Status = entity.PlanStatusDone
	plan.DateEnd = &now
	plan.ProgressPercentage = 100
	plan.UpdatedAt = now
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}

	if s.notifier != nil {
		s.notifier.PostMessage(ctx, plan.CreatedBy,
			fmt.Sprintf("Production plan %s has been completed", plan.Code))
	}
	sse.PublishPlanUpdate(plan.ID, "completed")
	return plan, nil
}

// Cancel 取消：终态不可取消
func (s *PlanService) Cancel(ctx context.Context, id string) (*entity.ProductionPlan, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	if plan.Status == entity.PlanStatusDone || plan.Status == entity.PlanStatusCancelled {
		return nil, NewPreconditionError("plan "+plan.Code, "cannot cancel from status "+plan.Status)
	}

	plan.Status = entity.PlanStatusCancelled
	plan.UpdatedAt = time.Now()
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	sse.PublishPlanUpdate(plan.ID, "cancelled")
	return plan, nil
}

// SetActualDuration 录入实际工时并计算效率
func (s *PlanService) SetActualDuration(ctx context.Context, id string, hours float64) (*entity.ProductionPlan, error) {
	if hours <= 0 {
		return nil, NewValidationError("actual_duration", "must be positive")
	}
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}

	plan.ActualDuration = hours
	plan.Efficiency = ComputeEfficiency(plan.EstimatedDuration, hours)
	plan.UpdatedAt = time.Now()
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return plan, nil
}

// AddDependency 建立前置依赖，拒绝成环
func (s *PlanService) AddDependency(ctx context.Context, predecessorID, successorID string) error {
	if predecessorID == successorID {
		return NewValidationError("predecessor_id", "a plan cannot depend on itself")
	}
	if _, err := s.planRepo.FindByID(ctx, predecessorID); err != nil {
		return fmt.Errorf("find predecessor: %w", err)
	}
	if _, err := s.planRepo.FindByID(ctx, successorID); err != nil {
		return fmt.Errorf("find successor: %w", err)
	}

	deps, err := s.planRepo.ListDependencies(ctx)
	if err != nil {
		return fmt.Errorf("load dependencies: %w", err)
	}
	if wouldCreateCycle(deps, predecessorID, successorID) {
		return NewValidationError("successor_id", "dependency would create a cycle")
	}

	dep := &entity.PlanDependency{
		ID:            uuid.New().String()[:32],
		PredecessorID: predecessorID,
		SuccessorID:   successorID,
		CreatedAt:     time.Now(),
	}
	return s.planRepo.AddDependency(ctx, dep)
}

// AddRequirement 添加资源需求并重算计划估算成本
func (s *PlanService) AddRequirement(ctx context.Context, planID string, req *RequirementRequest) (*entity.ResourceRequirement, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	if req.QuantityRequired <= 0 {
		return nil, NewValidationError("quantity_required", "must be positive")
	}
	if req.DurationHours < 0 || req.CostPerHour < 0 {
		return nil, NewValidationError("requirement", "duration and cost must not be negative")
	}

	maxOrder := 0
	for _, r := range plan.Requirements {
		if r.SortOrder > maxOrder {
			maxOrder = r.SortOrder
		}
	}
	now := time.Now()
	rr := &entity.ResourceRequirement{
		ID:               uuid.New().String()[:32],
		PlanID:           planID,
		ResourceType:     req.ResourceType,
		ResourceID:       req.ResourceID,
		QuantityRequired: req.QuantityRequired,
		DurationHours:    req.DurationHours,
		CostPerHour:      req.CostPerHour,
		TotalCost:        req.QuantityRequired * req.DurationHours * req.CostPerHour,
		SortOrder:        maxOrder + 1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.planRepo.AddRequirement(ctx, rr); err != nil {
		return nil, fmt.Errorf("add requirement: %w", err)
	}
	if err := s.recomputeEstimatedCost(ctx, planID); err != nil {
		return nil, err
	}
	return rr, nil
}

// UpdateRequirement 更新资源需求并重算计划估算成本
func (s *PlanService) UpdateRequirement(ctx context.Context, id string, req *RequirementRequest) (*entity.ResourceRequirement, error) {
	rr, err := s.planRepo.FindRequirementByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find requirement: %w", err)
	}
	if req.QuantityRequired <= 0 {
		return nil, NewValidationError("quantity_required", "must be positive")
	}
	if req.DurationHours < 0 || req.CostPerHour < 0 {
		return nil, NewValidationError("requirement", "duration and cost must not be negative")
	}

	rr.ResourceType = req.ResourceType
	rr.ResourceID = req.ResourceID
	rr.QuantityRequired = req.QuantityRequired
	rr.DurationHours = req.DurationHours
	rr.CostPerHour = req.CostPerHour
	rr.TotalCost = req.QuantityRequired * req.DurationHours * req.CostPerHour
	rr.UpdatedAt = time.Now()
	if err := s.planRepo.UpdateRequirement(ctx, rr); err != nil {
		return nil, fmt.Errorf("update requirement: %w", err)
	}
	if err := s.recomputeEstimatedCost(ctx, rr.PlanID); err != nil {
		return nil, err
	}
	return rr, nil
}

// RemoveRequirement 删除资源需求并重算计划估算成本
func (s *PlanService) RemoveRequirement(ctx context.Context, id string) error {
	rr, err := s.planRepo.FindRequirementByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find requirement: %w", err)
	}
	if err := s.planRepo.RemoveRequirement(ctx, id); err != nil {
		return fmt.Errorf("remove requirement: %w", err)
	}
	return s.recomputeEstimatedCost(ctx, rr.PlanID)
}

// recomputeEstimatedCost 计划估算成本 = 各资源需求成本之和
func (s *PlanService) recomputeEstimatedCost(ctx context.Context, planID string) error {
	reqs, err := s.planRepo.ListRequirements(ctx, planID)
	if err != nil {
		return fmt.Errorf("list requirements: %w", err)
	}
	total := 0.0
	for _, r := range reqs {
		total += r.TotalCost
	}

	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("find plan: %w", err)
	}
	plan.EstimatedCost = total
	plan.UpdatedAt = time.Now()
	return s.planRepo.Update(ctx, plan)
}

// AddMilestone 添加里程碑
func (s *PlanService) AddMilestone(ctx context.Context, planID string, req *MilestoneRequest) (*entity.Milestone, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}

	maxOrder := 0
	for _, m := range plan.Milestones {
		if m.SortOrder > maxOrder {
			maxOrder = m.SortOrder
		}
	}
	now := time.Now()
	m := &entity.Milestone{
		ID:          uuid.New().String()[:32],
		PlanID:      planID,
		Name:        req.Name,
		Description: req.Description,
		PlannedDate: req.PlannedDate,
		SortOrder:   maxOrder + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.planRepo.AddMilestone(ctx, m); err != nil {
		return nil, fmt.Errorf("add milestone: %w", err)
	}
	if err := s.recomputeProgress(ctx, planID); err != nil {
		return nil, err
	}
	return m, nil
}

// CompleteMilestone 完成里程碑并刷新计划进度
func (s *PlanService) CompleteMilestone(ctx context.Context, id string) (*entity.Milestone, error) {
	m, err := s.planRepo.FindMilestoneByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find milestone: %w", err)
	}
	if m.IsCompleted {
		return m, nil
	}

	now := time.Now()
	m.IsCompleted = true
	m.ActualDate = &now
	m.UpdatedAt = now
	if err := s.planRepo.UpdateMilestone(ctx, m); err != nil {
		return nil, fmt.Errorf("update milestone: %w", err)
	}
	if err := s.recomputeProgress(ctx, m.PlanID); err != nil {
		return nil, err
	}

	// 完成时点的进度快照
	plan, err := s.planRepo.FindByID(ctx, m.PlanID)
	if err == nil {
		m.ProgressPercentage = plan.ProgressPercentage
		s.planRepo.UpdateMilestone(ctx, m)
	}
	sse.PublishPlanUpdate(m.PlanID, "milestone_completed")
	return m, nil
}

// ReopenMilestone 重开里程碑并刷新计划进度
func (s *PlanService) ReopenMilestone(ctx context.Context, id string) (*entity.Milestone, error) {
	m, err := s.planRepo.FindMilestoneByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find milestone: %w", err)
	}
	if !m.IsCompleted {
		return m, nil
	}

	m.IsCompleted = false
	m.ActualDate = nil
	m.ProgressPercentage = 0
	m.UpdatedAt = time.Now()
	if err := s.planRepo.UpdateMilestone(ctx, m); err != nil {
		return nil, fmt.Errorf("update milestone: %w", err)
	}
	if err := s.recomputeProgress(ctx, m.PlanID); err != nil {
		return nil, err
	}
	return m, nil
}

// recomputeProgress 计划进度 = 已完成里程碑占比，无里程碑时保持不变
func (s *PlanService) recomputeProgress(ctx context.Context, planID string) error {
	ms, err := s.planRepo.ListMilestones(ctx, planID)
	if err != nil {
		return fmt.Errorf("list milestones: %w", err)
	}
	if len(ms) == 0 {
		return nil
	}
	completed := 0
	for _, m := range ms {
		if m.IsCompleted {
			completed++
		}
	}

	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("find plan: %w", err)
	}
	plan.ProgressPercentage = float64(completed) / float64(len(ms)) * 100
	plan.UpdatedAt = time.Now()
	return s.planRepo.Update(ctx, plan)
}

// AddQualityCheck 添加质量检查项（pending态）
func (s *PlanService) AddQualityCheck(ctx context.Context, planID string, req *QualityCheckRequest) (*entity.QualityCheck, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}

	maxOrder := 0
	for _, qc := range plan.QualityChecks {
		if qc.SortOrder > maxOrder {
			maxOrder = qc.SortOrder
		}
	}
	now := time.Now()
	qc := &entity.QualityCheck{
		ID:        uuid.New().String()[:32],
		PlanID:    planID,
		CheckType: req.CheckType,
		Status:    entity.QCStatusPending,
		Notes:     req.Notes,
		SortOrder: maxOrder + 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.planRepo.AddQualityCheck(ctx, qc); err != nil {
		return nil, fmt.Errorf("add quality check: %w", err)
	}
	return qc, nil
}

// RecordQualityCheck 记录检查结果，盖检查人与检查时间戳
func (s *PlanService) RecordQualityCheck(ctx context.Context, id string, actor Actor, status, notes string) (*entity.QualityCheck, error) {
	switch status {
	case entity.QCStatusPass, entity.QCStatusFail, entity.QCStatusNA:
	default:
		return nil, NewValidationError("status", "must be pass, fail or na")
	}

	qc, err := s.planRepo.FindQualityCheckByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find quality check: %w", err)
	}

	now := time.Now()
	qc.Status = status
	qc.CheckDate = &now
	qc.CheckedBy = &actor.ID
	if notes != "" {
		qc.Notes = notes
	}
	qc.UpdatedAt = now
	if err := s.planRepo.UpdateQualityCheck(ctx, qc); err != nil {
		return nil, fmt.Errorf("update quality check: %w", err)
	}

	if status == entity.QCStatusFail && s.notifier != nil {
		if plan, err := s.planRepo.FindByID(ctx, qc.PlanID); err == nil {
			s.notifier.PostMessage(ctx, plan.CreatedBy,
				fmt.Sprintf("Quality check %s failed on plan %s", qc.CheckType, plan.Code))
		}
	}
	return qc, nil
}

// ListWorkOrders 获取制造工单列表
func (s *PlanService) ListWorkOrders(ctx context.Context, status string) ([]entity.WorkOrder, error) {
	return s.woRepo.List(ctx, status)
}
