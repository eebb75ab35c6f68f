package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const breakdownCacheTTL = 5 * time.Minute

// BOMService BOM服务：结构维护与成本/复杂度引擎
type BOMService struct {
	bomRepo        *repository.BOMRepository
	productRepo    *repository.ProductRepository
	workcenterRepo *repository.WorkcenterRepository
	rdb            *redis.Client
}

// NewBOMService 创建BOM服务
func NewBOMService(bomRepo *repository.BOMRepository, productRepo *repository.ProductRepository, workcenterRepo *repository.WorkcenterRepository, rdb *redis.Client) *BOMService {
	return &BOMService{
		bomRepo:        bomRepo,
		productRepo:    productRepo,
		workcenterRepo: workcenterRepo,
		rdb:            rdb,
	}
}

// CreateBOMRequest 创建BOM请求
type CreateBOMRequest struct {
	ProductID   string  `json:"product_id" binding:"required"`
	Version     string  `json:"version"`
	ParentBOMID *string `json:"parent_bom_id"`
}

// LineRequest 物料行请求
type LineRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required"`
	Unit      string  `json:"unit"`
}

// OperationRequest 工序请求
type OperationRequest struct {
	Name         string  `json:"name" binding:"required"`
	WorkcenterID *string `json:"workcenter_id"`
	TimeCycle    float64 `json:"time_cycle"`
	SetupTime    float64 `json:"setup_time"`
}

// Create 创建BOM（版本1.0，修订1）
func (s *BOMService) Create(ctx context.Context, actor Actor, req *CreateBOMRequest) (*entity.BOM, error) {
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}

	code, err := s.bomRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	version := req.Version
	if version == "" {
		version = "1.0"
	}

	now := time.Now()
	bom := &entity.BOM{
		ID:             uuid.New().String()[:32],
		Code:           code,
		ProductID:      req.ProductID,
		Version:        version,
		RevisionNumber: 1,
		ParentBOMID:    req.ParentBOMID,
		ApprovalStatus: entity.BOMStatusDraft,
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.bomRepo.Create(ctx, bom); err != nil {
		return nil, fmt.Errorf("create BOM: %w", err)
	}
	return bom, nil
}

// Get 获取BOM详情
func (s *BOMService) Get(ctx context.Context, id string) (*entity.BOM, error) {
	return s.bomRepo.FindByID(ctx, id)
}

// List 获取BOM列表
func (s *BOMService) List(ctx context.Context, filters map[string]interface{}) ([]entity.BOM, error) {
	return s.bomRepo.List(ctx, filters)
}

// AddLine 添加物料行，随后重算成本
func (s *BOMService) AddLine(ctx context.Context, bomID string, req *LineRequest) (*entity.BOMLine, error) {
	bom, err := s.mutableBOM(ctx, bomID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, NewValidationError("quantity", "must be positive")
	}
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}

	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}

	maxOrder := 0
	for _, l := range bom.Lines {
		if l.SortOrder > maxOrder {
			maxOrder = l.SortOrder
		}
	}

	now := time.Now()
	line := &entity.BOMLine{
		ID:        uuid.New().String()[:32],
		BOMID:     bomID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Unit:      unit,
		SortOrder: maxOrder + 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.bomRepo.AddLine(ctx, line); err != nil {
		return nil, fmt.Errorf("add line: %w", err)
	}

	if err := s.Recompute(ctx, bomID); err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateLine 更新物料行，随后重算成本
func (s *BOMService) UpdateLine(ctx context.Context, bomID, lineID string, req *LineRequest) (*entity.BOMLine, error) {
	if _, err := s.mutableBOM(ctx, bomID); err != nil {
		return nil, err
	}
	line, err := s.bomRepo.FindLineByID(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("find line: %w", err)
	}
	if line.BOMID != bomID {
		return nil, NewPreconditionError("bom line", "line does not belong to this BOM")
	}
	if req.Quantity <= 0 {
		return nil, NewValidationError("quantity", "must be positive")
	}

	line.Quantity = req.Quantity
	if req.Unit != "" {
		line.Unit = req.Unit
	}
	line.UpdatedAt = time.Now()

	if err := s.bomRepo.UpdateLine(ctx, line); err != nil {
		return nil, fmt.Errorf("update line: %w", err)
	}
	if err := s.Recompute(ctx, bomID); err != nil {
		return nil, err
	}
	return line, nil
}

// RemoveLine 删除物料行，随后重算成本
func (s *BOMService) RemoveLine(ctx context.Context, bomID, lineID string) error {
	if _, err := s.mutableBOM(ctx, bomID); err != nil {
		return err
	}
	line, err := s.bomRepo.FindLineByID(ctx, lineID)
	if err != nil {
		return fmt.Errorf("find line: %w", err)
	}
	if line.BOMID != bomID {
		return NewPreconditionError("bom line", "line does not belong to this BOM")
	}
	if err := s.bomRepo.RemoveLine(ctx, lineID); err != nil {
		return fmt.Errorf("remove line: %w", err)
	}
	return s.Recompute(ctx, bomID)
}

// AddOperation 添加工序，随后重算成本
func (s *BOMService) AddOperation(ctx context.Context, bomID string, req *OperationRequest) (*entity.BOMOperation, error) {
	bom, err := s.mutableBOM(ctx, bomID)
	if err != nil {
		return nil, err
	}
	if req.WorkcenterID != nil {
		if _, err := s.workcenterRepo.FindByID(ctx, *req.WorkcenterID); err != nil {
			return nil, fmt.Errorf("workcenter not found: %w", err)
		}
	}

	maxOrder := 0
	for _, op := range bom.Operations {
		if op.SortOrder > maxOrder {
			maxOrder = op.SortOrder
		}
	}

	now := time.Now()
	op := &entity.BOMOperation{
		ID:           uuid.New().String()[:32],
		BOMID:        bomID,
		Name:         req.Name,
		WorkcenterID: req.WorkcenterID,
		TimeCycle:    req.TimeCycle,
		SetupTime:    req.SetupTime,
		SortOrder:    maxOrder + 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.bomRepo.AddOperation(ctx, op); err != nil {
		return nil, fmt.Errorf("add operation: %w", err)
	}
	if err := s.Recompute(ctx, bomID); err != nil {
		return nil, err
	}
	return op, nil
}

// UpdateOperation 更新工序，随后重算成本
func (s *BOMService) UpdateOperation(ctx context.Context, bomID, opID string, req *OperationRequest) (*entity.BOMOperation, error) {
	if _, err := s.mutableBOM(ctx, bomID); err != nil {
		return nil, err
	}
	op, err := s.bomRepo.FindOperationByID(ctx, opID)
	if err != nil {
		return nil, fmt.Errorf("find operation: %w", err)
	}
	if op.BOMID != bomID {
		return nil, NewPreconditionError("bom operation", "operation does not belong to this BOM")
	}

	if req.Name != "" {
		op.Name = req.Name
	}
	op.WorkcenterID = req.WorkcenterID
	op.TimeCycle = req.TimeCycle
	op.SetupTime = req.SetupTime
	op.UpdatedAt = time.Now()

	if err := s.bomRepo.UpdateOperation(ctx, op); err != nil {
		return nil, fmt.Errorf("update operation: %w", err)
	}
	if err := s.Recompute(ctx, bomID); err != nil {
		return nil, err
	}
	return op, nil
}

// RemoveOperation 删除工序，随后重算成本
func (s *BOMService) RemoveOperation(ctx context.Context, bomID, opID string) error {
	if _, err := s.mutableBOM(ctx, bomID); err != nil {
		return err
	}
	op, err := s.bomRepo.FindOperationByID(ctx, opID)
	if err != nil {
		return fmt.Errorf("find operation: %w", err)
	}
	if op.BOMID != bomID {
		return NewPreconditionError("bom operation", "operation does not belong to this BOM")
	}
	if err := s.bomRepo.RemoveOperation(ctx, opID); err != nil {
		return fmt.Errorf("remove operation: %w", err)
	}
	return s.Recompute(ctx, bomID)
}

// SubmitForReview 提交评审：draft → review
func (s *BOMService) SubmitForReview(ctx context.Context, id string) (*entity.BOM, error) {
	bom, err := s.bomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find BOM: %w", err)
	}
	if bom.ApprovalStatus != entity.BOMStatusDraft {
		return nil, NewPreconditionError("BOM "+bom.Code, "can only submit from draft")
	}
	bom.ApprovalStatus = entity.BOMStatusReview
	bom.UpdatedAt = time.Now()
	if err := s.bomRepo.Update(ctx, bom); err != nil {
		return nil, fmt.Errorf("update BOM: %w", err)
	}
	return bom, nil
}

// Approve 审批通过：review → approved。之后结构只能经ECO实施修改。
func (s *BOMService) Approve(ctx context.Context, actor Actor, id string) (*entity.BOM, error) {
	if !actor.HasCapability(RoleManager) {
		return nil, &AuthorizationError{Capability: RoleManager}
	}
	bom, err := s.bomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find BOM: %w", err)
	}
	if bom.ApprovalStatus != entity.BOMStatusReview {
		return nil, NewPreconditionError("BOM "+bom.Code, "can only approve from review")
	}
	bom.ApprovalStatus = entity.BOMStatusApproved
	bom.UpdatedAt = time.Now()
	if err := s.bomRepo.Update(ctx, bom); err != nil {
		return nil, fmt.Errorf("update BOM: %w", err)
	}
	return bom, nil
}

// Revise 创建新修订：克隆行与工序，修订号+1，旧修订置为obsolete
func (s *BOMService) Revise(ctx context.Context, actor Actor, id string) (*entity.BOM, error) {
	old, err := s.bomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find BOM: %w", err)
	}
	if old.ApprovalStatus != entity.BOMStatusApproved {
		return nil, NewPreconditionError("BOM "+old.Code, "only approved BOMs can be revised")
	}

	now := time.Now()
	next := &entity.BOM{
		ID:             uuid.New().String()[:32],
		Code:           old.Code,
		ProductID:      old.ProductID,
		Version:        fmt.Sprintf("%d.0", old.RevisionNumber+1),
		RevisionNumber: old.RevisionNumber + 1,
		ParentBOMID:    old.ParentBOMID,
		ApprovalStatus: entity.BOMStatusDraft,
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	// 同一编码下按修订号区分
	next.Code = fmt.Sprintf("%s-R%d", old.Code, next.RevisionNumber)

	if err := s.bomRepo.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("create revision: %w", err)
	}

	for _, line := range old.Lines {
		clone := line
		clone.ID = uuid.New().String()[:32]
		clone.BOMID = next.ID
		clone.Product = nil
		clone.CreatedAt = now
		clone.UpdatedAt = now
		if err := s.bomRepo.AddLine(ctx, &clone); err != nil {
			return nil, fmt.Errorf("clone line: %w", err)
		}
	}
	for _, op := range old.Operations {
		clone := op
		clone.ID = uuid.New().String()[:32]
		clone.BOMID = next.ID
		clone.Workcenter = nil
		clone.CreatedAt = now
		clone.UpdatedAt = now
		if err := s.bomRepo.AddOperation(ctx, &clone); err != nil {
			return nil, fmt.Errorf("clone operation: %w", err)
		}
	}

	old.ApprovalStatus = entity.BOMStatusObsolete
	old.UpdatedAt = now
	if err := s.bomRepo.Update(ctx, old); err != nil {
		return nil, fmt.Errorf("obsolete old revision: %w", err)
	}

	if err := s.Recompute(ctx, next.ID); err != nil {
		return nil, err
	}
	return s.bomRepo.FindByID(ctx, next.ID)
}

// GetCostBreakdown 成本明细查询，结果短期缓存
func (s *BOMService) GetCostBreakdown(ctx context.Context, id string) (*CostBreakdown, error) {
	cacheKey := "mes:bom:breakdown:" + id
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var bd CostBreakdown
			if json.Unmarshal([]byte(cached), &bd) == nil {
				return &bd, nil
			}
		}
	}

	bom, err := s.bomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find BOM: %w", err)
	}
	bd := BuildCostBreakdown(bom)

	if s.rdb != nil {
		if data, err := json.Marshal(bd); err == nil {
			s.rdb.Set(ctx, cacheKey, data, breakdownCacheTTL)
		}
	}
	return bd, nil
}

// Recompute 重新加载BOM并重算成本与复杂度（依赖字段变化后的统一入口）
func (s *BOMService) Recompute(ctx context.Context, id string) error {
	bom, err := s.bomRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find BOM: %w", err)
	}

	ComputeCosts(bom)

	resolved := map[string]*entity.BOM{}
	resolve := func(ctx context.Context, productID string) (*entity.BOM, error) {
		if child, ok := resolved[productID]; ok {
			return child, nil
		}
		child, err := s.bomRepo.FindByProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				resolved[productID] = nil
				return nil, nil
			}
			return nil, err
		}
		resolved[productID] = child
		return child, nil
	}
	if err := ComputeComplexity(ctx, bom, resolve); err != nil {
		return fmt.Errorf("compute complexity: %w", err)
	}

	bom.UpdatedAt = time.Now()
	if err := s.bomRepo.Update(ctx, bom); err != nil {
		return fmt.Errorf("update BOM: %w", err)
	}

	if s.rdb != nil {
		s.rdb.Del(ctx, "mes:bom:breakdown:"+id)
	}
	return nil
}

// mutableBOM 加载可直接编辑的BOM：已批准/已作废的结构只能经ECO修改
func (s *BOMService) mutableBOM(ctx context.Context, id string) (*entity.BOM, error) {
	bom, err := s.bomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find BOM: %w", err)
	}
	if bom.ApprovalStatus == entity.BOMStatusApproved || bom.ApprovalStatus == entity.BOMStatusObsolete {
		return nil, NewPreconditionError("BOM "+bom.Code, "approved BOM structure can only change through an ECO")
	}
	return bom, nil
}
