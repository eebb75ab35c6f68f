package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/sse"
	"github.com/google/uuid"
)

// ECOService 工程变更服务：生命周期状态机与变更实施
type ECOService struct {
	ecoRepo  *repository.ECORepository
	bomRepo  *repository.BOMRepository
	bomSvc   *BOMService
	notifier Notifier
}

// NewECOService 创建工程变更服务
func NewECOService(ecoRepo *repository.ECORepository, bomRepo *repository.BOMRepository, bomSvc *BOMService, notifier Notifier) *ECOService {
	return &ECOService{
		ecoRepo:  ecoRepo,
		bomRepo:  bomRepo,
		bomSvc:   bomSvc,
		notifier: notifier,
	}
}

// CreateECORequest 创建ECO请求
type CreateECORequest struct {
	Title       string   `json:"title" binding:"required"`
	BOMID       string   `json:"bom_id" binding:"required"`
	ChangeType  string   `json:"change_type" binding:"required"`
	Reason      string   `json:"reason"`
	ReviewerIDs []string `json:"reviewer_ids"`
}

// UpdateECORequest 更新ECO请求
type UpdateECORequest struct {
	Title         string     `json:"title"`
	Reason        string     `json:"reason"`
	ReviewerIDs   []string   `json:"reviewer_ids"`
	EffectiveDate *time.Time `json:"effective_date"`
}

// ChangeLineRequest 变更行请求
type ChangeLineRequest struct {
	ProductID  string  `json:"product_id" binding:"required"`
	Action     string  `json:"action" binding:"required"` // add/remove/modify
	CurrentQty float64 `json:"current_qty"`
	NewQty     float64 `json:"new_qty"`
	Unit       string  `json:"unit"`
}

// validateChangeLine 行级校验，与ECO状态无关
func validateChangeLine(action string, currentQty, newQty float64) error {
	if newQty < 0 {
		return NewValidationError("new_qty", "must not be negative")
	}
	switch action {
	case entity.ECOActionAdd:
		if currentQty != 0 {
			return NewValidationError("action", "component already exists, use modify")
		}
	case entity.ECOActionRemove:
		if currentQty <= 0 {
			return NewValidationError("action", "component does not exist")
		}
	case entity.ECOActionModify:
		if currentQty <= 0 {
			return NewValidationError("action", "component does not exist")
		}
	default:
		return NewValidationError("action", "unknown action: "+action)
	}
	return nil
}

// validateECODates 生效日期不得早于审批日期，每次写入都检查
func validateECODates(eco *entity.ECO) error {
	if eco.EffectiveDate != nil && eco.ApprovalDate != nil && eco.EffectiveDate.Before(*eco.ApprovalDate) {
		return NewValidationError("effective_date", "must not be before approval date")
	}
	return nil
}

// changeTypeNeedsLines 物料性变更必须带变更行
func changeTypeNeedsLines(changeType string) bool {
	switch changeType {
	case entity.ECOChangeTypeAddition, entity.ECOChangeTypeRemoval, entity.ECOChangeTypeModification:
		return true
	}
	return false
}

// Create 创建ECO（草稿态）
func (s *ECOService) Create(ctx context.Context, actor Actor, req *CreateECORequest) (*entity.ECO, error) {
	if _, err := s.bomRepo.FindByID(ctx, req.BOMID); err != nil {
		return nil, fmt.Errorf("BOM not found: %w", err)
	}

	code, err := s.ecoRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	now := time.Now()
	eco := &entity.ECO{
		ID:          uuid.New().String()[:32],
		Code:        code,
		Title:       req.Title,
		BOMID:       req.BOMID,
		ChangeType:  req.ChangeType,
		Status:      entity.ECOStatusDraft,
		Reason:      req.Reason,
		ReviewerIDs: req.ReviewerIDs,
		RequestedBy: actor.ID,
		RequestDate: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.ecoRepo.Create(ctx, eco); err != nil {
		return nil, fmt.Errorf("create ECO: %w", err)
	}

	s.addHistory(ctx, eco.ID, actor.ID, entity.ECOHistoryCreated,
		fmt.Sprintf("ECO %s created for BOM %s", eco.Code, eco.BOMID), nil)
	return eco, nil
}

// Get 获取ECO详情
func (s *ECOService) Get(ctx context.Context, id string) (*entity.ECO, error) {
	return s.ecoRepo.FindByID(ctx, id)
}

// List 获取ECO列表
func (s *ECOService) List(ctx context.Context, filters map[string]interface{}) ([]entity.ECO, error) {
	return s.ecoRepo.List(ctx, filters)
}

// ListHistory 获取操作历史
func (s *ECOService) ListHistory(ctx context.Context, id string) ([]entity.ECOHistory, error) {
	return s.ecoRepo.ListHistory(ctx, id)
}

// GetPendingReviews 获取待某用户评审的ECO
func (s *ECOService) GetPendingReviews(ctx context.Context, userID string) ([]entity.ECO, error) {
	return s.ecoRepo.ListPendingReviews(ctx, userID)
}

// Update 更新ECO（仅草稿可编辑）
func (s *ECOService) Update(ctx context.Context, id string, actor Actor, req *UpdateECORequest) (*entity.ECO, error) {
	eco, err := s.ecoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find ECO: %w", err)
	}
	if eco.Status != entity.ECOStatusDraft {
		return nil, NewPreconditionError("ECO "+eco.Code, "can only be updated in draft status")
	}

	if req.Title != "" {
		eco.Title = req.Title
	}
	if req.Reason != "" {
		eco.Reason = req.Reason
	}
	if req.ReviewerIDs != nil {
		eco.ReviewerIDs = req.ReviewerIDs
	}
	if req.EffectiveDate != nil {
		eco.EffectiveDate = req.EffectiveDate
	}
	if err := validateECODates(eco); err != nil {
		return nil, err
	}
	eco.UpdatedAt = time.Now()

	if err := s.ecoRepo.Update(ctx, eco); err != nil {
		return nil, fmt.Errorf("update ECO: %w", err)
	}
	s.addHistory(ctx, id, actor.ID, entity.ECOHistoryUpdated, "ECO updated", nil)
	return eco, nil
}

// AddLine 添加变更行（仅草稿）
func (s *ECOService) AddLine(ctx context.Context, ecoID string, req *ChangeLineRequest) (*entity.ECOLine, error) {
	eco, err := s.ecoRepo.FindByID(ctx, ecoID)
	if err != nil {
		return nil, fmt.Errorf("find ECO: %w", err)
	}
	if eco.Status != entity.ECOStatusDraft {
		return nil, NewPreconditionError("ECO "+eco.Code, "change lines can only be edited in draft status")
	}
	if err := validateChangeLine(req.Action, req.CurrentQty, req.NewQty); err != nil {
		return nil, err
	}

	maxOrder := 0
	for _, l := range eco.Lines {
		if l.SortOrder > maxOrder {
			maxOrder = l.SortOrder
		}
	}

	line := &entity.ECOLine{
		ID:         uuid.New().String()[:32],
		ECOID:      ecoID,
		ProductID:  req.ProductID,
		Action:     req.Action,
		CurrentQty: req.CurrentQty,
		NewQty:     req.NewQty,
		Unit:       req.Unit,
		SortOrder:  maxOrder + 1,
		CreatedAt:  time.Now(),
	}
	if err := s.ecoRepo.AddLine(ctx, line); err != nil {
		return nil, fmt.Errorf("add change line: %w", err)
	}
	return line, nil
}

// RemoveLine 删除变更行（仅草稿）
func (s *ECOService) RemoveLine(ctx context.Context, ecoID, lineID string) error {
	eco, err := s.ecoRepo.FindByID(ctx, ecoID)
	if err != nil {
		return fmt.Errorf("find ECO: %w", err)
	}
	if eco.Status != entity.ECOStatusDraft {
		return NewPreconditionError("ECO "+eco.Code, "change lines can only be edited in draft status")
	}
	return s.ecoRepo.RemoveLine(ctx, lineID)
}

// SubmitForReview 提交评审：draft → review，通知评审人
func (s *ECOService) SubmitForReview(ctx context.Context, id string, actor Actor) (*entity.ECO, error) {
	eco, err := s.ecoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find ECO: %w", err)
	}
	if eco.Status != entity.ECOStatusDraft {
		return nil, NewPreconditionError("ECO "+eco.Code, "can only be submitted from draft status")
	}
	if changeTypeNeedsLines(eco.ChangeType) && len(eco.Lines) == 0 {
		return nil, NewValidationError("lines", "change order of type "+eco.ChangeType+" requires at least one change line")
	}

	eco.Status = entity.ECOStatusReview
	eco.UpdatedAt = time.Now()
	if err := s.ecoRepo.Update(ctx, eco); err != nil {
		return nil, fmt.Errorf("update ECO: %w", err)
	}

	s.addHistory(ctx, id, actor.ID, entity.ECOHistorySubmitted,
		fmt.Sprintf("ECO %s submitted for review", eco.Code), nil)
	if s.notifier != nil {
		for _, reviewerID := range eco.ReviewerIDs {
			s.notifier.ScheduleActivity(ctx, reviewerID,
				fmt.Sprintf("Review ECO %s", eco.Code),
				fmt.Sprintf("%s: %s", eco.Title, eco.Reason))
		}
	}
	sse.PublishECOUpdate(eco.ID, "submitted")
	return eco, nil
}

// Approve 审批通过：review → approved，需要经理能力
func (s *ECOService) Approve(ctx context.Context, id string, actor Actor) (*entity.ECO, error) {
	if !actor.HasCapability(RoleManager) {
		return nil, &AuthorizationError{Capability: RoleManager}
	}
	eco, err := s.ecoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find ECO: %w", err)
	}
	if eco.Status != entity.ECOStatusReview {
		return nil, NewPreconditionError("ECO "+eco.Code, "can only approve from review status")
	}
	if len(eco.Lines) == 0 && changeTypeNeedsLines(eco.ChangeType) {
		return nil, NewValidationError("lines", "approved change order requires change lines")
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	eco.Status = entity.ECOStatusApproved
	eco.ApprovedBy = &actor.ID
	eco.ApprovalDate = &today
	if eco.EffectiveDate == nil {
		eco.EffectiveDate = &today
	}
	if err := validateECODates(eco); err != nil {
		return nil, err
	}
	eco.UpdatedAt = now

	if err := s.ecoRepo.Update(ctx, eco); err != nil {
		return nil, fmt.Errorf("update ECO: %w", err)
	}

	s.addHistory(ctx, id, actor.ID, entity.ECOHistoryApproved,
		fmt.Sprintf("ECO %s approved by %s", eco.Code, actor.Name), nil)
	if s.notifier != nil {
		s.notifier.PostMessage(ctx, eco.RequestedBy,
			fmt.Sprintf("ECO %s has been approved by %s", eco.Code, actor.Name))
	}
	sse.PublishECOUpdate(eco.ID, "approved")
	return eco, nil
}

// Reject 审批拒绝：review → rejected，需要经理能力和拒绝原因
func (s *ECOService) Reject(ctx context.Context, id string, actor Actor, reason string) (*entity.ECO, error) {
	if !actor.HasCapability(RoleManager) {
		return nil, &AuthorizationError{Capability: RoleManager}
	}
	if reason == "" {
		return nil, NewValidationError("rejection_reason", "is required")
	}
	eco, err := s.ecoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find ECO: %w", err)
	}
	if eco.Status != entity.ECOStatusReview {
		return nil, NewPreconditionError("ECO "+eco.Code, "can only reject from review status")
	}

	eco.Status = entity.ECOStatusRejected
	eco.RejectionReason = reason
	eco.UpdatedAt = time.Now()
	if err := s.ecoRepo.Update(ctx, eco); err != nil {
		return nil, fmt.Errorf("update ECO: %w", err)
	}

	s.addHistory(ctx, id, actor.ID, entity.ECOHistoryRejected,
		fmt.Sprintf("ECO %s rejected: %s", eco.Code, reason), nil)
	if s.notifier != nil {
		s.notifier.PostMessage(ctx, eco.RequestedBy,
			fmt.Sprintf("ECO %s has been rejected: %s", eco.Code, reason))
	}
	sse.PublishECOUpdate(eco.ID, "rejected")
	return eco, nil
}

// Implement 实施：approved → implemented，按行序把变更应用到目标BOM。
// 任一行失败即中止后续行；已应用的行不回滚，整体报告失败。
func (s *ECOService) Implement(ctx context.Context, id string, actor Actor) (*entity.ECO, error) {
	eco, err := s.ecoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find ECO: %w", err)
	}
	if eco.Status != entity.ECOStatusApproved {
		return nil, NewPreconditionError("ECO "+eco.Code, "can only implement an approved change order")
	}
	if len(eco.Lines) == 0 && changeTypeNeedsLines(eco.ChangeType) {
		return nil, NewValidationError("lines", "implemented change order requires change lines")
	}

	bom, err := s.bomRepo.FindByID(ctx, eco.BOMID)
	if err != nil {
		return nil, fmt.Errorf("find target BOM: %w", err)
	}

	// 当前BOM物料行索引
	existing := make(map[string]*entity.BOMLine, len(bom.Lines))
	for i := range bom.Lines {
		existing[bom.Lines[i].ProductID] = &bom.Lines[i]
	}

	// 先整体校验：任一变更行不满足前置条件时整单中止，不落任何修改
	if err := checkChangeLines(bom, existing, eco.Lines); err != nil {
		s.addHistory(ctx, id, actor.ID, entity.ECOHistoryUpdated,
			fmt.Sprintf("implementation of ECO %s aborted: %v", eco.Code, err), nil)
		return nil, err
	}

	for _, change := range eco.Lines {
		if err := s.applyChangeLine(ctx, bom, existing, &change); err != nil {
			s.addHistory(ctx, id, actor.ID, entity.ECOHistoryUpdated,
				fmt.Sprintf("implementation of ECO %s aborted at product %s: %v", eco.Code, change.ProductID, err), nil)
			return nil, err
		}
	}

	if err := s.bomSvc.Recompute(ctx, bom.ID); err != nil {
		return nil, fmt.Errorf("recompute BOM after change: %w", err)
	}

	now := time.Now()
	eco.Status = entity.ECOStatusImplemented
	eco.ImplementationNotes = fmt.Sprintf("implemented at %s, %d change line(s) applied",
		now.Format(time.RFC3339), len(eco.Lines))
	eco.UpdatedAt = now
	if err := s.ecoRepo.Update(ctx, eco); err != nil {
		return nil, fmt.Errorf("update ECO: %w", err)
	}

	s.addHistory(ctx, id, actor.ID, entity.ECOHistoryImplemented,
		fmt.Sprintf("ECO %s implemented on BOM %s", eco.Code, bom.Code), nil)
	sse.PublishECOUpdate(eco.ID, "implemented")
	return eco, nil
}

// checkChangeLines 在内存中预演整组变更行，不产生写入
func checkChangeLines(bom *entity.BOM, existing map[string]*entity.BOMLine, changes []entity.ECOLine) error {
	present := make(map[string]bool, len(existing))
	for productID := range existing {
		present[productID] = true
	}
	for _, change := range changes {
		productName := change.ProductID
		if change.Product != nil {
			productName = change.Product.Name
		}
		if change.NewQty < 0 {
			return NewValidationError("newQty", "new quantity must not be negative for "+productName)
		}
		switch change.Action {
		case entity.ECOActionAdd:
			if present[change.ProductID] {
				return NewPreconditionError("ECO line",
					fmt.Sprintf("cannot add %s: component already exists on BOM %s", productName, bom.Code))
			}
			present[change.ProductID] = true
		case entity.ECOActionRemove:
			if !present[change.ProductID] {
				return NewPreconditionError("ECO line",
					fmt.Sprintf("cannot remove %s: component not present on BOM %s", productName, bom.Code))
			}
			delete(present, change.ProductID)
		case entity.ECOActionModify:
			if !present[change.ProductID] {
				return NewPreconditionError("ECO line",
					fmt.Sprintf("cannot modify %s: component not present on BOM %s", productName, bom.Code))
			}
		default:
			return NewValidationError("action", "unknown action: "+change.Action)
		}
	}
	return nil
}

// applyChangeLine 把单条变更行应用到BOM，失败时带上产品与原因
func (s *ECOService) applyChangeLine(ctx context.Context, bom *entity.BOM, existing map[string]*entity.BOMLine, change *entity.ECOLine) error {
	productName := change.ProductID
	if change.Product != nil {
		productName = change.Product.Name
	}

	switch change.Action {
	case entity.ECOActionAdd:
		if _, ok := existing[change.ProductID]; ok {
			return NewPreconditionError("ECO line",
				fmt.Sprintf("cannot add %s: component already exists on BOM %s", productName, bom.Code))
		}
		unit := change.Unit
		if unit == "" {
			unit = "pcs"
		}
		maxOrder := 0
		for _, l := range existing {
			if l.SortOrder > maxOrder {
				maxOrder = l.SortOrder
			}
		}
		now := time.Now()
		line := &entity.BOMLine{
			ID:        uuid.New().String()[:32],
			BOMID:     bom.ID,
			ProductID: change.ProductID,
			Quantity:  change.NewQty,
			Unit:      unit,
			SortOrder: maxOrder + 1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.bomRepo.AddLine(ctx, line); err != nil {
			return fmt.Errorf("add line for %s: %w", productName, err)
		}
		existing[change.ProductID] = line

	case entity.ECOActionRemove:
		line, ok := existing[change.ProductID]
		if !ok {
			return NewPreconditionError("ECO line",
				fmt.Sprintf("cannot remove %s: component not present on BOM %s", productName, bom.Code))
		}
		if err := s.bomRepo.RemoveLine(ctx, line.ID); err != nil {
			return fmt.Errorf("remove line for %s: %w", productName, err)
		}
		delete(existing, change.ProductID)

	case entity.ECOActionModify:
		line, ok := existing[change.ProductID]
		if !ok {
			return NewPreconditionError("ECO line",
				fmt.Sprintf("cannot modify %s: component not present on BOM %s", productName, bom.Code))
		}
		line.Quantity = change.NewQty
		if change.Unit != "" {
			line.Unit = change.Unit
		}
		line.UpdatedAt = time.Now()
		if err := s.bomRepo.UpdateLine(ctx, line); err != nil {
			return fmt.Errorf("update line for %s: %w", productName, err)
		}

	default:
		return NewValidationError("action", "unknown action: "+change.Action)
	}
	return nil
}

// Cancel 取消：draft/review/approved → cancelled，已实施的不可取消
func (s *ECOService) Cancel(ctx context.Context, id string, actor Actor) (*entity.ECO, error) {
	eco, err := s.ecoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find ECO: %w", err)
	}
	switch eco.Status {
	case entity.ECOStatusDraft, entity.ECOStatusReview, entity.ECOStatusApproved:
		// 可取消
	case entity.ECOStatusImplemented:
		return nil, NewPreconditionError("ECO "+eco.Code, "an implemented change order cannot be cancelled")
	default:
		return nil, NewPreconditionError("ECO "+eco.Code, "cannot cancel from status "+eco.Status)
	}

	eco.Status = entity.ECOStatusCancelled
	eco.UpdatedAt = time.Now()
	if err := s.ecoRepo.Update(ctx, eco); err != nil {
		return nil, fmt.Errorf("update ECO: %w", err)
	}
	s.addHistory(ctx, id, actor.ID, entity.ECOHistoryCancelled,
		fmt.Sprintf("ECO %s cancelled", eco.Code), nil)
	sse.PublishECOUpdate(eco.ID, "cancelled")
	return eco, nil
}

// ResetToDraft 重置：rejected/cancelled → draft，implemented不可逆
func (s *ECOService) ResetToDraft(ctx context.Context, id string, actor Actor) (*entity.ECO, error) {
	eco, err := s.ecoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find ECO: %w", err)
	}
	if eco.Status != entity.ECOStatusRejected && eco.Status != entity.ECOStatusCancelled {
		return nil, NewPreconditionError("ECO "+eco.Code, "only rejected or cancelled change orders can be reset to draft")
	}

	eco.Status = entity.ECOStatusDraft
	eco.RejectionReason = ""
	eco.ApprovedBy = nil
	eco.ApprovalDate = nil
	eco.UpdatedAt = time.Now()
	if err := s.ecoRepo.Update(ctx, eco); err != nil {
		return nil, fmt.Errorf("update ECO: %w", err)
	}
	s.addHistory(ctx, id, actor.ID, entity.ECOHistoryReset,
		fmt.Sprintf("ECO %s reset to draft", eco.Code), nil)
	return eco, nil
}

// addHistory 追加审计记录
func (s *ECOService) addHistory(ctx context.Context, ecoID, userID, action, message string, detail map[string]interface{}) {
	h := &entity.ECOHistory{
		ID:        uuid.New().String()[:32],
		ECOID:     ecoID,
		Action:    action,
		Message:   message,
		UserID:    userID,
		Detail:    entity.JSONB(detail),
		CreatedAt: time.Now(),
	}
	s.ecoRepo.AddHistory(ctx, h)
}
