package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
)

var (
	testManager  = Actor{ID: "mgr-001", Name: "Manager", Roles: []string{RoleManager}}
	testOperator = Actor{ID: "opr-001", Name: "Operator", Roles: []string{}}
)

func setupServices(t *testing.T) (*Services, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewServices(repos, nil, nil), repos
}

func seedApprovedBOM(t *testing.T, svc *Services, repos *repository.Repositories) *entity.BOM {
	t.Helper()
	ctx := context.Background()
	db := repos.Plan.DB()

	testutil.SeedProduct(t, db, "prod-main", "FG-001", "Finished Good", 0)
	testutil.SeedProduct(t, db, "prod-a", "RM-001", "Bracket", 10)
	testutil.SeedProduct(t, db, "prod-b", "RM-002", "Screw", 0.5)
	testutil.SeedWorkcenter(t, db, "wc-1", "WC-001", "Assembly", 60)

	bom, err := svc.BOM.Create(ctx, testOperator, &CreateBOMRequest{ProductID: "prod-main"})
	if err != nil {
		t.Fatalf("Create BOM failed: %v", err)
	}
	if _, err := svc.BOM.AddLine(ctx, bom.ID, &LineRequest{ProductID: "prod-a", Quantity: 2}); err != nil {
		t.Fatalf("AddLine failed: %v", err)
	}
	wc := "wc-1"
	if _, err := svc.BOM.AddOperation(ctx, bom.ID, &OperationRequest{Name: "assemble", WorkcenterID: &wc, TimeCycle: 30, SetupTime: 15}); err != nil {
		t.Fatalf("AddOperation failed: %v", err)
	}
	if _, err := svc.BOM.SubmitForReview(ctx, bom.ID); err != nil {
		t.Fatalf("SubmitForReview failed: %v", err)
	}
	approved, err := svc.BOM.Approve(ctx, testManager, bom.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	return approved
}

func TestBOMCostRecomputeAndApprovalLock(t *testing.T) {
	svc, repos := setupServices(t)
	ctx := context.Background()
	bom := seedApprovedBOM(t, svc, repos)

	// 2×10 材料 + 30分×60/时 人工 + 20% 制造费用
	got, err := svc.BOM.Get(ctx, bom.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.MaterialCost != 20 || got.LaborCost != 30 || got.TotalCost != 60 {
		t.Errorf("Expected costs 20/30/60, got %v/%v/%v", got.MaterialCost, got.LaborCost, got.TotalCost)
	}
	if got.ComplexityScore != 2.5 { // 1行 + 1工序×1.5
		t.Errorf("Expected complexity 2.5, got %v", got.ComplexityScore)
	}

	// 已批准BOM直接改结构被拒
	_, err = svc.BOM.AddLine(ctx, bom.ID, &LineRequest{ProductID: "prod-b", Quantity: 4})
	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected PreconditionError on approved BOM, got %v", err)
	}

	// 非经理审批无效
	bom2, err := svc.BOM.Create(ctx, testOperator, &CreateBOMRequest{ProductID: "prod-a"})
	if err != nil {
		t.Fatalf("Create second BOM failed: %v", err)
	}
	if _, err := svc.BOM.SubmitForReview(ctx, bom2.ID); err != nil {
		t.Fatalf("SubmitForReview failed: %v", err)
	}
	var ae *AuthorizationError
	if _, err := svc.BOM.Approve(ctx, testOperator, bom2.ID); !errors.As(err, &ae) {
		t.Fatalf("Expected AuthorizationError, got %v", err)
	}
}

func TestECOLifecycle(t *testing.T) {
	svc, repos := setupServices(t)
	ctx := context.Background()
	bom := seedApprovedBOM(t, svc, repos)

	eco, err := svc.ECO.Create(ctx, testOperator, &CreateECORequest{
		Title:       "Swap bracket for larger screws",
		BOMID:       bom.ID,
		ChangeType:  entity.ECOChangeTypeModification,
		Reason:      "field failures",
		ReviewerIDs: []string{"mgr-001"},
	})
	if err != nil {
		t.Fatalf("Create ECO failed: %v", err)
	}
	if eco.Status != entity.ECOStatusDraft {
		t.Fatalf("Expected draft, got %s", eco.Status)
	}

	// 物料性变更没有变更行时禁止提交
	if _, err := svc.ECO.SubmitForReview(ctx, eco.ID, testOperator); err == nil {
		t.Fatal("Submit without lines must fail")
	}

	if _, err := svc.ECO.AddLine(ctx, eco.ID, &ChangeLineRequest{
		ProductID: "prod-a", Action: entity.ECOActionModify, CurrentQty: 2, NewQty: 3,
	}); err != nil {
		t.Fatalf("AddLine modify failed: %v", err)
	}
	if _, err := svc.ECO.AddLine(ctx, eco.ID, &ChangeLineRequest{
		ProductID: "prod-b", Action: entity.ECOActionAdd, NewQty: 8, Unit: "pcs",
	}); err != nil {
		t.Fatalf("AddLine add failed: %v", err)
	}

	if _, err := svc.ECO.SubmitForReview(ctx, eco.ID, testOperator); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// 评审中不可直接实施
	var pe *PreconditionError
	if _, err := svc.ECO.Implement(ctx, eco.ID, testManager); !errors.As(err, &pe) {
		t.Fatalf("Expected PreconditionError implementing from review, got %v", err)
	}

	// 非经理不可审批
	var ae *AuthorizationError
	if _, err := svc.ECO.Approve(ctx, eco.ID, testOperator); !errors.As(err, &ae) {
		t.Fatalf("Expected AuthorizationError, got %v", err)
	}

	approved, err := svc.ECO.Approve(ctx, eco.ID, testManager)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.ApprovalDate == nil || approved.EffectiveDate == nil {
		t.Fatal("Approve must stamp approval and effective dates")
	}
	if approved.EffectiveDate.Before(*approved.ApprovalDate) {
		t.Error("Effective date must not precede approval date")
	}

	implemented, err := svc.ECO.Implement(ctx, eco.ID, testManager)
	if err != nil {
		t.Fatalf("Implement failed: %v", err)
	}
	if implemented.Status != entity.ECOStatusImplemented {
		t.Fatalf("Expected implemented, got %s", implemented.Status)
	}

	// 变更已应用且成本重算：3×10 + 8×0.5 = 34 材料
	changed, err := svc.BOM.Get(ctx, bom.ID)
	if err != nil {
		t.Fatalf("Get BOM failed: %v", err)
	}
	if len(changed.Lines) != 2 {
		t.Fatalf("Expected 2 lines after implement, got %d", len(changed.Lines))
	}
	if changed.MaterialCost != 34 {
		t.Errorf("Expected material cost 34 after change, got %v", changed.MaterialCost)
	}

	// implemented 是终态
	if _, err := svc.ECO.Cancel(ctx, eco.ID, testManager); !errors.As(err, &pe) {
		t.Fatalf("Expected PreconditionError cancelling implemented ECO, got %v", err)
	}
	if _, err := svc.ECO.ResetToDraft(ctx, eco.ID, testManager); !errors.As(err, &pe) {
		t.Fatalf("Expected PreconditionError resetting implemented ECO, got %v", err)
	}

	// 审计历史按序累积
	history, err := svc.ECO.ListHistory(ctx, eco.ID)
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(history) < 4 {
		t.Errorf("Expected at least created/submitted/approved/implemented entries, got %d", len(history))
	}
}

func TestECORejectAndReset(t *testing.T) {
	svc, repos := setupServices(t)
	ctx := context.Background()
	bom := seedApprovedBOM(t, svc, repos)

	eco, err := svc.ECO.Create(ctx, testOperator, &CreateECORequest{
		Title: "Drop bracket", BOMID: bom.ID, ChangeType: entity.ECOChangeTypeRemoval,
	})
	if err != nil {
		t.Fatalf("Create ECO failed: %v", err)
	}
	if _, err := svc.ECO.AddLine(ctx, eco.ID, &ChangeLineRequest{
		ProductID: "prod-a", Action: entity.ECOActionRemove, CurrentQty: 2,
	}); err != nil {
		t.Fatalf("AddLine failed: %v", err)
	}
	if _, err := svc.ECO.SubmitForReview(ctx, eco.ID, testOperator); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// 拒绝必须带原因
	if _, err := svc.ECO.Reject(ctx, eco.ID, testManager, ""); err == nil {
		t.Fatal("Reject without reason must fail")
	}
	rejected, err := svc.ECO.Reject(ctx, eco.ID, testManager, "not justified")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.RejectionReason != "not justified" {
		t.Errorf("Expected rejection reason persisted, got %q", rejected.RejectionReason)
	}

	// rejected → draft 可重置，拒绝原因清空
	reset, err := svc.ECO.ResetToDraft(ctx, eco.ID, testOperator)
	if err != nil {
		t.Fatalf("ResetToDraft failed: %v", err)
	}
	if reset.Status != entity.ECOStatusDraft || reset.RejectionReason != "" {
		t.Errorf("Expected clean draft after reset, got status=%s reason=%q", reset.Status, reset.RejectionReason)
	}
}

func TestPlanLifecycle(t *testing.T) {
	svc, repos := setupServices(t)
	ctx := context.Background()
	bom := seedApprovedBOM(t, svc, repos)

	datePlanned := time.Date(2025, 5, 12, 8, 0, 0, 0, time.UTC)
	plan, err := svc.Plan.Create(ctx, testOperator, &CreatePlanRequest{
		Name:        "May batch",
		ProductID:   "prod-main",
		Quantity:    10,
		BOMID:       bom.ID,
		DatePlanned: datePlanned,
	})
	if err != nil {
		t.Fatalf("Create plan failed: %v", err)
	}
	// (15 + 30×10)/60 = 5.25小时
	if plan.EstimatedDuration != 5.25 {
		t.Errorf("Expected estimated duration 5.25, got %v", plan.EstimatedDuration)
	}

	// 未确认不可排程
	var pe *PreconditionError
	if _, err := svc.Plan.Schedule(ctx, plan.ID); !errors.As(err, &pe) {
		t.Fatalf("Expected PreconditionError scheduling a draft, got %v", err)
	}

	confirmed, err := svc.Plan.Confirm(ctx, plan.ID, testOperator)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if confirmed.ManufacturingOrderID == nil {
		t.Fatal("Confirm must create and link a work order")
	}
	wos, err := svc.Plan.ListWorkOrders(ctx, "")
	if err != nil || len(wos) != 1 {
		t.Fatalf("Expected 1 work order, got %d (err=%v)", len(wos), err)
	}
	if wos[0].Origin != plan.Code {
		t.Errorf("Work order origin %q should be plan code %q", wos[0].Origin, plan.Code)
	}

	scheduled, err := svc.Plan.Schedule(ctx, plan.ID)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if scheduled.Status != entity.PlanStatusScheduled {
		t.Fatalf("Expected scheduled, got %s", scheduled.Status)
	}
	if scheduled.DateStart == nil || scheduled.DateEnd == nil {
		t.Fatal("Schedule must assign a slot")
	}
	wantEnd := datePlanned.Add(5*time.Hour + 15*time.Minute)
	if !scheduled.DateEnd.Equal(wantEnd) {
		t.Errorf("Expected slot end %v, got %v", wantEnd, scheduled.DateEnd)
	}

	if _, err := svc.Plan.StartProduction(ctx, plan.ID); err != nil {
		t.Fatalf("StartProduction failed: %v", err)
	}
	done, err := svc.Plan.Complete(ctx, plan.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.ProgressPercentage != 100 {
		t.Errorf("Expected progress 100 after completion, got %v", done.ProgressPercentage)
	}
	if _, err := svc.Plan.Cancel(ctx, plan.ID); !errors.As(err, &pe) {
		t.Fatalf("Expected PreconditionError cancelling a done plan, got %v", err)
	}

	// 效率 = 5.25/7×100
	withActual, err := svc.Plan.SetActualDuration(ctx, plan.ID, 7)
	if err != nil {
		t.Fatalf("SetActualDuration failed: %v", err)
	}
	if withActual.Efficiency != 75 {
		t.Errorf("Expected efficiency 75, got %v", withActual.Efficiency)
	}
}

func TestPlanRequirementsAndProgress(t *testing.T) {
	svc, repos := setupServices(t)
	ctx := context.Background()
	bom := seedApprovedBOM(t, svc, repos)

	plan, err := svc.Plan.Create(ctx, testOperator, &CreatePlanRequest{
		Name: "Tracked batch", ProductID: "prod-main", Quantity: 2, BOMID: bom.ID,
		DatePlanned: time.Now().AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatalf("Create plan failed: %v", err)
	}

	// 资源需求成本：2×4小时×50 = 400
	rr, err := svc.Plan.AddRequirement(ctx, plan.ID, &RequirementRequest{
		ResourceType: entity.ResourceTypeMachine, QuantityRequired: 2, DurationHours: 4, CostPerHour: 50,
	})
	if err != nil {
		t.Fatalf("AddRequirement failed: %v", err)
	}
	if rr.TotalCost != 400 {
		t.Errorf("Expected requirement cost 400, got %v", rr.TotalCost)
	}
	if _, err := svc.Plan.AddRequirement(ctx, plan.ID, &RequirementRequest{
		ResourceType: entity.ResourceTypeLabor, QuantityRequired: 1, DurationHours: 8, CostPerHour: 25,
	}); err != nil {
		t.Fatalf("AddRequirement failed: %v", err)
	}

	got, err := svc.Plan.Get(ctx, plan.ID)
	if err != nil {
		t.Fatalf("Get plan failed: %v", err)
	}
	if got.EstimatedCost != 600 {
		t.Errorf("Expected estimated cost 600, got %v", got.EstimatedCost)
	}

	if err := svc.Plan.RemoveRequirement(ctx, rr.ID); err != nil {
		t.Fatalf("RemoveRequirement failed: %v", err)
	}
	got, _ = svc.Plan.Get(ctx, plan.ID)
	if got.EstimatedCost != 200 {
		t.Errorf("Expected estimated cost 200 after removal, got %v", got.EstimatedCost)
	}

	// 进度 = 已完成里程碑占比
	m1, err := svc.Plan.AddMilestone(ctx, plan.ID, &MilestoneRequest{Name: "materials staged"})
	if err != nil {
		t.Fatalf("AddMilestone failed: %v", err)
	}
	if _, err := svc.Plan.AddMilestone(ctx, plan.ID, &MilestoneRequest{Name: "assembly done"}); err != nil {
		t.Fatalf("AddMilestone failed: %v", err)
	}

	if _, err := svc.Plan.CompleteMilestone(ctx, m1.ID); err != nil {
		t.Fatalf("CompleteMilestone failed: %v", err)
	}
	got, _ = svc.Plan.Get(ctx, plan.ID)
	if got.ProgressPercentage != 50 {
		t.Errorf("Expected progress 50, got %v", got.ProgressPercentage)
	}

	if _, err := svc.Plan.ReopenMilestone(ctx, m1.ID); err != nil {
		t.Fatalf("ReopenMilestone failed: %v", err)
	}
	got, _ = svc.Plan.Get(ctx, plan.ID)
	if got.ProgressPercentage != 0 {
		t.Errorf("Expected progress 0 after reopen, got %v", got.ProgressPercentage)
	}

	// 质检结果盖章
	qc, err := svc.Plan.AddQualityCheck(ctx, plan.ID, &QualityCheckRequest{CheckType: "incoming"})
	if err != nil {
		t.Fatalf("AddQualityCheck failed: %v", err)
	}
	recorded, err := svc.Plan.RecordQualityCheck(ctx, qc.ID, testOperator, entity.QCStatusPass, "all good")
	if err != nil {
		t.Fatalf("RecordQualityCheck failed: %v", err)
	}
	if recorded.CheckDate == nil || recorded.CheckedBy == nil || *recorded.CheckedBy != testOperator.ID {
		t.Error("Quality result must stamp check date and checker")
	}

	// 依赖成环被拒
	plan2, err := svc.Plan.Create(ctx, testOperator, &CreatePlanRequest{
		Name: "Follow-up batch", ProductID: "prod-main", Quantity: 1,
		DatePlanned: time.Now().AddDate(0, 0, 14),
	})
	if err != nil {
		t.Fatalf("Create second plan failed: %v", err)
	}
	if err := svc.Plan.AddDependency(ctx, plan.ID, plan2.ID); err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}
	var ve *ValidationError
	if err := svc.Plan.AddDependency(ctx, plan2.ID, plan.ID); !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError on cycle, got %v", err)
	}
}
