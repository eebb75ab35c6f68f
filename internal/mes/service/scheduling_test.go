package service

import (
	"testing"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

func schedulingQueue() []entity.ProductionPlan {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	return []entity.ProductionPlan{
		{ID: "p1", Code: "PP-2025-0001", Priority: 1, DatePlanned: base.Add(2 * time.Hour), EstimatedDuration: 4},
		{ID: "p2", Code: "PP-2025-0002", Priority: 3, DatePlanned: base.Add(3 * time.Hour), EstimatedDuration: 2},
		{ID: "p3", Code: "PP-2025-0003", Priority: 3, DatePlanned: base, EstimatedDuration: 8},
		{ID: "p4", Code: "PP-2025-0004", Priority: 1, DatePlanned: base.Add(2 * time.Hour), EstimatedDuration: 1},
	}
}

func codesOf(plans []entity.ProductionPlan) []string {
	codes := make([]string, len(plans))
	for i, p := range plans {
		codes[i] = p.Code
	}
	return codes
}

func assertOrder(t *testing.T, got []entity.ProductionPlan, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d plans, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Code != want[i] {
			t.Errorf("Position %d: expected %s, got %s (full order %v)", i, want[i], got[i].Code, codesOf(got))
			return
		}
	}
}

func TestOrderForSchedulingPriority(t *testing.T) {
	// 高优先级在前；同优先级按计划日期；再同按编码
	ordered := orderForScheduling(schedulingQueue(), entity.SchedulingPriority)
	assertOrder(t, ordered, []string{"PP-2025-0003", "PP-2025-0002", "PP-2025-0001", "PP-2025-0004"})
}

func TestOrderForSchedulingSJF(t *testing.T) {
	ordered := orderForScheduling(schedulingQueue(), entity.SchedulingSJF)
	assertOrder(t, ordered, []string{"PP-2025-0004", "PP-2025-0002", "PP-2025-0001", "PP-2025-0003"})
}

func TestOrderForSchedulingFCFS(t *testing.T) {
	ordered := orderForScheduling(schedulingQueue(), entity.SchedulingFCFS)
	assertOrder(t, ordered, []string{"PP-2025-0003", "PP-2025-0001", "PP-2025-0004", "PP-2025-0002"})
}

func TestOrderForSchedulingCriticalPathFallsBackToFCFS(t *testing.T) {
	fcfs := orderForScheduling(schedulingQueue(), entity.SchedulingFCFS)
	cp := orderForScheduling(schedulingQueue(), entity.SchedulingCriticalPath)
	for i := range fcfs {
		if fcfs[i].Code != cp[i].Code {
			t.Fatalf("critical_path order differs from fcfs at %d: %s vs %s", i, cp[i].Code, fcfs[i].Code)
		}
	}
}

func TestOrderForSchedulingDeterministic(t *testing.T) {
	queue := schedulingQueue()
	// 同一队列的不同输入排列必须产生相同输出
	reversed := make([]entity.ProductionPlan, len(queue))
	for i, p := range queue {
		reversed[len(queue)-1-i] = p
	}

	a := orderForScheduling(queue, entity.SchedulingPriority)
	b := orderForScheduling(reversed, entity.SchedulingPriority)
	for i := range a {
		if a[i].Code != b[i].Code {
			t.Fatalf("Non-deterministic order at %d: %s vs %s", i, a[i].Code, b[i].Code)
		}
	}
}

func TestOrderForSchedulingDoesNotMutateInput(t *testing.T) {
	queue := schedulingQueue()
	first := queue[0].Code
	orderForScheduling(queue, entity.SchedulingSJF)
	if queue[0].Code != first {
		t.Errorf("Input slice was reordered")
	}
}

func TestSlotFor(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	plan := &entity.ProductionPlan{DatePlanned: start, EstimatedDuration: 2.5}

	slot := slotFor(plan)
	if !slot.Start.Equal(start) {
		t.Errorf("Expected start %v, got %v", start, slot.Start)
	}
	wantEnd := start.Add(2*time.Hour + 30*time.Minute)
	if !slot.End.Equal(wantEnd) {
		t.Errorf("Expected end %v, got %v", wantEnd, slot.End)
	}

	// 工时为0时时段长度为0
	zero := slotFor(&entity.ProductionPlan{DatePlanned: start})
	if !zero.End.Equal(zero.Start) {
		t.Errorf("Expected empty slot, got %v..%v", zero.Start, zero.End)
	}
}

func TestWouldCreateCycle(t *testing.T) {
	deps := []entity.PlanDependency{
		{PredecessorID: "a", SuccessorID: "b"},
		{PredecessorID: "b", SuccessorID: "c"},
	}

	if !wouldCreateCycle(deps, "c", "a") {
		t.Error("Expected c→a to close a cycle")
	}
	if !wouldCreateCycle(deps, "b", "a") {
		t.Error("Expected b→a to close a cycle")
	}
	if wouldCreateCycle(deps, "a", "c") {
		t.Error("a→c is a forward edge, not a cycle")
	}
	if wouldCreateCycle(deps, "c", "d") {
		t.Error("Edge to a new node cannot create a cycle")
	}
	if !wouldCreateCycle(deps, "x", "x") {
		t.Error("Self dependency is always a cycle")
	}
}
