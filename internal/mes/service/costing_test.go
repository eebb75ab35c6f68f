package service

import (
	"context"
	"math"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeCosts(t *testing.T) {
	bom := &entity.BOM{
		ID: "bom-1",
		Lines: []entity.BOMLine{
			{Quantity: 2, Product: &entity.Product{StandardPrice: 10}},
		},
		Operations: []entity.BOMOperation{
			{TimeCycle: 30, Workcenter: &entity.Workcenter{CostPerHour: 60}},
		},
	}

	ComputeCosts(bom)

	if !almostEqual(bom.MaterialCost, 20) {
		t.Errorf("Expected material cost 20, got %v", bom.MaterialCost)
	}
	if !almostEqual(bom.LaborCost, 30) {
		t.Errorf("Expected labor cost 30, got %v", bom.LaborCost)
	}
	if !almostEqual(bom.OverheadCost, 10) {
		t.Errorf("Expected overhead cost 10, got %v", bom.OverheadCost)
	}
	if !almostEqual(bom.TotalCost, 60) {
		t.Errorf("Expected total cost 60, got %v", bom.TotalCost)
	}
}

func TestComputeCostsMissingReferences(t *testing.T) {
	bom := &entity.BOM{
		ID: "bom-1",
		Lines: []entity.BOMLine{
			{Quantity: 5, Product: nil},
		},
		Operations: []entity.BOMOperation{
			{TimeCycle: 45, Workcenter: nil},
		},
	}

	ComputeCosts(bom)

	if bom.MaterialCost != 0 || bom.LaborCost != 0 || bom.OverheadCost != 0 || bom.TotalCost != 0 {
		t.Errorf("Expected all costs zero, got m=%v l=%v o=%v t=%v",
			bom.MaterialCost, bom.LaborCost, bom.OverheadCost, bom.TotalCost)
	}
}

func TestComputeCostsTotalIdentity(t *testing.T) {
	bom := &entity.BOM{
		ID: "bom-1",
		Lines: []entity.BOMLine{
			{Quantity: 3, Product: &entity.Product{StandardPrice: 7.5}},
			{Quantity: 1.5, Product: &entity.Product{StandardPrice: 12}},
			{Quantity: 10, Product: nil},
		},
		Operations: []entity.BOMOperation{
			{TimeCycle: 20, Workcenter: &entity.Workcenter{CostPerHour: 90}},
			{TimeCycle: 12, Workcenter: &entity.Workcenter{CostPerHour: 45}},
		},
	}

	ComputeCosts(bom)

	if !almostEqual(bom.TotalCost, bom.MaterialCost+bom.LaborCost+bom.OverheadCost) {
		t.Errorf("Total %v does not equal sum of components", bom.TotalCost)
	}
	if !almostEqual(bom.OverheadCost, (bom.MaterialCost+bom.LaborCost)*0.2) {
		t.Errorf("Overhead %v is not 20%% of material+labor", bom.OverheadCost)
	}

	// 重算是幂等的
	before := bom.TotalCost
	ComputeCosts(bom)
	if !almostEqual(bom.TotalCost, before) {
		t.Errorf("Recompute changed total: %v vs %v", before, bom.TotalCost)
	}
}

func noChildren(ctx context.Context, productID string) (*entity.BOM, error) {
	return nil, nil
}

func TestComputeComplexityFlat(t *testing.T) {
	bom := &entity.BOM{
		ID: "bom-1",
		Lines: []entity.BOMLine{
			{ProductID: "p1"}, {ProductID: "p2"}, {ProductID: "p3"},
		},
		Operations: []entity.BOMOperation{
			{Name: "assemble"}, {Name: "test"},
		},
	}

	if err := ComputeComplexity(context.Background(), bom, noChildren); err != nil {
		t.Fatalf("ComputeComplexity failed: %v", err)
	}
	// 3行×1.0 + 2工序×1.5 + 0层×2.0
	if !almostEqual(bom.ComplexityScore, 6) {
		t.Errorf("Expected complexity 6, got %v", bom.ComplexityScore)
	}
}

func TestComputeComplexityNested(t *testing.T) {
	grandchild := &entity.BOM{ID: "bom-3", Lines: []entity.BOMLine{{ProductID: "raw"}}}
	child := &entity.BOM{ID: "bom-2", Lines: []entity.BOMLine{{ProductID: "p-sub"}}}
	root := &entity.BOM{
		ID:    "bom-1",
		Lines: []entity.BOMLine{{ProductID: "p-child"}, {ProductID: "p-plain"}},
	}
	resolve := func(ctx context.Context, productID string) (*entity.BOM, error) {
		switch productID {
		case "p-child":
			return child, nil
		case "p-sub":
			return grandchild, nil
		}
		return nil, nil
	}

	if err := ComputeComplexity(context.Background(), root, resolve); err != nil {
		t.Fatalf("ComputeComplexity failed: %v", err)
	}
	// 2行×1.0 + 0工序 + 2层×2.0
	if !almostEqual(root.ComplexityScore, 6) {
		t.Errorf("Expected complexity 6, got %v", root.ComplexityScore)
	}

	// 加深一层评分严格增加
	deeper := func(ctx context.Context, productID string) (*entity.BOM, error) {
		if productID == "raw" {
			return &entity.BOM{ID: "bom-4"}, nil
		}
		return resolve(ctx, productID)
	}
	shallow := root.ComplexityScore
	if err := ComputeComplexity(context.Background(), root, deeper); err != nil {
		t.Fatalf("ComputeComplexity failed: %v", err)
	}
	if root.ComplexityScore <= shallow {
		t.Errorf("Expected deeper nesting to raise score, got %v <= %v", root.ComplexityScore, shallow)
	}
}

func TestComputeComplexityCyclicReferences(t *testing.T) {
	// 病态数据：两个BOM互相引用，深度计算必须终止
	a := &entity.BOM{ID: "bom-a", Lines: []entity.BOMLine{{ProductID: "prod-b"}}}
	b := &entity.BOM{ID: "bom-b", Lines: []entity.BOMLine{{ProductID: "prod-a"}}}
	resolve := func(ctx context.Context, productID string) (*entity.BOM, error) {
		if productID == "prod-b" {
			return b, nil
		}
		return a, nil
	}

	if err := ComputeComplexity(context.Background(), a, resolve); err != nil {
		t.Fatalf("ComputeComplexity failed on cycle: %v", err)
	}
	if a.ComplexityScore <= 0 {
		t.Errorf("Expected positive score, got %v", a.ComplexityScore)
	}
}

func TestBuildCostBreakdownMatchesComputeCosts(t *testing.T) {
	bom := &entity.BOM{
		ID: "bom-1",
		Lines: []entity.BOMLine{
			{ID: "l1", ProductID: "p1", Quantity: 2, Product: &entity.Product{Name: "Bracket", StandardPrice: 10}},
			{ID: "l2", ProductID: "p2", Quantity: 4, Product: &entity.Product{Name: "Screw", StandardPrice: 0.5}},
		},
		Operations: []entity.BOMOperation{
			{ID: "o1", Name: "assemble", TimeCycle: 30, Workcenter: &entity.Workcenter{CostPerHour: 60}},
		},
	}
	ComputeCosts(bom)
	bd := BuildCostBreakdown(bom)

	if !almostEqual(bd.MaterialCost, bom.MaterialCost) {
		t.Errorf("Breakdown material %v != BOM material %v", bd.MaterialCost, bom.MaterialCost)
	}
	if !almostEqual(bd.LaborCost, bom.LaborCost) {
		t.Errorf("Breakdown labor %v != BOM labor %v", bd.LaborCost, bom.LaborCost)
	}
	if !almostEqual(bd.TotalCost, bom.TotalCost) {
		t.Errorf("Breakdown total %v != BOM total %v", bd.TotalCost, bom.TotalCost)
	}
	if len(bd.Lines) != 2 || len(bd.Operations) != 1 {
		t.Fatalf("Expected 2 lines and 1 operation, got %d/%d", len(bd.Lines), len(bd.Operations))
	}
	if !almostEqual(bd.Lines[0].Cost, 20) {
		t.Errorf("Expected first line cost 20, got %v", bd.Lines[0].Cost)
	}
}

func TestEstimateDuration(t *testing.T) {
	bom := &entity.BOM{
		Operations: []entity.BOMOperation{
			{SetupTime: 30, TimeCycle: 15},
		},
	}
	// (30 + 15×2) / 60 = 1小时
	if got := EstimateDuration(bom, 2); !almostEqual(got, 1) {
		t.Errorf("Expected 1 hour, got %v", got)
	}
	if got := EstimateDuration(nil, 10); got != 0 {
		t.Errorf("Expected 0 for nil BOM, got %v", got)
	}
	if got := EstimateDuration(&entity.BOM{}, 10); got != 0 {
		t.Errorf("Expected 0 for BOM without operations, got %v", got)
	}
}

func TestComputeEfficiency(t *testing.T) {
	if got := ComputeEfficiency(10, 8); !almostEqual(got, 125) {
		t.Errorf("Expected 125, got %v", got)
	}
	if got := ComputeEfficiency(8, 10); !almostEqual(got, 80) {
		t.Errorf("Expected 80, got %v", got)
	}
	if got := ComputeEfficiency(10, 0); got != 0 {
		t.Errorf("Expected 0 for zero actual, got %v", got)
	}
	if got := ComputeEfficiency(0, 10); got != 0 {
		t.Errorf("Expected 0 for zero estimate, got %v", got)
	}
}
