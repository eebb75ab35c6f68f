package service

import (
	"context"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

// 成本与复杂度引擎。所有派生字段在依赖输入变化时重算，重算是幂等的：
// 相同输入重复计算得到相同输出。

const overheadRate = 0.2

// childBOMResolver 把物料行的产品解析到其自身的BOM；无BOM时返回 (nil, nil)。
type childBOMResolver func(ctx context.Context, productID string) (*entity.BOM, error)

// ComputeCosts 重算BOM的四个成本字段。
// 缺失的产品或工作中心按零成本处理，不报错。
func ComputeCosts(bom *entity.BOM) {
	var materialCost float64
	for _, line := range bom.Lines {
		if line.Product == nil {
			continue
		}
		materialCost += line.Quantity * line.Product.StandardPrice
	}

	var laborCost float64
	for _, op := range bom.Operations {
		if op.Workcenter == nil {
			continue
		}
		laborCost += op.TimeCycle * op.Workcenter.CostPerHour / 60
	}

	overheadCost := (materialCost + laborCost) * overheadRate

	bom.MaterialCost = materialCost
	bom.LaborCost = laborCost
	bom.OverheadCost = overheadCost
	bom.TotalCost = materialCost + laborCost + overheadCost
}

// ComputeComplexity 重算复杂度评分：行数×1.0 + 工序数×1.5 + 嵌套层级×2.0。
func ComputeComplexity(ctx context.Context, bom *entity.BOM, resolve childBOMResolver) error {
	depth, err := bomDepth(ctx, bom, resolve, map[string]bool{})
	if err != nil {
		return err
	}
	bom.ComplexityScore = float64(len(bom.Lines))*1.0 +
		float64(len(bom.Operations))*1.5 +
		float64(depth)*2.0
	return nil
}

// bomDepth 沿 行→产品→BOM 的引用求最大嵌套深度，叶子为0。
// visited 以BOM ID防环：病态数据中的环在重访处截断，返回已走到的层级。
func bomDepth(ctx context.Context, bom *entity.BOM, resolve childBOMResolver, visited map[string]bool) (int, error) {
	if visited[bom.ID] {
		return 0, nil
	}
	visited[bom.ID] = true

	maxLevel := 0
	for _, line := range bom.Lines {
		child, err := resolve(ctx, line.ProductID)
		if err != nil {
			return 0, err
		}
		if child == nil || visited[child.ID] {
			continue
		}
		childLevel, err := bomDepth(ctx, child, resolve, visited)
		if err != nil {
			return 0, err
		}
		if childLevel+1 > maxLevel {
			maxLevel = childLevel + 1
		}
	}
	return maxLevel, nil
}

// CostBreakdown 成本明细
type CostBreakdown struct {
	BOMID        string               `json:"bom_id"`
	Lines        []LineCost           `json:"lines"`
	Operations   []OperationCost      `json:"operations"`
	MaterialCost float64              `json:"material_cost"`
	LaborCost    float64              `json:"labor_cost"`
	OverheadCost float64              `json:"overhead_cost"`
	TotalCost    float64              `json:"total_cost"`
}

// LineCost 单行物料成本
type LineCost struct {
	LineID      string  `json:"line_id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Cost        float64 `json:"cost"`
}

// OperationCost 单工序人工成本
type OperationCost struct {
	OperationID string  `json:"operation_id"`
	Name        string  `json:"name"`
	TimeCycle   float64 `json:"time_cycle"`
	CostPerHour float64 `json:"cost_per_hour"`
	Cost        float64 `json:"cost"`
}

// BuildCostBreakdown 生成逐行物料成本与逐工序人工成本明细
func BuildCostBreakdown(bom *entity.BOM) *CostBreakdown {
	bd := &CostBreakdown{BOMID: bom.ID}

	for _, line := range bom.Lines {
		lc := LineCost{
			LineID:    line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}
		if line.Product != nil {
			lc.ProductName = line.Product.Name
			lc.UnitPrice = line.Product.StandardPrice
		}
		lc.Cost = lc.Quantity * lc.UnitPrice
		bd.MaterialCost += lc.Cost
		bd.Lines = append(bd.Lines, lc)
	}

	for _, op := range bom.Operations {
		oc := OperationCost{
			OperationID: op.ID,
			Name:        op.Name,
			TimeCycle:   op.TimeCycle,
		}
		if op.Workcenter != nil {
			oc.CostPerHour = op.Workcenter.CostPerHour
		}
		oc.Cost = op.TimeCycle * oc.CostPerHour / 60
		bd.LaborCost += oc.Cost
		bd.Operations = append(bd.Operations, oc)
	}

	bd.OverheadCost = (bd.MaterialCost + bd.LaborCost) * overheadRate
	bd.TotalCost = bd.MaterialCost + bd.LaborCost + bd.OverheadCost
	return bd
}

// EstimateDuration 估算计划工时（小时）：Σ(批准备时间 + 单件周期×数量)/60。
// 未关联BOM时为0。
func EstimateDuration(bom *entity.BOM, qty float64) float64 {
	if bom == nil {
		return 0
	}
	var totalMinutes float64
	for _, op := range bom.Operations {
		totalMinutes += op.SetupTime + op.TimeCycle*qty
	}
	return totalMinutes / 60
}

// ComputeEfficiency 效率% = 估算工时/实际工时×100，无实际工时为0。
func ComputeEfficiency(estimated, actual float64) float64 {
	if actual > 0 && estimated > 0 {
		return estimated / actual * 100
	}
	return 0
}
