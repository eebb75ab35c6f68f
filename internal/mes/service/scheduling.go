package service

import (
	"sort"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

// 批量调度：每次调度都对全部已确认计划重新排序并分配时段。
// 时段分配不做资源冲突检查，重叠时段是允许的（与原行为一致）。

// Slot 调度产生的时间段
type Slot struct {
	Start time.Time
	End   time.Time
}

// orderForScheduling 按策略对已确认队列排序。末位以编码为决胜键，
// 保证同一队列重复调度结果逐字节一致。
func orderForScheduling(plans []entity.ProductionPlan, method string) []entity.ProductionPlan {
	ordered := make([]entity.ProductionPlan, len(plans))
	copy(ordered, plans)

	switch method {
	case entity.SchedulingPriority:
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].Priority != ordered[j].Priority {
				return ordered[i].Priority > ordered[j].Priority
			}
			if !ordered[i].DatePlanned.Equal(ordered[j].DatePlanned) {
				return ordered[i].DatePlanned.Before(ordered[j].DatePlanned)
			}
			return ordered[i].Code < ordered[j].Code
		})
	case entity.SchedulingSJF:
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].EstimatedDuration != ordered[j].EstimatedDuration {
				return ordered[i].EstimatedDuration < ordered[j].EstimatedDuration
			}
			return ordered[i].Code < ordered[j].Code
		})
	default:
		// fcfs；critical_path 的最长路径算法未实现，回落到fcfs
		sort.SliceStable(ordered, func(i, j int) bool {
			if !ordered[i].DatePlanned.Equal(ordered[j].DatePlanned) {
				return ordered[i].DatePlanned.Before(ordered[j].DatePlanned)
			}
			return ordered[i].Code < ordered[j].Code
		})
	}
	return ordered
}

// slotFor 为计划分配时段：起点即计划日期，长度为估算工时
func slotFor(plan *entity.ProductionPlan) Slot {
	start := plan.DatePlanned
	end := start.Add(time.Duration(plan.EstimatedDuration * float64(time.Hour)))
	return Slot{Start: start, End: end}
}

// wouldCreateCycle 检查新增依赖边 pred→succ 是否会让依赖图成环：
// 从 succ 出发沿既有边能否到达 pred。
func wouldCreateCycle(deps []entity.PlanDependency, predecessorID, successorID string) bool {
	if predecessorID == successorID {
		return true
	}
	adjacent := make(map[string][]string, len(deps))
	for _, d := range deps {
		adjacent[d.PredecessorID] = append(adjacent[d.PredecessorID], d.SuccessorID)
	}

	visited := map[string]bool{}
	stack := []string{successorID}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == predecessorID {
			return true
		}
		if visited[node] {
			continue
		}
		visited[node] = true
		stack = append(stack, adjacent[node]...)
	}
	return false
}
