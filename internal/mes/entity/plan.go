package entity

import "time"

// ProductionPlan 生产计划
type ProductionPlan struct {
	ID               string     `json:"id" gorm:"primaryKey;size:32"`
	Code             string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name             string     `json:"name" gorm:"size:256;not null"`
	ProductID        string     `json:"product_id" gorm:"size:32;not null"`
	Quantity         float64    `json:"quantity" gorm:"type:numeric(15,4);not null;default:1"`
	BOMID            *string    `json:"bom_id,omitempty" gorm:"size:32"`
	Status           string     `json:"status" gorm:"size:16;not null;default:draft"`
	Priority         int        `json:"priority" gorm:"not null;default:1"` // 0低 1普通 2高 3紧急
	SchedulingMethod string     `json:"scheduling_method" gorm:"size:16;not null;default:priority"`
	DatePlanned      time.Time  `json:"date_planned" gorm:"not null"`
	DateStart        *time.Time `json:"date_start,omitempty"` // 调度结果
	DateEnd          *time.Time `json:"date_end,omitempty"`   // 调度结果

	// 派生字段
	EstimatedDuration  float64 `json:"estimated_duration" gorm:"type:numeric(10,2);default:0"` // 小时
	ActualDuration     float64 `json:"actual_duration" gorm:"type:numeric(10,2);default:0"`
	Efficiency         float64 `json:"efficiency" gorm:"type:numeric(10,2);default:0"`
	ProgressPercentage float64 `json:"progress_percentage" gorm:"type:numeric(5,2);default:0"`
	EstimatedCost      float64 `json:"estimated_cost" gorm:"type:numeric(15,4);default:0"`

	ManufacturingOrderID *string   `json:"manufacturing_order_id,omitempty" gorm:"size:32"`
	CreatedBy            string    `json:"created_by" gorm:"size:32;not null"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// 关联
	Product      *Product              `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	BOM          *BOM                  `json:"bom,omitempty" gorm:"foreignKey:BOMID"`
	Requirements []ResourceRequirement `json:"requirements,omitempty" gorm:"foreignKey:PlanID"`
	Milestones   []Milestone           `json:"milestones,omitempty" gorm:"foreignKey:PlanID"`
	QualityChecks []QualityCheck       `json:"quality_checks,omitempty" gorm:"foreignKey:PlanID"`
}

func (ProductionPlan) TableName() string {
	return "production_plans"
}

// PlanDependency 计划依赖（前置→后置，构成DAG）
type PlanDependency struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	PredecessorID string    `json:"predecessor_id" gorm:"size:32;not null;index"`
	SuccessorID   string    `json:"successor_id" gorm:"size:32;not null;index"`
	CreatedAt     time.Time `json:"created_at"`
}

func (PlanDependency) TableName() string {
	return "plan_dependencies"
}

// ResourceRequirement 资源需求
type ResourceRequirement struct {
	ID               string    `json:"id" gorm:"primaryKey;size:32"`
	PlanID           string    `json:"plan_id" gorm:"size:32;not null;index"`
	ResourceType     string    `json:"resource_type" gorm:"size:16;not null"` // machine/labor/tool/material
	ResourceID       string    `json:"resource_id" gorm:"size:32"`
	QuantityRequired float64   `json:"quantity_required" gorm:"type:numeric(15,4);default:1"`
	DurationHours    float64   `json:"duration_hours" gorm:"type:numeric(10,2);default:0"`
	CostPerHour      float64   `json:"cost_per_hour" gorm:"type:numeric(15,4);default:0"`
	TotalCost        float64   `json:"total_cost" gorm:"type:numeric(15,4);default:0"` // 派生
	SortOrder        int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (ResourceRequirement) TableName() string {
	return "resource_requirements"
}

// Milestone 生产里程碑
type Milestone struct {
	ID                 string     `json:"id" gorm:"primaryKey;size:32"`
	PlanID             string     `json:"plan_id" gorm:"size:32;not null;index"`
	Name               string     `json:"name" gorm:"size:128;not null"`
	Description        string     `json:"description" gorm:"type:text"`
	PlannedDate        *time.Time `json:"planned_date,omitempty"`
	ActualDate         *time.Time `json:"actual_date,omitempty"`
	IsCompleted        bool       `json:"is_completed" gorm:"default:false"`
	ProgressPercentage float64    `json:"progress_percentage" gorm:"type:numeric(5,2);default:0"` // 里程碑处的进度快照
	SortOrder          int        `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Milestone) TableName() string {
	return "milestones"
}

// QualityCheck 质量检查
type QualityCheck struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	PlanID    string     `json:"plan_id" gorm:"size:32;not null;index"`
	CheckType string     `json:"check_type" gorm:"size:32;not null"`
	Status    string     `json:"status" gorm:"size:16;not null;default:pending"`
	CheckDate *time.Time `json:"check_date,omitempty"`
	CheckedBy *string    `json:"checked_by,omitempty" gorm:"size:32"`
	Notes     string     `json:"notes" gorm:"type:text"`
	SortOrder int        `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (QualityCheck) TableName() string {
	return "quality_checks"
}

// 计划状态
const (
	PlanStatusDraft      = "draft"
	PlanStatusConfirmed  = "confirmed"
	PlanStatusScheduled  = "scheduled"
	PlanStatusInProgress = "in_progress"
	PlanStatusDone       = "done"
	PlanStatusCancelled  = "cancelled"
)

// 计划优先级
const (
	PlanPriorityLow      = 0
	PlanPriorityNormal   = 1
	PlanPriorityHigh     = 2
	PlanPriorityCritical = 3
)

// 调度策略
const (
	SchedulingFCFS         = "fcfs"
	SchedulingSJF          = "sjf"
	SchedulingPriority     = "priority"
	SchedulingCriticalPath = "critical_path"
)

// 资源类型
const (
	ResourceTypeMachine  = "machine"
	ResourceTypeLabor    = "labor"
	ResourceTypeTool     = "tool"
	ResourceTypeMaterial = "material"
)

// 质量检查状态
const (
	QCStatusPending = "pending"
	QCStatusPass    = "pass"
	QCStatusFail    = "fail"
	QCStatusNA      = "na"
)
