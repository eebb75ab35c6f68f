package entity

import "time"

// WorkOrder 制造工单（计划确认后下发给执行侧）
type WorkOrder struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	Code        string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	ProductID   string     `json:"product_id" gorm:"size:32;not null"`
	BOMID       *string    `json:"bom_id,omitempty" gorm:"size:32"`
	PlannedQty  float64    `json:"planned_qty" gorm:"type:numeric(15,4);not null"`
	PlannedDate *time.Time `json:"planned_date,omitempty"`
	Origin      string     `json:"origin" gorm:"size:64"` // 来源计划编码
	Status      string     `json:"status" gorm:"size:16;not null;default:created"`
	CreatedBy   string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

// 工单状态
const (
	WOStatusCreated   = "created"
	WOStatusReleased  = "released"
	WOStatusCompleted = "completed"
	WOStatusCancelled = "cancelled"
)
