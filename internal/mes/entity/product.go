package entity

import "time"

// Product 产品/物料
type Product struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	Code          string    `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name          string    `json:"name" gorm:"size:256;not null"`
	Unit          string    `json:"unit" gorm:"size:16;not null;default:pcs"`
	StandardPrice float64   `json:"standard_price" gorm:"type:numeric(15,4);default:0"`
	BOMID         *string   `json:"bom_id,omitempty" gorm:"size:32;index"` // 产品自身的制造BOM
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Workcenter 工作中心
type Workcenter struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:128;not null"`
	CostPerHour float64   `json:"cost_per_hour" gorm:"type:numeric(15,4);default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Workcenter) TableName() string {
	return "workcenters"
}
