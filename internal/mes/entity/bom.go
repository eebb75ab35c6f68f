package entity

import "time"

// BOM 物料清单
type BOM struct {
	ID             string  `json:"id" gorm:"primaryKey;size:32"`
	Code           string  `json:"code" gorm:"size:64;not null;uniqueIndex"`
	ProductID      string  `json:"product_id" gorm:"size:32;not null;index"`
	Version        string  `json:"version" gorm:"size:16;not null;default:1.0"`
	RevisionNumber int     `json:"revision_number" gorm:"not null;default:1"`
	ParentBOMID    *string `json:"parent_bom_id,omitempty" gorm:"size:32"` // 导航引用，不拥有子BOM
	ApprovalStatus string  `json:"approval_status" gorm:"size:16;not null;default:draft"`

	// 成本分析（派生字段，行/工序变化时重算）
	MaterialCost    float64 `json:"material_cost" gorm:"type:numeric(15,4);default:0"`
	LaborCost       float64 `json:"labor_cost" gorm:"type:numeric(15,4);default:0"`
	OverheadCost    float64 `json:"overhead_cost" gorm:"type:numeric(15,4);default:0"`
	TotalCost       float64 `json:"total_cost" gorm:"type:numeric(15,4);default:0"`
	ComplexityScore float64 `json:"complexity_score" gorm:"type:numeric(10,2);default:0"`

	CreatedBy string    `json:"created_by" gorm:"size:32;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Product    *Product       `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Lines      []BOMLine      `json:"lines,omitempty" gorm:"foreignKey:BOMID"`
	Operations []BOMOperation `json:"operations,omitempty" gorm:"foreignKey:BOMID"`
}

func (BOM) TableName() string {
	return "boms"
}

// BOMLine BOM物料行
type BOMLine struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	BOMID     string    `json:"bom_id" gorm:"size:32;not null;index"`
	ProductID string    `json:"product_id" gorm:"size:32;not null"`
	Quantity  float64   `json:"quantity" gorm:"type:numeric(15,4);not null;default:1"`
	Unit      string    `json:"unit" gorm:"size:16;not null;default:pcs"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (BOMLine) TableName() string {
	return "bom_lines"
}

// BOMOperation BOM工序
type BOMOperation struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	BOMID        string    `json:"bom_id" gorm:"size:32;not null;index"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	WorkcenterID *string   `json:"workcenter_id,omitempty" gorm:"size:32"`
	TimeCycle    float64   `json:"time_cycle" gorm:"type:numeric(10,2);default:0"` // 分钟/件
	SetupTime    float64   `json:"setup_time" gorm:"type:numeric(10,2);default:0"` // 分钟/批
	SortOrder    int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// 关联
	Workcenter *Workcenter `json:"workcenter,omitempty" gorm:"foreignKey:WorkcenterID"`
}

func (BOMOperation) TableName() string {
	return "bom_operations"
}

// BOM审批状态
const (
	BOMStatusDraft    = "draft"
	BOMStatusReview   = "review"
	BOMStatusApproved = "approved"
	BOMStatusObsolete = "obsolete"
)
