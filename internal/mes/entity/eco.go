package entity

import "time"

// ECO 工程变更单
type ECO struct {
	ID                  string      `json:"id" gorm:"primaryKey;size:32"`
	Code                string      `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Title               string      `json:"title" gorm:"size:256;not null"`
	BOMID               string      `json:"bom_id" gorm:"size:32;not null;index"`
	ChangeType          string      `json:"change_type" gorm:"size:32;not null"`
	Status              string      `json:"status" gorm:"size:16;not null;default:draft"`
	Reason              string      `json:"reason" gorm:"type:text"`
	RejectionReason     string      `json:"rejection_reason" gorm:"type:text"`
	ImplementationNotes string      `json:"implementation_notes" gorm:"type:text"`
	ReviewerIDs         StringArray `json:"reviewer_ids" gorm:"type:jsonb"`
	RequestedBy         string      `json:"requested_by" gorm:"size:32;not null"`
	RequestDate         time.Time   `json:"request_date"`
	ApprovedBy          *string     `json:"approved_by,omitempty" gorm:"size:32"`
	ApprovalDate        *time.Time  `json:"approval_date,omitempty"`
	EffectiveDate       *time.Time  `json:"effective_date,omitempty"` // 不得早于审批日期
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`

	// 关联
	BOM   *BOM      `json:"bom,omitempty" gorm:"foreignKey:BOMID"`
	Lines []ECOLine `json:"lines,omitempty" gorm:"foreignKey:ECOID"`
}

func (ECO) TableName() string {
	return "ecos"
}

// ECOLine 变更行
type ECOLine struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	ECOID      string    `json:"eco_id" gorm:"size:32;not null;index"`
	ProductID  string    `json:"product_id" gorm:"size:32;not null"`
	Action     string    `json:"action" gorm:"size:16;not null"` // add/remove/modify
	CurrentQty float64   `json:"current_qty" gorm:"type:numeric(15,4);default:0"`
	NewQty     float64   `json:"new_qty" gorm:"type:numeric(15,4);default:0"`
	Unit       string    `json:"unit" gorm:"size:16"`
	SortOrder  int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`

	// 关联
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (ECOLine) TableName() string {
	return "eco_lines"
}

// ECOHistory ECO操作历史（追加审计，不可修改）
type ECOHistory struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ECOID     string    `json:"eco_id" gorm:"size:32;not null;index"`
	Action    string    `json:"action" gorm:"size:32;not null"`
	Message   string    `json:"message" gorm:"type:text"`
	UserID    string    `json:"user_id" gorm:"size:32;not null"`
	Detail    JSONB     `json:"detail" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at"`
}

func (ECOHistory) TableName() string {
	return "eco_histories"
}

// ECO状态
const (
	ECOStatusDraft       = "draft"
	ECOStatusReview      = "review"
	ECOStatusApproved    = "approved"
	ECOStatusImplemented = "implemented"
	ECOStatusRejected    = "rejected"
	ECOStatusCancelled   = "cancelled"
)

// ECO变更类型
const (
	ECOChangeTypeAddition     = "addition"
	ECOChangeTypeRemoval      = "removal"
	ECOChangeTypeModification = "modification"
	ECOChangeTypeProcess      = "process"
)

// 变更行动作
const (
	ECOActionAdd    = "add"
	ECOActionRemove = "remove"
	ECOActionModify = "modify"
)

// ECO历史动作
const (
	ECOHistoryCreated     = "created"
	ECOHistoryUpdated     = "updated"
	ECOHistorySubmitted   = "submitted"
	ECOHistoryApproved    = "approved"
	ECOHistoryRejected    = "rejected"
	ECOHistoryImplemented = "implemented"
	ECOHistoryCancelled   = "cancelled"
	ECOHistoryReset       = "reset_to_draft"
)
