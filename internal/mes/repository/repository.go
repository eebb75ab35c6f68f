package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Product    *ProductRepository
	Workcenter *WorkcenterRepository
	BOM        *BOMRepository
	ECO        *ECORepository
	Plan       *PlanRepository
	WorkOrder  *WorkOrderRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:    NewProductRepository(db),
		Workcenter: NewWorkcenterRepository(db),
		BOM:        NewBOMRepository(db),
		ECO:        NewECORepository(db),
		Plan:       NewPlanRepository(db),
		WorkOrder:  NewWorkOrderRepository(db),
	}
}

// nextCode 基于Postgres序列生成业务编码，如 ECO-2025-0001
func nextCode(ctx context.Context, db *gorm.DB, seq, prefix string) (string, error) {
	var n int
	if err := db.WithContext(ctx).Raw(fmt.Sprintf("SELECT nextval('%s')", seq)).Scan(&n).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, time.Now().Year(), n), nil
}
