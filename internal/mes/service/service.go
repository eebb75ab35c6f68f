package service

import (
	"context"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/redis/go-redis/v9"
)

// 能力角色。mes_admin 为超级角色，通过所有检查。
const (
	RoleManager = "mes_manager"
	RoleAdmin   = "mes_admin"
)

// Actor 当前操作人（来自JWT声明）
type Actor struct {
	ID    string
	Name  string
	Roles []string
}

// HasCapability 检查操作人是否持有指定能力
func (a Actor) HasCapability(role string) bool {
	for _, r := range a.Roles {
		if r == role || r == RoleAdmin {
			return true
		}
	}
	return false
}

// Notifier 通知协作方：消息推送与活动安排
type Notifier interface {
	PostMessage(ctx context.Context, userID, text string) error
	ScheduleActivity(ctx context.Context, userID, summary, note string) error
}

// Services 服务集合
type Services struct {
	BOM  *BOMService
	ECO  *ECOService
	Plan *PlanService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, notifier Notifier) *Services {
	bomSvc := NewBOMService(repos.BOM, repos.Product, repos.Workcenter, rdb)
	return &Services{
		BOM:  bomSvc,
		ECO:  NewECOService(repos.ECO, repos.BOM, bomSvc, notifier),
		Plan: NewPlanService(repos.Plan, repos.BOM, repos.WorkOrder, notifier),
	}
}
