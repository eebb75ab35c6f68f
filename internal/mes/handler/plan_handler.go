package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// PlanHandler 生产计划处理器
type PlanHandler struct {
	svc *service.PlanService
}

// NewPlanHandler 创建生产计划处理器
func NewPlanHandler(svc *service.PlanService) *PlanHandler {
	return &PlanHandler{svc: svc}
}

// Create 创建计划
// POST /api/v1/plans
func (h *PlanHandler) Create(c *gin.Context) {
	var req service.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	plan, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, plan)
}

// List 获取计划列表
// GET /api/v1/plans?status=&product_id=
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.svc.List(c.Request.Context(), map[string]interface{}{
		"status":     c.Query("status"),
		"product_id": c.Query("product_id"),
	})
	if err != nil {
		InternalError(c, "failed to list plans: "+err.Error())
		return
	}
	Success(c, gin.H{"items": plans})
}

// Get 获取计划详情
// GET /api/v1/plans/:id
func (h *PlanHandler) Get(c *gin.Context) {
	plan, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, plan)
}

// Update 更新计划
// PUT /api/v1/plans/:id
func (h *PlanHandler) Update(c *gin.Context) {
	var req service.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	plan, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, plan)
}

// Confirm 确认并下发工单
// POST /api/v1/plans/:id/confirm
func (h *PlanHandler) Confirm(c *gin.Context) {
	plan, err := h.svc.Confirm(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, plan)
}

// Schedule 排程
// POST /api/v1/plans/:id/schedule
func (h *PlanHandler) Schedule(c *gin.Context) {
	plan, err := h.svc.Schedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, plan)
}

// Start 开工
// POST /api/v1/plans/:id/start
func (h *PlanHandler) Start(c *gin.Context) {
	plan, err := h.svc.StartProduction(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, plan)
}

// Complete 完工
// POST /api/v1/plans/:id/complete
func (h *PlanHandler) Complete(c *gin.Context) {
	plan, err := h.svc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, plan)
}

// Cancel 取消
// POST /api/v1/plans/:id/cancel
func (h *PlanHandler) Cancel(c *gin.Context) {
	plan, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, plan)
}

// actualDurationRequest 实际工时请求
type actualDurationRequest struct {
	Hours float64 `json:"hours" binding:"required"`
}

// SetActualDuration 录入实际工时
// POST /api/v1/plans/:id/actual-duration
func (h *PlanHandler) SetActualDuration(c *gin.Context) {
	var req actualDurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	plan, err := h.svc.SetActualDuration(c.Request.Context(), c.Param("id"), req.Hours)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, plan)
}

// dependencyRequest 依赖请求
type dependencyRequest struct {
	PredecessorID string `json:"predecessor_id" binding:"required"`
}

// AddDependency 添加前置依赖
// POST /api/v1/plans/:id/dependencies
func (h *PlanHandler) AddDependency(c *gin.Context) {
	var req dependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.AddDependency(c.Request.Context(), req.PredecessorID, c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// AddRequirement 添加资源需求
// POST /api/v1/plans/:id/requirements
func (h *PlanHandler) AddRequirement(c *gin.Context) {
	var req service.RequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	rr, err := h.svc.AddRequirement(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, rr)
}

// UpdateRequirement 更新资源需求
// PUT /api/v1/plans/:id/requirements/:reqId
func (h *PlanHandler) UpdateRequirement(c *gin.Context) {
	var req service.RequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	rr, err := h.svc.UpdateRequirement(c.Request.Context(), c.Param("reqId"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, rr)
}

// RemoveRequirement 删除资源需求
// DELETE /api/v1/plans/:id/requirements/:reqId
func (h *PlanHandler) RemoveRequirement(c *gin.Context) {
	if err := h.svc.RemoveRequirement(c.Request.Context(), c.Param("reqId")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// AddMilestone 添加里程碑
// POST /api/v1/plans/:id/milestones
func (h *PlanHandler) AddMilestone(c *gin.Context) {
	var req service.MilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m, err := h.svc.AddMilestone(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, m)
}

// CompleteMilestone 完成里程碑
// POST /api/v1/plans/:id/milestones/:msId/complete
func (h *PlanHandler) CompleteMilestone(c *gin.Context) {
	m, err := h.svc.CompleteMilestone(c.Request.Context(), c.Param("msId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, m)
}

// ReopenMilestone 重开里程碑
// POST /api/v1/plans/:id/milestones/:msId/reopen
func (h *PlanHandler) ReopenMilestone(c *gin.Context) {
	m, err := h.svc.ReopenMilestone(c.Request.Context(), c.Param("msId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, m)
}

// AddQualityCheck 添加质量检查项
// POST /api/v1/plans/:id/quality-checks
func (h *PlanHandler) AddQualityCheck(c *gin.Context) {
	var req service.QualityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	qc, err := h.svc.AddQualityCheck(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, qc)
}

// qualityResultRequest 质检结果请求
type qualityResultRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// RecordQualityCheck 记录质检结果
// POST /api/v1/plans/:id/quality-checks/:qcId/result
func (h *PlanHandler) RecordQualityCheck(c *gin.Context) {
	var req qualityResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	qc, err := h.svc.RecordQualityCheck(c.Request.Context(), c.Param("qcId"), GetActor(c), req.Status, req.Notes)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, qc)
}

// ListWorkOrders 获取制造工单列表
// GET /api/v1/work-orders?status=
func (h *PlanHandler) ListWorkOrders(c *gin.Context) {
	wos, err := h.svc.ListWorkOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		InternalError(c, "failed to list work orders: "+err.Error())
		return
	}
	Success(c, gin.H{"items": wos})
}
