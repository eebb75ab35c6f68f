package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// ECOHandler 工程变更处理器
type ECOHandler struct {
	svc *service.ECOService
}

// NewECOHandler 创建工程变更处理器
func NewECOHandler(svc *service.ECOService) *ECOHandler {
	return &ECOHandler{svc: svc}
}

// Create 创建ECO
// POST /api/v1/ecos
func (h *ECOHandler) Create(c *gin.Context) {
	var req service.CreateECORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	eco, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, eco)
}

// List 获取ECO列表
// GET /api/v1/ecos?bom_id=&status=&requested_by=
func (h *ECOHandler) List(c *gin.Context) {
	ecos, err := h.svc.List(c.Request.Context(), map[string]interface{}{
		"bom_id":       c.Query("bom_id"),
		"status":       c.Query("status"),
		"requested_by": c.Query("requested_by"),
	})
	if err != nil {
		InternalError(c, "failed to list ECOs: "+err.Error())
		return
	}
	Success(c, gin.H{"items": ecos})
}

// Get 获取ECO详情
// GET /api/v1/ecos/:id
func (h *ECOHandler) Get(c *gin.Context) {
	eco, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, eco)
}

// Update 更新ECO
// PUT /api/v1/ecos/:id
func (h *ECOHandler) Update(c *gin.Context) {
	var req service.UpdateECORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	eco, err := h.svc.Update(c.Request.Context(), c.Param("id"), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, eco)
}

// AddLine 添加变更行
// POST /api/v1/ecos/:id/lines
func (h *ECOHandler) AddLine(c *gin.Context) {
	var req service.ChangeLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	line, err := h.svc.AddLine(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, line)
}

// RemoveLine 删除变更行
// DELETE /api/v1/ecos/:id/lines/:lineId
func (h *ECOHandler) RemoveLine(c *gin.Context) {
	if err := h.svc.RemoveLine(c.Request.Context(), c.Param("id"), c.Param("lineId")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// Submit 提交评审
// POST /api/v1/ecos/:id/submit
func (h *ECOHandler) Submit(c *gin.Context) {
	eco, err := h.svc.SubmitForReview(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, eco)
}

// Approve 审批通过
// POST /api/v1/ecos/:id/approve
func (h *ECOHandler) Approve(c *gin.Context) {
	eco, err := h.svc.Approve(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, eco)
}

// rejectRequest 拒绝请求
type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject 审批拒绝
// POST /api/v1/ecos/:id/reject
func (h *ECOHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	eco, err := h.svc.Reject(c.Request.Context(), c.Param("id"), GetActor(c), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, eco)
}

// Implement 实施变更
// POST /api/v1/ecos/:id/implement
func (h *ECOHandler) Implement(c *gin.Context) {
	eco, err := h.svc.Implement(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, eco)
}

// Cancel 取消ECO
// POST /api/v1/ecos/:id/cancel
func (h *ECOHandler) Cancel(c *gin.Context) {
	eco, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, eco)
}

// Reset 重置回草稿
// POST /api/v1/ecos/:id/reset
func (h *ECOHandler) Reset(c *gin.Context) {
	eco, err := h.svc.ResetToDraft(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, eco)
}

// History 获取操作历史
// GET /api/v1/ecos/:id/history
func (h *ECOHandler) History(c *gin.Context) {
	history, err := h.svc.ListHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "failed to list history: "+err.Error())
		return
	}
	Success(c, gin.H{"items": history})
}

// PendingReviews 获取我的待评审ECO
// GET /api/v1/ecos/pending-reviews
func (h *ECOHandler) PendingReviews(c *gin.Context) {
	ecos, err := h.svc.GetPendingReviews(c.Request.Context(), GetActor(c).ID)
	if err != nil {
		InternalError(c, "failed to list pending reviews: "+err.Error())
		return
	}
	Success(c, gin.H{"items": ecos})
}
