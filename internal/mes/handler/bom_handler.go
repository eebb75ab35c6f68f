package handler

import (
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BOMHandler BOM与基础主数据处理器
type BOMHandler struct {
	svc            *service.BOMService
	productRepo    *repository.ProductRepository
	workcenterRepo *repository.WorkcenterRepository
}

// NewBOMHandler 创建BOM处理器
func NewBOMHandler(svc *service.BOMService, productRepo *repository.ProductRepository, workcenterRepo *repository.WorkcenterRepository) *BOMHandler {
	return &BOMHandler{svc: svc, productRepo: productRepo, workcenterRepo: workcenterRepo}
}

// Create 创建BOM
// POST /api/v1/boms
func (h *BOMHandler) Create(c *gin.Context) {
	var req service.CreateBOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	bom, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, bom)
}

// List 获取BOM列表
// GET /api/v1/boms?product_id=&approval_status=
func (h *BOMHandler) List(c *gin.Context) {
	boms, err := h.svc.List(c.Request.Context(), map[string]interface{}{
		"product_id":      c.Query("product_id"),
		"approval_status": c.Query("approval_status"),
	})
	if err != nil {
		InternalError(c, "failed to list BOMs: "+err.Error())
		return
	}
	Success(c, gin.H{"items": boms})
}

// Get 获取BOM详情
// GET /api/v1/boms/:id
func (h *BOMHandler) Get(c *gin.Context) {
	bom, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, bom)
}

// GetCostBreakdown 获取成本分解
// GET /api/v1/boms/:id/cost-breakdown
func (h *BOMHandler) GetCostBreakdown(c *gin.Context) {
	breakdown, err := h.svc.GetCostBreakdown(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, breakdown)
}

// AddLine 添加物料行
// POST /api/v1/boms/:id/lines
func (h *BOMHandler) AddLine(c *gin.Context) {
	var req service.LineRequest
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

// UpdateLine 更新物料行
// PUT /api/v1/boms/:id/lines/:lineId
func (h *BOMHandler) UpdateLine(c *gin.Context) {
	var req service.LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	line, err := h.svc.UpdateLine(c.Request.Context(), c.Param("id"), c.Param("lineId"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, line)
}

// RemoveLine 删除物料行
// DELETE /api/v1/boms/:id/lines/:lineId
func (h *BOMHandler) RemoveLine(c *gin.Context) {
	if err := h.svc.RemoveLine(c.Request.Context(), c.Param("id"), c.Param("lineId")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// AddOperation 添加工序
// POST /api/v1/boms/:id/operations
func (h *BOMHandler) AddOperation(c *gin.Context) {
	var req service.OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	op, err := h.svc.AddOperation(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, op)
}

// UpdateOperation 更新工序
// PUT /api/v1/boms/:id/operations/:opId
func (h *BOMHandler) UpdateOperation(c *gin.Context) {
	var req service.OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	op, err := h.svc.UpdateOperation(c.Request.Context(), c.Param("id"), c.Param("opId"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, op)
}

// RemoveOperation 删除工序
// DELETE /api/v1/boms/:id/operations/:opId
func (h *BOMHandler) RemoveOperation(c *gin.Context) {
	if err := h.svc.RemoveOperation(c.Request.Context(), c.Param("id"), c.Param("opId")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// SubmitForReview 提交评审
// POST /api/v1/boms/:id/submit
func (h *BOMHandler) SubmitForReview(c *gin.Context) {
	bom, err := h.svc.SubmitForReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, bom)
}

// Approve 审批通过
// POST /api/v1/boms/:id/approve
func (h *BOMHandler) Approve(c *gin.Context) {
	bom, err := h.svc.Approve(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, bom)
}

// Revise 创建修订版
// POST /api/v1/boms/:id/revise
func (h *BOMHandler) Revise(c *gin.Context) {
	bom, err := h.svc.Revise(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, bom)
}

// productRequest 产品主数据请求
type productRequest struct {
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Unit          string  `json:"unit"`
	StandardPrice float64 `json:"standard_price"`
}

// CreateProduct 创建产品
// POST /api/v1/products
func (h *BOMHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}
	now := time.Now()
	p := &entity.Product{
		ID:            uuid.New().String()[:32],
		Code:          req.Code,
		Name:          req.Name,
		Unit:          unit,
		StandardPrice: req.StandardPrice,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.productRepo.Create(c.Request.Context(), p); err != nil {
		InternalError(c, "failed to create product: "+err.Error())
		return
	}
	Created(c, p)
}

// ListProducts 获取产品列表
// GET /api/v1/products?q=
func (h *BOMHandler) ListProducts(c *gin.Context) {
	products, err := h.productRepo.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		InternalError(c, "failed to list products: "+err.Error())
		return
	}
	Success(c, gin.H{"items": products})
}

// workcenterRequest 工作中心请求
type workcenterRequest struct {
	Code        string  `json:"code" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	CostPerHour float64 `json:"cost_per_hour"`
}

// CreateWorkcenter 创建工作中心
// POST /api/v1/workcenters
func (h *BOMHandler) CreateWorkcenter(c *gin.Context) {
	var req workcenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	now := time.Now()
	w := &entity.Workcenter{
		ID:          uuid.New().String()[:32],
		Code:        req.Code,
		Name:        req.Name,
		CostPerHour: req.CostPerHour,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.workcenterRepo.Create(c.Request.Context(), w); err != nil {
		InternalError(c, "failed to create workcenter: "+err.Error())
		return
	}
	Created(c, w)
}

// ListWorkcenters 获取工作中心列表
// GET /api/v1/workcenters
func (h *BOMHandler) ListWorkcenters(c *gin.Context) {
	ws, err := h.workcenterRepo.List(c.Request.Context())
	if err != nil {
		InternalError(c, "failed to list workcenters: "+err.Error())
		return
	}
	Success(c, gin.H{"items": ws})
}
