package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
)

func setupBOMTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, nil)
	h := NewHandlers(services, repos)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/products", h.BOM.CreateProduct)
	api.POST("/workcenters", h.BOM.CreateWorkcenter)
	api.POST("/boms", h.BOM.Create)
	api.GET("/boms/:id", h.BOM.Get)
	api.GET("/boms/:id/cost-breakdown", h.BOM.GetCostBreakdown)
	api.POST("/boms/:id/lines", h.BOM.AddLine)
	api.POST("/boms/:id/submit", h.BOM.SubmitForReview)
	api.POST("/boms/:id/approve", h.BOM.Approve)
	api.POST("/ecos", h.ECO.Create)
	api.POST("/ecos/:id/submit", h.ECO.Submit)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestBOMCreateAndCostBreakdown(t *testing.T) {
	env := setupBOMTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/products", map[string]interface{}{
		"code": "FG-001", "name": "Widget", "standard_price": 0,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	productID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/products", map[string]interface{}{
		"code": "RM-001", "name": "Bracket", "standard_price": 10,
	}, token)
	componentID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/boms", map[string]interface{}{
		"product_id": productID,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	bomData := testutil.ParseResponse(w)["data"].(map[string]interface{})
	bomID := bomData["id"].(string)
	if code := bomData["code"].(string); len(code) < 4 || code[:4] != "BOM-" {
		t.Errorf("Expected generated BOM code, got %q", code)
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/boms/"+bomID+"/lines", map[string]interface{}{
		"product_id": componentID, "quantity": 3,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// 成本分解随行变化
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/boms/"+bomID+"/cost-breakdown", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	bd := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if bd["material_cost"].(float64) != 30 {
		t.Errorf("Expected material cost 30, got %v", bd["material_cost"])
	}
	if bd["total_cost"].(float64) != 36 { // 30 + 20% 制造费用
		t.Errorf("Expected total cost 36, got %v", bd["total_cost"])
	}

	// 数量非正 → 400
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/boms/"+bomID+"/lines", map[string]interface{}{
		"product_id": componentID, "quantity": -1,
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative quantity, got %d: %s", w.Code, w.Body.String())
	}

	// 不存在的BOM → 404
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/boms/no-such-bom", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBOMApprovalErrorMapping(t *testing.T) {
	env := setupBOMTest(t)
	admin := testutil.DefaultTestToken()
	operator := testutil.OperatorTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/products", map[string]interface{}{
		"code": "FG-002", "name": "Gadget",
	}, admin)
	productID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/boms", map[string]interface{}{
		"product_id": productID,
	}, admin)
	bomID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// draft 状态直接审批 → 409
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/boms/"+bomID+"/approve", nil, admin)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 approving a draft, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/boms/"+bomID+"/submit", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 无审批能力 → 403
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/boms/"+bomID+"/approve", nil, operator)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for operator, got %d: %s", w.Code, w.Body.String())
	}

	// mes_admin 拥有全部能力
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/boms/"+bomID+"/approve", nil, admin)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for admin approval, got %d: %s", w.Code, w.Body.String())
	}

	// 物料性ECO没有变更行时提交 → 400
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/ecos", map[string]interface{}{
		"title": "Empty change", "bom_id": bomID, "change_type": "addition",
	}, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	ecoID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/ecos/"+ecoID+"/submit", nil, admin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 submitting ECO without lines, got %d: %s", w.Code, w.Body.String())
	}
}
