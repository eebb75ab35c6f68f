package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

func TestValidateChangeLine(t *testing.T) {
	cases := []struct {
		name       string
		action     string
		currentQty float64
		newQty     float64
		wantErr    string
	}{
		{"add new component", entity.ECOActionAdd, 0, 5, ""},
		{"add existing component", entity.ECOActionAdd, 3, 5, "already exists, use modify"},
		{"remove present component", entity.ECOActionRemove, 3, 0, ""},
		{"remove absent component", entity.ECOActionRemove, 0, 0, "does not exist"},
		{"modify present component", entity.ECOActionModify, 3, 7, ""},
		{"modify absent component", entity.ECOActionModify, 0, 7, "does not exist"},
		{"negative new quantity", entity.ECOActionModify, 3, -1, "must not be negative"},
		{"unknown action", "replace", 1, 1, "unknown action"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateChangeLine(tc.action, tc.currentQty, tc.newQty)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tc.wantErr)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestValidateECODates(t *testing.T) {
	approval := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	early := approval.AddDate(0, 0, -1)
	late := approval.AddDate(0, 0, 7)

	eco := &entity.ECO{ApprovalDate: &approval, EffectiveDate: &late}
	if err := validateECODates(eco); err != nil {
		t.Errorf("Effective after approval should pass, got %v", err)
	}

	eco.EffectiveDate = &approval
	if err := validateECODates(eco); err != nil {
		t.Errorf("Same-day effective date should pass, got %v", err)
	}

	eco.EffectiveDate = &early
	if err := validateECODates(eco); err == nil {
		t.Error("Effective before approval must fail")
	}

	// 任一日期缺失时不校验
	if err := validateECODates(&entity.ECO{EffectiveDate: &early}); err != nil {
		t.Errorf("Missing approval date should pass, got %v", err)
	}
	if err := validateECODates(&entity.ECO{ApprovalDate: &approval}); err != nil {
		t.Errorf("Missing effective date should pass, got %v", err)
	}
}

func TestChangeTypeNeedsLines(t *testing.T) {
	for _, ct := range []string{entity.ECOChangeTypeAddition, entity.ECOChangeTypeRemoval, entity.ECOChangeTypeModification} {
		if !changeTypeNeedsLines(ct) {
			t.Errorf("Change type %s should require lines", ct)
		}
	}
	if changeTypeNeedsLines(entity.ECOChangeTypeProcess) {
		t.Error("Process change should not require lines")
	}
}

func TestActorHasCapability(t *testing.T) {
	manager := Actor{ID: "u1", Roles: []string{RoleManager}}
	admin := Actor{ID: "u2", Roles: []string{RoleAdmin}}
	operator := Actor{ID: "u3", Roles: []string{"viewer"}}

	if !manager.HasCapability(RoleManager) {
		t.Error("Manager role should grant manager capability")
	}
	// 管理员隐含全部能力
	if !admin.HasCapability(RoleManager) {
		t.Error("Admin role should grant manager capability")
	}
	if operator.HasCapability(RoleManager) {
		t.Error("Plain role should not grant manager capability")
	}
}

func TestCheckChangeLines(t *testing.T) {
	bom := &entity.BOM{ID: "bom-1", Code: "BOM-2025-0001"}
	existing := map[string]*entity.BOMLine{
		"prod-a": {ID: "line-a", ProductID: "prod-a", Quantity: 2},
	}

	cases := []struct {
		name    string
		changes []entity.ECOLine
		wantErr string
	}{
		{
			"valid mixed batch",
			[]entity.ECOLine{
				{Action: entity.ECOActionModify, ProductID: "prod-a", NewQty: 3},
				{Action: entity.ECOActionAdd, ProductID: "prod-b", NewQty: 8},
			},
			"",
		},
		{
			"add then modify same new component",
			[]entity.ECOLine{
				{Action: entity.ECOActionAdd, ProductID: "prod-b", NewQty: 8},
				{Action: entity.ECOActionModify, ProductID: "prod-b", NewQty: 4},
			},
			"",
		},
		{
			"remove then modify is rejected as a whole",
			[]entity.ECOLine{
				{Action: entity.ECOActionRemove, ProductID: "prod-a"},
				{Action: entity.ECOActionModify, ProductID: "prod-a", NewQty: 4},
			},
			"not present",
		},
		{
			"duplicate add",
			[]entity.ECOLine{
				{Action: entity.ECOActionAdd, ProductID: "prod-a", NewQty: 1},
			},
			"already exists",
		},
		{
			"negative qty anywhere in the batch",
			[]entity.ECOLine{
				{Action: entity.ECOActionModify, ProductID: "prod-a", NewQty: 3},
				{Action: entity.ECOActionAdd, ProductID: "prod-b", NewQty: -1},
			},
			"must not be negative",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkChangeLines(bom, existing, tc.changes)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
