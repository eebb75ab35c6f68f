package service

import "fmt"

// ValidationError 结构性校验失败：阻止写入，原样返回给调用方
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Msg)
	}
	return "validation failed: " + e.Msg
}

// NewValidationError 创建校验错误
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// PreconditionError 状态机前置条件不满足：阻止本次动作，实体状态不变
type PreconditionError struct {
	Entity string
	Msg    string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Entity, e.Msg)
}

// NewPreconditionError 创建前置条件错误
func NewPreconditionError(entity, msg string) error {
	return &PreconditionError{Entity: entity, Msg: msg}
}

// AuthorizationError 缺少操作所需能力
type AuthorizationError struct {
	Capability string
}

func (e *AuthorizationError) Error() string {
	return "missing capability: " + e.Capability
}

// IntegrationError 下游协作方调用失败，携带上下文标识
type IntegrationError struct {
	Target string
	Ref    string
	Err    error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%s integration failed for %s: %v", e.Target, e.Ref, e.Err)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}
