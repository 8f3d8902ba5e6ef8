// Package status 提供携带用户可见结果的状态对象。
//
// 分片目录的 CRUD 操作需要把校验失败逐条返回给管理界面，
// 而不是中断整个调用链。Status 收集这些校验错误，
// 或在成功时携带一条确认消息。配置类错误不走 Status，
// 直接以 error 返回（参见 xerrors.WithCode）。
//
// 基本使用：
//
//	st := status.New()
//	if entry.Name == "" {
//	    st.AddError("the Name field is required", "Name")
//	}
//	if !st.IsValid() {
//	    return st
//	}
//	st.SetMessage("Successfully added the sharding entry " + entry.Name)
package status

import (
	"strings"

	"github.com/ceyewan/tenantdb/xerrors"
)

// FieldError 一条可归属到具体字段的校验错误
type FieldError struct {
	// Field 出错的字段名，可为空（整体性错误）
	Field string
	// Message 面向用户的错误描述
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Status 一次操作的结构化结果
//
// 零值不可用，必须通过 New 创建。非并发安全，
// 单次请求内按顺序使用。
type Status struct {
	message string
	errors  []*FieldError
}

// New 创建一个空的成功状态
func New() *Status {
	return &Status{}
}

// AddError 追加一条校验错误，可选归属字段名
//
// 返回自身以便链式调用。
func (s *Status) AddError(message string, fields ...string) *Status {
	field := ""
	if len(fields) > 0 {
		field = fields[0]
	}
	s.errors = append(s.errors, &FieldError{Field: field, Message: message})
	return s
}

// AddErr 将普通 error 追加为校验错误
func (s *Status) AddErr(err error) *Status {
	if err == nil {
		return s
	}
	s.errors = append(s.errors, &FieldError{Message: err.Error()})
	return s
}

// SetMessage 设置成功消息，仅在 IsValid 时对调用方有意义
func (s *Status) SetMessage(message string) *Status {
	s.message = message
	return s
}

// Message 返回成功消息；存在错误时返回错误摘要
func (s *Status) Message() string {
	if s.IsValid() {
		return s.message
	}
	parts := make([]string, len(s.errors))
	for i, e := range s.errors {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// IsValid 报告是否没有任何错误
func (s *Status) IsValid() bool {
	return len(s.errors) == 0
}

// HasErrors 报告是否存在错误
func (s *Status) HasErrors() bool {
	return len(s.errors) > 0
}

// Errors 返回收集到的全部校验错误
func (s *Status) Errors() []*FieldError {
	return s.errors
}

// Combine 合并另一个状态：错误全部并入，消息取后者（若非空）
func (s *Status) Combine(other *Status) *Status {
	if other == nil {
		return s
	}
	s.errors = append(s.errors, other.errors...)
	if other.message != "" {
		s.message = other.message
	}
	return s
}

// ErrOrNil 将全部校验错误折叠为一个 error，成功时返回 nil
//
// 用于调用方只关心成败、不需要逐字段归属的场景。
func (s *Status) ErrOrNil() error {
	if s.IsValid() {
		return nil
	}
	errs := make([]error, len(s.errors))
	for i, e := range s.errors {
		errs[i] = e
	}
	return xerrors.Combine(errs...)
}
