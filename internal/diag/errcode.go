package diag

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"time"

	"bytecorpus/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeConfig    Code = "config"
	CodeEmpty     Code = "empty"
	CodeInvariant Code = "invariant"
	CodeDecode    Code = "decode"
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类。
// 仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, contract.ErrConfigMissing) {
		return CodeConfig
	}
	if errors.Is(err, contract.ErrEmptyCorpus) || errors.Is(err, contract.ErrNoSequences) {
		return CodeEmpty
	}
	var serr *json.SyntaxError
	var terr *json.UnmarshalTypeError
	if errors.Is(err, contract.ErrRecordInvalid) || errors.As(err, &serr) || errors.As(err, &terr) {
		return CodeDecode
	}
	if errors.Is(err, contract.ErrInvariantViolation) ||
		errors.Is(err, contract.ErrInvalidInput) ||
		errors.Is(err, contract.ErrPathInvalid) {
		return CodeInvariant
	}
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// NowUTC 返回 RFC3339 UTC 时间字符串（用于结构化日志字段 ts）。
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
