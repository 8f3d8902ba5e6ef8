package clog

import (
	"log/slog"
	"time"

	"github.com/ceyewan/tenantdb/xerrors"
)

// Field 是 slog.Attr 的类型别名，实现零内存分配
type Field = slog.Attr

// String 创建字符串字段
func String(k, v string) Field {
	return slog.String(k, v)
}

// Int 创建整数字段
func Int(k string, v int) Field {
	return slog.Int(k, v)
}

// Int64 创建64位整数字段
func Int64(k string, v int64) Field {
	return slog.Int64(k, v)
}

// Bool 创建布尔字段
func Bool(k string, v bool) Field {
	return slog.Bool(k, v)
}

// Time 创建时间字段
func Time(k string, v time.Time) Field {
	return slog.Time(k, v)
}

// Duration 创建时间长度字段
func Duration(k string, v time.Duration) Field {
	return slog.Duration(k, v)
}

// Any 创建任意类型字段
func Any(k string, v any) Field {
	return slog.Any(k, v)
}

// Strings 创建字符串切片字段
func Strings(k string, v []string) Field {
	return slog.Any(k, v)
}

// Error 创建错误字段，key 固定为 "error"
func Error(err error) Field {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// ErrorWithCode 创建错误字段，同时带出错误链中的错误码
func ErrorWithCode(err error) Field {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	if code := xerrors.GetCode(err); code != "" {
		return slog.Group("error",
			slog.String("msg", err.Error()),
			slog.String("code", code),
		)
	}
	return slog.String("error", err.Error())
}
