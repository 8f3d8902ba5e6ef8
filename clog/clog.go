package clog

import "fmt"

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用默认开发配置。
// opts 为函数式选项列表，用于设置命名空间等。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = NewDevDefaultConfig("tenantdb")
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opt := applyOptions(opts...)
	return newLogger(config, opt)
}

// Default 返回默认的全局 Logger
//
// 未显式初始化时为 info 级别的 console Logger，
// 组件在未注入 Logger 时使用此实例。
func Default() Logger {
	return defaultLogger
}

var defaultLogger = mustDefault()

func mustDefault() Logger {
	logger, err := New(&Config{Level: "info", Format: "console", Output: "stderr"})
	if err != nil {
		return Discard()
	}
	return logger
}
