package coord

import "github.com/ceyewan/tenantdb/clog"

// Option 组件选项函数
type Option func(*options)

type options struct {
	logger clog.Logger
}

func applyOptions(opts ...Option) *options {
	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	if opt.logger == nil {
		opt.logger = clog.Default().WithNamespace("coord")
	}
	return opt
}

// WithLogger 注入日志记录器
// 组件内部会自动追加 Namespace: logger.WithNamespace("coord")
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("coord")
		}
	}
}
