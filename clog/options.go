package clog

// Option 日志组件选项函数
type Option func(*options)

// options 选项结构（内部使用）
type options struct {
	namespaceParts []string
}

func applyOptions(opts ...Option) *options {
	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	return opt
}

// WithNamespace 设置初始命名空间
//
// 示例：
//
//	logger, _ := clog.New(cfg, clog.WithNamespace("tenantdb", "shardstore"))
//	// 命名空间为 "tenantdb.shardstore"
func WithNamespace(parts ...string) Option {
	return func(o *options) {
		o.namespaceParts = append(o.namespaceParts, parts...)
	}
}
