package dbprovider

import (
	"sort"
	"sync"

	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/xerrors"
)

// Registry 按类型短名分发 Provider
//
// 内置类型在构造时注册完毕，自定义类型应在启动阶段通过 Register
// 注册；运行期查不到类型属于部署错误，返回 CONFIG 编码错误。
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	logger    clog.Logger
}

// NewRegistry 创建并注册内置 Provider
func NewRegistry(opts *sharding.Options, regOpts ...Option) (*Registry, error) {
	if opts == nil {
		return nil, ErrOptionsNil
	}
	opts.SetDefaults()

	opt := applyOptions(regOpts...)
	r := &Registry{
		providers: make(map[string]Provider),
		logger:    opt.logger,
	}

	builtins := []Provider{
		newMySQLProvider(opts.LockTimeout),
		newPostgresProvider(opts.LockTimeout),
		newSQLiteProvider(opts.LockDir, opts.LockTimeout, opt.logger),
	}
	for _, p := range builtins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register 注册自定义 Provider，类型短名重复时覆盖
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return ErrProviderNil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Type()] = p
	r.logger.Debug("provider registered", clog.String("type", p.Type()))
	return nil
}

// Get 按类型短名查找 Provider
//
// 查不到说明启动阶段漏注册，返回 CONFIG 编码错误，调用方应视为致命。
func (r *Registry) Get(databaseType string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[databaseType]
	if !ok {
		return nil, xerrors.WithCode(
			xerrors.Newf("dbprovider: unknown database type %q", databaseType),
			sharding.CodeConfig,
		)
	}
	return p, nil
}

// Types 返回全部已注册的类型短名，按字典序排列
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.providers))
	for t := range r.providers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
