// Package coord 协调租户记录与分片条目两个存储之间的跨系统变更。
//
// 租户表与分片目录是两个真正独立的系统，没有共享事务可用，
// 一致性靠显式的"先做、失败再补偿"序列维护：
//   - 创建：先定条目后建租户；建租户失败时删掉刚创建的条目。
//     新增失败直接中止（什么都还没发生，必须传播）。
//   - 删除：先删租户；只有顶层独库租户才触发条目清理，清理失败
//     只记录不上抛——租户删除已经成功且是权威结果，残留一个
//     无人引用的条目是外观问题而不是正确性问题。
//
// 支持两种部署形态：sharding-only（每个租户独库）与 mixed
// （允许共享默认库，也允许复用已有条目）。
package coord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/shardstore"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/status"
	"github.com/ceyewan/tenantdb/tenant"
	"github.com/ceyewan/tenantdb/xerrors"
)

// compensateTimeout 补偿动作使用独立的短时上下文，
// 父操作已取消时也要尽力清理，避免泄漏分片条目
const compensateTimeout = 30 * time.Second

// Config 协调器配置
type Config struct {
	// ShardingOnly 为 true 时每个租户必须独库，不允许共享默认库
	ShardingOnly bool `json:"sharding_only" yaml:"sharding_only" mapstructure:"sharding_only"`
}

// CreateTenantRequest 创建租户的输入
type CreateTenantRequest struct {
	// Name 租户名；层级子租户传短名，全名由父租户名派生
	Name string

	// ParentID 父租户 ID，非 0 表示创建层级子租户
	ParentID uint

	// HasOwnDb 是否独占数据库；子租户忽略此值，继承父租户
	HasOwnDb bool

	// EntryName 复用的已有条目名（仅 mixed 形态，可选）
	EntryName string

	// ConnectionName 新建条目使用的连接名（可选，默认取配置的默认连接）
	ConnectionName string

	// DatabaseType 新建条目的数据库类型（可选，默认取配置的默认类型）
	DatabaseType string
}

// Coordinator 租户与分片条目的跨存储协调器
type Coordinator struct {
	store   shardstore.Store
	tenants tenant.Admin
	opts    *sharding.Options
	cfg     Config
	logger  clog.Logger
}

// New 创建协调器
func New(store shardstore.Store, tenants tenant.Admin, opts *sharding.Options, cfg Config, coordOpts ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, xerrors.WithCode(xerrors.New("coord: store is nil"), sharding.CodeConfig)
	}
	if tenants == nil {
		return nil, xerrors.WithCode(xerrors.New("coord: tenant admin is nil"), sharding.CodeConfig)
	}
	if opts == nil {
		return nil, sharding.ErrOptionsNil
	}
	opts.SetDefaults()

	opt := applyOptions(coordOpts...)
	return &Coordinator{
		store:   store,
		tenants: tenants,
		opts:    opts,
		cfg:     cfg,
		logger:  opt.logger,
	}, nil
}

// CreateTenant 创建租户并解析其分片条目
//
// 条目解析顺序：层级子租户复用父条目；否则复用调用方指定的已有
// 条目；否则独库租户新建条目；否则落在默认共享条目上。
// 建租户失败且本次新建过条目时执行补偿删除，补偿错误合并进
// 返回的 Status 但不会掩盖原始失败。
func (c *Coordinator) CreateTenant(ctx context.Context, req CreateTenantRequest) (*status.Status, error) {
	st := status.New()
	if req.Name == "" {
		st.AddError("the tenant name cannot be empty", "Name")
		return st, nil
	}

	// 层级子租户：全名由父租户名派生
	var parent *tenant.Tenant
	fullName := req.Name
	hasOwnDb := req.HasOwnDb
	if req.ParentID != 0 {
		var err error
		parent, err = c.tenants.GetByID(ctx, req.ParentID)
		if errors.Is(err, tenant.ErrNotFound) {
			st.AddError(fmt.Sprintf("could not find the parent tenant with id %d", req.ParentID), "ParentID")
			return st, nil
		}
		if err != nil {
			return st, transient(err, "looking up parent tenant")
		}
		if !strings.HasPrefix(req.Name, parent.Name+"|") {
			fullName = tenant.ChildName(parent.Name, req.Name)
		}
		hasOwnDb = parent.HasOwnDb
	}

	// 重名直接拒绝，不产生任何副作用
	_, err := c.tenants.GetByName(ctx, fullName)
	if err == nil {
		st.AddError(fmt.Sprintf("the tenant name %q is already used", fullName), "Name")
		return st, nil
	}
	if !errors.Is(err, tenant.ErrNotFound) {
		return st, transient(err, "checking tenant name")
	}

	entryName, created, err := c.resolveEntry(ctx, st, req, parent)
	if err != nil || st.HasErrors() {
		return st, err
	}

	err = c.tenants.Create(ctx, &tenant.Tenant{
		Name:             fullName,
		ParentID:         req.ParentID,
		DatabaseInfoName: entryName,
		HasOwnDb:         hasOwnDb,
	})
	if err != nil {
		if created != "" {
			c.compensateCreate(ctx, st, created)
		}
		if errors.Is(err, tenant.ErrDuplicateName) {
			st.AddError(fmt.Sprintf("the tenant name %q is already used", fullName), "Name")
		} else {
			st.AddErr(err)
		}
		return st, nil
	}

	st.SetMessage(fmt.Sprintf("successfully created tenant %q using the database entry %q", fullName, entryName))
	return st, nil
}

// resolveEntry 决定新租户使用的分片条目，返回条目名与本次新建的条目名
func (c *Coordinator) resolveEntry(ctx context.Context, st *status.Status, req CreateTenantRequest, parent *tenant.Tenant) (entryName, created string, err error) {
	switch {
	case parent != nil:
		// 子租户永远复用父条目，绝不隐式新建
		if parent.DatabaseInfoName == "" {
			st.AddError("missing database information for the parent tenant", "ParentID")
			return "", "", nil
		}
		if _, err := c.store.GetEntry(ctx, parent.DatabaseInfoName); err != nil {
			if errors.Is(err, sharding.ErrEntryNotFound) {
				st.AddError("missing database information for the parent tenant", "ParentID")
				return "", "", nil
			}
			return "", "", err
		}
		return parent.DatabaseInfoName, "", nil

	case req.EntryName != "":
		if c.cfg.ShardingOnly {
			st.AddError("reusing an existing entry is only available in the mixed deployment", "EntryName")
			return "", "", nil
		}
		// 调用方给出的条目名理应存在，查不到按部署错误处理
		if _, err := c.store.GetEntry(ctx, req.EntryName); err != nil {
			if errors.Is(err, sharding.ErrEntryNotFound) {
				return "", "", xerrors.WithCode(
					xerrors.Wrapf(err, "coord: the entry %q does not exist", req.EntryName),
					sharding.CodeConfig,
				)
			}
			return "", "", err
		}
		return req.EntryName, "", nil

	case req.HasOwnDb:
		now := time.Now()
		entry := &sharding.Entry{
			Name:           sharding.NewEntryName(now),
			DatabaseName:   sharding.NewDatabaseName(now),
			ConnectionName: req.ConnectionName,
			DatabaseType:   req.DatabaseType,
		}
		if entry.ConnectionName == "" {
			entry.ConnectionName = c.opts.DefaultConnectionName
		}
		if entry.DatabaseType == "" {
			entry.DatabaseType = c.opts.DefaultDatabaseType
		}

		addSt, err := c.store.AddEntry(ctx, entry)
		if err != nil {
			return "", "", err
		}
		if addSt.HasErrors() {
			// 新增失败时什么都还没发生，直接带着它的错误中止
			st.Combine(addSt)
			return "", "", nil
		}
		return entry.Name, entry.Name, nil

	default:
		if c.cfg.ShardingOnly {
			st.AddError("every tenant must have its own database in the sharding-only deployment", "HasOwnDb")
			return "", "", nil
		}
		if !c.opts.HybridMode {
			return "", "", xerrors.WithCode(
				xerrors.New("coord: a shared tenant requires hybrid mode"),
				sharding.CodeConfig,
			)
		}
		return c.opts.DefaultEntryName, "", nil
	}
}

// compensateCreate 删除本次新建的条目；错误合并进 st 但不掩盖原始失败
func (c *Coordinator) compensateCreate(ctx context.Context, st *status.Status, entryName string) {
	compCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	remSt, err := c.store.RemoveEntry(compCtx, entryName)
	if err != nil {
		st.AddErr(xerrors.Wrapf(err, "coord: removing the entry %q after a failed tenant create", entryName))
		return
	}
	if remSt.HasErrors() {
		st.Combine(remSt)
		return
	}
	c.logger.Info("removed database entry after failed tenant create",
		clog.String("entry", entryName))
}

// DeleteTenant 删除租户，顶层独库租户顺带清理其分片条目
func (c *Coordinator) DeleteTenant(ctx context.Context, id uint) (*status.Status, error) {
	st := status.New()

	t, err := c.tenants.GetByID(ctx, id)
	if errors.Is(err, tenant.ErrNotFound) {
		st.AddError(fmt.Sprintf("could not find the tenant with id %d", id))
		return st, nil
	}
	if err != nil {
		return st, transient(err, "looking up tenant")
	}

	// 只有顶层独库租户触发条目清理；子租户共享父条目，不能动
	cleanup := t.HasOwnDb && !t.IsChild()
	entryName := t.DatabaseInfoName

	if err := c.tenants.Delete(ctx, id); err != nil {
		st.AddErr(err)
		return st, nil
	}

	if cleanup && entryName != "" {
		compCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
		remSt, remErr := c.store.RemoveEntry(compCtx, entryName)
		cancel()
		// 尽力而为：租户删除已经成功且是权威结果，清理失败只留日志
		switch {
		case remErr != nil:
			c.logger.Warn("could not remove database entry after tenant delete",
				clog.String("entry", entryName), clog.Error(remErr))
		case remSt.HasErrors():
			c.logger.Warn("could not remove database entry after tenant delete",
				clog.String("entry", entryName), clog.Error(remSt.ErrOrNil()))
		}
	}

	st.SetMessage(fmt.Sprintf("successfully deleted tenant %q", t.Name))
	return st, nil
}

func transient(err error, op string) error {
	return xerrors.WithCode(
		xerrors.Wrapf(err, "coord: %s", op),
		sharding.CodeTransient,
	)
}
