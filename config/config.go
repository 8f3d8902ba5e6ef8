package config

import (
	"strings"

	"github.com/ceyewan/tenantdb/sharding"
)

// Config 加载器配置
type Config struct {
	Name      string   // 配置文件名称（不含扩展名，默认 "tenantdb"）
	Paths     []string // 配置文件搜索路径，默认 ["./", "./config"]
	FileType  string   // 配置文件类型（yaml、json 等，默认 yaml）
	EnvPrefix string   // 环境变量前缀，默认 "TENANTDB"
}

func (c *Config) validate() error {
	if c.Name == "" {
		c.Name = "tenantdb"
	}
	if c.Paths == nil {
		c.Paths = []string{".", "./config"}
	}
	if c.FileType == "" {
		c.FileType = "yaml"
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = "TENANTDB"
	}
	c.EnvPrefix = strings.ToUpper(c.EnvPrefix)
	return nil
}

// New 创建配置加载器；cfg 为 nil 时使用默认配置
func New(cfg *Config, opts ...Option) (Loader, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newLoader(cfg, opts...)
}

// LoadSharding 读取 "sharding" 配置段并校验
//
// 配置段的结构与 sharding.Options 的 mapstructure 标签对应：
//
//	sharding:
//	  hybrid_mode: true
//	  default_database_type: mysql
//	  connection_strings:
//	    DefaultConnection: user:pass@tcp(db:3306)/main
func LoadSharding(l Loader) (*sharding.Options, error) {
	var opts sharding.Options
	if err := l.UnmarshalKey("sharding", &opts); err != nil {
		return nil, WrapLoadError(err, "sharding section")
	}

	// 连接串名是大小写敏感的外部契约，UnmarshalKey 经过 viper
	// 会把映射键转小写，这里按文件原文重新读取
	raw, err := l.StringMap("sharding.connection_strings")
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		opts.ConnectionStrings = raw
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}
