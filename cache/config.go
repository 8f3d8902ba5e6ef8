package cache

// Config 缓存组件配置
type Config struct {
	// Prefix 全局 Key 前缀（例如 "tenantdb:"）
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// Serializer "json"（默认）| "msgpack"
	Serializer string `json:"serializer" yaml:"serializer" mapstructure:"serializer"`

	// Standalone 单机缓存配置，仅 NewStandalone 使用
	Standalone *StandaloneConfig `json:"standalone" yaml:"standalone" mapstructure:"standalone"`
}

// StandaloneConfig 单机缓存配置
type StandaloneConfig struct {
	// Capacity 缓存最大容量（条目数，默认：10000）
	Capacity int `json:"capacity" yaml:"capacity" mapstructure:"capacity"`
}
