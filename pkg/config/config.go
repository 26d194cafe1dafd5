// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 追踪配置
	Tracing TracingConfig `mapstructure:"tracing"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 限流配置
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	// 认证配置
	Auth AuthConfig `mapstructure:"auth"`
	// Razorpay 支付网关配置
	Razorpay RazorpayConfig `mapstructure:"razorpay"`
	// 发票配置
	Invoice InvoiceConfig `mapstructure:"invoice"`
	// 文件存储配置
	Storage StorageConfig `mapstructure:"storage"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host" default:"0.0.0.0"`
	// 监听端口
	Port int `mapstructure:"port" default:"8080"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout" default:"30"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout" default:"30"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动：mysql, sqlite
	Driver string `mapstructure:"driver" default:"mysql"`
	// 数据源名称
	DSN string `mapstructure:"dsn"`
	// 最大连接数
	MaxOpenConns int `mapstructure:"max_open_conns" default:"25"`
	// 最大空闲连接数
	MaxIdleConns int `mapstructure:"max_idle_conns" default:"5"`
	// 连接最大生命周期（秒）
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime" default:"300"`
	// 是否启用日志
	LogEnabled bool `mapstructure:"log_enabled" default:"false"`
	// 慢查询阈值（毫秒）
	SlowQueryThreshold int `mapstructure:"slow_query_threshold" default:"1000"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 主机地址
	Host string `mapstructure:"host" default:"localhost"`
	// 端口
	Port int `mapstructure:"port" default:"6379"`
	// 密码
	Password string `mapstructure:"password"`
	// 数据库编号
	DB int `mapstructure:"db" default:"0"`
	// 最大连接数
	MaxPoolSize int `mapstructure:"max_pool_size" default:"10"`
	// 连接超时（秒）
	ConnTimeout int `mapstructure:"conn_timeout" default:"5"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout" default:"3"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout" default:"3"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// 是否启用事件总线
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Broker 地址列表
	Brokers []string `mapstructure:"brokers"`
	// Consumer Group ID
	GroupID string `mapstructure:"group_id"`
	// 发送重试次数
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// 重试退避（毫秒）
	RetryBackoff int `mapstructure:"retry_backoff" default:"100"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	// 日志级别
	Level string `mapstructure:"level" default:"info"`
	// 输出格式
	Format string `mapstructure:"format" default:"json"`
	// 输出目标
	Output string `mapstructure:"output" default:"stdout"`
	// 文件路径
	FilePath string `mapstructure:"file_path" default:"logs/app.log"`
	// 最大文件大小（MB）
	MaxSize int `mapstructure:"max_size" default:"100"`
	// 最大备份文件数
	MaxBackups int `mapstructure:"max_backups" default:"10"`
	// 最大保留天数
	MaxAge int `mapstructure:"max_age" default:"30"`
	// 是否压缩
	Compress bool `mapstructure:"compress" default:"true"`
	// 是否输出调用者信息
	WithCaller bool `mapstructure:"with_caller" default:"true"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled" default:"false"`
	// OTel 收集器端点
	CollectorEndpoint string `mapstructure:"collector_endpoint" default:"localhost:4317"`
	// 采样率
	SamplingRate float64 `mapstructure:"sampling_rate" default:"1.0"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Prometheus 监听端口
	Port int `mapstructure:"port" default:"9090"`
	// 指标路径
	Path string `mapstructure:"path" default:"/metrics"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled" default:"true"`
	// 每秒请求数
	QPS int `mapstructure:"qps" default:"50"`
	// 突发容量
	Burst int `mapstructure:"burst" default:"100"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	// JWT 签名密钥
	JWTSecret string `mapstructure:"jwt_secret"`
	// Token 有效期（小时）
	TokenTTL int `mapstructure:"token_ttl" default:"24"`
	// 签发者
	Issuer string `mapstructure:"issuer" default:"angelnet"`
}

// RazorpayConfig Razorpay 支付网关配置
type RazorpayConfig struct {
	// API Key ID（下发给前端用于 checkout）
	KeyID string `mapstructure:"key_id"`
	// API Key Secret（签名校验共享密钥）
	KeySecret string `mapstructure:"key_secret"`
	// 单笔最小金额（卢比）
	MinAmount int64 `mapstructure:"min_amount" default:"25000"`
	// 单笔最大金额（卢比）
	MaxAmount int64 `mapstructure:"max_amount" default:"10000000"`
}

// InvoiceConfig 发票配置
type InvoiceConfig struct {
	// 卖方名称
	SellerName string `mapstructure:"seller_name"`
	// 卖方地址
	SellerAddress string `mapstructure:"seller_address"`
	// 卖方 GSTIN
	SellerGSTIN string `mapstructure:"seller_gstin"`
	// 卖方邦代码（用于判定 CGST/SGST 还是 IGST）
	SellerStateCode string `mapstructure:"seller_state_code" default:"29"`
	// GST 税率（百分比）
	GSTRate float64 `mapstructure:"gst_rate" default:"18"`
	// PDF 输出目录
	OutputDir string `mapstructure:"output_dir" default:"data/invoices"`
}

// StorageConfig 文件存储配置
type StorageConfig struct {
	// 上传目录
	UploadDir string `mapstructure:"upload_dir" default:"data/uploads"`
	// 单文件最大字节数
	MaxFileSize int64 `mapstructure:"max_file_size" default:"10485760"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 环境变量覆盖：APP_HTTP_PORT 覆盖 http.port
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database DSN is required for %s driver", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Razorpay.MinAmount <= 0 || c.Razorpay.MaxAmount <= c.Razorpay.MinAmount {
		return fmt.Errorf("invalid razorpay amount bounds: min=%d max=%d", c.Razorpay.MinAmount, c.Razorpay.MaxAmount)
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", true)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.collector_endpoint", "localhost:4317")
	v.SetDefault("tracing.sampling_rate", 1.0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.qps", 50)
	v.SetDefault("ratelimit.burst", 100)

	v.SetDefault("auth.token_ttl", 24)
	v.SetDefault("auth.issuer", "angelnet")

	v.SetDefault("razorpay.min_amount", 25000)
	v.SetDefault("razorpay.max_amount", 10000000)

	v.SetDefault("invoice.seller_state_code", "29")
	v.SetDefault("invoice.gst_rate", 18.0)
	v.SetDefault("invoice.output_dir", "data/invoices")

	v.SetDefault("storage.upload_dir", "data/uploads")
	v.SetDefault("storage.max_file_size", 10485760)
}

// GetEnv 获取环境变量，支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
