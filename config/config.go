// Package config 负责加载应用配置
// 配置来源优先级: 环境变量 > .env 文件 > 配置文件 > 默认值
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 NOTES_SERVER_PORT
const EnvPrefix = "NOTES"

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Tags     TagConfig      `mapstructure:"tags"`
	Retry    RetryConfig    `mapstructure:"retry"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`          // gin运行模式: debug、release、test
	EnableHTTPS  bool   `mapstructure:"enable_https"`  // 是否启用HTTPS
	EnableHTTP2  bool   `mapstructure:"enable_http2"`  // 仅在HTTPS下生效
	TLSCertFile  string `mapstructure:"tls_cert_file"` // 证书路径
	TLSKeyFile   string `mapstructure:"tls_key_file"`  // 私钥路径
	ReadTimeout  int    `mapstructure:"read_timeout"`  // 秒
	WriteTimeout int    `mapstructure:"write_timeout"` // 秒
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // sqlite 或 mysql
	DSN             string `mapstructure:"dsn"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	LogLevel        string `mapstructure:"log_level"`         // silent、error、warn、info
	Seed            bool   `mapstructure:"seed"`              // 启动时写入示例数据
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// TagConfig 标签校验规则
type TagConfig struct {
	MaxRawLength      int `mapstructure:"max_raw_length"`      // 逗号分隔的原始字符串总长度上限
	NameMinLength     int `mapstructure:"name_min_length"`     // 单个标签最短长度
	NameMaxLength     int `mapstructure:"name_max_length"`     // 单个标签最长长度
	DescriptionMaxLen int `mapstructure:"description_max_len"` // 标签描述最长长度
}

// RetryConfig 冲突重试配置
type RetryConfig struct {
	ConflictRetries uint64 `mapstructure:"conflict_retries"`
}

// ReadTimeoutDuration 返回读超时
func (s ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration 返回写超时
func (s ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// DefaultTagConfig 返回默认的标签校验规则
func DefaultTagConfig() TagConfig {
	return TagConfig{
		MaxRawLength:      500,
		NameMinLength:     2,
		NameMaxLength:     50,
		DescriptionMaxLen: 200,
	}
}

// Load 加载配置
// 参数:
//
//	paths - 可选的配置文件路径，未提供时在当前目录和 ./config 下查找 config.yaml/config.toml
//
// 返回:
//
//	*Config - 配置对象
//	error - 读取或校验失败时的错误
func Load(paths ...string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if len(paths) > 0 && paths[0] != "" {
		v.SetConfigFile(paths[0])
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		// 按名称搜索不到配置文件时只使用默认值和环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置的合法性
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if c.Server.EnableHTTPS && (c.Server.TLSCertFile == "" || c.Server.TLSKeyFile == "") {
		return fmt.Errorf("tls_cert_file and tls_key_file are required when https is enabled")
	}
	t := c.Tags
	if t.NameMinLength < 1 || t.NameMaxLength < t.NameMinLength {
		return fmt.Errorf("invalid tag name length range: %d-%d", t.NameMinLength, t.NameMaxLength)
	}
	if t.MaxRawLength < t.NameMaxLength {
		return fmt.Errorf("tags.max_raw_length (%d) must not be smaller than tags.name_max_length (%d)", t.MaxRawLength, t.NameMaxLength)
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.enable_https", false)
	v.SetDefault("server.enable_http2", true)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/notes.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 3600)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.seed", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.file_path", "logs/app.log")

	tags := DefaultTagConfig()
	v.SetDefault("tags.max_raw_length", tags.MaxRawLength)
	v.SetDefault("tags.name_min_length", tags.NameMinLength)
	v.SetDefault("tags.name_max_length", tags.NameMaxLength)
	v.SetDefault("tags.description_max_len", tags.DescriptionMaxLen)

	v.SetDefault("retry.conflict_retries", 1)
}
