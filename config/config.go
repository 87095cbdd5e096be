package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // 默认时区 Europe/Minsk 不依赖系统时区库

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	IIS       IISConfig       `mapstructure:"iis"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RedisConfig Redis 缓存配置（可选）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IISConfig 上游 IIS 接口配置
type IISConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	GroupURL          string        `mapstructure:"group_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxConcurrency    int           `mapstructure:"max_concurrency"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"` // 教师课表缓存有效期，0 表示不缓存
}

// ScheduleConfig 教室与日期配置
type ScheduleConfig struct {
	Timezone string   `mapstructure:"timezone"`
	Rooms    []string `mapstructure:"rooms"`
}

// Location 解析配置的时区
func (c *ScheduleConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// RateLimitConfig 接口限流配置（依赖 Redis，未启用时放行）
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DefaultRooms 默认教室列表（2 号教学楼）
var DefaultRooms = []string{
	"502-2 к.", "601-2 к.", "603-2 к.", "604-2 к.", "605-2 к.",
	"607-2 к.", "611-2 к.", "613-2 к.", "615-2 к.",
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("iis.base_url", "https://iis.bsuir.by/api/v1")
	v.SetDefault("iis.group_url", "https://iis.bsuir.by/schedule")
	v.SetDefault("iis.timeout", "20s")
	v.SetDefault("iis.max_concurrency", 16)
	v.SetDefault("iis.requests_per_second", 20)
	v.SetDefault("iis.burst", 10)
	v.SetDefault("iis.cache_ttl", "6h")

	v.SetDefault("schedule.timezone", "Europe/Minsk")
	v.SetDefault("schedule.rooms", DefaultRooms)

	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("RASPISANIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if strings.TrimSpace(c.IIS.BaseURL) == "" {
		return fmt.Errorf("配置校验失败: iis.base_url 不能为空")
	}
	if c.IIS.MaxConcurrency <= 0 {
		return fmt.Errorf("配置校验失败: iis.max_concurrency 必须大于 0")
	}
	if c.IIS.RequestsPerSecond < 0 {
		return fmt.Errorf("配置校验失败: iis.requests_per_second 不能为负数")
	}
	if len(c.Schedule.Rooms) == 0 {
		return fmt.Errorf("配置校验失败: schedule.rooms 不能为空")
	}
	seen := make(map[string]bool, len(c.Schedule.Rooms))
	for _, room := range c.Schedule.Rooms {
		if strings.TrimSpace(room) == "" {
			return fmt.Errorf("配置校验失败: schedule.rooms 包含空教室编号")
		}
		if seen[room] {
			return fmt.Errorf("配置校验失败: schedule.rooms 中教室 %q 重复", room)
		}
		seen[room] = true
	}
	if _, err := c.Schedule.Location(); err != nil {
		return fmt.Errorf("配置校验失败: schedule.timezone 无效: %w", err)
	}
	return nil
}
