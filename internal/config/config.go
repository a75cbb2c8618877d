package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Auth     AuthConfig
	Resume   ResumeConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig SQLite 配置
type DatabaseConfig struct {
	Path string
}

// RedisConfig Redis 配置，Host 为空时禁用缓存
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AIConfig AI 配置
type AIConfig struct {
	Provider string // openai（流式助手路由）或 gemini（同步补全路由）
	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
}

// OpenAIConfig OpenAI 配置
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	AssistantID string // Assistants API 的助手标识，流式路由必需
	Timeout     int
}

// GeminiConfig Gemini 配置（经 OpenAI 兼容端点访问）
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// AuthConfig 管理端认证配置
type AuthConfig struct {
	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string // bcrypt 哈希
	TokenTTL          time.Duration
}

// ResumeConfig 简历内容配置
type ResumeConfig struct {
	Path string
}

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		setDefaults(v)
	}

	// 环境变量
	v.SetEnvPrefix("PORTFOLIO_AI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}

	return &cfg, nil
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled Redis 是否启用
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "portfolio-ai")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 300) // 流式响应需要更宽的写超时

	// Database
	v.SetDefault("database.path", "./data/portfolio.db")

	// Redis（默认关闭）
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// AI
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.timeout", 120)
	v.SetDefault("ai.gemini.baseUrl", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini.timeout", 60)

	// Auth
	v.SetDefault("auth.adminUsername", "admin")

	// Resume
	v.SetDefault("resume.path", "./configs/resume.yaml")
}
