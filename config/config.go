package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPath 默认配置文件路径，可通过 ECG_CONFIG 覆盖
const DefaultPath = "config.yaml"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Narrator   NarratorConfig   `mapstructure:"narrator"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	UploadDir    string   `mapstructure:"upload_dir"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	SweepOnStart bool     `mapstructure:"sweep_on_start"`
}

type ClassifierConfig struct {
	ModelPath         string        `mapstructure:"model_path"`
	ConfigPath        string        `mapstructure:"config_path"`
	SharedLibraryPath string        `mapstructure:"shared_library_path"`
	InputName         string        `mapstructure:"input_name"`
	OutputName        string        `mapstructure:"output_name"`
	MaxConcurrent     int           `mapstructure:"max_concurrent"`
	QueueTimeout      time.Duration `mapstructure:"queue_timeout"`
}

type NarratorConfig struct {
	Provider         string        `mapstructure:"provider"` // bedrock, anthropic
	ModelID          string        `mapstructure:"model_id"`
	AnthropicVersion string        `mapstructure:"anthropic_version"`
	Region           string        `mapstructure:"region"`
	Endpoint         string        `mapstructure:"endpoint"`
	APIKey           string        `mapstructure:"api_key"`
	AccessKeyID      string        `mapstructure:"access_key_id"`
	SecretAccessKey  string        `mapstructure:"secret_access_key"`
	SessionToken     string        `mapstructure:"session_token"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	Temperature      float64       `mapstructure:"temperature"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	MaxImageEdge     int           `mapstructure:"max_image_edge"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

// Load 从 YAML 文件加载配置，文件不存在时仅使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	// .env 仅用于本地开发，缺失时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ECG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// New 使用默认配置路径加载配置
func New() (*Config, error) {
	path := os.Getenv("ECG_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return Load(path)
}

func (c *Config) Validate() error {
	if c.Upload.UploadDir == "" {
		return fmt.Errorf("upload.upload_dir is required")
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload.max_size must be positive")
	}
	if c.Classifier.MaxConcurrent <= 0 {
		return fmt.Errorf("classifier.max_concurrent must be positive")
	}
	switch c.Narrator.Provider {
	case "bedrock", "anthropic":
	default:
		return fmt.Errorf("narrator.provider must be bedrock or anthropic, got %q", c.Narrator.Provider)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("ratelimit.requests_per_minute must be positive when enabled")
	}
	return nil
}

func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8005")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	// 远程模型读超时为 1000s，写超时需覆盖整条链路
	v.SetDefault("server.write_timeout", 20*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.upload_dir", "./uploads")
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/jpg", "application/octet-stream"})
	v.SetDefault("upload.sweep_on_start", true)

	v.SetDefault("classifier.model_path", "models/vit_ecg.onnx")
	v.SetDefault("classifier.config_path", "models/config.json")
	v.SetDefault("classifier.shared_library_path", "")
	v.SetDefault("classifier.input_name", "pixel_values")
	v.SetDefault("classifier.output_name", "logits")
	v.SetDefault("classifier.max_concurrent", 2)
	v.SetDefault("classifier.queue_timeout", 30*time.Second)

	v.SetDefault("narrator.provider", "bedrock")
	v.SetDefault("narrator.model_id", "anthropic.claude-3-sonnet-20240229-v1:0")
	v.SetDefault("narrator.anthropic_version", "bedrock-2023-05-31")
	v.SetDefault("narrator.region", "us-east-1")
	v.SetDefault("narrator.endpoint", "")
	v.SetDefault("narrator.api_key", "")
	v.SetDefault("narrator.access_key_id", "")
	v.SetDefault("narrator.secret_access_key", "")
	v.SetDefault("narrator.session_token", "")
	v.SetDefault("narrator.max_tokens", 4096)
	v.SetDefault("narrator.temperature", 0.7)
	v.SetDefault("narrator.read_timeout", 1000*time.Second)
	v.SetDefault("narrator.max_image_edge", 1568)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_minute", 30)
	v.SetDefault("ratelimit.burst", 5)
}
