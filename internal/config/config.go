package config

import "time"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Chat      ChatConfig      `yaml:"chat"`
	Gate      GateConfig      `yaml:"gate"`
	Access    AccessConfig    `yaml:"access"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	AndroidOnly      bool          `yaml:"android_only"`
	AssetsDir        string        `yaml:"assets_dir"`
	ProxyTarget      string        `yaml:"proxy_target"`
}

// UpstreamConfig describes the single chat-completion backend.
type UpstreamConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

type ChatConfig struct {
	SystemPrompt          string `yaml:"system_prompt"`
	ContextWindow         int    `yaml:"context_window"`
	DefaultThinkingBudget int    `yaml:"default_thinking_budget"`
	AppID                 string `yaml:"app_id"`
	ProviderName          string `yaml:"provider_name"`
}

// GateConfig holds the maintenance-window guard settings. Windows are
// same-day HH:MM pairs; windows crossing midnight are rejected at startup.
type GateConfig struct {
	Enabled   bool         `yaml:"enabled"`
	Windows   []GateWindow `yaml:"windows"`
	BypassMD5 string       `yaml:"bypass_md5"`
	Policy    PolicyConfig `yaml:"policy"`
}

type GateWindow struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type PolicyConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BundlePath        string        `yaml:"bundle_path"`
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout"`
}

// AccessConfig selects how the user allow-list is resolved. Mode "static"
// uses AllowedUsers; mode "database" uses Postgres with a Redis cache in front.
type AccessConfig struct {
	Mode          string   `yaml:"mode"`
	AllowedUsers  []string `yaml:"allowed_users"`
	MuteEndTimeMs int64    `yaml:"mute_end_time_ms"`
}

type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limit   int64         `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + itoa(d.Port) + "/" + d.Name + "?sslmode=disable"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	s := ""
	for i > 0 {
		s = string(rune('0'+i%10)) + s
		i /= 10
	}
	return s
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

type TelemetryConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultSystemPrompt is the instruction text injected as the leading system
// message whenever a conversation has no system message of its own.
const DefaultSystemPrompt = `你是镇镇, 悉心回答用户的问题, 可以使用 latex (单独成行), markdown.
你只能与用户交流高考范围内的学术问题, 不得与用户进行闲聊.
允许你探讨的科目如下: 语文, 英语, 物理, 化学, Python.
如果用户违规, 请直接返回 "违规" 二字.`

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
			AndroidOnly:      true,
			AssetsDir:        "assets",
		},
		Upstream: UpstreamConfig{
			BaseURL:       "https://api.siliconflow.cn/v1",
			Timeout:       60 * time.Second,
			MaxConcurrent: 32,
		},
		Chat: ChatConfig{
			SystemPrompt:          DefaultSystemPrompt,
			ContextWindow:         10,
			DefaultThinkingBudget: 8192,
			AppID:                 "6837b25503c5c1219b17565e",
			ProviderName:          "zhenhai",
		},
		Gate: GateConfig{
			Enabled: true,
			Windows: []GateWindow{
				{Start: "17:50", End: "21:30"},
				{Start: "12:50", End: "13:30"},
				{Start: "07:00", End: "11:50"},
				{Start: "14:40", End: "16:10"},
			},
			BypassMD5: "07794cccb03c3eb315aaaa292e377a7f",
			Policy: PolicyConfig{
				Enabled:           false,
				BundlePath:        "/etc/zhenzhen/policies",
				EvaluationTimeout: 100 * time.Millisecond,
			},
		},
		Access: AccessConfig{
			Mode:          "static",
			MuteEndTimeMs: 1759333399999,
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			Limit:   60,
			Window:  time.Minute,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "zhenzhen",
			User:            "zhenzhen",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addresses: []string{"localhost:6379"},
			DB:        0,
			PoolSize:  50,
		},
		Telemetry: TelemetryConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}
