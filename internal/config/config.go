package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/draftmill/draftmill/pkg/logger"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logger   logger.Config  `yaml:"logger"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Engine   EngineConfig   `yaml:"engine"`
	Auth     AuthConfig     `yaml:"auth"`
	Billing  BillingConfig  `yaml:"billing"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

type OpenAIConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	ChatModel  string `yaml:"chat_model"`
	ImageModel string `yaml:"image_model"`
}

// EngineConfig bounds the schedule execution engine. Durations use
// time.ParseDuration syntax, e.g. "30s".
type EngineConfig struct {
	TitleTimeout      string `yaml:"title_timeout"`
	ContentTimeout    string `yaml:"content_timeout"`
	ManualRunTimeout  string `yaml:"manual_run_timeout"`
	ReconcileInterval string `yaml:"reconcile_interval"`
}

type AuthConfig struct {
	TOTPSecret string `yaml:"totp_secret"`
}

// BillingConfig is the plan-limit stub: how many generated posts a user may
// create per calendar month. Zero means unlimited.
type BillingConfig struct {
	MonthlyPostLimit int `yaml:"monthly_post_limit"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5650
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.ImageModel == "" {
		cfg.OpenAI.ImageModel = "dall-e-3"
	}
	if cfg.Engine.TitleTimeout == "" {
		cfg.Engine.TitleTimeout = "30s"
	}
	if cfg.Engine.ContentTimeout == "" {
		cfg.Engine.ContentTimeout = "60s"
	}
	if cfg.Engine.ManualRunTimeout == "" {
		cfg.Engine.ManualRunTimeout = "5m"
	}
	if cfg.Engine.ReconcileInterval == "" {
		cfg.Engine.ReconcileInterval = "10m"
	}

	return cfg, nil
}
