package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/sociomanager/sociomanager/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    logger.Config   `yaml:"logger"`
	Geelark   GeelarkConfig   `yaml:"geelark"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Auth      AuthConfig      `yaml:"auth"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

// GeelarkConfig holds credentials for the GeeLark cloud-phone API.
type GeelarkConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// SchedulerConfig drives the two background schedules: the periodic task
// status sync and the daily account warmup.
type SchedulerConfig struct {
	Enabled        bool     `yaml:"enabled"`
	SyncInterval   string   `yaml:"sync_interval"`
	WarmupCron     string   `yaml:"warmup_cron"`
	WarmupKeywords []string `yaml:"warmup_keywords"`
}

type AuthConfig struct {
	Enabled    bool   `yaml:"enabled"`
	TOTPSecret string `yaml:"totp_secret"`
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
		cfg.Server.Port = 5000
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
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
	if cfg.Scheduler.SyncInterval == "" {
		cfg.Scheduler.SyncInterval = "1m"
	}
	if cfg.Scheduler.WarmupCron == "" {
		cfg.Scheduler.WarmupCron = "0 0 * * *"
	}
	if len(cfg.Scheduler.WarmupKeywords) == 0 {
		cfg.Scheduler.WarmupKeywords = []string{"food", "cakes", "midnight cravings"}
	}

	return cfg, nil
}
