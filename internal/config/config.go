package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Evidence   EvidenceConfig   `mapstructure:"evidence"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
}

// HTTP server configuration
type ServerConfig struct {
	ListenPort string `mapstructure:"listen_port"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
}

// logging configuration
type LoggerConfig struct {
	Directory string            `mapstructure:"directory"`
	Rotation  LogRotationConfig `mapstructure:"rotation"`
	Level     string            `mapstructure:"level"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

// escalation thresholds shared by the state machine and CyberBOT
type ModerationConfig struct {
	RedTagThreshold int `mapstructure:"red_tag_threshold"`
	BlockThreshold  int `mapstructure:"block_threshold"`
}

// abuse classifier settings
type ClassifierConfig struct {
	GeminiApiKey       string `mapstructure:"gemini_api_key"`
	GeminiModel        string `mapstructure:"gemini_model"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds"`
	DefaultSensitivity string `mapstructure:"default_sensitivity"`
}

// evidence log settings
type EvidenceConfig struct {
	Directory string `mapstructure:"directory"`
}

// Telegram admin alert settings
type AlertsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BotToken    string `mapstructure:"bot_token"`
	AdminChatID int64  `mapstructure:"admin_chat_id"`
	MinSeverity string `mapstructure:"min_severity"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	// Unmarshal configuration
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not initialized, call Load() first")
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_port", "8080")
	v.SetDefault("server.cert_file", "")
	v.SetDefault("server.key_file", "")

	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.level", "INFO")

	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.charset", "utf8mb4")

	v.SetDefault("moderation.red_tag_threshold", 3)
	v.SetDefault("moderation.block_threshold", 5)

	v.SetDefault("classifier.gemini_model", "gemini-1.5-pro")
	v.SetDefault("classifier.timeout_seconds", 10)
	v.SetDefault("classifier.default_sensitivity", "medium")

	v.SetDefault("evidence.directory", "evidence/logs")

	v.SetDefault("alerts.enabled", false)
	v.SetDefault("alerts.min_severity", "high")
}
