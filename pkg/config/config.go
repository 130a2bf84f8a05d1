package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath        = "config.yaml"
	defaultClientSecretsPath = "client_secrets.json"
	defaultTokenPath         = "youtube_token.json"
	defaultCallbackPort      = 8080
	defaultAuthTimeout       = 5 * time.Minute
	defaultURLsFile          = "urls.txt"
	defaultInterval          = 30 * time.Second
	defaultOutputDir         = "downloads"
	defaultFormat            = "best"
	defaultExecutable        = "yt-dlp"
	defaultCategoryID        = "22"
	defaultPrivacyStatus     = "private"
	defaultDescription       = "Originally published at: %s"
	defaultChunkSize         = 8 * 1024 * 1024
)

type Config struct {
	YouTubeToken      string
	ClientSecretsPath string
	TokenPath         string
	GCPProject        string

	Auth     AuthConfig     `yaml:"auth"`
	Batch    BatchConfig    `yaml:"batch"`
	Download DownloadConfig `yaml:"download"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
}

type AuthConfig struct {
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

type BatchConfig struct {
	URLsFile          string        `yaml:"urls_file"`
	Interval          time.Duration `yaml:"interval"`
	DeleteAfterUpload bool          `yaml:"delete_after_upload"`
}

type DownloadConfig struct {
	OutputDir  string `yaml:"output_dir"`
	Format     string `yaml:"format"`
	Executable string `yaml:"executable"`
}

type YouTubeConfig struct {
	CategoryID          string   `yaml:"category_id"`
	PrivacyStatus       string   `yaml:"privacy_status"`
	Tags                []string `yaml:"tags"`
	DescriptionTemplate string   `yaml:"description_template"` // one %s, the source URL
	ChunkSize           int      `yaml:"chunk_size"`
}

// Load reads .env, the environment and an optional config.yaml, then fills
// anything left unset with defaults. A missing config.yaml is not an error;
// a malformed one is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		YouTubeToken:      os.Getenv("YOUTUBE_TOKEN"),
		ClientSecretsPath: getEnvOrDefault("YOUTUBE_CLIENT_SECRETS", defaultClientSecretsPath),
		TokenPath:         getEnvOrDefault("YOUTUBE_TOKEN_PATH", defaultTokenPath),
		GCPProject:        os.Getenv("GOOGLE_CLOUD_PROJECT"),
	}

	if err := loadYAMLConfig(cfg, defaultConfigPath); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("No config.yaml found, using defaults", "path", path)
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyAuthDefaults(cfg)
	applyBatchDefaults(cfg)
	applyDownloadDefaults(cfg)
	applyYouTubeDefaults(cfg)
}

func applyAuthDefaults(cfg *Config) {
	if cfg.Auth.Port == 0 {
		cfg.Auth.Port = defaultCallbackPort
	}
	if cfg.Auth.Timeout == 0 {
		cfg.Auth.Timeout = defaultAuthTimeout
	}
}

func applyBatchDefaults(cfg *Config) {
	if cfg.Batch.URLsFile == "" {
		cfg.Batch.URLsFile = defaultURLsFile
	}
	if cfg.Batch.Interval == 0 {
		cfg.Batch.Interval = defaultInterval
	}
}

func applyDownloadDefaults(cfg *Config) {
	if cfg.Download.OutputDir == "" {
		cfg.Download.OutputDir = defaultOutputDir
	}
	if cfg.Download.Format == "" {
		cfg.Download.Format = defaultFormat
	}
	if cfg.Download.Executable == "" {
		cfg.Download.Executable = defaultExecutable
	}
}

func applyYouTubeDefaults(cfg *Config) {
	if cfg.YouTube.CategoryID == "" {
		cfg.YouTube.CategoryID = defaultCategoryID
	}
	if cfg.YouTube.PrivacyStatus == "" {
		cfg.YouTube.PrivacyStatus = defaultPrivacyStatus
	}
	if len(cfg.YouTube.Tags) == 0 {
		cfg.YouTube.Tags = []string{"reupload"}
	}
	if cfg.YouTube.DescriptionTemplate == "" {
		cfg.YouTube.DescriptionTemplate = defaultDescription
	}
	if cfg.YouTube.ChunkSize == 0 {
		cfg.YouTube.ChunkSize = defaultChunkSize
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
