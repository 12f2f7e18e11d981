package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server configuration. Values come from built-in defaults, then the
// optional YAML file named by SPENDBOOK_CONFIG, then environment variables.
type Config struct {
	DBPath        string        `yaml:"db_path"`
	Port          string        `yaml:"port"`
	UploadsDir    string        `yaml:"uploads_dir"`
	Password      string        `yaml:"password"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	MaxUploadMB   int64         `yaml:"max_upload_mb"`
	PDFExtractor  string        `yaml:"pdf_extractor"` // native | pdftotext
	PdftotextPath string        `yaml:"pdftotext_path"`
	CategoryRules string        `yaml:"category_rules"`
	LogLevel      string        `yaml:"log_level"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		DBPath:        "./data/spendbook.db",
		Port:          "8080",
		Password:      "changeme", // Default for development
		SessionTTL:    30 * 24 * time.Hour,
		MaxUploadMB:   10,
		PDFExtractor:  "native",
		PdftotextPath: "pdftotext",
		LogLevel:      "info",
	}
}

// Load builds the configuration from defaults, the optional config file and the environment.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("SPENDBOOK_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.DBPath = getEnv("SPENDBOOK_DB_PATH", cfg.DBPath)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.UploadsDir = getEnv("SPENDBOOK_UPLOADS_DIR", cfg.UploadsDir)
	cfg.Password = getEnv("SPENDBOOK_PASSWORD", cfg.Password)
	cfg.SessionTTL = getEnvAsDuration("SPENDBOOK_SESSION_TTL", cfg.SessionTTL)
	cfg.MaxUploadMB = getEnvAsInt64("SPENDBOOK_MAX_UPLOAD_MB", cfg.MaxUploadMB)
	cfg.PDFExtractor = getEnv("SPENDBOOK_PDF_EXTRACTOR", cfg.PDFExtractor)
	cfg.PdftotextPath = getEnv("SPENDBOOK_PDFTOTEXT", cfg.PdftotextPath)
	cfg.CategoryRules = getEnv("SPENDBOOK_CATEGORY_RULES", cfg.CategoryRules)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	// Uploads live next to the database unless placed elsewhere
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = filepath.Join(filepath.Dir(cfg.DBPath), "uploads")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %q: %w", path, err)
	}
	return nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must be set")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL)
	}
	switch c.PDFExtractor {
	case "native", "pdftotext":
	default:
		return fmt.Errorf("pdf_extractor must be native or pdftotext, got %q", c.PDFExtractor)
	}
	return nil
}

// MaxUploadBytes is the request body limit for statement uploads
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
