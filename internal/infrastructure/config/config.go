// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	odooURL := cfg.Odoo.URL
//	token := cfg.API.Token
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	API           APIConfig           `yaml:"api"`
	Odoo          OdooConfig          `yaml:"odoo"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	Recon         ReconConfig         `yaml:"recon"`
	Ingest        IngestConfig        `yaml:"ingest"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// APIConfig holds the inbound HTTP surface settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	Token          string   `yaml:"token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// OdooConfig holds the Odoo JSON-RPC connection settings
type OdooConfig struct {
	URL               string `yaml:"url"`
	Database          string `yaml:"database"`
	User              string `yaml:"user"`
	APIKey            string `yaml:"api_key"`
	CompanyID         int    `yaml:"company_id"`
	PurchaseJournalID int    `yaml:"purchase_journal_id"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
}

// SMTPConfig holds vendor-bill email delivery settings
type SMTPConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	From             string `yaml:"from"`
	Security         string `yaml:"security"` // ssl | starttls | none
	VendorBillsEmail string `yaml:"vendor_bills_email"`
	SubjectMode      string `yaml:"subject_mode"` // blank | filename
	DefaultDelaySec  int    `yaml:"default_delay_sec"`
}

// ReconConfig holds the reconciliation matcher tolerances
type ReconConfig struct {
	AmountTolerance   float64 `yaml:"amount_tolerance"`
	DateToleranceDays int     `yaml:"date_tolerance_days"`
	BaseScore         float64 `yaml:"base_score"`
	PartnerBoostScore float64 `yaml:"partner_boost_score"`
	PartnerPrefixLen  int     `yaml:"partner_prefix_len"`
	MinAutoScore      float64 `yaml:"min_auto_score"`
}

// IngestConfig holds attachment/ingestion rules
type IngestConfig struct {
	MaxAttachmentMB     float64  `yaml:"max_attachment_mb"`
	SelfCompanyKeywords []string `yaml:"self_company_keywords"`
	SelfEmailDomains    []string `yaml:"self_email_domains"`
}

// OpenAIConfig holds the OpenAI files API key (upload resolution only)
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${ODOO_API_KEY})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		API: APIConfig{
			Port:           getEnvInt("PORT", 8080),
			Token:          os.Getenv("API_TOKEN"),
			AllowedOrigins: splitCSV(os.Getenv("ALLOWED_ORIGINS")),
		},
		Odoo: OdooConfig{
			URL:               strings.TrimRight(getEnv("ODOO_URL", os.Getenv("ODOO_BASE_URL")), "/"),
			Database:          os.Getenv("ODOO_DB"),
			User:              os.Getenv("ODOO_USER"),
			APIKey:            os.Getenv("ODOO_API_KEY"),
			CompanyID:         getEnvInt("COMPANY_ID", 0),
			PurchaseJournalID: getEnvInt("PURCHASE_JOURNAL_ID", 0),
			TimeoutSeconds:    getEnvInt("ODOO_TIMEOUT_SEC", 30),
		},
		SMTP: SMTPConfig{
			Host:             os.Getenv("SMTP_HOST"),
			Port:             getEnvInt("SMTP_PORT", 465),
			User:             os.Getenv("SMTP_USER"),
			Password:         os.Getenv("SMTP_PASS"),
			From:             os.Getenv("SMTP_FROM"),
			Security:         getEnv("SMTP_SECURITY", "ssl"),
			VendorBillsEmail: getEnv("VENDORBILLS_EMAIL", os.Getenv("ALIAS_TO")),
			SubjectMode:      getEnv("MAIL_SUBJECT_MODE", "blank"),
			DefaultDelaySec:  getEnvInt("DEFAULT_DELAY_SEC", 60),
		},
		Recon: ReconConfig{
			AmountTolerance:   getEnvFloat("RECON_AMOUNT_TOLERANCE", 0.50),
			DateToleranceDays: getEnvInt("RECON_DATE_TOLERANCE_DAYS", 5),
			BaseScore:         getEnvFloat("RECON_BASE_SCORE", 0.90),
			PartnerBoostScore: getEnvFloat("RECON_PARTNER_BOOST_SCORE", 0.98),
			PartnerPrefixLen:  getEnvInt("RECON_PARTNER_PREFIX_LEN", 5),
			MinAutoScore:      getEnvFloat("RECON_MIN_AUTO_SCORE", 0.95),
		},
		Ingest: IngestConfig{
			MaxAttachmentMB:     getEnvFloat("MAX_ATTACHMENT_MB", 20),
			SelfCompanyKeywords: splitCSV(os.Getenv("SELF_COMPANY_KEYWORDS")),
			SelfEmailDomains:    splitCSV(os.Getenv("SELF_EMAIL_DOMAINS")),
		},
		OpenAI: OpenAIConfig{
			APIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("AGENT_DB_PATH", "odoo_agent.db"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.API.Token == "" {
		return fmt.Errorf("api token is not configured (API_TOKEN)")
	}
	if c.Odoo.URL == "" || c.Odoo.Database == "" || c.Odoo.User == "" || c.Odoo.APIKey == "" {
		return fmt.Errorf("missing ODOO_* settings (ODOO_URL/ODOO_DB/ODOO_USER/ODOO_API_KEY)")
	}
	return nil
}

// applyDefaults fills zero values that a partially specified YAML file leaves behind.
func (c *Config) applyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Odoo.TimeoutSeconds == 0 {
		c.Odoo.TimeoutSeconds = 30
	}
	if c.Odoo.URL != "" {
		c.Odoo.URL = strings.TrimRight(c.Odoo.URL, "/")
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 465
	}
	if c.SMTP.Security == "" {
		c.SMTP.Security = "ssl"
	}
	if c.SMTP.SubjectMode == "" {
		c.SMTP.SubjectMode = "blank"
	}
	if c.SMTP.DefaultDelaySec == 0 {
		c.SMTP.DefaultDelaySec = 60
	}
	if c.Recon.AmountTolerance == 0 {
		c.Recon.AmountTolerance = 0.50
	}
	if c.Recon.DateToleranceDays == 0 {
		c.Recon.DateToleranceDays = 5
	}
	if c.Recon.BaseScore == 0 {
		c.Recon.BaseScore = 0.90
	}
	if c.Recon.PartnerBoostScore == 0 {
		c.Recon.PartnerBoostScore = 0.98
	}
	if c.Recon.PartnerPrefixLen == 0 {
		c.Recon.PartnerPrefixLen = 5
	}
	if c.Recon.MinAutoScore == 0 {
		c.Recon.MinAutoScore = 0.95
	}
	if c.Ingest.MaxAttachmentMB == 0 {
		c.Ingest.MaxAttachmentMB = 20
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "odoo_agent.db"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvFloat retrieves a float environment variable with a fallback default
func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		var result float64
		if _, err := fmt.Sscanf(val, "%g", &result); err == nil {
			return result
		}
	}
	return fallback
}

// splitCSV splits a comma-separated env value into trimmed lowercase entries
func splitCSV(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if s := strings.ToLower(strings.TrimSpace(part)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
