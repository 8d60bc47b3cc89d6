// Package config loads the service configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"menushock/internal/analysis"
	"menushock/internal/catalog"
	"menushock/internal/costmodel"
	"menushock/internal/database"
	"menushock/internal/logger"
	"menushock/internal/models"
	"menushock/internal/parser"
	"menushock/internal/risk"
	"menushock/internal/substitution"

	"gopkg.in/yaml.v3"
)

// Data sources
const (
	SourceDir = "dir"
	SourceDB  = "db"
	SourceS3  = "s3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		MetricsPort     int           `yaml:"metrics_port"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Data struct {
		Source   string           `yaml:"source"`
		Path     string           `yaml:"path"`
		Database DatabaseConfig   `yaml:"database"`
		S3       catalog.S3Config `yaml:"s3"`
	} `yaml:"data"`

	History DatabaseConfig `yaml:"history"`

	Analysis struct {
		Limits              models.EventLimits   `yaml:"limits"`
		MonthlyUnitsPerDish int                  `yaml:"monthly_units_per_dish"`
		RiskTable           risk.Table           `yaml:"risk_table"`
		RiskTablePath       string               `yaml:"risk_table_path"`
		Ranking             substitution.Ranking `yaml:"ranking"`
		Cache               analysis.CacheConfig `yaml:"cache"`
	} `yaml:"analysis"`

	Parser parser.Config `yaml:"parser"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	RateLimit struct {
		ChatPerMinute int `yaml:"chat_per_minute"`
		Burst         int `yaml:"burst"`
	} `yaml:"rate_limit"`

	Log logger.Config `yaml:"log"`
}

type DatabaseConfig struct {
	Dialect string `yaml:"dialect"`
	DSN     string `yaml:"dsn"`
}

// Default returns a configuration that runs against ./data with a local
// Ollama model.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.MetricsPort = 9090
	cfg.Server.CORSOrigins = []string{"http://localhost:8501", "http://localhost:3000"}
	cfg.Server.ShutdownTimeout = 10 * time.Second

	cfg.Data.Source = SourceDir
	cfg.Data.Path = "data"
	cfg.Data.Database = DatabaseConfig{Dialect: database.DialectSQLite, DSN: "menushock.db"}

	cfg.History = DatabaseConfig{Dialect: database.DialectSQLite, DSN: database.MemoryDSN}

	cfg.Analysis.Limits = models.DefaultEventLimits()
	cfg.Analysis.MonthlyUnitsPerDish = costmodel.DefaultMonthlyUnits
	cfg.Analysis.RiskTable = risk.DefaultTable()
	cfg.Analysis.Ranking = substitution.DefaultRanking()
	cfg.Analysis.Cache = analysis.CacheConfig{TTL: 5 * time.Minute, CleanupInterval: 10 * time.Minute}

	cfg.Parser = parser.DefaultConfig()
	cfg.RateLimit.ChatPerMinute = 30
	cfg.RateLimit.Burst = 5
	cfg.Log = logger.DefaultConfig()
	return cfg
}

// Load reads path over the defaults, then applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("DATA_PATH", &c.Data.Path)
	set("DATA_SOURCE", &c.Data.Source)
	set("LLM_PROVIDER", &c.Parser.Provider)
	set("OLLAMA_URL", &c.Parser.BaseURL)
	set("OLLAMA_MODEL", &c.Parser.Model)
	set("JWT_SECRET", &c.Auth.JWTSecret)
	set("LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		c.Parser.APIKey = v
		// a bare key with the local default means the operator wants OpenAI
		if c.Parser.Provider == parser.ProviderOllama {
			if _, explicit := lookup("LLM_PROVIDER"); !explicit {
				c.Parser.Provider = parser.ProviderOpenAI
				c.Parser.BaseURL = ""
				c.Parser.Model = "gpt-4o-mini"
			}
		}
	}
}

// Validate checks ranges and resolves the risk table
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("server.metrics_port %d out of range", c.Server.MetricsPort)
	}
	switch c.Data.Source {
	case SourceDir, SourceDB, SourceS3:
	default:
		return fmt.Errorf("data.source must be one of dir, db, s3, got %q", c.Data.Source)
	}
	l := c.Analysis.Limits
	if l.MaxPercentIncrease <= 0 || l.MaxPercentDecrease <= 0 || l.MaxDelayDays <= 0 || l.MaxExpediteDays <= 0 {
		return fmt.Errorf("analysis.limits must all be positive")
	}
	if c.Analysis.MonthlyUnitsPerDish < 0 {
		return fmt.Errorf("analysis.monthly_units_per_dish must not be negative")
	}
	if c.Analysis.RiskTablePath != "" {
		table, err := risk.LoadTable(c.Analysis.RiskTablePath)
		if err != nil {
			return err
		}
		c.Analysis.RiskTable = table
	}
	if err := c.Analysis.RiskTable.Validate(); err != nil {
		return err
	}
	if err := c.Analysis.Ranking.Validate(); err != nil {
		return err
	}
	c.Parser.Provider = strings.ToLower(c.Parser.Provider)
	return nil
}

// AnalysisOptions builds the analyzer options from the validated config
func (c *Config) AnalysisOptions() (analysis.Options, error) {
	classifier, err := risk.NewClassifier(c.Analysis.RiskTable)
	if err != nil {
		return analysis.Options{}, err
	}
	recommender, err := substitution.New(c.Analysis.Ranking)
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.Options{
		Limits:      c.Analysis.Limits,
		Costs:       costmodel.Options{MonthlyUnitsPerDish: c.Analysis.MonthlyUnitsPerDish},
		Classifier:  classifier,
		Recommender: recommender,
	}, nil
}
