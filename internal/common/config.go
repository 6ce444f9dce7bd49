package common

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	UseOCR   bool
	LogLevel string
	OCR      OCRConfig
	Watch    WatchConfig
	Output   OutputConfig
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftoppm    string
	Tesseract   string
	Lang        string
	TessdataDir string
	DPI         int // 0 leaves pdftoppm at its own default resolution
	MaxPages    int // 0 = no limit
}

// WatchConfig holds directory watch configuration
type WatchConfig struct {
	SettleDelay time.Duration
}

// OutputConfig holds output-related configuration
type OutputConfig struct {
	Dir         string
	SummaryXLSX string
}

//go:embed config.schema.json
var configSchema []byte

// fileConfig mirrors the YAML config file. Pointers mark optional scalars so
// an explicit zero in the file is distinguishable from an absent key.
type fileConfig struct {
	UseOCR   *bool  `yaml:"use_ocr"`
	LogLevel string `yaml:"log_level"`
	OCR      struct {
		Pdftoppm    string `yaml:"pdftoppm"`
		Tesseract   string `yaml:"tesseract"`
		Lang        string `yaml:"lang"`
		TessdataDir string `yaml:"tessdata_dir"`
		DPI         *int   `yaml:"dpi"`
		MaxPages    *int   `yaml:"max_pages"`
	} `yaml:"ocr"`
	Watch struct {
		SettleDelay string `yaml:"settle_delay"`
	} `yaml:"watch"`
	Output struct {
		Dir         string `yaml:"dir"`
		SummaryXLSX string `yaml:"summary_xlsx"`
	} `yaml:"output"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		UseOCR:   true,
		LogLevel: "info",
		OCR: OCRConfig{
			Pdftoppm:  "pdftoppm",
			Tesseract: "tesseract",
			Lang:      "eng",
		},
		Watch: WatchConfig{
			SettleDelay: time.Second,
		},
		Output: OutputConfig{
			Dir: "output_txt",
		},
	}
}

// LoadConfig builds the configuration from defaults, then the optional YAML
// file at path, then environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError(CodeConfig, "read config file", err)
		}
		if err := cfg.applyFile(raw); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return NewAppError(CodeConfig, "parse config file", err)
	}
	if doc == nil {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return NewAppError(CodeConfig, "convert config file", err)
	}
	if err := validateAgainstSchema(data); err != nil {
		return NewAppError(CodeConfig, "config file does not match schema", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return NewAppError(CodeConfig, "decode config file", err)
	}
	if fc.UseOCR != nil {
		c.UseOCR = *fc.UseOCR
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.OCR.Pdftoppm != "" {
		c.OCR.Pdftoppm = fc.OCR.Pdftoppm
	}
	if fc.OCR.Tesseract != "" {
		c.OCR.Tesseract = fc.OCR.Tesseract
	}
	if fc.OCR.Lang != "" {
		c.OCR.Lang = fc.OCR.Lang
	}
	if fc.OCR.TessdataDir != "" {
		c.OCR.TessdataDir = fc.OCR.TessdataDir
	}
	if fc.OCR.DPI != nil {
		c.OCR.DPI = *fc.OCR.DPI
	}
	if fc.OCR.MaxPages != nil {
		c.OCR.MaxPages = *fc.OCR.MaxPages
	}
	if fc.Watch.SettleDelay != "" {
		d, err := time.ParseDuration(fc.Watch.SettleDelay)
		if err != nil {
			return NewAppError(CodeConfig, "watch.settle_delay", err)
		}
		c.Watch.SettleDelay = d
	}
	if fc.Output.Dir != "" {
		c.Output.Dir = fc.Output.Dir
	}
	if fc.Output.SummaryXLSX != "" {
		c.Output.SummaryXLSX = fc.Output.SummaryXLSX
	}
	return nil
}

func (c *Config) applyEnv() {
	c.UseOCR = getEnvAsBool("CARDSCAN_USE_OCR", c.UseOCR)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.OCR.Pdftoppm = getEnv("PDFTOPPM_BIN", c.OCR.Pdftoppm)
	c.OCR.Tesseract = getEnv("TESSERACT_BIN", c.OCR.Tesseract)
	c.OCR.Lang = getEnv("TESSERACT_LANG", c.OCR.Lang)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MaxPages = getEnvAsInt("OCR_MAX_PAGES", c.OCR.MaxPages)
	c.Watch.SettleDelay = getEnvAsDuration("WATCH_SETTLE_DELAY", c.Watch.SettleDelay)
	c.Output.Dir = getEnv("OUTPUT_DIR", c.Output.Dir)
	c.Output.SummaryXLSX = getEnv("SUMMARY_XLSX", c.Output.SummaryXLSX)
}

func validateAgainstSchema(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", bytes.NewReader(configSchema)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return schema.Validate(v)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		return NewAppError(CodeConfig, "output dir is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.OCR.Lang) == "" {
		return NewAppError(CodeConfig, "ocr lang is required", ErrInvalidConfig)
	}
	if c.OCR.DPI < 0 {
		return NewAppError(CodeConfig, "ocr dpi must not be negative", ErrInvalidConfig)
	}
	if c.OCR.MaxPages < 0 {
		return NewAppError(CodeConfig, "ocr max_pages must not be negative", ErrInvalidConfig)
	}
	if c.Watch.SettleDelay < 0 {
		return NewAppError(CodeConfig, "watch settle delay must not be negative", ErrInvalidConfig)
	}
	return nil
}
