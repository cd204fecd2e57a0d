package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config carries every tunable of the archive. Values resolve in order:
// defaults, then the optional YAML file, then environment variables.
type Config struct {
	ArchiveRoot   string `yaml:"archive_root"`
	UnclearDir    string `yaml:"unclear_dir"`
	DuplicatesDir string `yaml:"duplicates_dir"`

	CustomersFile string `yaml:"customers_file"`
	VehiclesFile  string `yaml:"vehicles_file"`
	IndexPath     string `yaml:"index_path"`

	Template       string  `yaml:"template"`
	ClearThreshold float64 `yaml:"clear_threshold"`
	ExtractWorkers int     `yaml:"extract_workers"`

	LogLevel    string `yaml:"log_level"`
	LogJSON     bool   `yaml:"log_json"`
	MetricsAddr string `yaml:"metrics_addr"`
}

func Default() Config {
	return Config{
		ArchiveRoot:    "./archiv",
		UnclearDir:     "./archiv/Unklar",
		DuplicatesDir:  "./archiv/Duplikate",
		CustomersFile:  "./daten/kunden.csv",
		VehiclesFile:   "./daten/fahrzeuge.csv",
		IndexPath:      "./daten/archiv_index.db",
		Template:       "Standard",
		ClearThreshold: 0.6,
		ExtractWorkers: 2,
		LogLevel:       "info",
	}
}

// Load builds the effective configuration. A missing file is not an error;
// a present but unreadable or malformed file is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.ClearThreshold <= 0 || cfg.ClearThreshold > 1 {
		return Config{}, fmt.Errorf("clear_threshold must be in (0, 1], got %v", cfg.ClearThreshold)
	}
	if cfg.ExtractWorkers <= 0 {
		cfg.ExtractWorkers = 2
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ArchiveRoot = envStr("ARCHIVE_ROOT", c.ArchiveRoot)
	c.UnclearDir = envStr("ARCHIVE_UNCLEAR_DIR", c.UnclearDir)
	c.DuplicatesDir = envStr("ARCHIVE_DUPLICATES_DIR", c.DuplicatesDir)
	c.CustomersFile = envStr("ARCHIVE_CUSTOMERS_FILE", c.CustomersFile)
	c.VehiclesFile = envStr("ARCHIVE_VEHICLES_FILE", c.VehiclesFile)
	c.IndexPath = envStr("ARCHIVE_INDEX_PATH", c.IndexPath)
	c.Template = envStr("ARCHIVE_TEMPLATE", c.Template)
	c.ClearThreshold = envFloat("ARCHIVE_CLEAR_THRESHOLD", c.ClearThreshold)
	c.ExtractWorkers = envInt("ARCHIVE_EXTRACT_WORKERS", c.ExtractWorkers)
	c.LogLevel = envStr("LOG_LEVEL", c.LogLevel)
	c.LogJSON = envBool("LOG_JSON", c.LogJSON)
	c.MetricsAddr = envStr("METRICS_ADDR", c.MetricsAddr)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
