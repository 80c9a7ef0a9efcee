// =============================================================================
// USDA Honey Report - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults
//   2. Main Config (config.yaml): directory layout, parsing and aggregation
//      settings
//   3. Environment: HONEY_* variables, optionally read from a .env file
//
// A missing config.yaml is not an error; the defaults describe the standard
// directory layout. The merged configuration is validated with struct tags
// before it is returned.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "config.yaml"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// ColonyDir holds the quarterly colony/stressor report files.
	// Default: "./colony_data"
	ColonyDir string `yaml:"colony_dir" validate:"required"`

	// ProductionDir holds the yearly honey production report files.
	// Default: "./production_data"
	ProductionDir string `yaml:"production_dir" validate:"required"`

	// OutputDir receives the flat output tables and run summaries.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" validate:"required"`

	// =========================================================================
	// PARSING SETTINGS
	// =========================================================================

	// OutputFormats selects the files written by `process`.
	// Valid values: "csv", "xlsx"
	// Default: ["csv", "xlsx"]
	OutputFormats []string `yaml:"output_formats" validate:"min=1,dive,oneof=csv xlsx"`

	// FilePattern selects report files inside the input directories.
	// Default: "*.csv"
	FilePattern string `yaml:"file_pattern" validate:"required"`

	// Delimiter is the raw report field delimiter.
	// Default: ","
	Delimiter string `yaml:"delimiter" validate:"required"`

	// RowMarker is the row-type value carried by data rows.
	// Default: "d"
	RowMarker string `yaml:"row_marker" validate:"required"`

	// UnknownStates decides what happens to rows naming an unknown state.
	// Valid values: "fail", "skip"
	// Default: "fail"
	UnknownStates string `yaml:"unknown_states" validate:"oneof=fail skip"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogFile is an optional extra log destination.
	LogFile string `yaml:"log_file"`

	// MetricsFile, when set, receives a prometheus textfile after `process`.
	MetricsFile string `yaml:"metrics_file"`

	// =========================================================================
	// SERVER SETTINGS
	// =========================================================================

	// ListenAddr is the API listen address.
	// Default: ":8050"
	ListenAddr string `yaml:"listen_addr" validate:"required"`

	// =========================================================================
	// AGGREGATION SETTINGS
	// =========================================================================

	Colony     ColonyConfig     `yaml:"colony"`
	Production ProductionConfig `yaml:"production"`
}

// ColonyConfig controls colony/stressor aggregation.
type ColonyConfig struct {
	// StartYear labels the first colony file.
	// Default: 2015
	StartYear int `yaml:"start_year" validate:"min=1900,max=2100"`

	// DropQuarters are removed before aggregation.
	// Default: ["Q5", "Q6"]
	DropQuarters []string `yaml:"drop_quarters" validate:"dive,oneof=Q1 Q2 Q3 Q4 Q5 Q6 Q7 Q8"`
}

// ProductionConfig controls production aggregation.
type ProductionConfig struct {
	// StartYear labels the first production file.
	// Default: 2000
	StartYear int `yaml:"start_year" validate:"min=1900,max=2100"`

	// PrimaryQuarter is the block kept from every file.
	// Default: "Q1"
	PrimaryQuarter string `yaml:"primary_quarter" validate:"oneof=Q1 Q2 Q3 Q4 Q5 Q6 Q7 Q8"`

	// FinalQuarter is the extra block kept from the last file.
	// Default: "Q2"
	FinalQuarter string `yaml:"final_quarter" validate:"oneof=Q1 Q2 Q3 Q4 Q5 Q6 Q7 Q8"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the .env file (if any), then the main configuration.
func Load(configPath string) (*MainConfig, error) {
	_ = godotenv.Load() // ignore missing file
	return LoadMainConfig(configPath)
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file
//     yields the defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be parsed or the result is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(&config)
	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment
// overrides exist.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// envOverrides maps environment variables to the fields they replace.
var envOverrides = []struct {
	name  string
	field func(*MainConfig) *string
}{
	{"HONEY_COLONY_DIR", func(c *MainConfig) *string { return &c.ColonyDir }},
	{"HONEY_PRODUCTION_DIR", func(c *MainConfig) *string { return &c.ProductionDir }},
	{"HONEY_OUTPUT_DIR", func(c *MainConfig) *string { return &c.OutputDir }},
	{"HONEY_LOG_LEVEL", func(c *MainConfig) *string { return &c.LogLevel }},
	{"HONEY_LISTEN_ADDR", func(c *MainConfig) *string { return &c.ListenAddr }},
	{"HONEY_UNKNOWN_STATES", func(c *MainConfig) *string { return &c.UnknownStates }},
	{"HONEY_METRICS_FILE", func(c *MainConfig) *string { return &c.MetricsFile }},
}

func applyEnvOverrides(config *MainConfig) {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && strings.TrimSpace(v) != "" {
			*o.field(config) = strings.TrimSpace(v)
		}
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.ColonyDir == "" {
		config.ColonyDir = "./colony_data"
	}
	if config.ProductionDir == "" {
		config.ProductionDir = "./production_data"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if len(config.OutputFormats) == 0 {
		config.OutputFormats = []string{"csv", "xlsx"}
	}
	if config.FilePattern == "" {
		config.FilePattern = "*.csv"
	}
	if config.Delimiter == "" {
		config.Delimiter = ","
	}
	if config.RowMarker == "" {
		config.RowMarker = "d"
	}
	if config.UnknownStates == "" {
		config.UnknownStates = "fail"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.ListenAddr == "" {
		config.ListenAddr = ":8050"
	}
	if config.Colony.StartYear == 0 {
		config.Colony.StartYear = 2015
	}
	if config.Colony.DropQuarters == nil {
		config.Colony.DropQuarters = []string{"Q5", "Q6"}
	}
	if config.Production.StartYear == 0 {
		config.Production.StartYear = 2000
	}
	if config.Production.PrimaryQuarter == "" {
		config.Production.PrimaryQuarter = "Q1"
	}
	if config.Production.FinalQuarter == "" {
		config.Production.FinalQuarter = "Q2"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}
	if config.Production.PrimaryQuarter == config.Production.FinalQuarter {
		return fmt.Errorf("production primary_quarter and final_quarter must differ (both %s)", config.Production.PrimaryQuarter)
	}
	return nil
}

// WantsFormat reports whether an output format is enabled.
func (c *MainConfig) WantsFormat(format string) bool {
	for _, f := range c.OutputFormats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}
