package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/i2y/tbx2pyt/internal/usecase"
)

const (
	envPrefix         = "tbx2pyt"
	defaultConfigFile = "configs/tbx2pyt.yaml"
)

// ToolboxSource is one archive to convert in batch mode.
type ToolboxSource struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output,omitempty"` // Defaults to Input with a .pyt extension
}

// FileConfig defines the structure loaded from the YAML configuration file.
type FileConfig struct {
	Sources []interface{} `yaml:"sources"`
}

// Config holds the final application configuration, merged from file and environment variables.
// Fields are loaded from environment variables with the prefix "TBX2PYT_", potentially overriding file settings.
type Config struct {
	ConfigFilePath string `envconfig:"CONFIG_FILE" default:"configs/tbx2pyt.yaml"`

	// File-loaded fields
	Sources []ToolboxSource

	// Environment-overridable fields
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile                  string        `envconfig:"LOG_FILE" default:"/tmp/tbx2pyt.log"`
	ListenAddr               string        `envconfig:"LISTEN_ADDR" default:":8080"`
	AdminAddr                string        `envconfig:"ADMIN_ADDR" default:":8081"`
	ShutdownTimeout          time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// ConversionRequests turns the configured sources into use case requests.
func (c *Config) ConversionRequests() []usecase.ConversionRequest {
	reqs := make([]usecase.ConversionRequest, len(c.Sources))
	for i, s := range c.Sources {
		reqs[i] = usecase.ConversionRequest{InputPath: s.Input, OutputPath: s.Output}
	}
	return reqs
}

// Load loads configuration first from environment variables (to get file path),
// then from the specified YAML file, and finally merges/overrides with environment variables again.
// A missing file is only tolerated at the default location.
func Load() (*Config, error) {
	// 1. Initial env pass, mainly for ConfigFilePath.
	var initialCfg Config
	if err := envconfig.Process(envPrefix, &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}

	// 2. YAML file.
	fileCfg := FileConfig{}
	if initialCfg.ConfigFilePath != "" {
		yamlFile, err := os.ReadFile(initialCfg.ConfigFilePath)
		switch {
		case errors.Is(err, fs.ErrNotExist) && initialCfg.ConfigFilePath == defaultConfigFile:
			slog.Debug("Default config file not found, using env vars only.", "path", initialCfg.ConfigFilePath)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
		default:
			if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
			}
			slog.Info("Loaded configuration from file.", "path", initialCfg.ConfigFilePath)
		}
	} else {
		slog.Info("No config file path specified (TBX2PYT_CONFIG_FILE), using defaults/env vars only.")
	}

	// 3. File values, then env overrides.
	finalCfg := initialCfg
	finalCfg.Sources = parseSources(fileCfg.Sources)

	if err := envconfig.Process(envPrefix, &finalCfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}

	return &finalCfg, nil
}

// parseSources accepts both plain input paths and {input, output} objects.
func parseSources(raw []interface{}) []ToolboxSource {
	sources := make([]ToolboxSource, 0, len(raw))
	for _, source := range raw {
		var ts ToolboxSource
		switch v := source.(type) {
		case string:
			ts.Input = v
		case map[string]interface{}:
			if input, ok := v["input"].(string); ok {
				ts.Input = input
			}
			if output, ok := v["output"].(string); ok {
				ts.Output = output
			}
		default:
			slog.Warn("Ignoring invalid toolbox source format", "source", source)
			continue
		}

		if ts.Input == "" {
			slog.Warn("Toolbox source missing input path, skipping", "source", source)
			continue
		}
		if !strings.EqualFold(filepath.Ext(ts.Input), usecase.ArchiveExtension) {
			slog.Warn("Toolbox source is not a .tbx archive, skipping", "input", ts.Input)
			continue
		}
		sources = append(sources, ts)
	}
	return sources
}
