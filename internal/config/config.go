// Package config loads the YAML configuration of the digitizer and turns it
// into pipeline options.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"ecg-digitizer/internal/digitize"
	"ecg-digitizer/internal/export"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Grid detection parameters
	Grid struct {
		// BinaryThreshold separates paper (above) from grid and ink (below)
		BinaryThreshold uint8 `yaml:"binaryThreshold"`
		// KernelSize is the side of the opening element that removes thin lines
		KernelSize     int `yaml:"kernelSize"`
		OpenIterations int `yaml:"openIterations"`
		// MinSpacing and MaxSpacing bound the grid box size in pixels
		MinSpacing     int     `yaml:"minSpacing"`
		MaxSpacing     int     `yaml:"maxSpacing"`
		MinCorrelation float64 `yaml:"minCorrelation"`
		// FallbackSpacing is used when no grid is found; 0 aborts instead
		FallbackSpacing float64 `yaml:"fallbackSpacing"`
	} `yaml:"grid"`

	// Trace parameters
	Trace struct {
		InkContrast    float64 `yaml:"inkContrast"`
		MaxInkLevel    uint8   `yaml:"maxInkLevel"`
		GridMaskRadius int     `yaml:"gridMaskRadius"`
	} `yaml:"trace"`

	Rotation struct {
		// ExpandCanvas grows the rotated page so no corner is cut off
		ExpandCanvas bool `yaml:"expandCanvas"`
	} `yaml:"rotation"`

	Pipeline struct {
		// Workers is the number of leads processed at once
		Workers          int  `yaml:"workers"`
		RejectBlankLeads bool `yaml:"rejectBlankLeads"`
	} `yaml:"pipeline"`

	Preview struct {
		// MaxWidth downscales wide previews; 0 keeps the native size
		MaxWidth  int `yaml:"maxWidth"`
		LineWidth int `yaml:"lineWidth"`
	} `yaml:"preview"`

	Export struct {
		// Separator is comma, tab or space
		Separator string `yaml:"separator"`
	} `yaml:"export"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	opts := digitize.DefaultOptions()

	cfg.Grid.BinaryThreshold = opts.Grid.BinaryThreshold
	cfg.Grid.KernelSize = opts.Grid.KernelSize
	cfg.Grid.OpenIterations = opts.Grid.OpenIterations
	cfg.Grid.MinSpacing = opts.Grid.MinSpacing
	cfg.Grid.MaxSpacing = opts.Grid.MaxSpacing
	cfg.Grid.MinCorrelation = opts.Grid.MinCorrelation

	cfg.Trace.InkContrast = opts.Trace.InkContrast
	cfg.Trace.MaxInkLevel = opts.Trace.MaxInkLevel
	cfg.Trace.GridMaskRadius = opts.Trace.GridMaskRadius

	cfg.Pipeline.Workers = runtime.NumCPU()

	cfg.Preview.LineWidth = opts.Preview.LineWidth

	cfg.Export.Separator = "comma"

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Validate checks values that would make the pipeline misbehave.
func (c *Config) Validate() error {
	switch {
	case c.Grid.KernelSize < 1:
		return fmt.Errorf("grid.kernelSize must be at least 1, got %d", c.Grid.KernelSize)
	case c.Grid.OpenIterations < 1:
		return fmt.Errorf("grid.openIterations must be at least 1, got %d", c.Grid.OpenIterations)
	case c.Grid.MinSpacing < 2:
		return fmt.Errorf("grid.minSpacing must be at least 2, got %d", c.Grid.MinSpacing)
	case c.Grid.MaxSpacing <= c.Grid.MinSpacing:
		return fmt.Errorf("grid spacing range %d..%d is empty", c.Grid.MinSpacing, c.Grid.MaxSpacing)
	case c.Grid.FallbackSpacing < 0:
		return fmt.Errorf("grid.fallbackSpacing must not be negative")
	case c.Trace.GridMaskRadius < 0:
		return fmt.Errorf("trace.gridMaskRadius must not be negative")
	}
	if _, err := export.ParseSeparator(c.Export.Separator); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// PipelineOptions converts the configuration to pipeline options.
func (c *Config) PipelineOptions() digitize.Options {
	opts := digitize.DefaultOptions()

	opts.Grid = opts.Grid.WithThreshold(c.Grid.BinaryThreshold).
		WithSpacingRange(c.Grid.MinSpacing, c.Grid.MaxSpacing)
	opts.Grid.KernelSize = c.Grid.KernelSize
	opts.Grid.OpenIterations = c.Grid.OpenIterations
	opts.Grid.MinCorrelation = c.Grid.MinCorrelation

	opts.Trace = opts.Trace.WithInkContrast(c.Trace.InkContrast).WithGridMaskRadius(c.Trace.GridMaskRadius)
	opts.Trace.MaxInkLevel = c.Trace.MaxInkLevel

	opts.Preview = opts.Preview.WithMaxWidth(c.Preview.MaxWidth).WithLineWidth(c.Preview.LineWidth)

	opts.ExpandCanvas = c.Rotation.ExpandCanvas
	opts = opts.WithFallbackSpacing(c.Grid.FallbackSpacing).
		WithWorkers(c.Pipeline.Workers).
		WithRejectBlankLeads(c.Pipeline.RejectBlankLeads)

	return opts
}

// Separator returns the configured export separator.
func (c *Config) Separator() (export.Separator, error) {
	return export.ParseSeparator(c.Export.Separator)
}

// NewLogger builds a logger writing to out at the configured level and format.
func (c *Config) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger, nil
}
