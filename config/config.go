// Package config loads the docex YAML configuration file.
//
// Example file:
//
//	storage: sql
//	db_path: extracted.db
//	workers: 4
//	log_level: debug
//	kinds: [text, tables]
//	tables:
//	  min_rows: 3
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/sink"
	"github.com/tsawler/docex/tables"
)

// Config holds the docex settings. Zero values are replaced by defaults.
type Config struct {
	Storage     string        `yaml:"storage"`
	OutputDir   string        `yaml:"output_dir"`
	DBPath      string        `yaml:"db_path"`
	Workers     int           `yaml:"workers"`
	LogLevel    string        `yaml:"log_level"`
	MaxFileSize int64         `yaml:"max_file_size"` // bytes
	Kinds       []string      `yaml:"kinds"`
	Tables      tables.Config `yaml:"tables"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	c := &Config{}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.Storage == "" {
		c.Storage = string(sink.StorageFile)
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.DBPath == "" {
		c.DBPath = "extracted_data.db"
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	d := tables.DefaultConfig()
	if c.Tables.MinRows <= 0 {
		c.Tables.MinRows = d.MinRows
	}
	if c.Tables.MinCols <= 0 {
		c.Tables.MinCols = d.MinCols
	}
	if c.Tables.MinConfidence <= 0 {
		c.Tables.MinConfidence = d.MinConfidence
	}
	if c.Tables.AlignmentTolerance <= 0 {
		c.Tables.AlignmentTolerance = d.AlignmentTolerance
	}
	if c.Tables.MinLineLength <= 0 {
		c.Tables.MinLineLength = d.MinLineLength
	}
}

// Load reads a YAML file. Keys the file omits keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.defaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if _, err := sink.ParseStorage(c.Storage); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.RecordKinds(); err != nil {
		return err
	}
	if c.Tables.MinConfidence > 1 {
		return fmt.Errorf("tables.min_confidence must be at most 1, got %v", c.Tables.MinConfidence)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// RecordKinds parses Kinds. An empty list selects every kind.
func (c *Config) RecordKinds() ([]model.Kind, error) {
	if len(c.Kinds) == 0 {
		return model.AllKinds(), nil
	}
	out := make([]model.Kind, 0, len(c.Kinds))
	for _, s := range c.Kinds {
		k, err := model.ParseKind(strings.ToLower(strings.TrimSpace(s)))
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// Target returns the sink target for the configured storage: the output
// directory or the database path.
func (c *Config) Target() string {
	if c.Storage == string(sink.StorageSQL) {
		return c.DBPath
	}
	return c.OutputDir
}
