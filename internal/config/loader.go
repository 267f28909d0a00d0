package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds conversion defaults read from a file.
// Zero values mean "unspecified"; flags and environment variables take precedence.
type Config struct {
	Platform    string `json:"platform" yaml:"platform" toml:"platform"`
	ImageSize   string `json:"imgsize" yaml:"imgsize" toml:"imgsize"`
	Dataset     string `json:"dataset" yaml:"dataset" toml:"dataset"`
	PythonBin   string `json:"python_bin" yaml:"python_bin" toml:"python_bin"`
	Opset       int    `json:"opset" yaml:"opset" toml:"opset"`
	ExportArgs  string `json:"export_args" yaml:"export_args" toml:"export_args"`
	LogLevel    string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat   string `json:"log_format" yaml:"log_format" toml:"log_format"`
	MetricsFile string `json:"metrics_file" yaml:"metrics_file" toml:"metrics_file"`
	Report      string `json:"report" yaml:"report" toml:"report"`
	Verbose     bool   `json:"verbose" yaml:"verbose" toml:"verbose"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
