package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is shared by the server and the command line tools.
type Config struct {
	Port           int      `json:"port" yaml:"port" toml:"port"`
	LogPath        string   `json:"log" yaml:"log" toml:"log"`
	LogLevel       string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	Converter      string   `json:"converter" yaml:"converter" toml:"converter"`
	ConverterPath  string   `json:"converter_path" yaml:"converter_path" toml:"converter_path"`
	ConvertTimeout Duration `json:"convert_timeout" yaml:"convert_timeout" toml:"convert_timeout"`
	Background     string   `json:"background" yaml:"background" toml:"background"`
	Workers        int      `json:"workers" yaml:"workers" toml:"workers"`
}

// Duration reads "10s" style values in every config format.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() Config {
	return Config{
		Port:           7582,
		LogLevel:       "info",
		Converter:      "rsvg",
		ConvertTimeout: Duration{10 * time.Second},
		Background:     "white",
		Workers:        4,
	}
}

var configNames = []string{"config.json", "config.yaml", "config.yml", "config.toml"}

// FindConfigPath looks for a config file in the working directory and its
// parents. It returns the file and the directory holding it.
func FindConfigPath() (string, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	return findConfigFrom(cwd)
}

func findConfigFrom(start string) (string, string, error) {
	dir := start
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("config file not found from %s: %w", start, os.ErrNotExist)
}

// LoadConfig reads path over Default. The format follows the extension.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%s: unsupported config format %q", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads the config named by arg. An empty arg searches upward from
// the working directory and falls back to Default when nothing is found.
// The returned directory anchors relative paths in the file.
func Resolve(arg string) (Config, string, error) {
	if arg != "" {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return Config{}, "", err
		}
		cfg, err := LoadConfig(abs)
		return cfg, filepath.Dir(abs), err
	}
	path, dir, err := FindConfigPath()
	if errors.Is(err, os.ErrNotExist) {
		cwd, _ := os.Getwd()
		return Default(), cwd, nil
	}
	if err != nil {
		return Config{}, "", err
	}
	cfg, err := LoadConfig(path)
	return cfg, dir, err
}

// ConverterExecutable resolves ConverterPath against the config directory.
// Bare command names are left for PATH lookup.
func (c Config) ConverterExecutable(dir string) string {
	p := c.ConverterPath
	if p == "" || filepath.IsAbs(p) || !strings.ContainsRune(p, filepath.Separator) {
		return p
	}
	return filepath.Join(dir, p)
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Converter == "" {
		return errors.New("converter is required")
	}
	if c.ConvertTimeout.Duration <= 0 {
		return fmt.Errorf("convert timeout must be positive: %s", c.ConvertTimeout)
	}
	return nil
}
