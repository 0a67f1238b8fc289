// Package config handles psalmseek configuration.
//
// Settings come from three layers, lowest priority first: built-in
// defaults, the global config file (~/.config/psalmseek/config.yml),
// and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration.
type Config struct {
	// Ollama service
	OllamaHost string `yaml:"ollama_host,omitempty"`
	LLMModel   string `yaml:"llm_model,omitempty"`
	EmbedModel string `yaml:"embed_model,omitempty"`

	// File paths
	BiblePath  string `yaml:"bible_path,omitempty"`
	BlocksPath string `yaml:"blocks_path,omitempty"`
	IndexPath  string `yaml:"index_path,omitempty"`
	CachePath  string `yaml:"cache_path,omitempty"`

	// Chunking
	BlockVerses         int  `yaml:"block_verses,omitempty"`
	StrideVerses        int  `yaml:"stride_verses,omitempty"`
	WholeIfAtMost       int  `yaml:"whole_if_at_most,omitempty"`
	IncludeVerseNumbers bool `yaml:"include_verse_numbers"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "psalmseek"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Default chunking parameters: 8-verse blocks with a 4-verse stride
// (50% overlap); psalms of at most 10 verses stay whole.
const (
	DefaultBlockVerses   = 8
	DefaultStrideVerses  = 4
	DefaultWholeIfAtMost = 10
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OllamaHost:          "http://localhost:11434",
		LLMModel:            "llama3:8b",
		EmbedModel:          "nomic-embed-text",
		BiblePath:           filepath.Join("data", "bible_kjv.json"),
		BlocksPath:          filepath.Join("data", "psalm_blocks.json"),
		IndexPath:           filepath.Join("storage", "psalms_index.gob"),
		CachePath:           filepath.Join("storage", "verses.db"),
		BlockVerses:         DefaultBlockVerses,
		StrideVerses:        DefaultStrideVerses,
		WholeIfAtMost:       DefaultWholeIfAtMost,
		IncludeVerseNumbers: true,
	}
}

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/psalmseek/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// Load builds the effective configuration: defaults, overlaid by the
// global config file if present, overlaid by environment variables.
func Load() (*Config, error) {
	cfg := Default()

	path := GlobalConfigPath()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv() {
	setString(&c.OllamaHost, "OLLAMA_HOST")
	setString(&c.LLMModel, "OLLAMA_LLM_MODEL")
	setString(&c.EmbedModel, "OLLAMA_EMBED_MODEL")
	setString(&c.BiblePath, "BIBLE_PATH")
	setString(&c.BlocksPath, "BLOCKS_PATH")
	setString(&c.IndexPath, "INDEX_PATH")
	setString(&c.CachePath, "CACHE_PATH")
	setInt(&c.BlockVerses, "BLOCK_VERSES")
	setInt(&c.StrideVerses, "STRIDE_VERSES")
	setInt(&c.WholeIfAtMost, "WHOLE_IF_AT_MOST")
	setBool(&c.IncludeVerseNumbers, "INCLUDE_VERSE_NUMBERS")

	c.OllamaHost = strings.TrimRight(c.OllamaHost, "/")
}

func (c *Config) validate() error {
	if c.BlockVerses <= 0 {
		return fmt.Errorf("block_verses must be positive, got %d", c.BlockVerses)
	}
	if c.StrideVerses <= 0 {
		return fmt.Errorf("stride_verses must be positive, got %d", c.StrideVerses)
	}
	if c.WholeIfAtMost < 0 {
		return fmt.Errorf("whole_if_at_most must not be negative, got %d", c.WholeIfAtMost)
	}
	return nil
}

// Save writes the config to the global config file, creating directories
// as needed.
func (c *Config) Save() error {
	path := GlobalConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			*dst = true
		case "0", "false", "no":
			*dst = false
		}
	}
}
