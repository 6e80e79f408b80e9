package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	Social  Social  `yaml:"social"`
	News    News    `yaml:"news"`
	LLM     LLM     `yaml:"llm"`
	Server  Server  `yaml:"server"`
	Output  Output  `yaml:"output"`
	Logging Logging `yaml:"logging"`
}

type HTTP struct {
	UserAgent             string `yaml:"user_agent"`
	SiteTimeoutSeconds    int    `yaml:"site_timeout_seconds"`
	EcomTimeoutSeconds    int    `yaml:"ecom_timeout_seconds"`
	SocialTimeoutSeconds  int    `yaml:"social_timeout_seconds"`
	ResolveTimeoutSeconds int    `yaml:"resolve_timeout_seconds"`
}

type Social struct {
	Region           string `yaml:"region"`
	WindowDays       int    `yaml:"window_days"`
	MaxPosts         int    `yaml:"max_posts"`
	YouTubeAPIKeyEnv string `yaml:"youtube_api_key_env"`
}

type News struct {
	Enabled      bool `yaml:"enabled"`
	MaxItems     int  `yaml:"max_items"`
	FetchContent bool `yaml:"fetch_content"`
}

type LLM struct {
	BaseURL   string   `yaml:"base_url"`
	APIKeyEnv string   `yaml:"api_key_env"`
	Models    []string `yaml:"models"`
	MaxTokens int      `yaml:"max_tokens"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// SiteTimeout returns the website collector timeout.
func (c *Config) SiteTimeout() time.Duration {
	return time.Duration(c.HTTP.SiteTimeoutSeconds) * time.Second
}

// EcomTimeout returns the catalog collector timeout.
func (c *Config) EcomTimeout() time.Duration {
	return time.Duration(c.HTTP.EcomTimeoutSeconds) * time.Second
}

// SocialTimeout returns the social collector timeout.
func (c *Config) SocialTimeout() time.Duration {
	return time.Duration(c.HTTP.SocialTimeoutSeconds) * time.Second
}

// ResolveTimeout returns the per-fetch entity resolution timeout.
func (c *Config) ResolveTimeout() time.Duration {
	return time.Duration(c.HTTP.ResolveTimeoutSeconds) * time.Second
}

// ConfigDir returns the XDG config directory for signalscale.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "signalscale")
}

// DataDir returns the XDG data directory for signalscale.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "signalscale")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/signalscale/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'signalscale init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, _ := parse(nil)
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		HTTP: HTTP{
			UserAgent:             "SignalScaleBot/1.0 (brand intelligence)",
			SiteTimeoutSeconds:    10,
			EcomTimeoutSeconds:    8,
			SocialTimeoutSeconds:  12,
			ResolveTimeoutSeconds: 6,
		},
		Social: Social{
			Region:           "US",
			WindowDays:       7,
			MaxPosts:         80,
			YouTubeAPIKeyEnv: "YOUTUBE_API_KEY",
		},
		News: News{
			Enabled:      true,
			MaxItems:     10,
			FetchContent: true,
		},
		LLM: LLM{
			BaseURL:   "https://api.openai.com/v1",
			APIKeyEnv: "OPENAI_API_KEY",
			Models:    []string{"gpt-4.1-mini", "gpt-4.1-nano"},
			MaxTokens: 512,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
