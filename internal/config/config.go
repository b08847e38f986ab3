// Package config handles loading fileconverter.toml configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/amonks/fileconverter/internal/paths"
)

// ProjectFileName is the per-directory config file name.
const ProjectFileName = "fileconverter.toml"

const (
	DefaultServiceURL      = "http://127.0.0.1:5000"
	DefaultTimeout         = 30 * time.Second
	DefaultPollInterval    = time.Second
	DefaultMaxPollFailures = 60
	DefaultLogLevel        = "warn"
)

// Environment overrides. They win over both config files.
const (
	EnvServiceURL      = "FC_SERVICE_URL"
	EnvLogLevel        = "FC_LOG_LEVEL"
	EnvPollInterval    = "FC_POLL_INTERVAL"
	EnvMaxPollFailures = "FC_POLL_MAX_FAILURES"
)

// Config represents the fileconverter.toml configuration file.
type Config struct {
	Service Service `toml:"service"`
	Poll    Poll    `toml:"poll"`
	Log     Log     `toml:"log"`
}

// Service locates the conversion service.
type Service struct {
	URL string `toml:"url"`
	// Timeout bounds JSON calls and the wait for response headers. Zero
	// or negative disables it.
	Timeout time.Duration `toml:"timeout"`
}

// Poll controls progress polling.
type Poll struct {
	Interval time.Duration `toml:"interval"`
	// MaxFailures is the number of consecutive failed progress requests
	// tolerated before a run fails. Negative retries forever.
	MaxFailures int `toml:"max-failures"`
}

// Log configures the logger.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Service: Service{URL: DefaultServiceURL, Timeout: DefaultTimeout},
		Poll:    Poll{Interval: DefaultPollInterval, MaxFailures: DefaultMaxPollFailures},
		Log:     Log{Level: DefaultLogLevel},
	}
}

// Load loads configuration from the global config file and projectDir,
// then applies environment overrides and defaults.
func Load(projectDir string) (*Config, error) {
	globalPath, err := paths.GlobalConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(projectDir, ProjectFileName))
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(globalCfg, projectCfg, globalMeta, projectMeta)
	if err := applyEnv(merged, os.Getenv); err != nil {
		return nil, err
	}
	applyDefaults(merged)
	return merged, nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: unknown key %s", path, undecoded[0])
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	if globalCfg == nil {
		globalCfg = &Config{}
	}
	if projectCfg == nil {
		projectCfg = &Config{}
	}

	merged := Config{}
	merged.Service.URL = mergeString(projectMeta.IsDefined("service", "url"), projectCfg.Service.URL, globalCfg.Service.URL)
	merged.Poll.Interval = mergeValue(projectMeta.IsDefined("poll", "interval"), projectCfg.Poll.Interval, globalCfg.Poll.Interval)
	merged.Log.Level = mergeString(projectMeta.IsDefined("log", "level"), projectCfg.Log.Level, globalCfg.Log.Level)

	switch {
	case projectMeta.IsDefined("service", "timeout"):
		merged.Service.Timeout = projectCfg.Service.Timeout
	case globalMeta.IsDefined("service", "timeout"):
		merged.Service.Timeout = globalCfg.Service.Timeout
	default:
		merged.Service.Timeout = DefaultTimeout
	}

	switch {
	case projectMeta.IsDefined("poll", "max-failures"):
		merged.Poll.MaxFailures = projectCfg.Poll.MaxFailures
	case globalMeta.IsDefined("poll", "max-failures"):
		merged.Poll.MaxFailures = globalCfg.Poll.MaxFailures
	default:
		merged.Poll.MaxFailures = DefaultMaxPollFailures
	}

	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	return strings.TrimSpace(mergeValue(projectDefined, projectValue, globalValue))
}

func mergeValue[T any](projectDefined bool, projectValue, globalValue T) T {
	if projectDefined {
		return projectValue
	}
	return globalValue
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if value := strings.TrimSpace(getenv(EnvServiceURL)); value != "" {
		cfg.Service.URL = value
	}
	if value := strings.TrimSpace(getenv(EnvLogLevel)); value != "" {
		cfg.Log.Level = value
	}
	if value := strings.TrimSpace(getenv(EnvPollInterval)); value != "" {
		interval, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvPollInterval, err)
		}
		cfg.Poll.Interval = interval
	}
	if value := strings.TrimSpace(getenv(EnvMaxPollFailures)); value != "" {
		failures, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvMaxPollFailures, err)
		}
		cfg.Poll.MaxFailures = failures
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Service.URL == "" {
		cfg.Service.URL = DefaultServiceURL
	}
	if cfg.Service.Timeout < 0 {
		cfg.Service.Timeout = 0
	}
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = DefaultPollInterval
	}
	if cfg.Poll.MaxFailures == 0 {
		cfg.Poll.MaxFailures = DefaultMaxPollFailures
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}
