package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/sdb-bridge/internal/logger"
)

// Config holds the device connection and deployment defaults.
type Config struct {
	// SDBPath is the sdb executable name or path.
	SDBPath string `yaml:"sdb_path"`
	// Serial selects the target device when several are attached.
	Serial string `yaml:"serial,omitempty"`
	// Timeout bounds a single sdb invocation; zero disables it.
	Timeout time.Duration `yaml:"timeout"`
	// RemoteDir is the default destination directory on the device.
	RemoteDir string `yaml:"remote_dir"`
	// Overwrite allows replacing files that already exist on the device.
	Overwrite bool `yaml:"overwrite"`
	// Chmod is applied to every pushed file when not empty.
	Chmod string `yaml:"chmod,omitempty"`
	// LogLevel is the application log level.
	LogLevel string `yaml:"log_level"`
	// SDBLogLevel is the log level of sdb invocation traces.
	// When empty it follows LogLevel, see TransportLogLevel.
	SDBLogLevel string `yaml:"sdb_log_level,omitempty"`
	// LockFile is the deployment marker path; empty means the OS temp dir.
	LockFile string `yaml:"lock_file,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "sdb-bridge-settings.yaml"

	// DefaultEnvFilename is loaded into the environment before settings are read.
	DefaultEnvFilename = ".env"

	// DefaultSDBPath is looked up in PATH.
	DefaultSDBPath = "sdb"

	// DefaultTimeout is the default duration of a single sdb call.
	DefaultTimeout = 2 * time.Minute

	// DefaultRemoteDir is the home directory of the developer user on Tizen devices.
	DefaultRemoteDir = "/home/developer"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// Environment variables that override values from the settings file.
const (
	EnvSDBPath   = "SDB_PATH"
	EnvSerial    = "SDB_SERIAL"
	EnvTimeout   = "SDB_TIMEOUT"
	EnvRemoteDir = "SDB_REMOTE_DIR"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errRemoteDirNotAbsolute is returned when the remote directory is relative.
	errRemoteDirNotAbsolute = errors.New("remote directory must be an absolute path")
	// errNegativeTimeout is returned when the sdb timeout is below zero.
	errNegativeTimeout = errors.New("timeout must not be negative")
	// errUnknownLogLevel is returned for unparsable log levels.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns settings populated with defaults.
func Default() *Config {
	return &Config{
		SDBPath:   DefaultSDBPath,
		Timeout:   DefaultTimeout,
		RemoteDir: DefaultRemoteDir,
		LogLevel:  DefaultLogLevel,
	}
}

// TransportLogLevel returns the level for sdb invocation traces.
func (c *Config) TransportLogLevel() string {
	if c.SDBLogLevel != "" {
		return c.SDBLogLevel
	}

	return c.LogLevel
}

// Load reads configuration from the provided path, applies environment
// overrides and validates the result. A missing settings file is not an
// error: defaults are used instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	if err := loadEnvFile(DefaultEnvFilename); err != nil {
		return nil, err
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	default:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}

	if err = applyEnv(cfg); err != nil {
		return nil, err
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults for empty fields.
// A zero Timeout is kept and means no timeout.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	settings.SDBPath = strings.TrimSpace(settings.SDBPath)
	if settings.SDBPath == "" {
		settings.SDBPath = DefaultSDBPath
	}

	if settings.Timeout < 0 {
		return fmt.Errorf("%w: %s", errNegativeTimeout, settings.Timeout)
	}

	if settings.RemoteDir == "" {
		settings.RemoteDir = DefaultRemoteDir
	}

	if !path.IsAbs(settings.RemoteDir) {
		return fmt.Errorf("%w: %s", errRemoteDirNotAbsolute, settings.RemoteDir)
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	for _, level := range []string{settings.LogLevel, settings.TransportLogLevel()} {
		if _, ok := logger.ParseLogLevel(level); !ok {
			return fmt.Errorf("%w: %s", errUnknownLogLevel, level)
		}
	}

	return nil
}

// loadEnvFile loads variables from name when it exists, without overriding
// variables already present in the environment.
func loadEnvFile(name string) error {
	if _, err := os.Stat(name); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := godotenv.Load(name); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}

	return nil
}

// applyEnv overrides settings with values from the environment.
func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvSDBPath); ok && v != "" {
		cfg.SDBPath = v
	}

	if v, ok := os.LookupEnv(EnvSerial); ok && v != "" {
		cfg.Serial = v
	}

	if v, ok := os.LookupEnv(EnvRemoteDir); ok && v != "" {
		cfg.RemoteDir = v
	}

	if v, ok := os.LookupEnv(EnvTimeout); ok && v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTimeout, err)
		}

		cfg.Timeout = timeout
	}

	return nil
}
