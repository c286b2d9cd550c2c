package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/hnrobert/nyado/internal/hostfs"
)

var ErrInvalid = errors.New("invalid settings")

const (
	DefaultSecurePath       = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"
	DefaultTries            = 3
	DefaultTimestampTimeout = 5 * time.Minute
)

// Settings configures the launcher itself. The policy rules live in the
// separate policy file named by PolicyFile.
type Settings struct {
	PolicyFile string `yaml:"policy_file"`
	LogDir     string `yaml:"log_dir"`
	LogLevel   string `yaml:"log_level"`
	SecurePath string `yaml:"secure_path"`
	Auth       Auth   `yaml:"auth"`
}

type Auth struct {
	// Tries is how many password prompts a caller gets per invocation.
	Tries int `yaml:"tries"`
	// TimestampTimeout is how long a successful authentication is
	// remembered. Zero disables timestamp tickets.
	TimestampTimeout time.Duration `yaml:"timestamp_timeout"`
	TimestampDir     string        `yaml:"timestamp_dir"`
	// SuFallback lets su(1) verify hashes crypt cannot handle (yescrypt).
	SuFallback bool `yaml:"su_fallback"`
}

func Default() Settings {
	return Settings{
		PolicyFile: hostfs.MustPath(hostfs.PolicyRel),
		LogDir:     hostfs.MustPath(hostfs.LogDirRel),
		LogLevel:   "info",
		SecurePath: DefaultSecurePath,
		Auth: Auth{
			Tries:            DefaultTries,
			TimestampTimeout: DefaultTimestampTimeout,
			TimestampDir:     hostfs.MustPath(hostfs.TimestampDirRel),
			SuFallback:       true,
		},
	}
}

func DefaultPath() string {
	return hostfs.MustPath(hostfs.SettingsRel)
}

// Load reads the settings file at path. A missing or empty file yields the
// defaults; keys absent from the file keep their default value. The file
// must be owned by owner and not writable by anyone else, since it decides
// which policy file is trusted.
func Load(path string, owner int) (Settings, error) {
	cfg := Default()
	b, err := hostfs.ReadTrusted(path, owner)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Settings{}, err
	}
	if len(b) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (s Settings) Validate() error {
	if !filepath.IsAbs(s.PolicyFile) {
		return fmt.Errorf("%w: policy_file must be an absolute path, got %q", ErrInvalid, s.PolicyFile)
	}
	if s.LogDir != "" && !filepath.IsAbs(s.LogDir) {
		return fmt.Errorf("%w: log_dir must be an absolute path, got %q", ErrInvalid, s.LogDir)
	}
	if _, err := zerolog.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	if s.SecurePath == "" {
		return fmt.Errorf("%w: secure_path is empty", ErrInvalid)
	}
	for _, dir := range filepath.SplitList(s.SecurePath) {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("%w: secure_path entry %q is not absolute", ErrInvalid, dir)
		}
	}
	if s.Auth.Tries < 1 {
		return fmt.Errorf("%w: auth.tries must be at least 1", ErrInvalid)
	}
	if s.Auth.TimestampTimeout < 0 {
		return fmt.Errorf("%w: auth.timestamp_timeout is negative", ErrInvalid)
	}
	if s.Auth.TimestampTimeout > 0 && !filepath.IsAbs(s.Auth.TimestampDir) {
		return fmt.Errorf("%w: auth.timestamp_dir must be an absolute path, got %q", ErrInvalid, s.Auth.TimestampDir)
	}
	return nil
}

// Level returns the zerolog level for LogLevel, falling back to info.
func (s Settings) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
