// Package config loads wtdiff settings from defaults, an optional YAML file
// and WTDIFF_* environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thiagokokada/wtdiff/internal/diffdoc"
	"github.com/thiagokokada/wtdiff/internal/repo"
	"github.com/thiagokokada/wtdiff/internal/worktree"
)

// EnvPrefix is prepended to every environment override, with dots in keys
// replaced by underscores (WTDIFF_GIT_BINARY for git.binary).
const EnvPrefix = "WTDIFF"

// Config is the full set of engine settings.
type Config struct {
	Enabled  bool           `mapstructure:"enabled"`
	Git      GitConfig      `mapstructure:"git"`
	Worktree WorktreeConfig `mapstructure:"worktree"`
	Diff     DiffConfig     `mapstructure:"diff"`
	Commit   CommitConfig   `mapstructure:"commit"`
	Log      LogConfig      `mapstructure:"log"`
}

type GitConfig struct {
	Binary string `mapstructure:"binary"`
	// CommandTimeout applies to every git call; zero means none.
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	Concurrency    int           `mapstructure:"concurrency"`
	Remote         string        `mapstructure:"remote"`
}

type WorktreeConfig struct {
	MetadataTimeout time.Duration `mapstructure:"metadata_timeout"`
}

type DiffConfig struct {
	IntralineEmphasis bool `mapstructure:"intraline_emphasis"`
}

type CommitConfig struct {
	DefaultBaseBranch string `mapstructure:"default_base_branch"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Enabled: true,
		Git: GitConfig{
			Binary:      "git",
			Concurrency: worktree.DefaultConcurrency,
			Remote:      "origin",
		},
		Worktree: WorktreeConfig{MetadataTimeout: worktree.DefaultMetadataTimeout},
		Commit:   CommitConfig{DefaultBaseBranch: repo.DefaultBaseBranch},
		Log:      LogConfig{Level: "info"},
	}
}

// SetDefaults registers Default() in v so every key resolves even without
// a config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("enabled", d.Enabled)
	v.SetDefault("git.binary", d.Git.Binary)
	v.SetDefault("git.command_timeout", d.Git.CommandTimeout)
	v.SetDefault("git.concurrency", d.Git.Concurrency)
	v.SetDefault("git.remote", d.Git.Remote)
	v.SetDefault("worktree.metadata_timeout", d.Worktree.MetadataTimeout)
	v.SetDefault("diff.intraline_emphasis", d.Diff.IntralineEmphasis)
	v.SetDefault("commit.default_base_branch", d.Commit.DefaultBaseBranch)
	v.SetDefault("log.level", d.Log.Level)
}

// Init prepares v: defaults, environment overrides and the config file.
// An explicit file must exist; the default location is optional.
func Init(v *viper.Viper, file string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(Dir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// Dir returns the user's wtdiff config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wtdiff")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wtdiff"
	}
	return filepath.Join(home, ".config", "wtdiff")
}

// File returns the default config file path.
func File() string {
	return filepath.Join(Dir(), "config.yaml")
}

// RepoOptions maps the configuration onto repo.Options.
func (c *Config) RepoOptions() repo.Options {
	return repo.Options{
		Disabled:          !c.Enabled,
		Remote:            c.Git.Remote,
		DefaultBaseBranch: c.Commit.DefaultBaseBranch,
		Diff:              diffdoc.Options{IntralineEmphasis: c.Diff.IntralineEmphasis},
	}
}

// WorktreeOptions maps the configuration onto worktree.Options.
func (c *Config) WorktreeOptions() worktree.Options {
	return worktree.Options{
		Concurrency:     c.Git.Concurrency,
		MetadataTimeout: c.Worktree.MetadataTimeout,
	}
}
