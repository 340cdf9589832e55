package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultDir is the configuration directory relative to the repository root
	DefaultDir = ".ng-dev"
	// EnvPrefix prefixes environment overrides, e.g. NG_DEV_GITHUB_OWNER
	EnvPrefix = "NG_DEV"

	configName = "config"
)

// defaults are applied beneath the configuration file and environment
var defaults = map[string]any{
	"github.mainBranchName":                   "main",
	"github.hostname":                         "github.com",
	"commitMessage.maxLineLength":             120,
	"commitMessage.minBodyLength":             20,
	"commitMessage.minBodyLengthTypeExcludes": []string{"docs"},
	"pullRequest.mergeReadyLabel":             "action: merge",
	"pullRequest.caretakerNoteLabel":          "action: merge-assistance",
	"pullRequest.commitMessageFixupLabel":     "commit message fixup",
	"pullRequest.breakingChangeLabel":         "flag: breaking change",
	"pullRequest.claContext":                  "cla/google",
	"pullRequest.mergeStrategy":               "rebase",
	"release.distDir":                         "dist/releases",
	"release.npmRegistry":                     "https://registry.npmjs.org",
	"release.changelogPath":                   "CHANGELOG.md",
	"release.publishPollInterval":             10 * time.Second,
	"release.publishMaxPollAttempts":          360,
}

// Load reads the configuration for repoRoot. dir is relative to repoRoot unless
// absolute; empty means DefaultDir. A missing file is not an error.
func Load(repoRoot, dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(repoRoot, dir)
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	cfg.RepoRoot = repoRoot
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

// Defaults returns a configuration holding only the built-in defaults
func Defaults() *Config {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}
