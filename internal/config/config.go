// Package config loads treewatch's CLI-level defaults from a YAML
// configuration file and a .env file of environment-variable overrides,
// mirroring the teacher's pkg/configuration/project loading pattern (YAML
// decode of a typed struct) and its pkg/encoding.LoadAndUnmarshal helper.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/treewatch/treewatch/pkg/ignore"
	"github.com/treewatch/treewatch/pkg/watch"
)

// File is the on-disk shape of treewatch's YAML configuration file: the
// default watch.Configuration fields the CLI applies to a watch. The watch
// command always replaces ignore.hiddenFiles and ignore.commonPatterns with
// the values of its --ignore-hidden and --no-common-ignores flags (their
// defaults included), so those two file fields have no effect there.
type File struct {
	// Interval is the poll backend interval, as a Go duration string (e.g.
	// "5s"). Empty uses watch's built-in default.
	Interval string `yaml:"interval"`
	// CatchupDelay is the debounce window, as a Go duration string.
	CatchupDelay string `yaml:"catchupDelay"`
	// FollowLinks controls symlink resolution. A nil pointer leaves it at
	// watch's default (true).
	FollowLinks *bool `yaml:"followLinks"`
	// Ignore mirrors pkg/ignore.Options for YAML decoding.
	Ignore struct {
		Paths          []string `yaml:"paths"`
		HiddenFiles    bool     `yaml:"hiddenFiles"`
		CommonPatterns bool     `yaml:"commonPatterns"`
		CustomPatterns []string `yaml:"customPatterns"`
	} `yaml:"ignore"`
}

// Load reads a YAML configuration file at path. A missing file is not an
// error — it yields a zero-value File, equivalent to "use every default."
func Load(path string) (*File, error) {
	file := &File{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return file, nil
		}
		return nil, errors.Wrap(err, "unable to read configuration file")
	}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, errors.Wrap(err, "unable to parse configuration file")
	}
	return file, nil
}

// LoadDotEnv loads environment-variable overrides from a .env file at path,
// if present, using the same loose, missing-file-is-fine semantics as
// Load. godotenv does not overwrite variables already present in the
// process environment, matching the usual "CI/container overrides a
// developer's local file" precedence.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(err, "unable to load .env file")
	}
	return nil
}

// Resolve turns a File plus environment-variable overrides into a
// watch.Configuration. Environment variables (TREEWATCH_INTERVAL,
// TREEWATCH_CATCHUP_DELAY, TREEWATCH_FOLLOW_LINKS) take precedence over
// the file when both specify the same field.
func (f *File) Resolve() (watch.Configuration, error) {
	cfg := watch.Configuration{
		Ignore: ignore.Options{
			Paths:          f.Ignore.Paths,
			HiddenFiles:    f.Ignore.HiddenFiles,
			CommonPatterns: f.Ignore.CommonPatterns,
			CustomPatterns: f.Ignore.CustomPatterns,
		},
	}

	interval := f.Interval
	if v := os.Getenv("TREEWATCH_INTERVAL"); v != "" {
		interval = v
	}
	if interval != "" {
		parsed, err := time.ParseDuration(interval)
		if err != nil {
			return cfg, errors.Wrap(err, "invalid interval")
		}
		cfg.Interval = parsed
	}

	catchupDelay := f.CatchupDelay
	if v := os.Getenv("TREEWATCH_CATCHUP_DELAY"); v != "" {
		catchupDelay = v
	}
	if catchupDelay != "" {
		parsed, err := time.ParseDuration(catchupDelay)
		if err != nil {
			return cfg, errors.Wrap(err, "invalid catchupDelay")
		}
		cfg.CatchupDelay = parsed
	}

	followLinks := f.FollowLinks
	if v := os.Getenv("TREEWATCH_FOLLOW_LINKS"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, errors.Wrap(err, "invalid TREEWATCH_FOLLOW_LINKS")
		}
		followLinks = &parsed
	}
	if followLinks != nil {
		if *followLinks {
			cfg.FollowLinks = watch.TristateEnabled
		} else {
			cfg.FollowLinks = watch.TristateDisabled
		}
	}

	return cfg, nil
}
