// Package config loads webmirror CLI settings from flags and an optional
// YAML config file, the way AldSenior-WebDowloanderLocal's cobra+viper
// pairing does: viper.SetDefault seeds defaults, BindPFlags lets flags
// override them, and an optional "webmirror.yaml" in the working directory
// overrides the defaults but not explicitly-set flags.
//
// This package is a CLI-layer concern only — the core webmirror package
// never imports viper.
package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults mirror the ones called out in SPEC_FULL.md §3/§9: no pause
// between fetches, relocatable URLs on, three retries baked into the
// scheduler's default policy.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "webmirror/1.0"
	DefaultOutputDir = "./mirror"
	DefaultPauseMs   = 0
)

// Settings is the flattened configuration the mirror command reads, after
// merging flags, an optional config file, and defaults.
type Settings struct {
	Output         string
	UserAgent      string
	Exclude        []string
	Timeout        time.Duration
	NewWebsiteURL  string
	Forbid         []string
	RewriteFrom    []string
	PauseMs        int
	Relocatable    bool
	LogLevel       string
}

// Load binds flags to a viper instance, reads an optional "webmirror.yaml"
// config file from the current directory, and returns the merged Settings.
// A missing config file is not an error — matching the teacher's "ignore
// the error if there's no file" convention.
func Load(flags *pflag.FlagSet) (Settings, error) {
	v := viper.New()

	v.SetDefault("output", DefaultOutputDir)
	v.SetDefault("user-agent", DefaultUserAgent)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("pause-ms", DefaultPauseMs)
	v.SetDefault("relocatable", true)
	v.SetDefault("log-level", "info")

	v.SetConfigName("webmirror")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	if err := v.BindPFlags(flags); err != nil {
		return Settings{}, err
	}

	return Settings{
		Output:        v.GetString("output"),
		UserAgent:     v.GetString("user-agent"),
		Exclude:       v.GetStringSlice("exclude"),
		Timeout:       v.GetDuration("timeout"),
		NewWebsiteURL: v.GetString("new-website-url"),
		Forbid:        v.GetStringSlice("forbid"),
		RewriteFrom:   v.GetStringSlice("rewrite-from"),
		PauseMs:       v.GetInt("pause-ms"),
		Relocatable:   v.GetBool("relocatable"),
		LogLevel:      v.GetString("log-level"),
	}, nil
}
