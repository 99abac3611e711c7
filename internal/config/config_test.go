package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "")
	flags.String("user-agent", "", "")
	flags.StringSlice("exclude", nil, "")
	flags.Duration("timeout", 0, "")
	flags.String("new-website-url", "", "")
	flags.StringSlice("forbid", nil, "")
	flags.StringSlice("rewrite-from", nil, "")
	flags.Int("pause-ms", 0, "")
	flags.Bool("relocatable", true, "")
	flags.String("log-level", "", "")

	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if settings.Output != DefaultOutputDir {
		t.Errorf("Output = %q, want %q", settings.Output, DefaultOutputDir)
	}
	if settings.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want %q", settings.UserAgent, DefaultUserAgent)
	}
	if settings.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", settings.Timeout, DefaultTimeout)
	}
	if !settings.Relocatable {
		t.Error("Relocatable = false, want true by default")
	}
}

func TestLoad_FlagOverridesDefault(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "")
	flags.String("user-agent", "", "")
	flags.StringSlice("exclude", nil, "")
	flags.Duration("timeout", 0, "")
	flags.String("new-website-url", "", "")
	flags.StringSlice("forbid", nil, "")
	flags.StringSlice("rewrite-from", nil, "")
	flags.Int("pause-ms", 0, "")
	flags.Bool("relocatable", true, "")
	flags.String("log-level", "", "")

	if err := flags.Parse([]string{"--output=./custom-out", "--pause-ms=250"}); err != nil {
		t.Fatalf("flags.Parse() error: %v", err)
	}

	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if settings.Output != "./custom-out" {
		t.Errorf("Output = %q, want ./custom-out", settings.Output)
	}
	if settings.PauseMs != 250 {
		t.Errorf("PauseMs = %d, want 250", settings.PauseMs)
	}
}
