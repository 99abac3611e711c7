package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tariktz/webmirror"
	"github.com/tariktz/webmirror/internal/config"
	"github.com/tariktz/webmirror/internal/logging"
	"github.com/tariktz/webmirror/internal/report"
)

func init() {
	mirrorCmd := &cobra.Command{
		Use:   "mirror <url>",
		Short: "Mirror a website to a local directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runMirror,
	}

	mirrorCmd.Flags().StringP("output", "o", config.DefaultOutputDir, "Output directory for the mirror")
	mirrorCmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent sent on every request")
	mirrorCmd.Flags().StringSlice("exclude", nil, "URL prefix to forbid (repeatable)")
	mirrorCmd.Flags().Duration("timeout", config.DefaultTimeout, "Timeout per HTTP request (e.g. 10s, 1m)")
	mirrorCmd.Flags().String("new-website-url", "", "Rewrite the mirror onto a different output origin")
	mirrorCmd.Flags().StringSlice("forbid", nil, "URL prefix to admit but never fetch (repeatable)")
	mirrorCmd.Flags().StringSlice("rewrite-from", nil, "Foreign-origin URL prefix to rewrite onto the output origin (repeatable)")
	mirrorCmd.Flags().Int("pause-ms", config.DefaultPauseMs, "Delay inserted before each fetch, in milliseconds")
	mirrorCmd.Flags().Bool("relocatable", true, "Rewrite output links to relative ../ form")
	mirrorCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	mirrorCmd.Flags().String("config", "", "Path to a webmirror.yaml config file (unused placeholder; webmirror.yaml in the working directory is read automatically)")

	rootCmd.AddCommand(mirrorCmd)
}

func runMirror(cmd *cobra.Command, args []string) error {
	sourceURL := strings.TrimSpace(args[0])

	settings, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.Stderr(settings.LogLevel)
	relocatable := settings.Relocatable

	crawler, err := webmirror.New(sourceURL, webmirror.Options{
		OutputDir:             settings.Output,
		RequireRelocatableURL: &relocatable,
		RewriteThisURLs:       settings.RewriteFrom,
		ForbiddenURLs:         append([]string{}, settings.Exclude...),
		NewWebsiteURL:         settings.NewWebsiteURL,
		PauseDuration:         time.Duration(settings.PauseMs) * time.Millisecond,
		UserAgent:             settings.UserAgent,
		Timeout:               settings.Timeout,
		Logger:                logger,
	})
	if err != nil {
		return err
	}

	for _, prefix := range settings.Forbid {
		crawler.ForbidURLFrom(prefix)
	}

	summary := crawler.Start(context.Background(), "")

	fmt.Printf("\nMirror complete\n")
	fmt.Printf("  Pages:     %d\n", summary.Pages)
	fmt.Printf("  Resources: %d\n", summary.Resources)
	fmt.Printf("  Errors:    %d\n", summary.Errors)
	fmt.Printf("  Redirects: %d\n", summary.Redirects)
	fmt.Printf("  Retries:   %d\n", summary.Retries)
	fmt.Printf("  Duration:  %s\n", summary.Duration.Round(time.Millisecond))
	fmt.Printf("\nMirror written to %s\n", settings.Output)

	reportPath := settings.Output + "/mirror-report.md"
	summaries, err := report.Collect(settings.Output)
	if err != nil {
		logger.Warnf("collecting mirror report: %v", err)
		return nil
	}
	if err := report.Write(reportPath, summaries); err != nil {
		logger.Warnf("writing mirror report: %v", err)
		return nil
	}
	fmt.Printf("Mirror report written to %s\n", reportPath)

	return nil
}
