// Package cmd implements the CLI commands for webmirror.
package cmd

import "github.com/spf13/cobra"

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "webmirror",
	Short:         "webmirror — a local filesystem mirror of a live website",
	SilenceErrors: true,
	SilenceUsage:  true,
	Long: `webmirror walks a live website starting from an entry URL, fetches
every linked page and resource, rewrites discovered references so the
result opens correctly via file://, and writes the mirror to a local
directory.

Homepage: https://github.com/tariktz/webmirror`,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version of webmirror",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("webmirror", Version)
		},
	})
}

// Execute runs the root command. It is the single entry point called by main.
func Execute() error {
	return rootCmd.Execute()
}
