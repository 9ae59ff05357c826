package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const banner = `
┌─┐┌─┐┌─┐┌─┐┬┌─┬┌┬┐
├┤ ├─┤│  ├┤ ├┴┐│ │
└  ┴ ┴└─┘└─┘┴ ┴┴ ┴

Face detection and geometric alignment toolkit.
    Version: %s

`

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	root := &cobra.Command{
		Use:   "facekit",
		Short: "Detect and align faces using a Haar-cascade pipeline",
		Long:  fmt.Sprintf(banner, version),
	}
	root.PersistentFlags().Bool("verbose", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	}

	root.AddCommand(newDetectCmd(), newAlignCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the facekit version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
