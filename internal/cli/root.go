// Package cli defines the fraudshield command line: serve and migrate.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/msomdec/fraudshield/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "fraudshield",
		Short: "Classify recorded phone calls as fraud, spam or normal",
		Long: `FraudShield serves a small web app: users upload a recorded call,
the first minute is sent to Gemini for classification or transcription,
classified calls are stored in SQLite and can be reported by email.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "",
		"YAML config file (default $"+config.EnvConfigPath+")")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}
	root.AddCommand(newServeCmd(load), newMigrateCmd(load))
	return root
}

// Execute runs the root command until SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
