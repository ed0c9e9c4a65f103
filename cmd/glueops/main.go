package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GlueOps/glueops/cmd/glueops/commands"
	"github.com/GlueOps/glueops/internal/config"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		logLevel   string
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:           "glueops",
		Short:         "GlueOps operational helpers",
		Long:          `glueops reads and writes secrets, manages Outline documents and looks up tagged AWS resources.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Path = configFile
			cfg.LogLevel = logLevel
			return commands.ConfigureLogging(cfg, os.Stderr)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cfg.Logger != nil {
				_ = cfg.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "settings file (default ~/.glueops.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARNING, ERROR or CRITICAL")

	rootCmd.AddCommand(
		commands.NewVaultCommand(cfg),
		commands.NewOutlineCommand(cfg),
		commands.NewAWSCommand(cfg),
		commands.NewKubeCommand(cfg),
		commands.NewCertCommand(),
		commands.NewChecksumCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
