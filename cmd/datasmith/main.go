package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/datasmith/internal/config"
	"github.com/thywilljoshua/datasmith/internal/logging"
)

func main() {
	cfg := &config.Config{}
	var envFile string
	var logLevel string

	root := &cobra.Command{
		Use:           "datasmith",
		Short:         "Extract tables from images and PDFs, and grow workbooks with synthetic rows",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = *loaded
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logging.SetLevel(cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional file of KEY=VALUE settings")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error (default from DATASMITH_LOG_LEVEL)")

	root.AddCommand(convertCmd(cfg))
	root.AddCommand(inspectCmd())
	root.AddCommand(synthCmd(cfg))
	root.AddCommand(serveCmd(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
