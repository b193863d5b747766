package main

import (
	"github.com/spf13/cobra"
	"github.com/thywilljoshua/datasmith/internal/ai"
	"github.com/thywilljoshua/datasmith/internal/config"
	"github.com/thywilljoshua/datasmith/internal/logging"
	"github.com/thywilljoshua/datasmith/internal/web"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the converter and generator as a local web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Addr
			}
			log := logging.NewLogger("web")

			var extractor ai.Extractor
			if cfg.HasAPIKey() {
				g, err := ai.NewGemini(cmd.Context(), cfg.APIKey, cfg.Model)
				if err != nil {
					return err
				}
				extractor = g
			} else {
				log.Warn("no API key configured, conversion is disabled")
			}

			srv, err := web.New(web.Options{
				Addr:           addr,
				MaxUploadBytes: cfg.MaxUploadBytes,
				OutputName:     cfg.OutputPath,
				Seed:           cfg.Seed,
				Extractor:      extractor,
				Logger:         log,
			})
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from DATASMITH_ADDR, :8501)")
	return cmd
}
