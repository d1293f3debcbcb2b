package cli

import (
	"github.com/spf13/cobra"

	"river_tracer/pkg/api"
	"river_tracer/pkg/pipeline"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve trace jobs over HTTP",
		Long: `Serve starts the HTTP API:

  POST /api/v1/trace   run a trace job
  GET  /api/v1/health  liveness probe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)
			if addr != "" {
				cfg.Server.Addr = addr
			}

			scfg := api.DefaultConfig(cfg.Server.Addr)
			scfg.MaxConcurrent = cfg.Server.MaxConcurrent
			scfg.RequestTimeout = cfg.Server.Timeout
			if scfg.WriteTimeout < cfg.Server.Timeout {
				scfg.WriteTimeout = cfg.Server.Timeout + scfg.ReadTimeout
			}
			scfg.Logger = logger

			handlers := api.NewHandlers(pipeline.New(cfg, logger), cfg.Server.MaxBodyBytes)
			return api.ListenAndServe(api.NewServer(scfg, handlers), logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
