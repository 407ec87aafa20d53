package main

import (
	"github.com/spf13/cobra"

	"github.com/Divas-Gupta30/readease/internal/server"
)

func newServeCmd(g *globals) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = g.cfg.HTTP.Port
			}
			a, err := newApp(cmd.Context(), g.cfg, g.log)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := []server.Option{
				server.WithMetrics(a.metrics),
				server.WithLogger(g.log.Named("http")),
				server.WithMaxUpload(g.cfg.HTTP.MaxUploadBytes),
			}
			if a.cache != nil {
				opts = append(opts, server.WithCache(a.cache))
			}
			return server.New(a.pipeline, opts...).ListenAndServe(cmd.Context(), ":"+port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default from config)")
	return cmd
}
