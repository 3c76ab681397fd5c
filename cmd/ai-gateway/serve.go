package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hushhenry/ai-gateway/pkg/bindings"
	"github.com/hushhenry/ai-gateway/pkg/config"
	"github.com/hushhenry/ai-gateway/pkg/credential"
	"github.com/hushhenry/ai-gateway/pkg/oauth"
	"github.com/hushhenry/ai-gateway/pkg/registry"
	"github.com/hushhenry/ai-gateway/pkg/server"
	"github.com/hushhenry/ai-gateway/pkg/telemetry"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway's HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Load()
			if !cmd.Flags().Changed("port") {
				port = config.Port()
			}

			shutdownTracing, err := telemetry.InitExporter(cmd.Context(), "ai-gateway", config.OTLPEndpoint())
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := shutdownTracing(ctx); err != nil {
					log.Warn().Err(err).Msg("serve: tracing shutdown")
				}
			}()

			store := credential.NewStore(config.CredentialStorePath())
			reg := registry.New(store)
			bindings.RegisterAll(reg, store, &oauth.Flows{})

			srv := &server.Server{Registry: reg, Store: store}

			addr := fmt.Sprintf("127.0.0.1:%d", port)
			log.Info().Str("addr", addr).Msg("ai-gateway: listening")
			return http.ListenAndServe(addr, srv.Router())
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "port to bind on 127.0.0.1")
	return cmd
}
