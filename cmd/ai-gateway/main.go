// Command ai-gateway runs the local multi-provider LLM gateway:
// `serve` starts the HTTP surface, `login` stores a provider credential,
// and `doctor` probes a running gateway's routes.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	root := &cobra.Command{
		Use:   "ai-gateway",
		Short: "Local HTTP gateway fronting ~30 LLM providers behind OpenAI and Anthropic wire formats",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newDoctorCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("ai-gateway")
	}
}
