// Package config loads the gateway's ambient configuration: a `.env`
// file via github.com/joho/godotenv, then individual values by plain
// os.Getenv rather than a config struct with validation tags.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultPort is the port `serve` binds when PORT is unset.
const DefaultPort = 3000

// Load reads a `.env` file from the working directory into the process
// environment if present. A missing file is not an error; any other load
// failure is logged and ignored rather than treated as fatal.
func Load() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("config: failed to load .env file")
	}
}

// Port returns the PORT environment variable, or DefaultPort if unset or
// unparseable.
func Port() int {
	raw := os.Getenv("PORT")
	if raw == "" {
		return DefaultPort
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("PORT", raw).Msg("config: PORT is not a valid integer, using default")
		return DefaultPort
	}
	return port
}

// CredentialStorePath returns the AI_GATEWAY_CONFIG_DIR override for the
// credential store file, or "" to let pkg/credential.DefaultPath() apply.
func CredentialStorePath() string {
	dir := os.Getenv("AI_GATEWAY_CONFIG_DIR")
	if dir == "" {
		return ""
	}
	return dir + "/auth.json"
}

// AWSRegion returns AWS_REGION, used by the Bedrock adapter's SigV4 signing.
func AWSRegion() string {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	return "us-east-1"
}

// GoogleCloudProject returns GOOGLE_CLOUD_PROJECT, the Vertex AI adapter's
// default project id when a credential record carries none.
func GoogleCloudProject() string {
	return os.Getenv("GOOGLE_CLOUD_PROJECT")
}

// CursorAgentExecutable returns the path to the cursor-agent binary the
// Cursor adapter shells out to, defaulting to a bare lookup by name on PATH.
func CursorAgentExecutable() string {
	if p := os.Getenv("CURSOR_AGENT_EXECUTABLE"); p != "" {
		return p
	}
	return "cursor-agent"
}

// OTLPEndpoint returns OTEL_EXPORTER_OTLP_ENDPOINT, the collector `serve`
// exports spans to over OTLP/HTTP. Empty means tracing stays a no-op.
func OTLPEndpoint() string {
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
}
