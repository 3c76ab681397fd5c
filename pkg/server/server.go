// Package server implements the gateway's HTTP surface: the three routes
// (/v1/models, /v1/chat/completions, /v1/messages) that front the registry,
// converters, adapters, and stream multiplexer.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/hushhenry/ai-gateway/pkg/credential"
	"github.com/hushhenry/ai-gateway/pkg/registry"
)

// Server wires the Provider Registry and Credential Store behind the
// gateway's HTTP surface. Model discovery is not on this request path: the
// /v1/models route enumerates the credential store's existing enabledModels
// directly, and discovery runs instead at `login` time to populate that list
// (see cmd/ai-gateway).
type Server struct {
	Registry *registry.Registry
	Store    *credential.Store
}

// Router builds the chi router for the three routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(chimiddleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/v1/models", s.handleModels)
	r.Post("/v1/chat/completions", s.handleChatCompletions)
	r.Post("/v1/messages", s.handleMessages)

	return r
}

// newID returns a synthetic id for a response object (chat.completion,
// chat.completion.chunk, or a Messages message id), grounded on the
// teacher's google/uuid usage elsewhere in the pack for synthetic ids.
func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
