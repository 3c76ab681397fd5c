package server

import (
	"encoding/json"
	"net/http"
)

// modelsListResponse is the `GET /v1/models` wire shape: the
// cross-product of every provider with a stored credential record and that
// record's enabledModels list.
type modelsListResponse struct {
	Object string          `json:"object"`
	Data   []modelListItem `json:"data"`
}

type modelListItem struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	records := s.Store.List()

	resp := modelsListResponse{Object: "list", Data: []modelListItem{}}
	for providerID, rec := range records {
		for _, modelID := range rec.EnabledModels {
			resp.Data = append(resp.Data, modelListItem{
				ID:      providerID + "/" + modelID,
				Object:  "model",
				OwnedBy: "ai-gateway",
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
