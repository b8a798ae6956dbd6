package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/sensorsim/internal/api/models"
)

func (s *Server) registerMediaRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-topology",
		Method:      http.MethodGet,
		Path:        "/api/media/topology",
		Summary:     "Media Topology",
		Description: "Get the registered media entities and the links between their pads",
		Tags:        []string{"media"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.TopologyResponse, error) {
		return &models.TopologyResponse{Body: s.sensor.Topology(ctx)}, nil
	})
}
