package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/sensorsim/internal/api/models"
)

// registerControlRoutes registers control list, read and write endpoints.
func (s *Server) registerControlRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-controls",
		Method:      http.MethodGet,
		Path:        "/api/sensor/controls",
		Summary:     "List Controls",
		Description: "List every control with its range and current value",
		Tags:        []string{"controls"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.ControlListResponse, error) {
		ctrls := s.sensor.ListControls(ctx)
		return &models.ControlListResponse{
			Body: models.ControlListData{
				Controls: ctrls,
				Count:    len(ctrls),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-control",
		Method:      http.MethodGet,
		Path:        "/api/sensor/controls/{name}",
		Summary:     "Get Control",
		Description: "Get one control by name",
		Tags:        []string{"controls"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(ctx context.Context, input *struct {
		Name string `path:"name" example:"exposure" doc:"Control name"`
	}) (*models.ControlResponse, error) {
		c, err := s.sensor.GetControl(ctx, input.Name)
		if err != nil {
			return nil, s.mapSensorError(err)
		}
		return &models.ControlResponse{Body: c}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-control",
		Method:      http.MethodPut,
		Path:        "/api/sensor/controls/{name}",
		Summary:     "Set Control",
		Description: "Set a control value. Read-only controls are rejected; values must lie in range on the step grid.",
		Tags:        []string{"controls"},
		Security:    withAuth(),
		Errors:      []int{401, 403, 404, 422, 503},
	}, func(ctx context.Context, input *models.ControlSetRequest) (*models.ControlResponse, error) {
		c, err := s.sensor.SetControl(ctx, input.Name, input.Body.Value)
		if err != nil {
			return nil, s.mapSensorError(err)
		}
		return &models.ControlResponse{Body: c}, nil
	})
}
