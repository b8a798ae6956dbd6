package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/sensorsim/internal/api/models"
	"github.com/smazurov/sensorsim/pkg/subdev"
)

// registerFormatRoutes registers format negotiation endpoints.
func (s *Server) registerFormatRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-format",
		Method:      http.MethodGet,
		Path:        "/api/sensor/format",
		Summary:     "Get Format",
		Description: "Get the active format, or a session's trial format",
		Tags:        []string{"format"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404},
	}, func(ctx context.Context, input *models.FormatQuery) (*models.FormatResponse, error) {
		which, err := parseWhich(input.Which)
		if err != nil {
			return nil, err
		}
		f, err := s.sensor.GetFormat(ctx, which, input.Session)
		if err != nil {
			return nil, s.mapSensorError(err)
		}
		return formatResponse(which, input.Session, f), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-format",
		Method:      http.MethodPut,
		Path:        "/api/sensor/format",
		Summary:     "Set Format",
		Description: "Negotiate a frame size. A trial request is stored verbatim in the session; " +
			"an active request selects the nearest catalog mode.",
		Tags:     []string{"format"},
		Security: withAuth(),
		Errors:   []int{400, 401, 404, 503},
	}, func(ctx context.Context, input *models.FormatRequest) (*models.FormatResponse, error) {
		which, err := parseWhich(input.Body.Which)
		if err != nil {
			return nil, err
		}
		f, err := s.sensor.SetFormat(ctx, which, input.Body.Session, input.Body.Width, input.Body.Height)
		if err != nil {
			return nil, s.mapSensorError(err)
		}
		return formatResponse(which, input.Body.Session, f), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-frame-interval",
		Method:      http.MethodGet,
		Path:        "/api/sensor/frame-interval",
		Summary:     "Get Frame Interval",
		Description: "Get the frame interval of the selected mode",
		Tags:        []string{"format"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.FrameIntervalResponse, error) {
		fi := s.sensor.FrameInterval(ctx)
		return &models.FrameIntervalResponse{
			Body: models.FrameIntervalData{
				Interval: fi,
				FPS:      fi.FPS(),
			},
		}, nil
	})
}

func parseWhich(s string) (subdev.Which, error) {
	which, ok := subdev.ParseWhich(s)
	if !ok {
		return which, huma.Error400BadRequest("which must be trial or active")
	}
	return which, nil
}

func formatResponse(which subdev.Which, session string, f subdev.Format) *models.FormatResponse {
	data := models.FormatData{
		Which:    which.String(),
		CodeName: subdev.CodeName(f.Code),
		Format:   f,
	}
	if which == subdev.WhichTrial {
		data.Session = session
	}
	return &models.FormatResponse{Body: data}
}
