package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/sensorsim/internal/api/models"
	"github.com/smazurov/sensorsim/pkg/subdev"
)

// registerSensorRoutes registers device info, enumeration, session and
// streaming endpoints.
func (s *Server) registerSensorRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-sensor",
		Method:      http.MethodGet,
		Path:        "/api/sensor",
		Summary:     "Get Sensor",
		Description: "Get the hosted sensor: identity, streaming state, selected mode and frame interval",
		Tags:        []string{"sensor"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.SensorResponse, error) {
		return &models.SensorResponse{Body: s.sensor.Info(ctx)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-modes",
		Method:      http.MethodGet,
		Path:        "/api/sensor/modes",
		Summary:     "List Modes",
		Description: "List the mode catalog in enumeration order",
		Tags:        []string{"sensor"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.ModeListResponse, error) {
		modes := s.sensor.Modes(ctx)
		return &models.ModeListResponse{
			Body: models.ModeListData{
				Modes: modes,
				Count: len(modes),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "enum-mbus-code",
		Method:      http.MethodGet,
		Path:        "/api/sensor/codes/{index}",
		Summary:     "Enumerate Media Bus Code",
		Description: "Get the media bus code of the catalog entry at index",
		Tags:        []string{"sensor"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(ctx context.Context, input *struct {
		Index uint32 `path:"index" example:"0" doc:"Catalog index"`
	}) (*models.CodeResponse, error) {
		code, err := s.sensor.EnumerateCode(ctx, input.Index)
		if err != nil {
			return nil, s.mapSensorError(err)
		}
		return &models.CodeResponse{Body: code}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "enum-frame-size",
		Method:      http.MethodGet,
		Path:        "/api/sensor/frame-sizes/{index}",
		Summary:     "Enumerate Frame Size",
		Description: "Get the fixed frame size of the catalog entry at index, which must carry the given code",
		Tags:        []string{"sensor"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(ctx context.Context, input *models.FrameSizeRequest) (*models.FrameSizeResponse, error) {
		code, err := subdev.ParseCode(input.Code)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid media bus code", err)
		}
		r, err := s.sensor.EnumerateFrameSize(ctx, input.Index, code)
		if err != nil {
			return nil, s.mapSensorError(err)
		}
		return &models.FrameSizeResponse{
			Body: models.FrameSizeData{
				Index:     input.Index,
				Code:      code,
				CodeName:  subdev.CodeName(code),
				MinWidth:  r.MinWidth,
				MaxWidth:  r.MaxWidth,
				MinHeight: r.MinHeight,
				MaxHeight: r.MaxHeight,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "open-session",
		Method:        http.MethodPost,
		Path:          "/api/sensor/sessions",
		Summary:       "Open Session",
		Description:   "Open a negotiation session. Its trial format starts as the default format.",
		Tags:          []string{"sessions"},
		Security:      withAuth(),
		DefaultStatus: http.StatusCreated,
		Errors:        []int{401, 503},
	}, func(ctx context.Context, _ *struct{}) (*models.SessionResponse, error) {
		info, err := s.sensor.OpenSession(ctx)
		if err != nil {
			return nil, s.mapSensorError(err)
		}
		return &models.SessionResponse{Body: info}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "close-session",
		Method:        http.MethodDelete,
		Path:          "/api/sensor/sessions/{id}",
		Summary:       "Close Session",
		Description:   "Close a negotiation session and discard its trial format",
		Tags:          []string{"sessions"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401, 404},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id" doc:"Session id"`
	}) (*struct{}, error) {
		if err := s.sensor.CloseSession(ctx, input.ID); err != nil {
			return nil, s.mapSensorError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-stream",
		Method:      http.MethodPut,
		Path:        "/api/sensor/stream",
		Summary:     "Set Stream",
		Description: "Start or stop streaming. Requesting the current state is a no-op.",
		Tags:        []string{"sensor"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(ctx context.Context, input *models.StreamRequest) (*models.StreamResponse, error) {
		state, err := s.sensor.SetStream(ctx, input.Body.Enable)
		if err != nil {
			return nil, s.mapSensorError(err)
		}
		return &models.StreamResponse{
			Body: models.StreamData{
				State:     state,
				Streaming: state == subdev.StreamStreaming,
			},
		}, nil
	})
}
