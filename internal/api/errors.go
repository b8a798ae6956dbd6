package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/sensorsim/internal/sensor"
	"github.com/smazurov/sensorsim/pkg/subdev"
)

// mapSensorError maps service and device errors to HTTP errors.
func (s *Server) mapSensorError(err error) error {
	switch sensor.ErrorCode(err) {
	case sensor.ErrCodeSessionNotFound, sensor.ErrCodeControlNotFound:
		return huma.Error404NotFound(err.Error(), err)
	case sensor.ErrCodeInvalidParams:
		return huma.Error400BadRequest(err.Error(), err)
	}

	var devErr *subdev.Error
	if !errors.As(err, &devErr) {
		s.logger.Error("Unexpected sensor error", "error", err)
		return huma.Error500InternalServerError("internal server error", err)
	}
	switch devErr.Code {
	case subdev.CodeOutOfRange, subdev.CodeCodeMismatch, subdev.CodeRange:
		return huma.Error422UnprocessableEntity(devErr.Error(), err)
	case subdev.CodeReadOnly:
		return huma.Error403Forbidden(devErr.Error(), err)
	case subdev.CodeNoSession:
		return huma.Error404NotFound(devErr.Error(), err)
	case subdev.CodeClosed:
		return huma.Error503ServiceUnavailable(devErr.Error(), err)
	default:
		s.logger.Error("Sensor device error", "error", err)
		return huma.Error500InternalServerError("internal server error", err)
	}
}
