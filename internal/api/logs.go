package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/soundnode/internal/api/models"
	"github.com/smazurov/soundnode/internal/logging"
)

// registerLogRoutes registers runtime log level control.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-log-level",
		Method:      http.MethodGet,
		Path:        "/api/logging/{module}",
		Summary:     "Get Log Level",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *models.LogLevelInput) (*models.LogLevelResponse, error) {
		return &models.LogLevelResponse{
			Body: models.LogLevelData{
				Module: input.Module,
				Level:  logging.ModuleLevel(input.Module).String(),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-log-level",
		Method:      http.MethodPut,
		Path:        "/api/logging/{module}",
		Summary:     "Set Log Level",
		Description: "Change a module's log level until the next config reload",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(_ context.Context, input *models.SetLogLevelInput) (*models.LogLevelResponse, error) {
		if err := logging.SetModuleLevel(input.Module, input.Body.Level); err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid log level", err)
		}
		s.logger.Info("Log level changed", "module", input.Module, "level", input.Body.Level)
		return &models.LogLevelResponse{
			Body: models.LogLevelData{
				Module: input.Module,
				Level:  logging.ModuleLevel(input.Module).String(),
			},
		}, nil
	})
}
