package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/soundnode/internal/api/models"
	"github.com/smazurov/soundnode/internal/hardware"
	"github.com/smazurov/soundnode/internal/metrics"
	"github.com/smazurov/soundnode/internal/sound"
)

func outputFromInfo(info hardware.Info) models.OutputData {
	return models.OutputData{
		ID:        info.ID,
		Device:    info.Device,
		Channels:  info.Channels,
		Rate:      info.Rate,
		LatencyUs: info.LatencyUs,
		State:     string(info.State),
		Backend:   string(info.Backend),
		Auto:      info.Auto,
		OpenedAt:  info.OpenedAt,
	}
}

// soundError maps a service error to an HTTP status.
func soundError(err error) error {
	msg := err.Error()
	switch sound.CodeOf(err) {
	case sound.CodeRepeatConfig:
		return huma.Error409Conflict(msg, err)
	case sound.CodeInvalidParams:
		return huma.Error422UnprocessableEntity(msg, err)
	case sound.CodeDeviceNotFound:
		return huma.Error404NotFound(msg, err)
	case sound.CodeHardwareInit:
		return huma.Error503ServiceUnavailable(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}

func (s *Server) findOutput(id int32) (models.OutputData, bool) {
	for _, info := range s.service.Devices() {
		if info.ID == id {
			return outputFromInfo(info), true
		}
	}
	return models.OutputData{}, false
}

// registerOutputRoutes registers configured playback devices under /api/outputs.
func (s *Server) registerOutputRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-outputs",
		Method:      http.MethodGet,
		Path:        "/api/outputs",
		Summary:     "List Outputs",
		Description: "List configured playback devices",
		Tags:        []string{"outputs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.OutputListResponse, error) {
		infos := s.service.Devices()
		outputs := make([]models.OutputData, len(infos))
		for i, info := range infos {
			outputs[i] = outputFromInfo(info)
		}
		return &models.OutputListResponse{
			Body: models.OutputListData{Outputs: outputs, Count: len(outputs)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "configure-output",
		Method:        http.MethodPost,
		Path:          "/api/outputs",
		Summary:       "Configure Output",
		Description:   "Open a playback device for an identifier. Fails with 409 if the identifier already has one.",
		Tags:          []string{"outputs"},
		Security:      withAuth(),
		DefaultStatus: http.StatusCreated,
		Errors:        []int{401, 409, 422, 503},
	}, func(_ context.Context, input *models.OutputRequest) (*models.OutputResponse, error) {
		req := input.Body
		device := req.Device
		if device == "" {
			device = hardware.DefaultDevice
		}
		if err := s.service.Configure(req.ID, device, req.Channels, req.Rate, req.LatencyUs); err != nil {
			return nil, soundError(err)
		}

		out, ok := s.findOutput(req.ID)
		if !ok {
			return nil, huma.Error500InternalServerError("output vanished after configure")
		}
		return &models.OutputResponse{Body: out}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-output",
		Method:      http.MethodGet,
		Path:        "/api/outputs/{id}",
		Summary:     "Get Output",
		Tags:        []string{"outputs"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *models.OutputIDInput) (*models.OutputResponse, error) {
		out, ok := s.findOutput(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("output not found")
		}
		return &models.OutputResponse{Body: out}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "stop-output",
		Method:        http.MethodDelete,
		Path:          "/api/outputs/{id}",
		Summary:       "Stop Output",
		Description:   "Close the device for an identifier. Unknown identifiers are ignored.",
		Tags:          []string{"outputs"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401},
	}, func(_ context.Context, input *models.OutputIDInput) (*struct{}, error) {
		s.service.Stop(input.ID)
		return nil, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "reopen-output",
		Method:      http.MethodPost,
		Path:        "/api/outputs/{id}/reopen",
		Summary:     "Reopen Output",
		Description: "Close and reopen a device with its current configuration",
		Tags:        []string{"outputs"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 503},
	}, func(_ context.Context, input *models.OutputIDInput) (*models.OutputResponse, error) {
		if err := s.service.Reopen(input.ID); err != nil {
			return nil, soundError(err)
		}
		out, ok := s.findOutput(input.ID)
		if !ok {
			return nil, huma.Error500InternalServerError("output vanished after reopen")
		}
		return &models.OutputResponse{Body: out}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-output-stats",
		Method:      http.MethodGet,
		Path:        "/api/outputs/{id}/stats",
		Summary:     "Output Statistics",
		Description: "Write and diagnostic counters for a device since it was opened",
		Tags:        []string{"outputs"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *models.OutputIDInput) (*models.OutputStatsResponse, error) {
		stats := metrics.GetDeviceStats(input.ID)
		if stats == nil {
			if !s.service.Active(input.ID) {
				return nil, huma.Error404NotFound("output not found")
			}
			stats = &metrics.DeviceStats{}
		}
		diags := stats.Diagnostics
		if diags == nil {
			diags = map[string]uint64{}
		}
		return &models.OutputStatsResponse{
			Body: models.OutputStatsData{
				ID:            input.ID,
				Writes:        stats.Writes,
				FramesWritten: stats.FramesWritten,
				Diagnostics:   diags,
			},
		}, nil
	})
}
