package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/soundnode/internal/api/models"
	"github.com/smazurov/soundnode/pkg/linuxav/alsa"
)

// registerAudioRoutes registers ALSA device enumeration under /api/devices/audio.
func (s *Server) registerAudioRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-audio-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices/audio",
		Summary:     "List Audio Devices",
		Description: "List ALSA PCM devices with their capabilities including supported " +
			"sample rates, formats, and channel counts",
		Tags:     []string{"devices"},
		Security: withAuth(),
		Errors:   []int{401, 500},
	}, func(_ context.Context, input *models.AudioDevicesInput) (*models.AudioDevicesResponse, error) {
		stream := alsa.StreamPlayback
		if input.Stream == alsa.StreamName(alsa.StreamCapture) {
			stream = alsa.StreamCapture
		}

		devices, err := alsa.ListDevices(stream)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to enumerate audio devices", err)
		}

		apiDevices := make([]models.AudioDevice, len(devices))
		for i, device := range devices {
			apiDevices[i] = models.AudioDevice{
				CardNumber:       device.CardNumber,
				CardID:           device.CardID,
				CardName:         device.CardName,
				DeviceNumber:     device.DeviceNumber,
				DeviceName:       device.DeviceName,
				Type:             device.Type,
				ALSADevice:       device.ALSADevice,
				SupportedRates:   device.SupportedRates,
				MinChannels:      device.MinChannels,
				MaxChannels:      device.MaxChannels,
				SupportedFormats: device.SupportedFormats,
				MinBufferSize:    device.MinBufferSize,
				MaxBufferSize:    device.MaxBufferSize,
				MinPeriodSize:    device.MinPeriodSize,
				MaxPeriodSize:    device.MaxPeriodSize,
			}
		}

		return &models.AudioDevicesResponse{
			Body: models.AudioDevicesData{
				Devices: apiDevices,
				Count:   len(apiDevices),
			},
		}, nil
	})
}
