//go:build linux

package playback

import (
	"fmt"

	"github.com/smazurov/soundnode/internal/hardware"
	"github.com/smazurov/soundnode/internal/logging"
	"github.com/smazurov/soundnode/pkg/linuxav/alsa"
)

type alsaBackend struct {
	logger logging.Logger
}

func newALSABackend() Backend {
	return &alsaBackend{logger: logging.GetLogger("alsa")}
}

func (b *alsaBackend) Kind() hardware.BackendKind { return hardware.BackendALSA }

func (b *alsaBackend) Supported() bool { return true }

func (b *alsaBackend) Open(cfg hardware.Config) (hardware.Handle, error) {
	pcm, err := alsa.OpenPlayback(cfg.Device, true)
	if err != nil {
		return nil, err
	}

	params := alsa.Params{
		Channels:  cfg.Channels,
		Rate:      cfg.Rate,
		LatencyUs: cfg.LatencyUs,
	}
	if err := pcm.SetParams(params); err != nil {
		_ = pcm.Close()
		return nil, fmt.Errorf("set params: %w", err)
	}

	b.logger.Debug("PCM configured",
		"device", cfg.Device,
		"path", pcm.Path(),
		"format", alsa.FormatName(pcm.Format()),
		"buffer_frames", pcm.BufferSize(),
		"period_frames", pcm.PeriodSize())

	return &alsaHandle{pcm: pcm}, nil
}

type alsaHandle struct {
	pcm *alsa.PCM
}

func (h *alsaHandle) Backend() hardware.BackendKind { return hardware.BackendALSA }

func (h *alsaHandle) Avail() (int, error) { return h.pcm.Avail() }

func (h *alsaHandle) Write(samples []float32) (int, error) { return h.pcm.WriteFloat32(samples) }

func (h *alsaHandle) Recover(err error) error { return h.pcm.Recover(err) }

func (h *alsaHandle) Drop() error { return h.pcm.Drop() }

func (h *alsaHandle) Close() error { return h.pcm.Close() }

// CardOf returns the ALSA card index an output device name refers to.
func CardOf(device string) (int, error) {
	name, err := alsa.ParseDeviceName(device)
	if err != nil {
		return 0, err
	}
	return alsa.ResolveCard(name.Card)
}
