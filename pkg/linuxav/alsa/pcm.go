//go:build linux

package alsa

import (
	"errors"
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	// ErrClosed is returned by operations on a closed PCM.
	ErrClosed = errors.New("alsa: pcm closed")
	// ErrNotConfigured is returned when writing before SetParams.
	ErrNotConfigured = errors.New("alsa: pcm parameters not set")
	// ErrUnsupportedFormat is returned when the device accepts none of
	// the sample formats float input can be converted to.
	ErrUnsupportedFormat = errors.New("alsa: no usable sample format")
	// ErrInvalidParams is returned for non-positive channel counts or rates.
	ErrInvalidParams = errors.New("alsa: invalid parameters")
)

const (
	resumeRetries = 3
	resumeBackoff = 10 * time.Millisecond
)

// Params requests a playback configuration.
type Params struct {
	Channels int
	Rate     int
	// LatencyUs caps the ring buffer duration in microseconds. Zero lets
	// the driver choose.
	LatencyUs int
}

// PCM is an open playback stream on a kernel PCM device. A PCM is not
// safe for concurrent use.
type PCM struct {
	fd         int
	path       string
	channels   int
	rate       int
	format     int
	bufferSize int
	periodSize int

	s16 []int16
	s32 []int32
}

// OpenPlayback opens the playback node behind an ALSA device name. With
// nonblock set, writes against a full buffer fail with EAGAIN instead of
// waiting.
func OpenPlayback(name string, nonblock bool) (*PCM, error) {
	dn, err := ParseDeviceName(name)
	if err != nil {
		return nil, err
	}
	card, err := ResolveCard(dn.Card)
	if err != nil {
		return nil, err
	}

	path := PlaybackPath(card, dn.Device)
	flags := unix.O_RDWR | unix.O_CLOEXEC
	if nonblock {
		flags |= unix.O_NONBLOCK
	}
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &PCM{fd: fd, path: path}, nil
}

// Path returns the device node backing the PCM.
func (p *PCM) Path() string { return p.path }

// Channels returns the negotiated channel count.
func (p *PCM) Channels() int { return p.channels }

// Rate returns the negotiated sample rate.
func (p *PCM) Rate() int { return p.rate }

// Format returns the negotiated hardware sample format.
func (p *PCM) Format() int { return p.format }

// BufferSize returns the ring buffer size in frames.
func (p *PCM) BufferSize() int { return p.bufferSize }

// PeriodSize returns the period size in frames.
func (p *PCM) PeriodSize() int { return p.periodSize }

// SetParams negotiates interleaved access at the requested channel count
// and rate, installs software parameters and prepares the stream.
//
// The ring buffer is capped at LatencyUs with periods between an eighth
// and a quarter of it. If the driver rejects the period window, the
// buffer cap alone is retried.
func (p *PCM) SetParams(params Params) error {
	if p.fd < 0 {
		return ErrClosed
	}
	if params.Channels <= 0 || params.Rate <= 0 || params.LatencyUs < 0 {
		return fmt.Errorf("%w: channels=%d rate=%d latency=%d",
			ErrInvalidParams, params.Channels, params.Rate, params.LatencyUs)
	}

	format, err := p.chooseFormat()
	if err != nil {
		return err
	}

	hw, err := p.negotiate(format, params, true)
	if err != nil && params.LatencyUs > 0 {
		hw, err = p.negotiate(format, params, false)
	}
	if err != nil {
		return fmt.Errorf("hw_params %s: %w", p.path, err)
	}

	bufferSize, _ := hw.getInterval(sndrvPCMHwParamBufferSize)
	periodSize, _ := hw.getInterval(sndrvPCMHwParamPeriodSize)

	sw := swParamsFor(int(bufferSize), int(periodSize))
	if err := ioctl(p.fd, sndrvPCMIoctlSwParams, unsafe.Pointer(&sw)); err != nil {
		return fmt.Errorf("sw_params %s: %w", p.path, err)
	}
	if err := p.Prepare(); err != nil {
		return fmt.Errorf("prepare %s: %w", p.path, err)
	}

	p.channels = params.Channels
	p.rate = params.Rate
	p.format = format
	p.bufferSize = int(bufferSize)
	p.periodSize = int(periodSize)
	return nil
}

func (p *PCM) chooseFormat() (int, error) {
	hw := sndPCMHwParams{}
	hw.init()
	hw.setMask(sndrvPCMHwParamAccess, sndrvPCMAccessRwInterleaved)
	if err := ioctl(p.fd, sndrvPCMIoctlHwRefine, unsafe.Pointer(&hw)); err != nil {
		return 0, fmt.Errorf("hw_refine %s: %w", p.path, err)
	}
	for _, format := range playbackFormats {
		if hw.checkMask(sndrvPCMHwParamFormat, uint32(format)) {
			return format, nil
		}
	}
	return 0, ErrUnsupportedFormat
}

func (p *PCM) negotiate(format int, params Params, periodWindow bool) (*sndPCMHwParams, error) {
	hw := &sndPCMHwParams{}
	hw.init()
	hw.setMask(sndrvPCMHwParamAccess, sndrvPCMAccessRwInterleaved)
	hw.setMask(sndrvPCMHwParamFormat, uint32(format))
	hw.setMask(sndrvPCMHwParamSubformat, sndrvPCMSubformatStd)
	hw.setInteger(sndrvPCMHwParamChannels, uint32(params.Channels))
	hw.setInteger(sndrvPCMHwParamRate, uint32(params.Rate))

	if params.LatencyUs > 0 {
		latency := uint32(params.LatencyUs)
		hw.setMax(sndrvPCMHwParamBufferTime, latency)
		if periodWindow {
			hw.setMin(sndrvPCMHwParamPeriodTime, latency/8)
			hw.setMax(sndrvPCMHwParamPeriodTime, latency/4)
		}
	}

	if err := ioctl(p.fd, sndrvPCMIoctlHwParams, unsafe.Pointer(hw)); err != nil {
		return nil, err
	}
	return hw, nil
}

// Prepare resets the stream so it can accept writes again.
func (p *PCM) Prepare() error {
	if p.fd < 0 {
		return ErrClosed
	}
	return ioctl(p.fd, sndrvPCMIoctlPrepare, nil)
}

// Avail returns the number of frames that can be written without
// blocking. It fails with EPIPE after an underrun.
func (p *PCM) Avail() (int, error) {
	if p.fd < 0 {
		return 0, ErrClosed
	}
	var delay sframes
	if err := ioctl(p.fd, sndrvPCMIoctlDelay, unsafe.Pointer(&delay)); err != nil {
		return 0, err
	}
	avail := p.bufferSize - int(delay)
	if avail < 0 {
		avail = 0
	}
	return avail, nil
}

// WriteFloat32 writes interleaved samples in [-1, 1] and returns the number
// of frames the kernel accepted. Trailing samples that do not fill a whole
// frame are ignored. Errors are the raw errno values so callers can pass
// them to Recover.
func (p *PCM) WriteFloat32(samples []float32) (int, error) {
	if p.fd < 0 {
		return 0, ErrClosed
	}
	if p.channels == 0 {
		return 0, ErrNotConfigured
	}
	frames := len(samples) / p.channels
	if frames == 0 {
		return 0, nil
	}
	samples = samples[:frames*p.channels]

	var buf unsafe.Pointer
	switch p.format {
	case FormatS32LE:
		p.s32 = appendS32(p.s32[:0], samples)
		buf = unsafe.Pointer(&p.s32[0])
	case FormatS16LE:
		p.s16 = appendS16(p.s16[:0], samples)
		buf = unsafe.Pointer(&p.s16[0])
	default:
		buf = unsafe.Pointer(&samples[0])
	}

	x := sndXferi{buf: buf, frames: uframes(frames)}
	err := ioctl(p.fd, sndrvPCMIoctlWriteiFrames, unsafe.Pointer(&x))
	runtime.KeepAlive(samples)
	if err != nil {
		return 0, err
	}
	return int(x.result), nil
}

// Recover tries to bring the stream back after a failed write. Underruns
// are re-prepared, suspended streams are resumed (or re-prepared when the
// driver cannot resume) and interrupted calls need nothing. Any other
// error is returned unchanged.
func (p *PCM) Recover(err error) error {
	if p.fd < 0 {
		return ErrClosed
	}
	switch {
	case errors.Is(err, unix.EINTR):
		return nil
	case errors.Is(err, unix.EPIPE):
		if perr := p.Prepare(); perr != nil {
			return fmt.Errorf("recover from underrun: %w", perr)
		}
		return nil
	case errors.Is(err, unix.ESTRPIPE):
		rerr := ioctl(p.fd, sndrvPCMIoctlResume, nil)
		for i := 0; errors.Is(rerr, unix.EAGAIN) && i < resumeRetries; i++ {
			time.Sleep(resumeBackoff)
			rerr = ioctl(p.fd, sndrvPCMIoctlResume, nil)
		}
		if rerr != nil {
			if perr := p.Prepare(); perr != nil {
				return fmt.Errorf("recover from suspend: %w", perr)
			}
		}
		return nil
	default:
		return err
	}
}

// Drop stops the stream immediately, discarding pending frames.
func (p *PCM) Drop() error {
	if p.fd < 0 {
		return ErrClosed
	}
	return ioctl(p.fd, sndrvPCMIoctlDrop, nil)
}

// Close releases the device node. Closing twice is a no-op.
func (p *PCM) Close() error {
	if p.fd < 0 {
		return nil
	}
	err := unix.Close(p.fd)
	p.fd = -1
	return err
}
