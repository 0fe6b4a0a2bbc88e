package sound

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/smazurov/soundnode/internal/events"
	"github.com/smazurov/soundnode/internal/hardware"
	"github.com/smazurov/soundnode/internal/playback"
)

type failingBackend struct{}

func (failingBackend) Kind() hardware.BackendKind { return "failing" }
func (failingBackend) Supported() bool            { return false }
func (failingBackend) Open(hardware.Config) (hardware.Handle, error) {
	return nil, playback.ErrUnsupported
}

// flakyBackend fails the next fail opens and then behaves like the null
// backend.
type flakyBackend struct {
	*playback.NullBackend
	fail atomic.Int32
}

func (b *flakyBackend) Open(cfg hardware.Config) (hardware.Handle, error) {
	if b.fail.Add(-1) >= 0 {
		return nil, errors.New("device busy")
	}
	return b.NullBackend.Open(cfg)
}

type testService struct {
	*Service
	backend *playback.NullBackend
	diags   chan events.DiagnosticEvent
}

func newTestService(t *testing.T) *testService {
	t.Helper()
	bus := events.New()
	diags := make(chan events.DiagnosticEvent, 64)
	t.Cleanup(bus.Subscribe(func(e events.DiagnosticEvent) { diags <- e }))

	backend := playback.NewNullBackend()
	engine := playback.NewEngine(&playback.EngineOptions{Backend: backend, EventBus: bus})
	svc := NewService(&Options{Engine: engine})
	t.Cleanup(svc.StopAll)
	return &testService{Service: svc, backend: backend, diags: diags}
}

func (ts *testService) expectDiagnostic(t *testing.T, id int32, kind events.DiagnosticKind) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-ts.diags:
			if ev.DeviceID == id && ev.Kind == kind {
				return
			}
		case <-deadline:
			t.Fatalf("no %s diagnostic for device %d", kind, id)
		}
	}
}

func TestConfigurePlayStop(t *testing.T) {
	svc := newTestService(t)

	if err := svc.Configure(1, "default", 1, 44100, 500000); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	first := svc.Devices()[0]

	err := svc.Configure(1, "default", 2, 48000, 50000)
	if !errors.Is(err, ErrRepeatConfig) {
		t.Fatalf("second Configure error = %v, want ErrRepeatConfig", err)
	}
	if svc.backend.Opened() != 1 {
		t.Errorf("repeat config opened another device, opened = %d", svc.backend.Opened())
	}
	if devices := svc.Devices(); len(devices) != 1 || devices[0] != first {
		t.Errorf("live device changed: %+v", devices)
	}

	n := svc.Play(1, []float32{0.1, -0.2, 0.05})
	if n < 0 || n > 3 {
		t.Errorf("Play = %d, want 0..3", n)
	}

	svc.Stop(1)
	if svc.Active(1) {
		t.Error("device still active after Stop")
	}
	if svc.Registry().Len() != 0 {
		t.Errorf("registry has %d records after Stop", svc.Registry().Len())
	}
	if got := svc.Play(1, []float32{0.1}); got != 0 {
		t.Errorf("Play after Stop = %d, want 0", got)
	}
	svc.expectDiagnostic(t, 1, events.DiagNotConfigured)

	if err := svc.Configure(1, "default", 1, 44100, 500000); err != nil {
		t.Errorf("Configure after Stop failed: %v", err)
	}
}

func TestPlayUnknownDevice(t *testing.T) {
	svc := newTestService(t)

	if got := svc.Play(99, []float32{0.1, 0.2}); got != 0 {
		t.Errorf("Play = %d, want 0", got)
	}
	if svc.Registry().Len() != 0 || svc.backend.Opened() != 0 {
		t.Error("Play must not create a device")
	}
	svc.expectDiagnostic(t, 99, events.DiagNotConfigured)

	if got := svc.PlayFloat64(99, []float64{0.5}); got != 0 {
		t.Errorf("PlayFloat64 = %d, want 0", got)
	}
}

func TestStopUnknownDevice(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Configure(1, "default", 1, 44100, 0); err != nil {
		t.Fatal(err)
	}

	svc.Stop(42)
	svc.Stop(42)

	if !svc.Active(1) || svc.Registry().Len() != 1 {
		t.Error("Stop for an unknown id changed the registry")
	}
}

func TestConfigureHardwareInitFailure(t *testing.T) {
	engine := playback.NewEngine(&playback.EngineOptions{Backend: failingBackend{}})
	svc := NewService(&Options{Engine: engine})

	err := svc.Configure(1, "hw:9,0", 1, 44100, 500000)
	if !errors.Is(err, ErrHardwareInit) {
		t.Fatalf("Configure error = %v, want ErrHardwareInit", err)
	}
	if !errors.Is(err, playback.ErrUnsupported) {
		t.Errorf("error should wrap the backend cause, got %v", err)
	}
	if CodeOf(err) != CodeHardwareInit {
		t.Errorf("CodeOf = %q", CodeOf(err))
	}
	if svc.Registry().Len() != 0 {
		t.Error("failed configure must not register a device")
	}
	if svc.IsSupported() {
		t.Error("IsSupported should follow the backend")
	}
}

func TestConfigureInvalidParams(t *testing.T) {
	svc := newTestService(t)

	err := svc.Configure(1, "", 1, 44100, 0)
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("Configure error = %v, want ErrInvalidParams", err)
	}
	if !errors.Is(err, hardware.ErrInvalidConfig) {
		t.Errorf("error should wrap ErrInvalidConfig, got %v", err)
	}
	if svc.backend.Opened() != 0 {
		t.Error("invalid params must not reach the backend")
	}
}

func TestConfigureConcurrent(t *testing.T) {
	svc := newTestService(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Configure(7, "default", 1, 44100, 0)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, ErrRepeatConfig):
			t.Errorf("unexpected error %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d configures succeeded, want 1", succeeded)
	}
	if len(svc.Devices()) != 1 {
		t.Errorf("devices = %d, want 1", len(svc.Devices()))
	}
}

func TestPlayVariants(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Configure(1, "default", 2, 44100, 0); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		play func() int
		want int
	}{
		{name: "float32", play: func() int { return svc.Play(1, make([]float32, 8)) }, want: 4},
		{name: "float64", play: func() int { return svc.PlayFloat64(1, make([]float64, 6)) }, want: 3},
		{name: "int16", play: func() int { return svc.PlayInt16(1, make([]int16, 4)) }, want: 2},
		{
			name: "buffer",
			play: func() int {
				return svc.PlayBuffer(1, &audio.IntBuffer{
					Format:         &audio.Format{NumChannels: 2, SampleRate: 44100},
					Data:           make([]int, 10),
					SourceBitDepth: 16,
				})
			},
			want: 5,
		},
		{name: "nil buffer", play: func() int { return svc.PlayBuffer(1, nil) }, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.play(); got != tt.want {
				t.Errorf("frames = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStopAll(t *testing.T) {
	svc := newTestService(t)
	for _, id := range []int32{1, 2, 3} {
		if err := svc.Configure(id, "default", 1, 44100, 0); err != nil {
			t.Fatal(err)
		}
	}

	svc.StopAll()
	if svc.Registry().Len() != 0 {
		t.Errorf("registry has %d records after StopAll", svc.Registry().Len())
	}
	for _, id := range []int32{1, 2, 3} {
		if svc.Active(id) {
			t.Errorf("device %d still active", id)
		}
	}
}

func TestReopen(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Configure(5, "hw:1,0", 2, 48000, 20000); err != nil {
		t.Fatal(err)
	}

	if err := svc.Reopen(5); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	devices := svc.Devices()
	if len(devices) != 1 || devices[0].Device != "hw:1,0" || devices[0].Channels != 2 || devices[0].Rate != 48000 {
		t.Errorf("devices after reopen = %+v", devices)
	}
	if svc.backend.Opened() != 2 {
		t.Errorf("opened = %d, want 2", svc.backend.Opened())
	}

	if err := svc.Reopen(6); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Reopen unknown = %v, want ErrDeviceNotFound", err)
	}
}

func TestAcquireAutoCreates(t *testing.T) {
	svc := newTestService(t)

	if !svc.Acquire(3) {
		t.Fatal("Acquire failed")
	}
	devices := svc.Devices()
	if len(devices) != 1 || !devices[0].Auto {
		t.Fatalf("devices = %+v", devices)
	}
	want := hardware.DefaultConfig()
	if devices[0].Rate != want.Rate || devices[0].Channels != want.Channels || devices[0].LatencyUs != want.LatencyUs {
		t.Errorf("auto device = %+v, want defaults %+v", devices[0], want)
	}

	if err := svc.Configure(3, "default", 1, 44100, 0); !errors.Is(err, ErrRepeatConfig) {
		t.Errorf("Configure on auto-created id = %v, want ErrRepeatConfig", err)
	}
}

func TestAcquireCustomDefaults(t *testing.T) {
	defaults := hardware.Config{Device: "default", Channels: 2, Rate: 22050, LatencyUs: 10000}
	engine := playback.NewEngine(&playback.EngineOptions{Backend: playback.NewNullBackend()})
	svc := NewService(&Options{Engine: engine, Defaults: &defaults})
	defer svc.StopAll()

	svc.Acquire(1)
	if got := svc.Devices()[0]; got.Rate != 22050 || got.Channels != 2 {
		t.Errorf("auto device = %+v", got)
	}
}

func TestErrorFormatting(t *testing.T) {
	err := newError(CodeHardwareInit, 4, "audio hardware init failed", errors.New("busy"))
	if got := err.Error(); got != "[HARDWARE_INIT] device 4: audio hardware init failed: busy" {
		t.Errorf("Error() = %q", got)
	}
	if !err.HasCode(CodeHardwareInit) {
		t.Error("HasCode should match")
	}
	if errors.Is(err, ErrRepeatConfig) {
		t.Error("codes must not cross-match")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Error("CodeOf plain error should be empty")
	}
}

func TestRates(t *testing.T) {
	for _, rate := range []int{11025, 22050, 44100, 48000, 96000} {
		if !IsStandardRate(rate) {
			t.Errorf("%d should be standard", rate)
		}
	}
	if IsStandardRate(32000) {
		t.Error("32000 is not offered")
	}
	if got := APUDivider(44100); got != 40 {
		t.Errorf("APUDivider(44100) = %d, want 40", got)
	}
	if got := APUDivider(0); got != 0 {
		t.Errorf("APUDivider(0) = %d", got)
	}
}

func TestReopenRetriesAfterFailure(t *testing.T) {
	backend := &flakyBackend{NullBackend: playback.NewNullBackend()}
	engine := playback.NewEngine(&playback.EngineOptions{Backend: backend})
	svc := NewService(&Options{Engine: engine})
	defer svc.StopAll()

	if !svc.Acquire(5) {
		t.Fatal("Acquire failed")
	}

	backend.fail.Store(1)
	err := svc.Reopen(5)
	if !errors.Is(err, ErrHardwareInit) {
		t.Fatalf("Reopen with busy device = %v, want ErrHardwareInit", err)
	}
	devices := svc.Devices()
	if len(devices) != 1 || devices[0].State != hardware.StateClosed {
		t.Fatalf("device should stay registered and closed: %+v", devices)
	}
	if svc.Active(5) {
		t.Error("device should not be active after a failed reopen")
	}
	if n := svc.Play(5, []float32{0.1, 0.2}); n != 0 {
		t.Errorf("Play on closed device = %d, want 0", n)
	}
	if err := svc.Configure(5, "default", 1, 48000, 500000); !errors.Is(err, ErrRepeatConfig) {
		t.Errorf("Configure during failed reopen = %v, want ErrRepeatConfig", err)
	}

	if err := svc.Reopen(5); err != nil {
		t.Fatalf("retry Reopen failed: %v", err)
	}
	devices = svc.Devices()
	if len(devices) != 1 || !devices[0].Auto || devices[0].State != hardware.StateOpen {
		t.Fatalf("device after retry = %+v", devices)
	}
	if n := svc.Play(5, []float32{0.1, 0.2}); n != 2 {
		t.Errorf("Play after retry = %d, want 2", n)
	}
	if backend.Opened() != 2 {
		t.Errorf("opened = %d, want 2", backend.Opened())
	}
}

func TestReopenConcurrentWithStop(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Configure(8, "default", 1, 48000, 500000); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.Reopen(8)
		}()
		go func() {
			defer wg.Done()
			svc.Stop(8)
		}()
	}
	wg.Wait()

	if len(svc.Devices()) != 0 {
		t.Errorf("devices left after stop: %+v", svc.Devices())
	}
}
