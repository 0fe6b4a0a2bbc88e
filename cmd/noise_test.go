package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smazurov/soundnode/internal/events"
	"github.com/smazurov/soundnode/internal/hardware"
	"github.com/smazurov/soundnode/internal/playback"
)

var errUnplugged = errors.New("device unplugged")

// firstOpenBackend hands out a wrapped handle on the first open and plain
// null handles afterwards.
type firstOpenBackend struct {
	*playback.NullBackend
	wrap func(hardware.Handle) hardware.Handle
}

func (b *firstOpenBackend) Open(cfg hardware.Config) (hardware.Handle, error) {
	h, err := b.NullBackend.Open(cfg)
	if err != nil || b.Opened() > 1 {
		return h, err
	}
	return b.wrap(h), nil
}

// unpluggedHandle fails every write and cannot be recovered.
type unpluggedHandle struct{ hardware.Handle }

func (h unpluggedHandle) Write([]float32) (int, error) { return 0, errUnplugged }
func (h unpluggedHandle) Recover(error) error          { return errUnplugged }

// fullHandle never has room.
type fullHandle struct{ hardware.Handle }

func (h fullHandle) Avail() (int, error) { return 0, nil }

func nullNoise(id int32) NoiseOptions {
	return NoiseOptions{
		ID:         id,
		Config:     hardware.Config{Device: "default", Channels: 2, Rate: 44100, LatencyUs: 20000},
		Backend:    "null",
		Iterations: 3,
		Amplitude:  0.5,
		CheckAvail: true,
		WriteLoops: 1,
	}
}

func TestRunNoise(t *testing.T) {
	result, err := RunNoise(context.Background(), nullNoise(101), nil)
	if err != nil {
		t.Fatalf("RunNoise failed: %v", err)
	}
	if result.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", result.Iterations)
	}
	if want := 3 * NoiseBlockSize / 2; result.FramesWritten != want {
		t.Errorf("FramesWritten = %d, want %d", result.FramesWritten, want)
	}
	if result.Reopens != 0 || len(result.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics %v, reopens %d", result.Diagnostics, result.Reopens)
	}
}

func TestRunNoiseAutoWithDump(t *testing.T) {
	opts := nullNoise(102)
	opts.Auto = true
	opts.Iterations = 1
	opts.DumpDir = t.TempDir()

	result, err := RunNoise(context.Background(), opts, nil)
	if err != nil {
		t.Fatalf("RunNoise failed: %v", err)
	}
	if result.FramesWritten != NoiseBlockSize/2 {
		t.Errorf("FramesWritten = %d, want %d", result.FramesWritten, NoiseBlockSize/2)
	}

	files, _ := filepath.Glob(filepath.Join(opts.DumpDir, "*.wav"))
	if len(files) != 1 {
		t.Fatalf("dump files = %v, want one", files)
	}
	if info, err := os.Stat(files[0]); err != nil || info.Size() <= 44 {
		t.Errorf("dump file empty or missing: %v", err)
	}
}

func TestRunNoiseReopensAfterFailedWrite(t *testing.T) {
	backend := &firstOpenBackend{
		NullBackend: playback.NewNullBackend(),
		wrap:        func(h hardware.Handle) hardware.Handle { return unpluggedHandle{h} },
	}
	opts := nullNoise(106)
	opts.output = backend

	result, err := RunNoise(context.Background(), opts, nil)
	if err != nil {
		t.Fatalf("RunNoise failed: %v", err)
	}
	if result.Reopens != 1 {
		t.Errorf("Reopens = %d, want 1", result.Reopens)
	}
	if backend.Opened() != 2 {
		t.Errorf("opened = %d, want 2", backend.Opened())
	}
	if want := 2 * NoiseBlockSize / 2; result.FramesWritten != want {
		t.Errorf("FramesWritten = %d, want %d", result.FramesWritten, want)
	}
	if result.Diagnostics[events.DiagWriteFailed] != 1 {
		t.Errorf("Diagnostics = %v, want one write_failed", result.Diagnostics)
	}
}

func TestRunNoiseBackpressureKeepsDevice(t *testing.T) {
	backend := &firstOpenBackend{
		NullBackend: playback.NewNullBackend(),
		wrap:        func(h hardware.Handle) hardware.Handle { return fullHandle{h} },
	}
	opts := nullNoise(107)
	opts.output = backend

	result, err := RunNoise(context.Background(), opts, nil)
	if err != nil {
		t.Fatalf("RunNoise failed: %v", err)
	}
	if result.Reopens != 0 || backend.Opened() != 1 {
		t.Errorf("reopens = %d, opened = %d; a full buffer must not reopen", result.Reopens, backend.Opened())
	}
	if result.FramesWritten != 0 {
		t.Errorf("FramesWritten = %d, want 0", result.FramesWritten)
	}
	if result.Diagnostics[events.DiagBackpressure] != 3 {
		t.Errorf("Diagnostics = %v, want three backpressure", result.Diagnostics)
	}
}

func TestRunNoiseRejectsBadInput(t *testing.T) {
	opts := nullNoise(103)
	opts.Iterations = 0
	if _, err := RunNoise(context.Background(), opts, nil); err == nil {
		t.Error("expected error for zero iterations")
	}

	opts = nullNoise(104)
	opts.Backend = "pulse"
	if _, err := RunNoise(context.Background(), opts, nil); err == nil {
		t.Error("expected error for unknown backend")
	}

	opts = nullNoise(105)
	opts.Config.Channels = 0
	if _, err := RunNoise(context.Background(), opts, nil); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestFillNoise(t *testing.T) {
	block := make([]float32, 4096)
	fillNoise(block, 0.25)
	nonZero := 0
	for _, v := range block {
		if v < -0.25 || v > 0.25 {
			t.Fatalf("sample %f outside amplitude", v)
		}
		if v != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Error("block is silent")
	}
}

func TestPrintNoiseResult(t *testing.T) {
	var buf bytes.Buffer
	printNoiseResult(&buf, &NoiseResult{
		Iterations:    2,
		FramesWritten: 100,
		Reopens:       1,
		Diagnostics: map[events.DiagnosticKind]int{
			events.DiagShortWrite:   2,
			events.DiagBackpressure: 1,
		},
	})
	out := buf.String()
	for _, want := range []string{"Frames written: 100", "Reopens:        1", "backpressure", "short_write"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "backpressure") > strings.Index(out, "short_write") {
		t.Error("diagnostics not sorted")
	}
}
