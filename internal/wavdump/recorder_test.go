package wavdump

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/smazurov/soundnode/internal/events"
	"github.com/smazurov/soundnode/internal/hardware"
)

func readWAV(t *testing.T, path string) *wav.Decoder {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { f.Close() })

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("%s is not a valid WAV file", path)
	}
	return dec
}

func TestRecorderWritesWAV(t *testing.T) {
	dir := t.TempDir()
	rec, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cfg := hardware.Config{Device: "default", Channels: 2, Rate: 22050}
	rec.Tap(1, cfg, []float32{0, 0.5, -0.5, 1})
	rec.Tap(1, cfg, []float32{2, -2})

	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	files := rec.Files()
	if len(files) != 1 || files[0] != filepath.Join(dir, "device-1-1.wav") {
		t.Fatalf("files = %v", files)
	}

	dec := readWAV(t, files[0])
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer failed: %v", err)
	}
	if dec.SampleRate != 22050 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Errorf("header = %dHz %dch %dbit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}

	want := []int{0, 16384, -16384, 32767, 32767, -32768}
	if len(buf.Data) != len(want) {
		t.Fatalf("samples = %v, want %v", buf.Data, want)
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], want[i])
		}
	}
}

func TestRecorderSessions(t *testing.T) {
	dir := t.TempDir()
	rec, err := New(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg := hardware.Config{Device: "default", Channels: 1, Rate: 44100}

	rec.Tap(3, cfg, []float32{0.1})
	if err := rec.Finish(3); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if err := rec.Finish(3); err != nil {
		t.Errorf("second Finish = %v, want nil", err)
	}
	rec.Tap(3, cfg, []float32{0.2})
	rec.Tap(4, cfg, []float32{0.3})
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "device-3-1.wav"),
		filepath.Join(dir, "device-3-2.wav"),
		filepath.Join(dir, "device-4-1.wav"),
	}
	got := rec.Files()
	if len(got) != len(want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d = %s, want %s", i, got[i], want[i])
		}
		readWAV(t, want[i])
	}

	rec.Tap(5, cfg, []float32{0.4})
	if len(rec.Files()) != len(want) {
		t.Error("tap after Close created a file")
	}
}

func TestRecorderWatch(t *testing.T) {
	rec, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Close()

	bus := events.New()
	unsub := rec.Watch(bus)
	defer unsub()

	cfg := hardware.Config{Device: "default", Channels: 1, Rate: 8000}
	rec.Tap(7, cfg, []float32{0.25})
	bus.Publish(events.DeviceClosedEvent{DeviceID: 7})

	deadline := time.Now().Add(time.Second)
	for {
		rec.mu.Lock()
		_, open := rec.sessions[7]
		rec.mu.Unlock()
		if !open {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session not finished after DeviceClosedEvent")
		}
		time.Sleep(5 * time.Millisecond)
	}
	readWAV(t, rec.Files()[0])
}

func TestToInt16(t *testing.T) {
	tests := []struct {
		in   float32
		want int
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{1.5, 32767},
		{-1.5, -32768},
	}
	for _, tt := range tests {
		if got := toInt16(tt.in); got != tt.want {
			t.Errorf("toInt16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
