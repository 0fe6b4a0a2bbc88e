package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/smazurov/soundnode/internal/events"
	"github.com/smazurov/soundnode/internal/hardware"
	"github.com/smazurov/soundnode/internal/logging"
	"github.com/smazurov/soundnode/internal/metrics"
	"github.com/smazurov/soundnode/internal/metrics/exporters"
	"github.com/smazurov/soundnode/internal/playback"
	"github.com/smazurov/soundnode/internal/sound"
	"github.com/smazurov/soundnode/internal/wavdump"
	"github.com/spf13/cobra"
)

// NoiseBlockSize is the number of samples written per iteration.
const NoiseBlockSize = 16 * 1024

// NoiseOptions configures a noise run.
type NoiseOptions struct {
	ID          int32
	Auto        bool
	Config      hardware.Config
	Backend     string
	Iterations  int
	Amplitude   float32
	CheckAvail  bool
	WriteLoops  int
	DumpDir     string
	MetricsAddr string

	// output replaces the backend named by Backend when set.
	output playback.Backend
}

// NoiseResult summarizes a noise run.
type NoiseResult struct {
	Iterations    int
	FramesWritten int
	Reopens       int
	Diagnostics   map[events.DiagnosticKind]int
}

// CreateNoiseCmd creates the noise command.
func CreateNoiseCmd() *cobra.Command {
	opts := NoiseOptions{Config: hardware.DefaultConfig()}
	var id int
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "noise",
		Short: "Play white noise through an output",
		Long: `Configures an output, writes blocks of random samples to it and stops it. ` +
			`Prints the frames written and the write diagnostics raised, which makes it a quick ` +
			`check of a device, its latency setting and the recovery path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Initialize minimal logging
			loggingConfig := logging.Config{Level: "info", Format: "text"}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			opts.ID = int32(id)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := RunNoise(ctx, opts, logging.GetLogger("noise"))
			if err != nil {
				return err
			}
			printNoiseResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&id, "id", 1, "Output identifier")
	f.BoolVar(&opts.Auto, "auto", false, "Open the output on first use with the default configuration")
	f.StringVarP(&opts.Config.Device, "device", "d", opts.Config.Device, "ALSA device name")
	f.IntVar(&opts.Config.Channels, "channels", opts.Config.Channels, "Channel count")
	f.IntVar(&opts.Config.Rate, "rate", opts.Config.Rate, "Sample rate in Hz")
	f.IntVar(&opts.Config.LatencyUs, "latency-us", opts.Config.LatencyUs, "Requested latency in microseconds")
	f.StringVar(&opts.Backend, "backend", "alsa", "Output backend (alsa, null)")
	f.IntVarP(&opts.Iterations, "iterations", "n", 16, "Blocks to write")
	f.Float32Var(&opts.Amplitude, "amplitude", 0.25, "Peak amplitude between 0 and 1")
	f.BoolVar(&opts.CheckAvail, "check-avail", true, "Drop blocks the device has no room for")
	f.IntVar(&opts.WriteLoops, "write-loops", 1, "Times each block is submitted")
	f.StringVar(&opts.DumpDir, "dump", "", "Also record the output to WAV files in this directory")
	f.StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	f.BoolVar(&logJSON, "log-json", false, "Log as JSON")

	return cmd
}

// RunNoise plays opts.Iterations blocks of noise and stops the output.
// A block that fails to write triggers one reopen of the output.
func RunNoise(ctx context.Context, opts NoiseOptions, logger *slog.Logger) (*NoiseResult, error) {
	if opts.Iterations < 1 {
		return nil, errors.New("iterations must be at least 1")
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend := opts.output
	if backend == nil {
		var err error
		if backend, err = playback.NewBackend(opts.Backend); err != nil {
			return nil, err
		}
	}

	bus := events.New()
	defer bus.Close()
	diags := make(chan events.DiagnosticEvent, 256)
	defer events.SubscribeToChannel(bus, diags)()

	engineOpts := &playback.EngineOptions{
		Backend:        backend,
		SkipAvailCheck: !opts.CheckAvail,
		WriteLoops:     opts.WriteLoops,
		EventBus:       bus,
		Logger:         logging.GetLogger("playback"),
	}
	if opts.DumpDir != "" {
		recorder, err := wavdump.New(opts.DumpDir, logging.GetLogger("wavdump"))
		if err != nil {
			return nil, err
		}
		defer recorder.Close()
		defer recorder.Watch(bus)()
		engineOpts.Tap = recorder
	}

	svc := sound.NewService(&sound.Options{
		Engine:   playback.NewEngine(engineOpts),
		Defaults: &opts.Config,
		Logger:   logging.GetLogger("sound"),
	})
	defer svc.StopAll()

	if opts.MetricsAddr != "" {
		srv := exporters.NewServer(opts.MetricsAddr)
		go func() {
			if srvErr := srv.ListenAndServe(); srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
				logger.Warn("Metrics server failed", "error", srvErr)
			}
		}()
		defer srv.Close()
	}

	if opts.Auto {
		if !svc.Acquire(opts.ID) {
			return nil, fmt.Errorf("output %d could not be opened with the default configuration", opts.ID)
		}
	} else {
		cfg := opts.Config
		if err := svc.Configure(opts.ID, cfg.Device, cfg.Channels, cfg.Rate, cfg.LatencyUs); err != nil {
			return nil, err
		}
	}

	if !sound.IsStandardRate(opts.Config.Rate) {
		logger.Warn("Non-standard sample rate", "rate", opts.Config.Rate)
	}
	logger.Info("Playing noise",
		"device_id", opts.ID,
		"config", opts.Config.String(),
		"iterations", opts.Iterations,
		"apu_divider", sound.APUDivider(opts.Config.Rate))

	result := &NoiseResult{Diagnostics: make(map[events.DiagnosticKind]int)}
	block := make([]float32, NoiseBlockSize)

	for i := 0; i < opts.Iterations && ctx.Err() == nil; i++ {
		fillNoise(block, opts.Amplitude)
		failures := writeFailures(opts.ID)
		frames := svc.Play(opts.ID, block)
		result.FramesWritten += frames
		result.Iterations++
		drainDiagnostics(diags, result)

		if frames == 0 && writeFailures(opts.ID) > failures && result.Reopens == 0 {
			if err := svc.Reopen(opts.ID); err != nil {
				logger.Error("Reopen failed", "device_id", opts.ID, "error", err)
				break
			}
			result.Reopens++
		}
	}

	// Let the bus deliver what the last writes raised.
	time.Sleep(50 * time.Millisecond)
	drainDiagnostics(diags, result)

	if stats := metrics.GetDeviceStats(opts.ID); stats != nil {
		logger.Debug("Device stats", "writes", stats.Writes, "frames", stats.FramesWritten)
	}
	return result, nil
}

// writeFailures returns the failed writes recorded for a device so far. The
// counter is updated before Play returns.
func writeFailures(id int32) uint64 {
	if stats := metrics.GetDeviceStats(id); stats != nil {
		return stats.Diagnostics[string(events.DiagWriteFailed)]
	}
	return 0
}

func fillNoise(block []float32, amplitude float32) {
	for i := range block {
		block[i] = (rand.Float32()*2 - 1) * amplitude
	}
}

// drainDiagnostics counts the diagnostics delivered so far.
func drainDiagnostics(diags <-chan events.DiagnosticEvent, result *NoiseResult) {
	for {
		select {
		case ev := <-diags:
			result.Diagnostics[ev.Kind]++
		default:
			return
		}
	}
}

func printNoiseResult(w io.Writer, r *NoiseResult) {
	fmt.Fprintf(w, "Iterations:     %d\n", r.Iterations)
	fmt.Fprintf(w, "Frames written: %d\n", r.FramesWritten)
	if r.Reopens > 0 {
		fmt.Fprintf(w, "Reopens:        %d\n", r.Reopens)
	}
	if len(r.Diagnostics) == 0 {
		fmt.Fprintln(w, "Diagnostics:    none")
		return
	}

	kinds := make([]string, 0, len(r.Diagnostics))
	for kind := range r.Diagnostics {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	fmt.Fprintln(w, "Diagnostics:")
	for _, kind := range kinds {
		fmt.Fprintf(w, "  %-14s %d\n", kind, r.Diagnostics[events.DiagnosticKind(kind)])
	}
}
