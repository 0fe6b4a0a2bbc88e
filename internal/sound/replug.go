package sound

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/soundnode/pkg/linuxav/hotplug"
)

// DefaultSettle is how long a returning card is given before reopen.
const DefaultSettle = 500 * time.Millisecond

// CardResolver maps an output device name to its card index.
type CardResolver func(device string) (int, error)

// ReplugOptions configures a Replugger.
type ReplugOptions struct {
	// Resolve maps device names to cards (required).
	Resolve CardResolver

	// Settle delays the reopen after a card appears. Zero uses DefaultSettle.
	Settle time.Duration

	// Logger for replug operations. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Replugger reopens configured devices when their sound card is plugged
// back in.
type Replugger struct {
	service *Service
	resolve CardResolver
	settle  time.Duration
	logger  *slog.Logger
}

// NewReplugger creates a replugger for s.
func NewReplugger(s *Service, opts *ReplugOptions) *Replugger {
	if opts == nil || opts.Resolve == nil {
		panic("ReplugOptions with Resolve is required")
	}

	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Replugger{
		service: s,
		resolve: opts.Resolve,
		settle:  settle,
		logger:  logger,
	}
}

// Handle reopens every device on the card ev announces and returns how
// many were reopened. Events other than a card's control node appearing
// are ignored.
func (r *Replugger) Handle(ev hotplug.Event) int {
	if ev.Action != hotplug.ActionAdd {
		return 0
	}
	card, ok := ev.SoundCard()
	if !ok {
		return 0
	}

	reopened := 0
	for _, info := range r.service.Devices() {
		got, err := r.resolve(info.Device)
		if err != nil || got != card {
			continue
		}
		if err := r.service.Reopen(info.ID); err != nil {
			r.logger.Warn("Reopen after hotplug failed", "device_id", info.ID, "card", card, "error", err)
			continue
		}
		r.logger.Info("Device reopened after hotplug", "device_id", info.ID, "card", card)
		reopened++
	}
	return reopened
}

// Run handles events until ctx is done or events is closed.
func (r *Replugger) Run(ctx context.Context, events <-chan hotplug.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if _, isCard := ev.SoundCard(); !isCard || ev.Action != hotplug.ActionAdd {
				continue
			}
			select {
			case <-time.After(r.settle):
			case <-ctx.Done():
				return
			}
			r.Handle(ev)
		}
	}
}
