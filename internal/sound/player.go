package sound

import (
	"sync"

	"github.com/smazurov/soundnode/internal/hardware"
)

// DefaultBlockSize is two NTSC video frames of samples at 44.1kHz.
const DefaultBlockSize = 735 * 2

// DefaultPlayerConfig is the device configuration players use unless told
// otherwise.
func DefaultPlayerConfig() hardware.Config {
	return hardware.Config{
		Device:    hardware.DefaultDevice,
		Channels:  1,
		Rate:      44100,
		LatencyUs: 50000,
	}
}

// Player accumulates samples one at a time and plays them in fixed blocks.
// Each player owns a device under its own identifier.
type Player struct {
	svc *Service
	id  int32
	key string

	mu    sync.Mutex
	block []float32
}

// NewPlayer configures a device for a fresh identifier. blockSize below 1
// uses DefaultBlockSize.
func NewPlayer(svc *Service, cfg hardware.Config, blockSize int) (*Player, error) {
	if blockSize < 1 {
		blockSize = DefaultBlockSize
	}

	id, key := hardware.NewIdentifier()
	if err := svc.Configure(id, cfg.Device, cfg.Channels, cfg.Rate, cfg.LatencyUs); err != nil {
		return nil, err
	}

	return &Player{
		svc:   svc,
		id:    id,
		key:   key,
		block: make([]float32, 0, blockSize),
	}, nil
}

// ID returns the identifier the player's device is registered under.
func (p *Player) ID() int32 { return p.id }

// SessionKey returns the key the identifier was derived from.
func (p *Player) SessionKey() string { return p.key }

// Output buffers one sample and plays the block once it is full.
func (p *Player) Output(sample float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.block = append(p.block, sample)
	if len(p.block) == cap(p.block) {
		p.flushLocked()
	}
}

// Flush plays whatever is buffered and returns the frames written.
func (p *Player) Flush() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushLocked()
}

func (p *Player) flushLocked() int {
	if len(p.block) == 0 {
		return 0
	}
	n := p.svc.Play(p.id, p.block)
	p.block = p.block[:0]
	return n
}

// Stop discards buffered samples and closes the device.
func (p *Player) Stop() {
	p.mu.Lock()
	p.block = p.block[:0]
	p.mu.Unlock()
	p.svc.Stop(p.id)
}
