//go:build linux

package alsa

// Hardware parameter indices from <sound/asound.h>.
const (
	sndrvPCMHwParamAccess        = 0
	sndrvPCMHwParamFormat        = 1
	sndrvPCMHwParamSubformat     = 2
	sndrvPCMHwParamFirstMask     = 0
	sndrvPCMHwParamLastMask      = 2
	sndrvPCMHwParamSampleBits    = 8
	sndrvPCMHwParamFrameBits     = 9
	sndrvPCMHwParamChannels      = 10
	sndrvPCMHwParamRate          = 11
	sndrvPCMHwParamPeriodTime    = 12
	sndrvPCMHwParamPeriodSize    = 13
	sndrvPCMHwParamPeriodBytes   = 14
	sndrvPCMHwParamPeriods       = 15
	sndrvPCMHwParamBufferTime    = 16
	sndrvPCMHwParamBufferSize    = 17
	sndrvPCMHwParamBufferBytes   = 18
	sndrvPCMHwParamTickTime      = 19
	sndrvPCMHwParamFirstInterval = 8
	sndrvPCMHwParamLastInterval  = 19

	sndrvMaskMax = 256

	sndrvPCMAccessRwInterleaved = 3
	sndrvPCMSubformatStd        = 0

	// snd_interval flag bits.
	intervalOpenMin = 1 << 0
	intervalOpenMax = 1 << 1
	intervalInteger = 1 << 2
)

// sndCtlCardInfo has size 376 bytes.
type sndCtlCardInfo struct {
	card       int32     // offset 0
	_          [4]byte   // padding
	id         [16]byte  // offset 8
	driver     [16]byte  // offset 24
	name       [32]byte  // offset 40
	longname   [80]byte  // offset 72
	reserved   [16]byte  // offset 152
	mixername  [80]byte  // offset 168
	components [128]byte // offset 248
}

// sndPCMInfo has size 288 bytes.
type sndPCMInfo struct {
	device          uint32   // offset 0
	subdevice       uint32   // offset 4
	stream          int32    // offset 8
	card            int32    // offset 12
	id              [64]byte // offset 16
	name            [80]byte // offset 80
	subname         [32]byte // offset 160
	devClass        int32    // offset 192
	devSubclass     int32    // offset 196
	subdevicesCount uint32   // offset 200
	subdevicesAvail uint32   // offset 204
	_               [16]byte // sync id
	reserved        [64]byte // offset 224
}

type sndMask struct {
	bits [(sndrvMaskMax + 31) / 32]uint32
}

type sndInterval struct {
	minVal uint32
	maxVal uint32
	bit    uint32
}

// init resets every mask and interval to "anything goes" so the kernel
// can refine from a full configuration space.
func (p *sndPCMHwParams) init() {
	*p = sndPCMHwParams{}
	for i := range p.masks {
		p.masks[i].bits[0] = 0xFFFFFFFF
		p.masks[i].bits[1] = 0xFFFFFFFF
	}
	for i := range p.intervals {
		p.intervals[i].maxVal = 0xFFFFFFFF
	}
	p.rmask = 0xFFFFFFFF
	p.info = 0xFFFFFFFF
}

func (p *sndPCMHwParams) setMask(param, val uint32) {
	p.masks[param] = sndMask{}
	p.masks[param].bits[val>>5] = 1 << (val & 0x1F)
}

func (p *sndPCMHwParams) checkMask(param, val uint32) bool {
	return p.masks[param].bits[val>>5]&(1<<(val&0x1F)) != 0
}

func (p *sndPCMHwParams) interval(param uint32) *sndInterval {
	return &p.intervals[param-sndrvPCMHwParamFirstInterval]
}

func (p *sndPCMHwParams) getInterval(param uint32) (minVal, maxVal uint32) {
	iv := p.interval(param)
	return iv.minVal, iv.maxVal
}

// setInteger pins an interval to exactly val.
func (p *sndPCMHwParams) setInteger(param, val uint32) {
	iv := p.interval(param)
	iv.minVal = val
	iv.maxVal = val
	iv.bit = intervalInteger
}

func (p *sndPCMHwParams) setMin(param, val uint32) {
	iv := p.interval(param)
	iv.minVal = val
	iv.bit &^= intervalOpenMin
}

func (p *sndPCMHwParams) setMax(param, val uint32) {
	iv := p.interval(param)
	iv.maxVal = val
	iv.bit &^= intervalOpenMax
}

// swParamsFor derives the software parameters used for playback: wake up
// once a period is free, start when the buffer holds whole periods and
// stop on underrun. The kernel fills in boundary.
func swParamsFor(bufferSize, periodSize int) sndPCMSwParams {
	start := bufferSize
	availMin := 1
	if periodSize > 0 {
		start = (bufferSize / periodSize) * periodSize
		availMin = periodSize
	}
	return sndPCMSwParams{
		periodStep:     1,
		availMin:       uframes(availMin),
		startThreshold: uframes(start),
		stopThreshold:  uframes(bufferSize),
	}
}
