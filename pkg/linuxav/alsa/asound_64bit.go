//go:build linux && (amd64 || arm64)

package alsa

import "unsafe"

// Compile-time struct size assertions against the kernel ABI.
var (
	_ [376]byte = [unsafe.Sizeof(sndCtlCardInfo{})]byte{}
	_ [288]byte = [unsafe.Sizeof(sndPCMInfo{})]byte{}
	_ [32]byte  = [unsafe.Sizeof(sndMask{})]byte{}
	_ [12]byte  = [unsafe.Sizeof(sndInterval{})]byte{}
	_ [608]byte = [unsafe.Sizeof(sndPCMHwParams{})]byte{}
	_ [136]byte = [unsafe.Sizeof(sndPCMSwParams{})]byte{}
	_ [24]byte  = [unsafe.Sizeof(sndXferi{})]byte{}
)

// snd_pcm_uframes_t and snd_pcm_sframes_t are long-sized.
type (
	uframes = uint64
	sframes = int64
)

// IOCTL request codes for 64-bit architectures.
const (
	sndrvCtlIoctlCardInfo      = 0x81785501
	sndrvCtlIoctlPCMNextDevice = 0x80045530
	sndrvCtlIoctlPCMInfo       = 0xc1205531

	sndrvPCMIoctlInfo         = 0x81204101
	sndrvPCMIoctlHwRefine     = 0xc2604110
	sndrvPCMIoctlHwParams     = 0xc2604111
	sndrvPCMIoctlHwFree       = 0x00004112
	sndrvPCMIoctlSwParams     = 0xc0884113
	sndrvPCMIoctlDelay        = 0x80084121
	sndrvPCMIoctlPrepare      = 0x00004140
	sndrvPCMIoctlDrop         = 0x00004143
	sndrvPCMIoctlResume       = 0x00004147
	sndrvPCMIoctlWriteiFrames = 0x40184150
)

// sndPCMHwParams has size 608 bytes.
type sndPCMHwParams struct {
	flags     uint32                                                                      // offset 0
	masks     [sndrvPCMHwParamLastMask - sndrvPCMHwParamFirstMask + 1]sndMask             // offset 4, size 96
	mres      [5]sndMask                                                                  // offset 100, size 160
	intervals [sndrvPCMHwParamLastInterval - sndrvPCMHwParamFirstInterval + 1]sndInterval // offset 260, size 144
	ires      [9]sndInterval                                                              // offset 404, size 108
	rmask     uint32                                                                      // offset 512
	cmask     uint32                                                                      // offset 516
	info      uint32                                                                      // offset 520
	msbits    uint32                                                                      // offset 524
	rateNum   uint32                                                                      // offset 528
	rateDen   uint32                                                                      // offset 532
	fifoSize  uint64                                                                      // offset 536
	reserved  [64]byte                                                                    // offset 544
}

// sndPCMSwParams has size 136 bytes.
type sndPCMSwParams struct {
	tstampMode       int32    // offset 0
	periodStep       uint32   // offset 4
	sleepMin         uint32   // offset 8
	_                [4]byte  // padding
	availMin         uint64   // offset 16
	xferAlign        uint64   // offset 24
	startThreshold   uint64   // offset 32
	stopThreshold    uint64   // offset 40
	silenceThreshold uint64   // offset 48
	silenceSize      uint64   // offset 56
	boundary         uint64   // offset 64
	proto            uint32   // offset 72
	tstampType       uint32   // offset 76
	reserved         [56]byte // offset 80
}

// sndXferi has size 24 bytes.
type sndXferi struct {
	result int64          // offset 0
	buf    unsafe.Pointer // offset 8
	frames uint64         // offset 16
}
