//go:build linux && arm

package alsa

import "unsafe"

// Compile-time struct size assertions against the kernel ABI.
var (
	_ [376]byte = [unsafe.Sizeof(sndCtlCardInfo{})]byte{}
	_ [288]byte = [unsafe.Sizeof(sndPCMInfo{})]byte{}
	_ [604]byte = [unsafe.Sizeof(sndPCMHwParams{})]byte{}
	_ [104]byte = [unsafe.Sizeof(sndPCMSwParams{})]byte{}
	_ [12]byte  = [unsafe.Sizeof(sndXferi{})]byte{}
)

// snd_pcm_uframes_t and snd_pcm_sframes_t are 32 bits wide on arm.
type (
	uframes = uint32
	sframes = int32
)

// IOCTL request codes for 32-bit ARM. Control requests match 64-bit since
// those structs carry no long-sized fields.
const (
	sndrvCtlIoctlCardInfo      = 0x81785501
	sndrvCtlIoctlPCMNextDevice = 0x80045530
	sndrvCtlIoctlPCMInfo       = 0xc1205531

	sndrvPCMIoctlInfo         = 0x81204101
	sndrvPCMIoctlHwRefine     = 0xc25c4110
	sndrvPCMIoctlHwParams     = 0xc25c4111
	sndrvPCMIoctlHwFree       = 0x00004112
	sndrvPCMIoctlSwParams     = 0xc0684113
	sndrvPCMIoctlDelay        = 0x80044121
	sndrvPCMIoctlPrepare      = 0x00004140
	sndrvPCMIoctlDrop         = 0x00004143
	sndrvPCMIoctlResume       = 0x00004147
	sndrvPCMIoctlWriteiFrames = 0x400c4150
)

// sndPCMHwParams has size 604 bytes; fifoSize is 4 bytes here.
type sndPCMHwParams struct {
	flags     uint32
	masks     [sndrvPCMHwParamLastMask - sndrvPCMHwParamFirstMask + 1]sndMask
	mres      [5]sndMask
	intervals [sndrvPCMHwParamLastInterval - sndrvPCMHwParamFirstInterval + 1]sndInterval
	ires      [9]sndInterval
	rmask     uint32
	cmask     uint32
	info      uint32
	msbits    uint32
	rateNum   uint32
	rateDen   uint32
	fifoSize  uint32
	reserved  [64]byte
}

// sndPCMSwParams has size 104 bytes.
type sndPCMSwParams struct {
	tstampMode       int32
	periodStep       uint32
	sleepMin         uint32
	availMin         uint32
	xferAlign        uint32
	startThreshold   uint32
	stopThreshold    uint32
	silenceThreshold uint32
	silenceSize      uint32
	boundary         uint32
	proto            uint32
	tstampType       uint32
	reserved         [56]byte
}

type sndXferi struct {
	result int32
	buf    unsafe.Pointer
	frames uint32
}
