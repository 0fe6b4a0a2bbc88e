package alsa

import "strconv"

// Device represents an ALSA PCM device on a sound card.
type Device struct {
	CardNumber       int
	CardID           string
	CardName         string
	DeviceNumber     int
	DeviceName       string
	Type             string // "playback" or "capture"
	ALSADevice       string // ALSA device string (e.g., "hw:0,0")
	SupportedRates   []int
	MinChannels      int
	MaxChannels      int
	SupportedFormats []string
	MinBufferSize    int
	MaxBufferSize    int
	MinPeriodSize    int
	MaxPeriodSize    int
}

// FormatALSADevice creates an ALSA device string from card and device numbers.
func FormatALSADevice(cardNum, deviceNum int) string {
	return "hw:" + strconv.Itoa(cardNum) + "," + strconv.Itoa(deviceNum)
}

// Stream types
const (
	StreamPlayback = 0
	StreamCapture  = 1
)

// StreamName returns the label used for a stream direction.
func StreamName(stream int) string {
	if stream == StreamCapture {
		return "capture"
	}
	return "playback"
}

// PCM format constants
const (
	FormatS8        = 0
	FormatU8        = 1
	FormatS16LE     = 2
	FormatS16BE     = 3
	FormatU16LE     = 4
	FormatU16BE     = 5
	FormatS24LE     = 6
	FormatS24BE     = 7
	FormatU24LE     = 8
	FormatU24BE     = 9
	FormatS32LE     = 10
	FormatS32BE     = 11
	FormatU32LE     = 12
	FormatU32BE     = 13
	FormatFloatLE   = 14
	FormatFloatBE   = 15
	FormatFloat64LE = 16
	FormatFloat64BE = 17
	FormatMuLaw     = 20
	FormatALaw      = 21
)

var formatNames = map[int]string{
	FormatS8:        "S8",
	FormatU8:        "U8",
	FormatS16LE:     "S16_LE",
	FormatS16BE:     "S16_BE",
	FormatU16LE:     "U16_LE",
	FormatU16BE:     "U16_BE",
	FormatS24LE:     "S24_LE",
	FormatS24BE:     "S24_BE",
	FormatU24LE:     "U24_LE",
	FormatU24BE:     "U24_BE",
	FormatS32LE:     "S32_LE",
	FormatS32BE:     "S32_BE",
	FormatU32LE:     "U32_LE",
	FormatU32BE:     "U32_BE",
	FormatFloatLE:   "FLOAT_LE",
	FormatFloatBE:   "FLOAT_BE",
	FormatFloat64LE: "FLOAT64_LE",
	FormatFloat64BE: "FLOAT64_BE",
	FormatMuLaw:     "MU_LAW",
	FormatALaw:      "A_LAW",
}

// FormatName returns a human-readable name for a PCM format.
func FormatName(format int) string {
	if name, ok := formatNames[format]; ok {
		return name
	}
	return "UNKNOWN"
}

// Common sample rates to test
var CommonSampleRates = []int{
	8000, 11025, 16000, 22050, 32000, 44100, 48000, 88200, 96000, 176400, 192000,
}

// Common formats to test
var CommonFormats = []int{
	FormatU8, FormatS16LE, FormatS16BE, FormatS24LE, FormatS24BE,
	FormatS32LE, FormatS32BE, FormatFloatLE, FormatFloatBE,
	FormatFloat64LE, FormatFloat64BE,
}

// playbackFormats lists the sample formats a PCM accepts for float input,
// in order of preference. Non-float formats are converted on write.
var playbackFormats = []int{FormatFloatLE, FormatS32LE, FormatS16LE}
