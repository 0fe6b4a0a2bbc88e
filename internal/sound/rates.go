package sound

import "slices"

// apuClockHz is the NES CPU clock the APU samples are derived from.
const apuClockHz = 1790000

// StandardSampleRates lists the output rates the emulator offers.
var StandardSampleRates = []int{11025, 22050, 44100, 48000, 96000}

// IsStandardRate reports whether rate is one of StandardSampleRates.
func IsStandardRate(rate int) bool {
	return slices.Contains(StandardSampleRates, rate)
}

// APUDivider returns how many APU clock ticks make up one output sample.
func APUDivider(rate int) int {
	if rate <= 0 {
		return 0
	}
	return apuClockHz / rate
}
