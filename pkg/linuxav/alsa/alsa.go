// Package alsa provides pure Go bindings to the ALSA (Advanced Linux Sound Architecture)
// kernel interface for device enumeration and interleaved PCM playback.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm). It talks to the
// /dev/snd character devices directly, so alsa-lib plugins such as dmix
// or the PulseAudio bridge are not available. Device names are mapped
// onto hardware devices (see ParseDeviceName).
//
// # Device Enumeration
//
// Use ListDevices to discover playback or capture devices:
//
//	devices, err := alsa.ListDevices(alsa.StreamPlayback)
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s (%s)\n", dev.ALSADevice, dev.DeviceName, dev.CardName)
//	    fmt.Printf("  Rates: %v\n", dev.SupportedRates)
//	}
//
// # Playback
//
//	pcm, err := alsa.OpenPlayback("default", true)
//	if err != nil {
//	    return err
//	}
//	defer pcm.Close()
//	if err := pcm.SetParams(alsa.Params{Channels: 1, Rate: 48000, LatencyUs: 500000}); err != nil {
//	    return err
//	}
//	frames, err := pcm.WriteFloat32(samples)
package alsa
