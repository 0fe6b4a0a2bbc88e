// Package playback opens output devices and writes sample blocks to them.
//
// The Engine is the only code that touches platform handles. It opens a
// stream through a Backend, wraps it in a hardware.Record, writes blocks
// with backpressure and recovery handling and closes the stream on stop.
//
// The write path never fails the caller: a block the device cannot take is
// dropped and the anomaly is reported as a diagnostic, which is logged,
// counted in metrics and published on the event bus.
//
// Backends:
//
//	alsa - kernel PCM devices through pkg/linuxav/alsa (Linux only)
//	null - discards samples; for hosts without audio hardware and tests
package playback
