// Package sound is the entry point host bindings call: configure a device
// for an identifier, play sample blocks to it, stop it and ask whether the
// build has an audio backend at all.
//
// Only configuration failures surface as errors. Playing to an unknown
// identifier, a full device buffer and stream faults are absorbed and show
// up as diagnostics on the event bus, so an emulation loop never stalls on
// audio.
package sound
