// Package hardware tracks audio output devices by caller identifier.
//
// A Record holds the configuration of one output channel and, once the
// playback engine opened it, the live platform Handle. Records move through
// unconfigured, open and closed states; the handle is present only while
// open.
//
// The Registry maps identifiers to records. It is an explicit object owned
// by the application and guarded by a single mutex, so lookups with
// auto-create and removals can run from different goroutines:
//
//	reg := hardware.NewRegistry(&hardware.RegistryOptions{Opener: engine})
//	rec, err := reg.Open(id, cfg) // ErrDuplicateID if id is taken
//	...
//	rec = reg.Find(id, false)
//	reg.Remove(rec)
package hardware
