// Package hotplug reports kernel device events from the netlink uevent
// socket, with helpers for ALSA sound cards.
package hotplug

import (
	"bytes"
	"strconv"
	"strings"
)

// Actions reported by the kernel.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
	ActionBind   = "bind"
	ActionUnbind = "unbind"
)

// Subsystems of interest.
const (
	SubsystemSound = "sound"
	SubsystemUSB   = "usb"
)

// Event is one kernel uevent.
type Event struct {
	Action    string
	KObj      string // e.g. /devices/pci0000:00/.../sound/card1/controlC1
	Subsystem string
	DevType   string
	DevName   string // relative to /dev, e.g. snd/controlC1
	DevPath   string
	Env       map[string]string
}

const controlPrefix = "snd/controlC"

// SoundCard returns the card index of a sound card control device event.
// The control node appears once the card's PCM devices are registered, so
// its add event marks the card as usable.
func (e Event) SoundCard() (int, bool) {
	if e.Subsystem != SubsystemSound {
		return 0, false
	}
	name, ok := strings.CutPrefix(e.DevName, controlPrefix)
	if !ok {
		return 0, false
	}
	card, err := strconv.Atoi(name)
	if err != nil || card < 0 {
		return 0, false
	}
	return card, true
}

// ParseUEvent decodes "ACTION@KOBJ\0KEY=VALUE\0...". It returns nil for
// anything that is not a kernel uevent, including udev's own relays.
func ParseUEvent(data []byte) *Event {
	if bytes.HasPrefix(data, []byte("libudev")) {
		return nil
	}

	fields := bytes.Split(data, []byte{0})
	action, kobj, ok := strings.Cut(string(fields[0]), "@")
	if !ok || action == "" {
		return nil
	}

	ev := &Event{
		Action: action,
		KObj:   kobj,
		Env:    make(map[string]string, len(fields)-1),
	}
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(string(field), "=")
		if !ok || key == "" {
			continue
		}
		ev.Env[key] = value
		switch key {
		case "SUBSYSTEM":
			ev.Subsystem = value
		case "DEVTYPE":
			ev.DevType = value
		case "DEVNAME":
			ev.DevName = value
		case "DEVPATH":
			ev.DevPath = value
		}
	}
	return ev
}
