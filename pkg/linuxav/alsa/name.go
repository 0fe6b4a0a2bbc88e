//go:build linux

package alsa

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrInvalidDeviceName is returned for device strings that cannot be
// mapped onto a kernel PCM device.
var ErrInvalidDeviceName = errors.New("alsa: invalid device name")

// ErrCardNotFound is returned when a card ID does not match any card.
var ErrCardNotFound = errors.New("alsa: card not found")

// DeviceName is a parsed ALSA device string. Card is either a card index
// or a card ID such as "PCH".
type DeviceName struct {
	Card   string
	Device int
}

// ParseDeviceName maps an ALSA device string onto a card and device.
//
// Accepted forms: "default", "sysdefault", "default:C", "hw:C", "hw:C,D",
// "plughw:C,D" and "hw:CARD=C,DEV=D". "default" resolves to card 0,
// device 0.
func ParseDeviceName(name string) (DeviceName, error) {
	name = strings.TrimSpace(name)
	switch name {
	case "", "default", "sysdefault":
		return DeviceName{Card: "0"}, nil
	}

	prefix, rest, ok := strings.Cut(name, ":")
	if !ok || rest == "" {
		return DeviceName{}, fmt.Errorf("%w: %q", ErrInvalidDeviceName, name)
	}

	switch prefix {
	case "hw", "plughw", "default", "sysdefault", "front":
	default:
		return DeviceName{}, fmt.Errorf("%w: unsupported type %q", ErrInvalidDeviceName, prefix)
	}

	parsed := DeviceName{}
	for i, part := range strings.Split(rest, ",") {
		key, value, hasKey := strings.Cut(part, "=")
		if !hasKey {
			value = key
			switch i {
			case 0:
				key = "CARD"
			case 1:
				key = "DEV"
			default:
				key = ""
			}
		}
		value = strings.Trim(value, `"`)
		switch strings.ToUpper(key) {
		case "CARD":
			parsed.Card = value
		case "DEV":
			dev, err := strconv.Atoi(value)
			if err != nil || dev < 0 {
				return DeviceName{}, fmt.Errorf("%w: bad device %q", ErrInvalidDeviceName, value)
			}
			parsed.Device = dev
		default:
			return DeviceName{}, fmt.Errorf("%w: %q", ErrInvalidDeviceName, name)
		}
	}
	if parsed.Card == "" {
		return DeviceName{}, fmt.Errorf("%w: missing card in %q", ErrInvalidDeviceName, name)
	}
	return parsed, nil
}

// sndDir holds the ALSA device nodes.
var sndDir = "/dev/snd"

func controlPath(card int) string {
	return filepath.Join(sndDir, "controlC"+strconv.Itoa(card))
}

// controlCards lists the card indexes that have a control node in dir, in
// ascending order. Card numbers may have gaps after a card was removed. A
// missing dir means no cards.
func controlCards(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var cards []int
	for _, e := range entries {
		num, ok := strings.CutPrefix(e.Name(), "controlC")
		if !ok {
			continue
		}
		card, err := strconv.Atoi(num)
		if err != nil || card < 0 {
			continue
		}
		cards = append(cards, card)
	}
	slices.Sort(cards)
	return cards, nil
}

// PlaybackPath returns the PCM node for a card and device.
func PlaybackPath(card, device int) string {
	return filepath.Join(sndDir, fmt.Sprintf("pcmC%dD%dp", card, device))
}

// ResolveCard returns the card index for a numeric card or a card ID.
func ResolveCard(card string) (int, error) {
	if n, err := strconv.Atoi(card); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDeviceName, card)
		}
		return n, nil
	}

	cards, err := controlCards(sndDir)
	if err != nil {
		return 0, err
	}
	for _, cardNum := range cards {
		ctlFd, err := unix.Open(controlPath(cardNum), unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			continue
		}
		info := sndCtlCardInfo{}
		err = ioctl(ctlFd, sndrvCtlIoctlCardInfo, unsafe.Pointer(&info))
		unix.Close(ctlFd)
		if err == nil && cstr(info.id[:]) == card {
			return cardNum, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrCardNotFound, card)
}
