package hotplug

import "testing"

func TestParseUEvent(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected *Event
	}{
		{name: "empty input", input: []byte{}},
		{name: "nil input"},
		{name: "no @ separator", input: []byte("invalid")},
		{name: "missing action", input: []byte("@/devices/foo")},
		{
			name:  "sound control add",
			input: []byte("add@/devices/pci0000:00/0000:00:1f.3/sound/card1/controlC1\x00ACTION=add\x00SUBSYSTEM=sound\x00DEVNAME=snd/controlC1\x00MAJOR=116\x00"),
			expected: &Event{
				Action:    "add",
				KObj:      "/devices/pci0000:00/0000:00:1f.3/sound/card1/controlC1",
				Subsystem: "sound",
				DevName:   "snd/controlC1",
				Env: map[string]string{
					"ACTION":    "add",
					"SUBSYSTEM": "sound",
					"DEVNAME":   "snd/controlC1",
					"MAJOR":     "116",
				},
			},
		},
		{
			name:  "usb remove",
			input: []byte("remove@/devices/usb/1-1\x00SUBSYSTEM=usb\x00DEVTYPE=usb_device\x00DEVPATH=/devices/usb/1-1\x00"),
			expected: &Event{
				Action:    "remove",
				KObj:      "/devices/usb/1-1",
				Subsystem: "usb",
				DevType:   "usb_device",
				DevPath:   "/devices/usb/1-1",
				Env: map[string]string{
					"SUBSYSTEM": "usb",
					"DEVTYPE":   "usb_device",
					"DEVPATH":   "/devices/usb/1-1",
				},
			},
		},
		{
			name:  "empty values and trailing nulls",
			input: []byte("change@/devices/sound/card0\x00SUBSYSTEM=sound\x00KEY=\x00=skipped\x00\x00\x00"),
			expected: &Event{
				Action:    "change",
				KObj:      "/devices/sound/card0",
				Subsystem: "sound",
				Env:       map[string]string{"SUBSYSTEM": "sound", "KEY": ""},
			},
		},
		{
			name:  "udev relay",
			input: []byte("libudev\x00\xfe\xed\xca\xfe\x00add@/devices/sound/card2\x00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseUEvent(tt.input)
			if tt.expected == nil {
				if result != nil {
					t.Errorf("expected nil, got %+v", result)
				}
				return
			}
			if result == nil {
				t.Fatal("expected event, got nil")
			}

			if result.Action != tt.expected.Action || result.KObj != tt.expected.KObj {
				t.Errorf("header: got %s@%s, want %s@%s", result.Action, result.KObj, tt.expected.Action, tt.expected.KObj)
			}
			if result.Subsystem != tt.expected.Subsystem || result.DevType != tt.expected.DevType ||
				result.DevName != tt.expected.DevName || result.DevPath != tt.expected.DevPath {
				t.Errorf("fields: got %+v, want %+v", result, tt.expected)
			}
			if len(result.Env) != len(tt.expected.Env) {
				t.Errorf("Env length: expected %d, got %d", len(tt.expected.Env), len(result.Env))
			}
			for k, v := range tt.expected.Env {
				if result.Env[k] != v {
					t.Errorf("Env[%q]: expected %q, got %q", k, v, result.Env[k])
				}
			}
		})
	}
}

func TestSoundCard(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		card int
		ok   bool
	}{
		{name: "control", ev: Event{Subsystem: "sound", DevName: "snd/controlC3"}, card: 3, ok: true},
		{name: "pcm node", ev: Event{Subsystem: "sound", DevName: "snd/pcmC3D0p"}},
		{name: "card kobject", ev: Event{Subsystem: "sound", KObj: "/devices/sound/card3"}},
		{name: "other subsystem", ev: Event{Subsystem: "usb", DevName: "snd/controlC3"}},
		{name: "garbage index", ev: Event{Subsystem: "sound", DevName: "snd/controlCx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, ok := tt.ev.SoundCard()
			if ok != tt.ok || card != tt.card {
				t.Errorf("SoundCard() = %d, %v; want %d, %v", card, ok, tt.card, tt.ok)
			}
		})
	}
}
