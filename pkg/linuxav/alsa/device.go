//go:build linux

package alsa

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ListDevices returns all ALSA PCM devices supporting the given stream
// direction (StreamPlayback or StreamCapture).
func ListDevices(stream int) ([]Device, error) {
	var devices []Device

	cards, err := controlCards(sndDir)
	if err != nil {
		return nil, err
	}

	for _, cardNum := range cards {
		ctlFd, err := unix.Open(controlPath(cardNum), unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			continue
		}

		cardInfo := sndCtlCardInfo{}
		if err := ioctl(ctlFd, sndrvCtlIoctlCardInfo, unsafe.Pointer(&cardInfo)); err != nil {
			unix.Close(ctlFd)
			continue
		}

		deviceNum := int32(-1)
		for {
			if err := ioctl(ctlFd, sndrvCtlIoctlPCMNextDevice, unsafe.Pointer(&deviceNum)); err != nil {
				break
			}
			if deviceNum < 0 {
				break
			}

			pcmInfo := sndPCMInfo{
				device: uint32(deviceNum),
				stream: int32(stream),
			}
			if err := ioctl(ctlFd, sndrvCtlIoctlPCMInfo, unsafe.Pointer(&pcmInfo)); err != nil {
				continue // no substream in this direction
			}

			device := Device{
				CardNumber:   cardNum,
				CardID:       cstr(cardInfo.id[:]),
				CardName:     cstr(cardInfo.longname[:]),
				DeviceNumber: int(deviceNum),
				DeviceName:   cstr(pcmInfo.name[:]),
				Type:         StreamName(stream),
				ALSADevice:   FormatALSADevice(cardNum, int(deviceNum)),
			}

			if caps, err := queryCapabilities(pcmPath(cardNum, int(deviceNum), stream)); err == nil {
				device.SupportedRates = caps.rates
				device.MinChannels = caps.minChannels
				device.MaxChannels = caps.maxChannels
				device.SupportedFormats = caps.formats
				device.MinBufferSize = caps.minBufferSize
				device.MaxBufferSize = caps.maxBufferSize
				device.MinPeriodSize = caps.minPeriodSize
				device.MaxPeriodSize = caps.maxPeriodSize
			}

			devices = append(devices, device)
		}

		unix.Close(ctlFd)
	}

	return devices, nil
}

func pcmPath(card, device, stream int) string {
	if stream == StreamCapture {
		return fmt.Sprintf("/dev/snd/pcmC%dD%dc", card, device)
	}
	return PlaybackPath(card, device)
}

type capabilities struct {
	rates         []int
	minChannels   int
	maxChannels   int
	formats       []string
	minBufferSize int
	maxBufferSize int
	minPeriodSize int
	maxPeriodSize int
}

// queryCapabilities refines a full configuration space on the node. A
// device busy with another client reports EBUSY and is skipped.
func queryCapabilities(path string) (*capabilities, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	hw := sndPCMHwParams{}
	hw.init()
	hw.setMask(sndrvPCMHwParamAccess, sndrvPCMAccessRwInterleaved)

	if err := ioctl(fd, sndrvPCMIoctlHwRefine, unsafe.Pointer(&hw)); err != nil {
		return nil, err
	}

	caps := &capabilities{}

	minCh, maxCh := hw.getInterval(sndrvPCMHwParamChannels)
	caps.minChannels = int(minCh)
	caps.maxChannels = int(maxCh)

	minRate, maxRate := hw.getInterval(sndrvPCMHwParamRate)
	for _, rate := range CommonSampleRates {
		if uint32(rate) >= minRate && uint32(rate) <= maxRate {
			caps.rates = append(caps.rates, rate)
		}
	}

	for _, format := range CommonFormats {
		if hw.checkMask(sndrvPCMHwParamFormat, uint32(format)) {
			caps.formats = append(caps.formats, FormatName(format))
		}
	}

	minBuf, maxBuf := hw.getInterval(sndrvPCMHwParamBufferSize)
	caps.minBufferSize = int(minBuf)
	caps.maxBufferSize = int(maxBuf)

	minPer, maxPer := hw.getInterval(sndrvPCMHwParamPeriodSize)
	caps.minPeriodSize = int(minPer)
	caps.maxPeriodSize = int(maxPer)

	return caps, nil
}
