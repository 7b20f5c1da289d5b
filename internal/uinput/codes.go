// Package uinput delivers synthesized events through a Linux /dev/uinput virtual device.
package uinput

import (
	"encoding/binary"
	"errors"
	"math/bits"
)

// ErrUnsupported indicates uinput is not available on this platform.
var ErrUnsupported = errors.New("uinput is only supported on Linux")

// Event types.
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03
)

const synReport = 0x00

// Absolute axes.
const (
	absX             = 0x00
	absY             = 0x01
	absMTSlot        = 0x2f
	absMTTouchMajor  = 0x30
	absMTPositionX   = 0x35
	absMTPositionY   = 0x36
	absMTTrackingID  = 0x39
	absMTPressure    = 0x3a
	absCnt           = 0x40
	inputPropDirect  = 0x01
	busVirtual       = 0x06
	vendorID         = 0x1209
	maxSlots         = 10
	maxTrackingID    = 0xffff
	maxPressure      = 255
	uinputMaxNameLen = 80
)

// Buttons.
const (
	btnLeft       = 0x110
	btnRight      = 0x111
	btnMiddle     = 0x112
	btnSide       = 0x113
	btnExtra      = 0x114
	btnToolFinger = 0x145
	btnTouch      = 0x14a
	keyLeftShift  = 42
	keyEnter      = 28
)

// ioctl request encoding (Linux _IOC macro).
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocNone  = 0
	iocWrite = 1
)

func ioc(dir uint32, typ uint32, nr uint32, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

// uinput requests.
var (
	uiDevCreate  = ioc(iocNone, 'U', 1, 0)
	uiDevDestroy = ioc(iocNone, 'U', 2, 0)
	uiSetEvBit   = ioc(iocWrite, 'U', 100, 4)
	uiSetKeyBit  = ioc(iocWrite, 'U', 101, 4)
	uiSetAbsBit  = ioc(iocWrite, 'U', 103, 4)
	uiSetPropBit = ioc(iocWrite, 'U', 110, 4)
)

const (
	timevalSize   = 2 * bits.UintSize / 8
	inputEventLen = timevalSize + 8
)

// inputEvent is one struct input_event without its timestamp; the kernel
// stamps events written to uinput.
type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

func syn() inputEvent {
	return inputEvent{Type: evSyn, Code: synReport}
}

// encodeEvents lays events out as consecutive native input_event structs with
// a zero timeval.
func encodeEvents(events []inputEvent) []byte {
	buf := make([]byte, len(events)*inputEventLen)
	for i, ev := range events {
		off := i*inputEventLen + timevalSize
		binary.LittleEndian.PutUint16(buf[off:], ev.Type)
		binary.LittleEndian.PutUint16(buf[off+2:], ev.Code)
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(ev.Value))
	}
	return buf
}

// axis is an absolute axis range.
type axis struct {
	Code     uint16
	Min, Max int32
}

// deviceSpec describes a virtual device before creation.
type deviceSpec struct {
	Name    string
	Product uint16
	Keys    []uint16
	Axes    []axis
	Direct  bool
}

// encodeUserDev builds the legacy struct uinput_user_dev written before UI_DEV_CREATE.
func encodeUserDev(spec deviceSpec) []byte {
	const idOff = uinputMaxNameLen
	const absOff = idOff + 8 + 4
	buf := make([]byte, absOff+4*4*absCnt)
	name := spec.Name
	if len(name) >= uinputMaxNameLen {
		name = name[:uinputMaxNameLen-1]
	}
	copy(buf, name)
	binary.LittleEndian.PutUint16(buf[idOff:], busVirtual)
	binary.LittleEndian.PutUint16(buf[idOff+2:], vendorID)
	binary.LittleEndian.PutUint16(buf[idOff+4:], spec.Product)
	binary.LittleEndian.PutUint16(buf[idOff+6:], 1)
	for _, a := range spec.Axes {
		if int(a.Code) >= absCnt {
			continue
		}
		binary.LittleEndian.PutUint32(buf[absOff+4*int(a.Code):], uint32(a.Max))
		binary.LittleEndian.PutUint32(buf[absOff+4*absCnt+4*int(a.Code):], uint32(a.Min))
	}
	return buf
}
