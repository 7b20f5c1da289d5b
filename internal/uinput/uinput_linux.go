//go:build linux

package uinput

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const devicePath = "/dev/uinput"

// device is one created uinput device.
type device struct {
	f *os.File
}

func ioctl(fd uintptr, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

type setupStep struct {
	req, arg uintptr
}

func createDevice(spec deviceSpec) (*device, error) {
	f, err := os.OpenFile(devicePath, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", devicePath, err)
	}
	fd := f.Fd()
	steps := []setupStep{{uiSetEvBit, evKey}, {uiSetEvBit, evSyn}}
	if len(spec.Axes) > 0 {
		steps = append(steps, setupStep{uiSetEvBit, evAbs})
	}
	for _, k := range spec.Keys {
		steps = append(steps, setupStep{uiSetKeyBit, uintptr(k)})
	}
	for _, a := range spec.Axes {
		steps = append(steps, setupStep{uiSetAbsBit, uintptr(a.Code)})
	}
	if spec.Direct {
		steps = append(steps, setupStep{uiSetPropBit, inputPropDirect})
	}
	for _, s := range steps {
		if err := ioctl(fd, s.req, s.arg); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("uinput setup %s: %w", spec.Name, err)
		}
	}
	if _, err := f.Write(encodeUserDev(spec)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("uinput write %s: %w", spec.Name, err)
	}
	if err := ioctl(fd, uiDevCreate, 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("uinput create %s: %w", spec.Name, err)
	}
	return &device{f: f}, nil
}

func (d *device) write(events []inputEvent) error {
	if len(events) == 0 {
		return nil
	}
	_, err := d.f.Write(encodeEvents(events))
	return err
}

func (d *device) close() error {
	destroyErr := ioctl(d.f.Fd(), uiDevDestroy, 0)
	return errors.Join(destroyErr, d.f.Close())
}

// Sink injects events through two virtual devices: a direct multi-touch
// screen and an absolute pointer with a keyboard.
type Sink struct {
	mu      sync.Mutex
	framer  *framer
	touch   *device
	pointer *device
	log     zerolog.Logger
}

// NewSink creates the virtual devices for a width x height screen. origin is
// added to touch positions, which arrive window-local.
func NewSink(origin geom.Point, width, height int, log zerolog.Logger) (*Sink, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("uinput: invalid screen size %dx%d", width, height)
	}
	touch, err := createDevice(touchSpec(width, height))
	if err != nil {
		return nil, err
	}
	pointer, err := createDevice(pointerSpec(width, height))
	if err != nil {
		_ = touch.close()
		return nil, err
	}
	log.Info().Int("width", width).Int("height", height).Msg("uinput devices created")
	return &Sink{
		framer:  newFramer(origin, width, height),
		touch:   touch,
		pointer: pointer,
		log:     log,
	}, nil
}

// EmitTouch writes one multi-touch frame.
func (s *Sink) EmitTouch(ev event.TouchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame, dropped := s.framer.touch(ev)
	if dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Msg("touch contacts without a free slot")
	}
	return s.touch.write(frame)
}

// EmitMouse writes one pointer frame.
func (s *Sink) EmitMouse(ev event.MouseEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer.write(s.framer.mouse(ev))
}

// EmitKey writes the key frame for ev.
func (s *Sink) EmitKey(ev event.KeyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame, skipped := s.framer.key(ev)
	if skipped > 0 {
		s.log.Debug().Str("text", ev.Text).Int("skipped", skipped).Msg("characters without a key, dropped")
	}
	return s.pointer.write(frame)
}

// Close destroys both devices.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.touch.close(), s.pointer.close())
}
