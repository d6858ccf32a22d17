// internal/audio/capture.go
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/ColonelBlimp/dtmfdecoder/internal/pcm"
)

var (
	ErrNotInitialized = errors.New("audio capture not initialized")
	ErrAlreadyRunning = errors.New("audio capture already running")
	ErrNotRunning     = errors.New("audio capture not running")
	ErrNoSamples      = errors.New("no samples captured")
)

// Config holds audio capture configuration. Capture is always 16-bit mono.
type Config struct {
	DeviceIndex int    // -1 for default device
	SampleRate  uint32 // e.g., 22050
	BufferSize  uint32 // frames per callback
}

// DefaultConfig returns defaults suited to DTMF: the highest tone is 1633 Hz,
// far below Nyquist at 22050 Hz.
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  22050,
		BufferSize:  512,
	}
}

// SampleCallback is called directly from the audio thread with new samples.
// Must be non-blocking and fast.
type SampleCallback func(samples []int16)

// Device describes one capture device.
type Device struct {
	Index     int
	Name      string
	IsDefault bool
}

// Capture records 16-bit mono PCM from a capture device.
type Capture struct {
	config Config
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	mu     sync.Mutex

	running     atomic.Bool
	closed      atomic.Bool
	closeOnce   sync.Once
	callbackPtr atomic.Pointer[SampleCallback]

	// Samples receives one slice per device callback. Slices are owned by
	// the receiver.
	Samples chan []int16
}

// New creates a new audio capture instance
func New(cfg Config) *Capture {
	return &Capture{
		config:  cfg,
		Samples: make(chan []int16, 64),
	}
}

// SetCallback sets or clears (nil) a callback invoked from the audio thread.
func (c *Capture) SetCallback(cb SampleCallback) {
	if cb == nil {
		c.callbackPtr.Store(nil)
		return
	}
	c.callbackPtr.Store(&cb)
}

// Init initializes the audio backend
func (c *Capture) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	c.ctx = ctx
	return nil
}

// ListDevices returns available capture devices
func (c *Capture) ListDevices() ([]Device, error) {
	infos, err := c.deviceInfos()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, len(infos))
	for i := range infos {
		devices[i] = Device{
			Index:     i,
			Name:      infos[i].Name(),
			IsDefault: infos[i].IsDefault != 0,
		}
	}
	return devices, nil
}

func (c *Capture) deviceInfos() ([]malgo.DeviceInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx == nil {
		return nil, ErrNotInitialized
	}
	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// Start begins audio capture. Capture stops when ctx is done.
func (c *Capture) Start(ctx context.Context) error {
	if c.running.Load() {
		return ErrAlreadyRunning
	}
	c.mu.Lock()
	initialized := c.ctx != nil
	c.mu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DeviceConfig{
		DeviceType:         malgo.Capture,
		SampleRate:         c.config.SampleRate,
		PeriodSizeInFrames: c.config.BufferSize,
		Capture: malgo.SubConfig{
			Format:   malgo.FormatS16,
			Channels: 1,
		},
	}

	if c.config.DeviceIndex >= 0 {
		infos, err := c.deviceInfos()
		if err != nil {
			return err
		}
		if c.config.DeviceIndex >= len(infos) {
			return fmt.Errorf("device index %d out of range (have %d devices)",
				c.config.DeviceIndex, len(infos))
		}
		deviceConfig.Capture.DeviceID = infos[c.config.DeviceIndex].ID.Pointer()
	}

	onRecvFrames := func(_, inputSamples []byte, _ uint32) {
		if len(inputSamples) == 0 {
			return
		}
		samples := bytesToInt16(inputSamples)
		if cb := c.callbackPtr.Load(); cb != nil {
			(*cb)(samples)
		}
		c.safeSend(samples)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start device: %w", err)
	}
	c.device = device
	c.running.Store(true)

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()
	return nil
}

// safeSend delivers samples without blocking the audio thread. Samples are
// dropped when the consumer is too slow or the capture is closed.
func (c *Capture) safeSend(samples []int16) {
	if c.closed.Load() {
		return
	}
	defer func() {
		// Close may win the race between the check above and the send
		_ = recover()
	}()
	select {
	case c.Samples <- samples:
	default:
	}
}

// Stop stops audio capture
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running.Load() {
		return ErrNotRunning
	}
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	c.running.Store(false)
	return nil
}

// Close releases all audio resources and closes Samples. It is safe to call
// more than once.
func (c *Capture) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.running.Load() && c.device != nil {
			_ = c.device.Stop()
			c.device.Uninit()
			c.device = nil
		}
		c.running.Store(false)

		if c.ctx != nil {
			if e := c.ctx.Uninit(); e != nil {
				err = fmt.Errorf("uninit context: %w", e)
			}
			c.ctx.Free()
			c.ctx = nil
		}
		close(c.Samples)
	})
	return err
}

// IsRunning returns true if capture is active
func (c *Capture) IsRunning() bool {
	return c.running.Load()
}

// SampleRate returns the configured capture rate.
func (c *Capture) SampleRate() uint32 { return c.config.SampleRate }

// Record starts the device, collects frames samples and stops it again.
func (c *Capture) Record(ctx context.Context, frames int) (pcm.Buffer, error) {
	recCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.Start(recCtx); err != nil {
		return pcm.Buffer{}, err
	}
	return Collect(recCtx, c.Samples, frames, float64(c.config.SampleRate))
}

// Collect reads from samples until frames samples have arrived, the channel
// closes or ctx is done. An interrupted collection returns what it has along
// with ctx.Err(); nothing at all yields ErrNoSamples.
func Collect(ctx context.Context, samples <-chan []int16, frames int, sampleRate float64) (pcm.Buffer, error) {
	out := make([]int16, 0, frames)
	var interrupted error

loop:
	for len(out) < frames {
		select {
		case <-ctx.Done():
			interrupted = ctx.Err()
			break loop
		case s, ok := <-samples:
			if !ok {
				break loop
			}
			out = append(out, s[:min(len(s), frames-len(out))]...)
		}
	}

	if len(out) == 0 {
		if interrupted != nil {
			return pcm.Buffer{}, fmt.Errorf("%w: %w", ErrNoSamples, interrupted)
		}
		return pcm.Buffer{}, ErrNoSamples
	}
	buf, err := pcm.NewBuffer(out, sampleRate)
	if err != nil {
		return pcm.Buffer{}, err
	}
	return buf, interrupted
}

// bytesToInt16 decodes little-endian signed 16-bit samples. A trailing odd
// byte is ignored.
func bytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}
