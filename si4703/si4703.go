// Package si4703 drives a Silicon Labs Si4703 FM tuner over I2C and hands
// its RDS groups to the decoder.
package si4703

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"

	"github.com/bartgrantham/gofm/rds"
)

var ErrInvalidReg = errors.New("invalid register")
var ErrInvalidFreq = errors.New("invalid frequency")
var ErrTimeout = errors.New("timeout")

// DefaultAddr is the Si4703's fixed I2C address.
const DefaultAddr = 0x10

const (
	// registers 0..1 are read-only
	DEVICEID = iota
	CHIPID
	// registers 2..7 are read-write
	POWERCFG
	CHANNEL
	SYSCONFIG1
	SYSCONFIG2
	SYSCONFIG3
	OSCILLATOR

	// no registers 8, 9 ; registers a..f are read-only
	_
	_
	STATUSRSSI
	READCHAN
	RDSA
	RDSB
	RDSC
	RDSD
)

const (
	powerDMute   uint16 = 0x4000 // POWERCFG, 1 == mute disabled
	powerEnable  uint16 = 0x0001
	powerDisable uint16 = 0x0040
	channelTune  uint16 = 1 << 15
	channelMask  uint16 = 0x01FF
	sysRDS       uint16 = 1 << 12 // SYSCONFIG1
	volExt       uint16 = 0x0100  // SYSCONFIG3, 1 == quieter range
	oscXOSCEN    uint16 = 0x8100
	statusRDSR   uint16 = 0x8000
	statusSTC    uint16 = 1 << 14
	statusStereo uint16 = 0x0100
	statusRSSI   uint16 = 0x00FF
)

// US/Europe band, 200kHz spacing
const (
	BandBottom = 87.5
	BandTop    = 107.9
	Spacing    = 0.2
)

// Signal is the tuner's view of the current channel.
type Signal struct {
	Frequency float64
	RSSI      int
	Stereo    bool
	RDSReady  bool
}

type Si4703 struct {
	sync.Mutex
	device  i2c.Dev
	reset   gpio.PinOut
	Rate    time.Duration
	Reg     [16]uint16
	rdsSeen bool
	logger  zerolog.Logger
}

type Option func(*Si4703)

// WithResetPin lets New pulse the chip's RST line before talking to it,
// which also selects 2-wire mode.
func WithResetPin(p gpio.PinOut) Option {
	return func(s *Si4703) {
		s.reset = p
	}
}

func WithPollRate(d time.Duration) Option {
	return func(s *Si4703) {
		if d > 0 {
			s.Rate = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Si4703) {
		s.logger = logger
	}
}

func (s *Si4703) String() string {
	return "Si4703"
}

/*
From AN230:
> When using the polling method, it is best not to poll continuously.
> The data will appear in intervals of ~88 ms and the RDSR indicator will be
> available for at least 40 ms, so a polling rate of 40 ms or less should be sufficient.
*/
func New(bus i2c.Bus, addr uint16, opts ...Option) (*Si4703, error) {
	s := &Si4703{
		device: i2c.Dev{Bus: bus, Addr: addr},
		Rate:   40 * time.Millisecond,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.reset != nil {
		// reset low, then high with SDIO low selects the 2-wire interface
		if err := s.reset.Out(gpio.Low); err != nil {
			return nil, err
		}
		time.Sleep(100 * time.Millisecond)
		if err := s.reset.Out(gpio.High); err != nil {
			return nil, err
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := s.Read(); err != nil {
		return nil, err
	}
	s.logger.Debug().Uint16("deviceid", s.Reg[DEVICEID]).Uint16("chipid", s.Reg[CHIPID]).Msg("si4703 found")
	return s, nil
}

// PowerUp starts the oscillator, enables the receiver with RDS and sets
// the volume (0..31).
func (s *Si4703) PowerUp(volume int) error {
	if err := s.SetOsc(true); err != nil {
		return err
	}
	// crystal powerup
	time.Sleep(500 * time.Millisecond)

	if err := s.Set(POWERCFG, powerDMute|powerEnable); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)

	if err := s.Set(SYSCONFIG1, s.reg(SYSCONFIG1)|sysRDS); err != nil {
		return err
	}
	return s.Volume(volume)
}

func (s *Si4703) Read() error {
	buf := make([]byte, 32)
	s.Lock()
	defer s.Unlock()
	return s.read(buf)
}

func (s *Si4703) read(buf []byte) error {
	if err := s.device.Tx(nil, buf); err != nil {
		return err
	}
	for i := 0; i < 16; i++ {
		// reads start at register 0x0a and wrap around:
		// (i+10) % 16 == 10, 11, 12, 13, 14, 15, 0, 1....
		s.Reg[(i+10)%16] = uint16(buf[i*2])<<8 | uint16(buf[i*2+1])
	}
	return nil
}

// Set writes val to one of the read-write registers 2..7.
func (s *Si4703) Set(reg int, val uint16) error {
	var n int
	var err error

	if reg < POWERCFG || reg > OSCILLATOR {
		return ErrInvalidReg
	}

	s.Lock()
	defer s.Unlock()

	if err = s.read(make([]byte, 32)); err != nil {
		return err
	}

	// writes always start at register 2, big-endian: high byte comes first
	buf := make([]byte, 12)
	for i := POWERCFG; i <= OSCILLATOR; i++ {
		v := s.Reg[i]
		if i == reg {
			v = val
		}
		buf[(i-POWERCFG)*2] = byte(v >> 8)
		buf[(i-POWERCFG)*2+1] = byte(v)
	}

	if n, err = s.device.Write(buf); err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	// update our cached state
	return s.read(make([]byte, 32))
}

/*
Changing the channel, AFAICT:

1. mask off the old channel bits
2. set channel | (1<<15)  (TUNE bit)
3. send register update
4. wait for s.Reg[STATUSRSSI] & (1<<14) != 0  // 14 == STC
5. clear TUNE bit

*/
func (s *Si4703) Tune(ctx context.Context, mhz float64) error {
	var err error
	var tmp, newc uint16

	if mhz < BandBottom || mhz > BandTop+0.01 {
		return ErrInvalidFreq
	}

	// 0 == 87.5 ... 5 == 88.5 ... 101 == 107.7 ... 102 == 107.9
	newc = uint16((mhz-BandBottom)/Spacing + 0.5)

	tmp = s.reg(CHANNEL)
	tmp &^= channelMask
	tmp |= newc | channelTune
	if err = s.Set(CHANNEL, tmp); err != nil {
		return err
	}

	deadline := time.NewTimer(5 * time.Second)
	defer deadline.Stop()
	tick := time.NewTicker(s.Rate)
	defer tick.Stop()
	for s.reg(STATUSRSSI)&statusSTC == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			s.logger.Warn().Float64("mhz", mhz).Msg("can't tune: timed out")
			return ErrTimeout
		case <-tick.C:
			if err = s.Read(); err != nil {
				return err
			}
		}
	}

	s.Lock()
	s.rdsSeen = false
	s.Unlock()
	if err = s.Set(CHANNEL, s.reg(CHANNEL)&^channelTune); err != nil {
		return err
	}
	s.logger.Debug().Float64("mhz", mhz).Msg("tuned")
	return nil
}

/*
ReadGroup polls until the chip raises RDSR and returns the group in
RDSA..RDSD. RDSR stays up for 40ms or more, so a group is only taken on the
rising edge to avoid handing the same one out twice.
*/
func (s *Si4703) ReadGroup(ctx context.Context) (rds.Block, error) {
	tick := time.NewTicker(s.Rate)
	defer tick.Stop()
	for {
		if err := s.Read(); err != nil {
			return rds.Block{}, err
		}

		s.Lock()
		ready := s.Reg[STATUSRSSI]&statusRDSR == statusRDSR
		fresh := ready && !s.rdsSeen
		s.rdsSeen = ready
		b := rds.Block{s.Reg[RDSA], s.Reg[RDSB], s.Reg[RDSC], s.Reg[RDSD]}
		s.Unlock()

		if fresh {
			return b, nil
		}

		select {
		case <-ctx.Done():
			return rds.Block{}, ctx.Err()
		case <-tick.C:
		}
	}
}

// Signal reports RSSI, stereo and the channel from the last register read.
func (s *Si4703) Signal() Signal {
	s.Lock()
	defer s.Unlock()
	return Signal{
		Frequency: BandBottom + Spacing*float64(s.Reg[READCHAN]&channelMask),
		RSSI:      int(s.Reg[STATUSRSSI] & statusRSSI),
		Stereo:    s.Reg[STATUSRSSI]&statusStereo == statusStereo,
		RDSReady:  s.Reg[STATUSRSSI]&statusRDSR == statusRDSR,
	}
}

func (s *Si4703) SetOsc(on bool) error {
	if on {
		return s.Set(OSCILLATOR, oscXOSCEN)
	}
	return s.Set(OSCILLATOR, 0x0000)
}

// Volume sets 0..31; the upper half is the chip's normal range, the lower
// half its extended (quieter) range.
func (s *Si4703) Volume(v int) error {
	var err error

	if v < 0 {
		v = 0
	} else if v > 31 {
		v = 31
	}
	// the volext bit _reduces_ the maximum volume
	ext := s.reg(SYSCONFIG3)&volExt == volExt
	newext := v&0x10 != 0x10
	newvol := uint16(v & 0x0F)

	switch {
	case ext && !newext:
		// quiet -> loud: set volume, then clear volext
		if err = s.Set(SYSCONFIG2, (s.reg(SYSCONFIG2)&0xFFF0)|newvol); err != nil {
			return err
		}
		return s.Set(SYSCONFIG3, s.reg(SYSCONFIG3)&^volExt)
	case !ext && newext:
		// loud -> quiet: set volext, then set volume
		if err = s.Set(SYSCONFIG3, s.reg(SYSCONFIG3)|volExt); err != nil {
			return err
		}
		return s.Set(SYSCONFIG2, (s.reg(SYSCONFIG2)&0xFFF0)|newvol)
	}
	return s.Set(SYSCONFIG2, (s.reg(SYSCONFIG2)&0xFFF0)|newvol)
}

func (s *Si4703) reg(r int) uint16 {
	s.Lock()
	defer s.Unlock()
	return s.Reg[r]
}

// Close powers the receiver down.
func (s *Si4703) Close() error {
	return s.Set(POWERCFG, s.reg(POWERCFG)|powerDisable|powerEnable)
}
