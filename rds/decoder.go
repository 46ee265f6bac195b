package rds

import (
	"github.com/rs/zerolog"
)

// Decoder Identification flags. DI address n lands in bit 3-n, so the
// stereo flag, sent at address 3, is bit 0.
const (
	DIStereo         uint8 = 1 << 0
	DIArtificialHead uint8 = 1 << 1
	DICompressed     uint8 = 1 << 2
	DIDynamicPTY     uint8 = 1 << 3
)

// Status is a sanitized snapshot of everything decoded so far.
type Status struct {
	ProgramIdentifier     uint16 `json:"pi"`
	TrafficProgram        bool   `json:"tp"`
	TrafficAnnouncement   bool   `json:"ta"`
	MusicSpeech           bool   `json:"ms"`
	ProgramType           uint8  `json:"pty"`
	DecoderIdentification uint8  `json:"di"`
	ProgramService        string `json:"ps"`
	ProgramTypeName       string `json:"ptyn"`
	RadioText             string `json:"rt"`
}

func (s Status) Stereo() bool         { return s.DecoderIdentification&DIStereo != 0 }
func (s Status) ArtificialHead() bool { return s.DecoderIdentification&DIArtificialHead != 0 }
func (s Status) Compressed() bool     { return s.DecoderIdentification&DICompressed != 0 }
func (s Status) DynamicPTY() bool     { return s.DecoderIdentification&DIDynamicPTY != 0 }

// CallSign decodes the PI with the North American method.
func (s Status) CallSign() string {
	return CallSign(s.ProgramIdentifier)
}

// Decoder accumulates RDS groups for one tuned station. It is not safe for
// concurrent use: one goroutine feeds it and reads snapshots between calls.
type Decoder struct {
	pi        uint16
	tp        bool
	ta        bool
	ms        bool
	pty       uint8
	di        uint8
	ps        textField
	ptyn      textField
	rt        textField
	haveTime  bool
	clock     ClockTime
	stats     [NumGroupTypes]uint64
	ptynWidth int
	logger    zerolog.Logger
}

type Option func(*Decoder)

// WithPTYNameWidth sizes the program type name buffer: 8 per the standard,
// 50 for the wide variant. Other values are ignored.
func WithPTYNameWidth(n int) Option {
	return func(d *Decoder) {
		if n == programTypeNameLen || n == wideProgramTypeName {
			d.ptynWidth = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Decoder) {
		d.logger = logger
	}
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		ptynWidth: programTypeNameLen,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.ps = newTextField(programServiceLen)
	d.ptyn = newTextField(d.ptynWidth)
	d.rt = newTextField(radioTextLen)
	return d
}

// Reset forgets everything about the current station; call it after tuning.
func (d *Decoder) Reset() {
	d.pi = 0
	d.tp = false
	d.ta = false
	d.ms = false
	d.pty = 0
	d.di = 0
	d.ps.clear()
	d.ptyn.clear()
	d.rt.clear()
	d.haveTime = false
	d.clock = ClockTime{}
	d.stats = [NumGroupTypes]uint64{}
}

/*
DecodeGroup folds one group into the decoder state.

The PI in block A and the PTY and TP fields in block B are taken from every
group. Everything else depends on the group type; types we don't implement
(ODA, paging, TMC, EON...) are counted and otherwise ignored.
*/
func (d *Decoder) DecodeGroup(b Block) {
	var gt GroupType

	d.pi = b.PI()
	d.tp = b.TrafficProgram()
	d.pty = b.ProgramType()

	gt = b.GroupType()
	d.stats[gt]++

	switch gt {
	case Group0A, Group0B, Group15B:
		// 0A also carries alternative frequencies in block C; not decoded
		d.decodeBasicTuning(b)
	case Group1A, Group1B:
		// program item number and slow labeling codes
	case Group2A, Group2B:
		d.decodeRadioText(gt, b)
	case Group3A:
		// application identification for ODA
	case Group3B, Group4B, Group6A, Group6B, Group7B, Group8B, Group9B,
		Group10B, Group11A, Group11B, Group12A, Group12B, Group13B:
		// open data application payload
	case Group4A:
		d.decodeClockTime(b)
	case Group5A, Group5B, Group7A, Group8A, Group9A, Group13A, Group14A, Group14B:
		// TDC, paging, TMC, EWS, enhanced paging, EON
	case Group10A:
		d.decodeProgramTypeName(b)
	case Group15A:
		// withdrawn, currently unallocated
	}
}

func (d *Decoder) decodeBasicTuning(b Block) {
	var addr int
	var chars [2]byte

	d.ta = b[1]&taFlag == taFlag
	d.ms = b[1]&msFlag == msFlag

	addr = int(b[1] & psAddrMask)
	if b[1]&diFlag == diFlag {
		d.di |= 1 << (3 - addr)
	} else {
		d.di &^= 1 << (3 - addr)
	}

	chars = wordChars(b[3])
	if err := d.ps.write(addr, 2, chars[:]); err != nil {
		d.logger.Debug().Err(err).Str("group", "0").Int("address", addr).Msg("program service fragment dropped")
	}
}

func (d *Decoder) decodeRadioText(gt GroupType, b Block) {
	var addr, width int
	var frag []byte
	var c, dd [2]byte

	addr = int(b[1] & textAddrMask)
	if gt == Group2A {
		width = 4
		c = wordChars(b[2])
		dd = wordChars(b[3])
		frag = []byte{c[0], c[1], dd[0], dd[1]}
	} else {
		width = 2
		dd = wordChars(b[3])
		frag = dd[:]
	}

	if err := d.rt.assemble(addr, width, b[1]&textABFlag == textABFlag, frag); err != nil {
		d.logger.Debug().Err(err).Stringer("group", gt).Int("address", addr).Msg("radio text fragment dropped")
	}
}

func (d *Decoder) decodeProgramTypeName(b Block) {
	var addr int
	var c, dd [2]byte

	addr = int(b[1] & ptynAddrMask)
	c = wordChars(b[2])
	dd = wordChars(b[3])
	frag := []byte{c[0], c[1], dd[0], dd[1]}

	if err := d.ptyn.assemble(addr, 4, b[1]&ptynABFlag == ptynABFlag, frag); err != nil {
		d.logger.Debug().Err(err).Str("group", "10A").Int("address", addr).Msg("program type name fragment dropped")
	}
}

func (d *Decoder) decodeClockTime(b Block) {
	ct, ok := DecodeTime(b[1], uint32(b[2])<<16|uint32(b[3]))
	if !ok {
		return
	}
	d.clock = ct
	d.haveTime = true
	d.logger.Debug().Stringer("ct", ct).Uint16("pi", d.pi).Msg("clock time")
}

// Status returns a printable snapshot; the internal buffers are untouched.
func (d *Decoder) Status() Status {
	return Status{
		ProgramIdentifier:     d.pi,
		TrafficProgram:        d.tp,
		TrafficAnnouncement:   d.ta,
		MusicSpeech:           d.ms,
		ProgramType:           d.pty,
		DecoderIdentification: d.di,
		ProgramService:        d.ps.String(),
		ProgramTypeName:       d.ptyn.String(),
		RadioText:             d.rt.String(),
	}
}

// Time returns the last clock time received, if any.
func (d *Decoder) Time() (ClockTime, bool) {
	return d.clock, d.haveTime
}

// GroupStats counts the groups received per type since the last Reset.
func (d *Decoder) GroupStats() [NumGroupTypes]uint64 {
	return d.stats
}
