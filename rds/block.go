package rds

import (
	"context"
	"fmt"
)

/*

A group is 4 blocks of 26 bits (16bit information word, 10bit checksum and
offset word). The tuner strips the checksums so we only ever see the words:

* A: 16 bit PI Code; NA: encoded call sign, EU: country/coverage/program reference
* B:
    * Group Type      : xxxx_...._...._....
    * Version         : ...._x..._...._....
    * Traffic Program : ...._.x.._...._....
    * Program Type    : ...._..xx_xxx._....
    * GT-dependent    : ...._...._...x_xxxx
* C: GT-dependent (all Version B groups repeat PI here)
* D: GT-dependent

*/

// Block B masks
const (
	typeMask     uint16 = 0xF800
	typeShift           = 11
	tpFlag       uint16 = 0x0400
	ptyMask      uint16 = 0x03E0
	ptyShift            = 5
	taFlag       uint16 = 0x0010
	msFlag       uint16 = 0x0008
	diFlag       uint16 = 0x0004
	psAddrMask   uint16 = 0x0003
	textABFlag   uint16 = 0x0010
	textAddrMask uint16 = 0x000F
	ptynABFlag   uint16 = 0x0010
	ptynAddrMask uint16 = 0x0001
	mjdHighMask  uint16 = 0x0003
)

// Block is one RDS group as four big-endian words, checksums already removed.
type Block [4]uint16

// PI returns the Program Identifier carried in block A.
func (b Block) PI() uint16 {
	return b[0]
}

// GroupType folds the 4 bit type and the A/B version bit into 0..31.
func (b Block) GroupType() GroupType {
	return GroupType((b[1] & typeMask) >> typeShift)
}

func (b Block) TrafficProgram() bool {
	return b[1]&tpFlag == tpFlag
}

func (b Block) ProgramType() uint8 {
	return uint8((b[1] & ptyMask) >> ptyShift)
}

func (b Block) String() string {
	return fmt.Sprintf("%.4X %.4X %.4X %.4X", b[0], b[1], b[2], b[3])
}

// Source supplies raw groups, one per call, blocking until one is available.
type Source interface {
	ReadGroup(ctx context.Context) (Block, error)
}

// wordChars splits a big-endian word into its two characters, high byte first.
func wordChars(w uint16) [2]byte {
	return [2]byte{byte(w >> 8), byte(w)}
}
