package rds

import "fmt"

// GroupType is the group number shifted left by one with the version in bit 0.
type GroupType uint8

const (
	Group0A GroupType = iota
	Group0B
	Group1A
	Group1B
	Group2A
	Group2B
	Group3A
	Group3B
	Group4A
	Group4B
	Group5A
	Group5B
	Group6A
	Group6B
	Group7A
	Group7B
	Group8A
	Group8B
	Group9A
	Group9B
	Group10A
	Group10B
	Group11A
	Group11B
	Group12A
	Group12B
	Group13A
	Group13B
	Group14A
	Group14B
	Group15A
	Group15B
)

// NumGroupTypes is the number of distinct group types, A and B counted separately.
const NumGroupTypes = 32

func (g GroupType) Number() int {
	return int(g >> 1)
}

// Version is 'A' or 'B'.
func (g GroupType) Version() byte {
	if g&1 == 1 {
		return 'B'
	}
	return 'A'
}

func (g GroupType) String() string {
	return fmt.Sprintf("%d%c", g.Number(), g.Version())
}

// Description names what the standard carries in this group type.
func (g GroupType) Description() string {
	if g >= NumGroupTypes {
		return "Invalid"
	}
	if g.Version() == 'A' {
		return groupTypesA[g.Number()]
	}
	return groupTypesB[g.Number()]
}

var groupTypesA = [16]string{
	"Basic Tuning and Switching Information only",
	"Program Item Number and Slow Labeling Codes only",
	"Radio Text only",
	"Applications Identification for ODA only",
	"Clock Time and Date only",
	"Transparent Data Channels (32 channels) or ODA",
	"In-House Applications of ODA",
	"Radio Paging of ODA",
	"Traffic Message Channel or ODA",
	"Emergency Warning System or ODA",
	"Program Type Name",
	"Open Data Applications",
	"Open Data Applications",
	"Enhanced Radio Paging or ODA",
	"Enhanced Other Networks Information Only",
	"Defined in RBDS only",
}

var groupTypesB = [16]string{
	"Basic Tuning and Switching Information only",
	"Program Item Number",
	"Radio Text only",
	"Open Data Applications",
	"Open Data Applications",
	"Transparent Data Channels (32 channels) or ODA",
	"In-House Applications of ODA",
	"Radio Paging of ODA",
	"Open Data Applications",
	"Open Data Applications",
	"Open Data Applications",
	"Open Data Applications",
	"Open Data Applications",
	"Open Data Applications",
	"Enhanced Other Networks Information Only",
	"Fast Switching Information only",
}
