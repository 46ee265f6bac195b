package rds

// UnknownCallSign is returned for PI codes with no North American call sign.
const UnknownCallSign = "UNKN"

// UnassignedPrefix stands in for the first letter of PI codes below 0x1000,
// where the RBDS algorithm yields no W/K prefix.
const UnassignedPrefix = '?'

const (
	piFirstK = 0x1000
	piFirstW = 21672 // WAAA
	piLastW  = 39247 // WZZZ
)

/*
CallSign decodes a PI into a 4 letter call sign using the RBDS (North
America) method only:

* 21672..39247 : W + base 26 triple
* 4096..21671  : K + base 26 triple
* 1..4095      : the triple of PI-1, prefixed with UnassignedPrefix
* 0, or past WZZZ : UnknownCallSign

PIs past WZZZ would otherwise come out as W followed by characters past
'Z'; they are reported as UnknownCallSign instead.
*/
func CallSign(pi uint16) string {
	var prefix byte
	var n, rest int
	var cs [4]byte

	n = int(pi)
	switch {
	case n >= piFirstW:
		prefix = 'W'
		n -= piFirstW
	case n >= piFirstK:
		prefix = 'K'
		n -= piFirstK
	default:
		prefix = UnassignedPrefix
		n--
	}
	if n < 0 || pi > piLastW {
		return UnknownCallSign
	}

	rest = n - 676*(n/676)
	cs[0] = prefix
	cs[1] = byte(n/676) + 'A'
	cs[2] = byte(rest/26) + 'A'
	cs[3] = byte(rest%26) + 'A'
	return string(cs[:])
}
