package rds

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPTY = errors.New("invalid PTY")
var ErrInvalidLocale = errors.New("invalid locale")

// Locale selects the PTY convention: RBDS (US) or RDS (EU).
type Locale uint8

const (
	LocaleUS Locale = iota
	LocaleEU
)

// NumPTY is the number of program type codes, 0..31.
const NumPTY = 32

func (l Locale) String() string {
	switch l {
	case LocaleUS:
		return "us"
	case LocaleEU:
		return "eu"
	}
	return fmt.Sprintf("locale(%d)", uint8(l))
}

func ParseLocale(s string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us", "na", "rbds":
		return LocaleUS, nil
	case "eu", "rds":
		return LocaleEU, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLocale, s)
}

const (
	ptyNone          = "None/Undefined"
	ptyNews          = "News"
	ptyCurrent       = "Current affairs"
	ptyInformation   = "Information"
	ptySports        = "Sports"
	ptyEducation     = "Education"
	ptyDrama         = "Drama"
	ptyCulture       = "Culture"
	ptyScience       = "Science"
	ptyVaried        = "Varied"
	ptyPop           = "Pop"
	ptyRock          = "Rock"
	ptyEasySoft      = "Easy & soft"
	ptyClassical     = "Classical"
	ptyOther         = "Other music"
	ptyWeather       = "Weather"
	ptyFinance       = "Finance"
	ptyChildren      = "Children's"
	ptySocial        = "Social affairs"
	ptyReligion      = "Religion"
	ptyTalkPhone     = "Talk & phone-in"
	ptyTravel        = "Travel"
	ptyLeisure       = "Leisure"
	ptyJazz          = "Jazz"
	ptyCountry       = "Country"
	ptyNational      = "National"
	ptyOldies        = "Oldies"
	ptyFolk          = "Folk"
	ptyDocumentary   = "Documentary"
	ptyEmergencyTest = "Emergency test"
	ptyEmergency     = "Emergency"
	ptyAdult         = "Adult hits"
	ptyTop40         = "Top 40"
	ptyNostalgia     = "Nostalgia"
	ptyRnB           = "Rhythm and blues"
	ptyLanguage      = "Language"
	ptyPersonality   = "Personality"
	ptyPublic        = "Public"
	ptyCollege       = "College"
)

var ptyTextEU = [NumPTY]string{
	ptyNone,
	ptyNews,
	ptyCurrent,
	ptyInformation,
	ptySports,
	ptyEducation,
	ptyDrama,
	ptyCulture,
	ptyScience,
	ptyVaried,
	ptyPop,
	ptyRock,
	ptyEasySoft,
	ptyClassical,
	ptyClassical,
	ptyOther,
	ptyWeather,
	ptyFinance,
	ptyChildren,
	ptySocial,
	ptyReligion,
	ptyTalkPhone,
	ptyTravel,
	ptyLeisure,
	ptyJazz,
	ptyCountry,
	ptyNational,
	ptyOldies,
	ptyFolk,
	ptyDocumentary,
	ptyEmergencyTest,
	ptyEmergency,
}

var ptyTextUS = [NumPTY]string{
	ptyNone,
	ptyNews,
	ptyInformation,
	ptySports,
	ptyTalkPhone,
	ptyRock,
	ptyRock,
	ptyAdult,
	ptyRock,
	ptyTop40,
	ptyCountry,
	ptyOldies,
	ptyEasySoft,
	ptyNostalgia,
	ptyJazz,
	ptyClassical,
	ptyRnB,
	ptyRnB,
	ptyLanguage,
	ptyReligion,
	ptyReligion,
	ptyPersonality,
	ptyPublic,
	ptyCollege,
	ptyNone,
	ptyNone,
	ptyNone,
	ptyNone,
	ptyNone,
	ptyWeather,
	ptyEmergencyTest,
	ptyEmergency,
}

// The cross maps are many-to-one in both directions, a round trip is lossy.
var ptyEUToUS = [NumPTY]uint8{
	0, 1, 0, 2, 3, 23, 0, 0, 0, 0, 7,
	5, 12, 15, 15, 0, 29, 0, 0, 0, 20,
	4, 0, 0, 14, 10, 0, 11, 0, 0, 30,
	31,
}

var ptyUSToEU = [NumPTY]uint8{
	0, 1, 3, 4, 21, 11, 11, 10, 11, 10,
	25, 27, 12, 27, 24, 14, 15, 15, 0,
	20, 20, 0, 0, 5, 0, 0, 0, 0, 0, 16,
	30, 31,
}

func ptyTable(locale Locale) (*[NumPTY]string, error) {
	switch locale {
	case LocaleUS:
		return &ptyTextUS, nil
	case LocaleEU:
		return &ptyTextEU, nil
	}
	return nil, ErrInvalidLocale
}

// PTYText returns the descriptive name of pty in the given locale.
func PTYText(pty uint8, locale Locale) (string, error) {
	if pty >= NumPTY {
		return "", fmt.Errorf("%w: %d", ErrInvalidPTY, pty)
	}
	table, err := ptyTable(locale)
	if err != nil {
		return "", err
	}
	return table[pty], nil
}

// CopyPTYText copies at most len(dst)-1 bytes of the PTY name into dst and
// terminates them with a NUL, for fixed-size display buffers. It returns the
// number of text bytes copied.
func CopyPTYText(dst []byte, pty uint8, locale Locale) (int, error) {
	var n int

	text, err := PTYText(pty, locale)
	if err != nil {
		return 0, err
	}
	if len(dst) == 0 {
		return 0, nil
	}
	n = copy(dst[:len(dst)-1], text)
	dst[n] = 0
	return n, nil
}

// TranslatePTY maps a PTY code from one convention to the other.
func TranslatePTY(pty uint8, from, to Locale) (uint8, error) {
	if pty >= NumPTY {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPTY, pty)
	}
	if _, err := ptyTable(from); err != nil {
		return 0, err
	}
	if _, err := ptyTable(to); err != nil {
		return 0, err
	}
	if from == to {
		return pty, nil
	}
	if from == LocaleUS {
		return ptyUSToEU[pty], nil
	}
	return ptyEUToUS[pty], nil
}
