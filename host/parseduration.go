package host

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration which also accepts day and week
// suffixes, bare seconds and "off".
type Duration time.Duration

// DurationOff means no timeout at all. Tracking commands use it so a
// quiet device list never ends the stream.
const DurationOff = Duration((1 << 63) - 1)

// offNames are the spellings accepted for DurationOff
var offNames = []string{"off", "inf", "infinite"}

// longUnits are tried when time.ParseDuration fails
var longUnits = []struct {
	Suffix     string
	Multiplier time.Duration
}{
	{Suffix: "w", Multiplier: time.Hour * 24 * 7},
	{Suffix: "d", Multiplier: time.Hour * 24},
	{Suffix: "", Multiplier: time.Second},
}

// String turns a Duration into a string which ParseDuration accepts
func (d Duration) String() string {
	if d == DurationOff {
		return "off"
	}
	for _, unit := range longUnits[:len(longUnits)-1] {
		if math.Abs(float64(d)) >= float64(unit.Multiplier) && time.Duration(d)%unit.Multiplier == 0 {
			return strconv.FormatInt(int64(time.Duration(d)/unit.Multiplier), 10) + unit.Suffix
		}
	}
	return time.Duration(d).String()
}

// IsSet returns if the duration is != DurationOff
func (d Duration) IsSet() bool {
	return d != DurationOff
}

// ParseDuration parses a duration string. It accepts everything
// time.ParseDuration does plus d and w suffixes, a bare number of
// seconds and "off".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, name := range offNames {
		if strings.EqualFold(s, name) {
			return time.Duration(DurationOff), nil
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	for _, unit := range longUnits {
		if !strings.HasSuffix(s, unit.Suffix) {
			continue
		}
		number := s[:len(s)-len(unit.Suffix)]
		f, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(f * float64(unit.Multiplier)), nil
	}
	return 0, fmt.Errorf("invalid duration %q", s)
}

// Set a Duration
func (d *Duration) Set(s string) error {
	duration, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// Type of the value
func (d Duration) Type() string {
	return "Duration"
}

// Scan implements the fmt.Scanner interface
func (d *Duration) Scan(s fmt.ScanState, ch rune) error {
	token, err := s.Token(true, nil)
	if err != nil {
		return err
	}
	return d.Set(string(token))
}
