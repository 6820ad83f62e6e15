// Package lunar provides moon phase calculations for a calendar day using the
// Julian Day Number and the mean synodic month. Results are deterministic
// for a given date and agree with published phase tables to within about a day.
// Instant-level estimates (elongation, distance) live in ephemeris.go.
package lunar

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// SynodicMonth is the mean length of the lunar cycle in days
	SynodicMonth = 29.53058867

	// EpochJD is the Julian Day of the reference new moon (2000-01-06 18:14 UTC)
	EpochJD = 2451549.5

	// DateLayout is the ISO calendar date format used for parsing and cache keys
	DateLayout = "2006-01-02"
)

// Phase names, one per eighth of the cycle
const (
	NewMoon        = "New Moon"
	WaxingCrescent = "Waxing Crescent"
	FirstQuarter   = "First Quarter"
	WaxingGibbous  = "Waxing Gibbous"
	FullMoon       = "Full Moon"
	WaningGibbous  = "Waning Gibbous"
	LastQuarter    = "Last Quarter"
	WaningCrescent = "Waning Crescent"
)

// PhaseNames lists the eight phase names in cycle order starting at new moon
var PhaseNames = []string{
	NewMoon, WaxingCrescent, FirstQuarter, WaxingGibbous,
	FullMoon, WaningGibbous, LastQuarter, WaningCrescent,
}

// ErrInvalidDate is returned when a year/month/day triple is not a real calendar date
var ErrInvalidDate = errors.New("invalid calendar date")

// MoonPhase contains calculated moon phase information for a calendar day
type MoonPhase struct {
	Phase               float64 // Phase fraction [0,1): 0=new, 0.5=full
	IlluminationPercent float64 // Lit portion of the disk [0,100]
	PhaseName           string  // One of PhaseNames
	AgeDays             float64 // Days since new moon [0,SynodicMonth)
	IsWaxing            bool    // True for phase in [0,0.5)
}

// Calculate computes the moon phase for the calendar day of d.
// Only the year, month and day of d (in d's own location) are used.
func Calculate(d time.Time) MoonPhase {
	year, month, day := d.Date()
	return phaseFromJD(julianDayNumber(year, int(month), day))
}

// phaseFromJD derives the phase descriptor from a Julian Day value
func phaseFromJD(jd float64) MoonPhase {
	cycles := (jd - EpochJD) / SynodicMonth
	phase := cycles - math.Floor(cycles)
	if phase < 0 {
		phase += 1
	}
	// floating point can land exactly on 1 for tiny negative inputs
	if phase >= 1 {
		phase = 0
	}

	return MoonPhase{
		Phase:               phase,
		IlluminationPercent: Illumination(phase),
		PhaseName:           PhaseNameFor(phase),
		AgeDays:             phase * SynodicMonth,
		IsWaxing:            phase < 0.5,
	}
}

// julianDayNumber converts a proleptic Gregorian date to its Julian Day Number.
// Integer division is floored so negative years convert correctly.
func julianDayNumber(year, month, day int) float64 {
	a := floorDiv(14-month, 12)
	y := year + 4800 - a
	m := month + 12*a - 3

	jdn := day + floorDiv(153*m+2, 5) + 365*y +
		floorDiv(y, 4) - floorDiv(y, 100) + floorDiv(y, 400) - 32045

	return float64(jdn)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Illumination returns the illuminated percentage of the disk for a phase fraction
func Illumination(phase float64) float64 {
	illum := (1 - math.Cos(phase*2*math.Pi)) / 2 * 100
	switch {
	case illum < 0:
		return 0
	case illum > 100:
		return 100
	}
	return illum
}

// PhaseNameFor returns the 8-phase name for a phase fraction.
// Buckets are 0.125 wide, closed on the left, with New and Full centered on 0 and 0.5.
func PhaseNameFor(phase float64) string {
	switch {
	case phase < 0.0625 || phase >= 0.9375:
		return NewMoon
	case phase < 0.1875:
		return WaxingCrescent
	case phase < 0.3125:
		return FirstQuarter
	case phase < 0.4375:
		return WaxingGibbous
	case phase < 0.5625:
		return FullMoon
	case phase < 0.6875:
		return WaningGibbous
	case phase < 0.8125:
		return LastQuarter
	default:
		return WaningCrescent
	}
}

// ValidateDate checks that year/month/day name a real calendar day and returns it at midnight UTC
func ValidateDate(year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); a round trip exposes it
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return t, nil
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar day
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders the calendar day of d as YYYY-MM-DD
func FormatDate(d time.Time) string {
	year, month, day := d.Date()
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// MonthDays returns every calendar day of the month at midnight UTC
func MonthDays(year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := make([]time.Time, 0, 31)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
