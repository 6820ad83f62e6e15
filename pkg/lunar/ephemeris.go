package lunar

import (
	"math"
	"sort"
	"time"

	"github.com/soniakeys/meeus/v3/deltat"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonphase"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/unit"
)

// MeanMoonRadiusKm is the Moon's mean radius used for angular diameter
const MeanMoonRadiusKm = 1737.4

// EphemerisData describes the Moon at an instant rather than a calendar day
type EphemerisData struct {
	Time                time.Time
	ElongationDeg       float64 // Sun→Moon ecliptic longitude difference [0,360)
	Phase               float64 // ElongationDeg / 360
	IlluminationPercent float64
	DistanceKm          float64 // geocentric distance, center to center
	AngularDiameterDeg  float64
	IsWaxing            bool
}

// PrincipalPhase is the instant of a new, first quarter, full or last quarter moon
type PrincipalPhase struct {
	Name string
	Time time.Time
}

// Ephemeris computes distance, apparent size and elongation of the Moon for a UTC instant.
// Accuracy is ~10 arcseconds in longitude and a few km in distance, which is plenty
// for display; the day-level Calculate remains the canonical phase.
func Ephemeris(t time.Time) EphemerisData {
	t = t.UTC()
	jde := julian.TimeToJD(t) + deltaT(t).Day()

	lambdaMoon, _, distance := moonposition.Position(jde)
	elongation := normalizeAngle(lambdaMoon.Deg() - sunEclipticLongitude(julianCenturies(jde)))
	phase := elongation / 360.0

	return EphemerisData{
		Time:                t,
		ElongationDeg:       elongation,
		Phase:               phase,
		IlluminationPercent: Illumination(phase),
		DistanceKm:          distance,
		AngularDiameterDeg:  AngularDiameter(distance),
		IsWaxing:            elongation < 180,
	}
}

// AngularDiameter returns the apparent diameter in degrees of the Moon at distanceKm
func AngularDiameter(distanceKm float64) float64 {
	if distanceKm <= 0 {
		return 0
	}
	return radToDeg(2 * math.Atan(MeanMoonRadiusKm/distanceKm))
}

// NextPrincipalPhases returns the next new, first quarter, full and last quarter
// moons strictly after t, ordered by time
func NextPrincipalPhases(t time.Time) []PrincipalPhase {
	t = t.UTC()
	jd := julian.TimeToJD(t)
	year := decimalYear(t)
	step := SynodicMonth / 365.25

	finders := []struct {
		name string
		find func(float64) float64
	}{
		{NewMoon, moonphase.New},
		{FirstQuarter, moonphase.First},
		{FullMoon, moonphase.Full},
		{LastQuarter, moonphase.Last},
	}

	phases := make([]PrincipalPhase, 0, len(finders))
	for _, f := range finders {
		y := year
		jde := f.find(y)
		// the finder returns the nearest event, which may already be behind us
		for i := 0; jde <= jd && i < 4; i++ {
			y += step
			jde = f.find(y)
		}
		phases = append(phases, PrincipalPhase{Name: f.name, Time: julian.JDToTime(jde).UTC()})
	}

	sort.Slice(phases, func(i, j int) bool {
		return phases[i].Time.Before(phases[j].Time)
	})
	return phases
}

// deltaT returns TT-UT for t, the offset that turns a UT Julian Day into a JDE
func deltaT(t time.Time) unit.Time {
	year := decimalYear(t)
	switch {
	case year >= 2000:
		return deltat.PolyAfter2000(year)
	case year >= 1620:
		return deltat.Interp10A(julian.TimeToJD(t))
	case year >= 948:
		return deltat.Poly948to1600(year)
	default:
		return deltat.PolyBefore948(year)
	}
}

// decimalYear expresses t as a fractional year, e.g. 2024.5 for early July
func decimalYear(t time.Time) float64 {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + t.Sub(start).Seconds()/end.Sub(start).Seconds()
}

// julianCenturies returns Julian centuries since J2000.0
func julianCenturies(jd float64) float64 {
	return (jd - 2451545.0) / 36525.0
}

// sunEclipticLongitude computes the Sun's geometric ecliptic longitude in degrees
// from its mean longitude and the equation of center
func sunEclipticLongitude(T float64) float64 {
	meanLong := 280.46646 + T*(36000.76983+T*0.0003032)
	meanAnom := degToRad(normalizeAngle(357.52911 + T*(35999.05029-T*0.0001537)))

	center := math.Sin(meanAnom)*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(2*meanAnom)*(0.019993-T*0.000101) +
		math.Sin(3*meanAnom)*0.000289

	return normalizeAngle(meanLong + center)
}

// normalizeAngle wraps an angle to the range [0, 360)
func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	// a tiny negative remainder rounds up to exactly 360
	if angle >= 360 {
		angle = 0
	}
	return angle
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
