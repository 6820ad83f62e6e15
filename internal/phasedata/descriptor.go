package phasedata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chrissnell/lunarphase/internal/geo"
	"github.com/chrissnell/lunarphase/pkg/lunar"
)

// Source records where a descriptor came from
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Descriptor is the resolved phase for one calendar day and observer
type Descriptor struct {
	Date                string        `json:"date" msgpack:"date"`
	Phase               float64       `json:"phase" msgpack:"phase"`
	IlluminationPercent float64       `json:"illumination_percent" msgpack:"illumination_percent"`
	PhaseName           string        `json:"phase_name" msgpack:"phase_name"`
	ProviderPhaseName   string        `json:"provider_phase_name,omitempty" msgpack:"provider_phase_name,omitempty"`
	Source              Source        `json:"source" msgpack:"source"`
	DistanceKm          *float64      `json:"distance_km,omitempty" msgpack:"distance_km,omitempty"`
	AngularDiameterDeg  *float64      `json:"angular_diameter_deg,omitempty" msgpack:"angular_diameter_deg,omitempty"`
	Location            *geo.Location `json:"location,omitempty" msgpack:"location,omitempty"`
}

// Reading is what a remote provider reports for a date
type Reading struct {
	Phase               float64
	IlluminationPercent float64
	DistanceKm          *float64
	AngularDiameterDeg  *float64
	PhaseNameRaw        string
}

// Provider fetches phase data from a remote service. Implementations should
// honor ctx for cancellation and deadlines.
type Provider interface {
	FetchPhase(ctx context.Context, date time.Time, loc *geo.Location) (Reading, error)
}

// ErrMalformedReading is returned when a provider reading is out of range
var ErrMalformedReading = errors.New("malformed provider reading")

// LocalDescriptor builds a descriptor from the pure calculator. Distance and
// apparent size come from the ephemeris at 12:00 UTC of the calendar day.
func LocalDescriptor(date time.Time) Descriptor {
	p := lunar.Calculate(date)

	year, month, day := date.Date()
	eph := lunar.Ephemeris(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
	distance, diameter := eph.DistanceKm, eph.AngularDiameterDeg

	return Descriptor{
		Date:                lunar.FormatDate(date),
		Phase:               p.Phase,
		IlluminationPercent: p.IlluminationPercent,
		PhaseName:           p.PhaseName,
		Source:              SourceLocal,
		DistanceKm:          &distance,
		AngularDiameterDeg:  &diameter,
	}
}

// remoteDescriptor validates a provider reading and wraps it.
// The phase name is always derived from the phase so remote and local agree on buckets.
func remoteDescriptor(date time.Time, r Reading) (Descriptor, error) {
	phase := r.Phase
	if math.IsNaN(phase) || math.IsInf(phase, 0) || phase < 0 || phase > 1 {
		return Descriptor{}, fmt.Errorf("%w: phase %v", ErrMalformedReading, r.Phase)
	}
	if phase == 1 {
		phase = 0
	}

	illum := r.IlluminationPercent
	if math.IsNaN(illum) || illum < 0 || illum > 100 {
		return Descriptor{}, fmt.Errorf("%w: illumination %v", ErrMalformedReading, r.IlluminationPercent)
	}

	return Descriptor{
		Date:                lunar.FormatDate(date),
		Phase:               phase,
		IlluminationPercent: illum,
		PhaseName:           lunar.PhaseNameFor(phase),
		ProviderPhaseName:   r.PhaseNameRaw,
		Source:              SourceRemote,
		DistanceKm:          positiveOrNil(r.DistanceKm),
		AngularDiameterDeg:  positiveOrNil(r.AngularDiameterDeg),
	}, nil
}

func positiveOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || *v <= 0 {
		return nil
	}
	out := *v
	return &out
}
