package lunar

import (
	"math"
	"testing"
	"time"
)

func TestEphemeris(t *testing.T) {
	tests := []struct {
		name            string
		time            time.Time
		elongationRange [2]float64
		isWaxing        bool
	}{
		{
			name:            "Just past Full Moon Feb 2023",
			time:            time.Date(2023, 2, 5, 20, 0, 0, 0, time.UTC),
			elongationRange: [2]float64{178, 182},
		},
		{
			name:            "First Quarter Jan 2023",
			time:            time.Date(2023, 1, 28, 15, 19, 0, 0, time.UTC),
			elongationRange: [2]float64{88, 92},
			isWaxing:        true,
		},
		{
			name:            "Third Quarter Feb 2023",
			time:            time.Date(2023, 2, 13, 16, 1, 0, 0, time.UTC),
			elongationRange: [2]float64{268, 272},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Ephemeris(tt.time)

			if e.ElongationDeg < tt.elongationRange[0] || e.ElongationDeg > tt.elongationRange[1] {
				t.Errorf("ElongationDeg = %.2f, expected in range [%.0f, %.0f]",
					e.ElongationDeg, tt.elongationRange[0], tt.elongationRange[1])
			}
			if e.IsWaxing != tt.isWaxing {
				t.Errorf("IsWaxing = %v, expected %v", e.IsWaxing, tt.isWaxing)
			}
			if e.DistanceKm < 355000 || e.DistanceKm > 407500 {
				t.Errorf("DistanceKm = %.0f outside perigee/apogee range", e.DistanceKm)
			}
			if e.AngularDiameterDeg < 0.48 || e.AngularDiameterDeg > 0.57 {
				t.Errorf("AngularDiameterDeg = %.4f, expected ~0.52", e.AngularDiameterDeg)
			}
		})
	}
}

func TestEphemerisPhaseInRange(t *testing.T) {
	start := time.Date(2023, 2, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24*60; i++ {
		e := Ephemeris(start.Add(time.Duration(i) * time.Minute))
		if e.Phase < 0 || e.Phase >= 1 {
			t.Fatalf("Phase = %v at %v, expected [0, 1)", e.Phase, e.Time)
		}
		if e.ElongationDeg < 0 || e.ElongationDeg >= 360 {
			t.Fatalf("ElongationDeg = %v at %v, expected [0, 360)", e.ElongationDeg, e.Time)
		}
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{370, 10},
		{-90, 270},
		{720, 0},
		{-1e-15, 0},
	}

	for _, tt := range tests {
		if got := normalizeAngle(tt.in); got != tt.want {
			t.Errorf("normalizeAngle(%v) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}

func TestDeltaT(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		min, max float64
	}{
		{"1900", time.Date(1900, 6, 1, 0, 0, 0, 0, time.UTC), -5, 0},
		{"1990", time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC), 55, 60},
		{"2023", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 60, 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deltaT(tt.time).Sec(); got < tt.min || got > tt.max {
				t.Errorf("deltaT = %.1fs, expected in [%.0f, %.0f]", got, tt.min, tt.max)
			}
		})
	}
}

func TestAngularDiameter(t *testing.T) {
	if got := AngularDiameter(384400); math.Abs(got-0.518) > 0.002 {
		t.Errorf("AngularDiameter(384400) = %.4f, expected ~0.518", got)
	}
	if got := AngularDiameter(0); got != 0 {
		t.Errorf("AngularDiameter(0) = %v, expected 0", got)
	}
}

func TestNextPrincipalPhases(t *testing.T) {
	// just after the Jan 21, 2023 new moon
	from := time.Date(2023, 1, 22, 0, 0, 0, 0, time.UTC)
	expected := []PrincipalPhase{
		{FirstQuarter, time.Date(2023, 1, 28, 15, 19, 0, 0, time.UTC)},
		{FullMoon, time.Date(2023, 2, 5, 18, 29, 0, 0, time.UTC)},
		{LastQuarter, time.Date(2023, 2, 13, 16, 1, 0, 0, time.UTC)},
		{NewMoon, time.Date(2023, 2, 20, 7, 6, 0, 0, time.UTC)},
	}

	got := NextPrincipalPhases(from)
	if len(got) != len(expected) {
		t.Fatalf("got %d phases, expected %d", len(got), len(expected))
	}

	for i, want := range expected {
		if got[i].Name != want.Name {
			t.Errorf("phase %d: Name = %q, expected %q", i, got[i].Name, want.Name)
		}
		if diff := got[i].Time.Sub(want.Time); diff > 15*time.Minute || diff < -15*time.Minute {
			t.Errorf("%s: Time = %v, expected %v", want.Name, got[i].Time, want.Time)
		}
		if !got[i].Time.After(from) {
			t.Errorf("%s: %v is not after %v", want.Name, got[i].Time, from)
		}
	}
}
