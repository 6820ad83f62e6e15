package restserver

import (
	"time"

	"github.com/chrissnell/lunarphase/internal/phasedata"
	"github.com/chrissnell/lunarphase/pkg/lunar"
)

// CalendarResponse is a month of daily phases plus the principal phases that follow its first day
type CalendarResponse struct {
	Year            int                      `json:"year"`
	Month           int                      `json:"month"`
	Days            []phasedata.Descriptor   `json:"days"`
	PrincipalPhases []PrincipalPhaseResponse `json:"principal_phases"`
}

// PrincipalPhaseResponse is lunar.PrincipalPhase for the wire
type PrincipalPhaseResponse struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// EphemerisResponse is lunar.EphemerisData for the wire
type EphemerisResponse struct {
	Date                string                   `json:"date"`
	Time                string                   `json:"time"`
	ElongationDeg       float64                  `json:"elongation_deg"`
	Phase               float64                  `json:"phase"`
	PhaseName           string                   `json:"phase_name"`
	IlluminationPercent float64                  `json:"illumination_percent"`
	DistanceKm          float64                  `json:"distance_km"`
	AngularDiameterDeg  float64                  `json:"angular_diameter_deg"`
	IsWaxing            bool                     `json:"is_waxing"`
	NextPhases          []PrincipalPhaseResponse `json:"next_phases"`
}

func principalPhasesResponse(phases []lunar.PrincipalPhase) []PrincipalPhaseResponse {
	out := make([]PrincipalPhaseResponse, len(phases))
	for i, p := range phases {
		out[i] = PrincipalPhaseResponse{Name: p.Name, Time: p.Time.Format(time.RFC3339)}
	}
	return out
}

func ephemerisResponse(e lunar.EphemerisData) EphemerisResponse {
	return EphemerisResponse{
		Date:                lunar.FormatDate(e.Time),
		Time:                e.Time.Format(time.RFC3339),
		ElongationDeg:       e.ElongationDeg,
		Phase:               e.Phase,
		PhaseName:           lunar.PhaseNameFor(e.Phase),
		IlluminationPercent: e.IlluminationPercent,
		DistanceKm:          e.DistanceKm,
		AngularDiameterDeg:  e.AngularDiameterDeg,
		IsWaxing:            e.IsWaxing,
		NextPhases:          principalPhasesResponse(lunar.NextPrincipalPhases(e.Time)),
	}
}
