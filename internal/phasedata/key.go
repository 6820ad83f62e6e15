package phasedata

import (
	"math"
	"strconv"
	"time"

	"github.com/chrissnell/lunarphase/internal/geo"
	"github.com/chrissnell/lunarphase/pkg/lunar"
)

// CacheKey identifies a (calendar day, rounded location) pair, e.g. "2024-03-10|40.42|-3.70".
// A nil location shares the "0.00|0.00" partition.
func CacheKey(date time.Time, loc *geo.Location, precision int) string {
	var lat, lon float64
	if loc != nil {
		lat, lon = loc.Latitude, loc.Longitude
	}
	return lunar.FormatDate(date) + "|" + roundCoord(lat, precision) + "|" + roundCoord(lon, precision)
}

func roundCoord(v float64, precision int) string {
	scale := math.Pow(10, float64(precision))
	r := math.Round(v*scale) / scale
	if r == 0 {
		// avoid a separate "-0.00" partition
		r = 0
	}
	return strconv.FormatFloat(r, 'f', precision, 64)
}
