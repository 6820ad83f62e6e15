package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chrissnell/lunarphase/internal/app"
	"github.com/chrissnell/lunarphase/internal/geo"
	"github.com/chrissnell/lunarphase/internal/log"
	"github.com/chrissnell/lunarphase/internal/phasedata"
	"github.com/chrissnell/lunarphase/pkg/config"
	"github.com/chrissnell/lunarphase/pkg/lunar"
)

func main() {
	var (
		dateStr  string
		remote   bool
		lat, lon float64
		debug    bool
	)
	flag.StringVar(&dateStr, "date", "", "Calendar day to calculate phase for (YYYY-MM-DD, default today UTC)")
	flag.BoolVar(&remote, "remote", false, "Consult the FarmSense API, falling back to the local calculation")
	flag.Float64Var(&lat, "lat", 0, "Observer latitude")
	flag.Float64Var(&lon, "lon", 0, "Observer longitude")
	flag.BoolVar(&debug, "debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	date := time.Now().UTC()
	if dateStr != "" {
		var err error
		date, err = lunar.ParseDate(dateStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			os.Exit(1)
		}
	}

	var loc *geo.Location
	if lat != 0 || lon != 0 {
		loc = &geo.Location{Latitude: lat, Longitude: lon}
		if err := loc.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid location: %v\n", err)
			os.Exit(1)
		}
	}

	cfg := &config.ConfigData{}
	if err := config.ApplyEnv(cfg); err != nil {
		log.Fatalf("Error reading environment: %v", err)
	}
	cfg.ApplyDefaults()

	ctx := context.Background()
	service, store, err := app.NewPhaseService(ctx, cfg, remote)
	if err != nil {
		log.Fatalf("Error creating phase service: %v", err)
	}
	defer store.Close()

	log.Debugf("resolving %s with %s cache (remote: %v)", lunar.FormatDate(date), cfg.Cache.Backend, remote)
	desc := service.GetPhase(ctx, date, loc)
	if remote && desc.Source == phasedata.SourceLocal {
		log.Warnf("FarmSense lookup failed, showing the local calculation")
	}
	eph := lunar.Ephemeris(date)
	age := desc.Phase * lunar.SynodicMonth

	fmt.Printf("Moon Phase for %s (%s)\n", desc.Date, desc.Source)
	fmt.Printf("  Phase:        %.1f%% (%.4f)\n", desc.Phase*100, desc.Phase)
	fmt.Printf("  Phase Name:   %s\n", desc.PhaseName)
	fmt.Printf("  Illumination: %.1f%%\n", desc.IlluminationPercent)
	fmt.Printf("  Age:          %.1f days\n", age)
	fmt.Printf("  Elongation:   %.1f°\n", eph.ElongationDeg)
	fmt.Printf("  Distance:     %.0f km\n", eph.DistanceKm)
	if desc.Phase < 0.5 {
		fmt.Printf("  Direction:    Waxing\n")
	} else {
		fmt.Printf("  Direction:    Waning\n")
	}
	fmt.Println("  Upcoming:")
	for _, p := range lunar.NextPrincipalPhases(date) {
		fmt.Printf("    %-14s %s\n", p.Name, p.Time.Format("2006-01-02 15:04 MST"))
	}
}
