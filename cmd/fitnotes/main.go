package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	fittracker "github.com/lucasjlepore/fit-tracker"
	"github.com/lucasjlepore/fit-tracker/loader"
)

func main() {
	var (
		weightKG = flag.Float64("weight", 75, "Body weight in kg")
		horizon  = flag.Float64("horizon", 30, "Speed forecast horizon in seconds")
		jsonOut  = flag.Bool("json", false, "Emit the session and totals as JSON")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-fit-or-position-csv>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	filePath := flag.Arg(0)
	track, err := loadTrack(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		os.Exit(1)
	}

	params := fittracker.DefaultParams()
	key := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	summary, _, err := fittracker.Summarize(key, track, *weightKG, *horizon, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "summary failed: %v\n", err)
		os.Exit(1)
	}
	totals := fittracker.SummarizeTotals([]fittracker.SessionSummary{summary}, params)

	if *jsonOut {
		out := map[string]any{
			"session":  summary.Key,
			"activity": summary.Activity,
			"totals":   totals,
		}
		if summary.HasForecast() {
			out["pred_next_speed_kmh"] = summary.PredictedSpeedKmh
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(fittracker.BuildSessionNotes(summary))
	fmt.Println()
	fmt.Println(fittracker.BuildTotalsNotes(totals))
}

func loadTrack(path string) (fittracker.Track, error) {
	if strings.EqualFold(filepath.Ext(path), ".fit") {
		return loader.LoadFITFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loader.ReadPositionCSV(f)
}
