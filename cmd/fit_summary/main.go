package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	fittracker "github.com/lucasjlepore/fit-tracker"
	"github.com/lucasjlepore/fit-tracker/pipeline"
)

func main() {
	var (
		inputs     = flag.String("in", "", "Comma-separated session folders")
		fitPath    = flag.String("fit", "", "Path to a single .fit activity file")
		outDir     = flag.String("out", "", "Output directory")
		weightKG   = flag.Float64("weight", 75, "Body weight in kg")
		horizon    = flag.Float64("horizon", 30, "Speed forecast horizon in seconds")
		format     = flag.String("format", "parquet", "Kinematics table format: parquet|csv")
		paramsPath = flag.String("params", "", "Optional JSON tuning file")
		workers    = flag.Int("workers", 0, "Concurrent sessions (0 = GOMAXPROCS)")
		overwrite  = flag.Bool("overwrite", true, "Allow writing into non-empty output directories")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --in dir1,dir2 [--fit input.fit] --out outdir [--weight 75] [--horizon 30] [--format parquet|csv]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	folders := splitList(*inputs)
	if (len(folders) == 0 && strings.TrimSpace(*fitPath) == "") || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	var params *fittracker.Params
	if *paramsPath != "" {
		p, err := fittracker.LoadParams(*paramsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fit_summary failed: %v\n", err)
			os.Exit(1)
		}
		params = &p
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := pipeline.Run(ctx, pipeline.Options{
		Folders:    folders,
		FitPath:    *fitPath,
		OutDir:     *outDir,
		WeightKG:   *weightKG,
		HorizonSec: *horizon,
		Format:     *format,
		Overwrite:  *overwrite,
		Workers:    *workers,
		Params:     params,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fit_summary failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("fit_summary complete (run %s)\n", result.RunID)
	fmt.Printf("Output dir:          %s\n", result.OutputDir)
	fmt.Printf("sessions:            %d\n", result.Sessions)
	fmt.Printf("summary.json:        %s\n", result.SummaryPath)
	fmt.Printf("kinematics:          %s\n", result.KinematicsPath)
	fmt.Printf("session notes:       %s\n", result.NotesPath)
	for _, p := range result.TrackPaths {
		fmt.Printf("track:               %s\n", p)
	}
	for _, w := range result.Warnings {
		fmt.Printf("warning:             %s\n", w)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
