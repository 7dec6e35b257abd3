// Command sidescan runs the survey processing pipeline over a recorded
// header file and its per-channel record streams, then persists and
// exports the results.
//
// Typical use:
//
//	sidescan -header survey.hdr -port port.son -star star.son \
//	    -db surveys.db -out ./products -numclasses 4 -seed 1
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/riverbed-data/sidescan.report/internal/config"
	"github.com/riverbed-data/sidescan.report/internal/export"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
	"github.com/riverbed-data/sidescan.report/internal/sonar/pipeline"
	"github.com/riverbed-data/sidescan.report/internal/sonar/surveydb"
	"github.com/riverbed-data/sidescan.report/internal/version"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "print build information and exit")
		headerPath  = flag.String("header", "", "path to the survey header file (required)")
		downLowPath = flag.String("low", "", "down-looking low frequency record stream")
		downHiPath  = flag.String("high", "", "down-looking high frequency record stream")
		portPath    = flag.String("port", "", "port sidescan record stream")
		starPath    = flag.String("star", "", "starboard sidescan record stream")
		configPath  = flag.String("config", "", "optional JSON run configuration")
		dbPath      = flag.String("db", "", "sqlite database to store results (skipped when empty)")
		outDir      = flag.String("out", "", "directory for point clouds and plots (skipped when empty)")
		list        = flag.Bool("list", false, "list stored runs and exit (requires -db)")

		c          = flag.Float64("c", 0, "speed of sound m/s (0 = use header calibration)")
		draft      = flag.Float64("draft", sonar.DefaultParams().DraftM, "transducer draft, m")
		pulseLen   = flag.Float64("t", 0, "pulse length override, microseconds")
		freq       = flag.Float64("f", 0, "frequency override, kHz")
		bedpick    = flag.Bool("bedpick", true, "detect the bed line per ping")
		flipLR     = flag.Bool("flip-lr", false, "swap port and starboard in merged scans")
		shorepick  = flag.Bool("shorepick", false, "mask the water column before texture analysis")
		doTwo      = flag.Bool("do-two", false, "also analyze the merged port+starboard scan")
		calcBear   = flag.Bool("calc-bearing", false, "project beams along the course over ground instead of the recorded heading")
		filtBear   = flag.Bool("filt-bearing", false, "running-mean filter the projection bearing")
		maxW       = flag.Int("maxw", sonar.DefaultParams().MaxW, "radiometric window, pings")
		win        = flag.Int("win", sonar.DefaultParams().Win, "texture window size, cells")
		shift      = flag.Int("shift", sonar.DefaultParams().Shift, "texture window stride, cells")
		density    = flag.Int("density", sonar.DefaultParams().Density, "wavelet scale density")
		numClasses = flag.Int("numclasses", sonar.DefaultParams().NumClasses, "texture class count")
		maxScale   = flag.Int("maxscale", sonar.DefaultParams().MaxScale, "largest wavelet scale, cells")
		seed       = flag.Int64("seed", 0, "clustering seed (0 = non-deterministic)")
		notes      = flag.String("notes", "", "free-text run annotation")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *list {
		if *dbPath == "" {
			log.Fatal("-list requires -db")
		}
		db, err := surveydb.Open(*dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
		if err := printRuns(os.Stdout, db, 20); err != nil {
			log.Fatalf("list runs: %v", err)
		}
		return
	}

	if *headerPath == "" {
		log.Fatal("-header is required")
	}

	p := sonar.DefaultParams()
	var cfg *config.RunConfig
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		p, err = cfg.Apply(p)
		if err != nil {
			log.Fatalf("apply config: %v", err)
		}
	}

	// Flags given on the command line beat the config file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	apply := func(name string, fn func()) {
		if set[name] {
			fn()
		}
	}
	apply("c", func() { p.C = *c })
	apply("draft", func() { p.DraftM = *draft })
	apply("t", func() { p.PulseLenUS = *pulseLen })
	apply("f", func() { p.FreqKHz = *freq })
	apply("bedpick", func() { p.Bedpick = *bedpick })
	apply("flip-lr", func() { p.FlipLR = *flipLR })
	apply("shorepick", func() { p.Shorepick = *shorepick })
	apply("do-two", func() { p.DoTwo = *doTwo })
	apply("calc-bearing", func() { p.CalcBearing = *calcBear })
	apply("filt-bearing", func() { p.FiltBearing = *filtBear })
	apply("maxw", func() { p.MaxW = *maxW })
	apply("win", func() { p.Win = *win })
	apply("shift", func() { p.Shift = *shift })
	apply("density", func() { p.Density = *density })
	apply("numclasses", func() { p.NumClasses = *numClasses })
	apply("maxscale", func() { p.MaxScale = *maxScale })
	apply("seed", func() { p.Seed = *seed })
	apply("notes", func() { p.Notes = *notes })
	if soundSpeedFromHeader(set["c"], cfg) {
		p.C = 0 // take the header's calibration
	}

	header, err := os.ReadFile(*headerPath)
	if err != nil {
		log.Fatalf("read header: %v", err)
	}

	streams := map[sonar.Channel][]byte{}
	for ch, path := range map[sonar.Channel]string{
		sonar.BeamDownLow:   *downLowPath,
		sonar.BeamDownHigh:  *downHiPath,
		sonar.BeamPort:      *portPath,
		sonar.BeamStarboard: *starPath,
	} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s stream: %v", ch, err)
		}
		streams[ch] = data
	}
	if len(streams) == 0 {
		log.Fatal("at least one record stream is required")
	}

	res, err := pipeline.Run(header, streams, p)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	failed := 0
	for _, cr := range res.Channels {
		status := "ok"
		switch {
		case cr.Err != nil:
			status = fmt.Sprintf("failed: %v", cr.Err)
			failed++
		case cr.Truncated:
			status = "ok (stream truncated)"
		}
		fmt.Printf("channel %-10s %5d pings  %4d windows  %s\n",
			cr.Channel, len(cr.Pings), len(cr.Windows), status)
	}

	if *dbPath != "" {
		db, err := surveydb.Open(*dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
		runID, err := db.StoreRun(*headerPath, p, res)
		if err != nil {
			log.Fatalf("store run: %v", err)
		}
		fmt.Printf("stored run %s\n", runID)
	}

	if *outDir != "" {
		if err := writeProducts(*outDir, res, p); err != nil {
			log.Fatalf("export: %v", err)
		}
	}

	if failed == len(res.Channels) {
		os.Exit(1)
	}
}

// soundSpeedFromHeader reports whether no explicit sound speed was given
// by flag or config, so the survey header's calibration should apply.
func soundSpeedFromHeader(flagSet bool, cfg *config.RunConfig) bool {
	return !flagSet && (cfg == nil || cfg.C == nil)
}

// printRuns writes one line per stored run, most recent first, with the
// per-channel texture class counts underneath.
func printRuns(w io.Writer, db *surveydb.SurveyDB, limit int) error {
	runs, err := db.Runs(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no stored runs")
		return nil
	}
	channels := []string{
		sonar.BeamDownLow.String(), sonar.BeamDownHigh.String(),
		sonar.BeamPort.String(), sonar.BeamStarboard.String(), "merged",
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %d channels  %d windows", r.RunID, r.SourceFile, r.ChannelCount, r.WindowCount)
		if r.Notes != "" {
			fmt.Fprintf(w, "  (%s)", r.Notes)
		}
		fmt.Fprintln(w)
		for _, ch := range channels {
			counts, err := db.ClassCounts(r.RunID, ch)
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				continue
			}
			classes := make([]int, 0, len(counts))
			for class := range counts {
				classes = append(classes, class)
			}
			sort.Ints(classes)
			fmt.Fprintf(w, "  %-10s", ch)
			for _, class := range classes {
				fmt.Fprintf(w, "  class %d: %d", class, counts[class])
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

// writeProducts emits per-channel point clouds, echograms and class maps.
func writeProducts(dir string, res *pipeline.Result, p sonar.Params) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, cr := range res.Channels {
		if cr.Corrected == nil {
			continue
		}
		name := cr.Channel.String()
		if err := export.WritePointCloud(filepath.Join(dir, name+"_points.asc"), cr.Corrected, p); err != nil {
			return err
		}
		if err := export.SaveEchogram(filepath.Join(dir, name+"_echogram.png"), name+" echogram", cr.Corrected); err != nil {
			return err
		}
		if len(cr.Windows) > 0 {
			if err := export.SaveClassMap(filepath.Join(dir, name+"_classes.png"), name+" texture classes", cr.Windows, p.NumClasses); err != nil {
				return err
			}
		}
	}
	if res.Merged != nil && len(res.Merged.Windows) > 0 {
		if err := export.SaveClassMap(filepath.Join(dir, "merged_classes.png"), "merged texture classes", res.Merged.Windows, p.NumClasses); err != nil {
			return err
		}
	}
	return nil
}
