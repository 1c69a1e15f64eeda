// Command vec2tle fits a two-line element set to a stream of Cartesian
// state vectors: bootstrap, simplex, and Levenberg-Marquardt refinement
// over successive windows of an input ephemeris file, mirroring the
// original vec2tle command-line tool's flag surface.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/skywave-labs/tlefit/internal/config"
	"github.com/skywave-labs/tlefit/internal/ephemeris"
	"github.com/skywave-labs/tlefit/internal/fitdriver"
	"github.com/skywave-labs/tlefit/internal/obslog"
	"github.com/skywave-labs/tlefit/internal/propagator"
	"github.com/skywave-labs/tlefit/internal/tle"
)

var (
	confFile       = flag.String("conf", "", "TOML configuration file (viper)")
	adjustToApogee = flag.Bool("a", false, "adjust bootstrap candidate to apogee before propagating back to epoch")
	verbose        = flag.Int("v", 0, "verbosity level")
	outputFile     = flag.String("o", "", "output file (default stdout)")
	outputFreq     = flag.Int("f", 1, "number of ephemeris lines per fit window")
	forceSGP4      = flag.Bool("g", false, "force SGP4 tagging, even for deep-space windows")
	sevenParams    = flag.Bool("7", false, "fit bstar as a seventh parameter")
	useSGP8        = flag.Bool("8", false, "use the SGP8 adapter (same go-satellite SGP4/SDP4 model; no eighth-order model)")
	paramsToSet    = flag.Int("p", 0, "reserved: number of satellite params to set (no effect)")
	lambdaSpec     = flag.String("l", "", "levenberg_marquardt_lambda0[,damped_iterations]")
	noradDesig     = flag.String("n", "", "NORAD catalog number override")
	intlDesig      = flag.String("i", "", "international designator override")
	iterations     = flag.Int("z", 15, "number of least-squares iterations")
	highPrecision  = flag.Bool("h", false, "high-precision passthrough mode (no propagation model)")
	rngSeed        = flag.Int("r", 0, "RNG seed (reserved for the out-of-scope dispersion companion tool)")
)

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal("usage: vec2tle [flags] <input-ephemeris-file>")
	}

	run, err := config.Load(*confFile)
	if err != nil {
		log.Fatal(err)
	}
	applyFlagOverrides(&run)

	inputPath := flag.Arg(0)
	inFile, err := os.Open(inputPath)
	if err != nil {
		log.Fatalf("%s not found", inputPath)
	}
	defer inFile.Close()

	preambleFile, err := os.Open(inputPath)
	if err != nil {
		log.Fatalf("%s not found (preamble pass)", inputPath)
	}
	comments, ids, err := ephemeris.ScanPreamble(preambleFile)
	preambleFile.Close()
	if err != nil {
		log.Fatalf("error scanning preamble: %s", err)
	}
	if run.NoradNumber != 99999 {
		ids.NoradNumber = run.NoradNumber
	}
	if run.IntlDesignator != "" {
		ids.IntlDesignator = run.IntlDesignator
	}

	reader, err := ephemeris.NewReader(inFile)
	if err != nil {
		log.Fatalf("error reading header: %s", err)
	}

	out := os.Stdout
	if run.OutputPath != "" {
		f, err := os.Create(run.OutputPath)
		if err != nil {
			log.Fatalf("output not opened: %s", err)
		}
		defer f.Close()
		out = f
	}

	mjdStart := reader.Header.FirstJDTDT - 2400000.5
	mjdEnd := mjdStart + reader.Header.StepDays*float64(reader.Header.TotalLines)
	writer := ephemeris.NewWriter(out, comments, mjdStart, mjdEnd, reader.Header.StepDays*float64(run.OutputFreq)*1440.0)
	if run.ForceSGP4 {
		fmt.Fprintln(out, "# SGP4 only: these TLEs are _not_ fitted to SDP4, even for")
		fmt.Fprintln(out, "# deep-space TLEs. These may not work with your software.")
	}

	var prop propagator.Propagator
	switch {
	case run.HighPrecision:
		prop = propagator.HighPrecision{}
	case run.UseSGP8:
		prop = propagator.DeepSpaceSGP8{Adapter: propagator.Adapter{ForceSGP4: run.ForceSGP4}}
	default:
		prop = propagator.Adapter{ForceSGP4: run.ForceSGP4}
	}

	logger := obslog.New("vec2tle")
	driver := fitdriver.New(prop, run, logger)

	nWindows := reader.Header.TotalLines / run.OutputFreq
	for i := 0; i < nWindows; i++ {
		window, err := reader.ReadWindow(run.OutputFreq, reader.Header.StepDays)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("error reading window %d: %s", i, err)
		}

		result := driver.FitWindow(window, tle.Identifiers{
			NoradNumber:    ids.NoradNumber,
			IntlDesignator: ids.IntlDesignator,
			Classification: 'U',
		})
		if result.Failed {
			continue
		}
		mjd := window.CentralEpochJDUTC() - 2400000.5
		writer.WriteWindow(mjd, result.WorstResidKm, ids.ObjectName, result.TLE)
	}
	writer.WriteSummary()
}

func applyFlagOverrides(run *config.Run) {
	run.AdjustToApogee = run.AdjustToApogee || *adjustToApogee
	run.Verbosity = *verbose
	run.OutputPath = firstNonEmpty(*outputFile, run.OutputPath)
	if *outputFreq != 1 {
		run.OutputFreq = *outputFreq
	}
	run.ForceSGP4 = run.ForceSGP4 || *forceSGP4
	if *sevenParams {
		run.ParamCount = 7
	}
	run.UseSGP8 = run.UseSGP8 || *useSGP8
	run.ParamsToSet = *paramsToSet
	if *lambdaSpec != "" {
		var damped int
		lambda := 0.0
		fmt.Sscanf(*lambdaSpec, "%f,%d", &lambda, &damped)
		run.Lambda0 = lambda
		run.DampedIterations = damped
	}
	if *noradDesig != "" {
		fmt.Sscanf(*noradDesig, "%d", &run.NoradNumber)
	}
	if *intlDesig != "" {
		run.IntlDesignator = *intlDesig
	}
	if *iterations != 15 {
		run.Iterations = *iterations
	}
	run.HighPrecision = run.HighPrecision || *highPrecision
	_ = *rngSeed // reserved for the out-of-scope dispersion companion tool
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
