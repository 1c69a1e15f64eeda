// Package config reads run-level fit-driver switches, following the
// teacher's cmd/od pattern: github.com/spf13/viper backing a TOML file,
// with flag package overrides layered on top by cmd/vec2tle.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Run holds every switch vec2tle.cpp accepts on its command line,
// resolved from a TOML file (if present) and then overridden by
// whatever cmd/vec2tle's flags supply.
type Run struct {
	// OutputFreq is the number of ephemeris lines per fit window
	// (the original's "-f", output_freq).
	OutputFreq int
	// AdjustToApogee mirrors "-a".
	AdjustToApogee bool
	// ForceSGP4 mirrors "-g": tag every fitted TLE as SGP4-only.
	ForceSGP4 bool
	// UseSGP8 mirrors "-8": cmd/vec2tle then propagates through
	// propagator.DeepSpaceSGP8, which runs the same go-satellite
	// SGP4/SDP4 model as the default adapter. Kept independent of
	// ParamCount per the resolved n_params/use_eight coupling ambiguity.
	UseSGP8 bool
	// ParamCount mirrors "-7": 6 (elements only) or 7 (elements+bstar).
	ParamCount int
	// HighPrecision mirrors "-h".
	HighPrecision bool
	// Iterations mirrors "-z", the least-squares iteration count.
	Iterations int
	// Lambda0 and DampedIterations mirror "-l<lambda>,<n_damped>".
	Lambda0          float64
	DampedIterations int
	// NoradNumber and IntlDesignator mirror "-n"/"-i" overrides; the
	// default NoradNumber 99999 / an empty IntlDesignator means "use
	// whatever the ephemeris file's preamble scraped".
	NoradNumber    int
	IntlDesignator string
	// ParamsToSet is the original's reserved "-p" switch: accepted,
	// never consulted (Open Question c).
	ParamsToSet int
	// Verbosity mirrors "-v<n>".
	Verbosity int
	// OutputPath is the destination file for the fitted TLE stream;
	// empty means stdout, mirroring the original's default ofile.
	OutputPath string
}

// Defaults returns the original's compiled-in defaults before any TOML
// file or flag override is applied.
func Defaults() Run {
	return Run{
		OutputFreq:  1,
		ParamCount:  6,
		Iterations:  15,
		NoradNumber: 99999,
	}
}

// Load reads a TOML configuration file at path (if non-empty) into a
// Run seeded with Defaults, the same viper.ReadInConfig pattern the
// teacher's cmd/od uses for its scenario file.
func Load(path string) (Run, error) {
	run := Defaults()
	if path == "" {
		return run, nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return run, fmt.Errorf("config: %s: %w", path, err)
	}

	if viper.IsSet("fit.output_freq") {
		run.OutputFreq = viper.GetInt("fit.output_freq")
	}
	if viper.IsSet("fit.adjust_to_apogee") {
		run.AdjustToApogee = viper.GetBool("fit.adjust_to_apogee")
	}
	if viper.IsSet("fit.force_sgp4") {
		run.ForceSGP4 = viper.GetBool("fit.force_sgp4")
	}
	if viper.IsSet("fit.use_sgp8") {
		run.UseSGP8 = viper.GetBool("fit.use_sgp8")
	}
	if viper.IsSet("fit.param_count") {
		run.ParamCount = viper.GetInt("fit.param_count")
	}
	if viper.IsSet("fit.high_precision") {
		run.HighPrecision = viper.GetBool("fit.high_precision")
	}
	if viper.IsSet("fit.iterations") {
		run.Iterations = viper.GetInt("fit.iterations")
	}
	if viper.IsSet("fit.lambda0") {
		run.Lambda0 = viper.GetFloat64("fit.lambda0")
	}
	if viper.IsSet("fit.damped_iterations") {
		run.DampedIterations = viper.GetInt("fit.damped_iterations")
	}
	if viper.IsSet("identity.norad_number") {
		run.NoradNumber = viper.GetInt("identity.norad_number")
	}
	if viper.IsSet("identity.intl_designator") {
		run.IntlDesignator = viper.GetString("identity.intl_designator")
	}
	if viper.IsSet("fit.params_to_set") {
		run.ParamsToSet = viper.GetInt("fit.params_to_set")
	}
	if viper.IsSet("output.path") {
		run.OutputPath = viper.GetString("output.path")
	}
	return run, nil
}
