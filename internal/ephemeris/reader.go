// Package ephemeris implements the input/output file format collaborators
// of spec.md §6: parsing the state-vector ephemeris file the fit driver
// consumes, and writing the per-window diagnostic blocks and TLE stream
// the driver produces. Grounded directly in vec2tle.cpp's file-handling
// section (the header line, comment passthrough, "Orbital elements: "
// scraping, and the histogram table at the end of a run).
package ephemeris

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/skywave-labs/tlefit/internal/fiterrors"
	"github.com/skywave-labs/tlefit/internal/statevec"
	"github.com/skywave-labs/tlefit/internal/timeconv"
)

const (
	jan1956 = 2435473.5
	jan2050 = 2469807.5
)

// Header is the ephemeris file's first line: the TDT Julian Date of the
// first data line, the step between successive lines in days, and the
// total number of data lines that follow.
type Header struct {
	FirstJDTDT float64
	StepDays   float64
	TotalLines int
}

// Identifiers are scraped from an "Orbital elements: " comment line, the
// way a Find_Orb-style ephemeris file names its object, mirroring the
// original's NORAD-number and international-designator scraping.
type Identifiers struct {
	ObjectName     string
	NoradNumber    int
	IntlDesignator string
}

// DataLine is one line of the ephemeris body: a TDT Julian Date and a
// state vector in AU / AU-per-day, precessed from J2000 to the mean
// equator and equinox of the line's own date.
type DataLine struct {
	JDTDT float64
	JDUTC float64
	State statevec.State
}

// Window groups StepMinutes-spaced DataLines into a fixed-size batch, one
// per fit-driver iteration, with the central line's date used as the
// window's nominal epoch (spec.md §9's "central-vector epoch selection").
type Window struct {
	Lines       []DataLine
	StepMinutes float64
}

// CentralEpochJDUTC returns the UTC Julian Date of the window's middle
// data line, the epoch a fitted TLE for this window should carry.
func (w Window) CentralEpochJDUTC() float64 {
	return w.Lines[len(w.Lines)/2].JDUTC
}

// States returns the window's state vectors alone, for handing to
// internal/simplex or internal/leastsquares.
func (w Window) States() []statevec.State {
	out := make([]statevec.State, len(w.Lines))
	for i, l := range w.Lines {
		out[i] = l.State
	}
	return out
}

// Reader incrementally parses an ephemeris file: the header, then the
// windowed data body. The free-text pass (scraping identifiers and
// collecting passthrough comment lines) is ScanPreamble's job; NewReader
// and ReadWindow never fill Comments or Identifiers.
type Reader struct {
	br     *bufio.Reader
	Header Header
	// Comments has room for the lines ScanPreamble returns (every line
	// from the first "Created " marker onward, mirroring the original's
	// writing_data latch); no Reader method sets it.
	Comments    []string
	Identifiers Identifiers
}

// NewReader parses r's header line and preamble, then rewinds is not
// possible on a streaming io.Reader; callers that need the full-file
// preamble scan (as the original does via fseek) should pass a
// re-openable source, e.g. by wrapping a re-read of the same file, via
// ScanPreamble followed by NewReader on a fresh handle. NewReader alone
// only consumes the header line and positions the body cursor
// immediately after it, matching the original's second (real) pass.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	line, err := readLine(br)
	if err != nil {
		return nil, &fiterrors.InputParseError{Line: 1, Raw: line, Err: err}
	}
	h, err := parseHeader(line)
	if err != nil {
		return nil, &fiterrors.InputParseError{Line: 1, Raw: line, Err: err}
	}
	return &Reader{br: br, Header: h}, nil
}

// ScanPreamble performs the original's first pass: read every remaining
// line, latch comment passthrough at the first "Created " line, and
// scrape identifiers from any "Orbital elements: " line. It is intended
// to run against a separate handle to the same file, opened before the
// real NewReader pass, since preamble content in a Find_Orb-style
// ephemeris file precedes the numeric body that NewReader's caller will
// then re-parse from a fresh handle.
func ScanPreamble(r io.Reader) (comments []string, ids Identifiers, err error) {
	br := bufio.NewReader(r)
	// discard the header line; the preamble scan starts after it,
	// exactly as the original's initial fgets before the while loop.
	if _, err := readLine(br); err != nil {
		return nil, Identifiers{}, nil
	}
	writingData := false
	for {
		line, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return comments, ids, err
		}
		if strings.HasPrefix(line, "Created ") {
			writingData = true
		}
		if writingData && !strings.HasPrefix(line, "#") {
			comments = append(comments, line)
		}
		if strings.HasPrefix(line, "Orbital elements: ") {
			name := strings.TrimSpace(line[len("Orbital elements: "):])
			ids.ObjectName = name
			if ids.NoradNumber == 0 {
				if idx := strings.Index(name, "NORAD "); idx >= 0 {
					digits := strings.TrimFunc(firstToken(name[idx+len("NORAD "):]), func(r rune) bool {
						return r < '0' || r > '9'
					})
					ids.NoradNumber, _ = strconv.Atoi(digits)
				}
			}
			if ids.IntlDesignator == "" {
				if desig := scrapeIntlDesignator(name); desig != "" {
					ids.IntlDesignator = desig
				}
			}
		}
	}
	return comments, ids, nil
}

// scrapeIntlDesignator looks for a substring shaped like "1998-067A ", the
// international designator format, mirroring the original's scan for a
// 4-digit year followed by '-' and a positive launch number.
func scrapeIntlDesignator(s string) string {
	for i := 0; i+4 < len(s); i++ {
		year, err := strconv.Atoi(s[i : i+4])
		if err != nil || year <= 1900 || s[i+4] != '-' {
			continue
		}
		rest := s[i+5:]
		launch := firstToken(rest)
		if n, err := strconv.Atoi(strings.TrimRight(launch, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")); err == nil && n > 0 {
			yy := fmt.Sprintf("%02d", year%100)
			launchPadded := fmt.Sprintf("%04s", strings.TrimRight(launch, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
			launchPadded = strings.ReplaceAll(launchPadded, " ", "0")
			return yy + launchPadded
		}
	}
	return ""
}

func firstToken(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			return s[:i]
		}
	}
	return s
}

func parseHeader(line string) (Header, error) {
	var h Header
	n, err := fmt.Sscanf(line, "%f %f %d", &h.FirstJDTDT, &h.StepDays, &h.TotalLines)
	if err != nil || n != 3 {
		return Header{}, fmt.Errorf("ephemeris: malformed header %q", line)
	}
	return h, nil
}

// ReadWindow reads and precesses the next outputFreq data lines,
// validating each against the [1956, 2050] Julian Date range the
// original enforces (TLEs are not considered meaningful outside it).
// It returns io.EOF when no line remains; a window cut short by the end
// of input is reported as an InputParseError.
func (rd *Reader) ReadWindow(outputFreq int, stepDays float64) (Window, error) {
	lines := make([]DataLine, 0, outputFreq)
	for i := 0; i < outputFreq; i++ {
		raw, err := readLine(rd.br)
		if err == io.EOF {
			if i == 0 {
				return Window{}, io.EOF
			}
			return Window{}, &fiterrors.InputParseError{Line: i, Raw: raw, Err: io.ErrUnexpectedEOF}
		}
		if err != nil {
			return Window{}, &fiterrors.InputParseError{Line: i, Raw: raw, Err: err}
		}

		var jdt float64
		var v [6]float64
		n, err := fmt.Sscanf(raw, "%f %f %f %f %f %f %f", &jdt, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5])
		if err != nil || n != 7 {
			return Window{}, &fiterrors.InputParseError{Line: i, Raw: raw, Err: fmt.Errorf("expected 7 fields, got %d", n)}
		}
		if jdt < jan1956 || jdt > jan2050 {
			return Window{}, &fiterrors.EphemerisOutOfRange{JulianDate: jdt}
		}

		jdUTC := jdt - timeconv.TDMinusUTC(jdt)/86400.0
		toYear := 2000.0 + (jdUTC-2451545.0)/365.25
		m := timeconv.PrecessionMatrix(2000.0, toYear)
		pos := timeconv.PrecessVector(m, [3]float64{v[0], v[1], v[2]})
		vel := timeconv.PrecessVector(m, [3]float64{v[3], v[4], v[5]})

		lines = append(lines, DataLine{
			JDTDT: jdt,
			JDUTC: jdUTC,
			State: statevec.State{pos[0], pos[1], pos[2], vel[0], vel[1], vel[2]},
		})
	}
	return Window{Lines: lines, StepMinutes: stepDays * statevec.MinutesPerDay}, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err == io.EOF && line == "" {
		return "", io.EOF
	}
	if err != nil && err != io.EOF {
		return line, err
	}
	return line, nil
}
