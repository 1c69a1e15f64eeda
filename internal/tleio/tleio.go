// Package tleio implements the element formatter external collaborator
// of spec.md §6: rendering a TLE into the standard two-line ASCII
// representation (the same lines hand a fitted TLE to go-satellite for
// propagation). The package has no parser for the reverse direction.
package tleio

import (
	"fmt"
	"math"
	"strings"

	"github.com/skywave-labs/tlefit/internal/tle"
	"github.com/skywave-labs/tlefit/internal/timeconv"
)

const deg = 180.0 / math.Pi

// Format renders t as the standard two 69-column TLE lines. Checksums
// use the standard mod-10 algorithm (digits sum, '-' counts as 1).
func Format(t tle.TLE) (line1, line2 string) {
	epochTime := timeconv.JDToTime(t.Epoch)
	year := epochTime.Year() % 100
	dayOfYear := float64(epochTime.YearDay())
	fracOfDay := float64(epochTime.Hour())/24 + float64(epochTime.Minute())/1440 + float64(epochTime.Second())/86400
	epochStr := fmt.Sprintf("%02d%012.8f", year, dayOfYear+fracOfDay)

	intl := t.IntlDesignator
	if len(intl) < 8 {
		intl = intl + strings.Repeat(" ", 8-len(intl))
	}
	class := t.Classification
	if class == 0 {
		class = 'U'
	}

	bstarStr := encodeExp(t.BStar)

	l1 := fmt.Sprintf("1 %05d%c %8s %14s %10s %8s %8s %d %4d",
		t.NoradNumber, class, intl[:8], epochStr, " .00000000", " 00000-0", bstarStr, t.Type.Digit(), 1)
	l1 = fixWidth(l1, 68)
	line1 = l1 + checksum(l1)

	l2 := fmt.Sprintf("2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d",
		t.NoradNumber, t.Inclination*deg, t.RAAN*deg, int(t.Eccentricity*1e7+0.5),
		t.ArgPerigee*deg, t.MeanAnomaly*deg, t.MeanMotion*deg*1440/360, 1)
	l2 = fixWidth(l2, 68)
	line2 = l2 + checksum(l2)
	return
}

func fixWidth(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// encodeExp renders a value in the TLE's packed decimal-exponent form,
// e.g. 0.00012345 -> " 12345-3".
func encodeExp(v float64) string {
	if v == 0 {
		return " 00000-0"
	}
	sign := byte(' ')
	if v < 0 {
		sign = '-'
		v = -v
	}
	exp := 0
	for v >= 1 {
		v /= 10
		exp++
	}
	for v < 0.1 && v > 0 {
		v *= 10
		exp--
	}
	mantissa := int(v*1e5 + 0.5)
	return fmt.Sprintf("%c%05d%+d", sign, mantissa, exp)[0:8]
}

func checksum(line string) string {
	sum := 0
	for _, c := range line {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return fmt.Sprintf("%d", sum%10)
}
