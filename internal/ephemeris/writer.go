package ephemeris

import (
	"fmt"
	"io"

	"github.com/skywave-labs/tlefit/internal/tle"
	"github.com/skywave-labs/tlefit/internal/tleio"
)

// histoDivs are the histogram bin upper bounds in kilometers, taken
// verbatim from the original's histo_divs table.
var histoDivs = [10]int{1, 3, 10, 30, 100, 300, 1000, 3000, 10000, 30000}

// Writer accumulates per-window diagnostics and TLE output, then emits
// the run-final histogram table, mirroring the original's ofile stream
// plus its trailing worst-residual/histogram summary.
type Writer struct {
	w             io.Writer
	histoCounts   [10]int
	worstResidRun float64
	worstMJD      float64
	linesWritten  int
}

// NewWriter writes the fixed comment header (run banner, column legend)
// that opens every vec2tle-style output file.
func NewWriter(w io.Writer, comments []string, ephemRangeMJDStart, ephemRangeMJDEnd, stepMinutes float64) *Writer {
	fmt.Fprintf(w, "# Made by tlefit\n")
	for _, c := range comments {
		fmt.Fprintf(w, "# %s\n", c)
	}
	fmt.Fprintf(w, "# Ephem range: %f %f %f\n", ephemRangeMJDStart, ephemRangeMJDEnd, stepMinutes)
	fmt.Fprintf(w, "#\n")
	fmt.Fprintf(w, "# 1 NoradU COSPAR   Epoch.epoch     dn/dt/2  d2n/dt2/6 BSTAR    T El# C\n")
	fmt.Fprintf(w, "# 2 NoradU Inclina RAAscNode Eccent  ArgPeri MeanAno  MeanMotion Rev# C\n")
	return &Writer{w: w}
}

// WriteWindow emits one window's diagnostic block: the worst residual
// seen for that window, followed by the fitted TLE's two lines.
func (wr *Writer) WriteWindow(mjd float64, worstResidKm float64, objectName string, t tle.TLE) {
	fmt.Fprintf(wr.w, "\n# Worst residual: %.2f km\n", worstResidKm)
	if objectName != "" {
		fmt.Fprintf(wr.w, "%s\n", objectName)
	}
	l1, l2 := tleio.Format(t)
	fmt.Fprintf(wr.w, "%s\n%s\n", l1, l2)

	if worstResidKm > wr.worstResidRun {
		wr.worstResidRun = worstResidKm
		wr.worstMJD = mjd
	}
	idx := 0
	for idx < len(histoDivs)-1 && worstResidKm > float64(histoDivs[idx]) {
		idx++
	}
	wr.histoCounts[idx]++
	wr.linesWritten++
}

// WriteSummary emits the run-final "Worst residual in entire run"
// line and the histogram table, exactly matching the original's
// trailing output.
func (wr *Writer) WriteSummary() {
	fmt.Fprintf(wr.w, "Worst residual in entire run: %.2f km on MJD %.1f\n", wr.worstResidRun, wr.worstMJD)
	fmt.Fprint(wr.w, "       ")
	for i := 0; i < len(histoDivs)-1; i++ {
		fmt.Fprintf(wr.w, "%-6d", histoDivs[i])
	}
	fmt.Fprint(wr.w, "km\n")
	for i := 0; i < len(histoDivs); i++ {
		fmt.Fprintf(wr.w, "%6d", wr.histoCounts[i])
	}
	fmt.Fprint(wr.w, "\n")
}
