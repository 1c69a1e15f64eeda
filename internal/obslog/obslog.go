// Package obslog wraps go-kit/kit/log the way the teacher's
// OrbitEstimate does: a logfmt logger over a synchronized stdout writer,
// tagged per run with a "run" key-value pair, so concurrent fit-driver
// windows never interleave partial log lines.
package obslog

import (
	"os"

	kitlog "github.com/go-kit/kit/log"
)

// New returns a logfmt logger tagged with the given run label.
func New(run string) kitlog.Logger {
	l := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	return kitlog.With(l, "ts", kitlog.DefaultTimestampUTC, "run", run)
}

// Window returns a child logger scoped to one fit window, additionally
// tagged with its index.
func Window(base kitlog.Logger, index int) kitlog.Logger {
	return kitlog.With(base, "window", index)
}
