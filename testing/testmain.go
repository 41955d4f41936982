// Package testing provides the hardware rig shared by the display tests.
package testing

import (
	"flag"
	"os"
	"testing"

	"golang.org/x/exp/slog"

	"github.com/clktmr/exynos/debug"
)

var logLevel = flag.String("exynos.log", "", "log driver messages of at least this `level` (debug, info, warn, error)")

// TestMain should be used as TestMain for tests using a Rig.  Driver logs
// are discarded unless requested with -exynos.log.
func TestMain(m *testing.M) {
	flag.Parse()

	var level slog.Level
	if *logLevel == "" {
		debug.SetLogger(debug.Discard())
	} else if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		println("invalid log level:", err.Error())
		os.Exit(2)
	} else {
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		debug.SetLogger(slog.New(h))
	}

	os.Exit(m.Run())
}
