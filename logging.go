package assembler

import log "github.com/sirupsen/logrus"

// logger is the package-level logger for an assembly pass. No log line is
// load-bearing for correctness; it exists purely to trace the pass the way
// go-corset traces a compilation pipeline.
var logger = log.New()

func init() {
	logger.SetLevel(log.WarnLevel)
}

// setVerbosity raises the logger to Trace level when verbose tracing is
// requested, matching go-corset's pkg/cmd/corset/debug.go convention of a
// single verbosity toggle gating WithField/Debug/Trace calls.
func setVerbosity(verbose bool) {
	if verbose {
		logger.SetLevel(log.TraceLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
}
