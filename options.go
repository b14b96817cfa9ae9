package assembler

// Options carries the handful of toggles AssembleUnit's caller may set,
// following the teacher's config.go convention of a struct assembled with
// chainable With* setters rather than variadic functional options.
type Options struct {
	// Verbose gates Debug/Trace-level tracing of the assembly pass. No log
	// line it produces affects the resulting image.
	Verbose bool

	// Strict additionally runs internal/verify's structural checks against
	// the finished image before returning it, turning a relocation or
	// sentinel defect that would otherwise only surface downstream (in a
	// linker or the VM) into an assembly-time error.
	Strict bool
}

// DefaultOptions returns the zero-value Options: quiet, non-strict.
func DefaultOptions() Options {
	return Options{}
}

// WithVerbose returns a copy of o with Verbose set.
func (o Options) WithVerbose(verbose bool) Options {
	o.Verbose = verbose
	return o
}

// WithStrict returns a copy of o with Strict set.
func (o Options) WithStrict(strict bool) Options {
	o.Strict = strict
	return o
}
