package session

import "time"

// Config holds the session configuration.
type Config struct {
	// Logger is used for logging operations (optional).
	Logger Logger

	// ProgressCallback reports progress during erase and program
	// operations (optional).
	ProgressCallback ProgressCallback

	// FrameTimeout is the per-attempt deadline for a single request/reply
	// exchange.
	FrameTimeout time.Duration

	// FrameRetries is the number of additional attempts aldl.Framer makes
	// after a frame-level failure before giving up.
	FrameRetries int

	// EraseTimeout is the deadline for a single sector-erase exchange,
	// distinct from FrameTimeout because erasing a sector takes far
	// longer than any other exchange.
	EraseTimeout time.Duration

	// ChunkSize is the maximum number of data bytes ProgramBytes will
	// accept in a single call; larger writes are the caller's (image
	// package's) responsibility to split.
	ChunkSize int

	// ProgramRetries is the number of times a single mismatched byte is
	// reprogrammed before ProgramBytes gives up on it.
	ProgramRetries int

	// HighSpeedRead selects the kernel's faster, less conservative read
	// timing when uploading exec blocks.
	HighSpeedRead bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Logger:         noopLogger{},
		FrameTimeout:   2 * time.Second,
		FrameRetries:   3,
		EraseTimeout:   3 * time.Second,
		ChunkSize:      32,
		ProgramRetries: 10,
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithLogger sets a logger for session operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithProgressCallback sets a callback to track long-running operations.
//
// Example:
//
//	s, err := session.Open(ctx, t,
//	    session.WithProgressCallback(func(p session.Progress) {
//	        fmt.Printf("%s: %d/%d\n", p.Stage, p.BytesDone, p.BytesTotal)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithFrameTimeout sets the per-attempt deadline for request/reply exchanges.
func WithFrameTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.FrameTimeout = timeout
		}
	}
}

// WithFrameRetries sets the number of additional attempts after a
// frame-level failure.
func WithFrameRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.FrameRetries = retries
		}
	}
}

// WithEraseTimeout sets the deadline for a single sector-erase exchange.
func WithEraseTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.EraseTimeout = timeout
		}
	}
}

// WithChunkSize sets the maximum data size ProgramBytes accepts per call.
// The protocol's own payload ceiling caps this at 64.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= 64 {
			c.ChunkSize = size
		}
	}
}

// WithProgramRetries sets how many times a mismatched byte is reprogrammed
// before the operation gives up on it.
func WithProgramRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.ProgramRetries = retries
		}
	}
}

// WithHighSpeedRead selects the kernel's faster read timing when uploading
// exec blocks. Default is the conservative normal-speed timing.
func WithHighSpeedRead(highSpeed bool) Option {
	return func(c *Config) {
		c.HighSpeedRead = highSpeed
	}
}
