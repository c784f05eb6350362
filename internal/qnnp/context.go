// Package qnnp holds the library context shared by quantized operators: the
// microkernel parameters picked for the host, the logger, and the failure
// classification every operator reports.
package qnnp

import (
	"io"
	"log/slog"
)

// Config controls how a Context is initialized.
type Config struct {
	Logger *slog.Logger // Diagnostics sink; nil discards output

	// UKernel forces a max-pool microkernel ("sse2", "neon", "scalar").
	// Empty selects from the host CPU features.
	UKernel string

	// MaxIndirectionEntries caps the indirection table of any operator
	// created under this context. Zero means no cap.
	MaxIndirectionEntries int

	// EagerSetup makes Setup overwrite output geometry before the indirection
	// table is rebuilt, so a failed rebuild leaves the new geometry behind.
	// The default commits geometry only once the table is ready.
	EagerSetup bool

	NumThreads int // Worker count for thread pools built from this config
}

// Context replaces process-wide library state. Operators are created against
// a Context and check it on every call.
type Context struct {
	initialized bool
	logger      *slog.Logger
	config      Config

	U8MaxPool MaxPoolParams
}

// Initialize builds a ready Context.
func Initialize(cfg Config) (*Context, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if cfg.MaxIndirectionEntries < 0 {
		err := Errorf(StatusInvalidParameter, "initialize", "negative indirection cap %d", cfg.MaxIndirectionEntries)
		logger.Error("failed to initialize", "error", err)
		return nil, err
	}

	kernel, err := lookupMaxPoolKernel(cfg.UKernel)
	if err != nil {
		qe := &Error{Status: StatusInvalidParameter, Op: "initialize", Msg: "microkernel selection failed", Err: err}
		logger.Error("failed to initialize", "error", qe)
		return nil, qe
	}

	logger.Debug("initialized", "u8maxpool", kernel.Name, "mr", kernel.MR, "qr", kernel.QR, "kr", kernel.KR)
	return &Context{
		initialized: true,
		logger:      logger,
		config:      cfg,
		U8MaxPool:   kernel,
	}, nil
}

// Initialized reports whether c is usable. A nil Context is not.
func (c *Context) Initialized() bool {
	return c != nil && c.initialized
}

// Logger returns the context logger, falling back to slog.Default for a nil
// Context so that "not initialized" failures can still be reported.
func (c *Context) Logger() *slog.Logger {
	if c == nil || c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// Config returns the configuration c was initialized with.
func (c *Context) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}
