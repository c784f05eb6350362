// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package qnnp

import (
	"log/slog"
	"os"

	"github.com/born-ml/qpool/internal/envconfig"
	"github.com/born-ml/qpool/internal/maxpool"
	"github.com/born-ml/qpool/internal/parallel"
	internalqnnp "github.com/born-ml/qpool/internal/qnnp"
)

// Context is an initialized library context.
type Context = internalqnnp.Context

// Config controls library initialization.
type Config = internalqnnp.Config

// Status classifies operator failures.
type Status = internalqnnp.Status

// Error is the error type returned by every operator call.
type Error = internalqnnp.Error

// MaxPooling is a 2D max-pooling operator over u8 NHWC tensors.
type MaxPooling = maxpool.Operator

// MaxPoolingParams is the creation-time configuration of MaxPooling.
type MaxPoolingParams = maxpool.Params

// Padding is the implicit border around each input image.
type Padding = maxpool.Padding

// Pixels is a caller-owned NHWC buffer with its pixel stride.
type Pixels = maxpool.Pixels

// ThreadPool spreads Run across goroutines.
type ThreadPool = parallel.Pool

// Failure classifications.
var (
	ErrUninitialized    = internalqnnp.ErrUninitialized
	ErrInvalidParameter = internalqnnp.ErrInvalidParameter
	ErrOutOfMemory      = internalqnnp.ErrOutOfMemory
)

// Initialize builds a library context.
func Initialize(cfg Config) (*Context, error) {
	return internalqnnp.Initialize(cfg)
}

// ConfigFromEnv builds a Config from QPOOL_* environment variables, with a
// text logger on stderr at the QPOOL_DEBUG level.
func ConfigFromEnv() Config {
	return Config{
		Logger:                slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: envconfig.LogLevel()})),
		UKernel:               envconfig.UKernel(),
		MaxIndirectionEntries: int(envconfig.MaxIndirectionEntries()),
		EagerSetup:            envconfig.EagerSetup(),
		NumThreads:            envconfig.NumThreads(),
	}
}

// CreateMaxPooling2D creates a max-pooling operator.
//
// Example:
//
//	op, err := qnnp.CreateMaxPooling2D(ctx, qnnp.MaxPoolingParams{
//	    KernelHeight: 2, KernelWidth: 2,
//	    StrideHeight: 2, StrideWidth: 2,
//	    DilationHeight: 1, DilationWidth: 1,
//	    Channels: 8, OutputMax: 255,
//	})
func CreateMaxPooling2D(ctx *Context, p MaxPoolingParams) (*MaxPooling, error) {
	return maxpool.Create(ctx, p)
}

// NewThreadPool creates a pool with the given number of workers. Zero or
// negative uses one worker per CPU.
func NewThreadPool(workers int) *ThreadPool {
	return parallel.New(parallel.Config{NumWorkers: workers})
}

// StatusOf classifies err.
func StatusOf(err error) Status {
	return internalqnnp.StatusOf(err)
}
