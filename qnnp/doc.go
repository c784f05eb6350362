// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package qnnp provides quantized neural network operators for 8-bit NHWC
// tensors.
//
// # Overview
//
// Operators follow a create/setup/run lifecycle:
//   - Create validates the static configuration once per layer
//   - Setup binds input and output buffers for a call and prepares the
//     indirection table the microkernel walks; it is cheap when the input
//     and shape repeat
//   - Run executes the microkernel, optionally on a thread pool
//
// # Basic Usage
//
//	import "github.com/born-ml/qpool/qnnp"
//
//	func main() {
//	    ctx, err := qnnp.Initialize(qnnp.ConfigFromEnv())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    op, err := qnnp.CreateMaxPooling2D(ctx, qnnp.MaxPoolingParams{
//	        KernelHeight: 3, KernelWidth: 3,
//	        StrideHeight: 2, StrideWidth: 2,
//	        DilationHeight: 1, DilationWidth: 1,
//	        Channels: 64, OutputMax: 255,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer op.Delete()
//
//	    pool := qnnp.NewThreadPool(0)
//	    in := qnnp.Pixels{Data: input, Stride: 64}
//	    out := qnnp.Pixels{Data: output, Stride: 64}
//	    if err := op.Setup(batch, 56, 56, in, out, pool); err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := op.Run(nil); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Errors
//
// Every failure matches one of ErrUninitialized, ErrInvalidParameter or
// ErrOutOfMemory under errors.Is.
//
// # Thread Safety
//
// An operator must not be set up concurrently with itself. Distinct operators
// are independent.
package qnnp
