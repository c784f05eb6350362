// Package maxpool implements creation and setup of the 8-bit quantized NHWC
// 2D max-pooling operator.
//
// Setup derives the output geometry and prepares an indirection table: for
// every output pixel, the offsets of the input pixels in its window, arranged
// so the microkernel walks them as one stream. Windows that overhang the
// padded border point at the nearest real edge pixel instead of a synthetic
// zero; a replicated edge pixel is already inside the window, so it can never
// raise the maximum.
//
// The table is cached: a later Setup on the same input with the same shape
// and a batch no larger than any batch seen before reuses it untouched.
//
// Example:
//
//	ctx, _ := qnnp.Initialize(qnnp.Config{})
//	op, err := maxpool.Create(ctx, maxpool.Params{
//	    KernelHeight: 2, KernelWidth: 2,
//	    StrideHeight: 2, StrideWidth: 2,
//	    DilationHeight: 1, DilationWidth: 1,
//	    Channels: 16, OutputMax: 255,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer op.Delete()
//	err = op.Setup(1, 8, 8, maxpool.Pixels{Data: in, Stride: 16}, maxpool.Pixels{Data: out, Stride: 16}, nil)
//	err = op.Run(nil)
package maxpool

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/born-ml/qpool/internal/indirection"
	"github.com/born-ml/qpool/internal/parallel"
	"github.com/born-ml/qpool/internal/qnnp"
	"github.com/born-ml/qpool/internal/tensor"
)

// Pixels is a caller-owned NHWC buffer and the distance between its pixels.
type Pixels struct {
	Data   []uint8
	Stride int
}

// base returns the identity of the buffer's first element.
func (p Pixels) base() *uint8 {
	if len(p.Data) == 0 {
		return nil
	}
	return &p.Data[0]
}

// Operator is a max-pooling layer instance.
//
// Static configuration is fixed at Create. Setup updates the per-call fields
// and the indirection table. An Operator is not safe for concurrent Setup
// calls; distinct Operators share no mutable state.
type Operator struct {
	id  uuid.UUID
	ctx *qnnp.Context
	log *slog.Logger

	params  Params
	quant   qnnp.MaxPoolQuantizationParams
	format  tensor.DataType
	ukernel qnnp.UKernelType
	kernel  qnnp.MaxPoolParams
	eager   bool

	batchSize    int
	inputHeight  int
	inputWidth   int
	input        Pixels
	outputHeight int
	outputWidth  int
	output       Pixels
	pool         *parallel.Pool

	validity    Validity
	indirection *indirection.Buffer
}

// Option customizes an Operator at creation.
type Option func(*Operator)

// WithAllocator replaces the allocator backing the indirection table.
func WithAllocator(a indirection.Allocator) Option {
	return func(op *Operator) {
		op.indirection = indirection.New(a)
	}
}

// WithEagerSetup selects whether Setup overwrites output geometry before the
// indirection table is rebuilt. Overrides the context default.
func WithEagerSetup(eager bool) Option {
	return func(op *Operator) {
		op.eager = eager
	}
}

// Create validates p and returns a new Operator.
func Create(ctx *qnnp.Context, p Params, opts ...Option) (*Operator, error) {
	var op *Operator
	logger := ctx.Logger()

	if !ctx.Initialized() {
		err := qnnp.Errorf(qnnp.StatusUninitialized, "create max pooling", "library context is not initialized")
		logger.Error("failed to create max pooling", "error", err)
		op.Delete()
		return nil, err
	}

	if err := p.Validate(); err != nil {
		logger.Error("failed to create max pooling", "error", err)
		op.Delete()
		return nil, err
	}

	cfg := ctx.Config()
	op = &Operator{
		id:          uuid.New(),
		ctx:         ctx,
		params:      p,
		quant:       qnnp.ComputeMaxPoolQuantizationParams(p.OutputMin, p.OutputMax),
		format:      tensor.QUInt8,
		ukernel:     qnnp.UKernelMaxPooling,
		kernel:      ctx.U8MaxPool,
		eager:       cfg.EagerSetup,
		indirection: indirection.New(indirection.HeapAllocator{MaxEntries: cfg.MaxIndirectionEntries}),
	}
	for _, opt := range opts {
		opt(op)
	}
	op.log = logger.With("operator", op.id.String(), "ukernel", op.ukernel.String())

	op.log.Debug("created max pooling",
		"kernel", []int{p.KernelHeight, p.KernelWidth},
		"stride", []int{p.StrideHeight, p.StrideWidth},
		"dilation", []int{p.DilationHeight, p.DilationWidth},
		"channels", p.Channels)
	return op, nil
}

// Delete releases the indirection table. It tolerates a nil Operator and
// repeated calls.
func (op *Operator) Delete() {
	if op == nil {
		return
	}
	op.indirection.Release()
	op.validity = Validity{}
	op.input = Pixels{}
	op.output = Pixels{}
}

// ID returns the operator's unique identifier.
func (op *Operator) ID() uuid.UUID { return op.id }

// Params returns the creation-time configuration.
func (op *Operator) Params() Params { return op.params }

// QuantizationParams returns the output clamp.
func (op *Operator) QuantizationParams() qnnp.MaxPoolQuantizationParams { return op.quant }

// Format returns the element format tag.
func (op *Operator) Format() tensor.DataType { return op.format }

// UKernelType returns the microkernel family tag.
func (op *Operator) UKernelType() qnnp.UKernelType { return op.ukernel }

// BatchSize returns the batch size of the last Setup.
func (op *Operator) BatchSize() int { return op.batchSize }

// InputShape returns the input shape of the last Setup.
func (op *Operator) InputShape() tensor.NHWC {
	return tensor.NHWC{Batch: op.batchSize, Height: op.inputHeight, Width: op.inputWidth, Channels: op.params.Channels}
}

// OutputShape returns the output shape derived by the last Setup.
func (op *Operator) OutputShape() tensor.NHWC {
	return tensor.NHWC{Batch: op.batchSize, Height: op.outputHeight, Width: op.outputWidth, Channels: op.params.Channels}
}

// Validity returns the current cache state of the indirection table.
func (op *Operator) Validity() Validity { return op.validity }

// Indirection returns the indirection table. Callers must not mutate it.
func (op *Operator) Indirection() *indirection.Buffer { return op.indirection }
