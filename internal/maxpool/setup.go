package maxpool

import (
	"fmt"

	"github.com/born-ml/qpool/internal/parallel"
	"github.com/born-ml/qpool/internal/qnnp"
	"github.com/born-ml/qpool/internal/tensor"
)

// geometry is the per-call state Setup writes into the Operator.
type geometry struct {
	batchSize    int
	inputHeight  int
	inputWidth   int
	input        Pixels
	outputHeight int
	outputWidth  int
	output       Pixels
	pool         *parallel.Pool
}

func (op *Operator) commit(g geometry) {
	op.batchSize = g.batchSize
	op.inputHeight = g.inputHeight
	op.inputWidth = g.inputWidth
	op.input = g.input
	op.outputHeight = g.outputHeight
	op.outputWidth = g.outputWidth
	op.output = g.output
	op.pool = g.pool
}

// Setup binds the operator to an input and output for the next Run.
//
// It derives the output geometry and rebuilds the indirection table unless
// the cached table already covers input with this shape and batch size. The
// pool is kept for Run and is not used while building the table.
//
// By default geometry is committed only after the table is ready, so a failed
// rebuild leaves the operator as it was. With eager setup the geometry is
// overwritten first, and a failed rebuild leaves it describing a table that
// does not exist; Run refuses to execute in that state.
func (op *Operator) Setup(batchSize, inputHeight, inputWidth int, input, output Pixels, pool *parallel.Pool) error {
	const opName = "setup max pooling"

	if op == nil {
		return qnnp.Errorf(qnnp.StatusInvalidParameter, opName, "nil operator")
	}
	if !op.ctx.Initialized() {
		err := qnnp.Errorf(qnnp.StatusUninitialized, opName, "library context is not initialized")
		op.ctx.Logger().Error("failed to setup max pooling", "error", err)
		return err
	}

	g, err := op.deriveGeometry(batchSize, inputHeight, inputWidth, input, output, pool)
	if err != nil {
		op.log.Error("failed to setup max pooling", "error", err)
		return err
	}

	if op.eager {
		op.commit(g)
	}

	key := InputKey{Base: input.base(), Height: inputHeight, Width: inputWidth, PixelStride: input.Stride}
	if op.validity.Covers(key, batchSize) {
		op.commit(g)
		op.log.Debug("reusing indirection buffer", "batch", batchSize, "valid_batch", op.validity.Batch())
		return nil
	}

	layout := op.params.layout(batchSize, g.outputHeight, g.outputWidth, op.kernel.Overread())
	if err := op.indirection.Resize(layout.Total()); err != nil {
		qe := &qnnp.Error{
			Status: qnnp.StatusOutOfMemory,
			Op:     opName,
			Msg:    fmt.Sprintf("failed to allocate %d entries for indirection buffer", layout.Total()),
			Err:    err,
		}
		op.log.Error("failed to setup max pooling", "error", qe)
		return qe
	}

	op.buildIndirection(layout, batchSize, inputHeight, inputWidth, input.Stride, g.outputHeight, g.outputWidth)
	op.validity = op.validity.Extend(key, batchSize)
	op.commit(g)

	op.log.Debug("built indirection buffer",
		"batch", batchSize,
		"input", []int{inputHeight, inputWidth},
		"output", []int{g.outputHeight, g.outputWidth},
		"entries", layout.Total(),
		"generation", op.indirection.Generation())
	return nil
}

// deriveGeometry checks the call arguments and computes the output extent.
func (op *Operator) deriveGeometry(batchSize, inputHeight, inputWidth int, input, output Pixels, pool *parallel.Pool) (geometry, error) {
	const opName = "setup max pooling"
	p := op.params

	if batchSize <= 0 {
		return geometry{}, qnnp.Errorf(qnnp.StatusInvalidParameter, opName,
			"batch size %d: batch size must be non-zero", batchSize)
	}
	if inputWidth <= 0 || inputHeight <= 0 {
		return geometry{}, qnnp.Errorf(qnnp.StatusInvalidParameter, opName,
			"%dx%d input: input dimensions must be non-zero", inputWidth, inputHeight)
	}

	paddedHeight := p.Padding.Top + inputHeight + p.Padding.Bottom
	paddedWidth := p.Padding.Left + inputWidth + p.Padding.Right
	effectiveHeight := EffectiveKernel(p.KernelHeight, p.DilationHeight)
	effectiveWidth := EffectiveKernel(p.KernelWidth, p.DilationWidth)
	if paddedHeight < effectiveHeight || paddedWidth < effectiveWidth {
		return geometry{}, qnnp.Errorf(qnnp.StatusInvalidParameter, opName,
			"%dx%d padded input: smaller than %dx%d dilated pooling window",
			paddedWidth, paddedHeight, effectiveWidth, effectiveHeight)
	}

	if input.Stride < p.Channels || output.Stride < p.Channels {
		return geometry{}, qnnp.Errorf(qnnp.StatusInvalidParameter, opName,
			"pixel strides %d (input) and %d (output): must be at least %d channels",
			input.Stride, output.Stride, p.Channels)
	}

	outputHeight := OutputDimension(paddedHeight, p.KernelHeight, p.DilationHeight, p.StrideHeight)
	outputWidth := OutputDimension(paddedWidth, p.KernelWidth, p.DilationWidth, p.StrideWidth)

	inShape := tensor.NHWC{Batch: batchSize, Height: inputHeight, Width: inputWidth, Channels: p.Channels}
	if need := inShape.MinLen(input.Stride); len(input.Data) < need {
		return geometry{}, qnnp.Errorf(qnnp.StatusInvalidParameter, opName,
			"input holds %d elements, %v at pixel stride %d needs %d",
			len(input.Data), inShape, input.Stride, need)
	}
	outShape := tensor.NHWC{Batch: batchSize, Height: outputHeight, Width: outputWidth, Channels: p.Channels}
	if need := outShape.MinLen(output.Stride); len(output.Data) < need {
		return geometry{}, qnnp.Errorf(qnnp.StatusInvalidParameter, opName,
			"output holds %d elements, %v at pixel stride %d needs %d",
			len(output.Data), outShape, output.Stride, need)
	}

	return geometry{
		batchSize:    batchSize,
		inputHeight:  inputHeight,
		inputWidth:   inputWidth,
		input:        input,
		outputHeight: outputHeight,
		outputWidth:  outputWidth,
		output:       output,
		pool:         pool,
	}, nil
}
