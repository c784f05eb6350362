package maxpool

import (
	"github.com/born-ml/qpool/internal/backend/cpu"
	"github.com/born-ml/qpool/internal/parallel"
	"github.com/born-ml/qpool/internal/qnnp"
)

// Run executes the max-pooling microkernel over the table prepared by the
// last Setup, writing clamped maxima to the output.
//
// A nil pool uses the one passed to Setup; if that was nil too, Run is
// sequential.
func (op *Operator) Run(pool *parallel.Pool) error {
	const opName = "run max pooling"

	if op == nil {
		return qnnp.Errorf(qnnp.StatusInvalidParameter, opName, "nil operator")
	}
	if !op.ctx.Initialized() {
		return qnnp.Errorf(qnnp.StatusUninitialized, opName, "library context is not initialized")
	}

	key := InputKey{Base: op.input.base(), Height: op.inputHeight, Width: op.inputWidth, PixelStride: op.input.Stride}
	if op.batchSize == 0 || !op.validity.Covers(key, op.batchSize) {
		err := qnnp.Errorf(qnnp.StatusInvalidParameter, opName, "operator is not set up for batch %d", op.batchSize)
		op.log.Error("failed to run max pooling", "error", err)
		return err
	}

	if pool == nil {
		pool = op.pool
	}

	p := op.params
	l := op.Layout()
	slots := op.indirection.Slots()
	rowPixels := op.outputWidth * op.output.Stride

	return pool.For2D(op.batchSize, op.outputHeight, func(image, oy int) error {
		row := image*op.outputHeight + oy
		cpu.U8MaxPool(op.kernel, cpu.U8MaxPoolRow{
			Input:        op.input.Data,
			Slots:        slots[row*l.RowSlots:],
			Step:         l.WidthStep * p.KernelHeight,
			PoolingSize:  p.PoolingSize(),
			Channels:     p.Channels,
			Output:       op.output.Data[row*rowPixels:],
			OutputStride: op.output.Stride,
			OutputWidth:  op.outputWidth,
			Quant:        op.quant,
		})
		return nil
	})
}
