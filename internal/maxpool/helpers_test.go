package maxpool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/qpool/internal/indirection"
	"github.com/born-ml/qpool/internal/qnnp"
	"github.com/born-ml/qpool/internal/tensor"
)

func newContext(t *testing.T, cfg qnnp.Config) *qnnp.Context {
	t.Helper()
	if cfg.UKernel == "" {
		cfg.UKernel = qnnp.UKernelScalar
	}
	ctx, err := qnnp.Initialize(cfg)
	require.NoError(t, err)
	return ctx
}

func newOperator(t *testing.T, ctx *qnnp.Context, p Params, opts ...Option) *Operator {
	t.Helper()
	op, err := Create(ctx, p, opts...)
	require.NoError(t, err)
	t.Cleanup(op.Delete)
	return op
}

// patternInput fills an NHWC buffer with a non-monotonic byte pattern so that
// window maxima are not always the last pixel.
func patternInput(shape tensor.NHWC, stride int) []uint8 {
	data := make([]uint8, shape.MinLen(stride))
	for i := range data {
		data[i] = uint8((i*37 + 11) % 251)
	}
	return data
}

// outputFor allocates an output buffer sized for p over the given input.
func outputFor(p Params, batch, height, width, stride int) []uint8 {
	oh := OutputDimension(p.Padding.Top+height+p.Padding.Bottom, p.KernelHeight, p.DilationHeight, p.StrideHeight)
	ow := OutputDimension(p.Padding.Left+width+p.Padding.Right, p.KernelWidth, p.DilationWidth, p.StrideWidth)
	shape := tensor.NHWC{Batch: batch, Height: oh, Width: ow, Channels: p.Channels}
	return make([]uint8, shape.MinLen(stride))
}

// countingAllocator counts how often the table had to be reallocated.
type countingAllocator struct {
	indirection.HeapAllocator
	grows int
}

func (a *countingAllocator) Grow(old []int, n int) ([]int, error) {
	a.grows++
	return a.HeapAllocator.Grow(old, n)
}
