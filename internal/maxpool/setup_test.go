package maxpool

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/qpool/internal/qnnp"
	"github.com/born-ml/qpool/internal/tensor"
)

func TestSetup_OutputGeometry(t *testing.T) {
	ctx := newContext(t, qnnp.Config{})
	p := validParams()
	p.KernelHeight, p.KernelWidth = 2, 2
	p.Channels = 1

	op := newOperator(t, ctx, p)
	in := make([]uint8, 2*4*4)
	out := outputFor(p, 2, 4, 4, 1)

	require.NoError(t, op.Setup(2, 4, 4, Pixels{Data: in, Stride: 1}, Pixels{Data: out, Stride: 1}, nil))
	assert.Equal(t, tensor.NHWC{Batch: 2, Height: 4, Width: 4, Channels: 1}, op.InputShape())
	assert.Equal(t, tensor.NHWC{Batch: 2, Height: 2, Width: 2, Channels: 1}, op.OutputShape())
}

// Input 3x3, 2x2 window, stride 1, no padding: every window lists its pixels
// column by column, and adjacent windows share a column.
func TestSetup_IndirectionLayout(t *testing.T) {
	ctx := newContext(t, qnnp.Config{})
	p := Params{
		KernelHeight: 2, KernelWidth: 2,
		StrideHeight: 1, StrideWidth: 1,
		DilationHeight: 1, DilationWidth: 1,
		Channels: 1, OutputMax: 255,
	}
	op := newOperator(t, ctx, p)

	in := make([]uint8, 9)
	out := outputFor(p, 1, 3, 3, 1)
	require.NoError(t, op.Setup(1, 3, 3, Pixels{Data: in, Stride: 1}, Pixels{Data: out, Stride: 1}, nil))

	l := op.Layout()
	assert.Equal(t, Layout{WidthStep: 1, RowSlots: 6, Entries: 12, Overread: 8}, l)

	want := []int{
		0, 3, 1, 4, 2, 5, // output row 0
		3, 6, 4, 7, 5, 8, // output row 1
	}
	for range l.Overread {
		want = append(want, 8)
	}
	if diff := cmp.Diff(want, op.Indirection().Slots()); diff != "" {
		t.Errorf("indirection mismatch (-want +got):\n%s", diff)
	}
}

// Coordinates in the padding clamp to the nearest edge pixel.
func TestSetup_IndirectionClampsPadding(t *testing.T) {
	ctx := newContext(t, qnnp.Config{})
	p := Params{
		Padding:      Padding{Top: 1, Left: 1},
		KernelHeight: 2, KernelWidth: 2,
		StrideHeight: 1, StrideWidth: 1,
		DilationHeight: 1, DilationWidth: 1,
		Channels: 1, OutputMax: 255,
	}
	op := newOperator(t, ctx, p)

	in := make([]uint8, 4)
	out := outputFor(p, 1, 2, 2, 1)
	require.NoError(t, op.Setup(1, 2, 2, Pixels{Data: in, Stride: 1}, Pixels{Data: out, Stride: 1}, nil))

	l := op.Layout()
	want := []int{
		0, 0, 0, 0, 1, 1,
		0, 2, 0, 2, 1, 3,
	}
	if diff := cmp.Diff(want, op.Indirection().Slots()[:l.Entries]); diff != "" {
		t.Errorf("indirection mismatch (-want +got):\n%s", diff)
	}
}

// Every entry points at a real pixel, and the table always carries the
// microkernel overread tail.
func TestSetup_IndirectionInBounds(t *testing.T) {
	ctx := newContext(t, qnnp.Config{})

	type config struct {
		kernel, stride, dilation int
		pad                      Padding
		height, width            int
	}
	var configs []config
	for _, k := range []int{2, 3} {
		for _, s := range []int{1, 2, 4} {
			for _, d := range []int{1, 2} {
				for _, pad := range []Padding{{}, {1, 1, 1, 1}, {2, 0, 0, 3}, {4, 4, 4, 4}} {
					configs = append(configs, config{k, s, d, pad, 5, 7})
				}
			}
		}
	}

	for _, c := range configs {
		name := fmt.Sprintf("k%d_s%d_d%d_pad%v", c.kernel, c.stride, c.dilation, c.pad)
		t.Run(name, func(t *testing.T) {
			p := Params{
				Padding:      c.pad,
				KernelHeight: c.kernel, KernelWidth: c.kernel,
				StrideHeight: c.stride, StrideWidth: c.stride,
				DilationHeight: c.dilation, DilationWidth: c.dilation,
				Channels: 3, OutputMax: 255,
			}
			op := newOperator(t, ctx, p)

			const batch, stride = 2, 5
			shape := tensor.NHWC{Batch: batch, Height: c.height, Width: c.width, Channels: 3}
			in := patternInput(shape, stride)
			out := outputFor(p, batch, c.height, c.width, 3)
			require.NoError(t, op.Setup(batch, c.height, c.width, Pixels{Data: in, Stride: stride}, Pixels{Data: out, Stride: 3}, nil))

			l := op.Layout()
			slots := op.Indirection().Slots()
			require.Equal(t, l.Entries+ctx.U8MaxPool.Overread(), len(slots))
			require.GreaterOrEqual(t, op.Indirection().Cap()-l.Entries, ctx.U8MaxPool.Overread())

			for i, off := range slots {
				require.Zero(t, off%stride, "slot %d offset %d not pixel aligned", i, off)
				pixel := off / stride
				n := pixel / (c.height * c.width)
				y := (pixel / c.width) % c.height
				x := pixel % c.width
				require.Less(t, n, batch, "slot %d", i)
				require.True(t, y >= 0 && y < c.height && x >= 0 && x < c.width, "slot %d -> (%d,%d)", i, y, x)
				require.LessOrEqual(t, off+shape.Channels, len(in))
			}
		})
	}
}

func TestSetup_CacheHitKeepsBuffer(t *testing.T) {
	ctx := newContext(t, qnnp.Config{})
	alloc := &countingAllocator{}
	p := validParams()
	op := newOperator(t, ctx, p, WithAllocator(alloc))

	shape := tensor.NHWC{Batch: 4, Height: 9, Width: 9, Channels: p.Channels}
	in := patternInput(shape, p.Channels)
	out := outputFor(p, 4, 9, 9, p.Channels)
	input := Pixels{Data: in, Stride: p.Channels}
	output := Pixels{Data: out, Stride: p.Channels}

	require.NoError(t, op.Setup(4, 9, 9, input, output, nil))
	gen := op.Indirection().Generation()
	before := slices.Clone(op.Indirection().Slots())

	for _, batch := range []int{4, 1, 3} {
		require.NoError(t, op.Setup(batch, 9, 9, input, output, nil))
		assert.Equal(t, batch, op.BatchSize())
		assert.Equal(t, gen, op.Indirection().Generation())
		assert.Equal(t, 4, op.Validity().Batch())
	}
	assert.Equal(t, 1, alloc.grows)
	assert.Equal(t, before, op.Indirection().Slots())
}

// A batch past the cached bound grows the table and rewrites the entries for
// the images already covered with the same values.
func TestSetup_LargerBatchGrowsBuffer(t *testing.T) {
	ctx := newContext(t, qnnp.Config{})
	alloc := &countingAllocator{}
	p := validParams()
	p.Padding = Padding{Top: 1, Right: 1, Bottom: 1, Left: 1}
	op := newOperator(t, ctx, p, WithAllocator(alloc))

	shape := tensor.NHWC{Batch: 3, Height: 6, Width: 6, Channels: p.Channels}
	in := patternInput(shape, p.Channels)
	out := outputFor(p, 3, 6, 6, p.Channels)
	input := Pixels{Data: in, Stride: p.Channels}
	output := Pixels{Data: out, Stride: p.Channels}

	require.NoError(t, op.Setup(1, 6, 6, input, output, nil))
	first := op.Layout()
	prefix := slices.Clone(op.Indirection().Slots()[:first.Entries])
	gen := op.Indirection().Generation()

	require.NoError(t, op.Setup(3, 6, 6, input, output, nil))
	second := op.Layout()
	assert.Equal(t, 3*first.Entries, second.Entries)
	assert.Equal(t, second.Total(), op.Indirection().Len())
	assert.NotEqual(t, gen, op.Indirection().Generation())
	assert.Equal(t, 3, op.Validity().Batch())
	assert.Equal(t, 2, alloc.grows)

	if diff := cmp.Diff(prefix, op.Indirection().Slots()[:first.Entries]); diff != "" {
		t.Errorf("previously valid entries changed (-before +after):\n%s", diff)
	}

	// Going back down is a cache hit.
	require.NoError(t, op.Setup(2, 6, 6, input, output, nil))
	assert.Equal(t, 2, alloc.grows)
}

func TestSetup_RebuildsOnNewInput(t *testing.T) {
	ctx := newContext(t, qnnp.Config{})
	alloc := &countingAllocator{}
	p := validParams()
	op := newOperator(t, ctx, p, WithAllocator(alloc))

	big := patternInput(tensor.NHWC{Batch: 2, Height: 8, Width: 8, Channels: p.Channels}, p.Channels)
	out := outputFor(p, 2, 8, 8, p.Channels)
	output := Pixels{Data: out, Stride: p.Channels}

	require.NoError(t, op.Setup(2, 8, 8, Pixels{Data: big, Stride: p.Channels}, output, nil))
	assert.Equal(t, 2, op.Validity().Batch())

	// Different base address.
	other := slices.Clone(big)
	require.NoError(t, op.Setup(1, 8, 8, Pixels{Data: other, Stride: p.Channels}, output, nil))
	assert.Equal(t, 1, op.Validity().Batch(), "a new input restarts the batch bound")
	assert.Equal(t, &other[0], op.Validity().Key().Base)

	// Smaller spatial shape over the same buffer reuses the capacity.
	capBefore := op.Indirection().Cap()
	require.NoError(t, op.Setup(1, 5, 5, Pixels{Data: other, Stride: p.Channels}, output, nil))
	assert.Equal(t, 5, op.Validity().Key().Height)
	assert.Equal(t, capBefore, op.Indirection().Cap())
	assert.Equal(t, op.Layout().Total(), op.Indirection().Len())

	// New pixel stride over the same buffer.
	require.NoError(t, op.Setup(1, 5, 5, Pixels{Data: other, Stride: p.Channels + 1}, output, nil))
	assert.Equal(t, p.Channels+1, op.Validity().Key().PixelStride)

	assert.Equal(t, 1, alloc.grows)
}

func TestSetup_InvalidArguments(t *testing.T) {
	ctx := newContext(t, qnnp.Config{})
	p := validParams()
	p.Padding = Padding{Top: 1, Right: 1, Bottom: 1, Left: 1}

	in := make([]uint8, 4*4*p.Channels)
	out := make([]uint8, 4*4*p.Channels)
	input := Pixels{Data: in, Stride: p.Channels}
	output := Pixels{Data: out, Stride: p.Channels}

	tests := []struct {
		name          string
		batch, h, w   int
		input, output Pixels
		wantMsg       string
	}{
		{"zero batch", 0, 4, 4, input, output, "batch size"},
		{"zero height", 1, 0, 4, input, output, "input dimensions"},
		{"zero width", 1, 4, 0, input, output, "input dimensions"},
		{"input stride below channels", 1, 4, 4, Pixels{Data: in, Stride: 1}, output, "pixel strides"},
		{"output stride below channels", 1, 4, 4, input, Pixels{Data: out, Stride: 2}, "pixel strides"},
		{"short input", 2, 4, 4, input, output, "input holds"},
		{"short output", 1, 4, 4, input, Pixels{Data: out[:3], Stride: p.Channels}, "output holds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := newOperator(t, ctx, p)
			err := op.Setup(tt.batch, tt.h, tt.w, tt.input, tt.output, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, qnnp.ErrInvalidParameter)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, 0, op.Indirection().Len())
			assert.Equal(t, 0, op.BatchSize())
		})
	}
}

func TestSetup_WindowLargerThanPaddedInput(t *testing.T) {
	ctx := newContext(t, qnnp.Config{})
	p := validParams()
	p.DilationHeight = 2
	op := newOperator(t, ctx, p)

	in := make([]uint8, 4*4*p.Channels)
	out := make([]uint8, 4*4*p.Channels)
	err := op.Setup(1, 4, 4, Pixels{Data: in, Stride: p.Channels}, Pixels{Data: out, Stride: p.Channels}, nil)
	assert.ErrorIs(t, err, qnnp.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "dilated pooling window")
}

func TestSetup_Uninitialized(t *testing.T) {
	ctx := newContext(t, qnnp.Config{})
	op := newOperator(t, ctx, validParams())
	op.ctx = &qnnp.Context{}

	err := op.Setup(1, 4, 4, Pixels{}, Pixels{}, nil)
	assert.ErrorIs(t, err, qnnp.ErrUninitialized)

	var nilOp *Operator
	assert.ErrorIs(t, nilOp.Setup(1, 4, 4, Pixels{}, Pixels{}, nil), qnnp.ErrInvalidParameter)
}

// With a table cap that fits batch 1 but not batch 4, the second Setup fails
// to allocate. Transactional setup keeps the previous geometry and the
// operator stays runnable; eager setup has already overwritten it.
func TestSetup_AllocationFailure(t *testing.T) {
	p := validParams()
	const h, w = 9, 9
	probe := p.layout(1, 4, 4, 8)

	shape := tensor.NHWC{Batch: 4, Height: h, Width: w, Channels: p.Channels}
	in := patternInput(shape, p.Channels)
	out := outputFor(p, 4, h, w, p.Channels)
	input := Pixels{Data: in, Stride: p.Channels}
	output := Pixels{Data: out, Stride: p.Channels}

	t.Run("transactional", func(t *testing.T) {
		ctx := newContext(t, qnnp.Config{MaxIndirectionEntries: probe.Total()})
		op := newOperator(t, ctx, p)

		require.NoError(t, op.Setup(1, h, w, input, output, nil))
		gen := op.Indirection().Generation()

		err := op.Setup(4, h, w, input, output, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, qnnp.ErrOutOfMemory)
		assert.Equal(t, qnnp.StatusOutOfMemory, qnnp.StatusOf(err))

		assert.Equal(t, 1, op.BatchSize())
		assert.Equal(t, tensor.NHWC{Batch: 1, Height: 4, Width: 4, Channels: p.Channels}, op.OutputShape())
		assert.Equal(t, 1, op.Validity().Batch())
		assert.Equal(t, gen, op.Indirection().Generation())
		assert.NoError(t, op.Run(nil))
	})

	t.Run("eager", func(t *testing.T) {
		ctx := newContext(t, qnnp.Config{MaxIndirectionEntries: probe.Total()})
		op := newOperator(t, ctx, p, WithEagerSetup(true))

		require.NoError(t, op.Setup(1, h, w, input, output, nil))

		err := op.Setup(4, h, w, input, output, nil)
		assert.ErrorIs(t, err, qnnp.ErrOutOfMemory)

		assert.Equal(t, 4, op.BatchSize(), "geometry is overwritten before allocation")
		assert.Equal(t, 1, op.Validity().Batch())
		assert.ErrorIs(t, op.Run(nil), qnnp.ErrInvalidParameter)

		// Recovers once a covered batch is set up again.
		require.NoError(t, op.Setup(1, h, w, input, output, nil))
		assert.NoError(t, op.Run(nil))
	})
}
