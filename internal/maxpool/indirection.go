package maxpool

import (
	"github.com/born-ml/qpool/internal/tensor"
)

// Layout describes how an indirection table is partitioned.
//
// The table holds one block of RowSlots entries per (image, output row). In a
// block, the window of output column x starts at x*WidthStep*KernelHeight and
// lists its pixels column by column, top to bottom. Overread trailing entries
// follow the last block for the microkernel's final full-width load.
type Layout struct {
	WidthStep int // Kernel columns each output column advances by
	RowSlots  int // Entries per (image, output row) block
	Entries   int // Logical entries, excluding the overread tail
	Overread  int // Trailing entries the microkernel may read past the end
}

// Total returns the number of entries the table must hold.
func (l Layout) Total() int {
	return l.Entries + l.Overread
}

func (p Params) layout(batch, outputHeight, outputWidth, overread int) Layout {
	step := p.WidthStep()
	rowSlots := p.PoolingSize() + (outputWidth*step-1)*p.KernelHeight
	return Layout{
		WidthStep: step,
		RowSlots:  rowSlots,
		Entries:   batch * outputHeight * rowSlots,
		Overread:  overread,
	}
}

// Layout returns the table layout for the geometry of the last Setup.
func (op *Operator) Layout() Layout {
	return op.params.layout(op.batchSize, op.outputHeight, op.outputWidth, op.kernel.Overread())
}

// buildIndirection fills the table with input offsets for every window.
//
// Coordinates that fall in the padding are clamped to the nearest edge pixel,
// so every entry addresses a real input element.
func (op *Operator) buildIndirection(l Layout, batch, inputHeight, inputWidth, pixelStride, outputHeight, outputWidth int) {
	p := op.params
	slots := op.indirection.Slots()
	shape := tensor.NHWC{Batch: batch, Height: inputHeight, Width: inputWidth, Channels: p.Channels}
	columnStride := l.WidthStep * p.KernelHeight

	for image := 0; image < batch; image++ {
		for oy := 0; oy < outputHeight; oy++ {
			// Pre-slice the (image, row) block.
			blockStart := (image*outputHeight + oy) * l.RowSlots
			block := slots[blockStart : blockStart+l.RowSlots]

			for py := 0; py < p.KernelHeight; py++ {
				iy := min(doz(oy*p.StrideHeight+py*p.DilationHeight, p.Padding.Top), inputHeight-1)

				for ox := 0; ox < outputWidth; ox++ {
					for px := 0; px < p.KernelWidth; px++ {
						ix := min(doz(ox*p.StrideWidth+px*p.DilationWidth, p.Padding.Left), inputWidth-1)
						block[ox*columnStride+px*p.KernelHeight+py] = shape.PixelOffset(image, iy, ix, pixelStride)
					}
				}
			}
		}
	}

	// Overread tail: repeat the last real entry so every slot is in range.
	last := slots[l.Entries-1]
	for i := l.Entries; i < len(slots); i++ {
		slots[i] = last
	}
}
