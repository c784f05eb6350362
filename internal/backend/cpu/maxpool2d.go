package cpu

import (
	"github.com/born-ml/qpool/internal/qnnp"
)

// U8MaxPoolRow is one output row of a u8 max-pooling pass.
type U8MaxPoolRow struct {
	Input []uint8 // Caller-owned input; offsets in Slots index into it

	// Slots starts at this row's first window and runs to the end of the
	// indirection table, so that the trailing overread slots are reachable.
	Slots []int

	Step        int // Slots between the starts of consecutive windows
	PoolingSize int // Slots per window (kernel height x kernel width)
	Channels    int

	Output       []uint8 // Starts at the row's first output pixel
	OutputStride int     // Elements between consecutive output pixels
	OutputWidth  int

	Quant qnnp.MaxPoolQuantizationParams
}

// U8MaxPool reduces every window in r to its per-channel maximum and clamps
// the result to the output range.
//
// Algorithm (per output pixel):
//  1. Load MR slots and fold the first min(PoolingSize, MR) into the maximum
//  2. While slots remain, load QR more and fold the valid ones
//  3. Clamp and store
//
// Loads are always full MR/QR groups, so the last window may touch up to MR-1
// slots past the logical end of the table. Those slots must exist.
//
// Example (2x2 pool, stride=2, one channel):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func U8MaxPool(k qnnp.MaxPoolParams, r U8MaxPoolRow) {
	mr, qr := int(k.MR), int(k.QR)

	for x := 0; x < r.OutputWidth; x++ {
		window := r.Slots[x*r.Step:]

		// Pre-slice output pixel: single bounds check per pixel.
		outStart := x * r.OutputStride
		out := r.Output[outStart : outStart+r.Channels]

		group := window[:mr]
		n := min(r.PoolingSize, mr)
		for c := range out {
			var acc uint8
			for _, off := range group[:n] {
				acc = max(acc, r.Input[off+c])
			}
			out[c] = acc
		}

		for done := n; done < r.PoolingSize; done += n {
			group = window[done : done+qr]
			n = min(r.PoolingSize-done, qr)
			for c := range out {
				acc := out[c]
				for _, off := range group[:n] {
					acc = max(acc, r.Input[off+c])
				}
				out[c] = acc
			}
		}

		for c := range out {
			out[c] = r.Quant.Clamp(out[c])
		}
	}
}
