package maxpool

import (
	"github.com/born-ml/qpool/internal/qnnp"
)

// Padding is the implicit border around each input image, in pixels.
type Padding struct {
	Top, Right, Bottom, Left int
}

// Params is the creation-time configuration of a max-pooling operator.
type Params struct {
	Padding Padding

	KernelHeight, KernelWidth     int
	StrideHeight, StrideWidth     int
	DilationHeight, DilationWidth int

	Channels int

	OutputMin, OutputMax uint8
}

// PoolingSize returns the number of pixels in one window.
func (p Params) PoolingSize() int {
	return p.KernelHeight * p.KernelWidth
}

// WidthStep returns how many kernel columns each output column advances the
// indirection layout by. Dilated windows never share columns with their
// neighbours, so each gets a full kernel width; otherwise adjacent windows
// overlap and only the stride (at most the kernel width) is new.
func (p Params) WidthStep() int {
	if p.DilationWidth > 1 {
		return p.KernelWidth
	}
	return min(p.StrideWidth, p.KernelWidth)
}

// Validate checks p, in order: pooling size zero, pooling size one, stride,
// dilation, channels, padding, output range. The first violation is returned.
func (p Params) Validate() error {
	const op = "create max pooling"

	if p.KernelHeight <= 0 || p.KernelWidth <= 0 {
		return qnnp.Errorf(qnnp.StatusInvalidParameter, op,
			"%dx%d pooling size: pooling size dimensions must be non-zero",
			p.KernelWidth, p.KernelHeight)
	}
	if p.PoolingSize() == 1 {
		return qnnp.Errorf(qnnp.StatusInvalidParameter, op,
			"1 pooling element: 1x1 pooling is meaningless")
	}
	if p.StrideHeight <= 0 || p.StrideWidth <= 0 {
		return qnnp.Errorf(qnnp.StatusInvalidParameter, op,
			"%dx%d stride: stride dimensions must be non-zero",
			p.StrideWidth, p.StrideHeight)
	}
	if p.DilationHeight <= 0 || p.DilationWidth <= 0 {
		return qnnp.Errorf(qnnp.StatusInvalidParameter, op,
			"%dx%d dilation: dilation dimensions must be non-zero",
			p.DilationWidth, p.DilationHeight)
	}
	if p.Channels <= 0 {
		return qnnp.Errorf(qnnp.StatusInvalidParameter, op,
			"%d channels: number of channels must be non-zero", p.Channels)
	}
	if p.Padding.Top < 0 || p.Padding.Right < 0 || p.Padding.Bottom < 0 || p.Padding.Left < 0 {
		return qnnp.Errorf(qnnp.StatusInvalidParameter, op,
			"%+v padding: padding must be non-negative", p.Padding)
	}
	if p.OutputMin > p.OutputMax {
		return qnnp.Errorf(qnnp.StatusInvalidParameter, op,
			"[%d, %d] output range: output min must not exceed output max",
			p.OutputMin, p.OutputMax)
	}
	return nil
}
