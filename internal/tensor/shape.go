package tensor

import "fmt"

// NHWC describes a batch of images stored pixel by pixel, channels innermost.
//
// Pixels may be spaced further apart than Channels elements; the distance
// between consecutive pixels is the pixel stride and is supplied separately
// because it belongs to the buffer, not to the logical shape.
type NHWC struct {
	Batch    int
	Height   int
	Width    int
	Channels int
}

// Pixels returns the number of pixels across the whole batch.
func (s NHWC) Pixels() int {
	return s.Batch * s.Height * s.Width
}

// Validate checks that every dimension is positive.
func (s NHWC) Validate() error {
	dims := [...]struct {
		name string
		v    int
	}{
		{"batch", s.Batch},
		{"height", s.Height},
		{"width", s.Width},
		{"channels", s.Channels},
	}
	for _, d := range dims {
		if d.v <= 0 {
			return fmt.Errorf("invalid %s dimension %d (must be > 0)", d.name, d.v)
		}
	}
	return nil
}

// PixelOffset returns the element offset of pixel (n, y, x).
func (s NHWC) PixelOffset(n, y, x, pixelStride int) int {
	return ((n*s.Height+y)*s.Width + x) * pixelStride
}

// MinLen returns the shortest buffer that holds every pixel at the given
// stride. The last pixel only needs Channels elements, not a full stride.
func (s NHWC) MinLen(pixelStride int) int {
	if s.Pixels() == 0 {
		return 0
	}
	return (s.Pixels()-1)*pixelStride + s.Channels
}

// Equal reports whether two shapes match in every dimension.
func (s NHWC) Equal(other NHWC) bool {
	return s == other
}

// String formats the shape as [N,H,W,C].
func (s NHWC) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", s.Batch, s.Height, s.Width, s.Channels)
}
