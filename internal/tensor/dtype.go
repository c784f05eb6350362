// Package tensor provides element format tags and NHWC layout helpers shared by
// the quantized operators.
package tensor

// DataType represents the element format of an operator's input and output.
type DataType int

// Supported element formats.
const (
	// QUInt8 is asymmetric 8-bit quantized data.
	QUInt8 DataType = iota
	// Uint8 is plain unsigned bytes with no quantization attached.
	Uint8
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case QUInt8, Uint8:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case QUInt8:
		return "quint8"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}
