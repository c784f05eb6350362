package qnnp

// UKernelType tags which microkernel family consumes an operator.
type UKernelType int

// Microkernel families.
const (
	UKernelNone UKernelType = iota
	UKernelMaxPooling
)

// String returns the kernel family name.
func (t UKernelType) String() string {
	switch t {
	case UKernelMaxPooling:
		return "max-pooling"
	default:
		return "none"
	}
}

// MaxPoolParams describes the u8 max-pooling microkernel.
//
// MR is the number of indirection entries the kernel consumes per pass on its
// first step and QR on every later step; KR is the channel tile. The kernel may
// read up to MR-1 indirection entries past the logical end of the table.
type MaxPoolParams struct {
	Name string
	MR   uint32
	QR   uint32
	KR   uint32
}

// Overread returns how many entries past the logical end the kernel may read.
func (p MaxPoolParams) Overread() int {
	if p.MR == 0 {
		return 0
	}
	return int(p.MR) - 1
}

// MaxPoolQuantizationParams is the output clamp applied by the max-pooling
// microkernel. It is computed once at operator creation and stored verbatim.
type MaxPoolQuantizationParams struct {
	OutputMin uint8
	OutputMax uint8
}

// ComputeMaxPoolQuantizationParams builds the clamp for [outputMin, outputMax].
func ComputeMaxPoolQuantizationParams(outputMin, outputMax uint8) MaxPoolQuantizationParams {
	return MaxPoolQuantizationParams{
		OutputMin: outputMin,
		OutputMax: outputMax,
	}
}

// Clamp bounds v to the output range.
func (p MaxPoolQuantizationParams) Clamp(v uint8) uint8 {
	return min(max(v, p.OutputMin), p.OutputMax)
}
