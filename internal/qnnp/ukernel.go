package qnnp

import (
	"fmt"

	"golang.org/x/sys/cpu"
)

// Microkernel selector names.
const (
	UKernelSSE2   = "sse2"
	UKernelNEON   = "neon"
	UKernelScalar = "scalar"
)

// All u8 max-pool variants share the same tiling: a 9-entry first pass,
// 8-entry follow-up passes, 16 channels per tile.
var maxPoolKernels = map[string]MaxPoolParams{
	UKernelSSE2:   {Name: UKernelSSE2, MR: 9, QR: 8, KR: 16},
	UKernelNEON:   {Name: UKernelNEON, MR: 9, QR: 8, KR: 16},
	UKernelScalar: {Name: UKernelScalar, MR: 9, QR: 8, KR: 16},
}

// detectMaxPoolKernel picks the widest kernel the host CPU supports.
func detectMaxPoolKernel() string {
	switch {
	case cpu.X86.HasSSE2:
		return UKernelSSE2
	case cpu.ARM64.HasASIMD:
		return UKernelNEON
	default:
		return UKernelScalar
	}
}

// lookupMaxPoolKernel resolves a selector name; empty means autodetect.
func lookupMaxPoolKernel(name string) (MaxPoolParams, error) {
	if name == "" {
		name = detectMaxPoolKernel()
	}
	p, ok := maxPoolKernels[name]
	if !ok {
		return MaxPoolParams{}, fmt.Errorf("unknown max-pool microkernel %q", name)
	}
	return p, nil
}
