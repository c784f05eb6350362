package maxpool

// EffectiveKernel returns the extent a kernel covers once dilated.
func EffectiveKernel(kernel, dilation int) int {
	return (kernel-1)*dilation + 1
}

// OutputDimension returns the output extent along one axis.
//
//	out = (padded - ((kernel-1)*dilation + 1)) / stride + 1
//
// The caller guarantees padded >= the effective kernel.
func OutputDimension(padded, kernel, dilation, stride int) int {
	return (padded-EffectiveKernel(kernel, dilation))/stride + 1
}

// doz is the difference-or-zero: a-b clamped at zero.
func doz(a, b int) int {
	if a > b {
		return a - b
	}
	return 0
}
