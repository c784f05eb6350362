// Package cpu provides portable Go microkernels for quantized operators.
//
// # Overview
//
// Kernels here consume an indirection table prepared by operator setup: a flat
// list of element offsets into the caller's input. A kernel never computes an
// input address itself and never checks bounds against the logical image; the
// table already points at clamped, in-range pixels.
//
// # Thread Safety
//
// Kernels are pure functions over their arguments. Distinct output rows may be
// computed concurrently.
package cpu
