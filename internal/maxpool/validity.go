package maxpool

// InputKey identifies the input an indirection table points into.
type InputKey struct {
	Base        *uint8 // first element of the caller's input
	Height      int
	Width       int
	PixelStride int
}

// Validity records which input the indirection table was built for and the
// largest batch it covers.
//
// The zero Validity covers nothing.
type Validity struct {
	key   InputKey
	batch int
}

// Covers reports whether a table built under v can serve a call on key with
// the given batch size without being rebuilt.
func (v Validity) Covers(key InputKey, batch int) bool {
	return v.key.Base != nil && v.key == key && batch <= v.batch
}

// Extend returns the Validity after a rebuild for the given call. The batch
// bound only grows while the key stays the same; a new key starts over from
// batch.
func (v Validity) Extend(key InputKey, batch int) Validity {
	valid := 0
	if v.key == key {
		valid = v.batch
	}
	return Validity{key: key, batch: max(valid, batch)}
}

// Key returns the input the table was last built for.
func (v Validity) Key() InputKey {
	return v.key
}

// Batch returns the largest batch size the table is valid for.
func (v Validity) Batch() int {
	return v.batch
}
