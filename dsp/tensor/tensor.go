package tensor

import "fmt"

// Complex3 is a dense rank-3 complex tensor.
//
// Element (i, j, k) lives at Data[(i*Dim1+j)*Dim2+k].
type Complex3 struct {
	Dim0, Dim1, Dim2 int
	Data             []complex128
}

// NewComplex3 allocates a zeroed tensor with the given dimensions.
// Panics if any dimension is negative.
func NewComplex3(dim0, dim1, dim2 int) *Complex3 {
	checkDims(dim0, dim1, dim2)
	return &Complex3{
		Dim0: dim0,
		Dim1: dim1,
		Dim2: dim2,
		Data: make([]complex128, dim0*dim1*dim2),
	}
}

// Index returns the flat offset of element (i, j, k).
func (t *Complex3) Index(i, j, k int) int {
	return (i*t.Dim1+j)*t.Dim2 + k
}

// At returns the element at (i, j, k).
func (t *Complex3) At(i, j, k int) complex128 {
	return t.Data[(i*t.Dim1+j)*t.Dim2+k]
}

// Set stores v at (i, j, k).
func (t *Complex3) Set(i, j, k int, v complex128) {
	t.Data[(i*t.Dim1+j)*t.Dim2+k] = v
}

// Vec returns the contiguous innermost vector at (i, j) as a subslice.
// Mutating the result mutates the tensor.
func (t *Complex3) Vec(i, j int) []complex128 {
	off := (i*t.Dim1 + j) * t.Dim2
	return t.Data[off : off+t.Dim2]
}

// Block returns the contiguous (Dim1 x Dim2) block at index i along the
// outermost axis. Mutating the result mutates the tensor.
func (t *Complex3) Block(i int) []complex128 {
	size := t.Dim1 * t.Dim2
	return t.Data[i*size : (i+1)*size]
}

// Clone returns a deep copy.
func (t *Complex3) Clone() *Complex3 {
	out := &Complex3{
		Dim0: t.Dim0,
		Dim1: t.Dim1,
		Dim2: t.Dim2,
		Data: make([]complex128, len(t.Data)),
	}
	copy(out.Data, t.Data)
	return out
}

// SameShape reports whether t and other have identical dimensions.
func (t *Complex3) SameShape(other *Complex3) bool {
	return t.Dim0 == other.Dim0 && t.Dim1 == other.Dim1 && t.Dim2 == other.Dim2
}

func checkDims(dim0, dim1, dim2 int) {
	if dim0 < 0 || dim1 < 0 || dim2 < 0 {
		panic(fmt.Sprintf("tensor: negative dimension (%d, %d, %d)", dim0, dim1, dim2))
	}
}
