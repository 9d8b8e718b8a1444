package tensor

import "testing"

func TestComplex3Layout(t *testing.T) {
	c := NewComplex3(2, 3, 4)
	if len(c.Data) != 24 {
		t.Fatalf("unexpected data length: %d", len(c.Data))
	}

	c.Set(1, 2, 3, 5+6i)
	if c.Data[23] != 5+6i {
		t.Fatalf("Set did not write the last flat element: %v", c.Data[23])
	}
	if c.At(1, 2, 3) != 5+6i {
		t.Fatalf("At mismatch: %v", c.At(1, 2, 3))
	}
	if c.Index(1, 2, 3) != 23 {
		t.Fatalf("Index mismatch: %d", c.Index(1, 2, 3))
	}
}

func TestComplex3VecIsView(t *testing.T) {
	c := NewComplex3(2, 2, 3)
	v := c.Vec(1, 0)
	if len(v) != 3 {
		t.Fatalf("Vec length mismatch: %d", len(v))
	}

	v[1] = 2i
	if c.At(1, 0, 1) != 2i {
		t.Fatalf("Vec is not a view into the tensor")
	}
}

func TestComplex3Block(t *testing.T) {
	c := NewComplex3(2, 2, 2)
	for i := range c.Data {
		c.Data[i] = complex(float64(i), 0)
	}

	b := c.Block(1)
	if len(b) != 4 || b[0] != 4 {
		t.Fatalf("unexpected block: %v", b)
	}
}

func TestComplex3Clone(t *testing.T) {
	c := NewComplex3(1, 2, 2)
	c.Set(0, 1, 1, 3i)

	d := c.Clone()
	d.Set(0, 1, 1, 7)

	if c.At(0, 1, 1) != 3i {
		t.Fatalf("Clone shares storage with the original")
	}
	if !c.SameShape(d) {
		t.Fatalf("Clone shape mismatch")
	}
}

func TestNegativeDimensionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for negative dimension")
		}
	}()
	NewComplex3(1, -1, 1)
}
