package autograd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

const eps = 1e-3
const tolerance = 1e-4

// almostEqual checks if two floats are approximately equal within tolerance.
func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

// TestBasicAdd tests that Add computes correct values and gradients.
func TestBasicAdd(t *testing.T) {
	g := NewGraph()
	a := g.Input(2.0)
	b := g.Input(3.0)
	c := a.Add(b)

	if c.Value() != 5.0 {
		t.Errorf("Add: expected 5.0, got %v", c.Value())
	}

	Backprop(c)

	if a.Grad() != 1.0 {
		t.Errorf("Add gradient for a: expected 1.0, got %v", a.Grad())
	}
	if b.Grad() != 1.0 {
		t.Errorf("Add gradient for b: expected 1.0, got %v", b.Grad())
	}
}

// TestBasicMul tests that Mul computes correct values and gradients.
func TestBasicMul(t *testing.T) {
	g := NewGraph()
	a := g.Input(2.0)
	b := g.Input(3.0)
	c := a.Mul(b)

	if c.Value() != 6.0 {
		t.Errorf("Mul: expected 6.0, got %v", c.Value())
	}

	Backprop(c)

	// d(a*b)/da = b = 3
	if a.Grad() != 3.0 {
		t.Errorf("Mul gradient for a: expected 3.0, got %v", a.Grad())
	}
	// d(a*b)/db = a = 2
	if b.Grad() != 2.0 {
		t.Errorf("Mul gradient for b: expected 2.0, got %v", b.Grad())
	}
}

// TestBasicSub tests that Sub computes correct values and gradients.
func TestBasicSub(t *testing.T) {
	g := NewGraph()
	a := g.Input(5.0)
	b := g.Input(3.0)
	c := a.Sub(b)

	if c.Value() != 2.0 {
		t.Errorf("Sub: expected 2.0, got %v", c.Value())
	}

	Backprop(c)

	// d(a-b)/da = 1
	if a.Grad() != 1.0 {
		t.Errorf("Sub gradient for a: expected 1.0, got %v", a.Grad())
	}
	// d(a-b)/db = -1
	if b.Grad() != -1.0 {
		t.Errorf("Sub gradient for b: expected -1.0, got %v", b.Grad())
	}
}

// TestLegacySub tests the +1/+1 subtraction rule behind WithLegacySubtract.
func TestLegacySub(t *testing.T) {
	g := NewGraph(WithLegacySubtract())
	a := g.Input(5.0)
	b := g.Input(3.0)
	c := Subtract(a, b)

	if c.Value() != 2.0 {
		t.Errorf("Sub: expected 2.0, got %v", c.Value())
	}

	Backprop(c)

	if a.Grad() != 1.0 || b.Grad() != 1.0 {
		t.Errorf("legacy Sub gradients: expected 1.0 and 1.0, got %v and %v", a.Grad(), b.Grad())
	}
}

// TestPow tests that Pow computes correct values and gradients.
func TestPow(t *testing.T) {
	g := NewGraph()
	a := g.Input(2.0)
	b := a.Pow(3.0) // 2^3 = 8

	if b.Value() != 8.0 {
		t.Errorf("Pow: expected 8.0, got %v", b.Value())
	}

	Backprop(b)

	// d(x^3)/dx = 3*x^2 = 3*4 = 12
	if !almostEqual(float64(a.Grad()), 12.0, tolerance) {
		t.Errorf("Pow gradient: expected 12.0, got %v", a.Grad())
	}
}

// TestExp tests that Exp computes correct values and gradients.
func TestExp(t *testing.T) {
	g := NewGraph()
	a := g.Input(2.0)
	b := a.Exp()

	expected := math.Exp(2.0)
	if !almostEqual(float64(b.Value()), expected, tolerance) {
		t.Errorf("Exp: expected %v, got %v", expected, b.Value())
	}

	Backprop(b)

	// d(e^x)/dx = e^x
	if !almostEqual(float64(a.Grad()), expected, tolerance) {
		t.Errorf("Exp gradient: expected %v, got %v", expected, a.Grad())
	}
}

// TestReLU tests ReLU on both sides of zero.
func TestReLU(t *testing.T) {
	g := NewGraph()
	pos := g.Input(3.0)
	neg := g.Input(-3.0)
	rp := pos.ReLU()
	rn := neg.ReLU()

	if rp.Value() != 3.0 || rn.Value() != 0.0 {
		t.Errorf("ReLU: expected 3.0 and 0.0, got %v and %v", rp.Value(), rn.Value())
	}

	Backprop(rp)
	Backprop(rn)

	if pos.Grad() != 1.0 {
		t.Errorf("ReLU positive gradient: expected 1.0, got %v", pos.Grad())
	}
	if neg.Grad() != 0.0 {
		t.Errorf("ReLU negative gradient: expected 0.0, got %v", neg.Grad())
	}
}

// TestNeg tests negation.
func TestNeg(t *testing.T) {
	g := NewGraph()
	a := g.Input(5.0)
	b := a.Neg()

	if b.Value() != -5.0 {
		t.Errorf("Neg: expected -5.0, got %v", b.Value())
	}

	Backprop(b)

	// d(-a)/da = -1
	if a.Grad() != -1.0 {
		t.Errorf("Neg gradient: expected -1.0, got %v", a.Grad())
	}
}

// TestTanh checks the tanh value and local derivative at 2.
func TestTanh(t *testing.T) {
	g := NewGraph()
	a := g.Input(2.0)
	v := Tanh(a)

	require.InDelta(t, 0.9640276, v.Value(), 1e-6)

	Backprop(v)

	// 1 - tanh(2)^2
	require.InDelta(t, 0.070650816, a.Grad(), 1e-6)
}

// TestReusedVariable tests that a*a differentiates as a^2.
func TestReusedVariable(t *testing.T) {
	g := NewGraph()
	a := g.Input(3.0)
	f := a.Mul(a)

	if f.Value() != 9.0 {
		t.Errorf("a*a: expected 9.0, got %v", f.Value())
	}

	Backprop(f)

	// df/da = 2a = 6
	if !almostEqual(float64(a.Grad()), 6.0, tolerance) {
		t.Errorf("Gradient for a*a: expected 6.0, got %v", a.Grad())
	}
}

// TestManualBackCube pushes gradients one level at a time through a^3 built
// as (a*a)*a.
func TestManualBackCube(t *testing.T) {
	g := NewGraph()
	a := g.Input(5.0)
	x := Multiply(a, a)
	y := Multiply(x, a)

	require.Equal(t, float32(125), y.Value())

	y.AddGrad(1)
	y.Back()
	x.Back()

	// 3a^2
	require.Equal(t, float32(75), a.Grad())
}

// TestManualBackDiamond walks the diamond graph by hand in reverse order.
func TestManualBackDiamond(t *testing.T) {
	g := NewGraph()
	a := g.Input(2.0)
	b := g.Input(1.0)
	x := a.Mul(b)
	y := x.Add(a)
	w := x.Add(b)
	z := y.Mul(w)

	z.AddGrad(1)
	z.Back()
	w.Back()
	y.Back()
	x.Back()

	require.Equal(t, float32(10), a.Grad())
}

// TestInputBackIsNoop checks that Back on a leaf changes nothing.
func TestInputBackIsNoop(t *testing.T) {
	g := NewGraph()
	a := g.Input(1.5)
	a.AddGrad(2)
	a.Back()

	require.Equal(t, float32(2), a.Grad())
	require.Empty(t, a.Dependencies())
	require.True(t, a.IsInput())
}

func TestDependencies(t *testing.T) {
	g := NewGraph()
	a := g.Input(1)
	b := g.Input(2)

	require.Equal(t, []Node{a, b}, a.Sub(b).Dependencies())
	require.Equal(t, []Node{a, a}, a.Mul(a).Dependencies())
	require.Equal(t, []Node{b}, b.Tanh().Dependencies())
	require.Equal(t, OpSub, a.Sub(b).Op())
}

func TestSetValueOnDerivedPanics(t *testing.T) {
	g := NewGraph()
	a := g.Input(1)
	c := a.Add(a)

	require.NotPanics(t, func() { a.SetValue(4) })
	require.Equal(t, float32(4), a.Value())

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		require.ErrorIs(t, err, ErrDerivedMutation)
	}()
	c.SetValue(3)
}

func TestForeignNodePanics(t *testing.T) {
	a := NewGraph().Input(1)
	b := NewGraph().Input(2)

	defer func() {
		err, _ := recover().(error)
		require.ErrorIs(t, err, ErrForeignNode)
	}()
	a.Add(b)
}

func TestZeroNodePanics(t *testing.T) {
	var n Node
	require.False(t, n.Valid())
	require.Equal(t, "Node(invalid)", n.String())
	require.Panics(t, func() { n.Value() })
	require.Panics(t, func() { n.Tanh() })
	require.Panics(t, func() { Backprop(n) })
	require.Panics(t, func() { Sum() })
}

func TestSum(t *testing.T) {
	g := NewGraph()
	xs := []Node{g.Input(1), g.Input(2), g.Input(3)}
	s := Sum(xs...)

	require.Equal(t, float32(6), s.Value())
	Backprop(s)
	for _, x := range xs {
		require.Equal(t, float32(1), x.Grad())
	}
}

// numericalGradient computes the numerical gradient of f at x using central difference.
func numericalGradient(f func(float64) float64, x float64) float64 {
	return (f(x+eps) - f(x-eps)) / (2 * eps)
}

// TestNumericalGradientComplex checks analytical vs numerical gradient for
// tanh(a*b + c) - c^2.
func TestNumericalGradientComplex(t *testing.T) {
	aVal, bVal, cVal := 0.5, -1.5, 0.25

	g := NewGraph()
	a := g.Input(float32(aVal))
	b := g.Input(float32(bVal))
	c := g.Input(float32(cVal))
	f := a.Mul(b).Add(c).Tanh().Sub(c.Pow(2))
	Backprop(f)

	fn := func(a, b, c float64) float64 {
		return math.Tanh(a*b+c) - c*c
	}
	cases := []struct {
		name string
		got  float32
		want float64
	}{
		{"a", a.Grad(), numericalGradient(func(x float64) float64 { return fn(x, bVal, cVal) }, aVal)},
		{"b", b.Grad(), numericalGradient(func(x float64) float64 { return fn(aVal, x, cVal) }, bVal)},
		{"c", c.Grad(), numericalGradient(func(x float64) float64 { return fn(aVal, bVal, x) }, cVal)},
	}
	for _, tc := range cases {
		if !almostEqual(float64(tc.got), tc.want, tolerance) {
			t.Errorf("Numerical gradient for %s: analytical=%v, numerical=%v", tc.name, tc.got, tc.want)
		}
	}
}

// TestNeuronSimulation simulates a simple neuron: y = tanh(w*x + b)
func TestNeuronSimulation(t *testing.T) {
	g := NewGraph()
	w := g.Input(0.5)
	x := g.Input(2.0)
	b := g.Input(-0.5)

	y := w.Mul(x).Add(b).Tanh()

	// tanh(0.5)
	if !almostEqual(float64(y.Value()), math.Tanh(0.5), tolerance) {
		t.Errorf("Neuron output: expected %v, got %v", math.Tanh(0.5), y.Value())
	}

	Backprop(y)

	d := 1 - math.Pow(math.Tanh(0.5), 2)
	if !almostEqual(float64(w.Grad()), 2*d, tolerance) {
		t.Errorf("Gradient for w: expected %v, got %v", 2*d, w.Grad())
	}
	if !almostEqual(float64(x.Grad()), 0.5*d, tolerance) {
		t.Errorf("Gradient for x: expected %v, got %v", 0.5*d, x.Grad())
	}
	if !almostEqual(float64(b.Grad()), d, tolerance) {
		t.Errorf("Gradient for b: expected %v, got %v", d, b.Grad())
	}
}
