package units

import (
	"testing"

	"shotcompile/internal/decimaltime"
)

func qty(n int64, unit string) Quantity {
	q, ok := FromLiteral(decimaltime.FromInt64(n), unit)
	if !ok {
		panic("unknown unit: " + unit)
	}
	return q
}

func TestMillisecondsNormalizeToSeconds(t *testing.T) {
	q := qty(500, "ms")
	if got := q.Magnitude.Float64(); got != 0.5 {
		t.Fatalf("expected 0.5 s, got %v", got)
	}
}

func TestAddRequiresSameDimension(t *testing.T) {
	_, err := qty(1, "s").Add(qty(1, "Hz"))
	if err == nil {
		t.Fatal("expected an incompatible-dimension error")
	}
}

func TestMulCombinesDimensions(t *testing.T) {
	hz := qty(2, "Hz")
	s := qty(3, "s")
	product := hz.Mul(s)
	if !product.Dim.IsDimensionless() {
		t.Fatalf("Hz * s should be dimensionless, got %s", product.Dim.Symbol())
	}
}

func TestDivInvertsDimension(t *testing.T) {
	one := Dimensionless(decimaltime.FromInt64(1))
	s := qty(2, "s")
	inv, err := one.Div(s)
	if err != nil {
		t.Fatal(err)
	}
	if inv.Dim != (Dimension{Time: -1}) {
		t.Fatalf("1/s should have dimension Time^-1, got %+v", inv.Dim)
	}
}

func TestNanosecondsRoundTripExactly(t *testing.T) {
	ns, err := decimaltime.FromString("1e-9")
	if err != nil {
		t.Fatal(err)
	}
	q := qty(1, "ns")
	if !q.Magnitude.Equal(ns) {
		t.Fatalf("1 ns magnitude = %s, want exactly %s (no float64 round trip)", q.Magnitude, ns)
	}
	back, ok := q.InExact("ns")
	if !ok {
		t.Fatal("expected ns to convert back to ns")
	}
	if !back.Equal(decimaltime.FromInt64(1)) {
		t.Fatalf("1 ns back in ns = %s, want exactly 1", back)
	}
}

func TestDBmRoundTrip(t *testing.T) {
	q := qty(0, "dBm")
	w, ok := q.In("W")
	if !ok {
		t.Fatal("expected dBm to convert to W")
	}
	if diff := w - 1e-3; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("0 dBm should be 1 mW, got %v W", w)
	}
}

func TestUnknownUnitIsRejected(t *testing.T) {
	if _, ok := FromLiteral(decimaltime.FromInt64(1), "furlong"); ok {
		t.Fatal("expected furlong to be outside the closed vocabulary")
	}
}
