package decimaltime

import "testing"

func seconds(s string) Decimal {
	d, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNumberTicksExact(t *testing.T) {
	step := NewTimeStep(FromInt64(1)) // 1 ns
	n := NumberTicks(Zero(), seconds("1e-6"), step)
	if n != 1000 {
		t.Fatalf("expected 1000 ticks, got %d", n)
	}
}

func TestAdjacentBlocksShareBoundary(t *testing.T) {
	step := NewTimeStep(FromInt64(1))
	t1 := seconds("1")
	if got, want := StopTick(t1, step), StartTick(t1, step); got != want {
		t.Fatalf("stop_tick(t)=%d != start_tick(t)=%d", got, want)
	}
}

func TestCeilDivisionOnFraction(t *testing.T) {
	step := NewTimeStep(FromInt64(10)) // 10 ns
	// 25 ns / 10 ns = 2.5 -> ceil = 3
	n := StartTick(seconds("25e-9"), step)
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestPowIntExact(t *testing.T) {
	two := FromInt64(2)
	r, err := two.PowInt(10)
	if err != nil {
		t.Fatal(err)
	}
	if r.Float64() != 1024 {
		t.Fatalf("expected 1024, got %v", r.Float64())
	}
}
