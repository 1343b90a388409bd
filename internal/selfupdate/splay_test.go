package selfupdate

import (
	"testing"
	"time"
)

func TestSplayWithinWindow(t *testing.T) {
	const period = 250 * time.Millisecond
	for i := 0; i < 5000; i++ {
		d := splay(period)
		if d < 0 || d >= period {
			t.Fatalf("splay %s outside [0, %s)", d, period)
		}
	}
}

func TestSplayCoversWindow(t *testing.T) {
	const period = 1000 * time.Nanosecond
	var low, high bool
	for i := 0; i < 5000; i++ {
		d := splay(period)
		if d < period/4 {
			low = true
		}
		if d >= period*3/4 {
			high = true
		}
	}
	if !low || !high {
		t.Fatalf("splay never reached both quartiles: low=%v high=%v", low, high)
	}
}

func TestSplayZeroPeriod(t *testing.T) {
	if d := splay(0); d != 0 {
		t.Fatalf("expected zero splay for zero period, got %s", d)
	}
}
