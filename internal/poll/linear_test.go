package poll

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func TestLinear_Schedule(t *testing.T) {
	l := NewLinear(2 * time.Second)

	want := []time.Duration{
		2 * time.Second,
		2500 * time.Millisecond,
		3 * time.Second,
		3500 * time.Millisecond,
		4 * time.Second,
		4500 * time.Millisecond,
		5 * time.Second,
		5 * time.Second,
	}
	for i, w := range want {
		if got := l.NextBackOff(); got != w {
			t.Fatalf("NextBackOff #%d = %v, want %v", i+1, got, w)
		}
	}
}

func TestLinear_ResetRestartsAtInitial(t *testing.T) {
	l := NewLinear(time.Second)
	l.NextBackOff()
	l.NextBackOff()
	l.Reset()

	if got := l.NextBackOff(); got != time.Second {
		t.Fatalf("NextBackOff after Reset = %v, want %v", got, time.Second)
	}
}

func TestLinear_NeverStops(t *testing.T) {
	var b backoff.BackOff = NewLinear(0)
	for i := 0; i < 50; i++ {
		if d := b.NextBackOff(); d == backoff.Stop {
			t.Fatalf("NextBackOff #%d returned Stop", i+1)
		}
	}
}

func TestLinear_CustomStepAndMax(t *testing.T) {
	l := &Linear{Initial: 10 * time.Millisecond, Step: 10 * time.Millisecond, Max: 25 * time.Millisecond}

	got := []time.Duration{l.NextBackOff(), l.NextBackOff(), l.NextBackOff()}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("schedule = %v, want %v", got, want)
		}
	}
}

func TestNewLinear_ClampsNegative(t *testing.T) {
	if got := NewLinear(-time.Second).NextBackOff(); got != 0 {
		t.Fatalf("NextBackOff = %v, want 0", got)
	}
}
