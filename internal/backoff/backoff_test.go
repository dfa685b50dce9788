package backoff

import (
	"testing"
	"time"
)

func TestDelayBounds(t *testing.T) {
	s := ExponentialUniformJitter{}
	base := 100 * time.Millisecond
	max := 10 * time.Second

	for attempt := 0; attempt < 6; attempt++ {
		for i := 0; i < 50; i++ {
			d := s.Delay(attempt, base, max)

			lower := time.Duration(float64(base) * Pow(2, attempt))
			upper := lower + time.Second
			if upper > max {
				upper = max
			}

			if d < lower {
				t.Fatalf("attempt %d: delay %v below %v", attempt, d, lower)
			}
			if d > upper {
				t.Fatalf("attempt %d: delay %v above %v", attempt, d, upper)
			}
			if d > max {
				t.Fatalf("attempt %d: delay %v exceeds max %v", attempt, d, max)
			}
		}
	}
}

func TestDelayCappedAtMax(t *testing.T) {
	s := ExponentialUniformJitter{}

	// 1s * 2^10 is far past a 5s cap.
	d := s.Delay(10, time.Second, 5*time.Second)
	if d != 5*time.Second {
		t.Errorf("expected delay capped at 5s, got %v", d)
	}
}

func TestDelayNegativeAttempt(t *testing.T) {
	s := ExponentialUniformJitter{}

	d := s.Delay(-3, time.Second, 30*time.Second)
	if d < time.Second || d > 2*time.Second {
		t.Errorf("negative attempt should behave like attempt 0, got %v", d)
	}
}

func TestDelayHugeAttemptDoesNotOverflow(t *testing.T) {
	s := ExponentialUniformJitter{}

	d := s.Delay(1000, time.Second, 30*time.Second)
	if d != 30*time.Second {
		t.Errorf("expected max delay on huge attempt, got %v", d)
	}
}

func TestPow(t *testing.T) {
	cases := []struct {
		base     float64
		exp      int
		expected float64
	}{
		{2, 0, 1},
		{2, 1, 2},
		{2, 5, 32},
		{3, 3, 27},
	}
	for _, c := range cases {
		if got := Pow(c.base, c.exp); got != c.expected {
			t.Errorf("Pow(%v, %d) = %v, want %v", c.base, c.exp, got, c.expected)
		}
	}
}
