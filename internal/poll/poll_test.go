package poll

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestUntil(t *testing.T) {
	tests := map[string]struct {
		readyAfter int
		attempts   int
		err        error
		calls      int
	}{
		"immediate": {0, 5, nil, 1},
		"third":     {2, 5, nil, 3},
		"lastCheck": {5, 5, nil, 6},
		"never":     {100, 5, ErrTimeout, 6},
		"noBudget":  {1, 0, ErrTimeout, 1},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			calls := 0
			err := Until(clockwork.NewRealClock(), time.Microsecond, tc.attempts, func() bool {
				calls++
				return calls > tc.readyAfter
			})
			if err != tc.err {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			if calls != tc.calls {
				t.Errorf("expected %d calls, got %d", tc.calls, calls)
			}
		})
	}
}

func TestUntilFakeClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	result := make(chan error)
	go func() {
		result <- Until(clock, 10*time.Microsecond, 3, func() bool { return false })
	}()

	for range 3 {
		clock.BlockUntil(1)
		clock.Advance(10 * time.Microsecond)
	}

	select {
	case err := <-result:
		if err != ErrTimeout {
			t.Fatalf("expected timeout, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("poll not bounded")
	}
}

func TestWithin(t *testing.T) {
	start := time.Now()
	err := Within(clockwork.NewRealClock(), 5*time.Millisecond, time.Millisecond, func() bool { return false })
	if err != ErrTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("took %v", elapsed)
	}
}
