package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func newTestLedger(t *testing.T, capacity int) (*MemoryLedger, uuid.UUID) {
	t.Helper()
	ledger := NewMemoryLedger(nil)
	id := uuid.New()
	ledger.Track(id, capacity)
	return ledger, id
}

func TestReserve(t *testing.T) {
	t.Parallel()

	t.Run("decrements availability", func(t *testing.T) {
		t.Parallel()
		ledger, id := newTestLedger(t, 5)

		res, err := ledger.Reserve(context.Background(), id, 3)
		if err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}
		if res.Quantity != 3 || res.TicketTypeID != id {
			t.Errorf("Reserve() token = %+v, want quantity 3 for %s", res, id)
		}

		available, _ := ledger.Available(id)
		if available != 2 {
			t.Errorf("available = %d, want 2", available)
		}
	})

	t.Run("fails without mutation when stock is short", func(t *testing.T) {
		t.Parallel()
		ledger, id := newTestLedger(t, 5)

		if _, err := ledger.Reserve(context.Background(), id, 3); err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}

		_, err := ledger.Reserve(context.Background(), id, 3)
		if !errors.Is(err, ErrInsufficientInventory) {
			t.Fatalf("Reserve() error = %v, want ErrInsufficientInventory", err)
		}

		available, _ := ledger.Available(id)
		if available != 2 {
			t.Errorf("available = %d after failed reserve, want 2", available)
		}
	})

	t.Run("unknown ticket type", func(t *testing.T) {
		t.Parallel()
		ledger, _ := newTestLedger(t, 5)

		_, err := ledger.Reserve(context.Background(), uuid.New(), 1)
		if !errors.Is(err, ErrTicketTypeNotFound) {
			t.Errorf("Reserve() error = %v, want ErrTicketTypeNotFound", err)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		t.Parallel()
		ledger, id := newTestLedger(t, 5)

		for _, qty := range []int{0, -1} {
			if _, err := ledger.Reserve(context.Background(), id, qty); !errors.Is(err, ErrInvalidQuantity) {
				t.Errorf("Reserve(qty=%d) error = %v, want ErrInvalidQuantity", qty, err)
			}
		}
	})

	t.Run("exact remaining quantity succeeds", func(t *testing.T) {
		t.Parallel()
		ledger, id := newTestLedger(t, 4)

		if _, err := ledger.Reserve(context.Background(), id, 4); err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}
		available, _ := ledger.Available(id)
		if available != 0 {
			t.Errorf("available = %d, want 0", available)
		}
	})
}

func TestRelease(t *testing.T) {
	t.Parallel()

	t.Run("round trip restores availability", func(t *testing.T) {
		t.Parallel()
		ledger, id := newTestLedger(t, 10)

		if _, err := ledger.Reserve(context.Background(), id, 7); err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}
		if err := ledger.Release(context.Background(), id, 7); err != nil {
			t.Fatalf("Release() error = %v", err)
		}

		available, _ := ledger.Available(id)
		if available != 10 {
			t.Errorf("available = %d after round trip, want 10", available)
		}
	})

	t.Run("release past capacity is rejected", func(t *testing.T) {
		t.Parallel()
		ledger, id := newTestLedger(t, 10)

		err := ledger.Release(context.Background(), id, 1)
		if !errors.Is(err, ErrInvariantViolation) {
			t.Fatalf("Release() error = %v, want ErrInvariantViolation", err)
		}

		available, _ := ledger.Available(id)
		if available != 10 {
			t.Errorf("available = %d after rejected release, want 10", available)
		}
	})

	t.Run("unknown ticket type", func(t *testing.T) {
		t.Parallel()
		ledger, _ := newTestLedger(t, 10)

		err := ledger.Release(context.Background(), uuid.New(), 1)
		if !errors.Is(err, ErrTicketTypeNotFound) {
			t.Errorf("Release() error = %v, want ErrTicketTypeNotFound", err)
		}
	})
}

func TestConcurrentReserves(t *testing.T) {
	t.Parallel()

	const capacity = 5
	const contenders = 50

	ledger, id := newTestLedger(t, capacity)

	var wg sync.WaitGroup
	results := make(chan error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve(context.Background(), id, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientInventory):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != capacity {
		t.Errorf("succeeded = %d, want exactly %d", succeeded, capacity)
	}
	if insufficient != contenders-capacity {
		t.Errorf("insufficient = %d, want %d", insufficient, contenders-capacity)
	}

	available, _ := ledger.Available(id)
	if available != 0 {
		t.Errorf("available = %d after storm, want 0", available)
	}
}

func TestConcurrentReserveReleaseNeverViolatesBounds(t *testing.T) {
	t.Parallel()

	const capacity = 20
	const workers = 10
	const rounds = 100

	ledger, id := newTestLedger(t, capacity)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				res, err := ledger.Reserve(context.Background(), id, 2)
				if err != nil {
					if !errors.Is(err, ErrInsufficientInventory) {
						t.Errorf("Reserve() error = %v", err)
						return
					}
					continue
				}
				if err := ledger.Release(context.Background(), id, res.Quantity); err != nil {
					t.Errorf("Release() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	// Every reserve was paired with a release, so the pool must be full again
	available, err := ledger.Available(id)
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}
	if available != capacity {
		t.Errorf("available = %d after paired storm, want %d", available, capacity)
	}
}

func TestDistinctTicketTypesDoNotInterfere(t *testing.T) {
	t.Parallel()

	ledger := NewMemoryLedger(nil)
	first := uuid.New()
	second := uuid.New()
	ledger.Track(first, 3)
	ledger.Track(second, 3)

	if _, err := ledger.Reserve(context.Background(), first, 3); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	// Draining the first pool leaves the second untouched
	if _, err := ledger.Reserve(context.Background(), second, 3); err != nil {
		t.Fatalf("Reserve() on second pool error = %v", err)
	}
}
