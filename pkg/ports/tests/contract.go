package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mektycoon/mekforge/pkg/ports"
)

// LockerContractTest is a reusable test suite that verifies if an adapter complies with ports.DistributedLocker.
func LockerContractTest(t *testing.T, locker ports.DistributedLocker) {
	t.Helper()
	ctx := context.Background()

	// 1. Lock then Unlock
	t.Run("Lock_Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "contract-a", 5*time.Second)
		if err != nil {
			t.Fatalf("unexpected error acquiring lock: %v", err)
		}
		if unlock == nil {
			t.Fatal("expected an unlock function")
		}
		if err := unlock(ctx); err != nil {
			t.Errorf("unexpected error releasing lock: %v", err)
		}
	})

	// 2. A held lock blocks until the context expires
	t.Run("Contention", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "contract-b", 5*time.Second)
		if err != nil {
			t.Fatalf("unexpected error acquiring lock: %v", err)
		}
		defer unlock(ctx)

		waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		if _, err := locker.Lock(waitCtx, "contract-b", 5*time.Second); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded while lock is held, got %v", err)
		}
	})

	// 3. Released locks can be taken again
	t.Run("Reacquire", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "contract-c", 5*time.Second)
		if err != nil {
			t.Fatalf("unexpected error acquiring lock: %v", err)
		}
		if err := unlock(ctx); err != nil {
			t.Fatalf("unexpected error releasing lock: %v", err)
		}
		again, err := locker.Lock(ctx, "contract-c", 5*time.Second)
		if err != nil {
			t.Fatalf("expected to reacquire released lock: %v", err)
		}
		_ = again(ctx)
	})

	// 4. Different keys do not contend
	t.Run("Independent_Keys", func(t *testing.T) {
		u1, err := locker.Lock(ctx, "contract-d1", 5*time.Second)
		if err != nil {
			t.Fatalf("lock d1: %v", err)
		}
		defer u1(ctx)

		shortCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		u2, err := locker.Lock(shortCtx, "contract-d2", 5*time.Second)
		if err != nil {
			t.Fatalf("lock d2 should not wait on d1: %v", err)
		}
		_ = u2(ctx)
	})
}
