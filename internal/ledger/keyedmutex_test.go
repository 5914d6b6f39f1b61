package ledger

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexMutualExclusion(t *testing.T) {
	km := NewKeyedMutex()

	var counter int // unsynchronized on purpose; the mutex must protect it
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = km.WithLock("u1", func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	require.Equal(t, 200, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = km.WithLock("a", func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	done := make(chan struct{})
	go func() {
		_ = km.WithLock("b", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("operation on key b blocked by a held lock on key a")
	}
	close(release)
}

func TestKeyedMutexReleasedOnPanic(t *testing.T) {
	km := NewKeyedMutex()

	func() {
		defer func() { _ = recover() }()
		_ = km.WithLock("p", func() error { panic("boom") })
	}()

	done := make(chan struct{})
	go func() {
		_ = km.WithLock("p", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock not released after panic")
	}
}

func TestKeyedMutexPropagatesError(t *testing.T) {
	km := NewKeyedMutex()
	want := errors.New("nope")

	err := km.WithLock("e", func() error { return want })

	require.ErrorIs(t, err, want)
}
