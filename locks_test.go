package groupcore

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithLockSerializesSameSession(t *testing.T) {
	locks := newSessionLocks()
	var active int32
	var sawOverlap bool
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locks.withLock("s1", func() error {
				if atomic.AddInt32(&active, 1) > 1 {
					mu.Lock()
					sawOverlap = true
					mu.Unlock()
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	require.False(t, sawOverlap)
}

func TestWithLockAllowsDistinctSessionsConcurrently(t *testing.T) {
	locks := newSessionLocks()
	start := make(chan struct{})
	var wg sync.WaitGroup
	results := make(chan string, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_ = locks.withLock("s1", func() error {
			time.Sleep(30 * time.Millisecond)
			results <- "s1"
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		<-start
		_ = locks.withLock("s2", func() error {
			results <- "s2"
			return nil
		})
	}()

	close(start)
	wg.Wait()
	close(results)

	first := <-results
	require.Equal(t, "s2", first, "s2's lock is independent of s1's and should finish first")
}
