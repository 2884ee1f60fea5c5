package locks

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockSerializesSameFilename(t *testing.T) {
	r := NewRegistry()
	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := r.Lock("f.txt")
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			if n > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, n)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), maxActive)
}

func TestLockDoesNotSerializeDifferentFilenames(t *testing.T) {
	r := NewRegistry()
	unlockA := r.Lock("a.txt")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := r.Lock("b.txt")
		defer unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b.txt blocked by unrelated lock on a.txt")
	}
}

func TestRegistryEvictsEntryAfterUnlock(t *testing.T) {
	r := NewRegistry()
	unlock := r.Lock("f.txt")
	unlock()

	r.mu.Lock()
	_, present := r.entries["f.txt"]
	r.mu.Unlock()

	require.False(t, present)
}
