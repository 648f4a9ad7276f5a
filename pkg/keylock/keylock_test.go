package keylock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_SerializesSameKey(t *testing.T) {
	reg := NewRegistry(time.Second)

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := reg.Acquire(context.Background(), ResourceKey("t1", "r1"))
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Equal(t, 0, reg.Len())
}

func TestAcquire_TimesOutWithErrBusy(t *testing.T) {
	var observed []bool
	reg := NewRegistry(20*time.Millisecond, WithObserver(func(_ time.Duration, acquired bool) {
		observed = append(observed, acquired)
	}))

	release, err := reg.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	_, err = reg.Acquire(context.Background(), "k")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, []bool{true, false}, observed)
}

func TestAcquire_DifferentKeysDoNotBlock(t *testing.T) {
	reg := NewRegistry(20 * time.Millisecond)

	releaseA, err := reg.Acquire(context.Background(), ResourceKey("t1", "a"))
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := reg.Acquire(context.Background(), ResourceKey("t1", "b"))
	require.NoError(t, err)
	defer releaseB()

	releaseOtherTenant, err := reg.Acquire(context.Background(), ResourceKey("t2", "a"))
	require.NoError(t, err)
	releaseOtherTenant()
}

func TestRelease_IsIdempotent(t *testing.T) {
	reg := NewRegistry(time.Second)

	release, err := reg.Acquire(context.Background(), "k")
	require.NoError(t, err)
	release()
	release()

	release2, err := reg.Acquire(context.Background(), "k")
	require.NoError(t, err)
	release2()
	assert.Equal(t, 0, reg.Len())
}
