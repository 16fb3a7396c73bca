package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCleaner struct {
	sweeps  int64
	retired int64
}

func (f *fakeCleaner) CleanExpiredListings(ctx context.Context) int {
	atomic.AddInt64(&f.sweeps, 1)
	return int(atomic.LoadInt64(&f.retired))
}

func TestExpirySweeper_RunNow(t *testing.T) {
	cleaner := &fakeCleaner{retired: 3}
	sweeper := NewExpirySweeper(cleaner, DefaultSweeperConfig())

	assert.Equal(t, 3, sweeper.RunNow())
	assert.Equal(t, int64(1), atomic.LoadInt64(&cleaner.sweeps))
}

func TestExpirySweeper_PeriodicSweep(t *testing.T) {
	cleaner := &fakeCleaner{}
	sweeper := NewExpirySweeper(cleaner, SweeperConfig{
		SweepInterval: 10 * time.Millisecond,
		SweepTimeout:  time.Second,
	})

	sweeper.Start()
	defer sweeper.Stop()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&cleaner.sweeps) < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestExpirySweeper_StopHaltsSweeps(t *testing.T) {
	cleaner := &fakeCleaner{}
	sweeper := NewExpirySweeper(cleaner, SweeperConfig{
		SweepInterval: 10 * time.Millisecond,
		SweepTimeout:  time.Second,
	})

	sweeper.Start()
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()

	// Let any in-flight sweep finish before snapshotting.
	time.Sleep(20 * time.Millisecond)
	count := atomic.LoadInt64(&cleaner.sweeps)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, atomic.LoadInt64(&cleaner.sweeps))
}

func TestExpirySweeper_RestartAfterStop(t *testing.T) {
	cleaner := &fakeCleaner{}
	sweeper := NewExpirySweeper(cleaner, SweeperConfig{
		SweepInterval: 10 * time.Millisecond,
		SweepTimeout:  time.Second,
	})

	sweeper.Start()
	sweeper.Stop()

	// Let any in-flight sweep finish before snapshotting.
	time.Sleep(20 * time.Millisecond)
	before := atomic.LoadInt64(&cleaner.sweeps)

	sweeper.Start()
	defer sweeper.Stop()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&cleaner.sweeps) <= before {
		select {
		case <-deadline:
			t.Fatal("sweeper did not resume after restart")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestExpirySweeper_StopIsIdempotent(t *testing.T) {
	sweeper := NewExpirySweeper(&fakeCleaner{}, DefaultSweeperConfig())
	sweeper.Start()

	sweeper.Stop()
	sweeper.Stop()
}

func TestExpirySweeper_StartTwiceIsNoOp(t *testing.T) {
	cleaner := &fakeCleaner{}
	sweeper := NewExpirySweeper(cleaner, SweeperConfig{
		SweepInterval: time.Hour,
		SweepTimeout:  time.Second,
	})

	sweeper.Start()
	sweeper.Start()
	sweeper.Stop()
}

func TestExpirySweeper_DefaultConfig(t *testing.T) {
	sweeper := NewExpirySweeper(&fakeCleaner{}, SweeperConfig{})
	assert.Equal(t, 10*time.Minute, sweeper.config.SweepInterval)
	assert.Equal(t, time.Minute, sweeper.config.SweepTimeout)
}
