package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name     string
	interval time.Duration
	runs     atomic.Int32
}

func (j *countingJob) Name() string            { return j.name }
func (j *countingJob) Interval() time.Duration { return j.interval }
func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return nil
}

type soonJob struct {
	countingJob
	delay time.Duration
}

func (j *soonJob) NextRun(now time.Time) time.Time {
	return now.Add(j.delay)
}

func TestManagerRunsJobImmediatelyThenOnTicks(t *testing.T) {
	m := NewManager(context.Background())
	job := &countingJob{name: "test", interval: 20 * time.Millisecond}
	m.Register(job)
	m.Start()
	defer func() {
		m.Stop()
		m.Wait()
	}()

	require.Eventually(t, func() bool {
		return job.runs.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestManagerStopHaltsJobs(t *testing.T) {
	m := NewManager(context.Background())
	job := &countingJob{name: "test", interval: 10 * time.Millisecond}
	m.Register(job)
	m.Start()

	require.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, 2*time.Second, time.Millisecond)

	m.Stop()
	m.Wait()

	count := job.runs.Load()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, count, job.runs.Load())
}

func TestManagerSingleShotReschedulesItself(t *testing.T) {
	m := NewManager(context.Background())
	job := &soonJob{countingJob: countingJob{name: "single", interval: time.Hour}, delay: 15 * time.Millisecond}
	m.Register(job)
	m.Start()
	defer func() {
		m.Stop()
		m.Wait()
	}()

	// No immediate run: the first firing waits for NextRun.
	require.Zero(t, job.runs.Load())

	require.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestManagerStartIsIdempotent(t *testing.T) {
	m := NewManager(context.Background())
	job := &countingJob{name: "test", interval: time.Hour}
	m.Register(job)
	m.Start()
	m.Start()
	defer func() {
		m.Stop()
		m.Wait()
	}()

	require.Eventually(t, func() bool {
		return job.runs.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	// A second Start must not double-launch the job.
	require.Equal(t, int32(1), job.runs.Load())
}
