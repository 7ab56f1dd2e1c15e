package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cryptoweekly/internal/common"
)

func scheduleConfig(runOnStart bool) common.ScheduleConfig {
	return common.ScheduleConfig{
		DayOfWeek:    "WED",
		TimeOfDay:    "15:00",
		PollInterval: "10ms",
		RunOnStart:   runOnStart,
	}
}

func TestNewServiceValidatesSchedule(t *testing.T) {
	_, err := NewService(common.ScheduleConfig{
		DayOfWeek:    "NOTADAY",
		TimeOfDay:    "15:00",
		PollInterval: "1m",
	}, func(context.Context) error { return nil }, nil)
	require.Error(t, err)

	_, err = NewService(common.ScheduleConfig{
		DayOfWeek:    "WED",
		TimeOfDay:    "25:99",
		PollInterval: "1m",
	}, func(context.Context) error { return nil }, nil)
	require.Error(t, err)

	_, err = NewService(common.ScheduleConfig{
		DayOfWeek:    "WED",
		TimeOfDay:    "15:00",
		PollInterval: "not-a-duration",
	}, func(context.Context) error { return nil }, nil)
	require.Error(t, err)
}

func TestStartRunsOnStart(t *testing.T) {
	var runs atomic.Int32
	svc, err := NewService(scheduleConfig(true), func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = svc.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), runs.Load())
}

func TestStartWithoutRunOnStart(t *testing.T) {
	var runs atomic.Int32
	svc, err := NewService(scheduleConfig(false), func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_ = svc.Start(ctx)
	assert.Equal(t, int32(0), runs.Load())
}

func TestRunFailureDoesNotStopLoop(t *testing.T) {
	svc, err := NewService(scheduleConfig(true), func(context.Context) error {
		return errors.New("fetch failed")
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// the failing startup run must not abort Start; it returns only when
	// the context expires
	err = svc.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecuteRunSkipsOverlap(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32
	svc, err := NewService(scheduleConfig(false), func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	}, nil)
	require.NoError(t, err)

	go svc.executeRun(context.Background(), "test")

	// wait for the first run to take the guard
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)

	svc.executeRun(context.Background(), "test")
	assert.Equal(t, int32(1), runs.Load())

	close(release)
}

func TestExecuteRunRecoversFromPanic(t *testing.T) {
	t.Chdir(t.TempDir())

	svc, err := NewService(scheduleConfig(false), func(context.Context) error {
		panic("boom")
	}, nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		svc.executeRun(context.Background(), "test")
	})

	// the guard must be released after a panic
	svc.mu.Lock()
	running := svc.isRunning
	svc.mu.Unlock()
	assert.False(t, running)
}
