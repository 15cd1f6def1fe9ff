package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTasksRunInSubmissionOrder(t *testing.T) {
	w := New(10, nil)
	w.Start(context.Background())
	defer w.Stop()

	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		if err := w.Submit(func(context.Context) {
			defer wg.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()

	for i, v := range got {
		if v != i {
			t.Fatalf("task order = %v, want 0..4", got)
		}
	}
}

func TestTasksNeverOverlap(t *testing.T) {
	w := New(10, nil)
	w.Start(context.Background())
	defer w.Stop()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		_ = w.Submit(func(context.Context) {
			defer wg.Done()
			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("max concurrent tasks = %d, want 1", maxSeen)
	}
}

func TestSubmitBeforeStart(t *testing.T) {
	w := New(1, nil)
	if err := w.Submit(func(context.Context) {}); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Submit before Start = %v, want ErrNotRunning", err)
	}
}

func TestSubmitQueueFull(t *testing.T) {
	w := New(1, nil)
	w.Start(context.Background())
	defer w.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	_ = w.Submit(func(context.Context) {
		close(started)
		<-release
	})
	<-started
	if err := w.Submit(func(context.Context) {}); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if err := w.Submit(func(context.Context) {}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("third submit = %v, want ErrQueueFull", err)
	}
	close(release)
}

func TestStopCancelsInFlightTask(t *testing.T) {
	w := New(1, nil)
	w.Start(context.Background())

	started := make(chan struct{})
	cancelled := make(chan struct{})
	_ = w.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	})
	<-started
	w.Stop()

	select {
	case <-cancelled:
	default:
		t.Fatal("Stop returned before the task observed cancellation")
	}
	if err := w.Submit(func(context.Context) {}); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Submit after Stop = %v, want ErrNotRunning", err)
	}
}

func TestPanickingTaskDoesNotKillWorker(t *testing.T) {
	w := New(2, nil)
	w.Start(context.Background())
	defer w.Stop()

	done := make(chan struct{})
	_ = w.Submit(func(context.Context) { panic("boom") })
	_ = w.Submit(func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped after a panicking task")
	}
}
