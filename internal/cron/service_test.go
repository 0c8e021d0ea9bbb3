package cron

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/metrics"
)

type fakeLock struct {
	acquired  bool
	held      bool
	releases  int
	refreshes int
	lost      bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Refresh(context.Context) error {
	f.refreshes++
	if f.lost {
		return ErrLockLost
	}
	return nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	trailing := &testJob{name: "trailing"}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: NewRegistry(success, failure, trailing),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = service.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "fail: boom") {
		t.Fatalf("expected aggregated job error, got %v", err)
	}
	for _, job := range []*testJob{success, failure, trailing} {
		if job.runs != 1 {
			t.Fatalf("expected %s to run once, ran %d", job.name, job.runs)
		}
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
	if lock.refreshes != 2 {
		t.Fatalf("expected a refresh between jobs, got %d", lock.refreshes)
	}
}

func TestServiceRunOnceStopsWhenLockLost(t *testing.T) {
	first := &testJob{name: "first"}
	second := &testJob{name: "second"}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(first, second),
		Lock:     &fakeLock{lost: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	err = service.RunOnce(context.Background())
	if !errors.Is(err, ErrLockLost) {
		t.Fatalf("expected lock lost, got %v", err)
	}
	if first.runs != 1 || second.runs != 0 {
		t.Fatalf("unexpected runs first=%d second=%d", first.runs, second.runs)
	}
}

func TestServiceRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "guarded"}
	reg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran without the lock")
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var skipped float64
	for _, mf := range mfs {
		if mf.GetName() == "fieldops_cron_cycles_skipped_total" {
			skipped = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	if skipped != 1 {
		t.Fatalf("expected one skipped cycle, got %f", skipped)
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected missing lock to fail")
	}
}
