package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/instafit/fieldops-backend/internal/ingest"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/types"
)

type stubFetcher struct {
	result *ingest.FetchResult
	err    error
	actor  types.Actor
}

func (s *stubFetcher) Fetch(_ context.Context, actor types.Actor) (*ingest.FetchResult, error) {
	s.actor = actor
	return s.result, s.err
}

func TestUpstreamFetchJobRun(t *testing.T) {
	fetcher := &stubFetcher{result: &ingest.FetchResult{Success: true, Fetched: 3, New: 2, Skipped: 1}}
	job, err := NewUpstreamFetchJob(UpstreamFetchJobParams{Fetcher: fetcher, Logger: logger.Nop(), Actor: "cron"})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "upstream-fetch" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if fetcher.actor.Name != "cron" {
		t.Fatalf("expected actor cron, got %q", fetcher.actor.Name)
	}
}

func TestUpstreamFetchJobDefaultsToSystemActor(t *testing.T) {
	fetcher := &stubFetcher{result: &ingest.FetchResult{Success: true}}
	job, _ := NewUpstreamFetchJob(UpstreamFetchJobParams{Fetcher: fetcher, Logger: logger.Nop()})
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if fetcher.actor.Name != "SYSTEM" {
		t.Fatalf("expected SYSTEM actor, got %q", fetcher.actor.Name)
	}
}

func TestUpstreamFetchJobReportsUpstreamFailure(t *testing.T) {
	fetcher := &stubFetcher{result: &ingest.FetchResult{Success: false, Message: "Failed to fetch bookings from upstream: timeout"}}
	job, _ := NewUpstreamFetchJob(UpstreamFetchJobParams{Fetcher: fetcher, Logger: logger.Nop()})
	err := job.Run(context.Background())
	if err == nil || err.Error() != "Failed to fetch bookings from upstream: timeout" {
		t.Fatalf("expected upstream failure, got %v", err)
	}

	fetcher.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected store failure to surface")
	}
}
