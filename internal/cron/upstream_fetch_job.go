package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/instafit/fieldops-backend/internal/ingest"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/types"
)

const upstreamFetchJobName = "upstream-fetch"

type bookingFetcher interface {
	Fetch(ctx context.Context, actor types.Actor) (*ingest.FetchResult, error)
}

type UpstreamFetchJobParams struct {
	Fetcher bookingFetcher
	Logger  *logger.Logger
	Actor   string
}

// UpstreamFetchJob imports new upstream bookings on every cycle.
type UpstreamFetchJob struct {
	fetcher bookingFetcher
	logg    *logger.Logger
	actor   types.Actor
}

func NewUpstreamFetchJob(params UpstreamFetchJobParams) (*UpstreamFetchJob, error) {
	if params.Fetcher == nil {
		return nil, errors.New("fetcher required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &UpstreamFetchJob{
		fetcher: params.Fetcher,
		logg:    params.Logger,
		actor:   types.SystemActor(params.Actor),
	}, nil
}

func (j *UpstreamFetchJob) Name() string { return upstreamFetchJobName }

func (j *UpstreamFetchJob) Run(ctx context.Context) error {
	result, err := j.fetcher.Fetch(ctx, j.actor)
	if err != nil {
		return fmt.Errorf("fetch bookings: %w", err)
	}
	if !result.Success {
		return errors.New(result.Message)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"fetched": result.Fetched,
		"new":     result.New,
		"skipped": result.Skipped,
		"failed":  result.Failed,
		"actor":   j.actor.Name,
	}), "upstream fetch job finished")
	return nil
}
