package cron

import (
	"context"
	"fmt"
)

// Job is a task the cron worker runs once per cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs keyed by name, preserving registration order.
type Registry struct {
	order []string
	jobs  map[string]Job
}

// NewRegistry builds a registry from jobs. Nil jobs are ignored; a
// duplicate name panics since it can only come from wiring code.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{jobs: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds job under its name.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	name := job.Name()
	if name == "" {
		return fmt.Errorf("cron job name required")
	}
	if _, exists := r.jobs[name]; exists {
		return fmt.Errorf("cron job %q already registered", name)
	}
	r.jobs[name] = job
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the job registered under name.
func (r *Registry) Lookup(name string) (Job, bool) {
	job, ok := r.jobs[name]
	return job, ok
}

// Jobs returns a copy of the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	out := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.jobs[name])
	}
	return out
}
