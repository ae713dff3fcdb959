package domain

import (
	"sync"
)

// JobRegistry is the process-wide table of active batch jobs. It is the
// single authority on whether a job id is in use and holds the cooperative
// cancellation flag of every running job. All access is serialized, since
// the scheduler goroutines and the external callers touch the same map.
type JobRegistry struct {
	lock *sync.RWMutex
	jobs map[string]*BatchJob
}

// NewJobRegistry returns an empty registry. It is meant to be created once
// by the composition root and shared by reference.
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{
		lock: &sync.RWMutex{},
		jobs: map[string]*BatchJob{},
	}
}

// Register adds a job to the registry, failing fast with ErrJobAlreadyRunning
// if its id is already in use. The existing job is left untouched.
func (r *JobRegistry) Register(job *BatchJob) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.jobs[job.Id]; ok {
		return ErrJobAlreadyRunning
	}
	r.jobs[job.Id] = job
	return nil
}

// RequestStop raises the cancellation flag of a registered job. The flag is
// observed by the scheduler at the next batch boundary. Stopping an unknown
// id returns ErrJobNotFound, which is reported to the caller but is not
// fatal for the system.
func (r *JobRegistry) RequestStop(jobId string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	job, ok := r.jobs[jobId]
	if !ok {
		return ErrJobNotFound
	}
	job.cancelled = true
	return nil
}

// IsCancelled returns whether a stop has been requested for the given job.
// An unregistered id counts as cancelled so that a scheduler racing with an
// unregister bails out instead of looping forever.
func (r *JobRegistry) IsCancelled(jobId string) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	job, ok := r.jobs[jobId]
	if !ok {
		return true
	}
	return job.cancelled
}

// Get returns the registered job for the given id, if any.
func (r *JobRegistry) Get(jobId string) (*BatchJob, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	job, ok := r.jobs[jobId]
	return job, ok
}

// Unregister removes a job from the registry. It must be called only after
// a terminal status has been reported to the consumer.
func (r *JobRegistry) Unregister(jobId string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.jobs, jobId)
}

// ActiveIds returns the ids of all registered jobs.
func (r *JobRegistry) ActiveIds() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	return ids
}
