package progress

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/halcyon-wallet/halcyond/internal/core/ports"
)

const (
	// AllJobs subscribes to the events of every job.
	AllJobs = ""

	subscriberQueueSize = 16
)

// Emitter fans progress events out to subscribed consumers with
// fire-and-forget semantics: Publish never blocks the scheduler, a
// subscriber whose queue is full simply loses the event.
type Emitter struct {
	lock   *sync.RWMutex
	subs   map[string]map[int]chan ports.ProgressEvent
	nextId int
}

// NewEmitter returns an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{
		lock: &sync.RWMutex{},
		subs: map[string]map[int]chan ports.ProgressEvent{},
	}
}

// Subscribe registers a consumer for the events of the given job id, or of
// all jobs with AllJobs. It returns the event channel and a function that
// tears the subscription down and closes the channel.
func (e *Emitter) Subscribe(jobId string) (<-chan ports.ProgressEvent, func()) {
	e.lock.Lock()
	defer e.lock.Unlock()

	id := e.nextId
	e.nextId++

	ch := make(chan ports.ProgressEvent, subscriberQueueSize)
	if _, ok := e.subs[jobId]; !ok {
		e.subs[jobId] = map[int]chan ports.ProgressEvent{}
	}
	e.subs[jobId][id] = ch

	unsubscribe := func() {
		e.lock.Lock()
		defer e.lock.Unlock()
		if _, ok := e.subs[jobId][id]; !ok {
			return
		}
		delete(e.subs[jobId], id)
		if len(e.subs[jobId]) == 0 {
			delete(e.subs, jobId)
		}
		close(ch)
	}
	return ch, unsubscribe
}

// Publish delivers the event to the subscribers of its job id and to the
// all-jobs subscribers. Delivery is best-effort: a slow consumer loses
// events rather than stalling the scheduler.
func (e *Emitter) Publish(event ports.ProgressEvent) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	keys := []string{event.JobId}
	if event.JobId != AllJobs {
		keys = append(keys, AllJobs)
	}
	for _, key := range keys {
		for _, ch := range e.subs[key] {
			select {
			case ch <- event:
			default:
				log.Debugf(
					"dropped progress event for job %s: subscriber queue full",
					event.JobId,
				)
			}
		}
	}
}
