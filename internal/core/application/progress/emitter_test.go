package progress_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/halcyon-wallet/halcyond/internal/core/application/progress"
	"github.com/halcyon-wallet/halcyond/internal/core/ports"
)

func event(jobId string, completed int) ports.ProgressEvent {
	return ports.ProgressEvent{
		JobId:     jobId,
		Completed: completed,
		Target:    10,
		Status:    "active",
	}
}

func receive(
	t *testing.T, ch <-chan ports.ProgressEvent,
) ports.ProgressEvent {
	t.Helper()

	select {
	case evt, ok := <-ch:
		require.True(t, ok)
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a progress event")
		return ports.ProgressEvent{}
	}
}

func TestSubscribeAndReceive(t *testing.T) {
	emitter := progress.NewEmitter()
	ch, unsubscribe := emitter.Subscribe("job-1")
	defer unsubscribe()

	emitter.Publish(event("job-1", 3))

	evt := receive(t, ch)
	require.Equal(t, "job-1", evt.JobId)
	require.Equal(t, 3, evt.Completed)
}

func TestSubscriberOnlySeesItsJob(t *testing.T) {
	emitter := progress.NewEmitter()
	ch, unsubscribe := emitter.Subscribe("job-1")
	defer unsubscribe()

	emitter.Publish(event("job-2", 1))
	emitter.Publish(event("job-1", 2))

	evt := receive(t, ch)
	require.Equal(t, "job-1", evt.JobId)
	require.Empty(t, ch)
}

func TestAllJobsSubscriberSeesEverything(t *testing.T) {
	emitter := progress.NewEmitter()
	ch, unsubscribe := emitter.Subscribe(progress.AllJobs)
	defer unsubscribe()

	emitter.Publish(event("job-1", 1))
	emitter.Publish(event("job-2", 2))

	require.Equal(t, "job-1", receive(t, ch).JobId)
	require.Equal(t, "job-2", receive(t, ch).JobId)
}

func TestPublishNeverBlocksOnFullQueue(t *testing.T) {
	emitter := progress.NewEmitter()
	ch, unsubscribe := emitter.Subscribe("job-1")
	defer unsubscribe()

	// Overfill the queue without draining it. The extra events are dropped
	// and Publish returns immediately every time.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			emitter.Publish(event("job-1", i))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a saturated subscriber")
	}

	// The queued prefix is intact even though the tail was dropped.
	evt := receive(t, ch)
	require.Equal(t, 0, evt.Completed)
}

func TestPublishWithNoSubscribers(t *testing.T) {
	emitter := progress.NewEmitter()
	emitter.Publish(event("job-1", 1))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	emitter := progress.NewEmitter()
	ch, unsubscribe := emitter.Subscribe("job-1")

	unsubscribe()

	_, ok := <-ch
	require.False(t, ok)

	// Idempotent, and events after teardown go nowhere.
	unsubscribe()
	emitter.Publish(event("job-1", 1))
}

func TestIndependentSubscribersEachGetACopy(t *testing.T) {
	emitter := progress.NewEmitter()
	first, unsubFirst := emitter.Subscribe("job-1")
	defer unsubFirst()
	second, unsubSecond := emitter.Subscribe("job-1")
	defer unsubSecond()

	emitter.Publish(event("job-1", 4))

	require.Equal(t, 4, receive(t, first).Completed)
	require.Equal(t, 4, receive(t, second).Completed)
}
