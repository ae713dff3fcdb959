package minter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/halcyon-wallet/halcyond/internal/core/application/minter"
	"github.com/halcyon-wallet/halcyond/internal/core/domain"
	"github.com/halcyon-wallet/halcyond/internal/core/ports"
)

const (
	testAddress = "hal1aabbccddeeff00112233445566778899aabbcc"
	testTicker  = "HTST"
)

func newTestService(
	registry *domain.JobRegistry, explorerSvc *mockExplorer,
	publisher *collectingPublisher,
) *minter.Service {
	return minter.NewService(minter.Opts{
		Registry:     registry,
		KeySource:    mockKeySource{},
		ExplorerSvc:  explorerSvc,
		Publisher:    publisher,
		BatchSize:    3,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
		Limiter:      rate.NewLimiter(rate.Inf, 1),
	})
}

func startRequest(jobId string, target int) minter.StartJobRequest {
	return minter.StartJobRequest{
		JobId:         jobId,
		WalletAddress: testAddress,
		Ticker:        testTicker,
		Target:        target,
		FeeCeiling:    "1000",
	}
}

// collectUntilTerminal drains progress events until a terminal one shows up.
func collectUntilTerminal(
	t *testing.T, publisher *collectingPublisher,
) []ports.ProgressEvent {
	t.Helper()

	events := []ports.ProgressEvent{}
	for {
		select {
		case event := <-publisher.events:
			events = append(events, event)
			status := event.Status
			if status == "finished" || status == "stopped" || status == "error" {
				return events
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a terminal progress event")
		}
	}
}

func countByStatus(events []ports.ProgressEvent, status string) int {
	count := 0
	for _, event := range events {
		if event.Status == status {
			count++
		}
	}
	return count
}

func TestJobRunsToCompletion(t *testing.T) {
	registry := domain.NewJobRegistry()
	explorerSvc := newMockExplorer(0)
	publisher := newCollectingPublisher()
	svc := newTestService(registry, explorerSvc, publisher)

	err := svc.StartJob(context.Background(), startRequest("job-1", 7))
	require.NoError(t, err)

	events := collectUntilTerminal(t, publisher)
	last := events[len(events)-1]

	require.Equal(t, "finished", last.Status)
	require.Equal(t, 7, last.Completed)
	require.Equal(t, 7, last.Target)
	require.Equal(t, 7, explorerSvc.mintCalls)
	// One confirmation wait per batch: ceil(7/3) = 3.
	require.Equal(t, 3, countByStatus(events, "confirming"))

	requireUnregistered(t, registry, "job-1")
}

func TestJobStoppedBetweenBatches(t *testing.T) {
	registry := domain.NewJobRegistry()
	explorerSvc := newMockExplorer(0)
	publisher := newCollectingPublisher()
	svc := newTestService(registry, explorerSvc, publisher)

	// Raise the stop flag during the first confirmation wait (the poll that
	// sees batch 1 settled), so the scheduler observes it at the boundary of
	// batch 2. The baseline fetch at job start sees minted == 0.
	once := sync.Once{}
	explorerSvc.onBalance = func(minted int) {
		if minted < 3 {
			return
		}
		once.Do(func() {
			require.NoError(t, svc.StopJob("job-2"))
		})
	}

	err := svc.StartJob(context.Background(), startRequest("job-2", 9))
	require.NoError(t, err)

	events := collectUntilTerminal(t, publisher)
	last := events[len(events)-1]

	require.Equal(t, "stopped", last.Status)
	// Never partially through a batch.
	require.Equal(t, 3, last.Completed)
	require.Equal(t, 3, explorerSvc.mintCalls)

	requireUnregistered(t, registry, "job-2")
}

func TestJobFailsOnSubmissionError(t *testing.T) {
	registry := domain.NewJobRegistry()
	explorerSvc := newMockExplorer(0)
	explorerSvc.mintErrAt = 2
	publisher := newCollectingPublisher()
	svc := newTestService(registry, explorerSvc, publisher)

	err := svc.StartJob(context.Background(), startRequest("job-3", 6))
	require.NoError(t, err)

	events := collectUntilTerminal(t, publisher)
	last := events[len(events)-1]

	require.Equal(t, "error", last.Status)
	require.Contains(t, last.Error, "node rejected the transaction")
	// The failed unit aborts the whole job, no retry.
	require.Equal(t, 2, explorerSvc.mintCalls)
	require.Equal(t, 0, last.Completed)

	requireUnregistered(t, registry, "job-3")
}

func TestJobFailsOnConfirmationTimeout(t *testing.T) {
	registry := domain.NewJobRegistry()
	explorerSvc := newMockExplorer(0)
	explorerSvc.frozen = true
	publisher := newCollectingPublisher()

	svc := minter.NewService(minter.Opts{
		Registry:     registry,
		KeySource:    mockKeySource{},
		ExplorerSvc:  explorerSvc,
		Publisher:    publisher,
		BatchSize:    3,
		PollInterval: 5 * time.Millisecond,
		PollTimeout:  30 * time.Millisecond,
		Limiter:      rate.NewLimiter(rate.Inf, 1),
	})

	err := svc.StartJob(context.Background(), startRequest("job-4", 3))
	require.NoError(t, err)

	events := collectUntilTerminal(t, publisher)
	last := events[len(events)-1]

	require.Equal(t, "error", last.Status)
	require.Contains(t, last.Error, "did not increase")

	requireUnregistered(t, registry, "job-4")
}

func TestDuplicateJobIdIsRejected(t *testing.T) {
	registry := domain.NewJobRegistry()
	explorerSvc := newMockExplorer(0)
	explorerSvc.submitting = make(chan struct{})
	publisher := newCollectingPublisher()
	svc := newTestService(registry, explorerSvc, publisher)

	err := svc.StartJob(context.Background(), startRequest("job-5", 3))
	require.NoError(t, err)

	// The first job is parked inside its first submission; the id is taken.
	err = svc.StartJob(context.Background(), startRequest("job-5", 3))
	require.ErrorIs(t, err, domain.ErrJobAlreadyRunning)

	// The running job is left untouched by the rejected start.
	job, ok := registry.Get("job-5")
	require.True(t, ok)
	require.Equal(t, 0, job.Completed)
	require.Equal(t, 3, job.Target)

	close(explorerSvc.submitting)
	collectUntilTerminal(t, publisher)
}

func TestStopUnknownJob(t *testing.T) {
	registry := domain.NewJobRegistry()
	svc := newTestService(registry, newMockExplorer(0), newCollectingPublisher())

	err := svc.StopJob("unknown")
	require.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestStartJobValidation(t *testing.T) {
	tests := []struct {
		name string
		req  minter.StartJobRequest
		err  error
	}{
		{
			name: "zero fee ceiling",
			req: minter.StartJobRequest{
				JobId: "j", WalletAddress: testAddress, Ticker: testTicker,
				Target: 3, FeeCeiling: "0",
			},
			err: domain.ErrInvalidAmount,
		},
		{
			name: "negative fee ceiling",
			req: minter.StartJobRequest{
				JobId: "j", WalletAddress: testAddress, Ticker: testTicker,
				Target: 3, FeeCeiling: "-5",
			},
			err: domain.ErrInvalidAmount,
		},
		{
			name: "non positive target",
			req: minter.StartJobRequest{
				JobId: "j", WalletAddress: testAddress, Ticker: testTicker,
				Target: 0, FeeCeiling: "1000",
			},
			err: domain.ErrInvalidTarget,
		},
		{
			name: "missing ticker",
			req: minter.StartJobRequest{
				JobId: "j", WalletAddress: testAddress,
				Target: 3, FeeCeiling: "1000",
			},
			err: domain.ErrInvalidTicker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := domain.NewJobRegistry()
			explorerSvc := newMockExplorer(0)
			svc := newTestService(registry, explorerSvc, newCollectingPublisher())

			err := svc.StartJob(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.err)
			// Rejected before any collaborator call and never registered.
			require.Equal(t, 0, explorerSvc.mintCalls)
			require.Empty(t, registry.ActiveIds())
		})
	}
}

func TestStartJobWithLockedVault(t *testing.T) {
	registry := domain.NewJobRegistry()
	svc := minter.NewService(minter.Opts{
		Registry:    registry,
		KeySource:   mockKeySource{err: domain.ErrVaultLocked},
		ExplorerSvc: newMockExplorer(0),
		Publisher:   newCollectingPublisher(),
	})

	err := svc.StartJob(context.Background(), startRequest("job-6", 3))
	require.ErrorIs(t, err, domain.ErrVaultLocked)
	require.Empty(t, registry.ActiveIds())
}

func requireUnregistered(
	t *testing.T, registry *domain.JobRegistry, jobId string,
) {
	t.Helper()

	// Unregistration happens right after the terminal event went out.
	require.Eventually(t, func() bool {
		_, ok := registry.Get(jobId)
		return !ok
	}, time.Second, 5*time.Millisecond)
}
