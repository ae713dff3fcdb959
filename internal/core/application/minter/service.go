package minter

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/halcyon-wallet/halcyond/internal/core/domain"
	"github.com/halcyon-wallet/halcyond/internal/core/ports"
	"github.com/halcyon-wallet/halcyond/pkg/explorer"
)

// Service runs long-lived token mint jobs: it submits the requested number of
// mint operations in small batches and waits for every batch to settle on
// chain before starting the next one. One goroutine owns each job; the shared
// registry is the only coordination point with the outside.
type Service struct {
	registry     *domain.JobRegistry
	keySource    ports.KeySource
	explorerSvc  explorer.Service
	publisher    ports.ProgressPublisher
	confirmer    *Confirmer
	batchSize    int
	pollInterval time.Duration
	pollTimeout  time.Duration
	limiter      *rate.Limiter
}

// NewService returns a minter service ready to accept job start requests.
func NewService(opts Opts) *Service {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(defaultSubmitRate), 1)
	}
	return &Service{
		registry:     opts.Registry,
		keySource:    opts.KeySource,
		explorerSvc:  opts.ExplorerSvc,
		publisher:    opts.Publisher,
		confirmer:    NewConfirmer(opts.ExplorerSvc, limiter),
		batchSize:    batchSize,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		limiter:      limiter,
	}
}

// StartJob validates the request, registers the job and launches its
// scheduler goroutine. Validation and credential errors are returned
// synchronously and the job never enters the registry; anything that goes
// wrong afterwards is surfaced only through progress events.
func (s *Service) StartJob(ctx context.Context, req StartJobRequest) error {
	feeCeiling, err := domain.ParseAmount(req.FeeCeiling, 0)
	if err != nil {
		return err
	}
	job, err := domain.NewBatchJob(
		req.JobId, req.WalletAddress, req.Ticker, req.Target, feeCeiling,
	)
	if err != nil {
		return err
	}

	signer, err := s.keySource.ResolvePrivateKey(ctx, req.WalletAddress)
	if err != nil {
		return err
	}

	if err := s.registry.Register(job); err != nil {
		return err
	}

	go func() {
		s.run(job, signer)
		// The registry stays the single authority on whether a job id is in
		// use: removal happens here, after the terminal event went out, never
		// inside the scheduler loop.
		s.registry.Unregister(job.Id)
	}()

	return nil
}

// StopJob raises the cancellation flag of a running job. The scheduler
// observes it at the next batch boundary.
func (s *Service) StopJob(jobId string) error {
	return s.registry.RequestStop(jobId)
}

// run drives a job to one of its terminal statuses. It never returns earlier.
func (s *Service) run(job *domain.BatchJob, signer explorer.Signer) {
	ctx := context.Background()

	info, err := s.explorerSvc.GetAssetInfo(ctx, job.Asset)
	if err != nil {
		s.fail(job, fmt.Errorf("fetching info for asset %s: %w", job.Asset, err))
		return
	}

	baselineStr, err := s.explorerSvc.GetAssetBalance(
		ctx, job.WalletAddress, job.Asset,
	)
	if err != nil {
		s.fail(job, fmt.Errorf("fetching baseline balance: %w", err))
		return
	}
	baseline, err := domain.ParseBalance(baselineStr, info.Decimals)
	if err != nil {
		s.fail(job, err)
		return
	}

	totalBatches := (job.Target + s.batchSize - 1) / s.batchSize
	log.Debugf(
		"job %s: minting %d %s in %d batches", job.Id, job.Target, job.Asset,
		totalBatches,
	)

	for job.Completed < job.Target {
		// The only cancellation point. An in-flight batch is never
		// interrupted, so stop latency is the time to finish the current one.
		if s.registry.IsCancelled(job.Id) {
			job.Stop()
			s.emit(job, "")
			log.Debugf("job %s: stopped at %d/%d", job.Id, job.Completed, job.Target)
			return
		}

		units := min(s.batchSize, job.Target-job.Completed)
		job.Activate()

		lastTxId := ""
		for i := 0; i < units; i++ {
			// Mints within a batch share the wallet's spendable outputs, so
			// they go out one by one; concurrent submission would double
			// spend the same input.
			if err := s.limiter.Wait(ctx); err != nil {
				s.fail(job, err)
				return
			}
			txid, err := s.explorerSvc.SubmitMint(
				ctx, signer, job.Asset, job.FeeCeiling,
			)
			if err != nil {
				// A failed unit aborts the whole job: the utxo state after a
				// partial batch is ambiguous, so no retry.
				s.fail(job, fmt.Errorf("submitting mint: %w", err))
				return
			}
			lastTxId = txid
			s.publisher.Publish(ports.ProgressEvent{
				JobId:     job.Id,
				Completed: job.Completed + i + 1,
				Target:    job.Target,
				TxId:      txid,
				Status:    domain.JobStatusActive.String(),
			})
		}

		job.Advance(units)
		job.Confirming()
		s.emit(job, lastTxId)

		newBalance, err := s.confirmer.WaitForIncrease(
			ctx, job.WalletAddress, job.Asset, info.Decimals, baseline,
			s.pollTimeout, s.pollInterval,
		)
		if err != nil {
			s.fail(job, err)
			return
		}
		baseline = newBalance
	}

	job.Finish()
	s.emit(job, "")
	log.Debugf("job %s: finished, %d units minted", job.Id, job.Completed)
}

func (s *Service) fail(job *domain.BatchJob, err error) {
	log.WithError(err).Warnf("job %s failed", job.Id)
	job.Fail(err.Error())
	s.emit(job, "")
}

func (s *Service) emit(job *domain.BatchJob, txid string) {
	s.publisher.Publish(ports.ProgressEvent{
		JobId:     job.Id,
		Completed: job.Completed,
		Target:    job.Target,
		TxId:      txid,
		Status:    job.Status.String(),
		Error:     job.LastError,
	})
}
