package minter

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/halcyon-wallet/halcyond/internal/core/domain"
	"github.com/halcyon-wallet/halcyond/internal/core/ports"
	"github.com/halcyon-wallet/halcyond/pkg/explorer"
)

const (
	// defaultBatchSize keeps each batch under the typical utxo and rate
	// constraints of the node. Small on purpose, never 1 and never unbounded.
	defaultBatchSize = 3
	// defaultPollInterval is the pause between two balance queries while
	// waiting for a batch to settle.
	defaultPollInterval = 1500 * time.Millisecond
	// defaultPollTimeout is the window after which a batch that did not
	// settle aborts the job.
	defaultPollTimeout = 120 * time.Second
	// defaultSubmitRate bounds the submissions toward the node.
	defaultSubmitRate = 5
)

// Opts defines the parameters needed for creating a minter service with the
// NewService method. Zero values fall back to the defaults above.
type Opts struct {
	Registry     *domain.JobRegistry
	KeySource    ports.KeySource
	ExplorerSvc  explorer.Service
	Publisher    ports.ProgressPublisher
	BatchSize    int
	PollInterval time.Duration
	PollTimeout  time.Duration
	Limiter      *rate.Limiter
}

// StartJobRequest carries the arguments of a mint job start request.
// FeeCeiling is the per-unit fee ceiling expressed as an integer string in
// the native asset's smallest unit.
type StartJobRequest struct {
	JobId         string
	WalletAddress string
	Ticker        string
	Target        int
	FeeCeiling    string
}
