package minter

import (
	"context"
	"math/big"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/halcyon-wallet/halcyond/internal/core/domain"
	"github.com/halcyon-wallet/halcyond/pkg/explorer"
)

// Confirmer polls the indexer until a tracked balance rises above a recorded
// baseline. It is how the scheduler detects that a submitted batch settled.
type Confirmer struct {
	explorerSvc explorer.Service
	limiter     *rate.Limiter
}

// NewConfirmer returns a Confirmer using the given limiter to throttle its
// balance queries.
func NewConfirmer(explorerSvc explorer.Service, limiter *rate.Limiter) *Confirmer {
	return &Confirmer{explorerSvc, limiter}
}

// WaitForIncrease sleeps interval, queries the balance of address for ticker
// (the native asset if empty) and returns the new balance as soon as it
// strictly exceeds baseline. Transient query errors are logged and treated as
// not-yet-confirmed; only the overall timeout aborts the wait, with a
// domain.ErrConfirmationTimeout.
func (c *Confirmer) WaitForIncrease(
	ctx context.Context, address, ticker string, decimals uint32,
	baseline *big.Int, timeout, interval time.Duration,
) (*big.Int, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, domain.ErrConfirmationTimeout{Asset: ticker, Timeout: timeout}
		case <-time.After(interval):
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var value string
		var err error
		if ticker == "" {
			value, err = c.explorerSvc.GetBalance(ctx, address)
		} else {
			value, err = c.explorerSvc.GetAssetBalance(ctx, address, ticker)
		}
		if err != nil {
			log.WithError(err).Warnf(
				"failed to fetch balance for %s, retrying", address,
			)
			continue
		}

		balance, err := domain.ParseBalance(value, decimals)
		if err != nil {
			log.WithError(err).Warnf("skipping unparseable balance for %s", address)
			continue
		}

		if balance.Cmp(baseline) > 0 {
			return balance, nil
		}
	}
}
