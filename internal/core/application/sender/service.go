package sender

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/halcyon-wallet/halcyond/internal/core/domain"
	"github.com/halcyon-wallet/halcyond/internal/core/ports"
	"github.com/halcyon-wallet/halcyond/pkg/explorer"
)

// Service fans a single logical transfer request out across wallets and
// collects per-wallet outcomes. It is synchronous: Dispatch returns once
// every unit of work has completed, successfully or not.
type Service struct {
	keySource    ports.KeySource
	explorerSvc  explorer.Service
	subBatchSize int
	limiter      *rate.Limiter
}

// NewService returns a sender service.
func NewService(opts Opts) *Service {
	subBatchSize := opts.SubBatchSize
	if subBatchSize <= 0 {
		subBatchSize = defaultSubBatchSize
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Service{
		keySource:    opts.KeySource,
		explorerSvc:  opts.ExplorerSvc,
		subBatchSize: subBatchSize,
		limiter:      limiter,
	}
}

// Dispatch validates the request and routes it to the mode-specific path.
// Validation and shared credential errors are returned directly; per-sender
// failures in many-to-one mode are captured as failed outcomes instead.
func (s *Service) Dispatch(
	ctx context.Context, req DispatchRequest,
) ([]domain.TransferOutcome, error) {
	if len(req.Senders) == 0 {
		return nil, domain.ErrMissingSenders
	}
	if len(req.Recipients) == 0 {
		return nil, domain.ErrMissingRecipients
	}
	if err := domain.ValidateAmount(req.FeeCeiling); err != nil {
		return nil, err
	}
	// Every monetary string is checked before any network call: malformed
	// input never causes a partial submission.
	for _, recipient := range req.Recipients {
		if recipient.Address == "" {
			return nil, domain.ErrInvalidAddress
		}
		if err := domain.ValidateAmount(recipient.Amount); err != nil {
			return nil, err
		}
	}

	feeCeiling, err := domain.ParseAmount(req.FeeCeiling, 0)
	if err != nil {
		return nil, err
	}

	decimals := uint32(nativeDecimals)
	if req.Ticker != "" {
		info, err := s.explorerSvc.GetAssetInfo(ctx, req.Ticker)
		if err != nil {
			return nil, fmt.Errorf("fetching info for asset %s: %w", req.Ticker, err)
		}
		decimals = info.Decimals
	}

	switch req.Mode {
	case DispatchModeOneToMany:
		return s.dispatchOneToMany(ctx, req, decimals, feeCeiling)
	case DispatchModeManyToOne:
		return s.dispatchManyToOne(ctx, req, decimals, feeCeiling)
	default:
		return nil, fmt.Errorf("unknown dispatch mode %s", req.Mode)
	}
}

// dispatchOneToMany splits the recipient list into fixed-size sub-batches
// submitted sequentially from the single sending wallet. The recipients are
// logically one request split mechanically, so a sub-batch failure aborts the
// whole dispatch instead of returning partial results.
func (s *Service) dispatchOneToMany(
	ctx context.Context, req DispatchRequest, decimals uint32,
	feeCeiling *big.Int,
) ([]domain.TransferOutcome, error) {
	if len(req.Senders) != 1 {
		return nil, fmt.Errorf("one-to-many dispatch requires exactly one sender")
	}
	sender := req.Senders[0]

	signer, err := s.keySource.ResolvePrivateKey(ctx, sender)
	if err != nil {
		return nil, err
	}

	outputs := make([]explorer.TxOutput, 0, len(req.Recipients))
	for _, recipient := range req.Recipients {
		amount, err := domain.ParseAmount(recipient.Amount, decimals)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, explorer.TxOutput{
			Address: recipient.Address,
			Amount:  amount,
		})
	}

	numBatches := (len(outputs) + s.subBatchSize - 1) / s.subBatchSize
	outcomes := make([]domain.TransferOutcome, 0, numBatches)
	for i := 0; i < len(outputs); i += s.subBatchSize {
		end := min(i+s.subBatchSize, len(outputs))

		// Sub-batches share the sender's spendable outputs, hence the
		// sequential submission and the throttle in between.
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		txid, err := s.submit(ctx, signer, req.Ticker, outputs[i:end], feeCeiling)
		if err != nil {
			return nil, fmt.Errorf(
				"sub-batch %d of %d: %w", i/s.subBatchSize+1, numBatches, err,
			)
		}
		outcomes = append(outcomes, domain.NewTransferSuccess(sender, txid))
		log.Debugf(
			"dispatched sub-batch %d of %d from %s: %s",
			i/s.subBatchSize+1, numBatches, sender, txid,
		)
	}

	return outcomes, nil
}

// dispatchManyToOne issues one independent payment per sender, concurrently
// since each wallet owns disjoint funds. Failures, including unresolvable
// credentials, become failed outcomes; the call never returns early and the
// outcome list always counts one entry per sender.
func (s *Service) dispatchManyToOne(
	ctx context.Context, req DispatchRequest, decimals uint32,
	feeCeiling *big.Int,
) ([]domain.TransferOutcome, error) {
	if len(req.Recipients) != 1 {
		return nil, fmt.Errorf("many-to-one dispatch requires exactly one recipient")
	}
	recipient := req.Recipients[0]

	amount, err := domain.ParseAmount(recipient.Amount, decimals)
	if err != nil {
		return nil, err
	}
	outputs := []explorer.TxOutput{{Address: recipient.Address, Amount: amount}}

	outcomes := make([]domain.TransferOutcome, 0, len(req.Senders))
	lock := sync.Mutex{}
	collect := func(outcome domain.TransferOutcome) {
		lock.Lock()
		defer lock.Unlock()
		outcomes = append(outcomes, outcome)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range req.Senders {
		sender := req.Senders[i]
		g.Go(func() error {
			signer, err := s.keySource.ResolvePrivateKey(gctx, sender)
			if err != nil {
				collect(domain.NewTransferFailure(sender, err))
				return nil
			}
			txid, err := s.submit(gctx, signer, req.Ticker, outputs, feeCeiling)
			if err != nil {
				collect(domain.NewTransferFailure(sender, err))
				return nil
			}
			collect(domain.NewTransferSuccess(sender, txid))
			return nil
		})
	}
	// Workers never return an error, Wait is just the join point.
	g.Wait()

	if !domain.AllSucceeded(outcomes) {
		log.Debugf(
			"many-to-one dispatch to %s completed with failures", recipient.Address,
		)
	}
	return outcomes, nil
}

func (s *Service) submit(
	ctx context.Context, signer explorer.Signer, ticker string,
	outs []explorer.TxOutput, feeCeiling *big.Int,
) (string, error) {
	if ticker == "" {
		return s.explorerSvc.SubmitTransfer(ctx, signer, outs, feeCeiling)
	}
	return s.explorerSvc.SubmitAssetTransfer(ctx, signer, ticker, outs, feeCeiling)
}
