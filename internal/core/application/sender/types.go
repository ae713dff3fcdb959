package sender

import (
	"golang.org/x/time/rate"

	"github.com/halcyon-wallet/halcyond/internal/core/ports"
	"github.com/halcyon-wallet/halcyond/pkg/explorer"
)

const (
	// DispatchModeOneToMany splits one logical payment from a single wallet
	// into fixed-size groups of recipients.
	DispatchModeOneToMany = "oneToMany"
	// DispatchModeManyToOne issues one independent payment per sending
	// wallet toward a single recipient.
	DispatchModeManyToOne = "manyToOne"

	// defaultSubBatchSize bounds the number of outputs per transaction in
	// one-to-many dispatches. Conservative on purpose.
	defaultSubBatchSize = 2
	// nativeDecimals is the decimal scale of the native coin.
	nativeDecimals = 8
)

// Opts defines the parameters needed for creating a sender service with the
// NewService method.
type Opts struct {
	KeySource    ports.KeySource
	ExplorerSvc  explorer.Service
	SubBatchSize int
	Limiter      *rate.Limiter
}

// Recipient is one destination of a dispatch. Amount is a decimal string in
// display units of the dispatched asset.
type Recipient struct {
	Address string
	Amount  string
}

// DispatchRequest is one logical transfer fanned out over one or more
// wallets. Ticker selects the asset, empty meaning the native coin.
// FeeCeiling is an integer string in the native asset's smallest unit.
type DispatchRequest struct {
	Mode       string
	Senders    []string
	Recipients []Recipient
	Ticker     string
	FeeCeiling string
}
